package services

import (
	"context"

	"essaycoach/internal/domain/models"
)

// ProgressService drives the writing tool unlock state machine
type ProgressService interface {
	// GetProgress returns the client's progress, creating the initial one if needed
	GetProgress(ctx context.Context, clientKey string) (*models.Progress, error)

	// RecordPractice counts one use of an unlocked tool
	RecordPractice(ctx context.Context, clientKey, toolID string) (*PracticeResult, error)

	// ResetProgress returns the client to the initial progress
	ResetProgress(ctx context.Context, clientKey string) (*models.Progress, error)
}

// PracticeResult reports what a practice changed
type PracticeResult struct {
	Progress      *models.Progress `json:"progress"`
	PointsAwarded int              `json:"points_awarded"`
	Mastered      bool             `json:"mastered"`
	Unlocked      *string          `json:"unlocked,omitempty"` // tool unlocked by this practice
}

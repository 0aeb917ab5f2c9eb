package services

import (
	"context"

	"essaycoach/internal/domain/models"
)

// SettingsService manages the client's persisted AI configuration
type SettingsService interface {
	// GetAIConfig returns the stored configuration, or an empty one
	GetAIConfig(ctx context.Context, clientKey string) (*models.AIConfig, error)

	// UpdateAIConfig applies a partial update
	UpdateAIConfig(ctx context.Context, clientKey string, req *models.UpdateAIConfigRequest) (*models.AIConfig, error)
}

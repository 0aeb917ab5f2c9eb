package progress

import (
	"context"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"essaycoach/internal/catalog"
	"essaycoach/internal/domain"
	"essaycoach/internal/domain/models"
	"essaycoach/internal/domain/services"
	"essaycoach/internal/metrics"
	"essaycoach/internal/service/state"
)

type progressService struct {
	states  *state.Manager
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// NewService creates a new progress service
func NewService(states *state.Manager, cat *catalog.Catalog, logger *slog.Logger) services.ProgressService {
	return &progressService{
		states:  states,
		catalog: cat,
		logger:  logger,
	}
}

// Initial returns the progress of a student who has not practised yet
func Initial(cat *catalog.Catalog) *models.Progress {
	return &models.Progress{
		UnlockedTools: []string{cat.First().ID},
		MasteredTools: []string{},
		Practice:      map[string]int{},
		Points:        0,
		Level:         1,
		UpdatedAt:     time.Now(),
	}
}

func (s *progressService) GetProgress(ctx context.Context, clientKey string) (*models.Progress, error) {
	var progress *models.Progress
	err := s.states.Read(ctx, clientKey, func(st *models.AppState) error {
		progress = st.Progress
		return nil
	})
	if err != nil {
		return nil, err
	}
	if progress == nil {
		progress = Initial(s.catalog)
	}
	return progress, nil
}

// RecordPractice counts one use of toolID. Reaching the tool's mastery count
// masters it and unlocks the next tool in catalog order.
func (s *progressService) RecordPractice(ctx context.Context, clientKey, toolID string) (*services.PracticeResult, error) {
	if err := validation.Validate(toolID, validation.Required); err != nil {
		return nil, &domain.ValidationError{Message: "tool_id: " + err.Error()}
	}
	tool, ok := s.catalog.Get(toolID)
	if !ok {
		return nil, domain.NewNotFound("tool", toolID)
	}

	var result *services.PracticeResult
	err := s.states.Update(ctx, clientKey, func(st *models.AppState) error {
		if st.Progress == nil {
			st.Progress = Initial(s.catalog)
		}
		p := st.Progress
		if p.Practice == nil {
			p.Practice = map[string]int{}
		}
		if !p.IsUnlocked(toolID) {
			return domain.NewInvalidOperation("tool is locked: " + toolID)
		}

		p.Practice[toolID]++
		p.Points += tool.Points
		result = &services.PracticeResult{Progress: p, PointsAwarded: tool.Points}

		if !p.IsMastered(toolID) && p.Practice[toolID] >= tool.MasteryCount {
			p.MasteredTools = append(p.MasteredTools, toolID)
			result.Mastered = true
			if next, ok := s.catalog.Next(toolID); ok && !p.IsUnlocked(next.ID) {
				p.UnlockedTools = append(p.UnlockedTools, next.ID)
				result.Unlocked = &next.ID
			}
		}
		p.Level = 1 + len(p.MasteredTools)
		p.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordPractice(toolID, result.Mastered)
	s.logger.Info("practice recorded",
		"client_key", clientKey,
		"tool_id", toolID,
		"count", result.Progress.Practice[toolID],
		"mastered", result.Mastered,
		"level", result.Progress.Level,
	)
	return result, nil
}

func (s *progressService) ResetProgress(ctx context.Context, clientKey string) (*models.Progress, error) {
	progress := Initial(s.catalog)
	err := s.states.Update(ctx, clientKey, func(st *models.AppState) error {
		st.Progress = progress
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("progress reset", "client_key", clientKey)
	return progress, nil
}

package settings

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"essaycoach/internal/domain"
	"essaycoach/internal/domain/models"
	"essaycoach/internal/domain/services"
	"essaycoach/internal/service/ai"
	"essaycoach/internal/service/state"
)

type settingsService struct {
	states          *state.Manager
	defaultProvider string
	logger          *slog.Logger
}

// NewService creates a new settings service
func NewService(states *state.Manager, defaultProvider string, logger *slog.Logger) services.SettingsService {
	return &settingsService{
		states:          states,
		defaultProvider: defaultProvider,
		logger:          logger,
	}
}

func (s *settingsService) GetAIConfig(ctx context.Context, clientKey string) (*models.AIConfig, error) {
	var cfg *models.AIConfig
	err := s.states.Read(ctx, clientKey, func(st *models.AppState) error {
		cfg = st.AIConfig
		return nil
	})
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &models.AIConfig{}
	}
	return cfg, nil
}

func (s *settingsService) UpdateAIConfig(ctx context.Context, clientKey string, req *models.UpdateAIConfigRequest) (*models.AIConfig, error) {
	if req.Model.Present && req.Model.Value != nil {
		err := validation.Validate(*req.Model.Value,
			validation.Required,
			validation.By(s.parsableModel),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: model: %v", domain.ErrValidation, err)
		}
	}

	var out models.AIConfig
	err := s.states.Update(ctx, clientKey, func(st *models.AppState) error {
		if st.AIConfig == nil {
			st.AIConfig = &models.AIConfig{}
		}
		if req.Model.Present {
			if req.Model.Value == nil {
				st.AIConfig.Model = ""
			} else {
				st.AIConfig.Model = *req.Model.Value
			}
		}
		st.AIConfig.UpdatedAt = time.Now()
		out = *st.AIConfig
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("ai config updated", "client_key", clientKey, "model", out.Model)
	return &out, nil
}

func (s *settingsService) parsableModel(value interface{}) error {
	model, _ := value.(string)
	_, err := ai.ParseModel(model, s.defaultProvider)
	return err
}

package handler

import (
	"log/slog"
	"net/http"

	"essaycoach/internal/domain/models"
	"essaycoach/internal/domain/services"
	"essaycoach/internal/httputil"
)

// SettingsHandler handles AI configuration HTTP requests
type SettingsHandler struct {
	service services.SettingsService
	logger  *slog.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(service services.SettingsService, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		service: service,
		logger:  logger,
	}
}

// updateAIConfigRequest is the HTTP body for PATCH /api/settings/ai.
// model: absent keeps, null clears, string sets.
type updateAIConfigRequest struct {
	Model httputil.OptionalString `json:"model"`
}

// GetAIConfig returns the stored AI configuration
// GET /api/settings/ai
func (h *SettingsHandler) GetAIConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.service.GetAIConfig(r.Context(), httputil.GetClientKey(r))
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, cfg)
}

// UpdateAIConfig applies a partial update
// PATCH /api/settings/ai
func (h *SettingsHandler) UpdateAIConfig(w http.ResponseWriter, r *http.Request) {
	var body updateAIConfigRequest
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if body.Model.Clears() {
		h.logger.Debug("model preference reset to default", "client_key", httputil.GetClientKey(r))
	}

	req := &models.UpdateAIConfigRequest{
		Model: models.OptionalModel{
			Present: body.Model.Present,
			Value:   body.Model.Value,
		},
	}

	cfg, err := h.service.UpdateAIConfig(r.Context(), httputil.GetClientKey(r), req)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, cfg)
}

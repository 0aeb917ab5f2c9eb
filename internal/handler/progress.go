package handler

import (
	"log/slog"
	"net/http"

	"essaycoach/internal/catalog"
	"essaycoach/internal/domain/services"
	"essaycoach/internal/httputil"
)

// ProgressHandler serves the writing tool ladder
type ProgressHandler struct {
	service services.ProgressService
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(service services.ProgressService, cat *catalog.Catalog, logger *slog.Logger) *ProgressHandler {
	return &ProgressHandler{
		service: service,
		catalog: cat,
		logger:  logger,
	}
}

// practiceRequest is the body of POST /api/progress/practice
type practiceRequest struct {
	ToolID string `json:"tool_id"`
}

// ListTools returns the tool catalog in unlock order
// GET /api/tools
func (h *ProgressHandler) ListTools(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.catalog.List())
}

// GetProgress returns the client's progress
// GET /api/progress
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.service.GetProgress(r.Context(), httputil.GetClientKey(r))
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, progress)
}

// RecordPractice counts one practice of a tool
// POST /api/progress/practice
func (h *ProgressHandler) RecordPractice(w http.ResponseWriter, r *http.Request) {
	var req practiceRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.RecordPractice(r.Context(), httputil.GetClientKey(r), req.ToolID)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, result)
}

// ResetProgress starts the ladder over
// DELETE /api/progress
func (h *ProgressHandler) ResetProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.service.ResetProgress(r.Context(), httputil.GetClientKey(r))
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, progress)
}

package handler

import (
	"log/slog"
	"net/http"

	"essaycoach/internal/domain/services"
	"essaycoach/internal/httputil"
)

// HistoryHandler serves the version forest views of an essay
type HistoryHandler struct {
	service services.EssayService
	logger  *slog.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(service services.EssayService, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{
		service: service,
		logger:  logger,
	}
}

// GetTree returns the whole version forest
// GET /api/essays/{id}/tree
func (h *HistoryHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.service.GetTree(r.Context(), httputil.GetClientKey(r), r.PathValue("id"))
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, tree)
}

// GetPath returns the root-to-leaf path through ?version_id, or the default path
// GET /api/essays/{id}/path
func (h *HistoryHandler) GetPath(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetPath(r.Context(), httputil.GetClientKey(r), r.PathValue("id"), r.URL.Query().Get("version_id"))
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, view)
}

// SwitchSibling moves the path to the previous or next branch
// POST /api/essays/{id}/path/switch
func (h *HistoryHandler) SwitchSibling(w http.ResponseWriter, r *http.Request) {
	var req services.SwitchSiblingRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	view, err := h.service.SwitchSibling(r.Context(), httputil.GetClientKey(r), r.PathValue("id"), &req)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, view)
}

// GetHistorySummary returns the condensed history used as AI context
// GET /api/essays/{id}/history-summary
func (h *HistoryHandler) GetHistorySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetHistorySummary(r.Context(), httputil.GetClientKey(r), r.PathValue("id"))
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

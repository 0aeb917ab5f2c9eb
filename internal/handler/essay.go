package handler

import (
	"log/slog"
	"net/http"

	"essaycoach/internal/domain/services"
	"essaycoach/internal/httputil"
)

// EssayHandler handles essay and version HTTP requests
type EssayHandler struct {
	service services.EssayService
	logger  *slog.Logger
}

// NewEssayHandler creates a new essay handler
func NewEssayHandler(service services.EssayService, logger *slog.Logger) *EssayHandler {
	return &EssayHandler{
		service: service,
		logger:  logger,
	}
}

// ListEssays returns the client's essays
// GET /api/essays
func (h *EssayHandler) ListEssays(w http.ResponseWriter, r *http.Request) {
	essays, err := h.service.ListEssays(r.Context(), httputil.GetClientKey(r))
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, essays)
}

// CreateEssay creates an essay with its first version
// POST /api/essays
func (h *EssayHandler) CreateEssay(w http.ResponseWriter, r *http.Request) {
	var req services.CreateEssayRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	e, err := h.service.CreateEssay(r.Context(), httputil.GetClientKey(r), &req)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, e)
}

// GetEssay returns one essay with all its versions
// GET /api/essays/{id}
func (h *EssayHandler) GetEssay(w http.ResponseWriter, r *http.Request) {
	e, err := h.service.GetEssay(r.Context(), httputil.GetClientKey(r), r.PathValue("id"))
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, e)
}

// UpdateEssay renames an essay
// PATCH /api/essays/{id}
func (h *EssayHandler) UpdateEssay(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateEssayRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	e, err := h.service.UpdateEssay(r.Context(), httputil.GetClientKey(r), r.PathValue("id"), &req)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, e)
}

// DeleteEssay deletes an essay and all its versions
// DELETE /api/essays/{id}
func (h *EssayHandler) DeleteEssay(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteEssay(r.Context(), httputil.GetClientKey(r), r.PathValue("id")); err != nil {
		handleError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddVersion appends a revision
// POST /api/essays/{id}/versions
func (h *EssayHandler) AddVersion(w http.ResponseWriter, r *http.Request) {
	var req services.AddVersionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	v, err := h.service.AddVersion(r.Context(), httputil.GetClientKey(r), r.PathValue("id"), &req)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, v)
}

// UpdateVersionFeedback stores a re-review without a content change
// PATCH /api/essays/{id}/versions/{versionId}
func (h *EssayHandler) UpdateVersionFeedback(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateFeedbackRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	v, err := h.service.UpdateVersionFeedback(r.Context(), httputil.GetClientKey(r),
		r.PathValue("id"), r.PathValue("versionId"), &req)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, v)
}

// DeleteVersion removes a version; the updated essay is returned
// DELETE /api/essays/{id}/versions/{versionId}
func (h *EssayHandler) DeleteVersion(w http.ResponseWriter, r *http.Request) {
	e, err := h.service.DeleteVersion(r.Context(), httputil.GetClientKey(r), r.PathValue("id"), r.PathValue("versionId"))
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, e)
}

// ToggleActionItem flips a checklist entry
// PATCH /api/essays/{id}/versions/{versionId}/action-items/{itemId}
func (h *EssayHandler) ToggleActionItem(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.ToggleActionItem(r.Context(), httputil.GetClientKey(r),
		r.PathValue("id"), r.PathValue("versionId"), r.PathValue("itemId"))
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, v)
}

// RequestFeedback asks the AI reviewer about a version
// POST /api/essays/{id}/versions/{versionId}/feedback
func (h *EssayHandler) RequestFeedback(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.RequestFeedback(r.Context(), httputil.GetClientKey(r), r.PathValue("id"), r.PathValue("versionId"))
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, v)
}

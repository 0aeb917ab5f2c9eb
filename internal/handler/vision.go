package handler

import (
	"log/slog"
	"net/http"

	"essaycoach/internal/domain/services"
	"essaycoach/internal/httputil"
)

// VisionHandler turns photos of handwritten drafts into text
type VisionHandler struct {
	describer services.ImageDescriber
	logger    *slog.Logger
}

// NewVisionHandler creates a new vision handler
func NewVisionHandler(describer services.ImageDescriber, logger *slog.Logger) *VisionHandler {
	return &VisionHandler{
		describer: describer,
		logger:    logger,
	}
}

type describeRequest struct {
	Image  string `json:"image"` // data URL
	Prompt string `json:"prompt"`
}

// defaultVisionPrompt asks for a transcription of a handwritten essay
const defaultVisionPrompt = "请把图片中的作文逐字抄写出来，保留分段，不要添加任何评论。"

// Describe sends an image to the vision model
// POST /api/vision/describe
func (h *VisionHandler) Describe(w http.ResponseWriter, r *http.Request) {
	var req describeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Image == "" {
		httputil.RespondError(w, http.StatusBadRequest, "image is required")
		return
	}
	if req.Prompt == "" {
		req.Prompt = defaultVisionPrompt
	}

	desc, err := h.describer.DescribeImage(r.Context(), httputil.GetClientKey(r), req.Image, req.Prompt)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, desc)
}

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"essaycoach/internal/domain"
	"essaycoach/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var (
		limited  *domain.RateLimitedError
		httpErr  domain.HTTPError
		conflict *domain.ConflictError
	)

	switch {
	case errors.As(err, &limited):
		w.Header().Set("Retry-After", strconv.Itoa(limited.RetryAfterSeconds()))
		httputil.RespondErrorWithExtras(w, http.StatusTooManyRequests, err.Error(), map[string]interface{}{
			"retry_after": limited.RetryAfterSeconds(),
		})
	case errors.As(err, &conflict):
		httputil.RespondErrorWithExtras(w, http.StatusConflict, conflict.Error(), map[string]interface{}{
			"resource_type": conflict.ResourceType,
			"resource_id":   conflict.ResourceID,
		})
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidOperation):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &httpErr):
		if httpErr.StatusCode() >= http.StatusInternalServerError {
			logger.Warn("upstream failure", "error", err)
		}
		httputil.RespondError(w, httpErr.StatusCode(), httpErr.Error())
	default:
		logger.Error("unhandled error", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// HealthCheck reports liveness
// GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

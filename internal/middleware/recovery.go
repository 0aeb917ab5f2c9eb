package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"essaycoach/internal/httputil"
	"essaycoach/internal/metrics"
)

// Recovery turns a handler panic into a 500 problem response. The panic value
// and stack go to the log, never to the client.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				// Handlers abort streaming responses this way; let net/http handle it
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				metrics.RecordPanic(r.Method)
				logger.Error("panic recovered",
					"panic", fmt.Sprint(rec),
					"method", r.Method,
					"path", r.URL.Path,
					"client_key", httputil.GetClientKey(r),
					"stack", string(debug.Stack()),
				)
				httputil.RespondProblem(w, httputil.ProblemDetail{
					Status:   http.StatusInternalServerError,
					Detail:   "internal server error",
					Instance: r.URL.Path,
				})
			}()

			next.ServeHTTP(w, r)
		})
	}
}

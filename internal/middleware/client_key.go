package middleware

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"essaycoach/internal/auth"
	"essaycoach/internal/httputil"
)

// ClientIDHeader lets an anonymous browser keep a stable identity across IPs
const ClientIDHeader = "X-Client-ID"

const maxClientIDLength = 128

// ClientKey resolves who a request belongs to and stores it in the context.
// With a verifier, a Bearer token is required and its subject is the key.
// Without one, the X-Client-ID header is used, then the remote IP.
func ClientKey(verifier auth.JWTVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier != nil {
				token, err := bearerToken(r)
				if err != nil {
					httputil.RespondError(w, http.StatusUnauthorized, err.Error())
					return
				}
				claims, err := verifier.VerifyToken(token)
				if err != nil {
					logger.Debug("token rejected", "path", r.URL.Path, "error", err)
					httputil.RespondError(w, http.StatusUnauthorized, "invalid token")
					return
				}
				next.ServeHTTP(w, httputil.WithClientKey(r, "user:"+claims.GetUserID()))
				return
			}

			next.ServeHTTP(w, httputil.WithClientKey(r, anonymousKey(r)))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New("missing authorization header")
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", errors.New("authorization header must be a Bearer token")
	}
	return strings.TrimSpace(token), nil
}

func anonymousKey(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(ClientIDHeader)); id != "" && len(id) <= maxClientIDLength {
		return "client:" + id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

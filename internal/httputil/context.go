package httputil

import (
	"context"
	"net/http"
)

// Context key type to avoid collisions
type contextKey string

const (
	clientKeyKey contextKey = "clientKey"
)

// WithClientKey adds the client key to the request context
func WithClientKey(r *http.Request, clientKey string) *http.Request {
	ctx := context.WithValue(r.Context(), clientKeyKey, clientKey)
	return r.WithContext(ctx)
}

// GetClientKey retrieves the client key from context, returns empty string if not found
func GetClientKey(r *http.Request) string {
	clientKey, _ := r.Context().Value(clientKeyKey).(string)
	return clientKey
}

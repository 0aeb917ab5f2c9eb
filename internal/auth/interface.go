package auth

import "essaycoach/internal/domain/models"

// JWTVerifier validates bearer tokens for deployments that sign students in.
// Without one the server falls back to anonymous client keys.
type JWTVerifier interface {
	// VerifyToken validates a JWT token string and returns the parsed claims.
	// Returns an error if the token is invalid, expired, or has an invalid signature.
	VerifyToken(tokenString string) (*models.SupabaseClaims, error)

	// Close releases any resources held by the verifier
	Close() error
}

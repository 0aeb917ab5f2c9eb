package repositories

import (
	"context"

	"essaycoach/internal/domain/models"
)

// StateKeyPrefix namespaces every persisted state key.
const StateKeyPrefix = "essaycoach:"

// StateKey returns the storage key for a client's state.
func StateKey(clientKey string) string {
	return StateKeyPrefix + clientKey
}

// StateRepository is the key-value persistence port for a client's
// progress, essays and AI configuration.
type StateRepository interface {
	// Load retrieves the state stored under key, upgraded to
	// models.CurrentSchemaVersion.
	// Returns nil (not an error) if nothing is stored yet
	Load(ctx context.Context, key string) (*models.AppState, error)

	// Save replaces the state stored under key
	Save(ctx context.Context, key string, state *models.AppState) error

	// Delete removes the state stored under key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
}

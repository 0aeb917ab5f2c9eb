package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"essaycoach/internal/domain/models"
	"essaycoach/internal/domain/repositories"
)

// StateRepository keeps encoded states in process memory. States are stored
// as JSON so callers never share structure with the store, and loads go
// through the same upgrade path as the postgres store.
type StateRepository struct {
	mu     sync.RWMutex
	states map[string][]byte
}

// NewStateRepository creates an empty in-memory store
func NewStateRepository() *StateRepository {
	return &StateRepository{states: make(map[string][]byte)}
}

var _ repositories.StateRepository = (*StateRepository)(nil)

// Load returns a copy of the state stored under key, or nil
func (r *StateRepository) Load(ctx context.Context, key string) (*models.AppState, error) {
	r.mu.RLock()
	raw, ok := r.states[key]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	var state models.AppState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	state.Upgrade()
	return &state, nil
}

// Save stores a copy of state under key
func (r *StateRepository) Save(ctx context.Context, key string, state *models.AppState) error {
	state.SchemaVersion = models.CurrentSchemaVersion
	state.UpdatedAt = time.Now()

	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	r.mu.Lock()
	r.states[key] = raw
	r.mu.Unlock()
	return nil
}

// Delete removes the state stored under key
func (r *StateRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	delete(r.states, key)
	r.mu.Unlock()
	return nil
}

// Put stores raw JSON under key without validation, for seeding legacy layouts
func (r *StateRepository) Put(key string, raw []byte) {
	r.mu.Lock()
	r.states[key] = raw
	r.mu.Unlock()
}

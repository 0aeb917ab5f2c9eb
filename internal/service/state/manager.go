package state

import (
	"context"
	"log/slog"
	"sync"

	"essaycoach/internal/domain/models"
	"essaycoach/internal/domain/models/essay"
	"essaycoach/internal/domain/repositories"
)

// Manager loads, mutates and saves a client's AppState. Writers for the same
// client are serialized in process by a per-key lock and, with the postgres
// store, by a row lock inside the transaction.
type Manager struct {
	repo      repositories.StateRepository
	txManager repositories.TransactionManager
	locks     *keyedMutex
	logger    *slog.Logger
}

// NewManager creates a state manager
func NewManager(repo repositories.StateRepository, txManager repositories.TransactionManager, logger *slog.Logger) *Manager {
	return &Manager{
		repo:      repo,
		txManager: txManager,
		locks:     newKeyedMutex(),
		logger:    logger,
	}
}

// Read loads the client's state and passes it to fn. Changes made by fn are
// discarded.
func (m *Manager) Read(ctx context.Context, clientKey string, fn func(*models.AppState) error) error {
	state, err := m.load(ctx, clientKey)
	if err != nil {
		return err
	}
	return fn(state)
}

// Update loads the client's state, applies fn and saves the result in one
// transaction. Nothing is saved when fn returns an error.
func (m *Manager) Update(ctx context.Context, clientKey string, fn func(*models.AppState) error) error {
	unlock := m.locks.Lock(clientKey)
	defer unlock()

	return m.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		state, err := m.load(txCtx, clientKey)
		if err != nil {
			return err
		}
		if err := fn(state); err != nil {
			return err
		}
		return m.repo.Save(txCtx, repositories.StateKey(clientKey), state)
	})
}

// Reset removes everything stored for the client
func (m *Manager) Reset(ctx context.Context, clientKey string) error {
	unlock := m.locks.Lock(clientKey)
	defer unlock()

	m.logger.Info("state reset", "client_key", clientKey)
	return m.repo.Delete(ctx, repositories.StateKey(clientKey))
}

func (m *Manager) load(ctx context.Context, clientKey string) (*models.AppState, error) {
	state, err := m.repo.Load(ctx, repositories.StateKey(clientKey))
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = &models.AppState{
			SchemaVersion: models.CurrentSchemaVersion,
			Essays:        []essay.Essay{},
		}
	}
	return state, nil
}

// keyedMutex hands out one mutex per key and forgets it once no goroutine
// holds or waits for it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock blocks until key is free and returns the matching unlock func
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

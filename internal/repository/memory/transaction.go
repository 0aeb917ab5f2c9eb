package memory

import (
	"context"

	"essaycoach/internal/domain/repositories"
)

// TransactionManager runs fn directly. The in-memory store has no rollback;
// callers already serialize writers per key.
type TransactionManager struct{}

// NewTransactionManager creates a pass-through transaction manager
func NewTransactionManager() repositories.TransactionManager {
	return TransactionManager{}
}

// ExecTx executes fn with ctx unchanged
func (TransactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

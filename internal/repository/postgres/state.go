package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"essaycoach/internal/domain/models"
	"essaycoach/internal/domain/repositories"
)

// PostgresStateRepository stores each client's AppState as one JSONB row
type PostgresStateRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewStateRepository creates a new PostgresStateRepository
func NewStateRepository(config *RepositoryConfig) *PostgresStateRepository {
	return &PostgresStateRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

var _ repositories.StateRepository = (*PostgresStateRepository)(nil)

// EnsureSchema creates the state table if it does not exist
func (r *PostgresStateRepository) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key            TEXT PRIMARY KEY,
			state          JSONB NOT NULL,
			schema_version INTEGER NOT NULL,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`, r.tables.AppState)

	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", r.tables.AppState, err)
	}
	return nil
}

// Load retrieves the state stored under key. Inside a transaction the row is
// locked until commit so concurrent writers serialize on it.
func (r *PostgresStateRepository) Load(ctx context.Context, key string) (*models.AppState, error) {
	query := fmt.Sprintf(`
		SELECT state, schema_version
		FROM %s
		WHERE key = $1
	`, r.tables.AppState)
	if repositories.GetTx(ctx) != nil {
		query += " FOR UPDATE"
	}

	var (
		raw           []byte
		schemaVersion int
	)
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, key).Scan(&raw, &schemaVersion)
	if err != nil {
		if IsPgNoRowsError(err) {
			// Nothing saved yet - not an error
			return nil, nil
		}
		if IsPgUndefinedTableError(err) {
			return nil, fmt.Errorf("load state: table %s missing (EnsureSchema not run): %w", r.tables.AppState, err)
		}
		return nil, fmt.Errorf("load state: %w", err)
	}

	var state models.AppState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	if state.SchemaVersion == 0 {
		state.SchemaVersion = schemaVersion
	}

	if state.Upgrade() {
		r.logger.Info("state upgraded",
			"key", key,
			"from_version", schemaVersion,
			"to_version", state.SchemaVersion,
		)
	}

	return &state, nil
}

// Save upserts the state stored under key
func (r *PostgresStateRepository) Save(ctx context.Context, key string, state *models.AppState) error {
	state.SchemaVersion = models.CurrentSchemaVersion
	state.UpdatedAt = time.Now()

	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (key, state, schema_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (key) DO UPDATE SET
			state = EXCLUDED.state,
			schema_version = EXCLUDED.schema_version,
			updated_at = EXCLUDED.updated_at
	`, r.tables.AppState)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, key, raw, state.SchemaVersion, state.UpdatedAt); err != nil {
		return fmt.Errorf("save state: %w", err)
	}

	r.logger.Debug("state saved",
		"key", key,
		"essays", len(state.Essays),
		"bytes", len(raw),
	)
	return nil
}

// Delete removes the state stored under key
func (r *PostgresStateRepository) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, r.tables.AppState)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, key); err != nil {
		return fmt.Errorf("delete state: %w", err)
	}
	return nil
}

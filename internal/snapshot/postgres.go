package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/stockflow/internal/platform/db"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS stock_snapshots (
	id UUID PRIMARY KEY,
	taken_at TIMESTAMPTZ NOT NULL,
	version BIGINT NOT NULL,
	state JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS stock_snapshots_taken_at_idx ON stock_snapshots (taken_at DESC);`

// PostgresStore keeps snapshots in a jsonb table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the snapshot table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("snapshot: ensure schema: %w", err)
	}
	return nil
}

// Save inserts the snapshot.
func (s *PostgresStore) Save(ctx context.Context, snap Snapshot) error {
	raw, err := json.Marshal(snap.State)
	if err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO stock_snapshots (id, taken_at, version, state) VALUES ($1, $2, $3, $4)`,
		snap.ID, snap.TakenAt, int64(snap.State.Version), raw)
	if err != nil {
		return fmt.Errorf("snapshot: insert %s: %w", snap.ID, err)
	}
	return nil
}

// Latest returns the most recent snapshot.
func (s *PostgresStore) Latest(ctx context.Context) (Snapshot, error) {
	var (
		snap Snapshot
		raw  []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id::text, taken_at, state FROM stock_snapshots ORDER BY taken_at DESC LIMIT 1`).
		Scan(&snap.ID, &snap.TakenAt, &raw)
	if errors.Is(err, pgx.ErrNoRows) || db.HasCode(err, db.UndefinedTable) {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return Snapshot{}, err
	}
	if err := json.Unmarshal(raw, &snap.State); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: decode %s: %w", snap.ID, err)
	}
	return snap, nil
}

// Prune deletes all but the newest keep snapshots.
func (s *PostgresStore) Prune(ctx context.Context, keep int) (int, error) {
	var removed int64
	err := db.WithTxLevel(ctx, s.pool, pgx.Serializable, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM stock_snapshots WHERE id NOT IN (
			SELECT id FROM stock_snapshots ORDER BY taken_at DESC LIMIT $1)`, keep)
		if err != nil {
			return err
		}
		removed = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("snapshot: prune: %w", err)
	}
	return int(removed), nil
}

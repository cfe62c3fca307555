package app

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/stockflow/internal/platform/cache"
	"github.com/odyssey-erp/stockflow/internal/platform/db"
	"github.com/odyssey-erp/stockflow/internal/snapshot"
)

// OpenSnapshotBackend connects the configured snapshot backend. It returns a
// nil backend when snapshots are disabled. close releases the connections.
func OpenSnapshotBackend(ctx context.Context, cfg *Config) (snapshot.Backend, func(), error) {
	switch cfg.SnapshotBackend {
	case SnapshotRedis:
		client, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		return snapshot.NewRedisStore(client), func() { _ = client.Close() }, nil
	case SnapshotPostgres:
		pool, err := db.New(ctx, cfg.PGDSN, db.WithMaxConns(4))
		if err != nil {
			return nil, nil, err
		}
		backend := snapshot.NewPostgresStore(pool)
		if err := backend.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return backend, pool.Close, nil
	case SnapshotNone, "":
		return nil, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown snapshot backend %q", cfg.SnapshotBackend)
	}
}

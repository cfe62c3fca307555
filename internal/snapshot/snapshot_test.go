package snapshot

import (
	"context"
	"os"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/stockflow/internal/platform/db"
	"github.com/odyssey-erp/stockflow/internal/store"
)

func newRedisStore(t *testing.T) (*RedisStore, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), client
}

func seed(t *testing.T, mem *store.Memory, qty int64) {
	t.Helper()
	require.NoError(t, mem.WithTx(context.Background(), func(_ context.Context, tx *store.Tx) error {
		tx.Ledger.Receive("OutletA", "MILK2002", qty, 2)
		return nil
	}))
}

func steppingClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func TestManagerSaveAndRestore(t *testing.T) {
	backend, _ := newRedisStore(t)
	ctx := context.Background()
	mem := store.New(nil)
	seed(t, mem, 10)

	mgr := NewManager(mem, backend, nil)
	mgr.now = steppingClock(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	id, err := mgr.Save(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	id, err = mgr.Save(ctx)
	require.NoError(t, err)
	require.Empty(t, id, "unchanged state is not saved again")

	seed(t, mem, 5)
	id, err = mgr.Save(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	restored := store.New(nil)
	ok, err := NewManager(restored, backend, nil).Restore(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, restored.View(ctx, func(tx *store.Tx) error {
		require.Equal(t, int64(15), tx.Ledger.GetOrZero("OutletA", "MILK2002").Qty)
		return nil
	}))
}

func TestManagerRestoreEmpty(t *testing.T) {
	backend, _ := newRedisStore(t)
	ok, err := NewManager(store.New(nil), backend, nil).Restore(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisStorePrune(t *testing.T) {
	backend, client := newRedisStore(t)
	ctx := context.Background()
	mem := store.New(nil)
	mgr := NewManager(mem, backend, nil)
	mgr.now = steppingClock(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	var ids []string
	for i := 1; i <= 4; i++ {
		seed(t, mem, int64(i))
		id, err := mgr.Save(ctx)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	removed, err := mgr.Prune(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, 2, removed)

	left, err := client.ZRange(ctx, redisIndexKey, 0, -1).Result()
	require.NoError(t, err)
	require.Equal(t, ids[2:], left)
	require.Zero(t, client.Exists(ctx, redisKeyPrefix+ids[0]).Val())

	latest, err := backend.Latest(ctx)
	require.NoError(t, err)
	require.Equal(t, ids[3], latest.ID)

	removed, err = mgr.Prune(ctx, 2)
	require.NoError(t, err)
	require.Zero(t, removed)
}

func TestRedisStoreLocked(t *testing.T) {
	backend, client := newRedisStore(t)
	ctx := context.Background()
	lock, err := redislock.New(client).Obtain(ctx, redisLockKey, time.Minute, nil)
	require.NoError(t, err)
	defer func() { _ = lock.Release(ctx) }()

	err = backend.Save(ctx, Snapshot{ID: "x", TakenAt: time.Now()})
	require.ErrorIs(t, err, ErrLocked)
}

func TestRunFlushesOnCancel(t *testing.T) {
	backend, _ := newRedisStore(t)
	mem := store.New(nil)
	seed(t, mem, 3)
	mgr := NewManager(mem, backend, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, mgr.Run(ctx, time.Hour))

	latest, err := backend.Latest(context.Background())
	require.NoError(t, err)
	require.Len(t, latest.State.Balances, 1)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("STOCKFLOW_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("STOCKFLOW_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	pool, err := db.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	backend := NewPostgresStore(pool)
	_, err = pool.Exec(ctx, `DROP TABLE IF EXISTS stock_snapshots`)
	require.NoError(t, err)

	_, err = backend.Latest(ctx)
	require.ErrorIs(t, err, ErrNoSnapshot)

	require.NoError(t, backend.EnsureSchema(ctx))
	mem := store.New(nil)
	mgr := NewManager(mem, backend, nil)
	mgr.now = steppingClock(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	for i := 1; i <= 3; i++ {
		seed(t, mem, int64(i))
		_, err := mgr.Save(ctx)
		require.NoError(t, err)
	}
	removed, err := mgr.Prune(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 2, removed)

	latest, err := backend.Latest(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(6), latest.State.Balances[0].Qty)
}

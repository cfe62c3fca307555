package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/stockflow/internal/platform/cache"
)

const (
	redisIndexKey  = "stockflow:snapshots"
	redisLockKey   = "stockflow:snapshots:lock"
	redisKeyPrefix = "stockflow:snapshot:"
	lockTTL        = 30 * time.Second
)

// RedisStore keeps snapshots as JSON strings indexed by a sorted set scored on
// the capture time. Writers serialise through a redislock lock.
type RedisStore struct {
	client *redis.Client
	locker *redislock.Client
}

// NewRedisStore constructs RedisStore.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, locker: redislock.New(client)}
}

func (s *RedisStore) obtain(ctx context.Context) (*redislock.Lock, error) {
	lock, err := s.locker.Obtain(ctx, redisLockKey, lockTTL, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLocked
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: obtain lock: %w", err)
	}
	return lock, nil
}

// Save stores the snapshot.
func (s *RedisStore) Save(ctx context.Context, snap Snapshot) error {
	lock, err := s.obtain(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = lock.Release(ctx)
	}()

	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisKeyPrefix+snap.ID, raw, 0)
		pipe.ZAdd(ctx, redisIndexKey, redis.Z{Score: float64(snap.TakenAt.UnixNano()), Member: snap.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("snapshot: write %s: %w", snap.ID, err)
	}
	return nil
}

// Latest returns the most recent snapshot.
func (s *RedisStore) Latest(ctx context.Context) (Snapshot, error) {
	ids, err := s.client.ZRevRange(ctx, redisIndexKey, 0, 0).Result()
	if err != nil {
		return Snapshot{}, err
	}
	if len(ids) == 0 {
		return Snapshot{}, ErrNoSnapshot
	}
	raw, err := s.client.Get(ctx, redisKeyPrefix+ids[0]).Bytes()
	if cache.IsMiss(err) {
		return Snapshot{}, fmt.Errorf("snapshot: %s indexed but missing", ids[0])
	}
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: decode %s: %w", ids[0], err)
	}
	return snap, nil
}

// Prune deletes all but the newest keep snapshots.
func (s *RedisStore) Prune(ctx context.Context, keep int) (int, error) {
	lock, err := s.obtain(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = lock.Release(ctx)
	}()

	stale, err := s.client.ZRange(ctx, redisIndexKey, 0, int64(-keep-1)).Result()
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}
	keys := make([]string, 0, len(stale))
	members := make([]any, 0, len(stale))
	for _, id := range stale {
		keys = append(keys, redisKeyPrefix+id)
		members = append(members, id)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		pipe.ZRem(ctx, redisIndexKey, members...)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("snapshot: prune: %w", err)
	}
	return len(stale), nil
}

package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	jobmetrics "github.com/odyssey-erp/stockflow/internal/jobs"
)

// ArchiveKeyPrefix prefixes the Redis hash holding an archived document.
const ArchiveKeyPrefix = "stockflow:archive:"

// ArchiveJob stores document blobs in Redis so they outlive a reset.
type ArchiveJob struct {
	Client  *redis.Client
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	TTL     time.Duration
}

// NewArchiveJob initialises the archive handler. A zero ttl keeps archives forever.
func NewArchiveJob(client *redis.Client, logger *slog.Logger, metrics *jobmetrics.Metrics, ttl time.Duration) *ArchiveJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArchiveJob{Client: client, Logger: logger, Metrics: metrics, TTL: ttl}
}

// Handle processes TaskDocumentArchive tasks.
func (j *ArchiveJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Client == nil {
		return errors.New("archive: handler not configured")
	}
	var payload DocumentArchivePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("archive: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.DocID == "" || len(payload.Blob) == 0 {
		return fmt.Errorf("archive: empty document: %w", asynq.SkipRetry)
	}
	tracker := j.Metrics.Track(TaskDocumentArchive)
	defer func() {
		err = tracker.End(err)
	}()

	key := ArchiveKeyPrefix + payload.DocID
	_, err = j.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"type", payload.Type,
			"ref", payload.Ref,
			"issued_at", payload.IssuedAt.UTC().Format(time.RFC3339),
			"blob", payload.Blob)
		if j.TTL > 0 {
			pipe.Expire(ctx, key, j.TTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("archive: write %s: %w", payload.DocID, err)
	}
	j.Metrics.AddArchived(payload.Type, 1)
	j.Logger.Info("document archived", slog.String("doc_id", payload.DocID), slog.Int("bytes", len(payload.Blob)))
	return nil
}

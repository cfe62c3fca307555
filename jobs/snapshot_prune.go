package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/stockflow/internal/jobs"
)

// Pruner deletes old snapshots, keeping the newest keep.
type Pruner interface {
	Prune(ctx context.Context, keep int) (int, error)
}

// SnapshotPruneJob enforces snapshot retention.
type SnapshotPruneJob struct {
	Pruner      Pruner
	Logger      *slog.Logger
	Metrics     *jobmetrics.Metrics
	DefaultKeep int
}

// NewSnapshotPruneJob initialises the retention handler.
func NewSnapshotPruneJob(pruner Pruner, logger *slog.Logger, metrics *jobmetrics.Metrics, keep int) *SnapshotPruneJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotPruneJob{Pruner: pruner, Logger: logger, Metrics: metrics, DefaultKeep: keep}
}

// Handle processes TaskSnapshotPrune tasks.
func (j *SnapshotPruneJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Pruner == nil {
		return errors.New("snapshot prune: handler not configured")
	}
	var payload SnapshotPrunePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("snapshot prune: decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	keep := payload.Keep
	if keep <= 0 {
		keep = j.DefaultKeep
	}
	if keep <= 0 {
		keep = 1
	}
	tracker := j.Metrics.Track(TaskSnapshotPrune)
	defer func() {
		err = tracker.End(err)
	}()

	removed, err := j.Pruner.Prune(ctx, keep)
	if err != nil {
		return fmt.Errorf("snapshot prune: %w", err)
	}
	j.Metrics.AddPruned(removed)
	j.Logger.Info("snapshots pruned", slog.Int("removed", removed), slog.Int("keep", keep))
	return nil
}

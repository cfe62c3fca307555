package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/stockflow/internal/documents"
	"github.com/odyssey-erp/stockflow/internal/shared"
)

// ArchiveQueue submits archive tasks.
type ArchiveQueue interface {
	EnqueueDocumentArchive(ctx context.Context, payload DocumentArchivePayload) (*asynq.TaskInfo, error)
}

// BlobSource reads document blobs.
type BlobSource interface {
	ViewDocuments(ctx context.Context, fn func(*documents.Registry) error) error
}

// ArchiveEnqueuer queues an archive task for every committed document.
type ArchiveEnqueuer struct {
	queue  ArchiveQueue
	blobs  BlobSource
	logger *slog.Logger
}

// NewArchiveEnqueuer constructs ArchiveEnqueuer.
func NewArchiveEnqueuer(queue ArchiveQueue, blobs BlobSource, logger *slog.Logger) *ArchiveEnqueuer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArchiveEnqueuer{queue: queue, blobs: blobs, logger: logger}
}

// HandleDocumentsIssued enqueues the documents. Documents removed by a reset
// before the hook ran are skipped.
func (e *ArchiveEnqueuer) HandleDocumentsIssued(ctx context.Context, docs []documents.Document) error {
	var errs []error
	for _, doc := range docs {
		var blob []byte
		err := e.blobs.ViewDocuments(ctx, func(r *documents.Registry) error {
			var err error
			blob, err = r.Blob(doc.DocID)
			return err
		})
		if errors.Is(err, shared.ErrNotFound) {
			e.logger.Debug("archive skipped", slog.String("doc_id", doc.DocID))
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		_, err = e.queue.EnqueueDocumentArchive(ctx, DocumentArchivePayload{
			DocID:    doc.DocID,
			Type:     string(doc.Type),
			Ref:      doc.Ref,
			IssuedAt: doc.Timestamp,
			Blob:     blob,
		})
		if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

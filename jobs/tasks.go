package jobs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDocumentArchive copies an issued document blob to the archive.
	TaskDocumentArchive = "documents:archive"
	// TaskSnapshotPrune enforces snapshot retention.
	TaskSnapshotPrune = "snapshot:prune"
)

var taskNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("stockflow/jobs"))

// DocumentArchivePayload carries the rendered document to archive.
type DocumentArchivePayload struct {
	DocID    string    `json:"doc_id"`
	Type     string    `json:"type"`
	Ref      string    `json:"ref,omitempty"`
	IssuedAt time.Time `json:"issued_at"`
	Blob     []byte    `json:"blob"`
}

// NewDocumentArchiveTask constructs the archive task. The task id derives from
// the document id so a document is queued at most once while retained.
func NewDocumentArchiveTask(payload DocumentArchivePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDocumentArchive, body,
		asynq.Queue(QueueDefault),
		asynq.TaskID(ArchiveTaskID(payload.DocID)),
		asynq.MaxRetry(5)), nil
}

// ArchiveTaskID returns the deterministic task id for a document.
func ArchiveTaskID(docID string) string {
	return uuid.NewSHA1(taskNamespace, []byte(TaskDocumentArchive+":"+docID)).String()
}

// SnapshotPrunePayload configures a retention run.
type SnapshotPrunePayload struct {
	Keep int `json:"keep"`
}

// NewSnapshotPruneTask constructs the retention task.
func NewSnapshotPruneTask(keep int) (*asynq.Task, error) {
	body, err := json.Marshal(SnapshotPrunePayload{Keep: keep})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSnapshotPrune, body, asynq.Queue(QueueDefault)), nil
}

// Package snapshot persists verbatim copies of the in-memory state so a
// restarted process resumes where the previous one stopped.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/stockflow/internal/store"
)

var (
	// ErrNoSnapshot is returned when the backend holds no snapshot yet.
	ErrNoSnapshot = errors.New("snapshot: none stored")
	// ErrLocked signals another writer holds the snapshot lock.
	ErrLocked = errors.New("snapshot: locked by another writer")
)

// Snapshot is one persisted copy of the state.
type Snapshot struct {
	ID      string      `json:"id"`
	TakenAt time.Time   `json:"taken_at"`
	State   store.State `json:"state"`
}

// Backend stores snapshots.
type Backend interface {
	Save(ctx context.Context, snap Snapshot) error
	Latest(ctx context.Context) (Snapshot, error)
	Prune(ctx context.Context, keep int) (int, error)
}

// Source is the state being snapshotted.
type Source interface {
	Version() uint64
	Export(ctx context.Context) (store.State, error)
	Import(ctx context.Context, st store.State) error
}

// Manager takes and restores snapshots.
type Manager struct {
	source  Source
	backend Backend
	logger  *slog.Logger
	now     func() time.Time

	mu        sync.Mutex
	lastSaved uint64
	saved     bool
}

// NewManager constructs a Manager.
func NewManager(source Source, backend Backend, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{source: source, backend: backend, logger: logger, now: time.Now}
}

// Restore loads the latest snapshot into the source. It reports false when the
// backend is empty.
func (m *Manager) Restore(ctx context.Context) (bool, error) {
	snap, err := m.backend.Latest(ctx)
	if errors.Is(err, ErrNoSnapshot) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("snapshot: load latest: %w", err)
	}
	if err := m.source.Import(ctx, snap.State); err != nil {
		return false, fmt.Errorf("snapshot: import %s: %w", snap.ID, err)
	}
	m.mu.Lock()
	m.lastSaved = m.source.Version()
	m.saved = true
	m.mu.Unlock()
	m.logger.Info("snapshot restored", slog.String("id", snap.ID), slog.Time("taken_at", snap.TakenAt))
	return true, nil
}

// Save writes a snapshot when the state changed since the previous save.
// The returned id is empty when nothing was written.
func (m *Manager) Save(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	version := m.source.Version()
	if m.saved && version == m.lastSaved {
		return "", nil
	}
	st, err := m.source.Export(ctx)
	if err != nil {
		return "", err
	}
	snap := Snapshot{ID: uuid.NewString(), TakenAt: m.now().UTC(), State: st}
	if err := m.backend.Save(ctx, snap); err != nil {
		return "", err
	}
	m.lastSaved = st.Version
	m.saved = true
	return snap.ID, nil
}

// Prune keeps the newest keep snapshots.
func (m *Manager) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 1 {
		keep = 1
	}
	return m.backend.Prune(ctx, keep)
}

// Run saves every interval until ctx is cancelled, then writes a final
// snapshot.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			m.saveAndLog(flushCtx)
			cancel()
			return nil
		case <-ticker.C:
			m.saveAndLog(ctx)
		}
	}
}

func (m *Manager) saveAndLog(ctx context.Context) {
	id, err := m.Save(ctx)
	switch {
	case errors.Is(err, ErrLocked):
		m.logger.Warn("snapshot skipped", slog.Any("error", err))
	case err != nil:
		m.logger.Error("snapshot failed", slog.Any("error", err))
	case id != "":
		m.logger.Info("snapshot saved", slog.String("id", id))
	}
}

// Package store owns the shared mutable state of the service: ledgers, cost
// history, documents, orders and the item master.
package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/odyssey-erp/stockflow/internal/audit"
	"github.com/odyssey-erp/stockflow/internal/catalog"
	"github.com/odyssey-erp/stockflow/internal/documents"
	"github.com/odyssey-erp/stockflow/internal/inventory"
	"github.com/odyssey-erp/stockflow/internal/orders"
)

// DocumentHook is notified after a committed operation issued documents.
type DocumentHook interface {
	HandleDocumentsIssued(ctx context.Context, docs []documents.Document) error
}

// Memory serialises every operation behind a single lock. WithTx stages a
// copy of the state and swaps it in only when the operation succeeds.
type Memory struct {
	mu        sync.RWMutex
	state     *Tx
	locations *catalog.Locations
	version   uint64
	logger    *slog.Logger

	hookMu sync.RWMutex
	hooks  []DocumentHook
}

// Option configures Memory.
type Option func(*Memory)

// WithLogger sets the logger used for hook failures.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Memory) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithItems seeds the item master.
func WithItems(items *catalog.ItemMaster) Option {
	return func(m *Memory) {
		if items != nil {
			m.state.Items = items
		}
	}
}

// New builds an empty store for the given locations.
func New(locations *catalog.Locations, opts ...Option) *Memory {
	if locations == nil {
		locations = catalog.DefaultLocations()
	}
	m := &Memory{
		locations: locations,
		logger:    slog.Default(),
		state: &Tx{
			Items:     catalog.NewItemMaster(catalog.DefaultSeed()),
			Ledger:    inventory.NewLedger(),
			Returns:   inventory.NewReturnsLedger(),
			History:   audit.NewLog(),
			Documents: documents.NewRegistry(),
			Orders:    orders.NewBook(),
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.state.locations = locations
	return m
}

// AddDocumentHook registers a hook called after commits that issued documents.
func (m *Memory) AddDocumentHook(h DocumentHook) {
	if h == nil {
		return
	}
	m.hookMu.Lock()
	m.hooks = append(m.hooks, h)
	m.hookMu.Unlock()
}

// Locations returns the location registry.
func (m *Memory) Locations() *catalog.Locations {
	return m.locations
}

// Version increases on every committed change.
func (m *Memory) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// WithTx runs fn against a staged copy of the state. The copy replaces the
// live state only when fn returns nil. A panic in fn leaves the live state
// untouched and releases the lock before propagating.
func (m *Memory) WithTx(ctx context.Context, fn func(context.Context, *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	issued, err := m.commit(ctx, fn)
	if err != nil {
		return err
	}
	if len(issued) > 0 {
		m.notify(ctx, issued)
	}
	return nil
}

func (m *Memory) commit(ctx context.Context, fn func(context.Context, *Tx) error) ([]documents.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	staged := m.state.clone()
	if err := fn(ctx, staged); err != nil {
		return nil, err
	}
	issued := staged.issued
	staged.issued = nil
	m.state = staged
	m.version++
	return issued, nil
}

// View gives fn read access to the live state. fn must not mutate it.
func (m *Memory) View(ctx context.Context, fn func(*Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(m.state)
}

// Reset empties orders, ledgers, history and documents. The item master and
// id counters survive so identifiers are never reused.
func (m *Memory) Reset(ctx context.Context) error {
	return m.WithTx(ctx, func(_ context.Context, tx *Tx) error {
		tx.Ledger = inventory.NewLedger()
		tx.Returns = inventory.NewReturnsLedger()
		tx.History = audit.NewLog()
		tx.Documents.Clear()
		tx.Orders.Clear()
		return nil
	})
}

// UpdateItems implements catalog.RepositoryPort.
func (m *Memory) UpdateItems(ctx context.Context, fn func(*catalog.ItemMaster) error) error {
	return m.WithTx(ctx, func(_ context.Context, tx *Tx) error {
		return fn(tx.Items)
	})
}

// ViewItems implements catalog.RepositoryPort.
func (m *Memory) ViewItems(ctx context.Context, fn func(*catalog.ItemMaster) error) error {
	return m.View(ctx, func(tx *Tx) error {
		return fn(tx.Items)
	})
}

// UpdateLedger implements inventory.RepositoryPort.
func (m *Memory) UpdateLedger(ctx context.Context, fn func(*inventory.Ledger, *catalog.ItemMaster) error) error {
	return m.WithTx(ctx, func(_ context.Context, tx *Tx) error {
		return fn(tx.Ledger, tx.Items)
	})
}

// ViewLedgers implements inventory.RepositoryPort.
func (m *Memory) ViewLedgers(ctx context.Context, fn func(*inventory.Ledger, *inventory.ReturnsLedger) error) error {
	return m.View(ctx, func(tx *Tx) error {
		return fn(tx.Ledger, tx.Returns)
	})
}

// ViewHistory implements audit.Repository.
func (m *Memory) ViewHistory(ctx context.Context, fn func(*audit.Log) error) error {
	return m.View(ctx, func(tx *Tx) error {
		return fn(tx.History)
	})
}

// ViewDocuments implements documents.Repository.
func (m *Memory) ViewDocuments(ctx context.Context, fn func(*documents.Registry) error) error {
	return m.View(ctx, func(tx *Tx) error {
		return fn(tx.Documents)
	})
}

func (m *Memory) notify(ctx context.Context, docs []documents.Document) {
	m.hookMu.RLock()
	hooks := append([]DocumentHook(nil), m.hooks...)
	m.hookMu.RUnlock()
	for _, h := range hooks {
		if err := h.HandleDocumentsIssued(ctx, docs); err != nil {
			m.logger.Warn("document hook failed", slog.Int("documents", len(docs)), slog.Any("error", err))
		}
	}
}

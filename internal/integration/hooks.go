// Package integration fans domain events out to logging and metrics.
package integration

import (
	"context"
	"errors"
	"log/slog"

	"github.com/odyssey-erp/stockflow/internal/inventory"
	"github.com/odyssey-erp/stockflow/internal/procurement"
	"github.com/odyssey-erp/stockflow/internal/transfer"
)

// Recorder receives event measurements.
type Recorder interface {
	ObserveGoodsReceived(outlet string, value float64)
	ObserveShortage(source string)
	ObserveBalanceOverride(location string)
}

// Hooks receives events from the procurement, transfer and inventory services.
type Hooks struct {
	logger   *slog.Logger
	recorder Recorder
}

// NewHooks constructs integration hooks. recorder may be nil.
func NewHooks(logger *slog.Logger, recorder Recorder) *Hooks {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hooks{logger: logger, recorder: recorder}
}

// HandleGRNPosted records the value of a goods receipt.
func (h *Hooks) HandleGRNPosted(ctx context.Context, evt procurement.GRNPostedEvent) error {
	if h == nil {
		return nil
	}
	if evt.ReceivedAt.IsZero() {
		return errors.New("integration: GRN received date required")
	}
	value := grnValue(evt.Lines)
	h.logger.InfoContext(ctx, "goods received",
		slog.String("po_id", evt.POID),
		slog.String("doc_id", evt.DocID),
		slog.String("outlet", evt.Outlet),
		slog.Float64("value", value))
	if h.recorder != nil {
		h.recorder.ObserveGoodsReceived(evt.Outlet, value)
	}
	return nil
}

// HandleTransferShortage records a fulfil line that found too little stock.
func (h *Hooks) HandleTransferShortage(ctx context.Context, evt transfer.ShortageEvent) error {
	if h == nil {
		return nil
	}
	h.logger.WarnContext(ctx, "transfer shortage",
		slog.String("to_id", evt.TOID),
		slog.String("location", evt.Reason.Location),
		slog.String("sku", evt.Reason.SKU),
		slog.Int64("required", evt.Reason.Required),
		slog.Int64("available", evt.Reason.Available))
	if h.recorder != nil {
		h.recorder.ObserveShortage(evt.Reason.Location)
	}
	return nil
}

// HandleBalanceOverwritten records a manual balance edit.
func (h *Hooks) HandleBalanceOverwritten(ctx context.Context, evt inventory.BalanceOverwrittenEvent) error {
	if h == nil {
		return nil
	}
	h.logger.InfoContext(ctx, "balance overwritten",
		slog.String("location", evt.After.Location),
		slog.String("sku", evt.After.SKU),
		slog.Int64("qty_before", evt.Before.Qty),
		slog.Int64("qty_after", evt.After.Qty),
		slog.Float64("value_delta", valueDelta(evt.Before, evt.After)))
	if h.recorder != nil {
		h.recorder.ObserveBalanceOverride(evt.After.Location)
	}
	return nil
}

var _ procurement.IntegrationHandler = (*Hooks)(nil)
var _ transfer.IntegrationHandler = (*Hooks)(nil)
var _ inventory.IntegrationHandler = (*Hooks)(nil)

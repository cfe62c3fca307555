package audit

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Repository menyediakan akses baca ke cost history.
type Repository interface {
	ViewHistory(ctx context.Context, fn func(*Log) error) error
}

// Service mengoordinasikan pengambilan data cost history.
type Service struct {
	repo Repository
}

// NewService membuat service cost history baru.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Timeline mengambil cost history terbaru lebih dulu dengan paging.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (Result, error) {
	rows, err := s.filtered(ctx, filters)
	if err != nil {
		return Result{}, err
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 50 {
		pageSize = 50
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize
	if offset > len(rows) {
		offset = len(rows)
	}
	end := offset + pageSize + 1
	if end > len(rows) {
		end = len(rows)
	}
	window := rows[offset:end]
	hasNext := len(window) > pageSize
	if hasNext {
		window = window[:pageSize]
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Rows: window, Paging: paging}, nil
}

// Export mengambil seluruh data tanpa paging.
func (s *Service) Export(ctx context.Context, filters TimelineFilters) ([]Record, error) {
	return s.filtered(ctx, filters)
}

// Summary mengelompokkan cost history per lokasi dan SKU.
func (s *Service) Summary(ctx context.Context, filters TimelineFilters) ([]SummaryRow, error) {
	rows, err := s.filtered(ctx, filters)
	if err != nil {
		return nil, err
	}
	type key struct{ location, sku string }
	totals := make(map[key]*SummaryRow)
	for _, rec := range rows {
		k := key{location: rec.GroupLocation(), sku: rec.SKU}
		row, ok := totals[k]
		if !ok {
			row = &SummaryRow{Location: k.location, SKU: k.sku}
			totals[k] = row
		}
		row.TotalQty += rec.Qty
		row.TotalCost += rec.TotalCost
	}
	out := make([]SummaryRow, 0, len(totals))
	for _, row := range totals {
		if row.TotalQty != 0 {
			avg := decimal.NewFromFloat(row.TotalCost).Div(decimal.NewFromInt(row.TotalQty)).Round(2)
			row.AvgUnitCost = avg.InexactFloat64()
		}
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Location != out[j].Location {
			return out[i].Location < out[j].Location
		}
		return out[i].SKU < out[j].SKU
	})
	return out, nil
}

func (s *Service) filtered(ctx context.Context, filters TimelineFilters) ([]Record, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("audit: repository not configured")
	}
	var all []Record
	if err := s.repo.ViewHistory(ctx, func(l *Log) error {
		all = l.Records()
		return nil
	}); err != nil {
		return nil, err
	}
	location := strings.TrimSpace(filters.Location)
	sku := strings.TrimSpace(filters.SKU)
	out := make([]Record, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		rec := all[i]
		if !filters.From.IsZero() && rec.Timestamp.Before(filters.From) {
			continue
		}
		if !filters.To.IsZero() && rec.Timestamp.After(filters.To) {
			continue
		}
		if location != "" && rec.Location != location && rec.From != location && rec.To != location {
			continue
		}
		if sku != "" && rec.SKU != sku {
			continue
		}
		if filters.Type != "" && rec.Type != filters.Type {
			continue
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

package audit

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "CostHistory"

var exportHeadings = []string{"Timestamp", "Type", "SKU", "Quantity", "Unit Cost", "Total Cost", "Location", "From", "To", "Reason", "Doc ID", "Ref"}

// Exporter menulis ekspor cost history.
type Exporter struct{}

// NewExporter membuat exporter baru.
func NewExporter() *Exporter {
	return &Exporter{}
}

// WriteCSV menghasilkan CSV dari baris cost history.
func (e *Exporter) WriteCSV(rows []Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeadings); err != nil {
		return nil, err
	}
	for _, rec := range rows {
		if err := w.Write(cellStrings(rec)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteXLSX menghasilkan workbook Excel dari baris cost history.
func (e *Exporter) WriteXLSX(rows []Record) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}
	for i, h := range exportHeadings {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return nil, err
		}
	}
	for r, rec := range rows {
		values := []any{
			rec.Timestamp.Format(time.RFC3339), string(rec.Type), rec.SKU, rec.Qty,
			rec.UnitCost, rec.TotalCost, rec.Location, rec.From, rec.To, rec.Reason, rec.DocID, rec.Ref,
		}
		for c, v := range values {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return nil, fmt.Errorf("audit: write cell %s: %w", cell, err)
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cellStrings(rec Record) []string {
	return []string{
		rec.Timestamp.Format(time.RFC3339),
		string(rec.Type),
		rec.SKU,
		strconv.FormatInt(rec.Qty, 10),
		strconv.FormatFloat(rec.UnitCost, 'f', 2, 64),
		strconv.FormatFloat(rec.TotalCost, 'f', 2, 64),
		rec.Location,
		rec.From,
		rec.To,
		rec.Reason,
		rec.DocID,
		rec.Ref,
	}
}

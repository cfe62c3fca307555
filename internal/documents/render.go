package documents

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Page geometry in points, matching an A4 canvas.
const (
	PageHeight  = 842
	rowStartY   = 800
	rowHeight   = 20
	bottomLimit = 60
)

var printer = message.NewPrinter(language.English)

// FormatMoney prints an amount as "RM 1,234.50".
func FormatMoney(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	whole := d.IntPart()
	cents := d.Sub(decimal.NewFromInt(whole)).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	return printer.Sprintf("%sRM %d.%s", sign, whole, fmt.Sprintf("%02d", cents))
}

type renderRow struct {
	Top      int
	SKU      string
	Qty      int64
	UnitCost string
	Total    string
	Reason   string
}

type renderPage struct {
	Number int
	Rows   []renderRow
}

type renderData struct {
	Title     string
	Doc       Document
	Timestamp string
	Pages     []renderPage
	Total     string
	HasReason bool
	Height    int
}

// Paginate lays the lines out top to bottom, starting a new page once the
// cursor drops below the bottom margin.
func Paginate(lines []Line) [][]int {
	var pages [][]int
	y := rowStartY
	current := []int{}
	for range lines {
		if y < bottomLimit {
			pages = append(pages, current)
			current = []int{}
			y = rowStartY
		}
		current = append(current, y)
		y -= rowHeight
	}
	return append(pages, current)
}

// Render produces the HTML artifact stored alongside a document.
func Render(doc Document) ([]byte, error) {
	if len(doc.Items) == 0 {
		return nil, ErrEmptyDocument
	}
	data := renderData{
		Title:     doc.Type.Title(),
		Doc:       doc,
		Timestamp: doc.Timestamp.Format(time.DateTime),
		Total:     FormatMoney(doc.Total()),
		Height:    PageHeight,
	}
	idx := 0
	for n, ys := range Paginate(doc.Items) {
		page := renderPage{Number: n + 1}
		for _, y := range ys {
			it := doc.Items[idx]
			idx++
			if it.Reason != "" {
				data.HasReason = true
			}
			page.Rows = append(page.Rows, renderRow{
				Top:      PageHeight - y,
				SKU:      it.SKU,
				Qty:      it.Qty,
				UnitCost: FormatMoney(it.UnitCost),
				Total:    FormatMoney(it.TotalCost),
				Reason:   it.Reason,
			})
		}
		data.Pages = append(data.Pages, page)
	}
	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("documents: render %s: %w", doc.DocID, err)
	}
	return buf.Bytes(), nil
}

var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Title}} {{.Doc.DocID}}</title>
<style>
.page { position: relative; width: 595pt; height: {{.Height}}pt; page-break-after: always; font-family: Helvetica, sans-serif; font-size: 10pt; }
.row { position: absolute; left: 40pt; right: 40pt; display: flex; }
.row span { flex: 1; }
</style></head><body>
{{- range .Pages}}
<section class="page" data-page="{{.Number}}">
<header style="position:absolute;top:20pt;left:40pt">
<h1 style="font-size:14pt;margin:0">{{$.Title}}</h1>
<div>Doc ID: {{$.Doc.DocID}}{{if $.Doc.Ref}} | Ref: {{$.Doc.Ref}}{{end}}</div>
<div>Location: {{$.Doc.Location}}{{if $.Doc.Warehouse}} | Warehouse: {{$.Doc.Warehouse}}{{end}} | Date: {{$.Timestamp}}</div>
</header>
{{- range .Rows}}
<div class="row" style="top:{{.Top}}pt"><span>{{.SKU}}</span><span>{{.Qty}}</span><span>{{.UnitCost}}</span><span>{{.Total}}</span>{{if $.HasReason}}<span>{{.Reason}}</span>{{end}}</div>
{{- end}}
</section>
{{- end}}
<footer>Total: {{.Total}}</footer>
</body></html>
`))

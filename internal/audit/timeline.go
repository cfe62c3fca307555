package audit

import "time"

// RecordType membedakan jenis pergerakan yang dicatat di cost history.
type RecordType string

const (
	TypeGRN    RecordType = "GRN"
	TypeTN     RecordType = "TN"
	TypeReturn RecordType = "RETURN"
)

// Record mewakili satu baris cost history. Tidak pernah diubah setelah ditulis.
type Record struct {
	Timestamp time.Time  `json:"timestamp"`
	Type      RecordType `json:"type"`
	SKU       string     `json:"sku"`
	Qty       int64      `json:"qty"`
	UnitCost  float64    `json:"unit_cost"`
	TotalCost float64    `json:"total_cost"`
	Location  string     `json:"location,omitempty"`
	From      string     `json:"from,omitempty"`
	To        string     `json:"to,omitempty"`
	Reason    string     `json:"reason,omitempty"`
	DocID     string     `json:"doc_id,omitempty"`
	Ref       string     `json:"ref,omitempty"`
}

// GroupLocation adalah lokasi yang dipakai untuk pengelompokan ringkasan.
func (r Record) GroupLocation() string {
	if r.Location != "" {
		return r.Location
	}
	return r.From
}

// TimelineFilters menampung filter dasar untuk cost history.
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	Location string
	SKU      string
	Type     RecordType
	Page     int
	PageSize int
}

// PagingInfo menyimpan metadata pagination sederhana.
type PagingInfo struct {
	Page     int  `json:"page"`
	HasNext  bool `json:"has_next"`
	PageSize int  `json:"page_size"`
	PrevPage int  `json:"prev_page,omitempty"`
	NextPage int  `json:"next_page,omitempty"`
}

// Result membungkus hasil timeline dengan informasi paging.
type Result struct {
	Rows   []Record   `json:"rows"`
	Paging PagingInfo `json:"paging"`
}

// SummaryRow adalah agregat per lokasi dan SKU.
type SummaryRow struct {
	Location    string  `json:"location"`
	SKU         string  `json:"sku"`
	TotalQty    int64   `json:"total_qty"`
	TotalCost   float64 `json:"total_cost"`
	AvgUnitCost float64 `json:"avg_unit_cost"`
}

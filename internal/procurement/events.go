package procurement

import (
	"time"
)

// GRNLineEvent describes an individual received line.
type GRNLineEvent struct {
	SKU      string
	Qty      int64
	UnitCost float64
}

// GRNPostedEvent captures a completed purchase order receipt.
type GRNPostedEvent struct {
	POID       string
	DocID      string
	Outlet     string
	ReceivedAt time.Time
	Lines      []GRNLineEvent
}

package orders

import (
	"encoding/json"

	"github.com/odyssey-erp/stockflow/internal/inventory"
)

// State is a lifecycle step shared by purchase and transfer orders.
type State string

const (
	StateDraft      State = "Draft"
	StateRequesting State = "Requesting"
	StateProcessing State = "Processing"
	StateReceiving  State = "Receiving"
	StateCompleted  State = "Completed"
	StateFailed     State = "Failed"
)

// FailedLabel is how a failed transfer is shown to operators.
const FailedLabel = "Error - Insufficient stock at source"

// Status is either an active lifecycle state or a failure carrying the stock
// shortfall that caused it.
type Status struct {
	State   State                             `json:"state"`
	Failure *inventory.InsufficientStockError `json:"failure,omitempty"`
}

// Active builds a non-failed status.
func Active(state State) Status {
	return Status{State: state}
}

// Failed builds the failure status for a stock shortfall.
func Failed(reason inventory.InsufficientStockError) Status {
	return Status{State: StateFailed, Failure: &reason}
}

// Is reports whether the status is in the given state.
func (s Status) Is(state State) bool {
	return s.State == state
}

// IsFailed reports whether the order ended in error.
func (s Status) IsFailed() bool {
	return s.State == StateFailed
}

func (s Status) String() string {
	if s.IsFailed() {
		return FailedLabel
	}
	return string(s.State)
}

// MarshalJSON adds the display label.
func (s Status) MarshalJSON() ([]byte, error) {
	type plain Status
	return json.Marshal(struct {
		plain
		Label string `json:"label"`
	}{plain: plain(s), Label: s.String()})
}

func (s Status) clone() Status {
	if s.Failure != nil {
		f := *s.Failure
		s.Failure = &f
	}
	return s
}

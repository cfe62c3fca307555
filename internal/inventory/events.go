package inventory

import "time"

// BalanceOverwrittenEvent is emitted after a manual balance edit.
type BalanceOverwrittenEvent struct {
	Before Balance
	After  Balance
	At     time.Time
}

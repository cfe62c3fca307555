package shared

import "time"

// Clock returns the current time. Services hold one so tests can pin it.
type Clock func() time.Time

// OrNow returns the override when set, otherwise the clock's current time.
func (c Clock) OrNow(override *time.Time) time.Time {
	if override != nil && !override.IsZero() {
		return *override
	}
	if c == nil {
		return time.Now()
	}
	return c()
}

package market

import (
	"time"

	"github.com/ndewijer/Yield-Bank-Backend/internal/model"
)

// Default refresh intervals.
const (
	DefaultOpenInterval   = 10 * time.Second
	DefaultClosedInterval = 5 * time.Minute
)

// Cadence is the refresh policy: a short interval while the market is open
// and a long one while it is closed.
type Cadence struct {
	Open   time.Duration
	Closed time.Duration
}

// DefaultCadence returns the default policy.
func DefaultCadence() Cadence {
	return Cadence{Open: DefaultOpenInterval, Closed: DefaultClosedInterval}
}

// Interval returns how long to wait before the next refresh at now.
func (c Cadence) Interval(now time.Time) time.Duration {
	if IsOpen(now) {
		if c.Open <= 0 {
			return DefaultOpenInterval
		}
		return c.Open
	}
	if c.Closed <= 0 {
		return DefaultClosedInterval
	}
	return c.Closed
}

// Status builds the snapshot served to clients at now.
func (c Cadence) Status(now time.Time) model.MarketStatus {
	interval := c.Interval(now)
	return model.MarketStatus{
		Open:            IsOpen(now),
		Now:             now.In(seoul),
		RefreshInterval: interval.String(),
		RefreshSeconds:  interval.Seconds(),
	}
}

package model

import "time"

// MarketStatus is what clients need to pick their refresh cadence.
type MarketStatus struct {
	Open            bool      `json:"open"`
	Now             time.Time `json:"now"`
	RefreshInterval string    `json:"refreshInterval"`
	RefreshSeconds  float64   `json:"refreshSeconds"`
}

package model

import "time"

// PricePoint is a single observed price sample. Immutable once created.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Source    string    `json:"source,omitempty"`
}

// Age returns how old the point is relative to now.
func (p PricePoint) Age(now time.Time) time.Duration {
	return now.Sub(p.Timestamp)
}

// Package model defines shared data types used across the pricefeed service.
//
// Conventions:
//   - Prices: float64 as reported by the upstream source
//   - Timestamps: time.Time in UTC, RFC 3339 on the wire
package model

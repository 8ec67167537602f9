// Package poller implements the Price Poller component.
//
// The Price Poller:
//   - Fetches the current price on a fixed interval
//   - Falls back through the configured sources in order
//   - Maintains the rolling window and the derived readiness signal
//   - Leaves the window untouched on ticks where every source fails
package poller

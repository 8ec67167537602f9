// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Source fetch attempts by source and outcome
//   - Poll cycle results and fetch latency
//   - Rolling window size and last observed price
package metrics

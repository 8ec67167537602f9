// Package server implements the read-only query surface.
//
// Endpoints:
//   - GET /health  — liveness, always 200 while the process serves
//   - GET /ready   — readiness derived from recent fetch success
//   - GET /price   — latest price point, 503 when the window is empty
//   - GET /average — rolling average and count, 503 when empty
//   - GET /status  — aggregate counters and instance info
//
// Every handler reads shared state; none of them ever triggers a fetch.
package server

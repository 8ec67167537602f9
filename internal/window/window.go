// Package window implements the time-bounded rolling window of price points.
package window

import (
	"sync"
	"time"

	"github.com/marketpulse/pricefeed/internal/model"
)

// Window is a bounded, insertion-ordered buffer of price points covering the
// most recent span.
//
// A single writer (the poller) inserts; any number of readers may query
// concurrently. Points older than the span are evicted on every insert and
// read, so readers always see statistics over exactly the in-span points.
type Window struct {
	mu     sync.Mutex
	span   time.Duration
	points []model.PricePoint

	now func() time.Time // overridable in tests
}

// New creates an empty window covering the given span.
func New(span time.Duration) *Window {
	return &Window{
		span: span,
		now:  time.Now,
	}
}

// Insert appends a point and evicts entries that fell out of the span.
// Points must be inserted in timestamp order.
func (w *Window) Insert(p model.PricePoint) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.evictLocked(w.now())
	w.points = append(w.points, p)
}

// Latest returns the most recent in-span point.
func (w *Window) Latest() (model.PricePoint, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.evictLocked(w.now())
	if len(w.points) == 0 {
		return model.PricePoint{}, false
	}
	return w.points[len(w.points)-1], true
}

// Average returns the arithmetic mean of the in-span points and how many
// points contributed. ok is false when the window is empty.
func (w *Window) Average() (avg float64, count int, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.evictLocked(w.now())
	if len(w.points) == 0 {
		return 0, 0, false
	}

	var sum float64
	for _, p := range w.points {
		sum += p.Value
	}
	return sum / float64(len(w.points)), len(w.points), true
}

// Len returns the number of in-span points.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.evictLocked(w.now())
	return len(w.points)
}

// Snapshot returns a copy of the in-span points, oldest first.
func (w *Window) Snapshot() []model.PricePoint {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.evictLocked(w.now())
	out := make([]model.PricePoint, len(w.points))
	copy(out, w.points)
	return out
}

// evictLocked drops points older than the span. A point whose age equals the
// span exactly is retained; the window covers [now-span, now] inclusive.
// Points are insertion-ordered, so the evicted set is always a prefix.
func (w *Window) evictLocked(now time.Time) {
	cutoff := now.Add(-w.span)
	i := 0
	for i < len(w.points) && w.points[i].Timestamp.Before(cutoff) {
		i++
	}
	if i > 0 {
		w.points = append(w.points[:0], w.points[i:]...)
	}
}

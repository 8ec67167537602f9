package history

import (
	"sync"

	"github.com/marketpulse/pricefeed/internal/model"
)

// Buffer is a thread-safe queue of price points that automatically doubles
// its capacity when it reaches 70% full. The poller sends one point per
// successful tick; the writer drains them in batches, so the buffer only
// grows when the database falls behind.
type Buffer struct {
	mu       sync.Mutex
	buf      []model.PricePoint
	head     int // read position
	tail     int // write position
	count    int
	capacity int
	closed   bool

	// Stats
	totalReceived int64
	totalSent     int64
	resizeCount   int
}

// NewBuffer creates a new buffer with the given initial capacity.
func NewBuffer(initialCapacity int) *Buffer {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	return &Buffer{
		buf:      make([]model.PricePoint, initialCapacity),
		capacity: initialCapacity,
	}
}

// Send adds a point to the buffer. Grows the buffer if at 70% capacity.
// Returns false if the buffer is closed.
func (b *Buffer) Send(p model.PricePoint) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}

	// Grow when at or above 70% capacity after adding this point.
	threshold := (b.capacity * 70) / 100
	if threshold < 1 {
		threshold = 1
	}
	if b.count+1 >= threshold {
		b.grow()
	}

	b.buf[b.tail] = p
	b.tail = (b.tail + 1) % b.capacity
	b.count++
	b.totalReceived++

	return true
}

// TryReceive attempts to receive a point without blocking.
func (b *Buffer) TryReceive() (model.PricePoint, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		return model.PricePoint{}, false
	}

	p := b.buf[b.head]
	b.buf[b.head] = model.PricePoint{}
	b.head = (b.head + 1) % b.capacity
	b.count--
	b.totalSent++

	return p, true
}

// DrainTo drains up to max points from the buffer, oldest first.
// max <= 0 drains everything.
func (b *Buffer) DrainTo(max int) []model.PricePoint {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		return nil
	}

	n := b.count
	if max > 0 && max < n {
		n = max
	}

	result := make([]model.PricePoint, n)
	for i := 0; i < n; i++ {
		result[i] = b.buf[b.head]
		b.buf[b.head] = model.PricePoint{}
		b.head = (b.head + 1) % b.capacity
		b.count--
		b.totalSent++
	}

	return result
}

// Close closes the buffer. After closing, Send returns false; remaining
// points can still be drained.
func (b *Buffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}

// Len returns the current number of points in the buffer.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Cap returns the current capacity of the buffer.
func (b *Buffer) Cap() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.capacity
}

// Stats returns buffer statistics.
func (b *Buffer) Stats() BufferStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BufferStats{
		Count:         b.count,
		Capacity:      b.capacity,
		TotalReceived: b.totalReceived,
		TotalSent:     b.totalSent,
		ResizeCount:   b.resizeCount,
	}
}

// BufferStats contains buffer statistics.
type BufferStats struct {
	Count         int
	Capacity      int
	TotalReceived int64
	TotalSent     int64
	ResizeCount   int
}

// grow doubles the buffer capacity. Must be called with lock held.
func (b *Buffer) grow() {
	newCapacity := b.capacity * 2
	newBuf := make([]model.PricePoint, newCapacity)

	if b.count > 0 {
		if b.head < b.tail {
			copy(newBuf, b.buf[b.head:b.tail])
		} else {
			n := copy(newBuf, b.buf[b.head:])
			copy(newBuf[n:], b.buf[:b.tail])
		}
	}

	b.buf = newBuf
	b.head = 0
	b.tail = b.count
	b.capacity = newCapacity
	b.resizeCount++
}

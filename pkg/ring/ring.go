// Package ring implements a lock-free single-producer/single-consumer
// queue, the sole channel by which the render thread hands samples (and
// beat events) to a non-realtime consumer without ever blocking.
package ring

import "sync/atomic"

// SPSCRingBuffer is a fixed-capacity lock-free queue safe for exactly one
// writer goroutine and exactly one reader goroutine. The writer mutates
// only its write cursor; the reader mutates only its read cursor.
//
// Cursors are monotonically increasing counts of elements ever
// written/read, not positions wrapped into [0, C) — the storage slot for
// a cursor value is cursor % capacity. This keeps occupancy and overrun
// accounting exact without a dedicated "empty vs full" flag, following
// the same counter discipline as a write-ahead circular buffer: the
// producer publishes its cursor with release semantics after writing the
// slot, and the consumer observes it with acquire semantics before
// reading, and symmetrically for the read cursor.
type SPSCRingBuffer[T any] struct {
	data     []T
	capacity uint64

	writePos uint64
	readPos  uint64

	dropped uint64
}

// New creates a ring buffer holding up to capacity-1 elements — one slot
// is always reserved so the full and empty conditions are distinguishable
// without a separate flag.
func New[T any](capacity int) *SPSCRingBuffer[T] {
	if capacity < 2 {
		capacity = 2
	}
	return &SPSCRingBuffer[T]{
		data:     make([]T, capacity),
		capacity: uint64(capacity),
	}
}

// Write appends x to the buffer. Returns false and increments the
// dropped-sample counter if the buffer is full; never blocks.
func (b *SPSCRingBuffer[T]) Write(x T) bool {
	w := b.writePos
	r := atomic.LoadUint64(&b.readPos)

	if w-r >= b.capacity-1 {
		atomic.AddUint64(&b.dropped, 1)
		return false
	}

	b.data[w%b.capacity] = x
	b.writePos = w + 1
	atomic.StoreUint64(&b.writePos, b.writePos)
	return true
}

// ReadInto reads up to len(dst) elements into dst, returning the count
// actually read.
func (b *SPSCRingBuffer[T]) ReadInto(dst []T) int {
	r := b.readPos
	w := atomic.LoadUint64(&b.writePos)

	available := w - r
	n := uint64(len(dst))
	if available < n {
		n = available
	}
	for i := uint64(0); i < n; i++ {
		dst[i] = b.data[(r+i)%b.capacity]
	}
	b.readPos = r + n
	atomic.StoreUint64(&b.readPos, b.readPos)
	return int(n)
}

// AvailableRead returns the number of elements currently readable. Safe
// to call from the reader side for an observation-consistent count.
func (b *SPSCRingBuffer[T]) AvailableRead() int {
	r := atomic.LoadUint64(&b.readPos)
	w := atomic.LoadUint64(&b.writePos)
	return int(w - r)
}

// AvailableWrite returns the number of elements currently writable.
func (b *SPSCRingBuffer[T]) AvailableWrite() int {
	r := atomic.LoadUint64(&b.readPos)
	w := atomic.LoadUint64(&b.writePos)
	return int(b.capacity - 1 - (w - r))
}

// Dropped returns the number of elements dropped due to overrun so far.
func (b *SPSCRingBuffer[T]) Dropped() uint64 {
	return atomic.LoadUint64(&b.dropped)
}

// Capacity returns the usable capacity (one less than the allocated
// storage, per the reserved-slot full condition).
func (b *SPSCRingBuffer[T]) Capacity() int {
	return int(b.capacity - 1)
}

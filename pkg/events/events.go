// Package events carries beat transitions from the render thread to a
// non-realtime dispatcher, modeled as a one-way message channel rather
// than a callback into the host: render posts beat integers onto a
// bounded queue, and a dispatcher goroutine owned by the controller
// drains it and fans out to subscribers. There is no back-pointer from
// render to host.
package events

import (
	"sync"

	"github.com/clickforge/metronome-engine/pkg/ring"
)

// Beat is one posted beat transition: the beat index modulo the active
// time signature (or always 0 when the time signature is <= 1), plus
// the absolute sample position the render thread fired it at.
type Beat struct {
	Value    int
	Position float64
}

// Queue is the SPSC ring the render thread posts into. Overrun here gets
// the same drop-and-count treatment as the audio ring, since it is a
// bounded queue rather than an unbounded callback list.
type Queue struct {
	ring *ring.SPSCRingBuffer[Beat]
}

// NewQueue creates a beat-event queue with room for capacity-1 pending
// events between dispatcher wakeups (the ring reserves one slot).
func NewQueue(capacity int) *Queue {
	return &Queue{ring: ring.New[Beat](capacity)}
}

// Post enqueues a beat transition from the render thread. Never blocks;
// returns false if the queue is full (dropped, not fatal).
func (q *Queue) Post(beatMod int, position float64) bool {
	return q.ring.Write(Beat{Value: beatMod, Position: position})
}

// Dropped returns the number of beat events dropped due to overrun.
func (q *Queue) Dropped() uint64 {
	return q.ring.Dropped()
}

// Dispatcher drains a Queue on a background goroutine and fans posted
// beats out to subscriber channels, matching subscribe_beat_events at
// the controller boundary.
type Dispatcher struct {
	queue *Queue

	mu   sync.Mutex
	subs []chan Beat

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewDispatcher creates a dispatcher draining the given queue.
func NewDispatcher(queue *Queue) *Dispatcher {
	return &Dispatcher{
		queue: queue,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Subscribe registers a new beat-event consumer and returns a
// receive-only channel of posted beats, buffered so a slow subscriber
// cannot stall dispatch to the others.
func (d *Dispatcher) Subscribe() <-chan Beat {
	ch := make(chan Beat, 32)
	d.mu.Lock()
	d.subs = append(d.subs, ch)
	d.mu.Unlock()
	return ch
}

// Run drains the queue until Stop is called, sleeping briefly between
// empty polls. Intended to run on its own goroutine for the life of the
// controller.
func (d *Dispatcher) Run(pollInterval func() <-chan struct{}) {
	// pollInterval is supplied by the caller (typically time.After in a
	// loop) so this package stays independent of a concrete clock
	// source for testing.
	defer close(d.done)
	buf := make([]Beat, 64)
	for {
		select {
		case <-d.stop:
			d.drain(buf)
			return
		default:
		}
		n := d.queue.ring.ReadInto(buf)
		if n == 0 {
			select {
			case <-d.stop:
				d.drain(buf)
				return
			case <-pollInterval():
			}
			continue
		}
		d.fanOut(buf[:n])
	}
}

func (d *Dispatcher) drain(buf []Beat) {
	for {
		n := d.queue.ring.ReadInto(buf)
		if n == 0 {
			return
		}
		d.fanOut(buf[:n])
	}
}

func (d *Dispatcher) fanOut(beats []Beat) {
	d.mu.Lock()
	subs := append([]chan Beat(nil), d.subs...)
	d.mu.Unlock()

	for _, b := range beats {
		for _, ch := range subs {
			select {
			case ch <- b:
			default:
				// subscriber full: drop rather than block dispatch
			}
		}
	}
}

// Stop requests the dispatcher goroutine to drain and exit, then waits
// for it to finish.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.stop) })
	<-d.done
}

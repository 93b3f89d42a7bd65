// Package writer drains the render engine's sample ring on a background
// worker and appends the interleaved stereo float PCM to a WAV file,
// flushing and finalizing the header on stop.
package writer

import (
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/clickforge/metronome-engine/pkg/diag"
	"github.com/clickforge/metronome-engine/pkg/errs"
	"github.com/clickforge/metronome-engine/pkg/ring"
)

// idleSleep is the writer's cooperative poll interval when the ring is
// empty, per spec's "sleep ~1 ms" loop.
const idleSleep = time.Millisecond

// FileWriter owns a file handle and a scratch buffer, and drains a ring
// of interleaved stereo float32 samples into it. The render thread is
// the ring's only other party; FileWriter never writes to the ring.
type FileWriter struct {
	log *diag.Logger

	file       *os.File
	sampleRate uint32

	tmp     []float32
	scratch []byte

	framesWritten uint64
	failed        atomic.Bool
	failErr       error

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// New creates a FileWriter appending to path, with a drain scratch
// buffer holding up to tmpCapSamples interleaved samples per iteration.
func New(path string, sampleRate uint32, tmpCapSamples int, log *diag.Logger) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errs.Wrap(errs.IoError, "create recording file", err)
	}
	// Placeholder header; patched with the real data size in Close.
	if err := writeWAVHeader(f, sampleRate, 0); err != nil {
		f.Close()
		return nil, errs.Wrap(errs.IoError, "write wav header", err)
	}

	if log == nil {
		log = diag.Default()
	}

	return &FileWriter{
		log:        log.With("writer"),
		file:       f,
		sampleRate: sampleRate,
		tmp:        make([]float32, tmpCapSamples),
		scratch:    make([]byte, tmpCapSamples*4),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}, nil
}

// Run drains r until Stop is requested, then drains it fully before
// returning — spec's invariant that no sample written during an arming
// window is discarded except on overrun. Intended to run on its own
// goroutine for the life of a recording session.
func (w *FileWriter) Run(r *ring.SPSCRingBuffer[float32]) {
	defer close(w.done)
	for {
		select {
		case <-w.stop:
			w.drainFully(r)
			return
		default:
		}

		if w.drainOnce(r) {
			continue
		}
		select {
		case <-w.stop:
			w.drainFully(r)
			return
		case <-time.After(idleSleep):
		}
	}
}

// drainOnce reads one batch and appends it, returning whether any
// samples were drained.
func (w *FileWriter) drainOnce(r *ring.SPSCRingBuffer[float32]) bool {
	k := r.AvailableRead()
	if k <= 0 {
		return false
	}
	if k > len(w.tmp) {
		k = len(w.tmp)
	}
	n := r.ReadInto(w.tmp[:k])
	if n == 0 {
		return false
	}
	if err := appendFloatFrames(w.file, w.scratch, w.tmp[:n]); err != nil {
		w.fail(err)
		return false
	}
	atomic.AddUint64(&w.framesWritten, uint64(n/2))
	return true
}

func (w *FileWriter) drainFully(r *ring.SPSCRingBuffer[float32]) {
	for w.drainOnce(r) {
	}
}

func (w *FileWriter) fail(err error) {
	if w.failed.CompareAndSwap(false, true) {
		w.failErr = err
		w.log.Error("write failed: %v", err)
	}
}

// Stop requests the drain loop to finish and exit, and waits for it.
// Idempotent and safe to call from any state.
func (w *FileWriter) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}

// Close finalizes the WAV header with the true data size and closes the
// file. Call after Stop has returned. Still attempts to close the file
// even if the writer previously failed, per spec's error policy.
func (w *FileWriter) Close() error {
	dataSize := uint32(atomic.LoadUint64(&w.framesWritten)) * 2 * 4
	if _, err := w.file.Seek(0, 0); err == nil {
		writeWAVHeader(w.file, w.sampleRate, dataSize)
	}
	closeErr := w.file.Close()
	if w.failErr != nil {
		return w.failErr
	}
	if closeErr != nil {
		return errs.Wrap(errs.IoError, "close recording file", closeErr)
	}
	return nil
}

// Failed reports whether a write error has occurred.
func (w *FileWriter) Failed() bool {
	return w.failed.Load()
}

// FramesWritten returns the number of stereo frames appended so far.
func (w *FileWriter) FramesWritten() uint64 {
	return atomic.LoadUint64(&w.framesWritten)
}

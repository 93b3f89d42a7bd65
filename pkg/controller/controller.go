// Package controller implements the host-facing lifecycle: play/pause,
// tempo and time-signature changes, recording start/stop, and beat-event
// subscription. Every exported method here runs on the host thread; the
// render thread only ever reads the atomic parameters and non-owning
// pattern/engine pointers this package publishes.
package controller

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clickforge/metronome-engine/pkg/click"
	"github.com/clickforge/metronome-engine/pkg/clock"
	"github.com/clickforge/metronome-engine/pkg/device"
	"github.com/clickforge/metronome-engine/pkg/diag"
	"github.com/clickforge/metronome-engine/pkg/engine"
	"github.com/clickforge/metronome-engine/pkg/errs"
	"github.com/clickforge/metronome-engine/pkg/events"
	"github.com/clickforge/metronome-engine/pkg/ring"
	"github.com/clickforge/metronome-engine/pkg/writer"
)

// ringSeconds is the reference ring-buffer sizing target: enough
// capacity to absorb roughly 5 seconds of writer scheduling jitter.
const ringSeconds = 5

// StopResult is the tagged value returned from stop_recording, replacing
// an untyped dictionary at the host boundary.
type StopResult struct {
	Path           string
	Timestamps     []float64
	BPM            int
	TimeSignature  int
	DroppedSamples uint64
}

// session is the Controller's exclusive RecordingSession: it exists only
// while recording, created before render observes is_recording=true and
// torn down only after render observes it false and the writer drains.
type session struct {
	id         uuid.UUID
	targetPath string
	startedAt  float64
	ring       *ring.SPSCRingBuffer[float32]
	fw         *writer.FileWriter
	timestamps []float64
}

// Controller owns the ClickPattern and RecordingSession exclusively; the
// RenderEngine holds non-owning access to both for the duration of a
// render call.
type Controller struct {
	log *diag.Logger
	dev device.Device

	clk     *clock.SampleClock
	pattern *click.ClickPattern
	params  *engine.AtomicParams
	eng     *engine.RenderEngine

	beatQueue  *events.Queue
	dispatcher *events.Dispatcher

	mu      sync.Mutex
	current *session
}

// New configures the clock and click pattern storage for a controller
// driving dev, with maxBlockSize bounding every block dev will ever
// deliver.
func New(dev device.Device, initialBPM float64, initialTS int, maxBlockSize int, log *diag.Logger) *Controller {
	if log == nil {
		log = diag.Default()
	}
	log = log.With("controller")

	clk := clock.New(dev.SampleRate(), initialBPM)
	pattern := click.NewPattern(initialTS)
	params := engine.NewAtomicParams()
	params.SetBPM(initialBPM)

	beatQueue := events.NewQueue(256)
	dispatcher := events.NewDispatcher(beatQueue)

	c := &Controller{
		log:        log,
		dev:        dev,
		clk:        clk,
		pattern:    pattern,
		params:     params,
		beatQueue:  beatQueue,
		dispatcher: dispatcher,
	}
	c.eng = engine.New(clk, pattern, params, maxBlockSize, func(beatMod int, position float64) {
		beatQueue.Post(beatMod, position)
	})
	go dispatcher.Run(writerTick)
	go c.recordBeatTimestamps(dispatcher.Subscribe())
	return c
}

// Destroy stops the beat-event dispatcher. Call once the controller is
// no longer needed; safe to call even if a recording is still in
// progress (StopRecording should be called first to drain it cleanly).
func (c *Controller) Destroy() {
	c.dispatcher.Stop()
}

// LoadClick replaces the normal click waveform.
func (c *Controller) LoadClick(pcm []float32) {
	c.pattern.LoadNormal(pcm)
}

// LoadAccent replaces the accent click waveform.
func (c *Controller) LoadAccent(pcm []float32) {
	c.pattern.LoadAccent(pcm)
}

// Play starts click/monitor output.
func (c *Controller) Play() { c.params.SetPlaying(true) }

// Pause stops click/monitor output without touching recording state.
func (c *Controller) Pause() { c.params.SetPlaying(false) }

// IsPlaying reports whether playback is active.
func (c *Controller) IsPlaying() bool { return c.params.Snapshot().IsPlaying }

// SetBPM updates the tempo. Returns InvalidState if b is not positive.
func (c *Controller) SetBPM(b float64) error {
	if b <= 0 {
		return errs.New(errs.InvalidState, "bpm must be positive")
	}
	c.params.SetBPM(b)
	return nil
}

// BPM returns the last tempo the render thread has applied.
func (c *Controller) BPM() float64 { return c.clk.BPM() }

// SetTimeSignature updates the time signature; values <= 1 disable the
// accent waveform.
func (c *Controller) SetTimeSignature(ts int) {
	c.pattern.SetTimeSignature(ts)
}

// TimeSignature returns the current time signature.
func (c *Controller) TimeSignature() int { return c.pattern.TimeSignature() }

// SetVolume sets the click output volume, 0..100.
func (c *Controller) SetVolume(v int) {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	c.params.SetVolume(float32(v) / 100)
}

// Volume returns the click output volume, 0..100.
func (c *Controller) Volume() int {
	return int(c.params.Snapshot().Volume * 100)
}

// SetMicGain sets the microphone gain applied on the record path, 0..1.
func (c *Controller) SetMicGain(g float32) {
	if g < 0 {
		g = 0
	}
	if g > 1 {
		g = 1
	}
	c.params.SetMicGain(g)
}

// SetMonitoring enables or disables live mic monitoring while recording.
func (c *Controller) SetMonitoring(enabled bool) {
	c.params.SetMonitoring(enabled)
}

// SubscribeBeatEvents registers a new beat-event consumer, returning a
// receive-only channel of beat-index-modulo-time-signature values.
func (c *Controller) SubscribeBeatEvents() <-chan events.Beat {
	return c.dispatcher.Subscribe()
}

// StartRecording allocates the ring and writer, sizes the delay line
// from the device's measured input latency, launches the writer, then
// arms the engine. The beat-event dispatcher is not touched here: New
// starts it for the controller's whole lifetime.
func (c *Controller) StartRecording(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		return errs.New(errs.InvalidState, "already recording")
	}

	sr := c.dev.SampleRate()
	ringCapacity := int(sr*ringSeconds)*2 + 1
	r := ring.New[float32](ringCapacity)

	fw, err := writer.New(path, uint32(sr), 4096, c.log)
	if err != nil {
		return err
	}

	delaySize := int(c.dev.InputLatencySeconds() * sr)
	if delaySize < 1 {
		delaySize = 1
	}

	sess := &session{
		id:         uuid.New(),
		targetPath: path,
		startedAt:  c.clk.Position(),
		ring:       r,
		fw:         fw,
	}
	c.current = sess

	go fw.Run(r)

	c.eng.ArmRecording(delaySize, r)
	c.params.SetRecording(true)

	c.log.Info("recording started session=%s path=%s", sess.id, path)
	return nil
}

// StopRecording sets is_recording false, requests the writer stop, waits
// for it to drain, releases the ring and delay line, and returns the
// tagged result. Idempotent: calling it while not recording returns
// InvalidState rather than panicking.
func (c *Controller) StopRecording() (StopResult, error) {
	c.mu.Lock()
	sess := c.current
	c.mu.Unlock()

	if sess == nil {
		return StopResult{}, errs.New(errs.InvalidState, "not recording")
	}

	c.params.SetRecording(false)
	sess.fw.Stop()
	closeErr := sess.fw.Close()

	dropped := sess.ring.Dropped()
	c.eng.DisarmRecording()

	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()

	if closeErr != nil {
		c.log.Error("recording session=%s finished with write error: %v", sess.id, closeErr)
	}

	return StopResult{
		Path:           sess.targetPath,
		Timestamps:     sess.timestamps,
		BPM:            int(c.clk.BPM()),
		TimeSignature:  c.pattern.TimeSignature(),
		DroppedSamples: dropped,
	}, closeErr
}

// Engine exposes the underlying RenderEngine so cmd/metronome can wire
// the device's render callback directly to RenderEngine.Render.
func (c *Controller) Engine() *engine.RenderEngine { return c.eng }

// recordBeatTimestamps is the controller's own beat-event subscriber: it
// runs for the controller's lifetime, appending each beat's offset from
// the active session's start (in seconds) to that session's timestamps,
// so stop_recording's result reflects the clicks actually heard during
// the take. A no-op while no session is active.
func (c *Controller) recordBeatTimestamps(beats <-chan events.Beat) {
	sr := c.clk.SampleRate()
	for b := range beats {
		c.mu.Lock()
		if c.current != nil {
			c.current.timestamps = append(c.current.timestamps, (b.Position-c.current.startedAt)/sr)
		}
		c.mu.Unlock()
	}
}

// writerTick mirrors the writer's own 1ms idle cadence, so beat-event
// dispatch polls no more eagerly than the file writer does.
func writerTick() <-chan struct{} {
	ch := make(chan struct{}, 1)
	go func() {
		<-time.After(time.Millisecond)
		ch <- struct{}{}
	}()
	return ch
}

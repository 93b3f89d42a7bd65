// Package engine implements the render callback: the unified per-block
// function that drives click generation, pulls captured input,
// compensates for input-path latency on the record path, publishes
// mixed samples to the writer's ring, and advances the sample clock.
//
// Everything in RenderEngine.Render runs on the audio thread. It must
// never allocate, lock, sleep, or log.
package engine

import (
	"math"
	"sync/atomic"

	"github.com/clickforge/metronome-engine/pkg/audioutil"
	"github.com/clickforge/metronome-engine/pkg/click"
	"github.com/clickforge/metronome-engine/pkg/clock"
	"github.com/clickforge/metronome-engine/pkg/delayline"
	"github.com/clickforge/metronome-engine/pkg/ring"
)

// guardSamples bounds how close to a beat boundary a frame must land for
// a crossing to still count as that beat, preventing duplicate beat
// events within the same boundary across adjacent blocks.
const guardSamples = 100

// Params is the block-entry snapshot of the small scalars the
// controller updates and the render thread reads: each is read exactly
// once per block and cached locally, so a block sees either the pre- or
// post-update value consistently for its entire duration, never a mix.
type Params struct {
	IsPlaying   bool
	IsRecording bool
	Monitoring  bool
	MicGain     float32
	Volume      float32
	BPM         float64
}

// ParamSource supplies a block-entry Params snapshot. Implemented by
// AtomicParams, which pkg/controller owns and updates; kept as an
// interface here so engine has no dependency on the controller's
// lifecycle.
type ParamSource interface {
	Snapshot() Params
}

// RenderEngine holds every buffer the render callback needs, all sized
// at construction or in ArmRecording, never inside Render.
type RenderEngine struct {
	clock   *clock.SampleClock
	pattern *click.ClickPattern
	voice   *click.ClickVoice
	params  ParamSource

	onBeat func(beatMod int, position float64)

	inputL, inputR []float32

	delay     *delayline.LatencyDelayLine
	dlyL, dlyR []float32

	recordRing *ring.SPSCRingBuffer[float32]

	maxBlockSize int
}

// New creates a RenderEngine driven by clock c and click pattern p,
// reporting beat transitions via onBeat. maxBlockSize bounds every block
// the device will ever deliver, sizing the engine's scratch buffers.
func New(c *clock.SampleClock, p *click.ClickPattern, params ParamSource, maxBlockSize int, onBeat func(beatMod int, position float64)) *RenderEngine {
	return &RenderEngine{
		clock:        c,
		pattern:      p,
		voice:        click.NewVoice(),
		params:       params,
		onBeat:       onBeat,
		inputL:       make([]float32, maxBlockSize),
		inputR:       make([]float32, maxBlockSize),
		dlyL:         make([]float32, maxBlockSize),
		dlyR:         make([]float32, maxBlockSize),
		maxBlockSize: maxBlockSize,
	}
}

// ArmRecording installs the delay line and ring this session will use.
// Must only be called while the engine is not running (the controller
// guarantees this before setting is_recording true).
func (e *RenderEngine) ArmRecording(delayLineSize int, r *ring.SPSCRingBuffer[float32]) {
	e.delay = delayline.New(delayLineSize, e.maxBlockSize)
	e.recordRing = r
}

// DisarmRecording releases the delay line and ring after a session ends.
func (e *RenderEngine) DisarmRecording() {
	e.delay = nil
	e.recordRing = nil
}

// InputPuller pulls n frames of captured input for timestamp t into dst
// L/R, tolerating failure by leaving dst untouched (already zeroed by
// Render before the call).
type InputPuller interface {
	PullInput(n int, timestamp int64, dstL, dstR []float32) bool
}

// DirectInput adapts input already captured by the device (delivered
// alongside the output buffers in the same callback) to the InputPuller
// contract, for devices whose RenderFunc receives input and output
// together rather than requiring a separate pull call.
type DirectInput struct {
	L, R []float32
}

func (d DirectInput) PullInput(n int, timestamp int64, dstL, dstR []float32) bool {
	copy(dstL, d.L[:n])
	copy(dstR, d.R[:n])
	return true
}

// Render executes one full render block per spec's six-step contract:
// input pull, click render, beat events, record path, monitor mix,
// clock advance. outL/outR are the device's output buffers for this
// block; the caller is responsible for delivering them already
// allocated to exactly n frames.
func (e *RenderEngine) Render(n int, input InputPuller, outL, outR []float32, timestamp int64) {
	p := e.params.Snapshot()
	e.clock.SetBPM(p.BPM)

	inL := e.inputL[:n]
	inR := e.inputR[:n]
	audioutil.Clear(inL)
	audioutil.Clear(inR)

	// 1. Input pull.
	if p.IsRecording && input != nil {
		input.PullInput(n, timestamp, inL, inR)
	}

	// 2. Click render.
	audioutil.Clear(outL[:n])
	audioutil.Clear(outR[:n])
	if p.IsPlaying {
		p0 := e.clock.Position()
		// 3. Beat events are enqueued synchronously by onBeat during
		// this call.
		e.voice.Render(e.pattern, e.clock, p0, outL[:n], outR[:n], n, guardSamples, e.onBeat)
		if p.Volume != 1.0 {
			audioutil.Scale(outL[:n], p.Volume)
			audioutil.Scale(outR[:n], p.Volume)
		}
	}

	// 4. Record path.
	if p.IsRecording && e.delay != nil && e.recordRing != nil {
		e.delay.PushBlock(outL[:n], outR[:n], n)
		dlyL := e.dlyL[:n]
		dlyR := e.dlyR[:n]
		e.delay.ReadBlock(dlyL, dlyR, n)

		for i := 0; i < n; i++ {
			dlyL[i] += inL[i] * p.MicGain
			dlyR[i] += inR[i] * p.MicGain
		}
		audioutil.Clip(dlyL, 1.0)
		audioutil.Clip(dlyR, 1.0)

		for i := 0; i < n; i++ {
			e.recordRing.Write(dlyL[i])
			e.recordRing.Write(dlyR[i])
		}
	}

	// 5. Monitor mix.
	if p.IsRecording && p.Monitoring {
		audioutil.Add(outL[:n], inL)
		audioutil.Add(outR[:n], inR)
	}

	// 6. Advance clock.
	e.clock.Advance(n)
}

// AtomicParams adapts a set of atomic scalars into a ParamSource,
// grounding the controller's parameter registry style without coupling
// engine to the controller package.
type AtomicParams struct {
	isPlaying   atomic.Bool
	isRecording atomic.Bool
	monitoring  atomic.Bool
	micGainBits atomic.Uint32
	volumeBits  atomic.Uint32
	bpmBits     atomic.Uint64
}

func NewAtomicParams() *AtomicParams {
	p := &AtomicParams{}
	p.micGainBits.Store(math.Float32bits(1.0))
	p.volumeBits.Store(math.Float32bits(1.0))
	p.bpmBits.Store(math.Float64bits(120))
	return p
}

func (p *AtomicParams) Snapshot() Params {
	return Params{
		IsPlaying:   p.isPlaying.Load(),
		IsRecording: p.isRecording.Load(),
		Monitoring:  p.monitoring.Load(),
		MicGain:     math.Float32frombits(p.micGainBits.Load()),
		Volume:      math.Float32frombits(p.volumeBits.Load()),
		BPM:         math.Float64frombits(p.bpmBits.Load()),
	}
}

func (p *AtomicParams) SetPlaying(v bool)    { p.isPlaying.Store(v) }
func (p *AtomicParams) SetRecording(v bool)  { p.isRecording.Store(v) }
func (p *AtomicParams) SetMonitoring(v bool) { p.monitoring.Store(v) }
func (p *AtomicParams) SetMicGain(g float32) { p.micGainBits.Store(math.Float32bits(g)) }
func (p *AtomicParams) SetVolume(v float32)  { p.volumeBits.Store(math.Float32bits(v)) }
func (p *AtomicParams) SetBPM(b float64)     { p.bpmBits.Store(math.Float64bits(b)) }

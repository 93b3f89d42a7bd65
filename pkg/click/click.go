// Package click renders the metronome's click and accent waveforms into
// a render block and detects beat transitions as they occur.
package click

import (
	"sync/atomic"

	"github.com/clickforge/metronome-engine/pkg/clock"
)

// ClickPattern owns the time signature and the two click waveforms
// (normal and accent). It is exclusively owned by the controller; the
// render thread holds only non-owning access for the duration of a
// render call. Waveform buffers are replaced via an atomic pointer swap
// so a render in flight always sees a complete, consistent buffer.
type ClickPattern struct {
	timeSignature atomic.Int32
	lastBeatFired int64 // touched only by ClickVoice.Render, on the render thread

	normal atomic.Pointer[[]float32]
	accent atomic.Pointer[[]float32]
}

// NewPattern creates a pattern with the given time signature and no
// loaded waveforms. last_beat_fired starts at -1, matching spec.
func NewPattern(timeSignature int) *ClickPattern {
	p := &ClickPattern{lastBeatFired: -1}
	p.timeSignature.Store(int32(timeSignature))
	empty := []float32{}
	p.normal.Store(&empty)
	p.accent.Store(&empty)
	return p
}

// TimeSignature returns the current time signature. Values <= 1 disable
// the accent waveform.
func (p *ClickPattern) TimeSignature() int {
	return int(p.timeSignature.Load())
}

// SetTimeSignature updates the time signature, safe to call from the
// host thread at any time.
func (p *ClickPattern) SetTimeSignature(ts int) {
	p.timeSignature.Store(int32(ts))
}

// LoadNormal replaces the normal click waveform. Safe to call while the
// engine is running: the render thread observes the swap atomically at
// its next block.
func (p *ClickPattern) LoadNormal(pcm []float32) {
	buf := make([]float32, len(pcm))
	copy(buf, pcm)
	p.normal.Store(&buf)
}

// LoadAccent replaces the accent click waveform.
func (p *ClickPattern) LoadAccent(pcm []float32) {
	buf := make([]float32, len(pcm))
	copy(buf, pcm)
	p.accent.Store(&buf)
}

func (p *ClickPattern) normalBuf() []float32 {
	return *p.normal.Load()
}

func (p *ClickPattern) accentBuf() []float32 {
	return *p.accent.Load()
}

// ClickVoice renders click onsets into an output stereo block. It keeps
// no per-block state of its own — beat membership is recomputed from the
// clock every frame, so it is stateless across blocks and robust to
// block-size changes; only last_beat_fired on the pattern persists.
type ClickVoice struct{}

// NewVoice creates a ClickVoice.
func NewVoice() *ClickVoice {
	return &ClickVoice{}
}

// Render emits click onsets into outL/outR (which must already be
// zeroed or pre-populated by the caller, since clicks are summed, not
// assigned) for n frames starting at sample position p0. Beat index and
// phase are computed per frame from c, so a tempo change applied to c
// between calls is honored exactly at the anchor it took effect on,
// rather than recomputed from p0 in isolation. guardSamples bounds how
// close to a beat boundary a frame must be for a crossing to still
// count as "this" beat, so that a single boundary never fires the beat
// event twice across two calls. onBeat is invoked synchronously, at
// most once per beat boundary crossed, with k mod time_signature (or 0
// when time_signature <= 1) and the absolute sample position of the
// frame that fired it.
func (v *ClickVoice) Render(pattern *ClickPattern, c *clock.SampleClock, p0 float64, outL, outR []float32, n int, guardSamples float64, onBeat func(beatMod int, position float64)) {
	ts := pattern.TimeSignature()
	normal := pattern.normalBuf()
	accent := pattern.accentBuf()

	for i := 0; i < n; i++ {
		p := p0 + float64(i)
		k := c.BeatIndex(p)
		phase := c.BeatPhase(p)

		buf := normal
		if ts >= 2 && len(accent) > 0 && int64(mod(k, int64(ts))) == 0 {
			buf = accent
		}

		idx := int(phase)
		if idx >= 0 && idx < len(buf) {
			outL[i] += buf[idx]
			outR[i] += buf[idx]
		}

		if k != pattern.lastBeatFired && phase < guardSamples {
			pattern.lastBeatFired = k
			beatMod := 0
			if ts > 1 {
				beatMod = int(mod(k, int64(ts)))
			}
			if onBeat != nil {
				onBeat(beatMod, p)
			}
		}
	}
}

// mod is the non-negative modulo of a, used for beat-index-modulo-ts so
// that a negative beat index (before engine start, in tests) still maps
// into [0, n).
func mod(a, n int64) int64 {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}

// Package clock tracks the monotonic sample position of a running
// render engine and converts between samples, beats, and seconds at the
// current tempo.
package clock

import "math"

// SampleClock is a monotonic sample-indexed position. All arithmetic is
// done in float64 to avoid accumulation error over long sessions.
//
// SampleClock is not safe for concurrent use: the render thread is its
// only owner. Tempo changes arrive from the controller via an atomic
// parameter (see pkg/controller) and are applied to the clock once per
// block by the render thread itself, never mutated directly from the
// host thread.
type SampleClock struct {
	positionSamples float64
	sampleRate      float64
	bpm             float64

	// anchorPos/anchorBeat pin the beat grid to the position at which
	// the current tempo took effect, so a tempo change never shifts the
	// phase of beats already played. BeatIndex/BeatPhase are computed
	// relative to this anchor rather than from absolute position.
	anchorPos  float64
	anchorBeat int64
}

// New creates a SampleClock at position zero for the given sample rate
// and initial tempo. Panics if sampleRate or bpm is non-positive, since
// samples_per_beat must stay > 0 for the life of the clock.
func New(sampleRate, bpm float64) *SampleClock {
	if sampleRate <= 0 {
		panic("clock: sampleRate must be positive")
	}
	if bpm <= 0 {
		panic("clock: bpm must be positive")
	}
	return &SampleClock{sampleRate: sampleRate, bpm: bpm}
}

// Position returns the current sample position.
func (c *SampleClock) Position() float64 {
	return c.positionSamples
}

// SampleRate returns the clock's sample rate in Hz.
func (c *SampleClock) SampleRate() float64 {
	return c.sampleRate
}

// BPM returns the current tempo.
func (c *SampleClock) BPM() float64 {
	return c.bpm
}

// SamplesPerBeat returns sample_rate * 60 / bpm.
func (c *SampleClock) SamplesPerBeat() float64 {
	return c.sampleRate * 60 / c.bpm
}

// Advance moves the clock forward by n samples, called once per render
// block after all other per-block work is done (spec step 6).
func (c *SampleClock) Advance(n int) {
	c.positionSamples += float64(n)
}

// SetBPM changes the tempo taking effect for all positions from now on.
// Re-anchors the beat grid to the clock's current position first, under
// the outgoing tempo, so beats already played keep their phase and the
// new tempo only changes the spacing of beats from this position
// forward (spec invariant 4 / S6: no click is duplicated or skipped
// across a tempo change). A no-op if bpm is unchanged, so calling this
// every block with the last-applied value (the normal case) never
// re-anchors. Must only be called by the render thread itself, after
// reading a controller-published tempo value at block entry — never
// concurrently with Advance.
func (c *SampleClock) SetBPM(bpm float64) {
	if bpm <= 0 || bpm == c.bpm {
		return
	}
	c.anchorBeat = c.BeatIndex(c.positionSamples)
	c.anchorPos = c.positionSamples
	c.bpm = bpm
}

// BeatIndex returns the index of the beat containing sample position p,
// relative to the grid anchored at the last tempo change.
func (c *SampleClock) BeatIndex(p float64) int64 {
	return c.anchorBeat + int64(math.Floor((p-c.anchorPos)/c.SamplesPerBeat()))
}

// BeatPhase returns (p - anchorPos) mod samples_per_beat, zero at every
// click onset.
func (c *SampleClock) BeatPhase(p float64) float64 {
	spb := c.SamplesPerBeat()
	phase := math.Mod(p-c.anchorPos, spb)
	if phase < 0 {
		phase += spb
	}
	return phase
}

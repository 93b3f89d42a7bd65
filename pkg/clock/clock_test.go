package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSamplesPerBeat(t *testing.T) {
	c := New(48000, 120)
	assert.Equal(t, 48000.0*60/120, c.SamplesPerBeat())
}

func TestBeatIndexAndPhase(t *testing.T) {
	c := New(48000, 120) // samples_per_beat = 24000
	assert.Equal(t, int64(0), c.BeatIndex(0))
	assert.Equal(t, 0.0, c.BeatPhase(0))
	assert.Equal(t, int64(0), c.BeatIndex(23999))
	assert.Equal(t, int64(1), c.BeatIndex(24000))
	assert.Equal(t, 0.0, c.BeatPhase(24000))
	assert.Equal(t, 1.0, c.BeatPhase(24001))
}

func TestAdvance(t *testing.T) {
	c := New(48000, 120)
	c.Advance(512)
	c.Advance(512)
	assert.Equal(t, 1024.0, c.Position())
}

func TestClickOnsetCount(t *testing.T) {
	// Invariant 2: across a run of K*samples_per_beat frames, exactly K
	// beat boundaries (beat_phase == 0) are crossed.
	c := New(48000, 120)
	spb := c.SamplesPerBeat()
	k := 5
	total := int(spb) * k
	onsets := 0
	for i := 0; i < total; i++ {
		if c.BeatPhase(float64(i)) == 0 {
			onsets++
		}
	}
	assert.Equal(t, k, onsets)
}

func TestNewPanicsOnInvalidTempo(t *testing.T) {
	require.Panics(t, func() { New(48000, 0) })
	require.Panics(t, func() { New(0, 120) })
}

// S6: a tempo change anchors the beat grid at the position it was
// applied, so the beat spanning the change keeps its phase and later
// beats land at multiples of the new samples_per_beat from that anchor,
// never from absolute position zero.
func TestSetBPMAnchorsBeatGrid(t *testing.T) {
	c := New(48000, 120) // spb 24000
	c.SetBPM(180)        // applied at position 0: no-op anchor shift
	assert.Equal(t, 180.0, c.BPM())

	c = New(48000, 120)
	for i := 0; i < 24000; i++ {
		c.Advance(1)
	}
	c.SetBPM(180) // applied at position 24000, spb now 16000
	assert.Equal(t, int64(1), c.BeatIndex(24000))
	assert.Equal(t, 0.0, c.BeatPhase(24000))
	assert.Equal(t, int64(2), c.BeatIndex(40000))
	assert.Equal(t, 0.0, c.BeatPhase(40000))
	assert.Equal(t, int64(1), c.BeatIndex(39999))
}

// SetBPM with the value already in effect must not re-anchor: called
// every render block with the last-applied tempo, it must leave the
// grid alone.
func TestSetBPMNoOpWhenUnchanged(t *testing.T) {
	c := New(48000, 120)
	for i := 0; i < 30000; i++ {
		c.Advance(1)
	}
	before := c.BeatIndex(30000)
	c.SetBPM(120)
	assert.Equal(t, before, c.BeatIndex(30000))
}

func TestBeatPhaseAndIndexWithinBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		sr := rapid.Float64Range(8000, 192000).Draw(t, "sr")
		bpm := rapid.Float64Range(20, 300).Draw(t, "bpm")
		p := rapid.Float64Range(0, 1e7).Draw(t, "p")

		c := New(sr, bpm)
		phase := c.BeatPhase(p)
		spb := c.SamplesPerBeat()

		assert.GreaterOrEqual(t, phase, 0.0)
		assert.Less(t, phase, spb)

		idx := c.BeatIndex(p)
		assert.LessOrEqual(t, float64(idx)*spb, p+1e-6)
	})
}

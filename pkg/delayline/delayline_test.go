package delayline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSilenceBeforeWarmup(t *testing.T) {
	d := New(240, 64)
	in := make([]float32, 64)
	for i := range in {
		in[i] = 1
	}
	outL := make([]float32, 64)
	outR := make([]float32, 64)

	d.PushBlock(in, in, 64)
	d.ReadBlock(outL, outR, 64)

	for _, v := range outL {
		assert.Equal(t, float32(0), v)
	}
}

func TestExactGroupDelay(t *testing.T) {
	// Invariant 6: after >= L frames pushed, the i-th frame read equals
	// the i-th frame pushed.
	const L = 8
	d := New(L, 4)

	pushed := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	var read []float32

	for i := 0; i < len(pushed); i += 4 {
		block := pushed[i : i+4]
		outL := make([]float32, 4)
		outR := make([]float32, 4)
		d.PushBlock(block, block, 4)
		d.ReadBlock(outL, outR, 4)
		read = append(read, outL...)
	}

	require.Len(t, read, len(pushed))
	for i := 0; i+L < len(pushed); i++ {
		assert.Equal(t, pushed[i], read[i+L])
	}
}

func TestResetClearsState(t *testing.T) {
	d := New(4, 4)
	block := []float32{1, 1, 1, 1}
	d.PushBlock(block, block, 4)
	out := make([]float32, 4)
	d.ReadBlock(out, out, 4)

	d.Reset()

	d.PushBlock(block, block, 4)
	d.ReadBlock(out, out, 4)
	for _, v := range out {
		assert.Equal(t, float32(0), v)
	}
}

package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestWriteReadFIFO(t *testing.T) {
	r := New[float32](8)
	for i := 0; i < 5; i++ {
		require.True(t, r.Write(float32(i)))
	}
	out := make([]float32, 5)
	n := r.ReadInto(out)
	require.Equal(t, 5, n)
	assert.Equal(t, []float32{0, 1, 2, 3, 4}, out)
}

func TestOverrunDropsAndCounts(t *testing.T) {
	r := New[float32](4) // usable capacity 3
	require.True(t, r.Write(1))
	require.True(t, r.Write(2))
	require.True(t, r.Write(3))
	assert.False(t, r.Write(4))
	assert.Equal(t, uint64(1), r.Dropped())
}

func TestAvailableReadWrite(t *testing.T) {
	r := New[float32](8) // usable 7
	assert.Equal(t, 0, r.AvailableRead())
	assert.Equal(t, 7, r.AvailableWrite())
	r.Write(1)
	r.Write(2)
	assert.Equal(t, 2, r.AvailableRead())
	assert.Equal(t, 5, r.AvailableWrite())
}

func TestReadIntoPartial(t *testing.T) {
	r := New[float32](16)
	r.Write(1)
	r.Write(2)
	out := make([]float32, 5)
	n := r.ReadInto(out)
	assert.Equal(t, 2, n)
}

func TestFIFOPropertyAcrossWraps(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cap := rapid.IntRange(2, 64).Draw(t, "cap")
		r := New[int](cap)
		var written, read []int
		next := 0

		ops := rapid.IntRange(1, 200).Draw(t, "ops")
		for i := 0; i < ops; i++ {
			if rapid.Boolean().Draw(t, "doWrite") {
				if r.Write(next) {
					written = append(written, next)
				}
				next++
			} else {
				n := rapid.IntRange(0, 8).Draw(t, "readLen")
				buf := make([]int, n)
				got := r.ReadInto(buf)
				read = append(read, buf[:got]...)
			}
		}
		// drain remainder
		for r.AvailableRead() > 0 {
			buf := make([]int, r.AvailableRead())
			got := r.ReadInto(buf)
			read = append(read, buf[:got]...)
		}

		require.LessOrEqual(t, len(read), len(written))
		for i := range read {
			assert.Equal(t, written[i], read[i])
		}
	})
}

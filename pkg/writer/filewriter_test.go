package writer

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clickforge/metronome-engine/pkg/ring"
)

func TestWriterDrainsRingToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	fw, err := New(path, 48000, 64, nil)
	require.NoError(t, err)

	r := ring.New[float32](1024)
	for i := 0; i < 8; i++ {
		require.True(t, r.Write(float32(i)))
	}

	go fw.Run(r)
	time.Sleep(5 * time.Millisecond)
	fw.Stop()
	require.NoError(t, fw.Close())

	assert.Equal(t, uint64(4), fw.FramesWritten())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, data, wavHeaderSize+8*4)

	dataSize := binary.LittleEndian.Uint32(data[40:44])
	assert.Equal(t, uint32(8*4), dataSize)

	firstSample := math32FromBytes(data[wavHeaderSize : wavHeaderSize+4])
	assert.Equal(t, float32(0), firstSample)
}

func TestStopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	fw, err := New(path, 48000, 64, nil)
	require.NoError(t, err)

	r := ring.New[float32](16)
	go fw.Run(r)
	time.Sleep(2 * time.Millisecond)

	fw.Stop()
	fw.Stop() // must not panic or block
	require.NoError(t, fw.Close())
}

func TestStopDrainsRemainingSamples(t *testing.T) {
	// Stop requested immediately after samples are already queued:
	// Run must drain them fully before exiting, per the
	// no-discard-except-overrun invariant.
	path := filepath.Join(t.TempDir(), "out.wav")
	fw, err := New(path, 48000, 64, nil)
	require.NoError(t, err)

	r := ring.New[float32](1024)
	for i := 0; i < 100; i++ {
		r.Write(float32(i))
	}

	done := make(chan struct{})
	go func() {
		fw.Run(r)
		close(done)
	}()
	fw.Stop()
	<-done
	require.NoError(t, fw.Close())
	assert.Equal(t, uint64(50), fw.FramesWritten())
}

func math32FromBytes(b []byte) float32 {
	bits := binary.LittleEndian.Uint32(b)
	return math.Float32frombits(bits)
}

package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeDeviceDeliversScriptedBlocks(t *testing.T) {
	d := NewFakeDevice(48000, 0.005, 0.01, 64, 3)
	var calls int
	err := d.Start(func(n int, inL, inR, outL, outR []float32, ts int64) {
		calls++
		for i := range outL {
			outL[i] = 1
		}
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, d.Captured, 3)
	assert.Equal(t, float32(1), d.Captured[0][0][0])
}

func TestFakeDeviceDeliversScriptedMic(t *testing.T) {
	d := NewFakeDevice(48000, 0, 0, 4, 1)
	d.MicL = [][]float32{{1, 2, 3, 4}}

	var gotInL []float32
	d.Start(func(n int, inL, inR, outL, outR []float32, ts int64) {
		gotInL = append(gotInL, inL...)
	})

	assert.Equal(t, []float32{1, 2, 3, 4}, gotInL)
}

func TestRegisterAndActiveDevice(t *testing.T) {
	d := NewFakeDevice(48000, 0, 0, 1, 0)
	RegisterActive(d)
	assert.Equal(t, Device(d), ActiveDevice())
}

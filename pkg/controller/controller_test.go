package controller

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clickforge/metronome-engine/pkg/device"
	"github.com/clickforge/metronome-engine/pkg/engine"
)

func driveBlocks(t *testing.T, c *Controller, dev *device.FakeDevice, numBlocks, blockSize int) {
	t.Helper()
	err := dev.Start(func(n int, inL, inR, outL, outR []float32, ts int64) {
		c.Engine().Render(n, engine.DirectInput{L: inL, R: inR}, outL, outR, ts)
	})
	require.NoError(t, err)
}

func TestRoundTripBPM(t *testing.T) {
	dev := device.NewFakeDevice(48000, 0.005, 0.01, 64, 0)
	c := New(dev, 120, 4, 64, nil)
	defer c.Destroy()

	require.NoError(t, c.SetBPM(150))
	// The render thread applies the new tempo at the next block
	// boundary; drive one block so the clock observes it.
	driveBlocks(t, c, device.NewFakeDevice(48000, 0, 0, 64, 1), 1, 64)
	assert.Equal(t, 150.0, c.BPM())
}

func TestSetBPMRejectsNonPositive(t *testing.T) {
	dev := device.NewFakeDevice(48000, 0, 0, 64, 0)
	c := New(dev, 120, 4, 64, nil)
	defer c.Destroy()
	assert.Error(t, c.SetBPM(0))
	assert.Error(t, c.SetBPM(-5))
}

func TestPlayPauseToggle(t *testing.T) {
	dev := device.NewFakeDevice(48000, 0, 0, 64, 0)
	c := New(dev, 120, 4, 64, nil)
	defer c.Destroy()
	assert.False(t, c.IsPlaying())
	c.Play()
	assert.True(t, c.IsPlaying())
	c.Pause()
	assert.False(t, c.IsPlaying())
}

func TestStopRecordingWithoutStartIsInvalidState(t *testing.T) {
	dev := device.NewFakeDevice(48000, 0, 0, 64, 0)
	c := New(dev, 120, 4, 64, nil)
	defer c.Destroy()
	_, err := c.StopRecording()
	assert.Error(t, err)
}

func TestStartStopRecordingLifecycle(t *testing.T) {
	dev := device.NewFakeDevice(48000, 0.005, 0.01, 480, 50)
	c := New(dev, 60, 4, 480, nil)
	defer c.Destroy()
	c.LoadClick([]float32{1.0})
	c.Play()

	path := filepath.Join(t.TempDir(), "session.wav")
	require.NoError(t, c.StartRecording(path))

	require.NoError(t, dev.Start(func(n int, inL, inR, outL, outR []float32, ts int64) {
		c.Engine().Render(n, engine.DirectInput{L: inL, R: inR}, outL, outR, ts)
	}))

	time.Sleep(10 * time.Millisecond) // let the writer drain

	result, err := c.StopRecording()
	require.NoError(t, err)
	assert.Equal(t, path, result.Path)
	assert.Equal(t, 4, result.TimeSignature)

	// Stopping twice is an error, not a panic.
	_, err = c.StopRecording()
	assert.Error(t, err)
}

func TestSubscribeBeatEventsReceivesOnsets(t *testing.T) {
	dev := device.NewFakeDevice(48000, 0, 0, 240, 200)
	c := New(dev, 60, 0, 240, nil)
	defer c.Destroy()
	c.LoadClick([]float32{1.0})
	c.Play()

	sub := c.SubscribeBeatEvents()

	require.NoError(t, dev.Start(func(n int, inL, inR, outL, outR []float32, ts int64) {
		c.Engine().Render(n, engine.DirectInput{L: inL, R: inR}, outL, outR, ts)
	}))

	select {
	case b := <-sub:
		assert.Equal(t, 0, b.Value)
	case <-time.After(time.Second):
		t.Fatal("expected a beat event")
	}
}

func TestStopRecordingReportsBeatTimestamps(t *testing.T) {
	dev := device.NewFakeDevice(48000, 0.005, 0.01, 480, 30)
	c := New(dev, 600, 0, 480, nil) // spb 4800: three onsets in 30*480=14400 frames
	defer c.Destroy()
	c.LoadClick([]float32{1.0})
	c.Play()

	path := filepath.Join(t.TempDir(), "session.wav")
	require.NoError(t, c.StartRecording(path))

	require.NoError(t, dev.Start(func(n int, inL, inR, outL, outR []float32, ts int64) {
		c.Engine().Render(n, engine.DirectInput{L: inL, R: inR}, outL, outR, ts)
	}))

	time.Sleep(10 * time.Millisecond) // let beat dispatch catch up

	result, err := c.StopRecording()
	require.NoError(t, err)
	require.NotEmpty(t, result.Timestamps)
	assert.InDelta(t, 0.0, result.Timestamps[0], 1e-9)
}

func TestVolumeRoundTrip(t *testing.T) {
	dev := device.NewFakeDevice(48000, 0, 0, 64, 0)
	c := New(dev, 120, 4, 64, nil)
	defer c.Destroy()
	c.SetVolume(50)
	assert.Equal(t, 50, c.Volume())
}

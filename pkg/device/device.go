// Package device defines the full-duplex audio device contract the core
// render pipeline consumes, and provides a process-wide registry for
// sharing the active device handle with external consumers without a
// lock, plus an in-memory fake for driving tests without hardware.
package device

import "sync/atomic"

// RenderFunc is the render callback the device invokes once per block.
// n is the frame count; inL/inR are the captured input channels for the
// same timestamp; outL/outR are pre-zeroed output channels the callback
// fills in place.
type RenderFunc func(n int, inL, inR, outL, outR []float32, timestamp int64)

// Device is the configured full-duplex stereo I/O contract consumed by
// the core. Acquisition, permission prompts, and category configuration
// are all external collaborators; by the time a Device reaches the
// controller it is already configured and ready to start.
type Device interface {
	// SampleRate returns the device's fixed operating sample rate.
	SampleRate() float64
	// InputLatencySeconds returns the measured capture latency, used to
	// size the LatencyDelayLine at arming time.
	InputLatencySeconds() float64
	// OutputLatencySeconds returns the measured playback latency.
	OutputLatencySeconds() float64
	// Start begins periodic invocation of render until Stop is called.
	Start(render RenderFunc) error
	// Stop halts render invocations. Safe to call even if not started.
	Stop() error
}

var active atomic.Pointer[Device]

// RegisterActive publishes d as the process-wide active device handle.
// Entries are replaced atomically; consumers reading ActiveDevice take a
// read-only snapshot. Unused by the core itself — provided for a
// hypothetical second consumer (e.g. a host-bridge status page) that
// wants the current device without taking a lock.
func RegisterActive(d Device) {
	active.Store(&d)
}

// ActiveDevice returns the most recently registered device, or nil if
// none has been registered.
func ActiveDevice() Device {
	p := active.Load()
	if p == nil {
		return nil
	}
	return *p
}

package device

import (
	"github.com/gordonklaus/portaudio"

	"github.com/clickforge/metronome-engine/pkg/errs"
)

// PortAudioDevice adapts a full-duplex stereo portaudio stream to the
// Device contract. OpenDefaultStereo acquires the system default input
// and output devices under portaudio's default host API; choosing another
// host API or specific device IDs is not supported by this adapter.
type PortAudioDevice struct {
	sampleRate    float64
	inputLatency  float64
	outputLatency float64

	stream *portaudio.Stream
	render RenderFunc

	inL, inR   []float32
	outL, outR []float32
}

// OpenDefaultStereo opens the system default full-duplex stereo stream
// at sampleRate with blockSize frames per callback. Call Start on the
// result to begin delivering render callbacks.
func OpenDefaultStereo(sampleRate float64, blockSize int) (*PortAudioDevice, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, errs.Wrap(errs.ConfigurationFailed, "portaudio initialize", err)
	}

	d := &PortAudioDevice{
		sampleRate: sampleRate,
		inL:        make([]float32, blockSize),
		inR:        make([]float32, blockSize),
		outL:       make([]float32, blockSize),
		outR:       make([]float32, blockSize),
	}

	inDev, err := portaudio.DefaultInputDevice()
	if err != nil {
		return nil, errs.Wrap(errs.ConfigurationFailed, "default input device", err)
	}
	outDev, err := portaudio.DefaultOutputDevice()
	if err != nil {
		return nil, errs.Wrap(errs.ConfigurationFailed, "default output device", err)
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   inDev,
			Channels: 2,
			Latency:  inDev.DefaultLowInputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Device:   outDev,
			Channels: 2,
			Latency:  outDev.DefaultLowOutputLatency,
		},
		SampleRate:      sampleRate,
		FramesPerBuffer: blockSize,
	}
	d.inputLatency = params.Input.Latency.Seconds()
	d.outputLatency = params.Output.Latency.Seconds()

	stream, err := portaudio.OpenStream(params, d.callback)
	if err != nil {
		return nil, errs.Wrap(errs.ConfigurationFailed, "open stream", err)
	}
	d.stream = stream
	return d, nil
}

func (d *PortAudioDevice) callback(in, out [][]float32) {
	n := len(out[0])
	for i := 0; i < n; i++ {
		d.inL[i] = in[0][i]
		d.inR[i] = in[1][i]
		d.outL[i] = 0
		d.outR[i] = 0
	}

	d.render(n, d.inL[:n], d.inR[:n], d.outL[:n], d.outR[:n], 0)

	copy(out[0], d.outL[:n])
	copy(out[1], d.outR[:n])
}

func (d *PortAudioDevice) SampleRate() float64           { return d.sampleRate }
func (d *PortAudioDevice) InputLatencySeconds() float64  { return d.inputLatency }
func (d *PortAudioDevice) OutputLatencySeconds() float64 { return d.outputLatency }

// Start begins stream playback, invoking render once per callback block.
func (d *PortAudioDevice) Start(render RenderFunc) error {
	d.render = render
	if err := d.stream.Start(); err != nil {
		return errs.DeviceStatus(-1, "start stream")
	}
	return nil
}

// Stop halts stream playback and closes the underlying stream.
func (d *PortAudioDevice) Stop() error {
	if d.stream == nil {
		return nil
	}
	if err := d.stream.Stop(); err != nil {
		return errs.DeviceStatus(-1, "stop stream")
	}
	return d.stream.Close()
}

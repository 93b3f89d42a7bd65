package device

// FakeDevice drives a supplied render function over a scripted sequence
// of blocks without any audio hardware, for exercising pkg/engine and
// pkg/controller in tests.
type FakeDevice struct {
	sampleRate    float64
	inputLatency  float64
	outputLatency float64

	blockSize int
	numBlocks int

	// MicL/MicR optionally supply scripted input per block index; when
	// nil, silence is delivered.
	MicL, MicR [][]float32

	// Captured holds every output block Start produced, for assertions.
	Captured [][2][]float32

	running bool
}

// NewFakeDevice creates a fake device that will deliver numBlocks blocks
// of blockSize frames each when Start is called.
func NewFakeDevice(sampleRate, inputLatency, outputLatency float64, blockSize, numBlocks int) *FakeDevice {
	return &FakeDevice{
		sampleRate:    sampleRate,
		inputLatency:  inputLatency,
		outputLatency: outputLatency,
		blockSize:     blockSize,
		numBlocks:     numBlocks,
	}
}

func (d *FakeDevice) SampleRate() float64           { return d.sampleRate }
func (d *FakeDevice) InputLatencySeconds() float64  { return d.inputLatency }
func (d *FakeDevice) OutputLatencySeconds() float64 { return d.outputLatency }

// Start synchronously delivers the scripted blocks to render, in order,
// recording every output block into Captured.
func (d *FakeDevice) Start(render RenderFunc) error {
	d.running = true
	inL := make([]float32, d.blockSize)
	inR := make([]float32, d.blockSize)

	var timestamp int64
	for b := 0; b < d.numBlocks && d.running; b++ {
		for i := range inL {
			inL[i] = 0
			inR[i] = 0
		}
		if d.MicL != nil && b < len(d.MicL) {
			copy(inL, d.MicL[b])
		}
		if d.MicR != nil && b < len(d.MicR) {
			copy(inR, d.MicR[b])
		}

		outL := make([]float32, d.blockSize)
		outR := make([]float32, d.blockSize)
		render(d.blockSize, inL, inR, outL, outR, timestamp)
		d.Captured = append(d.Captured, [2][]float32{outL, outR})

		timestamp += int64(d.blockSize)
	}
	return nil
}

func (d *FakeDevice) Stop() error {
	d.running = false
	return nil
}

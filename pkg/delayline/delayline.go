// Package delayline implements the fixed-length stereo delay applied to
// the click stream destined for the recorded file, sized from the
// device's measured input latency so that a recorded mic transient lines
// up on disk with the click the performer heard.
package delayline

// LatencyDelayLine holds exactly size stereo frames. A frame pushed
// becomes readable only once the line has rotated all the way around —
// since the backing storage starts zero-filled, reads before that point
// yield silence for free, with no separate warm-up counter.
//
// Internally this is a single zero-initialized circular buffer read
// before write at the same slot index per frame: because occupancy is
// pinned at exactly size frames, the slot about to be overwritten is
// always exactly size frames old, so reading it before the overwrite is
// the only ordering that does not lose data and also yields exact
// group delay of size samples.
//
// PushBlock and ReadBlock are the two operations the render engine
// drives once per block: PushBlock stages the freshly rendered click
// block, ReadBlock performs the read-before-write rotation per frame
// against the staged data. Not safe for concurrent use — owned
// exclusively by the render thread.
type LatencyDelayLine struct {
	left  []float32
	right []float32
	size  int
	pos   int

	stagedLeft  []float32
	stagedRight []float32
	stagedN     int
}

// New creates a delay line of exactly size stereo frames of group delay,
// with staging capacity for blocks up to maxBlockSize frames.
func New(size, maxBlockSize int) *LatencyDelayLine {
	if size < 1 {
		size = 1
	}
	return &LatencyDelayLine{
		left:        make([]float32, size),
		right:       make([]float32, size),
		size:        size,
		stagedLeft:  make([]float32, maxBlockSize),
		stagedRight: make([]float32, maxBlockSize),
	}
}

// Size returns the configured group delay in frames.
func (d *LatencyDelayLine) Size() int {
	return d.size
}

// PushBlock stages n stereo frames to be rotated into the line by the
// next ReadBlock call.
func (d *LatencyDelayLine) PushBlock(left, right []float32, n int) {
	copy(d.stagedLeft[:n], left[:n])
	copy(d.stagedRight[:n], right[:n])
	d.stagedN = n
}

// ReadBlock consumes n stereo frames staged by the preceding PushBlock,
// writing the delayed output into outLeft/outRight and rotating the
// staged input into the line.
func (d *LatencyDelayLine) ReadBlock(outLeft, outRight []float32, n int) {
	if n > d.stagedN {
		n = d.stagedN
	}
	size := d.size
	pos := d.pos
	for i := 0; i < n; i++ {
		outLeft[i] = d.left[pos]
		outRight[i] = d.right[pos]
		d.left[pos] = d.stagedLeft[i]
		d.right[pos] = d.stagedRight[i]
		pos++
		if pos >= size {
			pos = 0
		}
	}
	d.pos = pos
}

// Reset clears the line back to silence and resets the rotation cursor.
// The render engine does not call it: engine.RenderEngine.ArmRecording
// builds a new, zero-filled line on each arm instead.
func (d *LatencyDelayLine) Reset() {
	for i := range d.left {
		d.left[i] = 0
		d.right[i] = 0
	}
	d.pos = 0
	d.stagedN = 0
}

// Package audioutil provides allocation-free buffer operations used by
// the render engine: clearing, mixing, scaling, and clipping of float32
// channel blocks.
package audioutil

// Clear zeroes a buffer.
func Clear(buffer []float32) {
	for i := range buffer {
		buffer[i] = 0
	}
}

// Add adds src into dst in place, sample by sample.
func Add(dst, src []float32) {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		dst[i] += src[i]
	}
}

// Scale multiplies every sample of buffer by gain in place.
func Scale(buffer []float32, gain float32) {
	for i := range buffer {
		buffer[i] *= gain
	}
}

// Clip hard-limits every sample of buffer to [-limit, limit]. Used by the
// engine to keep the mixed mic+click record-path output within the
// format's nominal range before it reaches the writer's ring.
func Clip(buffer []float32, limit float32) {
	for i := range buffer {
		if buffer[i] > limit {
			buffer[i] = limit
		} else if buffer[i] < -limit {
			buffer[i] = -limit
		}
	}
}

package click

// Resample linearly interpolates pcm, recorded at fromRate, to toRate.
// Used by cmd/metronome before it hands click PCM to the controller's
// LoadClick/LoadAccent, when the decoded click arrives at a different
// rate than the device; never called from the render path itself.
func Resample(pcm []float32, fromRate, toRate float64) []float32 {
	if len(pcm) == 0 || fromRate == toRate {
		out := make([]float32, len(pcm))
		copy(out, pcm)
		return out
	}

	ratio := fromRate / toRate
	outLen := int(float64(len(pcm)) / ratio)
	out := make([]float32, outLen)

	for i := 0; i < outLen; i++ {
		srcPos := float64(i) * ratio
		idx := int(srcPos)
		frac := float32(srcPos - float64(idx))

		s1 := pcm[idx]
		var s2 float32
		if idx+1 < len(pcm) {
			s2 = pcm[idx+1]
		} else {
			s2 = s1
		}
		out[i] = s1*(1-frac) + s2*frac
	}
	return out
}

package writer

import (
	"encoding/binary"
	"io"
	"math"
)

// WAV container constants for a 32-bit IEEE-float stereo stream. A
// third-party PCM encoder (e.g. go-audio/wav) was not used here: its
// public API is built around integer sample buffers and does not
// cleanly express writing raw interleaved float32 frames without
// reinterpreting bits through an integer buffer, which is an
// unacceptable risk for a format that must be exact. Hand-rolling the
// header with encoding/binary, as done here, mirrors how this same
// trade-off is made elsewhere in practice for exactly this format.
const (
	wavFormatIEEEFloat = 3
	wavBitsPerSample   = 32
	wavChannels        = 2
	wavFmtChunkSize    = 16
	wavHeaderSize      = 44
)

// writeWAVHeader writes a 44-byte canonical RIFF/WAVE header for
// interleaved 32-bit float stereo PCM at sampleRate, with dataSize bytes
// of sample data to follow.
func writeWAVHeader(w io.Writer, sampleRate uint32, dataSize uint32) error {
	blockAlign := uint16(wavChannels * wavBitsPerSample / 8)
	byteRate := sampleRate * uint32(blockAlign)

	buf := make([]byte, wavHeaderSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], 36+dataSize)
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], wavFmtChunkSize)
	binary.LittleEndian.PutUint16(buf[20:22], wavFormatIEEEFloat)
	binary.LittleEndian.PutUint16(buf[22:24], wavChannels)
	binary.LittleEndian.PutUint32(buf[24:28], sampleRate)
	binary.LittleEndian.PutUint32(buf[28:32], byteRate)
	binary.LittleEndian.PutUint16(buf[32:34], blockAlign)
	binary.LittleEndian.PutUint16(buf[34:36], wavBitsPerSample)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], dataSize)

	_, err := w.Write(buf)
	return err
}

// appendFloatFrames writes interleaved stereo float32 frames as raw
// little-endian IEEE-754 bytes, with no per-call allocation beyond the
// fixed scratch buffer supplied by the caller.
func appendFloatFrames(w io.Writer, scratch []byte, samples []float32) error {
	need := len(samples) * 4
	if cap(scratch) < need {
		scratch = make([]byte, need)
	}
	scratch = scratch[:need]

	for i, s := range samples {
		binary.LittleEndian.PutUint32(scratch[i*4:], math.Float32bits(s))
	}
	_, err := w.Write(scratch)
	return err
}

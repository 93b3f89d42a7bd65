package writer

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/clickforge/metronome-engine/pkg/errs"
)

const (
	wavFormatPCM = 1
)

// ReadMonoFloat decodes a RIFF/WAVE file at path into a single channel of
// float32 samples in the range [-1, 1], downmixing by averaging channels
// if the source is not mono, and returns the source sample rate. Used by
// cmd/metronome to decode click files before resampling and handing them
// to the controller's LoadClick/LoadAccent; never called from the render
// path.
func ReadMonoFloat(path string) ([]float32, uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, errs.Wrap(errs.IoError, "open click file", err)
	}
	defer f.Close()

	var riffHeader [12]byte
	if _, err := io.ReadFull(f, riffHeader[:]); err != nil {
		return nil, 0, errs.Wrap(errs.IoError, "read riff header", err)
	}
	if string(riffHeader[0:4]) != "RIFF" || string(riffHeader[8:12]) != "WAVE" {
		return nil, 0, errs.New(errs.IoError, "not a RIFF/WAVE file")
	}

	var (
		format     uint16
		channels   uint16
		sampleRate uint32
		bitDepth   uint16
		haveFmt    bool
		samples    []float32
	)

	var chunkID [4]byte
	var chunkSizeBuf [4]byte
	for {
		if _, err := io.ReadFull(f, chunkID[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return nil, 0, errs.Wrap(errs.IoError, "read chunk id", err)
		}
		if _, err := io.ReadFull(f, chunkSizeBuf[:]); err != nil {
			return nil, 0, errs.Wrap(errs.IoError, "read chunk size", err)
		}
		chunkSize := binary.LittleEndian.Uint32(chunkSizeBuf[:])

		switch string(chunkID[:]) {
		case "fmt ":
			body := make([]byte, chunkSize)
			if _, err := io.ReadFull(f, body); err != nil {
				return nil, 0, errs.Wrap(errs.IoError, "read fmt chunk", err)
			}
			format = binary.LittleEndian.Uint16(body[0:2])
			channels = binary.LittleEndian.Uint16(body[2:4])
			sampleRate = binary.LittleEndian.Uint32(body[4:8])
			bitDepth = binary.LittleEndian.Uint16(body[14:16])
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, 0, errs.New(errs.IoError, "data chunk before fmt chunk")
			}
			body := make([]byte, chunkSize)
			if _, err := io.ReadFull(f, body); err != nil {
				return nil, 0, errs.Wrap(errs.IoError, "read data chunk", err)
			}
			samples, err = decodeFrames(body, format, channels, bitDepth)
			if err != nil {
				return nil, 0, err
			}
		default:
			if _, err := f.Seek(int64(chunkSize), io.SeekCurrent); err != nil {
				return nil, 0, errs.Wrap(errs.IoError, "skip chunk", err)
			}
		}
		if chunkSize%2 == 1 {
			f.Seek(1, io.SeekCurrent)
		}
	}

	if !haveFmt || samples == nil {
		return nil, 0, errs.New(errs.IoError, "missing fmt or data chunk")
	}
	return samples, sampleRate, nil
}

// decodeFrames interprets raw PCM bytes as interleaved frames of the
// given format/channel count and downmixes to mono by averaging.
func decodeFrames(body []byte, format, channels, bitDepth uint16) ([]float32, error) {
	if channels == 0 {
		return nil, errs.New(errs.IoError, "zero channel count")
	}

	var bytesPerSample int
	switch {
	case format == wavFormatPCM && bitDepth == 16:
		bytesPerSample = 2
	case format == wavFormatPCM && bitDepth == 8:
		bytesPerSample = 1
	case format == wavFormatIEEEFloat && bitDepth == 32:
		bytesPerSample = 4
	default:
		return nil, errs.New(errs.IoError, fmt.Sprintf("unsupported wav format %d/%d-bit", format, bitDepth))
	}

	frameBytes := bytesPerSample * int(channels)
	if frameBytes == 0 {
		return nil, errs.New(errs.IoError, "zero-size frame")
	}
	numFrames := len(body) / frameBytes
	out := make([]float32, numFrames)

	for i := 0; i < numFrames; i++ {
		var sum float32
		base := i * frameBytes
		for c := 0; c < int(channels); c++ {
			off := base + c*bytesPerSample
			sum += decodeSample(body[off:off+bytesPerSample], format, bitDepth)
		}
		out[i] = sum / float32(channels)
	}
	return out, nil
}

func decodeSample(b []byte, format, bitDepth uint16) float32 {
	switch {
	case format == wavFormatIEEEFloat && bitDepth == 32:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	case format == wavFormatPCM && bitDepth == 16:
		v := int16(binary.LittleEndian.Uint16(b))
		return float32(v) / 32768
	case format == wavFormatPCM && bitDepth == 8:
		return (float32(b[0]) - 128) / 128
	default:
		return 0
	}
}

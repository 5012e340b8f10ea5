package codec

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-daw/project"
)

const (
	pcmFormat  = 1
	pcm16Depth = 16

	// WAVHeaderSize is the size of the header EncodeWAV writes.
	WAVHeaderSize = 44
)

// Errors returned by the codecs.
var (
	ErrDecode = errors.New("codec: decode failed")
	ErrEncode = errors.New("codec: encode failed")
)

// QuantizePCM16 clamps x to [-1, 1] and scales it to a 16-bit sample,
// by 32767 for non-negative values and 32768 for negative ones,
// truncating toward zero. NaN maps to 0.
func QuantizePCM16(x float64) int {
	if math.IsNaN(x) {
		return 0
	}
	x = math.Max(-1, math.Min(1, x))
	if x >= 0 {
		return int(x * 32767)
	}
	return int(x * 32768)
}

// DequantizePCM16 is the inverse scaling of QuantizePCM16.
func DequantizePCM16(v int) float64 {
	if v >= 0 {
		return float64(v) / 32767
	}
	return float64(v) / 32768
}

// EncodeWAV writes channels as interleaved 16-bit PCM. All channels must
// have the same length. The writer is not closed.
func EncodeWAV(w io.WriteSeeker, channels [][]float64, sampleRate int) error {
	if len(channels) == 0 {
		return fmt.Errorf("%w: no channels", ErrEncode)
	}
	if sampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrEncode, sampleRate)
	}

	frames := len(channels[0])
	for c, ch := range channels {
		if len(ch) != frames {
			return fmt.Errorf("%w: channel %d has %d frames, want %d", ErrEncode, c, len(ch), frames)
		}
	}

	numChans := len(channels)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: numChans, SampleRate: sampleRate},
		Data:           make([]int, frames*numChans),
		SourceBitDepth: pcm16Depth,
	}
	for i := range frames {
		for c, ch := range channels {
			buf.Data[i*numChans+c] = QuantizePCM16(ch[i])
		}
	}

	enc := wav.NewEncoder(w, sampleRate, pcm16Depth, numChans, pcmFormat)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("%w: write pcm: %w", ErrEncode, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("%w: finalize header: %w", ErrEncode, err)
	}

	return nil
}

// DecodeWAV reads an integer PCM WAV file into planar float samples.
func DecodeWAV(r io.ReadSeeker) (*project.SampleBuffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a valid wav file", ErrDecode)
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: wav pcm chunk: %w", ErrDecode, err)
	}

	format := dec.Format()
	bitDepth := int(dec.SampleBitDepth())
	if format == nil || format.NumChannels <= 0 || format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: wav format %+v", ErrDecode, format)
	}

	scale, err := pcmScale(bitDepth)
	if err != nil {
		return nil, err
	}

	numChans := format.NumChannels
	bytesPerSample := (bitDepth-1)/8 + 1
	samples := int(dec.PCMLen()) / bytesPerSample
	frames := samples / numChans
	if frames == 0 {
		return nil, fmt.Errorf("%w: wav has no samples", ErrDecode)
	}

	pcm := &audio.IntBuffer{
		Format:         format,
		Data:           make([]int, frames*numChans),
		SourceBitDepth: bitDepth,
	}
	n, err := dec.PCMBuffer(pcm)
	if err != nil {
		return nil, fmt.Errorf("%w: wav samples: %w", ErrDecode, err)
	}
	frames = n / numChans
	if frames == 0 {
		return nil, fmt.Errorf("%w: wav data is truncated", ErrDecode)
	}

	out := &project.SampleBuffer{
		SampleRate: float64(format.SampleRate),
		Channels:   make([][]float64, numChans),
	}
	for c := range out.Channels {
		out.Channels[c] = make([]float64, frames)
	}
	for i := range frames {
		for c := range numChans {
			out.Channels[c][i] = scale(pcm.Data[i*numChans+c])
		}
	}

	return out, nil
}

func pcmScale(bitDepth int) (func(int) float64, error) {
	switch bitDepth {
	case 8:
		return func(v int) float64 { return float64(v-128) / 128 }, nil
	case 16:
		return DequantizePCM16, nil
	case 24, 32:
		full := float64(int64(1) << (bitDepth - 1))
		return func(v int) float64 { return float64(v) / full }, nil
	default:
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrDecode, bitDepth)
	}
}

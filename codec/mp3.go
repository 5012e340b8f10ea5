package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"

	"github.com/cwbudde/algo-daw/project"
)

// DecodeMP3 decodes an MPEG-1/2 layer III stream. go-mp3 always yields
// stereo 16-bit output.
func DecodeMP3(r io.Reader) (*project.SampleBuffer, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: mp3: %w", ErrDecode, err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("%w: mp3 stream: %w", ErrDecode, err)
	}

	const frameBytes = 4
	frames := len(raw) / frameBytes
	if frames == 0 {
		return nil, fmt.Errorf("%w: mp3 has no samples", ErrDecode)
	}

	left := make([]float64, frames)
	right := make([]float64, frames)
	for i := range frames {
		off := i * frameBytes
		left[i] = DequantizePCM16(int(int16(binary.LittleEndian.Uint16(raw[off:]))))
		right[i] = DequantizePCM16(int(int16(binary.LittleEndian.Uint16(raw[off+2:]))))
	}

	return &project.SampleBuffer{
		SampleRate: float64(dec.SampleRate()),
		Channels:   [][]float64{left, right},
	}, nil
}

package codec

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/cwbudde/algo-daw/project"
)

// Decode sniffs the container and dispatches to DecodeWAV or DecodeMP3.
func Decode(r io.ReadSeeker) (*project.SampleBuffer, error) {
	var head [4]byte
	n, err := io.ReadFull(r, head[:])
	if err != nil {
		return nil, fmt.Errorf("%w: read header (%d bytes): %w", ErrDecode, n, err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: rewind: %w", ErrDecode, err)
	}

	switch {
	case bytes.Equal(head[:], []byte("RIFF")):
		return DecodeWAV(r)
	case bytes.Equal(head[:3], []byte("ID3")), head[0] == 0xFF && head[1]&0xE0 == 0xE0:
		return DecodeMP3(r)
	default:
		return nil, fmt.Errorf("%w: unrecognized format % x", ErrDecode, head)
	}
}

// DecodeFile opens path and decodes it.
func DecodeFile(path string) (*project.SampleBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	defer f.Close()

	buf, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return buf, nil
}

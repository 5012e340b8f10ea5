package codec

import (
	"errors"
	"io"
)

var errNegativeOffset = errors.New("codec: negative seek offset")

// WriteSeeker is an in-memory io.WriteSeeker for encoding to bytes.
type WriteSeeker struct {
	buf []byte
	pos int
}

// Write writes p at the current position, growing the buffer as needed.
func (w *WriteSeeker) Write(p []byte) (int, error) {
	end := w.pos + len(p)
	if end > len(w.buf) {
		w.buf = append(w.buf, make([]byte, end-len(w.buf))...)
	}
	copy(w.buf[w.pos:], p)
	w.pos = end
	return len(p), nil
}

// Seek sets the position for the next Write.
func (w *WriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = int64(w.pos)
	case io.SeekEnd:
		base = int64(len(w.buf))
	default:
		return 0, errors.New("codec: invalid whence")
	}

	next := base + offset
	if next < 0 {
		return 0, errNegativeOffset
	}
	w.pos = int(next)
	return next, nil
}

// Bytes returns the written bytes.
func (w *WriteSeeker) Bytes() []byte { return w.buf }

// Len returns the number of bytes written.
func (w *WriteSeeker) Len() int { return len(w.buf) }

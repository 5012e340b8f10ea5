package engine

import (
	"errors"
	"fmt"
)

// ErrRecordingSource reports that a capture device could not be acquired.
// It is distinct from decode failures of loaded audio.
var ErrRecordingSource = errors.New("engine: recording source unavailable")

// InputSource is a live capture device, for example a microphone.
//
// Read is called from Process with a buffer of at most one block. It must
// not block; it returns how many samples it wrote and the rest of dst is
// treated as silence.
type InputSource interface {
	Open(sampleRate float64) error
	Read(dst []float64) int
	Close() error
}

type inputSlot struct {
	src     InputSource
	trackID string
}

// AttachInput opens src and monitors it through track trackID. A failure
// to open leaves playing tracks and any previous input untouched.
func (e *Engine) AttachInput(trackID string, src InputSource) error {
	if src == nil {
		return fmt.Errorf("%w: nil source", ErrRecordingSource)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.byID[trackID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTrack, trackID)
	}

	if err := src.Open(e.cfg.SampleRate); err != nil {
		e.logger.Warn("engine: recording source failed", "track", trackID, "err", err)
		return fmt.Errorf("%w: %w", ErrRecordingSource, err)
	}

	prev := e.input.Swap(&inputSlot{src: src, trackID: trackID})
	if prev != nil {
		if err := prev.src.Close(); err != nil {
			e.logger.Warn("engine: closing previous input", "err", err)
		}
	}

	return nil
}

// DetachInput stops monitoring and closes the source. Process may still
// be reading from it for the current block, so sources must tolerate a
// Read racing with Close.
func (e *Engine) DetachInput() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.input.Swap(nil)
	if prev == nil {
		return nil
	}
	if err := prev.src.Close(); err != nil {
		return fmt.Errorf("engine: close input: %w", err)
	}
	return nil
}

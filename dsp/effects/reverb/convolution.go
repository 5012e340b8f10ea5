package reverb

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-daw/dsp/conv"
)

// ErrChannelMismatch is returned when a block does not match the impulse
// channel count.
var ErrChannelMismatch = errors.New("reverb: channel count mismatch")

// ConvolutionReverb convolves each channel of a block with the matching
// channel of a stereo impulse and replaces the block with the wet signal.
// Dry/wet balancing is left to the caller.
type ConvolutionReverb struct {
	engines []*conv.Partitioned
}

// NewConvolutionReverb builds one partitioned convolver per impulse channel.
func NewConvolutionReverb(ir [][]float64, blockSize int) (*ConvolutionReverb, error) {
	if len(ir) == 0 {
		ir = [][]float64{{0}}
	}

	r := &ConvolutionReverb{engines: make([]*conv.Partitioned, len(ir))}
	for c, kernel := range ir {
		engine, err := conv.NewPartitioned(kernel, blockSize)
		if err != nil {
			return nil, fmt.Errorf("reverb: create convolution engine for channel %d: %w", c, err)
		}
		r.engines[c] = engine
	}

	return r, nil
}

// Channels returns the impulse channel count.
func (r *ConvolutionReverb) Channels() int { return len(r.engines) }

// ProcessInPlace convolves every channel in place. The block must carry
// exactly one channel per impulse channel.
func (r *ConvolutionReverb) ProcessInPlace(block [][]float64) error {
	if len(block) != len(r.engines) {
		return fmt.Errorf("%w: block %d, impulse %d", ErrChannelMismatch, len(block), len(r.engines))
	}

	for c, ch := range block {
		if err := r.engines[c].ProcessBlock(ch, ch); err != nil {
			return fmt.Errorf("reverb: convolve channel %d: %w", c, err)
		}
	}

	return nil
}

// Reset clears the convolution history.
func (r *ConvolutionReverb) Reset() {
	for _, e := range r.engines {
		e.Reset()
	}
}

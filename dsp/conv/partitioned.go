package conv

import (
	"errors"
	"fmt"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
)

// Errors returned by the partitioned convolver.
var (
	ErrInvalidBlockSize = errors.New("conv: invalid block size")
	ErrDstTooShort      = errors.New("conv: destination shorter than source")
)

// Partitioned implements uniformly partitioned overlap-save convolution.
//
// The kernel is cut into partitions of blockSize samples, each transformed
// once at construction. Input is gathered into blockSize frames; every call
// re-transforms the frame being filled and multiply-accumulates it against
// a frequency-domain delay line, so calls of any length see zero latency
// and the output does not depend on how the stream is split.
type Partitioned struct {
	block   int
	fftSize int
	plan    *algofft.Plan[complex128]

	parts [][]complex128
	fdl   [][]complex128
	head  int
	// fill counts the samples already written into the current frame.
	fill int

	window  []float64
	scratch []complex128
	acc     []complex128
}

// NewPartitioned prepares a convolver for kernel and the given block size.
// An empty kernel is clamped to a single silent sample.
func NewPartitioned(kernel []float64, blockSize int) (*Partitioned, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBlockSize, blockSize)
	}

	if len(kernel) == 0 {
		kernel = []float64{0}
	}

	fftSize := nextPow2(2 * blockSize)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("conv: create FFT plan (size=%d): %w", fftSize, err)
	}

	count := (len(kernel) + blockSize - 1) / blockSize
	p := &Partitioned{
		block:   blockSize,
		fftSize: fftSize,
		plan:    plan,
		parts:   make([][]complex128, count),
		fdl:     make([][]complex128, count),
		window:  make([]float64, fftSize),
		scratch: make([]complex128, fftSize),
		acc:     make([]complex128, fftSize),
	}

	for k := range p.parts {
		clear(p.scratch)

		chunk := kernel[k*blockSize : min((k+1)*blockSize, len(kernel))]
		for i, v := range chunk {
			p.scratch[i] = complex(v, 0)
		}

		p.parts[k] = make([]complex128, fftSize)
		if err := plan.Forward(p.parts[k], p.scratch); err != nil {
			return nil, fmt.Errorf("conv: transform partition %d: %w", k, err)
		}

		p.fdl[k] = make([]complex128, fftSize)
	}

	return p, nil
}

// BlockSize returns the partition size.
func (p *Partitioned) BlockSize() int { return p.block }

// Partitions returns the number of kernel partitions.
func (p *Partitioned) Partitions() int { return len(p.parts) }

// ProcessBlock convolves src into dst. src may have any length; the
// stream is continuous across calls. dst and src may alias.
func (p *Partitioned) ProcessBlock(dst, src []float64) error {
	if len(dst) < len(src) {
		return fmt.Errorf("%w: %d < %d", ErrDstTooShort, len(dst), len(src))
	}

	for len(src) > 0 {
		n := min(len(src), p.block-p.fill)
		if err := p.step(dst[:n], src[:n]); err != nil {
			return err
		}
		dst, src = dst[n:], src[n:]
	}

	return nil
}

// step writes n <= block-fill samples into the current frame and emits
// their output.
func (p *Partitioned) step(dst, src []float64) error {
	tail := p.fftSize - p.block

	if p.fill == 0 {
		// Start a new frame: slide the window and claim a delay line slot.
		copy(p.window, p.window[p.block:])
		clear(p.window[tail:])
		p.head = (p.head - 1 + len(p.fdl)) % len(p.fdl)
	}

	pos := tail + p.fill
	copy(p.window[pos:], src)

	for i, v := range p.window {
		p.scratch[i] = complex(v, 0)
	}

	if err := p.plan.Forward(p.fdl[p.head], p.scratch); err != nil {
		return fmt.Errorf("conv: forward transform: %w", err)
	}

	half := p.fftSize / 2
	clear(p.acc)

	for k, h := range p.parts {
		x := p.fdl[(p.head+k)%len(p.fdl)]
		for i := 0; i <= half; i++ {
			p.acc[i] += x[i] * h[i]
		}
	}

	for i := 1; i < half; i++ {
		p.acc[p.fftSize-i] = cmplx.Conj(p.acc[i])
	}

	if err := p.plan.Inverse(p.scratch, p.acc); err != nil {
		return fmt.Errorf("conv: inverse transform: %w", err)
	}

	for i := range dst {
		dst[i] = real(p.scratch[pos+i])
	}

	p.fill += len(src)
	if p.fill == p.block {
		p.fill = 0
	}

	return nil
}

// Reset clears the input history.
func (p *Partitioned) Reset() {
	clear(p.window)
	for _, spec := range p.fdl {
		clear(spec)
	}
	p.head = 0
	p.fill = 0
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

package pitch

import (
	"fmt"
	"math"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

const (
	// DefaultGateRMS is the block RMS below which a block counts as silence.
	DefaultGateRMS = 0.01
	// DefaultTrimLevel is the magnitude below which leading and trailing
	// samples are trimmed before autocorrelation.
	DefaultTrimLevel = 0.2
)

// Detector estimates the fundamental frequency of a block by
// autocorrelation. The unnormalized autocorrelation is computed through the
// power spectrum of the zero-padded block. A Detector reuses its buffers
// and is not safe for concurrent use.
type Detector struct {
	sampleRate float64
	blockSize  int
	gate       float64
	trim       float64

	plan *algofft.Plan[complex128]
	buf  []complex128
	spec []complex128
	acf  []float64
}

// NewDetector prepares a detector for blocks of up to blockSize samples.
func NewDetector(sampleRate float64, blockSize int) (*Detector, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("pitch: detector sample rate must be > 0: %f", sampleRate)
	}
	if blockSize < 2 {
		return nil, fmt.Errorf("pitch: detector block size must be >= 2: %d", blockSize)
	}

	size := 1
	for size < 2*blockSize {
		size <<= 1
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("pitch: create FFT plan (size=%d): %w", size, err)
	}

	return &Detector{
		sampleRate: sampleRate,
		blockSize:  blockSize,
		gate:       DefaultGateRMS,
		trim:       DefaultTrimLevel,
		plan:       plan,
		buf:        make([]complex128, size),
		spec:       make([]complex128, size),
		acf:        make([]float64, blockSize),
	}, nil
}

// Detect returns the fundamental frequency of block in Hz. ok is false for
// silent blocks (RMS below the gate) and for blocks without a usable period.
func (d *Detector) Detect(block []float64) (freq float64, ok bool) {
	if len(block) == 0 {
		return 0, false
	}
	if len(block) > d.blockSize {
		block = block[:d.blockSize]
	}

	rms := math.Sqrt(vecmath.DotProduct(block, block) / float64(len(block)))
	if rms < d.gate {
		return 0, false
	}

	block = d.trimmed(block)
	m := len(block)
	if m < 2 {
		return 0, false
	}

	acf, err := d.autocorrelate(block)
	if err != nil {
		return 0, false
	}

	// Walk down from the zero-lag peak to the first local minimum.
	start := 0
	for start+1 < m && acf[start] > acf[start+1] {
		start++
	}

	best, lag := math.Inf(-1), -1
	for i := start; i < m; i++ {
		if acf[i] > best {
			best, lag = acf[i], i
		}
	}

	if lag <= 0 {
		return 0, false
	}

	return d.sampleRate / float64(lag), true
}

// trimmed drops leading and trailing samples quieter than the trim level.
// A block that never reaches the level is kept whole.
func (d *Detector) trimmed(block []float64) []float64 {
	first, last := -1, -1
	for i, v := range block {
		if math.Abs(v) >= d.trim {
			if first < 0 {
				first = i
			}
			last = i
		}
	}

	if first < 0 {
		return block
	}

	return block[first : last+1]
}

func (d *Detector) autocorrelate(block []float64) ([]float64, error) {
	clear(d.buf)
	for i, v := range block {
		d.buf[i] = complex(v, 0)
	}

	if err := d.plan.Forward(d.spec, d.buf); err != nil {
		return nil, err
	}

	for i, c := range d.spec {
		re, im := real(c), imag(c)
		d.spec[i] = complex(re*re+im*im, 0)
	}

	if err := d.plan.Inverse(d.buf, d.spec); err != nil {
		return nil, err
	}

	acf := d.acf[:len(block)]
	for i := range acf {
		acf[i] = real(d.buf[i])
	}

	return acf, nil
}

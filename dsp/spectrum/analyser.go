package spectrum

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-daw/dsp/window"
)

// DefaultSize is the default analysis window length.
const DefaultSize = 2048

// Analyser is an analysis tap. Write is called from the audio goroutine and
// never blocks. TimeDomain, Magnitudes and Peak may be called from any other
// goroutine. Samples are stored as atomic words, so a snapshot may straddle
// two writes but never holds a torn sample.
type Analyser struct {
	ring  []atomic.Uint64
	write atomic.Uint64
	peak  atomic.Uint64

	mu     sync.Mutex
	plan   *algofft.Plan[complex128]
	window []float64
	frame  []float64
	spec   []complex128
	re, im []float64
}

// AnalyserOption configures an Analyser.
type AnalyserOption func(*analyserConfig)

type analyserConfig struct {
	window window.Type
}

// WithWindow selects the analysis window applied before the transform.
// The default is Hann.
func WithWindow(t window.Type) AnalyserOption {
	return func(c *analyserConfig) {
		c.window = t
	}
}

// NewAnalyser creates a tap with a power-of-two window size.
func NewAnalyser(size int, opts ...AnalyserOption) (*Analyser, error) {
	if size < 2 || size&(size-1) != 0 {
		return nil, fmt.Errorf("spectrum: analyser size must be a power of two >= 2: %d", size)
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("spectrum: create FFT plan (size=%d): %w", size, err)
	}

	cfg := analyserConfig{window: window.TypeHann}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return &Analyser{
		ring:   make([]atomic.Uint64, size),
		plan:   plan,
		window: window.Generate(cfg.window, size, window.WithPeriodic()),
		frame:  make([]float64, size),
		spec:   make([]complex128, size),
		re:     make([]float64, size/2+1),
		im:     make([]float64, size/2+1),
	}, nil
}

// Size returns the window length.
func (a *Analyser) Size() int { return len(a.ring) }

// Write appends the channel average of block to the ring and updates the
// peak meter. All channels must share one length.
func (a *Analyser) Write(block [][]float64) {
	if len(block) == 0 {
		return
	}

	peak := 0.0
	for _, ch := range block {
		peak = math.Max(peak, vecmath.MaxAbs(ch))
	}
	a.peak.Store(math.Float64bits(peak))

	scale := 1 / float64(len(block))
	w := a.write.Load()
	n := uint64(len(a.ring))

	for i := range block[0] {
		var sum float64
		for _, ch := range block {
			sum += ch[i]
		}
		a.ring[(w+uint64(i))%n].Store(math.Float64bits(sum * scale))
	}

	a.write.Store(w + uint64(len(block[0])))
}

// Peak returns the absolute peak of the most recent block.
func (a *Analyser) Peak() float64 {
	return math.Float64frombits(a.peak.Load())
}

// TimeDomain copies the newest len(dst) samples, oldest first, and returns
// the count copied (at most Size).
func (a *Analyser) TimeDomain(dst []float64) int {
	n := min(len(dst), len(a.ring))
	end := a.write.Load()
	size := uint64(len(a.ring))

	for i := range n {
		idx := (end - uint64(n) + uint64(i)) % size
		dst[i] = math.Float64frombits(a.ring[idx].Load())
	}

	return n
}

// Magnitudes writes the windowed magnitude spectrum of the newest
// window into dst, bins 0..Size/2, and returns the count written.
func (a *Analyser) Magnitudes(dst []float64) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.TimeDomain(a.frame)
	for i, v := range a.frame {
		a.spec[i] = complex(v*a.window[i], 0)
	}

	if err := a.plan.Forward(a.spec, a.spec); err != nil {
		return 0, fmt.Errorf("spectrum: forward transform: %w", err)
	}

	for i := range a.re {
		a.re[i] = real(a.spec[i])
		a.im[i] = imag(a.spec[i])
	}

	n := min(len(dst), len(a.re))
	vecmath.Magnitude(dst[:n], a.re[:n], a.im[:n])

	return n, nil
}

package spatial

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-daw/dsp/core"
	"github.com/cwbudde/algo-daw/dsp/filter/biquad"
	"github.com/cwbudde/algo-daw/dsp/filter/design"
)

const (
	// MaxWidth is the widest supported image.
	MaxWidth = 4.0

	minBassMonoHz = 20.0
	maxBassMonoHz = 500.0
)

// WidenerParams configures a StereoWidener.
type WidenerParams struct {
	// Width scales the side signal: 0 = mono, 1 = unchanged, up to MaxWidth.
	Width float64
	// BassMonoHz removes side content below this frequency so the low end
	// stays centred. 0 disables it; otherwise [20, 500] Hz.
	BassMonoHz float64
}

// DefaultWidenerParams leaves the image unchanged.
func DefaultWidenerParams() WidenerParams {
	return WidenerParams{Width: 1}
}

// StereoWidener adjusts the stereo image with mid/side processing:
//
//	L = mid + width*side, R = mid - width*side
//
// With a bass-mono crossover the side signal is high-passed first. Mono
// input passes through unchanged at any width.
type StereoWidener struct {
	sampleRate float64
	params     WidenerParams
	sideHP     *biquad.Cascade
}

// NewStereoWidener creates a widener with DefaultWidenerParams.
func NewStereoWidener(sampleRate float64) (*StereoWidener, error) {
	if sampleRate <= 0 || !core.Finite(sampleRate) {
		return nil, fmt.Errorf("spatial: widener sample rate must be positive and finite: %f", sampleRate)
	}

	w := &StereoWidener{sampleRate: sampleRate}
	w.Configure(DefaultWidenerParams())

	return w, nil
}

// Configure applies a parameter set. The crossover keeps its state when
// only the frequency changes.
func (w *StereoWidener) Configure(p WidenerParams) {
	if !core.Finite(p.Width) {
		p.Width = 1
	}
	p.Width = core.Clamp(p.Width, 0, MaxWidth)

	switch {
	case !core.Finite(p.BassMonoHz) || p.BassMonoHz <= 0:
		p.BassMonoHz = 0
	default:
		p.BassMonoHz = core.Clamp(p.BassMonoHz, minBassMonoHz, math.Min(maxBassMonoHz, 0.45*w.sampleRate))
	}
	w.params = p

	if p.BassMonoHz == 0 {
		w.sideHP = nil
		return
	}

	hp := design.Highpass(p.BassMonoHz, 1/math.Sqrt2, w.sampleRate)
	if w.sideHP == nil {
		w.sideHP = biquad.NewCascade(1, hp)
		return
	}
	w.sideHP.SetCoefficients([]biquad.Coefficients{hp})
}

// Params returns the applied parameters.
func (w *StereoWidener) Params() WidenerParams { return w.params }

// Process widens the first two channels in place. Blocks with fewer than
// two channels are left untouched.
func (w *StereoWidener) Process(channels [][]float64) {
	if len(channels) < 2 {
		return
	}

	left, right := channels[0], channels[1]
	width := w.params.Width
	for i := range left {
		mid := 0.5 * (left[i] + right[i])
		side := 0.5 * (left[i] - right[i])
		if w.sideHP != nil {
			side = w.sideHP.ProcessSample(0, side)
		}
		left[i] = mid + width*side
		right[i] = mid - width*side
	}
}

// Reset clears the crossover state.
func (w *StereoWidener) Reset() {
	if w.sideHP != nil {
		w.sideHP.Reset()
	}
}

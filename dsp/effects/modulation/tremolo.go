package modulation

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-daw/dsp/core"
)

// TremoloParams configures a Tremolo.
type TremoloParams struct {
	RateHz float64 // [0.05, 20]
	Depth  float64 // [0, 1], 1 reaches silence at the LFO trough
}

// DefaultTremoloParams returns a moderate 5 Hz tremolo.
func DefaultTremoloParams() TremoloParams {
	return TremoloParams{RateHz: 5, Depth: 0.5}
}

// Tremolo multiplies every channel by 1 - depth*0.5*(1 - cos(phase)), so
// the gain starts at unity and dips once per LFO cycle.
type Tremolo struct {
	sampleRate float64
	params     TremoloParams
	phase      float64
}

// NewTremolo creates a tremolo with DefaultTremoloParams.
func NewTremolo(sampleRate float64) (*Tremolo, error) {
	if sampleRate <= 0 || !core.Finite(sampleRate) {
		return nil, fmt.Errorf("modulation: tremolo sample rate must be positive and finite: %f", sampleRate)
	}

	t := &Tremolo{sampleRate: sampleRate}
	t.Configure(DefaultTremoloParams())

	return t, nil
}

// Configure applies a parameter set. The LFO phase is kept.
func (t *Tremolo) Configure(p TremoloParams) {
	d := DefaultTremoloParams()
	p.RateHz = clampFinite(p.RateHz, 0.05, 20, d.RateHz)
	p.Depth = clampFinite(p.Depth, 0, 1, d.Depth)
	t.params = p
}

// Params returns the applied parameters.
func (t *Tremolo) Params() TremoloParams { return t.params }

// Gain returns the gain the next sample will receive.
func (t *Tremolo) Gain() float64 {
	return 1 - t.params.Depth*0.5*(1-math.Cos(t.phase))
}

// Process modulates all channels in place.
func (t *Tremolo) Process(channels [][]float64) {
	if len(channels) == 0 {
		return
	}

	step := 2 * math.Pi * t.params.RateHz / t.sampleRate
	for i := range channels[0] {
		g := t.Gain()
		for _, ch := range channels {
			ch[i] *= g
		}

		t.phase += step
		if t.phase >= 2*math.Pi {
			t.phase -= 2 * math.Pi
		}
	}
}

// Reset returns the LFO to its start.
func (t *Tremolo) Reset() { t.phase = 0 }

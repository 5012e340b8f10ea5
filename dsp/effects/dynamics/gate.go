package dynamics

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-daw/dsp/core"
)

// GateParams configures a Gate.
type GateParams struct {
	ThresholdDB float64 // level below which the gate closes
	RangeDB     float64 // attenuation when fully closed, <= 0
	Attack      float64 // opening time, seconds
	Hold        float64 // seconds the gate stays open after the signal drops
	Release     float64 // closing time, seconds
}

// DefaultGateParams returns a gentle vocal noise gate.
func DefaultGateParams() GateParams {
	return GateParams{
		ThresholdDB: -50,
		RangeDB:     -60,
		Attack:      0.001,
		Hold:        0.05,
		Release:     0.15,
	}
}

// Gate is a stereo-linked downward noise gate with hold.
type Gate struct {
	sampleRate float64
	params     GateParams

	threshold    float64
	floor        float64
	holdSamples  int
	attackCoeff  float64
	releaseCoeff float64

	gain float64
	held int
}

// NewGate creates a gate with DefaultGateParams.
func NewGate(sampleRate float64) (*Gate, error) {
	if sampleRate <= 0 || !core.Finite(sampleRate) {
		return nil, fmt.Errorf("dynamics: gate sample rate must be positive and finite: %f", sampleRate)
	}

	g := &Gate{sampleRate: sampleRate, gain: 1}
	g.Configure(DefaultGateParams())

	return g, nil
}

// Configure applies a full parameter set.
func (g *Gate) Configure(p GateParams) {
	p.ThresholdDB = clampFinite(p.ThresholdDB, -120, 0, -50)
	p.RangeDB = clampFinite(p.RangeDB, -120, 0, -60)
	p.Attack = clampFinite(p.Attack, minTimeSec, maxTimeSec, 0.001)
	p.Hold = clampFinite(p.Hold, 0, maxTimeSec, 0)
	p.Release = clampFinite(p.Release, minTimeSec, maxTimeSec, 0.15)
	g.params = p

	g.threshold = core.DBToLinear(p.ThresholdDB)
	g.floor = core.DBToLinear(p.RangeDB)
	g.holdSamples = int(p.Hold * g.sampleRate)
	g.attackCoeff = 1 - math.Exp(-1/(p.Attack*g.sampleRate))
	g.releaseCoeff = 1 - math.Exp(-1/(p.Release*g.sampleRate))
}

// Params returns the applied parameters.
func (g *Gate) Params() GateParams { return g.params }

// Gain returns the current gate gain.
func (g *Gate) Gain() float64 { return g.gain }

// Process gates all channels in place.
func (g *Gate) Process(channels [][]float64) {
	if len(channels) == 0 {
		return
	}

	for i := range channels[0] {
		level := 0.0
		for _, ch := range channels {
			level = math.Max(level, math.Abs(ch[i]))
		}

		target := g.floor
		switch {
		case level >= g.threshold:
			target = 1
			g.held = g.holdSamples
		case g.held > 0:
			target = 1
			g.held--
		}

		if target > g.gain {
			g.gain += (target - g.gain) * g.attackCoeff
		} else {
			g.gain += (target - g.gain) * g.releaseCoeff
		}

		for _, ch := range channels {
			ch[i] *= g.gain
		}
	}
}

// Reset opens the gate and clears the hold counter.
func (g *Gate) Reset() {
	g.gain = 1
	g.held = 0
}

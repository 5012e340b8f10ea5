package dynamics

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-daw/dsp/core"
)

const (
	// log2Of10Div20 converts dB to the log2 domain: log2(10) / 20.
	log2Of10Div20 = 0.166096404744

	minRatio   = 1.0
	maxRatio   = 20.0
	maxKneeDB  = 40.0
	minTimeSec = 0.0001
	maxTimeSec = 5.0
)

// CompressorParams is a complete compressor parameter set. Values outside
// the supported ranges are clamped when applied.
type CompressorParams struct {
	ThresholdDB float64 // [-100, 0]
	Ratio       float64 // [1, 20]
	KneeDB      float64 // [0, 40]
	Attack      float64 // seconds, [0.0001, 5]
	Release     float64 // seconds, [0.0001, 5]
}

// DefaultCompressorParams mirrors the usual browser compressor defaults.
func DefaultCompressorParams() CompressorParams {
	return CompressorParams{
		ThresholdDB: -24,
		Ratio:       12,
		KneeDB:      30,
		Attack:      0.003,
		Release:     0.25,
	}
}

// Compressor is a stereo-linked soft-knee compressor. The envelope follows
// the loudest channel so the stereo image does not shift under gain
// reduction.
type Compressor struct {
	sampleRate float64
	params     CompressorParams

	peak          float64
	attackCoeff   float64
	releaseCoeff  float64
	thresholdLog2 float64
	kneeLog2      float64
	slope         float64

	reduction float64
}

// NewCompressor creates a compressor with DefaultCompressorParams.
func NewCompressor(sampleRate float64) (*Compressor, error) {
	if sampleRate <= 0 || !core.Finite(sampleRate) {
		return nil, fmt.Errorf("dynamics: compressor sample rate must be positive and finite: %f", sampleRate)
	}

	c := &Compressor{sampleRate: sampleRate, reduction: 1}
	c.Configure(DefaultCompressorParams())

	return c, nil
}

// Configure applies a full parameter set. The envelope state is kept so
// live edits do not pump.
func (c *Compressor) Configure(p CompressorParams) {
	p.ThresholdDB = clampFinite(p.ThresholdDB, -100, 0, -24)
	p.Ratio = clampFinite(p.Ratio, minRatio, maxRatio, minRatio)
	p.KneeDB = clampFinite(p.KneeDB, 0, maxKneeDB, 0)
	p.Attack = clampFinite(p.Attack, minTimeSec, maxTimeSec, 0.003)
	p.Release = clampFinite(p.Release, minTimeSec, maxTimeSec, 0.25)
	c.params = p

	c.thresholdLog2 = p.ThresholdDB * log2Of10Div20
	c.kneeLog2 = p.KneeDB * log2Of10Div20
	c.slope = 1 - 1/p.Ratio
	c.attackCoeff = 1 - math.Exp(-math.Ln2/(p.Attack*c.sampleRate))
	c.releaseCoeff = math.Exp(-math.Ln2 / (p.Release * c.sampleRate))
}

// Params returns the applied (clamped) parameters.
func (c *Compressor) Params() CompressorParams { return c.params }

// GainReduction returns the most recent linear gain applied (1 = none).
func (c *Compressor) GainReduction() float64 { return c.reduction }

// Process compresses all channels in place with a linked envelope.
// All channels must have the same length.
func (c *Compressor) Process(channels [][]float64) {
	if len(channels) == 0 {
		return
	}

	for i := range channels[0] {
		level := 0.0
		for _, ch := range channels {
			level = math.Max(level, math.Abs(ch[i]))
		}

		if level > c.peak {
			c.peak += (level - c.peak) * c.attackCoeff
		} else {
			c.peak = level + (c.peak-level)*c.releaseCoeff
		}
		c.peak = core.FlushDenormals(c.peak)

		g := c.gain(c.peak)
		for _, ch := range channels {
			ch[i] *= g
		}
		c.reduction = g
	}
}

// StaticGain returns the steady-state gain for a constant input magnitude,
// which is what a transfer-curve display draws.
func (c *Compressor) StaticGain(magnitude float64) float64 {
	return c.gain(math.Abs(magnitude))
}

// Reset clears the envelope.
func (c *Compressor) Reset() {
	c.peak = 0
	c.reduction = 1
}

func (c *Compressor) gain(peak float64) float64 {
	if peak <= 0 {
		return 1
	}

	over := math.Log2(peak) - c.thresholdLog2
	half := c.kneeLog2 / 2

	var eff float64
	switch {
	case c.kneeLog2 <= 0:
		if over <= 0 {
			return 1
		}
		eff = over
	case over < -half:
		return 1
	case over > half:
		eff = over
	default:
		s := over + half
		eff = s * s / (2 * c.kneeLog2)
	}

	return math.Exp2(-eff * c.slope)
}

func clampFinite(v, lo, hi, def float64) float64 {
	if !core.Finite(v) {
		return def
	}
	return core.Clamp(v, lo, hi)
}

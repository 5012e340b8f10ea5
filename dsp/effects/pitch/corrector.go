package pitch

import (
	"fmt"
	"math"
)

// Params configures a Corrector.
type Params struct {
	// Scale names the target scale; unknown names fall back to chromatic.
	Scale string
	// Speed is the correction speed. The glide coefficient is
	// max(MinSmoothing, Speed*0.1).
	Speed float64
	// Harmony is reserved for multi-voice output and has no effect.
	Harmony bool
}

// DefaultParams corrects to chromatic with a moderate glide.
func DefaultParams() Params {
	return Params{Scale: ChromaticName, Speed: 0.5}
}

// Corrector is the mono pitch correction processor. Input accumulates into
// analysis blocks; each full block updates the correction target. The
// applied ratio glides toward the target every sample.
type Corrector struct {
	detector *Detector
	shifter  *GrainShifter
	tuner    *TunerState

	scale     Scale
	params    Params
	smoothing float64

	block []float64
	fill  int

	target  float64
	applied float64
}

// CorrectorOption configures a Corrector.
type CorrectorOption func(*correctorConfig)

type correctorConfig struct {
	blockSize int
	grainSize int
	tuner     *TunerState
}

// WithBlockSize sets the analysis block length.
func WithBlockSize(n int) CorrectorOption {
	return func(cfg *correctorConfig) {
		if n >= 2 {
			cfg.blockSize = n
		}
	}
}

// WithGrainSize sets the resynthesis grain length.
func WithGrainSize(n int) CorrectorOption {
	return func(cfg *correctorConfig) {
		if n >= 2 {
			cfg.grainSize = n
		}
	}
}

// WithTuner publishes detections to an existing TunerState.
func WithTuner(s *TunerState) CorrectorOption {
	return func(cfg *correctorConfig) {
		cfg.tuner = s
	}
}

// NewCorrector creates a corrector with DefaultParams.
func NewCorrector(sampleRate float64, opts ...CorrectorOption) (*Corrector, error) {
	cfg := correctorConfig{blockSize: DefaultBlockSize, grainSize: DefaultGrainSize}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	det, err := NewDetector(sampleRate, cfg.blockSize)
	if err != nil {
		return nil, fmt.Errorf("pitch: corrector: %w", err)
	}

	if cfg.tuner == nil {
		cfg.tuner = NewTunerState()
	}

	c := &Corrector{
		detector: det,
		shifter:  NewGrainShifter(cfg.grainSize, cfg.blockSize),
		tuner:    cfg.tuner,
		block:    make([]float64, cfg.blockSize),
		target:   1,
		applied:  1,
	}
	c.SetParams(DefaultParams())

	return c, nil
}

// SetParams applies a parameter set. It does not allocate.
func (c *Corrector) SetParams(p Params) {
	s, ok := LookupScale(p.Scale)
	if !ok {
		s = Chromatic()
	}

	c.scale = s
	c.params = p
	c.smoothing = Smoothing(p.Speed)
}

// Params returns the active parameters.
func (c *Corrector) Params() Params { return c.params }

// Tuner returns the state this corrector publishes to.
func (c *Corrector) Tuner() *TunerState { return c.tuner }

// TargetRatio returns the ratio the glide is heading for.
func (c *Corrector) TargetRatio() float64 { return c.target }

// AppliedRatio returns the ratio used for the most recent sample.
func (c *Corrector) AppliedRatio() float64 { return c.applied }

// ProcessInPlace corrects buf.
func (c *Corrector) ProcessInPlace(buf []float64) {
	for i, x := range buf {
		c.block[c.fill] = x
		c.fill++
		if c.fill == len(c.block) {
			c.analyze()
			c.fill = 0
		}

		c.applied += (c.target - c.applied) * c.smoothing
		buf[i] = c.shifter.ProcessSample(x, c.applied)
	}
}

// Reset clears history and returns to unity ratio.
func (c *Corrector) Reset() {
	c.shifter.Reset()
	c.fill = 0
	c.target, c.applied = 1, 1
	c.tuner.publishSilence()
}

func (c *Corrector) analyze() {
	freq, ok := c.detector.Detect(c.block)
	if !ok {
		c.target = 1
		c.tuner.publishSilence()
		return
	}

	raw := int(math.Round(FrequencyToMidi(freq)))
	corrected := c.scale.Correct(raw)
	targetHz := MidiToFrequency(float64(corrected))

	c.target = TargetRatio(targetHz, freq)
	c.tuner.publish(freq, targetHz, raw, corrected)
}

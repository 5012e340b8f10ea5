package modulation

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-daw/dsp/core"
	"github.com/cwbudde/algo-daw/dsp/interp"
)

const (
	minDelaySeconds = 0.001
	maxDelaySeconds = 0.05
	maxVoices       = 8
)

// ChorusParams is a complete chorus parameter set. Values outside the
// supported ranges are clamped when applied.
type ChorusParams struct {
	RateHz    float64 // LFO rate, [0.01, 10]
	Depth     float64 // modulation depth, seconds
	BaseDelay float64 // shortest delay, seconds
	Mix       float64 // wet amount, [0, 1]
	Voices    int     // [1, 8]
}

// DefaultChorusParams returns a subtle three-voice chorus.
func DefaultChorusParams() ChorusParams {
	return ChorusParams{
		RateHz:    0.35,
		Depth:     0.003,
		BaseDelay: 0.018,
		Mix:       0.18,
		Voices:    3,
	}
}

// Chorus is a multi-voice modulated-delay chorus. Each voice reads the
// line at
//
//	d(t) = base + depth * 0.5 * (1 + sin(phase + 2*pi*v/voices))
//
// and the voices are averaged. Channels share the LFO but keep their own
// delay line.
type Chorus struct {
	sampleRate float64
	params     ChorusParams

	lines [][]float64
	write int
	phase float64
}

// NewChorus creates a chorus with DefaultChorusParams.
func NewChorus(sampleRate float64) (*Chorus, error) {
	if sampleRate <= 0 || !core.Finite(sampleRate) {
		return nil, fmt.Errorf("modulation: chorus sample rate must be positive and finite: %f", sampleRate)
	}

	c := &Chorus{sampleRate: sampleRate}
	c.Configure(DefaultChorusParams())

	return c, nil
}

// Configure applies a full parameter set. Delay history is kept.
func (c *Chorus) Configure(p ChorusParams) {
	d := DefaultChorusParams()
	p.RateHz = clampFinite(p.RateHz, 0.01, 10, d.RateHz)
	p.BaseDelay = clampFinite(p.BaseDelay, minDelaySeconds, maxDelaySeconds, d.BaseDelay)
	p.Depth = clampFinite(p.Depth, 0, maxDelaySeconds-p.BaseDelay, d.Depth)
	p.Mix = clampFinite(p.Mix, 0, 1, d.Mix)
	p.Voices = max(1, min(p.Voices, maxVoices))
	c.params = p
}

// Params returns the applied (clamped) parameters.
func (c *Chorus) Params() ChorusParams { return c.params }

// Process applies the chorus to every channel in place. All channels must
// have the same length.
func (c *Chorus) Process(channels [][]float64) {
	if len(channels) == 0 {
		return
	}
	c.ensureLines(len(channels))

	p := c.params
	size := len(c.lines[0])
	base := p.BaseDelay * c.sampleRate
	depth := p.Depth * c.sampleRate
	step := 2 * math.Pi * p.RateHz / c.sampleRate
	voices := float64(p.Voices)

	for i := range channels[0] {
		for ch, buf := range channels {
			line := c.lines[ch]
			x := buf[i]
			line[c.write] = x

			wet := 0.0
			for v := range p.Voices {
				mod := 0.5 * (1 + math.Sin(c.phase+2*math.Pi*float64(v)/voices))
				wet += tap(line, c.write, base+depth*mod)
			}

			buf[i] = x*(1-p.Mix) + wet/voices*p.Mix
		}

		c.write++
		if c.write == size {
			c.write = 0
		}
		c.phase += step
		if c.phase >= 2*math.Pi {
			c.phase -= 2 * math.Pi
		}
	}
}

// Reset clears the delay lines and LFO phase.
func (c *Chorus) Reset() {
	for _, l := range c.lines {
		clear(l)
	}
	c.write = 0
	c.phase = 0
}

func (c *Chorus) ensureLines(n int) {
	if len(c.lines) >= n {
		return
	}
	size := int(math.Ceil(maxDelaySeconds*c.sampleRate)) + 4
	for len(c.lines) < n {
		c.lines = append(c.lines, make([]float64, size))
	}
}

// tap reads line delay samples behind the newest write with Hermite
// interpolation.
func tap(line []float64, write int, delay float64) float64 {
	n := len(line)
	p := int(delay)
	t := delay - float64(p)

	at := func(d int) float64 {
		return line[((write-d)%n+n)%n]
	}

	return interp.Hermite4(t, at(max(0, p-1)), at(p), at(p+1), at(p+2))
}

func clampFinite(v, lo, hi, def float64) float64 {
	if !core.Finite(v) {
		return def
	}
	return core.Clamp(v, lo, hi)
}

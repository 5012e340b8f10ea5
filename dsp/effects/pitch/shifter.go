package pitch

import "math"

const (
	// DefaultGrainSize is the grain length in samples.
	DefaultGrainSize = 1024
	// DefaultBlockSize is the analysis block length in samples.
	DefaultBlockSize = 2048
)

// GrainShifter is a dual-grain time-domain pitch shifter. Two read taps
// trail the write head by a phase that advances by (1-ratio) per sample and
// wraps at the grain length; the second tap is offset by half a grain.
// Each tap is weighted by a triangular window that peaks mid-grain, so the
// two weights always sum to one.
type GrainShifter struct {
	history []float64
	write   int
	phase   float64
	grain   float64
}

// NewGrainShifter allocates a shifter. The history holds at least two
// analysis blocks and never less than two grains.
func NewGrainShifter(grain, block int) *GrainShifter {
	if grain < 2 {
		grain = DefaultGrainSize
	}
	size := max(2*block, 2*grain)

	return &GrainShifter{
		history: make([]float64, size),
		grain:   float64(grain),
	}
}

// ProcessSample writes x into the history, advances the phase for ratio and
// returns the resynthesized sample.
func (g *GrainShifter) ProcessSample(x, ratio float64) float64 {
	g.history[g.write] = x

	g.phase = wrap(g.phase+1-ratio, g.grain)
	d1 := g.phase
	d2 := wrap(g.phase+g.grain/2, g.grain)

	y := g.window(d1)*g.tap(d1) + g.window(d2)*g.tap(d2)

	g.write++
	if g.write == len(g.history) {
		g.write = 0
	}

	return y
}

// Reset clears the history and phase.
func (g *GrainShifter) Reset() {
	clear(g.history)
	g.write = 0
	g.phase = 0
}

// tap reads the history delay samples behind the write head with linear
// interpolation. The newest sample read is the one just written.
func (g *GrainShifter) tap(delay float64) float64 {
	n := len(g.history)
	pos := float64(g.write) - delay
	if pos < 0 {
		pos += float64(n)
	}

	i := int(pos)
	frac := pos - float64(i)
	a := g.history[i%n]
	if frac == 0 {
		return a
	}

	// pos < write here, so i+1 is at most the write head.
	b := g.history[(i+1)%n]
	return a + (b-a)*frac
}

func (g *GrainShifter) window(d float64) float64 {
	half := g.grain / 2
	return 1 - math.Abs(d-half)/half
}

func wrap(v, m float64) float64 {
	v = math.Mod(v, m)
	if v < 0 {
		v += m
	}
	return v
}

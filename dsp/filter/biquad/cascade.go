package biquad

// Cascade runs one series of sections over every channel of a planar
// block. Each channel keeps its own delay lines; all channels share the
// coefficient set.
type Cascade struct {
	coeffs []Coefficients
	lines  [][]Section // [channel][stage]
}

// NewCascade creates a cascade for channels channels (at least one).
func NewCascade(channels int, coeffs ...Coefficients) *Cascade {
	c := &Cascade{lines: make([][]Section, max(1, channels))}
	c.rebuild(coeffs)
	return c
}

// Channels returns the number of channels with their own delay lines.
func (c *Cascade) Channels() int { return len(c.lines) }

// Stages returns the number of sections in series.
func (c *Cascade) Stages() int { return len(c.coeffs) }

// Coefficients returns a copy of the active coefficient set.
func (c *Cascade) Coefficients() []Coefficients {
	return append([]Coefficients(nil), c.coeffs...)
}

// SetCoefficients adopts a new coefficient set. With an unchanged stage
// count every delay line is kept, so edits do not click, and nothing is
// allocated. Otherwise the lines are rebuilt from silence. It reports
// whether the state was kept.
func (c *Cascade) SetCoefficients(coeffs []Coefficients) bool {
	if len(coeffs) != len(c.coeffs) {
		c.rebuild(coeffs)
		return false
	}

	copy(c.coeffs, coeffs)
	for _, line := range c.lines {
		for i := range line {
			line[i].Coefficients = coeffs[i]
		}
	}
	return true
}

// Process filters block in place. Channels beyond Channels() pass through.
func (c *Cascade) Process(block [][]float64) {
	for ch := range min(len(block), len(c.lines)) {
		c.ProcessChannel(ch, block[ch])
	}
}

// ProcessChannel filters one channel's buffer in place.
func (c *Cascade) ProcessChannel(ch int, buf []float64) {
	line := c.lines[ch]
	for i := range line {
		line[i].ProcessBlock(buf)
	}
}

// ProcessSample filters one sample of channel ch.
func (c *Cascade) ProcessSample(ch int, x float64) float64 {
	line := c.lines[ch]
	for i := range line {
		x = line[i].ProcessSample(x)
	}
	return x
}

// Reset clears every delay line.
func (c *Cascade) Reset() {
	for _, line := range c.lines {
		for i := range line {
			line[i].Reset()
		}
	}
}

func (c *Cascade) rebuild(coeffs []Coefficients) {
	c.coeffs = append(c.coeffs[:0:0], coeffs...)
	for ch := range c.lines {
		line := make([]Section, len(coeffs))
		for i, k := range coeffs {
			line[i].Coefficients = k
		}
		c.lines[ch] = line
	}
}

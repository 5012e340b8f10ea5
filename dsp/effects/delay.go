package effects

import (
	"fmt"
	"math"
)

const (
	// MaxDelaySeconds bounds the delay line allocation.
	MaxDelaySeconds = 5.0

	maxFeedback = 0.99
)

// FeedbackDelay is a delay line whose output is routed back into its own
// input through a feedback gain. The line and the feedback gain form one
// owned pair; the loop is an index into the line, never a reference cycle.
//
// Process returns only the delayed (wet) signal.
type FeedbackDelay struct {
	sampleRate float64
	buffer     []float64
	write      int

	delaySamples float64
	feedback     float64
}

// NewFeedbackDelay allocates a delay line able to hold MaxDelaySeconds.
func NewFeedbackDelay(sampleRate float64) (*FeedbackDelay, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("effects: delay sample rate must be > 0: %f", sampleRate)
	}

	return &FeedbackDelay{
		sampleRate:   sampleRate,
		buffer:       make([]float64, int(math.Ceil(MaxDelaySeconds*sampleRate))+2),
		delaySamples: 1,
	}, nil
}

// SetTime sets the delay time in seconds, clamped to the line capacity.
// Fractional sample delays are read with linear interpolation.
func (d *FeedbackDelay) SetTime(seconds float64) {
	if math.IsNaN(seconds) {
		seconds = 0
	}
	n := seconds * d.sampleRate
	d.delaySamples = math.Max(1, math.Min(n, float64(len(d.buffer)-2)))
}

// SetFeedback sets the loop gain, clamped to [0, 0.99] so the loop decays.
func (d *FeedbackDelay) SetFeedback(g float64) {
	if math.IsNaN(g) {
		g = 0
	}
	d.feedback = math.Max(0, math.Min(g, maxFeedback))
}

// Time returns the delay time in seconds.
func (d *FeedbackDelay) Time() float64 { return d.delaySamples / d.sampleRate }

// Feedback returns the loop gain.
func (d *FeedbackDelay) Feedback() float64 { return d.feedback }

// ProcessSample pushes x into the loop and returns the delayed output.
func (d *FeedbackDelay) ProcessSample(x float64) float64 {
	y := d.read()

	d.buffer[d.write] = x + y*d.feedback
	d.write++
	if d.write == len(d.buffer) {
		d.write = 0
	}

	return y
}

// ProcessInPlace replaces buf with the delayed signal.
func (d *FeedbackDelay) ProcessInPlace(buf []float64) {
	for i, x := range buf {
		buf[i] = d.ProcessSample(x)
	}
}

// Reset clears the line.
func (d *FeedbackDelay) Reset() {
	clear(d.buffer)
	d.write = 0
}

func (d *FeedbackDelay) read() float64 {
	n := len(d.buffer)
	pos := float64(d.write) - d.delaySamples
	for pos < 0 {
		pos += float64(n)
	}

	i := int(pos)
	frac := pos - float64(i)
	a := d.buffer[i%n]
	b := d.buffer[(i+1)%n]

	return a + (b-a)*frac
}

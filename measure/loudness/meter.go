package loudness

import (
	"math"

	"github.com/cwbudde/algo-daw/dsp/filter/biquad"
	"github.com/cwbudde/algo-daw/dsp/filter/design"
)

const (
	// K-weighting stages from BS.1770.
	kShelfFreq = 1500.0
	kShelfGain = 4.0
	kHighpass  = 38.0

	momentarySeconds = 0.4
	shortTermSeconds = 3.0

	absoluteGate = -70.0
	relativeGate = -10.0
	gateOverlap  = 0.75

	// Floor reports digital silence.
	Floor = -120.0
)

// Meter measures EBU R128 loudness of planar blocks. Momentary and
// short-term values are sliding windows; Integrated gates 400 ms blocks
// with 75 % overlap.
type Meter struct {
	sampleRate float64

	// kWeight is the shelf then high-pass pre-filter of every channel.
	kWeight *biquad.Cascade

	mom   window
	short window

	step      int
	sinceStep int
	blocks    []float64
}

// window is a per-channel running sum of squared K-weighted samples.
type window struct {
	history [][]float64
	sums    []float64
	pos     int
}

func newWindow(channels, length int) window {
	w := window{history: make([][]float64, channels), sums: make([]float64, channels)}
	for i := range w.history {
		w.history[i] = make([]float64, length)
	}
	return w
}

func (w *window) push(ch int, sq float64) {
	old := w.history[ch][w.pos]
	w.history[ch][w.pos] = sq
	w.sums[ch] = math.Max(0, w.sums[ch]+sq-old)
}

func (w *window) advance() {
	w.pos++
	if w.pos == len(w.history[0]) {
		w.pos = 0
	}
}

func (w *window) meanSquare() float64 {
	n := float64(len(w.history[0]))
	total := 0.0
	for _, s := range w.sums {
		total += s / n
	}
	return total
}

func (w *window) reset() {
	for i := range w.history {
		clear(w.history[i])
		w.sums[i] = 0
	}
	w.pos = 0
}

// NewMeter creates a meter.
func NewMeter(opts ...MeterOption) *Meter {
	cfg := ApplyMeterOptions(opts...)
	sr := cfg.SampleRate

	m := &Meter{
		sampleRate: sr,
		mom:        newWindow(cfg.Channels, max(1, int(math.Round(momentarySeconds*sr)))),
		short:      newWindow(cfg.Channels, max(1, int(math.Round(shortTermSeconds*sr)))),
		step:       max(1, int(math.Round(momentarySeconds*(1-gateOverlap)*sr))),
	}

	q := 1 / math.Sqrt2
	m.kWeight = biquad.NewCascade(cfg.Channels,
		design.HighShelf(kShelfFreq, kShelfGain, q, sr),
		design.Highpass(kHighpass, q, sr))

	return m
}

// Channels returns the metered channel count.
func (m *Meter) Channels() int { return m.kWeight.Channels() }

// Process meters a planar block. Missing channels count as silence and
// extra channels are ignored.
func (m *Meter) Process(block [][]float64) {
	if len(block) == 0 {
		return
	}

	for i := range block[0] {
		for ch := range m.kWeight.Channels() {
			x := 0.0
			if ch < len(block) {
				x = block[ch][i]
			}
			y := m.kWeight.ProcessSample(ch, x)
			sq := y * y
			m.mom.push(ch, sq)
			m.short.push(ch, sq)
		}
		m.mom.advance()
		m.short.advance()

		m.sinceStep++
		if m.sinceStep >= m.step {
			m.sinceStep = 0
			m.blocks = append(m.blocks, m.mom.meanSquare())
		}
	}
}

// Momentary returns the loudness of the last 400 ms in LUFS.
func (m *Meter) Momentary() float64 { return toLUFS(m.mom.meanSquare()) }

// ShortTerm returns the loudness of the last 3 s in LUFS.
func (m *Meter) ShortTerm() float64 { return toLUFS(m.short.meanSquare()) }

// Integrated returns the gated programme loudness in LUFS, or -Inf when
// every block falls below the absolute gate.
func (m *Meter) Integrated() float64 {
	sum, n := 0.0, 0
	for _, b := range m.blocks {
		if toLUFS(b) > absoluteGate {
			sum += b
			n++
		}
	}
	if n == 0 {
		return math.Inf(-1)
	}

	gate := toLUFS(sum/float64(n)) + relativeGate
	sum, n = 0, 0
	for _, b := range m.blocks {
		if l := toLUFS(b); l > absoluteGate && l > gate {
			sum += b
			n++
		}
	}
	if n == 0 {
		return math.Inf(-1)
	}

	return toLUFS(sum / float64(n))
}

// Reset clears filter state, windows and gating blocks.
func (m *Meter) Reset() {
	m.kWeight.Reset()
	m.mom.reset()
	m.short.reset()
	m.sinceStep = 0
	m.blocks = m.blocks[:0]
}

// Integrated measures a whole planar signal in one call.
func Integrated(channels [][]float64, sampleRate float64) float64 {
	m := NewMeter(WithSampleRate(sampleRate), WithChannels(len(channels)))
	m.Process(channels)
	return m.Integrated()
}

func toLUFS(meanSquare float64) float64 {
	if meanSquare <= 0 {
		return Floor
	}
	return -0.691 + 10*math.Log10(meanSquare)
}

package effectchain

import (
	"sync/atomic"

	"github.com/cwbudde/algo-daw/dsp/filter/biquad"
	"github.com/cwbudde/algo-daw/dsp/filter/design"
)

// Fixed corner frequencies of the per-track three-band EQ.
const (
	TrackEQLowHz  = 250.0
	TrackEQMidHz  = 1000.0
	TrackEQHighHz = 4000.0
	trackEQMidQ   = 1.0
)

// ThreeBandEQ holds the per-track EQ gains in dB.
type ThreeBandEQ struct {
	Low  float64 `json:"low"`
	Mid  float64 `json:"mid"`
	High float64 `json:"high"`
}

// TrackEQ is the fixed low-shelf, peak, high-shelf stage every track
// carries ahead of its effect chain. All-zero gains bypass the filters.
// Set may run on a control goroutine while Process runs on the audio
// goroutine; the three bands always change together.
type TrackEQ struct {
	sampleRate float64
	snap       atomic.Pointer[trackEQState]
	seen       *trackEQState
	bands      *biquad.Cascade
}

type trackEQState struct {
	gains  ThreeBandEQ
	coeffs []biquad.Coefficients
}

// NewTrackEQ creates a flat track EQ.
func NewTrackEQ(ctx Context) *TrackEQ {
	ctx = ctx.normalized()
	e := &TrackEQ{sampleRate: ctx.SampleRate}

	st := e.design(ThreeBandEQ{})
	e.bands = biquad.NewCascade(ctx.Channels, st.coeffs...)
	e.seen = st
	e.snap.Store(st)

	return e
}

// Set applies new band gains. Filter state carries over.
func (e *TrackEQ) Set(s ThreeBandEQ) {
	e.snap.Store(e.design(s))
}

// Settings returns the gains last set.
func (e *TrackEQ) Settings() ThreeBandEQ { return e.snap.Load().gains }

// Process filters block in place.
func (e *TrackEQ) Process(block [][]float64) {
	st := e.snap.Load()
	if st != e.seen {
		e.bands.SetCoefficients(st.coeffs)
		e.seen = st
	}

	if g := st.gains; g.Low == 0 && g.Mid == 0 && g.High == 0 {
		return
	}
	e.bands.Process(block)
}

func (e *TrackEQ) design(s ThreeBandEQ) *trackEQState {
	return &trackEQState{
		gains: s,
		coeffs: []biquad.Coefficients{
			design.LowShelf(TrackEQLowHz, s.Low, defaultQ, e.sampleRate),
			design.Peak(TrackEQMidHz, s.Mid, trackEQMidQ, e.sampleRate),
			design.HighShelf(TrackEQHighHz, s.High, defaultQ, e.sampleRate),
		},
	}
}

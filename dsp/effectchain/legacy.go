package effectchain

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-daw/dsp/core"
	"github.com/cwbudde/algo-daw/dsp/effects"
	"github.com/cwbudde/algo-daw/dsp/effects/dynamics"
	"github.com/cwbudde/algo-daw/dsp/effects/pitch"
	"github.com/cwbudde/algo-daw/dsp/effects/reverb"
	"github.com/cwbudde/algo-daw/dsp/filter/biquad"
	"github.com/cwbudde/algo-daw/dsp/filter/design"
	"github.com/cwbudde/algo-daw/dsp/mix"
)

const defaultQ = 1 / math.Sqrt2

// --- parametric EQ ---

// eqState is one published EQ configuration: the settings and the
// coefficients designed from them.
type eqState struct {
	settings EQSettings
	coeffs   []biquad.Coefficients
}

type eqEffect struct {
	descID  string
	ctx     Context
	snap    atomic.Pointer[eqState]
	seen    *eqState
	filters *biquad.Cascade
}

func newEQEffect(id string, ctx Context, s EQSettings) *eqEffect {
	st := newEQState(s, ctx.SampleRate)
	e := &eqEffect{
		descID:  id,
		ctx:     ctx,
		seen:    st,
		filters: biquad.NewCascade(ctx.Channels, st.coeffs...),
	}
	e.snap.Store(st)
	return e
}

func newEQState(s EQSettings, sampleRate float64) *eqState {
	s = s.clone()
	return &eqState{settings: s, coeffs: eqCoefficients(s, sampleRate)}
}

func (e *eqEffect) id() string    { return e.descID }
func (e *eqEffect) kind() Kind    { return KindEQ }
func (e *eqEffect) stages() int   { return len(e.snap.Load().coeffs) }
func (e *eqEffect) settings() any { return e.snap.Load().settings.clone() }

func (e *eqEffect) prepare(settings any) (func() error, error) {
	s, err := settingsAs(settings, EQSettings{})
	if err != nil {
		return nil, err
	}

	cur := e.snap.Load()
	if s.Audition != cur.settings.Audition || s.stages() != len(cur.coeffs) {
		return nil, errTopologyChanged
	}

	st := newEQState(s, e.ctx.SampleRate)
	return func() error {
		e.snap.Store(st)
		return nil
	}, nil
}

func (e *eqEffect) Process(block [][]float64) {
	if st := e.snap.Load(); st != e.seen {
		e.filters.SetCoefficients(st.coeffs)
		e.seen = st
	}
	e.filters.Process(block)
}

func eqCoefficients(s EQSettings, sampleRate float64) []biquad.Coefficients {
	if len(s.Bands) == 0 {
		return nil
	}

	if s.Audition {
		idx := max(0, min(s.AuditionBand, len(s.Bands)-1))
		b := s.Bands[idx]
		return []biquad.Coefficients{design.Bandpass(b.Frequency, b.Q, sampleRate)}
	}

	out := make([]biquad.Coefficients, len(s.Bands))
	for i, b := range s.Bands {
		out[i] = bandCoefficients(b, sampleRate)
	}
	return out
}

func bandCoefficients(b EQBand, sampleRate float64) biquad.Coefficients {
	switch b.Type {
	case FilterLowShelf:
		return design.LowShelf(b.Frequency, b.Gain, defaultQ, sampleRate)
	case FilterHighShelf:
		return design.HighShelf(b.Frequency, b.Gain, defaultQ, sampleRate)
	case FilterLowCut:
		return design.Highpass(b.Frequency, b.Q, sampleRate)
	case FilterHighCut:
		return design.Lowpass(b.Frequency, b.Q, sampleRate)
	case FilterNotch:
		return design.Notch(b.Frequency, b.Q, sampleRate)
	default:
		return design.Peak(b.Frequency, b.Gain, b.Q, sampleRate)
	}
}

// --- compressor ---

type compressorState struct {
	settings CompressorSettings
	makeup   float64
}

type compressorEffect struct {
	descID string
	snap   atomic.Pointer[compressorState]
	seen   *compressorState
	comp   *dynamics.Compressor
}

func newCompressorEffect(id string, ctx Context, s CompressorSettings) (*compressorEffect, error) {
	comp, err := dynamics.NewCompressor(ctx.SampleRate)
	if err != nil {
		return nil, err
	}

	e := &compressorEffect{descID: id, comp: comp}
	e.snap.Store(newCompressorState(s))
	return e, nil
}

func newCompressorState(s CompressorSettings) *compressorState {
	return &compressorState{settings: s, makeup: finiteGain(core.DBToLinear(s.Makeup))}
}

func (e *compressorEffect) id() string    { return e.descID }
func (e *compressorEffect) kind() Kind    { return KindCompressor }
func (e *compressorEffect) stages() int   { return 2 }
func (e *compressorEffect) settings() any { return e.snap.Load().settings }

func (e *compressorEffect) prepare(settings any) (func() error, error) {
	s, err := settingsAs(settings, DefaultCompressorSettings())
	if err != nil {
		return nil, err
	}

	st := newCompressorState(s)
	return func() error {
		e.snap.Store(st)
		return nil
	}, nil
}

func (e *compressorEffect) Process(block [][]float64) {
	st := e.snap.Load()
	if st != e.seen {
		e.comp.Configure(st.settings.params())
		e.seen = st
	}

	e.comp.Process(block)
	applyGain(block, st.makeup)
}

// --- reverb ---

// reverbState is one published reverb configuration. The convolver is
// part of it, so a new impulse and its gains reach the audio goroutine
// together.
type reverbState struct {
	settings ReverbSettings
	dry, wet float64
	tone     biquad.Coefficients
	conv     *reverb.ConvolutionReverb
}

type reverbEffect struct {
	descID string
	ctx    Context
	cache  *reverb.ImpulseCache
	snap   atomic.Pointer[reverbState]
	seen   *reverbState

	pre  *preDelay
	tone *biquad.Cascade

	scratch [][]float64
	view    [][]float64
}

func newReverbEffect(id string, ctx Context, s ReverbSettings, cache *reverb.ImpulseCache) (*reverbEffect, error) {
	pre, err := newPreDelay(ctx)
	if err != nil {
		return nil, err
	}

	e := &reverbEffect{
		descID:  id,
		ctx:     ctx,
		cache:   cache,
		pre:     pre,
		tone:    biquad.NewCascade(ctx.Channels, biquad.Identity),
		scratch: mix.NewBlock(ctx.Channels, ctx.BlockSize),
		view:    make([][]float64, 0, ctx.Channels),
	}

	st, err := e.newState(s, nil)
	if err != nil {
		return nil, err
	}
	e.snap.Store(st)

	return e, nil
}

func (e *reverbEffect) id() string    { return e.descID }
func (e *reverbEffect) kind() Kind    { return KindReverb }
func (e *reverbEffect) stages() int   { return 5 }
func (e *reverbEffect) settings() any { return e.snap.Load().settings }

func (e *reverbEffect) prepare(settings any) (func() error, error) {
	s, err := settingsAs(settings, DefaultReverbSettings())
	if err != nil {
		return nil, err
	}

	st, err := e.newState(s, e.snap.Load())
	if err != nil {
		return nil, err
	}
	return func() error {
		e.snap.Store(st)
		return nil
	}, nil
}

// newState designs a configuration for s. The running convolver is reused
// while decay and size are unchanged.
func (e *reverbEffect) newState(s ReverbSettings, cur *reverbState) (*reverbState, error) {
	dry, wet := core.EqualPowerGains(s.Mix)
	st := &reverbState{
		settings: s,
		dry:      finiteGain(dry),
		wet:      finiteGain(wet),
		tone:     design.Lowpass(s.Tone, defaultQ, e.ctx.SampleRate),
	}

	ir, fresh := e.cache.Get(s.Decay, s.Size)
	if !fresh && cur != nil && cur.settings.Decay == s.Decay && cur.settings.Size == s.Size {
		st.conv = cur.conv
		return st, nil
	}

	kernels := make([][]float64, e.ctx.Channels)
	for c := range kernels {
		kernels[c] = ir[c%len(ir)]
	}

	cr, err := reverb.NewConvolutionReverb(kernels, e.ctx.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("effectchain: reverb impulse: %w", err)
	}
	st.conv = cr

	return st, nil
}

func (e *reverbEffect) Process(block [][]float64) {
	if len(block) == 0 {
		return
	}

	st := e.snap.Load()
	if st != e.seen {
		e.pre.setTime(st.settings.PreDelay)
		e.tone.SetCoefficients([]biquad.Coefficients{st.tone})
		e.seen = st
	}

	wet := mix.Truncate(e.view, e.scratch, len(block[0]))
	for c := range wet {
		copy(wet[c], block[c%len(block)])
	}

	e.pre.Process(wet)
	e.tone.Process(wet)
	if err := st.conv.ProcessInPlace(wet); err != nil {
		mix.Clear(wet)
	}
	applyGain(wet, st.wet)

	applyGain(block, st.dry)
	mix.Accumulate(block, wet)
}

// preDelay delays every channel by the same time. Zero delay passes the
// block through. It is owned by the audio goroutine.
type preDelay struct {
	seconds float64
	lines   []*effects.FeedbackDelay
}

func newPreDelay(ctx Context) (*preDelay, error) {
	d := &preDelay{lines: make([]*effects.FeedbackDelay, ctx.Channels)}
	for c := range d.lines {
		line, err := effects.NewFeedbackDelay(ctx.SampleRate)
		if err != nil {
			return nil, err
		}
		d.lines[c] = line
	}
	return d, nil
}

func (d *preDelay) setTime(seconds float64) {
	if !core.Finite(seconds) || seconds < 0 {
		seconds = 0
	}
	d.seconds = seconds
	for _, l := range d.lines {
		l.SetTime(seconds)
	}
}

func (d *preDelay) Process(block [][]float64) {
	if d.seconds == 0 {
		return
	}

	for c := range min(len(block), len(d.lines)) {
		d.lines[c].ProcessInPlace(block[c])
	}
}

// --- delay ---

type delayState struct {
	settings DelaySettings
	wet      float64
}

type delayEffect struct {
	descID string
	snap   atomic.Pointer[delayState]
	seen   *delayState

	loops []*effects.FeedbackDelay

	scratch [][]float64
	view    [][]float64
}

func newDelayEffect(id string, ctx Context, s DelaySettings) (*delayEffect, error) {
	e := &delayEffect{
		descID:  id,
		loops:   make([]*effects.FeedbackDelay, ctx.Channels),
		scratch: mix.NewBlock(ctx.Channels, ctx.BlockSize),
		view:    make([][]float64, 0, ctx.Channels),
	}

	for c := range e.loops {
		loop, err := effects.NewFeedbackDelay(ctx.SampleRate)
		if err != nil {
			return nil, err
		}
		e.loops[c] = loop
	}

	e.snap.Store(newDelayState(s))
	return e, nil
}

func newDelayState(s DelaySettings) *delayState {
	return &delayState{settings: s, wet: finiteGain(core.Clamp(s.Mix, 0, 1))}
}

func (e *delayEffect) id() string    { return e.descID }
func (e *delayEffect) kind() Kind    { return KindDelay }
func (e *delayEffect) stages() int   { return 3 }
func (e *delayEffect) settings() any { return e.snap.Load().settings }

func (e *delayEffect) prepare(settings any) (func() error, error) {
	s, err := settingsAs(settings, DefaultDelaySettings())
	if err != nil {
		return nil, err
	}

	st := newDelayState(s)
	return func() error {
		e.snap.Store(st)
		return nil
	}, nil
}

func (e *delayEffect) Process(block [][]float64) {
	if len(block) == 0 {
		return
	}

	st := e.snap.Load()
	if st != e.seen {
		for _, l := range e.loops {
			l.SetTime(st.settings.Time)
			l.SetFeedback(st.settings.Feedback)
		}
		e.seen = st
	}

	wet := mix.Truncate(e.view, e.scratch, len(block[0]))
	for c := range min(len(wet), len(block)) {
		copy(wet[c], block[c])
		e.loops[c].ProcessInPlace(wet[c])
	}

	applyGain(wet, st.wet)
	mix.Accumulate(block, wet)
}

// --- distortion ---

type distortionEffect struct {
	descID string
	snap   atomic.Pointer[DistortionSettings]
	shaper *effects.WaveShaper
}

func newDistortionEffect(id string, s DistortionSettings) (*distortionEffect, error) {
	e := &distortionEffect{descID: id, shaper: effects.NewWaveShaper(effects.DefaultCurveLength)}
	e.shaper.SetAmount(s.Amount)
	e.snap.Store(&s)
	return e, nil
}

func (e *distortionEffect) id() string    { return e.descID }
func (e *distortionEffect) kind() Kind    { return KindDistortion }
func (e *distortionEffect) stages() int   { return 1 }
func (e *distortionEffect) settings() any { return *e.snap.Load() }

func (e *distortionEffect) prepare(settings any) (func() error, error) {
	s, err := settingsAs(settings, DistortionSettings{})
	if err != nil {
		return nil, err
	}

	return func() error {
		e.shaper.SetAmount(s.Amount)
		e.snap.Store(&s)
		return nil
	}, nil
}

func (e *distortionEffect) Process(block [][]float64) {
	for _, ch := range block {
		e.shaper.ProcessInPlace(ch)
	}
}

// --- pitch correction ---

type pitchEffect struct {
	descID    string
	snap      atomic.Pointer[PitchSettings]
	seen      *PitchSettings
	corrector *pitch.Corrector
	mono      []float64
}

func newPitchEffect(id string, ctx Context, s PitchSettings) (*pitchEffect, error) {
	corrector, err := pitch.NewCorrector(ctx.SampleRate, pitch.WithTuner(ctx.Tuner))
	if err != nil {
		return nil, err
	}

	e := &pitchEffect{descID: id, corrector: corrector, mono: make([]float64, ctx.BlockSize)}
	e.snap.Store(&s)
	return e, nil
}

func (e *pitchEffect) id() string    { return e.descID }
func (e *pitchEffect) kind() Kind    { return KindPitch }
func (e *pitchEffect) stages() int   { return 1 }
func (e *pitchEffect) settings() any { return *e.snap.Load() }

func (e *pitchEffect) prepare(settings any) (func() error, error) {
	s, err := settingsAs(settings, DefaultPitchSettings())
	if err != nil {
		return nil, err
	}

	return func() error {
		e.snap.Store(&s)
		return nil
	}, nil
}

func (e *pitchEffect) Process(block [][]float64) {
	if len(block) == 0 {
		return
	}

	if s := e.snap.Load(); s != e.seen {
		e.corrector.SetParams(s.params())
		e.seen = s
	}

	n := min(len(block[0]), len(e.mono))
	mono := e.mono[:n]
	scale := 1 / float64(len(block))
	for i := range mono {
		var sum float64
		for _, ch := range block {
			sum += ch[i]
		}
		mono[i] = sum * scale
	}

	e.corrector.ProcessInPlace(mono)

	for _, ch := range block {
		copy(ch, mono)
	}
}

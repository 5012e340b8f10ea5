package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-daw/dsp/core"
	"github.com/cwbudde/algo-daw/dsp/effectchain"
	"github.com/cwbudde/algo-daw/dsp/mix"
	"github.com/cwbudde/algo-daw/dsp/spectrum"
	"github.com/cwbudde/algo-daw/dsp/transport"
)

const (
	defaultMaxVoices   = 256
	defaultMaxClicks   = 16
	defaultQueueLength = 512
)

// Engine errors.
var (
	ErrDuplicateTrack = errors.New("engine: duplicate track id")
	ErrUnknownTrack   = errors.New("engine: unknown track")
	ErrInvalidConfig  = errors.New("engine: invalid config")
)

// Option configures an Engine.
type Option func(*Engine)

// WithProcessorOptions overrides sample rate, block size or channel count.
func WithProcessorOptions(opts ...core.ProcessorOption) Option {
	return func(e *Engine) {
		for _, opt := range opts {
			if opt != nil {
				opt(&e.cfg)
			}
		}
	}
}

// WithLogger sets the engine logger. Track graphs log through it too.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRegistry resolves plugin effects against reg.
func WithRegistry(reg *effectchain.Registry) Option {
	return func(e *Engine) {
		if reg != nil {
			e.registry = reg
		}
	}
}

// WithAnalyserSize sets the analysis window of every tap.
func WithAnalyserSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.analyserSize = n
		}
	}
}

// WithMaxVoices bounds the number of simultaneously playing clips.
func WithMaxVoices(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxVoices = n
		}
	}
}

// WithMetronomeOptions forwards options to the engine's metronome.
func WithMetronomeOptions(opts ...transport.MetronomeOption) Option {
	return func(e *Engine) {
		e.metronomeOpts = append(e.metronomeOpts, opts...)
	}
}

// Engine renders the live mix.
type Engine struct {
	cfg           core.ProcessorConfig
	logger        *slog.Logger
	registry      *effectchain.Registry
	analyserSize  int
	maxVoices     int
	metronomeOpts []transport.MetronomeOption

	clock     *transport.FrameClock
	metronome *transport.Metronome
	player    *transport.Player
	master    *spectrum.Analyser

	masterGain atomic.Uint64

	// Control side.
	mu       sync.Mutex
	byID     map[string]*trackState
	playFrom float64
	playAt   float64
	playing  atomic.Bool

	tracks   atomic.Pointer[[]*trackState]
	input    atomic.Pointer[inputSlot]
	cmds     chan command
	finished chan finishedVoice
	dropped  atomic.Uint64

	// Audio side, touched only by Process.
	voices    []liveVoice
	clicks    []clickVoice
	trackBuf  [][]float64
	trackView [][]float64
	outView   [][]float64
	inputBuf  []float64
}

// New creates an engine with no tracks.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:          core.DefaultProcessorConfig(),
		logger:       slog.Default(),
		registry:     effectchain.DefaultRegistry(),
		analyserSize: spectrum.DefaultSize,
		maxVoices:    defaultMaxVoices,
		byID:         make(map[string]*trackState),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	if e.cfg.SampleRate <= 0 || !core.Finite(e.cfg.SampleRate) || e.cfg.BlockSize <= 0 || e.cfg.Channels <= 0 {
		return nil, fmt.Errorf("%w: %+v", ErrInvalidConfig, e.cfg)
	}

	master, err := spectrum.NewAnalyser(e.analyserSize)
	if err != nil {
		return nil, fmt.Errorf("engine: master analyser: %w", err)
	}
	e.master = master

	e.clock = transport.NewFrameClock(e.cfg.SampleRate)
	e.player = transport.NewPlayer()

	mopts := append([]transport.MetronomeOption{transport.WithMetronomeLogger(e.logger)}, e.metronomeOpts...)
	e.metronome, err = transport.NewMetronome(e.clock, clickSink{e}, mopts...)
	if err != nil {
		return nil, fmt.Errorf("engine: metronome: %w", err)
	}
	e.metronome.SetEnabled(false)

	e.masterGain.Store(math.Float64bits(1))
	e.cmds = make(chan command, defaultQueueLength)
	e.finished = make(chan finishedVoice, e.maxVoices)
	e.voices = make([]liveVoice, 0, e.maxVoices)
	e.clicks = make([]clickVoice, 0, defaultMaxClicks)
	e.trackBuf = mix.NewBlock(e.cfg.Channels, e.cfg.BlockSize)
	e.trackView = make([][]float64, 0, e.cfg.Channels)
	e.outView = make([][]float64, 0, e.cfg.Channels)
	e.inputBuf = make([]float64, e.cfg.BlockSize)

	empty := []*trackState{}
	e.tracks.Store(&empty)

	return e, nil
}

// Config returns the processing configuration.
func (e *Engine) Config() core.ProcessorConfig { return e.cfg }

// Clock returns the audio clock Process advances.
func (e *Engine) Clock() *transport.FrameClock { return e.clock }

// MasterAnalyser returns the analysis tap on the master bus.
func (e *Engine) MasterAnalyser() *spectrum.Analyser { return e.master }

// SetMasterGain sets the linear master gain.
func (e *Engine) SetMasterGain(g float64) {
	if !core.Finite(g) || g < 0 {
		g = 0
	}
	e.masterGain.Store(math.Float64bits(g))
}

// DroppedCommands counts voice and click commands lost to a full queue.
func (e *Engine) DroppedCommands() uint64 { return e.dropped.Load() }

// Process renders the next len(out[0]) frames into out. It is the audio
// callback: it never blocks and does not allocate once voices are queued.
func (e *Engine) Process(out [][]float64) {
	if len(out) == 0 {
		return
	}

	e.drain()

	n := len(out[0])
	bs := e.cfg.BlockSize
	for off := 0; off < n; off += bs {
		end := min(off+bs, n)
		e.outView = e.outView[:0]
		for _, ch := range out {
			e.outView = append(e.outView, ch[off:end])
		}
		e.render(e.outView)
	}
}

func (e *Engine) render(out [][]float64) {
	n := len(out[0])
	start := e.clock.Frames()
	mix.Clear(out)

	input := e.input.Load()
	var monitored []float64
	if input != nil {
		monitored = e.inputBuf[:n]
		got := input.src.Read(monitored)
		clear(monitored[max(0, got):])
	}

	tracks := *e.tracks.Load()
	anySolo := false
	for _, t := range tracks {
		if t.mixer.Load().solo {
			anySolo = true
			break
		}
	}

	for _, t := range tracks {
		buf := mix.Truncate(e.trackView, e.trackBuf, n)
		mix.Clear(buf)

		for i := range e.voices {
			if e.voices[i].track == t {
				e.voices[i].voice.MixInto(buf, start)
			}
		}
		if monitored != nil && input.trackID == t.id {
			for _, ch := range buf {
				for i, x := range monitored {
					ch[i] += x
				}
			}
		}

		m := t.mixer.Load()
		if !m.audible(anySolo) {
			continue
		}

		t.eq.Process(buf)
		t.graph.Process(buf)
		t.analyser.Write(buf)
		mix.Pan(buf, m.pan)
		mix.Gain(buf, m.gain)
		mix.Accumulate(out, buf)
	}

	e.renderClicks(out, start)
	mix.Gain(out, math.Float64frombits(e.masterGain.Load()))
	e.master.Write(out)

	e.reapVoices()
	e.clock.Advance(n)
}

package render

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-daw/codec"
	"github.com/cwbudde/algo-daw/dsp/core"
	"github.com/cwbudde/algo-daw/dsp/effectchain"
	"github.com/cwbudde/algo-daw/dsp/mix"
	"github.com/cwbudde/algo-daw/measure/loudness"
	"github.com/cwbudde/algo-daw/project"
)

// checkpointSeconds is how much audio a track renders between
// cancellation checks.
const checkpointSeconds = 1.0

// Mix is a rendered stereo (or n-channel) buffer. Peak is the largest
// absolute sample before quantization and Loudness the integrated EBU R128
// loudness in LUFS (-Inf for silence).
type Mix struct {
	SampleRate float64
	Channels   [][]float64
	Peak       float64
	Loudness   float64
}

// Frames returns the mix length in frames.
func (m *Mix) Frames() int {
	if m == nil || len(m.Channels) == 0 {
		return 0
	}
	return len(m.Channels[0])
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithProcessorOptions overrides sample rate, block size or channel count.
func WithProcessorOptions(opts ...core.ProcessorOption) Option {
	return func(r *Renderer) {
		for _, opt := range opts {
			if opt != nil {
				opt(&r.cfg)
			}
		}
	}
}

// WithLogger sets the renderer logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRegistry resolves plugin effects against reg.
func WithRegistry(reg *effectchain.Registry) Option {
	return func(r *Renderer) {
		if reg != nil {
			r.registry = reg
		}
	}
}

// WithImpulseSeed makes reverb impulses, and so the whole render,
// reproducible.
func WithImpulseSeed(seed uint64) Option {
	return func(r *Renderer) {
		r.seed = seed
		r.seeded = true
	}
}

// WithTail extends the render past the last clip so effect tails ring out.
func WithTail(seconds float64) Option {
	return func(r *Renderer) {
		if seconds > 0 && core.Finite(seconds) {
			r.tail = seconds
		}
	}
}

// WithConcurrency bounds how many tracks render at once.
func WithConcurrency(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// Renderer renders arrangements offline. It is safe for concurrent use.
type Renderer struct {
	cfg         core.ProcessorConfig
	logger      *slog.Logger
	registry    *effectchain.Registry
	seed        uint64
	seeded      bool
	tail        float64
	concurrency int
}

// New creates a renderer.
func New(opts ...Option) (*Renderer, error) {
	r := &Renderer{
		cfg:         core.DefaultProcessorConfig(),
		logger:      slog.Default(),
		registry:    effectchain.DefaultRegistry(),
		concurrency: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	if r.cfg.SampleRate <= 0 || !core.Finite(r.cfg.SampleRate) || r.cfg.BlockSize <= 0 || r.cfg.Channels <= 0 {
		return nil, fmt.Errorf("render: invalid processor config %+v", r.cfg)
	}

	return r, nil
}

// Config returns the render configuration.
func (r *Renderer) Config() core.ProcessorConfig { return r.cfg }

// Render mixes every audible track. Tracks render concurrently; ctx is
// checked before each track starts and periodically while it renders.
func (r *Renderer) Render(ctx context.Context, tracks []project.Track) (*Mix, error) {
	sr := r.cfg.SampleRate
	frames := int(math.Ceil((project.Length(tracks) + r.tail) * sr))
	anySolo := project.AnySolo(tracks)

	outputs := make([][][]float64, len(tracks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i := range tracks {
		t := &tracks[i]
		if !t.Audible(anySolo) {
			r.logger.Debug("render: skipping inaudible track", "track", t.ID)
			continue
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			out, err := r.renderTrack(gctx, i, t, frames)
			if err != nil {
				return fmt.Errorf("render: track %s: %w", t.ID, err)
			}
			outputs[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := &Mix{SampleRate: sr, Channels: mix.NewBlock(r.cfg.Channels, frames)}
	for _, out := range outputs {
		if out != nil {
			mix.Accumulate(m.Channels, out)
		}
	}
	m.Peak = mix.PeakAbs(m.Channels)
	m.Loudness = loudness.Integrated(m.Channels, sr)

	r.logger.Info("render: done", "tracks", len(tracks), "frames", frames, "peak", m.Peak, "lufs", m.Loudness)
	return m, nil
}

// RenderWAV renders tracks and encodes the mix as 16-bit PCM WAV.
func (r *Renderer) RenderWAV(ctx context.Context, tracks []project.Track, w io.WriteSeeker) (*Mix, error) {
	m, err := r.Render(ctx, tracks)
	if err != nil {
		return nil, err
	}

	if err := codec.EncodeWAV(w, m.Channels, int(math.Round(m.SampleRate))); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return m, nil
}

func (r *Renderer) renderTrack(ctx context.Context, index int, t *project.Track, frames int) ([][]float64, error) {
	sr := r.cfg.SampleRate
	buf := mix.NewBlock(r.cfg.Channels, frames)

	for _, c := range t.Clips {
		if c.Buffer == nil {
			continue
		}
		start := int64(math.Round(c.Start * sr))
		v := mix.NewVoice(c.ID, c.Buffer.Channels, c.Buffer.SampleRate, sr, start, c.SourceOffset, c.Duration)
		v.MixInto(buf, 0)
	}

	logger := r.logger.With("track", t.ID)
	ectx := effectchain.Context{
		SampleRate: sr,
		BlockSize:  r.cfg.BlockSize,
		Channels:   r.cfg.Channels,
		Offline:    true,
		Logger:     logger,
	}

	gopts := []effectchain.GraphOption{effectchain.WithRegistry(r.registry), effectchain.WithLogger(logger)}
	if r.seeded {
		gopts = append(gopts, effectchain.WithImpulseSeed(r.seed+uint64(index)<<16))
	}

	graph := effectchain.NewGraph(ectx, gopts...)
	if err := graph.Build(t.Effects); err != nil {
		return nil, err
	}

	eq := effectchain.NewTrackEQ(ectx)
	eq.Set(t.EQ)

	bs := r.cfg.BlockSize
	every := max(1, int(checkpointSeconds*sr)/bs) * bs
	view := make([][]float64, len(buf))

	for off := 0; off < frames; off += bs {
		if off%every == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		end := min(off+bs, frames)
		for c := range buf {
			view[c] = buf[c][off:end]
		}
		eq.Process(view)
		graph.Process(view)
	}

	if n := graph.Recovered(); n > 0 {
		logger.Warn("render: effect faults silenced blocks", "blocks", n)
	}

	gain := t.Gain
	if !core.Finite(gain) || gain < 0 {
		gain = 0
	}
	mix.Pan(buf, core.Clamp(t.Pan, -1, 1))
	mix.Gain(buf, gain)

	return buf, nil
}

package effectchain

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-daw/dsp/effects/pitch"
	"github.com/cwbudde/algo-daw/dsp/effects/reverb"
	"github.com/cwbudde/algo-daw/dsp/mix"
)

// chain is an immutable, fully built effect sequence. The audio goroutine
// only ever sees complete chains.
type chain struct {
	effects []effect
}

// Graph owns one track's effect chain. Build and Update are control-side
// calls and serialize among themselves; Process runs on the audio goroutine
// and picks up new chains atomically at block boundaries.
type Graph struct {
	ctx      Context
	registry *Registry
	logger   *slog.Logger
	seed     uint64
	seeded   bool

	mu     sync.Mutex
	caches map[int]*reverb.ImpulseCache

	current   atomic.Pointer[chain]
	recovered atomic.Uint64

	chunk [][]float64
}

// GraphOption configures a Graph.
type GraphOption func(*Graph)

// WithRegistry resolves non-legacy ids against reg instead of the default
// registry.
func WithRegistry(reg *Registry) GraphOption {
	return func(g *Graph) {
		if reg != nil {
			g.registry = reg
		}
	}
}

// WithLogger sets the logger for skipped effects and recovered faults.
func WithLogger(l *slog.Logger) GraphOption {
	return func(g *Graph) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithImpulseSeed makes reverb impulses reproducible.
func WithImpulseSeed(seed uint64) GraphOption {
	return func(g *Graph) {
		g.seed = seed
		g.seeded = true
	}
}

// NewGraph creates an empty graph. An empty graph passes audio through.
func NewGraph(ctx Context, opts ...GraphOption) *Graph {
	ctx = ctx.normalized()
	if ctx.Tuner == nil {
		ctx.Tuner = pitch.NewTunerState()
	}

	g := &Graph{
		ctx:      ctx,
		registry: DefaultRegistry(),
		logger:   ctx.Logger,
		caches:   make(map[int]*reverb.ImpulseCache),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	g.ctx.Logger = g.logger
	g.chunk = make([][]float64, 0, ctx.Channels)

	return g
}

// Context returns the environment the graph builds effects for.
func (g *Graph) Context() Context { return g.ctx }

// Tuner returns the state pitch correction effects publish to.
func (g *Graph) Tuner() *pitch.TunerState { return g.ctx.Tuner }

// Build materializes descs as a new chain and swaps it in. On error the
// previous chain stays active.
func (g *Graph) Build(descs []Descriptor) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	c, err := g.materialize(descs)
	if err != nil {
		return err
	}
	g.current.Store(c)

	return nil
}

// Update pushes new settings into the live nodes. When the descriptor ids
// or any effect's node count differ from the running chain, the chain is
// rebuilt instead and rebuilt reports true.
func (g *Graph) Update(descs []Descriptor) (rebuilt bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if c := g.current.Load(); g.sameShape(c, descs) {
		err := g.updateInPlace(c, descs)
		if !errors.Is(err, errTopologyChanged) {
			return false, err
		}
	}

	c, err := g.materialize(descs)
	if err != nil {
		return false, err
	}
	g.current.Store(c)

	return true, nil
}

// Clear drops the chain. Process passes audio through afterwards.
func (g *Graph) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.current.Store(nil)
}

// Len returns the number of effects in the active chain, including
// skipped ones.
func (g *Graph) Len() int {
	if c := g.current.Load(); c != nil {
		return len(c.effects)
	}
	return 0
}

// Kind returns how effect i was materialized.
func (g *Graph) Kind(i int) Kind {
	if e := g.effect(i); e != nil {
		return e.kind()
	}
	return KindUnknown
}

// Nodes returns the number of processing nodes effect i holds. Skipped
// effects hold none.
func (g *Graph) Nodes(i int) int {
	if e := g.effect(i); e != nil {
		return e.stages()
	}
	return 0
}

// Settings returns the settings effect i currently runs with.
func (g *Graph) Settings(i int) any {
	if e := g.effect(i); e != nil {
		return e.settings()
	}
	return nil
}

// Recovered counts effect faults that were silenced.
func (g *Graph) Recovered() uint64 { return g.recovered.Load() }

// Process runs the active chain over block in place. Blocks longer than
// the context block size are processed in slices.
func (g *Graph) Process(block [][]float64) {
	c := g.current.Load()
	if c == nil || len(c.effects) == 0 || len(block) == 0 {
		return
	}

	n := len(block[0])
	bs := g.ctx.BlockSize
	if n <= bs {
		g.run(c, block)
		return
	}

	for off := 0; off < n; off += bs {
		end := min(off+bs, n)
		g.chunk = g.chunk[:0]
		for _, ch := range block {
			g.chunk = append(g.chunk, ch[off:end])
		}
		g.run(c, g.chunk)
	}
}

func (g *Graph) run(c *chain, block [][]float64) {
	for i, e := range c.effects {
		if !g.safeProcess(e, block) {
			g.logger.Error("effectchain: effect failed, block silenced",
				"index", i, "id", e.id(), "kind", e.kind().String())
			mix.Clear(block)
			return
		}
	}
}

func (g *Graph) safeProcess(e effect, block [][]float64) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			g.recovered.Add(1)
			ok = false
		}
	}()

	e.Process(block)
	return true
}

func (g *Graph) effect(i int) effect {
	c := g.current.Load()
	if c == nil || i < 0 || i >= len(c.effects) {
		return nil
	}
	return c.effects[i]
}

func (g *Graph) sameShape(c *chain, descs []Descriptor) bool {
	if c == nil || len(c.effects) != len(descs) {
		return false
	}
	for i, d := range descs {
		if c.effects[i].id() != d.ID {
			return false
		}
	}
	return true
}

// updateInPlace prepares every effect before committing any, so a rejected
// descriptor leaves the whole chain on its previous settings.
func (g *Graph) updateInPlace(c *chain, descs []Descriptor) error {
	commits := make([]func() error, len(descs))
	for i, d := range descs {
		commit, err := c.effects[i].prepare(d.Settings)
		if err != nil {
			if errors.Is(err, errTopologyChanged) {
				return err
			}
			return fmt.Errorf("effectchain: update effect %d %q: %w", i, d.ID, err)
		}
		commits[i] = commit
	}

	for i, commit := range commits {
		if err := commit(); err != nil {
			return fmt.Errorf("effectchain: update effect %d %q: %w", i, descs[i].ID, err)
		}
	}
	return nil
}

func (g *Graph) materialize(descs []Descriptor) (*chain, error) {
	c := &chain{effects: make([]effect, 0, len(descs))}
	for i, d := range descs {
		e, err := g.newEffect(i, d)
		if err != nil {
			return nil, fmt.Errorf("effectchain: build effect %d %q: %w", i, d.ID, err)
		}
		c.effects = append(c.effects, e)
	}
	return c, nil
}

func (g *Graph) newEffect(i int, d Descriptor) (effect, error) {
	kind, plugin := Resolve(d.ID, g.registry)

	switch kind {
	case KindEQ:
		s, err := settingsAs(d.Settings, EQSettings{})
		if err != nil {
			return nil, err
		}
		return newEQEffect(d.ID, g.ctx, s), nil

	case KindCompressor:
		s, err := settingsAs(d.Settings, DefaultCompressorSettings())
		if err != nil {
			return nil, err
		}
		return newCompressorEffect(d.ID, g.ctx, s)

	case KindReverb:
		s, err := settingsAs(d.Settings, DefaultReverbSettings())
		if err != nil {
			return nil, err
		}
		return newReverbEffect(d.ID, g.ctx, s, g.impulseCache(i))

	case KindDelay:
		s, err := settingsAs(d.Settings, DefaultDelaySettings())
		if err != nil {
			return nil, err
		}
		return newDelayEffect(d.ID, g.ctx, s)

	case KindDistortion:
		s, err := settingsAs(d.Settings, DistortionSettings{})
		if err != nil {
			return nil, err
		}
		return newDistortionEffect(d.ID, s)

	case KindPitch:
		s, err := settingsAs(d.Settings, DefaultPitchSettings())
		if err != nil {
			return nil, err
		}
		if g.ctx.Offline {
			g.logger.Info("effectchain: pitch correction omitted in offline render", "index", i, "id", d.ID)
			return newBypass(d.ID, KindPitch, s), nil
		}
		return newPitchEffect(d.ID, g.ctx, s)

	case KindPlugin:
		return newPluginEffect(d.ID, plugin, g.ctx, d.Settings)

	default:
		g.logger.Warn("effectchain: skipping unknown effect", "index", i, "id", d.ID)
		return newBypass(d.ID, KindUnknown, d.Settings), nil
	}
}

// impulseCache returns the cache for chain slot i. Caches outlive chain
// rebuilds so unchanged reverb settings keep their impulse.
func (g *Graph) impulseCache(i int) *reverb.ImpulseCache {
	if c, ok := g.caches[i]; ok {
		return c
	}

	var opts []reverb.Option
	if g.seeded {
		opts = append(opts, reverb.WithSeed(g.seed+uint64(i)))
	}
	c := reverb.NewImpulseCache(g.ctx.SampleRate, opts...)
	g.caches[i] = c

	return c
}

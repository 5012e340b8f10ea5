package engine

import (
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/cwbudde/algo-daw/dsp/core"
	"github.com/cwbudde/algo-daw/dsp/effectchain"
	"github.com/cwbudde/algo-daw/dsp/effects/pitch"
	"github.com/cwbudde/algo-daw/dsp/spectrum"
	"github.com/cwbudde/algo-daw/project"
)

// mixState is the per-track snapshot the audio side reads once per block.
type mixState struct {
	gain float64
	pan  float64
	mute bool
	solo bool
}

func (m *mixState) audible(anySolo bool) bool {
	if m.mute {
		return false
	}
	return !anySolo || m.solo
}

type trackState struct {
	id       string
	model    project.Track // guarded by Engine.mu
	graph    *effectchain.Graph
	eq       *effectchain.TrackEQ
	analyser *spectrum.Analyser
	mixer    atomic.Pointer[mixState]
}

func mixFrom(t *project.Track) *mixState {
	gain := t.Gain
	if !core.Finite(gain) || gain < 0 {
		gain = 0
	}
	return &mixState{
		gain: gain,
		pan:  core.Clamp(t.Pan, -1, 1),
		mute: t.Mute,
		solo: t.Solo,
	}
}

func (e *Engine) effectContext() effectchain.Context {
	return effectchain.Context{
		SampleRate: e.cfg.SampleRate,
		BlockSize:  e.cfg.BlockSize,
		Channels:   e.cfg.Channels,
		Logger:     e.logger,
	}
}

// AddTrack registers t and builds its graph. A track without an id gets
// one.
func (e *Engine) AddTrack(t project.Track) (string, error) {
	if t.ID == "" {
		t.ID = project.NewID()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.byID[t.ID]; ok {
		return "", fmt.Errorf("%w: %s", ErrDuplicateTrack, t.ID)
	}

	analyser, err := spectrum.NewAnalyser(e.analyserSize)
	if err != nil {
		return "", fmt.Errorf("engine: track analyser: %w", err)
	}

	ctx := e.effectContext()
	ctx.Tuner = pitch.NewTunerState()
	ts := &trackState{
		id:       t.ID,
		model:    cloneTrack(t),
		graph:    effectchain.NewGraph(ctx, effectchain.WithRegistry(e.registry), effectchain.WithLogger(e.logger.With("track", t.ID))),
		eq:       effectchain.NewTrackEQ(ctx),
		analyser: analyser,
	}
	ts.mixer.Store(mixFrom(&t))
	ts.eq.Set(t.EQ)

	if err := ts.graph.Build(t.Effects); err != nil {
		return "", fmt.Errorf("engine: track %s: %w", t.ID, err)
	}

	e.byID[t.ID] = ts
	e.publishTracks(append(slices.Clone(*e.tracks.Load()), ts))

	e.logger.Debug("engine: track added", "track", t.ID, "effects", len(t.Effects))
	return t.ID, nil
}

// SetTrack replaces the stored model of an existing track. The running
// graph keeps its chain until BuildGraph or UpdateParameters applies the
// new effect list.
func (e *Engine) SetTrack(t project.Track) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ts, ok := e.byID[t.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTrack, t.ID)
	}
	ts.model = cloneTrack(t)
	return nil
}

// Track returns a copy of the stored model.
func (e *Engine) Track(id string) (project.Track, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ts, ok := e.byID[id]
	if !ok {
		return project.Track{}, false
	}
	return cloneTrack(ts.model), true
}

// TrackIDs lists tracks in mix order.
func (e *Engine) TrackIDs() []string {
	tracks := *e.tracks.Load()
	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.id
	}
	return ids
}

// RemoveTrack drops a track with its graph and stops its clips.
func (e *Engine) RemoveTrack(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ts, ok := e.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTrack, id)
	}

	delete(e.byID, id)
	e.publishTracks(slices.DeleteFunc(slices.Clone(*e.tracks.Load()), func(t *trackState) bool { return t == ts }))
	e.send(command{kind: cmdDropTrack, track: ts})

	for _, c := range ts.model.Clips {
		e.player.Stop(c.ID)
	}

	e.logger.Debug("engine: track removed", "track", id)
	return nil
}

// BuildGraph rebuilds the track's effect chain from its stored model and
// applies its mixer and EQ settings.
func (e *Engine) BuildGraph(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ts, ok := e.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTrack, id)
	}

	if err := ts.graph.Build(ts.model.Effects); err != nil {
		return fmt.Errorf("engine: track %s: %w", id, err)
	}
	e.applyMix(ts)

	return nil
}

// UpdateParameters pushes the stored model's settings into the live graph,
// rebuilding it only when the effect topology changed.
func (e *Engine) UpdateParameters(id string) (rebuilt bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ts, ok := e.byID[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownTrack, id)
	}

	rebuilt, err = ts.graph.Update(ts.model.Effects)
	if err != nil {
		return false, fmt.Errorf("engine: track %s: %w", id, err)
	}
	e.applyMix(ts)

	if rebuilt {
		e.logger.Debug("engine: graph rebuilt on update", "track", id)
	}
	return rebuilt, nil
}

// Graph exposes the track's effect graph for read-back.
func (e *Engine) Graph(id string) *effectchain.Graph {
	if ts := e.lookup(id); ts != nil {
		return ts.graph
	}
	return nil
}

// Tuner returns the pitch detections of the track's pitch correction.
func (e *Engine) Tuner(id string) *pitch.TunerState {
	if ts := e.lookup(id); ts != nil {
		return ts.graph.Tuner()
	}
	return nil
}

// Analyser returns the track's post-effects analysis tap.
func (e *Engine) Analyser(id string) *spectrum.Analyser {
	if ts := e.lookup(id); ts != nil {
		return ts.analyser
	}
	return nil
}

func (e *Engine) lookup(id string) *trackState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.byID[id]
}

func (e *Engine) applyMix(ts *trackState) {
	ts.mixer.Store(mixFrom(&ts.model))
	ts.eq.Set(ts.model.EQ)
}

func (e *Engine) publishTracks(tracks []*trackState) {
	e.tracks.Store(&tracks)
}

func cloneTrack(t project.Track) project.Track {
	t.Effects = slices.Clone(t.Effects)
	t.Clips = slices.Clone(t.Clips)
	return t
}

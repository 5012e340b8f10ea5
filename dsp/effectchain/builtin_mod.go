package effectchain

import (
	"fmt"
	"sync/atomic"

	"github.com/cwbudde/algo-daw/dsp/effects/modulation"
	"github.com/cwbudde/algo-daw/dsp/effects/spatial"
)

// Built-in modulation and stereo plugin ids.
const (
	IDChorus      = "chorus"
	IDTremolo     = "tremolo"
	IDStereoWidth = "stereo-width"
)

// snapshotNode adopts the newest published parameter snapshot once per
// block, before processing.
type snapshotNode[P any] struct {
	params    atomic.Pointer[P]
	seen      *P
	configure func(P)
	process   func([][]float64)
}

func (n *snapshotNode[P]) Process(block [][]float64) {
	if p := n.params.Load(); p != n.seen {
		n.configure(*p)
		n.seen = p
	}
	n.process(block)
}

func publish[P any](node Node, id string, p P) error {
	n, ok := node.(*snapshotNode[P])
	if !ok {
		return fmt.Errorf("%w: %s cannot update %T", ErrInvalidPlugin, id, node)
	}
	n.params.Store(&p)
	return nil
}

// chorusPlugin exposes modulation.Chorus.
//
// Parameters: rate (Hz), depth, delay (seconds), mix (0..1), voices.
type chorusPlugin struct{}

func (chorusPlugin) ID() string   { return IDChorus }
func (chorusPlugin) Name() string { return "Chorus" }

func (chorusPlugin) DefaultSettings() Params {
	d := modulation.DefaultChorusParams()
	return Params{Num: map[string]float64{
		"rate":   d.RateHz,
		"depth":  d.Depth,
		"delay":  d.BaseDelay,
		"mix":    d.Mix,
		"voices": float64(d.Voices),
	}}
}

func (p chorusPlugin) CreateNode(ctx Context, params Params) (Node, error) {
	c, err := modulation.NewChorus(ctx.normalized().SampleRate)
	if err != nil {
		return nil, err
	}

	n := &snapshotNode[modulation.ChorusParams]{configure: c.Configure, process: c.Process}
	if err := p.UpdateNode(n, params, ctx); err != nil {
		return nil, err
	}
	return n, nil
}

func (chorusPlugin) UpdateNode(node Node, params Params, _ Context) error {
	d := modulation.DefaultChorusParams()
	return publish(node, IDChorus, modulation.ChorusParams{
		RateHz:    params.GetNum("rate", d.RateHz),
		Depth:     params.GetNum("depth", d.Depth),
		BaseDelay: params.GetNum("delay", d.BaseDelay),
		Mix:       params.GetNum("mix", d.Mix),
		Voices:    int(params.GetNum("voices", float64(d.Voices))),
	})
}

// tremoloPlugin exposes modulation.Tremolo.
//
// Parameters: rate (Hz), depth (0..1).
type tremoloPlugin struct{}

func (tremoloPlugin) ID() string   { return IDTremolo }
func (tremoloPlugin) Name() string { return "Tremolo" }

func (tremoloPlugin) DefaultSettings() Params {
	d := modulation.DefaultTremoloParams()
	return Params{Num: map[string]float64{"rate": d.RateHz, "depth": d.Depth}}
}

func (p tremoloPlugin) CreateNode(ctx Context, params Params) (Node, error) {
	t, err := modulation.NewTremolo(ctx.normalized().SampleRate)
	if err != nil {
		return nil, err
	}

	n := &snapshotNode[modulation.TremoloParams]{configure: t.Configure, process: t.Process}
	if err := p.UpdateNode(n, params, ctx); err != nil {
		return nil, err
	}
	return n, nil
}

func (tremoloPlugin) UpdateNode(node Node, params Params, _ Context) error {
	d := modulation.DefaultTremoloParams()
	return publish(node, IDTremolo, modulation.TremoloParams{
		RateHz: params.GetNum("rate", d.RateHz),
		Depth:  params.GetNum("depth", d.Depth),
	})
}

// widthPlugin exposes spatial.StereoWidener.
//
// Parameters: width (0..4), bassMono (Hz, 0 = off).
type widthPlugin struct{}

func (widthPlugin) ID() string   { return IDStereoWidth }
func (widthPlugin) Name() string { return "Stereo Width" }

func (widthPlugin) DefaultSettings() Params {
	d := spatial.DefaultWidenerParams()
	return Params{Num: map[string]float64{"width": d.Width, "bassMono": d.BassMonoHz}}
}

func (p widthPlugin) CreateNode(ctx Context, params Params) (Node, error) {
	w, err := spatial.NewStereoWidener(ctx.normalized().SampleRate)
	if err != nil {
		return nil, err
	}

	n := &snapshotNode[spatial.WidenerParams]{configure: w.Configure, process: w.Process}
	if err := p.UpdateNode(n, params, ctx); err != nil {
		return nil, err
	}
	return n, nil
}

func (widthPlugin) UpdateNode(node Node, params Params, _ Context) error {
	d := spatial.DefaultWidenerParams()
	return publish(node, IDStereoWidth, spatial.WidenerParams{
		Width:      params.GetNum("width", d.Width),
		BassMonoHz: params.GetNum("bassMono", d.BassMonoHz),
	})
}

package effectchain

import (
	"fmt"
	"sync/atomic"

	"github.com/cwbudde/algo-daw/dsp/core"
	"github.com/cwbudde/algo-daw/dsp/effects/dynamics"
)

// Built-in plugin ids.
const (
	IDUtility   = "utility"
	IDNoiseGate = "noise-gate"
)

// utilityPlugin is a gain, polarity and mono-fold stage.
//
// Parameters: gain (dB), invert (0/1), mono (0/1).
type utilityPlugin struct{}

type utilityState struct {
	gain float64
	mono bool
}

type utilityNode struct {
	state atomic.Pointer[utilityState]
}

func (utilityPlugin) ID() string   { return IDUtility }
func (utilityPlugin) Name() string { return "Utility" }

func (utilityPlugin) DefaultSettings() Params {
	return Params{Num: map[string]float64{"gain": 0, "invert": 0, "mono": 0}}
}

func (p utilityPlugin) CreateNode(_ Context, params Params) (Node, error) {
	n := &utilityNode{}
	if err := p.UpdateNode(n, params, Context{}); err != nil {
		return nil, err
	}
	return n, nil
}

func (utilityPlugin) UpdateNode(node Node, params Params, _ Context) error {
	n, ok := node.(*utilityNode)
	if !ok {
		return fmt.Errorf("%w: utility cannot update %T", ErrInvalidPlugin, node)
	}

	g := core.DBToLinear(core.Clamp(params.GetNum("gain", 0), -96, 24))
	if params.GetNum("invert", 0) >= 0.5 {
		g = -g
	}
	n.state.Store(&utilityState{gain: g, mono: params.GetNum("mono", 0) >= 0.5})

	return nil
}

func (n *utilityNode) Process(block [][]float64) {
	s := n.state.Load()

	if s.mono && len(block) > 1 {
		scale := 1 / float64(len(block))
		for i := range block[0] {
			var sum float64
			for _, ch := range block {
				sum += ch[i]
			}
			for _, ch := range block {
				ch[i] = sum * scale
			}
		}
	}

	if s.gain == 1 {
		return
	}
	for _, ch := range block {
		for i := range ch {
			ch[i] *= s.gain
		}
	}
}

// gatePlugin exposes dynamics.Gate.
//
// Parameters: threshold (dB), range (dB), attack, hold, release (seconds).
type gatePlugin struct{}

type gateNode struct {
	gate   *dynamics.Gate
	params atomic.Pointer[dynamics.GateParams]
	seen   *dynamics.GateParams
}

func (gatePlugin) ID() string   { return IDNoiseGate }
func (gatePlugin) Name() string { return "Noise Gate" }

func (gatePlugin) DefaultSettings() Params {
	d := dynamics.DefaultGateParams()
	return Params{Num: map[string]float64{
		"threshold": d.ThresholdDB,
		"range":     d.RangeDB,
		"attack":    d.Attack,
		"hold":      d.Hold,
		"release":   d.Release,
	}}
}

func (p gatePlugin) CreateNode(ctx Context, params Params) (Node, error) {
	gate, err := dynamics.NewGate(ctx.normalized().SampleRate)
	if err != nil {
		return nil, err
	}

	n := &gateNode{gate: gate}
	if err := p.UpdateNode(n, params, ctx); err != nil {
		return nil, err
	}
	return n, nil
}

func (gatePlugin) UpdateNode(node Node, params Params, _ Context) error {
	n, ok := node.(*gateNode)
	if !ok {
		return fmt.Errorf("%w: noise-gate cannot update %T", ErrInvalidPlugin, node)
	}

	d := dynamics.DefaultGateParams()
	n.params.Store(&dynamics.GateParams{
		ThresholdDB: params.GetNum("threshold", d.ThresholdDB),
		RangeDB:     params.GetNum("range", d.RangeDB),
		Attack:      params.GetNum("attack", d.Attack),
		Hold:        params.GetNum("hold", d.Hold),
		Release:     params.GetNum("release", d.Release),
	})

	return nil
}

func (n *gateNode) Process(block [][]float64) {
	if p := n.params.Load(); p != n.seen {
		n.gate.Configure(*p)
		n.seen = p
	}
	n.gate.Process(block)
}

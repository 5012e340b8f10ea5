package effectchain

import (
	"errors"
	"sync/atomic"
)

// errTopologyChanged signals that new settings need a different node
// count and the chain must be rebuilt.
var errTopologyChanged = errors.New("effectchain: topology changed")

// effect is one materialized descriptor: its processing nodes plus the
// settings snapshot they were configured from.
//
// prepare validates new settings and builds everything they need without
// touching the running effect. The returned commit publishes the result
// as one snapshot, which Process adopts at its next block boundary.
// prepare returns errTopologyChanged when the settings need a different
// node count.
type effect interface {
	Node
	id() string
	kind() Kind
	stages() int
	settings() any
	prepare(settings any) (commit func() error, err error)
}

type settingsBox struct{ v any }

// bypassEffect stands in for descriptors that produce no nodes: unknown
// ids and effects omitted for the current context. It keeps chain indices
// aligned with the descriptor list.
type bypassEffect struct {
	descID string
	k      Kind
	snap   atomic.Pointer[settingsBox]
}

func newBypass(id string, k Kind, settings any) *bypassEffect {
	b := &bypassEffect{descID: id, k: k}
	b.snap.Store(&settingsBox{v: settings})
	return b
}

func (b *bypassEffect) Process([][]float64) {}
func (b *bypassEffect) id() string          { return b.descID }
func (b *bypassEffect) kind() Kind          { return b.k }
func (b *bypassEffect) stages() int         { return 0 }
func (b *bypassEffect) settings() any       { return b.snap.Load().v }

func (b *bypassEffect) prepare(settings any) (func() error, error) {
	return func() error {
		b.snap.Store(&settingsBox{v: settings})
		return nil
	}, nil
}

// pluginEffect wraps a node created by a registry plugin.
type pluginEffect struct {
	descID string
	plugin Plugin
	node   Node
	ctx    Context
	snap   atomic.Pointer[Params]
}

func newPluginEffect(id string, p Plugin, ctx Context, settings any) (*pluginEffect, error) {
	params, err := toParams(settings)
	if err != nil {
		return nil, err
	}
	params = params.Merge(p.DefaultSettings())

	node, err := p.CreateNode(ctx, params)
	if err != nil {
		return nil, err
	}

	e := &pluginEffect{descID: id, plugin: p, node: node, ctx: ctx}
	e.snap.Store(&params)

	return e, nil
}

func (e *pluginEffect) Process(block [][]float64) { e.node.Process(block) }
func (e *pluginEffect) id() string                { return e.descID }
func (e *pluginEffect) kind() Kind                { return KindPlugin }
func (e *pluginEffect) stages() int               { return 1 }
func (e *pluginEffect) settings() any             { return e.snap.Load().Clone() }

// prepare only converts the settings; the plugin publishes its own node
// snapshot inside UpdateNode.
func (e *pluginEffect) prepare(settings any) (func() error, error) {
	params, err := toParams(settings)
	if err != nil {
		return nil, err
	}
	params = params.Merge(e.plugin.DefaultSettings())

	return func() error {
		if err := e.plugin.UpdateNode(e.node, params, e.ctx); err != nil {
			return err
		}
		e.snap.Store(&params)
		return nil
	}, nil
}

package effectchain

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Plugin is the extension point for effects outside the built-in legacy
// kinds.
//
// UpdateNode runs on the control goroutine while the node may be
// processing on the audio goroutine. Implementations publish new
// parameters to the node atomically, for example through a snapshot
// pointer read once per block.
type Plugin interface {
	ID() string
	Name() string
	DefaultSettings() Params
	CreateNode(ctx Context, settings Params) (Node, error)
	UpdateNode(node Node, settings Params, ctx Context) error
}

// Registry errors.
var (
	ErrDuplicatePlugin = errors.New("effectchain: duplicate plugin id")
	ErrInvalidPlugin   = errors.New("effectchain: invalid plugin")
)

// Registry is an append-only table of plugins keyed by id. Entries are
// never replaced or removed. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
	logger  *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger for registration events.
func WithRegistryLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{plugins: make(map[string]Plugin), logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Register adds p. A second registration under an existing id is ignored,
// logged, and reported as ErrDuplicatePlugin; the first plugin stays.
func (r *Registry) Register(p Plugin) error {
	if p == nil {
		return fmt.Errorf("%w: nil plugin", ErrInvalidPlugin)
	}

	id := p.ID()
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidPlugin)
	}

	if _, legacy := legacyKinds[id]; legacy {
		return fmt.Errorf("%w: id %q is reserved for a built-in effect", ErrInvalidPlugin, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.plugins[id]; ok {
		r.logger.Warn("effectchain: ignoring duplicate plugin registration",
			"id", id, "kept", existing.Name(), "ignored", p.Name())
		return fmt.Errorf("%w: %s", ErrDuplicatePlugin, id)
	}

	r.plugins[id] = p

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(p Plugin) {
	if err := r.Register(p); err != nil {
		panic(err.Error())
	}
}

// Lookup returns the plugin registered under id, or nil.
func (r *Registry) Lookup(id string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.plugins[id]
}

// IDs lists the registered ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.plugins))
	for id := range r.plugins {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r := NewRegistry()
	r.MustRegister(utilityPlugin{})
	r.MustRegister(gatePlugin{})
	r.MustRegister(chorusPlugin{})
	r.MustRegister(tremoloPlugin{})
	r.MustRegister(widthPlugin{})
	return r
})

// DefaultRegistry returns the process-wide registry, initialized once with
// the built-in plugins.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}

package nodes

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/mitchellh/mapstructure"

	"github.com/randalmurphal/pulse/pkg/pulse"
)

// Params holds the loosely typed construction parameters of a node, as read
// from a graph definition.
type Params map[string]any

// Factory creates a node from its parameters.
type Factory func(p Params) (pulse.Node, error)

// Info describes a registered node type.
type Info struct {
	Tag         string
	Description string
}

// Sentinel errors for registry operations.
var (
	// ErrUnknownType indicates no factory is registered under a tag.
	ErrUnknownType = errors.New("unknown node type")

	// ErrDuplicateType indicates a tag is already registered.
	ErrDuplicateType = errors.New("node type already registered")
)

// Registry maps node type tags to factories. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

type entry struct {
	factory     Factory
	description string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds a factory under tag.
func (r *Registry) Register(tag, description string, f Factory) error {
	if tag == "" || f == nil {
		return fmt.Errorf("nodes: register %q: tag and factory are required", tag)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[tag]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateType, tag)
	}
	r.entries[tag] = entry{factory: f, description: description}
	return nil
}

// MustRegister is Register that panics on error. Use it for static tables.
func (r *Registry) MustRegister(tag, description string, f Factory) {
	if err := r.Register(tag, description, f); err != nil {
		panic(err)
	}
}

// New creates a node of type tag from params.
func (r *Registry) New(tag string, params Params) (pulse.Node, error) {
	r.mu.RLock()
	e, ok := r.entries[tag]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, tag)
	}
	n, err := e.factory(params)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", tag, err)
	}
	return n, nil
}

// Has reports whether tag is registered.
func (r *Registry) Has(tag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[tag]
	return ok
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Types returns every registered type, sorted by tag.
func (r *Registry) Types() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]Info, 0, len(r.entries))
	for tag, e := range r.entries {
		infos = append(infos, Info{Tag: tag, Description: e.description})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Tag < infos[j].Tag })
	return infos
}

// DecodeParams decodes p into out (a pointer to a struct). Values are
// converted weakly ("1.5" to float, 1 to true), strings such as "250ms"
// become time.Duration, and unknown keys are an error.
func DecodeParams(p Params, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(map[string]any(p)); err != nil {
		return fmt.Errorf("params: %w", err)
	}
	return nil
}

// simple wraps a constructor that takes no parameters.
func simple[N pulse.Node](ctor func() N) Factory {
	return func(p Params) (pulse.Node, error) {
		if err := DecodeParams(p, &struct{}{}); err != nil {
			return nil, err
		}
		return ctor(), nil
	}
}

// with wraps a constructor taking a decoded parameter struct.
func with[P any, N pulse.Node](ctor func(P) N) Factory {
	return func(p Params) (pulse.Node, error) {
		var params P
		if err := DecodeParams(p, &params); err != nil {
			return nil, err
		}
		return ctor(params), nil
	}
}

// withErr wraps a constructor that can reject its parameters.
func withErr[P any, N pulse.Node](ctor func(P) (N, error)) Factory {
	return func(p Params) (pulse.Node, error) {
		var params P
		if err := DecodeParams(p, &params); err != nil {
			return nil, err
		}
		n, err := ctor(params)
		if err != nil {
			return nil, fmt.Errorf("params: %w", err)
		}
		return n, nil
	}
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry of built-in nodes. It is built once; callers
// may add their own types to it.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
		RegisterBuiltins(defaultRegistry)
	})
	return defaultRegistry
}

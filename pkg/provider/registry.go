package provider

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Common registry errors.
var (
	ErrDuplicateProvider = errors.New("provider already registered")
	ErrNilProvider       = errors.New("provider function cannot be nil")
)

// Ref describes a registered provider: its type identifier, optional format
// discriminator, display name, generator function, and free-form metadata.
type Ref struct {
	TypeID   string
	Format   string
	Name     string
	Func     Func
	Metadata map[string]any
}

// RegisterOptions carries the optional parts of a registration.
type RegisterOptions struct {
	// Format restricts the provider to a format-specific lookup key.
	Format string

	// Name is the display name; defaults to "typeID" or "typeID.format".
	Name string

	// Metadata is free-form descriptive data surfaced by Available().
	Metadata map[string]any

	// Override replaces an existing provider for the same (type, format)
	// pair instead of failing.
	Override bool
}

type registryKey struct {
	typeID string
	format string
}

// Registry maps (type, format) pairs to provider functions. Lookup falls
// back from (type, format) to (type, "") when no format-specific provider
// exists. At most one active provider per pair unless Override is set.
type Registry struct {
	mu        sync.RWMutex
	providers map[registryKey]*Ref
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[registryKey]*Ref)}
}

// Register adds a provider for a type identifier. Registering a duplicate
// (type, format) pair without opts.Override is a configuration error.
func (r *Registry) Register(typeID string, fn Func, opts RegisterOptions) (*Ref, error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: type %q format %q", ErrNilProvider, typeID, opts.Format)
	}
	key := registryKey{typeID: typeID, format: opts.Format}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[key]; exists && !opts.Override {
		return nil, fmt.Errorf("%w: type %q format %q", ErrDuplicateProvider, typeID, opts.Format)
	}

	name := opts.Name
	if name == "" {
		name = typeID
		if opts.Format != "" {
			name = typeID + "." + opts.Format
		}
	}

	ref := &Ref{
		TypeID:   typeID,
		Format:   opts.Format,
		Name:     name,
		Func:     fn,
		Metadata: opts.Metadata,
	}
	r.providers[key] = ref
	return ref, nil
}

// Unregister removes the provider for a (type, format) pair, if present.
func (r *Registry) Unregister(typeID, format string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.providers, registryKey{typeID: typeID, format: format})
}

// Get returns the format-specific provider if present, else the
// format-agnostic provider for the type, else nil.
func (r *Registry) Get(typeID, format string) *Ref {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if format != "" {
		if ref, ok := r.providers[registryKey{typeID: typeID, format: format}]; ok {
			return ref
		}
	}
	return r.providers[registryKey{typeID: typeID}]
}

// Available returns all registered providers sorted by name.
func (r *Registry) Available() []*Ref {
	r.mu.RLock()
	defer r.mu.RUnlock()

	refs := make([]*Ref, 0, len(r.providers))
	for _, ref := range r.providers {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs
}

// Clear removes all registered providers.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = make(map[registryKey]*Ref)
}

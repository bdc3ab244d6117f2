package provider

import (
	"fmt"
	"sync"
)

// Plugin is the provider-registration hook third parties implement to extend
// a registry. RegisterProviders is invoked with the target registry; any
// registration error aborts plugin loading.
type Plugin interface {
	Name() string
	RegisterProviders(r *Registry) error
}

var (
	externalMu      sync.Mutex
	externalPlugins []Plugin
)

// RegisterExternalPlugin records a plugin for later loading, typically from
// the plugin package's init function.
func RegisterExternalPlugin(p Plugin) {
	if p == nil {
		return
	}
	externalMu.Lock()
	defer externalMu.Unlock()
	externalPlugins = append(externalPlugins, p)
}

// ExternalPlugins returns the recorded external plugins in registration order.
func ExternalPlugins() []Plugin {
	externalMu.Lock()
	defer externalMu.Unlock()
	out := make([]Plugin, len(externalPlugins))
	copy(out, externalPlugins)
	return out
}

// RegisterPlugin invokes a single plugin's provider hook against the registry.
func (r *Registry) RegisterPlugin(p Plugin) error {
	if err := p.RegisterProviders(r); err != nil {
		return fmt.Errorf("plugin %q: %w", p.Name(), err)
	}
	return nil
}

// LoadExternalPlugins invokes the provider hook of every recorded external
// plugin against the registry, in registration order.
func (r *Registry) LoadExternalPlugins() error {
	for _, p := range ExternalPlugins() {
		if err := r.RegisterPlugin(p); err != nil {
			return err
		}
	}
	return nil
}

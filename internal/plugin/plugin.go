// Package plugin provides an explicit lifecycle registry: plugins expose
// install/uninstall as plain calls invoked by the host, with no base-class
// inheritance.
package plugin

import (
	"context"
	"fmt"
	"sync"
)

// Plugin is the lifecycle contract a payment integration implements.
type Plugin interface {
	SystemName() string
	Install(ctx context.Context) error
	Uninstall(ctx context.Context) error
}

// Registry holds registered plugins keyed by system name.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{plugins: map[string]Plugin{}}
}

// Register adds a plugin, rejecting duplicate system names.
func (r *Registry) Register(p Plugin) error {
	if p == nil {
		return fmt.Errorf("plugin: nil plugin")
	}
	name := p.SystemName()
	if name == "" {
		return fmt.Errorf("plugin: empty system name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.plugins[name]; exists {
		return fmt.Errorf("plugin: %s already registered", name)
	}
	r.plugins[name] = p
	return nil
}

// Lookup returns the plugin registered under the given system name.
func (r *Registry) Lookup(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	return p, ok
}

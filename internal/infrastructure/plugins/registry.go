package plugins

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"fetcher.dev/cli/internal/core/domain"
	"fetcher.dev/cli/internal/core/ports"
	"fetcher.dev/cli/internal/plugins/pluginkit"
)

// Registration binds a plugin name to its factory
type Registration struct {
	Name    string
	Factory pluginkit.Factory
}

// Registry holds the plugins that constructed successfully. A plugin that fails to
// construct is skipped and the reason kept for reporting.
type Registry struct {
	plugins map[string]ports.Plugin
	skipped map[string]error
	logger  *zap.Logger
	mutex   sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		plugins: make(map[string]ports.Plugin),
		skipped: make(map[string]error),
		logger:  logger.Named("registry"),
	}
}

// Load constructs every registration with deps. Names listed in disabled are skipped
// without constructing them.
func (r *Registry) Load(deps pluginkit.Deps, registrations []Registration, disabled ...string) {
	off := make(map[string]bool, len(disabled))
	for _, name := range disabled {
		off[name] = true
	}

	for _, reg := range registrations {
		if off[reg.Name] {
			r.logger.Debug("plugin disabled", zap.String("plugin", reg.Name))
			continue
		}
		plugin, err := construct(reg, deps)
		if err != nil {
			r.skip(reg.Name, err)
			continue
		}
		if err := r.Register(plugin); err != nil {
			r.skip(reg.Name, err)
		}
	}
}

// Register adds a constructed plugin. Names must be unique and non-empty.
func (r *Registry) Register(plugin ports.Plugin) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	name := plugin.Name()
	if name == "" {
		return fmt.Errorf("plugin name cannot be empty")
	}
	if _, exists := r.plugins[name]; exists {
		return fmt.Errorf("plugin '%s' already registered", name)
	}
	r.plugins[name] = plugin
	delete(r.skipped, name)
	r.logger.Debug("plugin loaded", zap.String("plugin", name), zap.Int("commands", plugin.Commands().Len()))
	return nil
}

// Get retrieves a plugin by name
func (r *Registry) Get(name string) (ports.Plugin, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	plugin, exists := r.plugins[name]
	return plugin, exists
}

// Names returns the registered plugin names in sorted order
func (r *Registry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Plugins returns the registered plugins in name order
func (r *Registry) Plugins() []ports.Plugin {
	names := r.Names()

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	list := make([]ports.Plugin, 0, len(names))
	for _, name := range names {
		list = append(list, r.plugins[name])
	}
	return list
}

// Skipped returns the plugins that failed to load with their reasons
func (r *Registry) Skipped() map[string]error {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make(map[string]error, len(r.skipped))
	for name, err := range r.skipped {
		out[name] = err
	}
	return out
}

func (r *Registry) skip(name string, err error) {
	r.mutex.Lock()
	r.skipped[name] = err
	r.mutex.Unlock()

	// Missing credentials are routine; anything else is worth the user's attention
	if errors.Is(err, domain.ErrMissingCredentials) {
		r.logger.Info("plugin not loaded", zap.String("plugin", name), zap.Error(err))
		return
	}
	r.logger.Warn("plugin failed to load", zap.String("plugin", name), zap.Error(err))
}

// construct runs a factory, converting a panic into an error
func construct(reg Registration, deps pluginkit.Deps) (plugin ports.Plugin, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			plugin, err = nil, fmt.Errorf("plugin '%s' panicked during construction: %v", reg.Name, rec)
		}
	}()

	if reg.Factory == nil {
		return nil, fmt.Errorf("plugin '%s' has no factory", reg.Name)
	}
	plugin, err = reg.Factory(deps)
	if err != nil {
		return nil, err
	}
	if plugin == nil {
		return nil, fmt.Errorf("plugin '%s' factory returned nil", reg.Name)
	}
	if plugin.Commands() == nil {
		return nil, fmt.Errorf("plugin '%s' has no command table", reg.Name)
	}
	if plugin.Name() != reg.Name {
		return nil, fmt.Errorf("plugin registered as '%s' reports name '%s'", reg.Name, plugin.Name())
	}
	return plugin, nil
}

var _ ports.PluginRegistry = (*Registry)(nil)

// Package registry manages backend binding registration and connector
// instantiation. Backend packages register a factory from their init
// function; the wiring layer creates connectors by backend name from
// configuration alone.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/attrflow/attrflow/pkg/config"
	"github.com/attrflow/attrflow/pkg/connector/core"
	"github.com/attrflow/attrflow/pkg/errors"
	"github.com/attrflow/attrflow/pkg/logger"
)

// Factory creates a connector instance for one backend from its
// configuration. The returned connector is constructed but not initialized.
type Factory func(cfg *config.ConnectorConfig) (core.DataConnector, error)

// Registry manages backend factory registration and connector creation
type Registry struct {
	backends map[string]Factory
	mu       sync.RWMutex
	logger   *zap.Logger
}

// Global registry instance
var globalRegistry = NewRegistry()

// NewRegistry creates a new backend registry
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[string]Factory),
		logger:   logger.Get().With(zap.String("component", "connector_registry")),
	}
}

// Register registers a backend factory
func (r *Registry) Register(backend string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.backends[backend]; exists {
		return errors.New(errors.ErrorTypeConfig,
			fmt.Sprintf("backend %s already registered", backend))
	}

	r.backends[backend] = factory
	r.logger.Info("backend registered", zap.String("backend", backend))
	return nil
}

// Create creates a connector for the backend named by the configuration
func (r *Registry) Create(cfg *config.ConnectorConfig) (core.DataConnector, error) {
	r.mu.RLock()
	factory, exists := r.backends[cfg.Backend]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.New(errors.ErrorTypeConfig,
			fmt.Sprintf("backend %s not found", cfg.Backend))
	}

	connector, err := factory(cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig,
			fmt.Sprintf("failed to create connector %s", cfg.ID))
	}

	return connector, nil
}

// List returns the registered backend names in sorted order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	backends := make([]string, 0, len(r.backends))
	for name := range r.backends {
		backends = append(backends, name)
	}
	sort.Strings(backends)
	return backends
}

// Has checks if a backend is registered
func (r *Registry) Has(backend string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.backends[backend]
	return exists
}

// Clear removes all registered backends (mainly for testing)
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends = make(map[string]Factory)
}

// Global registry functions

// Register registers a backend factory in the global registry
func Register(backend string, factory Factory) error {
	return globalRegistry.Register(backend, factory)
}

// MustRegister registers a backend factory and panics on conflict. For use
// from backend package init functions.
func MustRegister(backend string, factory Factory) {
	if err := globalRegistry.Register(backend, factory); err != nil {
		panic(err)
	}
}

// Create creates a connector from the global registry
func Create(cfg *config.ConnectorConfig) (core.DataConnector, error) {
	return globalRegistry.Create(cfg)
}

// List returns registered backends from the global registry
func List() []string {
	return globalRegistry.List()
}

// Has checks if a backend is registered in the global registry
func Has(backend string) bool {
	return globalRegistry.Has(backend)
}

// GetRegistry returns the global registry instance
func GetRegistry() *Registry {
	return globalRegistry
}

package carrier

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// ConfigSource supplies the active carrier configurations. Implemented by
// the persistence layer; the registry only reads it.
type ConfigSource interface {
	ActiveConfigurations(ctx context.Context) ([]Settings, error)
}

// Factory constructs an adapter from its persisted configuration.
type Factory func(s Settings) (Carrier, error)

// entry pairs a live adapter with its health flag. The flag is flipped in
// place by health checks; the surrounding snapshot map is never mutated.
type entry struct {
	carrier Carrier
	healthy atomic.Bool
}

// snapshot is an immutable view of the registered adapters. Reload builds a
// new snapshot and swaps the pointer, so concurrent readers never observe a
// partially rebuilt registry.
type snapshot struct {
	entries map[string]*entry
	order   []string
}

// Registry translates persisted carrier configurations into live adapter
// instances and tracks their health.
type Registry struct {
	source    ConfigSource
	factories map[string]Factory
	logger    *otelzap.Logger

	current atomic.Pointer[snapshot]
	reload  sync.Mutex
}

// NewRegistry creates a registry over the given configuration source.
// Factories are keyed by carrier name.
func NewRegistry(source ConfigSource, factories map[string]Factory, logger *otelzap.Logger) *Registry {
	r := &Registry{
		source:    source,
		factories: factories,
		logger:    logger,
	}
	r.current.Store(&snapshot{entries: map[string]*entry{}})
	return r
}

// Initialize loads all active configurations and constructs one adapter per
// configuration. Unknown carrier names and adapters that fail configuration
// validation are logged and skipped, never fatal to the registry.
func (r *Registry) Initialize(ctx context.Context) error {
	r.reload.Lock()
	defer r.reload.Unlock()

	configs, err := r.source.ActiveConfigurations(ctx)
	if err != nil {
		return fmt.Errorf("loading carrier configurations: %w", err)
	}

	next := &snapshot{entries: make(map[string]*entry, len(configs))}
	for _, cfg := range configs {
		factory, ok := r.factories[cfg.Name]
		if !ok {
			r.logger.Error("Unknown carrier in configuration, skipping",
				zap.String("carrier", cfg.Name),
				zap.Error(ErrConfiguration),
			)
			continue
		}

		c, err := factory(cfg)
		if err != nil {
			r.logger.Error("Failed to construct carrier adapter, skipping",
				zap.String("carrier", cfg.Name),
				zap.Error(err),
			)
			continue
		}

		if !c.ValidateConfiguration(ctx) {
			r.logger.Warn("Carrier failed configuration validation, skipping",
				zap.String("carrier", cfg.Name),
			)
			continue
		}

		e := &entry{carrier: c}
		e.healthy.Store(true)
		next.entries[cfg.Name] = e
		next.order = append(next.order, cfg.Name)
	}

	r.current.Store(next)
	r.logger.Info("Carrier registry initialized",
		zap.Int("registered", len(next.order)),
		zap.Strings("carriers", next.order),
	)
	return nil
}

// Reload clears and re-initializes the registry, used after administrative
// configuration changes. Readers holding the old snapshot finish against it.
func (r *Registry) Reload(ctx context.Context) error {
	return r.Initialize(ctx)
}

// Get returns the live adapter for a carrier name. A missing name and an
// unhealthy adapter are distinct error kinds.
func (r *Registry) Get(name string) (Carrier, error) {
	snap := r.current.Load()
	e, ok := snap.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCarrierNotFound, name)
	}
	if !e.healthy.Load() {
		return nil, fmt.Errorf("%w: %s", ErrCarrierUnhealthy, name)
	}
	return e.carrier, nil
}

// Healthy returns all healthy adapters in registration order.
func (r *Registry) Healthy() []Carrier {
	snap := r.current.Load()
	result := make([]Carrier, 0, len(snap.order))
	for _, name := range snap.order {
		if e := snap.entries[name]; e.healthy.Load() {
			result = append(result, e.carrier)
		}
	}
	return result
}

// All returns every registered adapter, healthy or not, in registration
// order. Unhealthy adapters remain registered for manual inspection.
func (r *Registry) All() []Carrier {
	snap := r.current.Load()
	result := make([]Carrier, 0, len(snap.order))
	for _, name := range snap.order {
		result = append(result, snap.entries[name].carrier)
	}
	return result
}

// Names returns the names of all registered adapters in registration order.
func (r *Registry) Names() []string {
	snap := r.current.Load()
	return append([]string(nil), snap.order...)
}

// Count returns the number of registered adapters.
func (r *Registry) Count() int {
	return len(r.current.Load().entries)
}

// PerformHealthChecks re-validates every registered adapter and flips its
// health flag. An adapter that becomes unhealthy is excluded from
// aggregation but stays registered.
func (r *Registry) PerformHealthChecks(ctx context.Context) {
	snap := r.current.Load()
	for _, name := range snap.order {
		e := snap.entries[name]
		healthy := e.carrier.ValidateConfiguration(ctx)
		was := e.healthy.Swap(healthy)
		if was != healthy {
			r.logger.Warn("Carrier health changed",
				zap.String("carrier", name),
				zap.Bool("healthy", healthy),
			)
		}
	}
}

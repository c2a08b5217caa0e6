package services

import (
	"fmt"

	"github.com/custodia-labs/timeport-cli/internal/core/domain"
	"github.com/custodia-labs/timeport-cli/internal/core/ports/driven"
	"github.com/custodia-labs/timeport-cli/internal/logger"
)

// SinkRegistry maps sink kind names to their factories and builds the
// active sink set from configuration.
type SinkRegistry struct {
	factories map[string]driven.SinkFactory
	order     []string
}

// NewSinkRegistry creates an empty registry.
func NewSinkRegistry() *SinkRegistry {
	return &SinkRegistry{
		factories: make(map[string]driven.SinkFactory),
	}
}

// Register adds a sink factory for the given kind.
// Registering the same kind twice is a programmer error and panics,
// mirroring database/sql.Register; silent overwrites would hide wiring
// bugs until export time.
func (r *SinkRegistry) Register(kind string, factory driven.SinkFactory) {
	if factory == nil {
		panic("sinks: Register factory is nil")
	}
	if _, dup := r.factories[kind]; dup {
		panic(fmt.Sprintf("sinks: Register called twice for kind %q", kind))
	}
	r.factories[kind] = factory
	r.order = append(r.order, kind)
}

// Has returns true if a factory is registered for the kind.
func (r *SinkRegistry) Has(kind string) bool {
	_, ok := r.factories[kind]
	return ok
}

// Kinds returns all registered kinds in registration order.
func (r *SinkRegistry) Kinds() []string {
	kinds := make([]string, len(r.order))
	copy(kinds, r.order)
	return kinds
}

// Build instantiates sinks from the given configs, preserving config
// order. Disabled configs are skipped silently; unknown kinds and
// factory failures are skipped with a warning. One bad config never
// aborts building the rest of the set.
func (r *SinkRegistry) Build(configs []domain.SinkConfig) []driven.Sink {
	sinks := make([]driven.Sink, 0, len(configs))
	for _, cfg := range configs {
		if !cfg.Enabled {
			logger.Debug("sink %s disabled, skipping", cfg.Kind)
			continue
		}
		factory, ok := r.factories[cfg.Kind]
		if !ok {
			logger.Warn("no sink registered for kind %q, skipping %s", cfg.Kind, cfg.DisplayName())
			continue
		}
		sink, err := factory(cfg)
		if err != nil {
			logger.Warn("building sink %s failed: %v", cfg.DisplayName(), err)
			continue
		}
		sinks = append(sinks, sink)
	}
	return sinks
}

// Package planner implements the trip-planning engine: preference-weighted
// candidate scoring and route ordering (exact permutation search for small
// inputs, simulated annealing above the threshold). The engine is pure and
// stateless: every call receives all inputs and returns a result with no
// side effects, so concurrent invocations are safe without locking.
package planner

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Planner bundles the engine configuration with its metrics and logging.
// It holds no mutable state and is safe for concurrent use.
type Planner struct {
	config  *Config
	metrics *MetricsRecorder
	logger  zerolog.Logger
}

// New creates a planner with the given configuration. A nil config selects
// the documented defaults.
func New(config *Config) *Planner {
	if config == nil {
		config = DefaultConfig()
	}
	return &Planner{
		config:  config,
		metrics: NewMetricsRecorder(),
		logger:  log.With().Str("component", "planner").Logger(),
	}
}

// Config returns the planner's configuration.
func (p *Planner) Config() *Config {
	return p.config
}

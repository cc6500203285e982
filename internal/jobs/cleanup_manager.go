package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// CleanupConfig holds configuration for the background cleanup jobs
type CleanupConfig struct {
	RunCleanupInterval time.Duration `mapstructure:"run_cleanup_interval"` // How often to prune old import runs
	RunRetention       time.Duration `mapstructure:"run_retention"`        // Age threshold for import run removal
	StalePOIAge        time.Duration `mapstructure:"stale_poi_age"`        // Age threshold for stale catalog removal
	Enabled            bool          `mapstructure:"enabled"`              // Whether cleanup jobs are enabled
}

// DefaultCleanupConfig returns the default cleanup configuration
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		RunCleanupInterval: 1 * time.Hour,
		RunRetention:       90 * 24 * time.Hour, // 90 days
		StalePOIAge:        30 * 24 * time.Hour, // 30 days
		Enabled:            true,
	}
}

// CleanupManager manages background cleanup jobs
type CleanupManager struct {
	config CleanupConfig
	logger *zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	runCleanupDone  chan struct{}
	staleCleanupDone chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(config CleanupConfig, logger *zerolog.Logger) *CleanupManager {
	ctx, cancel := context.WithCancel(context.Background())

	return &CleanupManager{
		config:           config,
		logger:           logger,
		ctx:              ctx,
		cancel:           cancel,
		runCleanupDone:   make(chan struct{}),
		staleCleanupDone: make(chan struct{}),
	}
}

// Start begins all background cleanup jobs
func (cm *CleanupManager) Start() {
	if !cm.config.Enabled {
		cm.logger.Info().Msg("Cleanup jobs are disabled, not starting")
		return
	}

	cm.logger.Info().
		Dur("run_cleanup_interval", cm.config.RunCleanupInterval).
		Dur("run_retention", cm.config.RunRetention).
		Dur("stale_poi_age", cm.config.StalePOIAge).
		Msg("Starting cleanup manager")

	// Start import run cleanup job
	go cm.runImportRunCleanup()

	// Start stale catalog cleanup job
	go cm.runStalePOICleanup()
}

// Stop gracefully stops all cleanup jobs
func (cm *CleanupManager) Stop() {
	cm.logger.Info().Msg("Stopping cleanup manager...")
	cm.cancel()

	// Wait for jobs to finish (with timeout)
	select {
	case <-cm.runCleanupDone:
		cm.logger.Debug().Msg("Import run cleanup job stopped")
	case <-time.After(5 * time.Second):
		cm.logger.Warn().Msg("Import run cleanup job did not stop gracefully")
	}

	select {
	case <-cm.staleCleanupDone:
		cm.logger.Debug().Msg("Stale catalog cleanup job stopped")
	case <-time.After(5 * time.Second):
		cm.logger.Warn().Msg("Stale catalog cleanup job did not stop gracefully")
	}

	cm.logger.Info().Msg("Cleanup manager stopped")
}

// runImportRunCleanup prunes old import runs periodically
func (cm *CleanupManager) runImportRunCleanup() {
	defer close(cm.runCleanupDone)

	ticker := time.NewTicker(cm.config.RunCleanupInterval)
	defer ticker.Stop()

	// Run once immediately on startup
	cm.cleanupImportRuns()

	for {
		select {
		case <-cm.ctx.Done():
			cm.logger.Debug().Msg("Import run cleanup job stopped")
			return
		case <-ticker.C:
			cm.cleanupImportRuns()
		}
	}
}

// cleanupImportRuns removes import runs past the retention period
func (cm *CleanupManager) cleanupImportRuns() {
	start := time.Now()
	cm.logger.Debug().Msg("Running import run cleanup job")

	deleted, err := cleanupOldImportRunsImpl(cm.ctx, cm.config.RunRetention)
	if err != nil {
		cm.logger.Error().Err(err).Msg("Failed to cleanup old import runs")
		return
	}

	duration := time.Since(start)
	if deleted > 0 {
		cm.logger.Info().
			Int("deleted", deleted).
			Dur("duration", duration).
			Msg("Cleaned up old import runs")
	} else {
		cm.logger.Debug().
			Dur("duration", duration).
			Msg("No old import runs to clean up")
	}
}

// runStalePOICleanup prunes unseen catalog entries daily
func (cm *CleanupManager) runStalePOICleanup() {
	defer close(cm.staleCleanupDone)

	ticker := time.NewTicker(24 * time.Hour) // Run daily
	defer ticker.Stop()

	// Run once on startup (after a short delay so imports can finish first)
	select {
	case <-cm.ctx.Done():
		cm.logger.Debug().Msg("Stale catalog cleanup job stopped")
		return
	case <-time.After(5 * time.Minute):
	}
	cm.cleanupStalePOIs()

	for {
		select {
		case <-cm.ctx.Done():
			cm.logger.Debug().Msg("Stale catalog cleanup job stopped")
			return
		case <-ticker.C:
			cm.cleanupStalePOIs()
		}
	}
}

// cleanupStalePOIs removes catalog entries no import has refreshed
func (cm *CleanupManager) cleanupStalePOIs() {
	start := time.Now()
	cm.logger.Debug().Msg("Running stale catalog cleanup job")

	deleted, err := cleanupStalePOIsImpl(cm.ctx, cm.config.StalePOIAge)
	if err != nil {
		cm.logger.Error().Err(err).Msg("Failed to cleanup stale pois")
		return
	}

	duration := time.Since(start)
	if deleted > 0 {
		cm.logger.Info().
			Int("deleted", deleted).
			Dur("duration", duration).
			Msg("Cleaned up stale catalog entries")
	} else {
		cm.logger.Debug().
			Dur("duration", duration).
			Msg("No stale catalog entries to clean up")
	}
}

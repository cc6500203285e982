package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// cleanupOldImportRunsImpl removes import runs and their recorded errors
// older than the retention period
// Returns the number of runs deleted
func cleanupOldImportRunsImpl(ctx context.Context, retention time.Duration) (int, error) {
	pool := getPool()

	cutoffTime := time.Now().Add(-retention)

	// Row-level errors reference their run, so they go first
	_, err := pool.Exec(ctx, `
		DELETE FROM import_errors
		WHERE run_id IN (
			SELECT id FROM import_runs WHERE created_at < $1
		)
	`, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old import errors: %w", err)
	}

	result, err := pool.Exec(ctx, `
		DELETE FROM import_runs
		WHERE created_at < $1
	`, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old import runs: %w", err)
	}

	rowsAffected := result.RowsAffected()
	return int(rowsAffected), nil
}

// cleanupStalePOIsImpl removes catalog entries that no import has seen in the
// given age period. Manual entries (no source) are never touched.
// Returns the number of entries deleted
func cleanupStalePOIsImpl(ctx context.Context, age time.Duration) (int, error) {
	pool := getPool()

	cutoffTime := time.Now().Add(-age)

	result, err := pool.Exec(ctx, `
		DELETE FROM pois
		WHERE source_slug IS NOT NULL
		  AND last_seen_at < $1
	`, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup stale pois: %w", err)
	}

	rowsAffected := result.RowsAffected()
	return int(rowsAffected), nil
}

// GetCleanupStats returns counts of what the cleanup jobs would remove
func GetCleanupStats(ctx context.Context, cfg CleanupConfig) (map[string]int64, error) {
	pool := getPool()
	stats := make(map[string]int64)

	runCutoff := time.Now().Add(-cfg.RunRetention)
	var runCount int64
	err := pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM import_runs WHERE created_at < $1
	`, runCutoff).Scan(&runCount)
	if err != nil {
		return nil, fmt.Errorf("count old import runs: %w", err)
	}
	stats["old_import_runs"] = runCount

	poiCutoff := time.Now().Add(-cfg.StalePOIAge)
	var poiCount int64
	err = pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM pois WHERE source_slug IS NOT NULL AND last_seen_at < $1
	`, poiCutoff).Scan(&poiCount)
	if err != nil {
		return nil, fmt.Errorf("count stale pois: %w", err)
	}
	stats["stale_pois"] = poiCount

	return stats, nil
}

// getPool returns the database connection pool
// This is a bridge to the database package to avoid circular dependencies
func getPool() *pgxpool.Pool {
	return dbPoolGetter()
}

// dbPoolGetter is a function that returns the database pool
// This will be set by the database package initialization
var dbPoolGetter func() *pgxpool.Pool

// RegisterDBPoolGetter registers the database pool getter function
// This should be called from the database package initialization
func RegisterDBPoolGetter(getter func() *pgxpool.Pool) {
	dbPoolGetter = getter
}

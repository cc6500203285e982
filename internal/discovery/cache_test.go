package discovery

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestThunderingHerd verifies that concurrent requests to load the same
// source only result in a single database query via singleflight.
func TestThunderingHerd(t *testing.T) {
	ctx := context.Background()

	db, cleanup := setupTestDB(t)
	defer cleanup()

	seedCatalog(t, db)

	cache := NewCatalogCache(db, Defaults())
	defer cache.Close()

	const numRequests = 100
	var wg sync.WaitGroup
	results := make(chan error, numRequests)

	for i := 0; i < numRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- cache.LoadSource(ctx, "zagreb")
		}()
	}

	wg.Wait()
	close(results)

	for err := range results {
		assert.NoError(t, err, "All requests should succeed")
	}

	snapshot := getSnapshot(cache.sources["zagreb"])
	require.NotNil(t, snapshot, "Snapshot should be loaded")
	assert.Len(t, snapshot.pois, 3)
}

// TestContextCancellation verifies that cancelling one request context
// doesn't affect other concurrent requests to load the same source.
func TestContextCancellation(t *testing.T) {
	ctx := context.Background()

	db, cleanup := setupTestDB(t)
	defer cleanup()

	seedCatalog(t, db)

	cache := NewCatalogCache(db, Defaults())
	defer cache.Close()

	cancelledCtx, cancel := context.WithCancel(ctx)
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		// Load runs on a dedicated context, so this may still succeed
		errCh <- cache.LoadSource(cancelledCtx, "zagreb")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		errCh <- cache.LoadSource(ctx, "zagreb")
	}()

	wg.Wait()
	close(errCh)

	successCount := 0
	for err := range errCh {
		if err == nil {
			successCount++
		}
	}
	assert.GreaterOrEqual(t, successCount, 1, "At least one request should succeed")
}

// TestNearbyFiltering covers radius, category, and limit handling against a
// loaded snapshot.
func TestNearbyFiltering(t *testing.T) {
	ctx := context.Background()

	db, cleanup := setupTestDB(t)
	defer cleanup()

	seedCatalog(t, db)

	cache := NewCatalogCache(db, Defaults())
	defer cache.Close()

	require.NoError(t, cache.LoadSource(ctx, "zagreb"))
	require.NoError(t, cache.LoadSource(ctx, "ljubljana"))

	// Around Zagreb main square: Ljubljana entries are out of any sane radius
	results := cache.Nearby("", 45.8131, 15.9775, 20, nil, 0)
	require.Len(t, results, 3)
	assert.Equal(t, "Katedrala", results[0].POI.Name, "Nearest entry should come first")
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i].DistanceKm, results[i-1].DistanceKm)
	}

	// Category filter
	results = cache.Nearby("", 45.8131, 15.9775, 20, []string{"nature"}, 0)
	require.Len(t, results, 1)
	assert.Equal(t, "Jarun", results[0].POI.Name)

	// Limit truncates after sorting
	results = cache.Nearby("", 45.8131, 15.9775, 20, nil, 2)
	require.Len(t, results, 2)
	assert.Equal(t, "Katedrala", results[0].POI.Name)

	// Source scoping excludes the other city entirely
	results = cache.Nearby("ljubljana", 46.0514, 14.5060, 20, nil, 0)
	require.Len(t, results, 1)
	assert.Equal(t, "Ljubljanski grad", results[0].POI.Name)
}

// TestGetByExternalID resolves source identifiers against the snapshot.
func TestGetByExternalID(t *testing.T) {
	ctx := context.Background()

	db, cleanup := setupTestDB(t)
	defer cleanup()

	seedCatalog(t, db)

	cache := NewCatalogCache(db, Defaults())
	defer cache.Close()

	require.NoError(t, cache.LoadSource(ctx, "zagreb"))

	poi, ok := cache.GetByExternalID("zagreb", "zg-001")
	require.True(t, ok)
	assert.Equal(t, "Katedrala", poi.Name)

	_, ok = cache.GetByExternalID("zagreb", "missing")
	assert.False(t, ok)

	_, ok = cache.GetByExternalID("unknown-source", "zg-001")
	assert.False(t, ok)
}

// TestNilMapSafety verifies that querying unloaded sources doesn't panic.
func TestNilMapSafety(t *testing.T) {
	cache := &CatalogCache{
		sources: make(map[string]*SourceCache),
		config:  Defaults(),
		metrics: NewMetricsRecorder(),
	}

	results := cache.Nearby("missing", 45.0, 15.0, 10, nil, 5)
	assert.Empty(t, results)

	_, ok := cache.GetByExternalID("missing", "x")
	assert.False(t, ok)

	// Source registered but snapshot never stored
	cache.sources["empty"] = &SourceCache{}
	results = cache.Nearby("empty", 45.0, 15.0, 10, nil, 5)
	assert.Empty(t, results)
}

// TestWarmupLoadsAllSources runs the full warmup path.
func TestWarmupLoadsAllSources(t *testing.T) {
	ctx := context.Background()

	db, cleanup := setupTestDB(t)
	defer cleanup()

	seedCatalog(t, db)

	cache := NewCatalogCache(db, Defaults())
	defer cache.Close()

	require.NoError(t, cache.StartWarmup(ctx))
	assert.True(t, cache.IsHealthy(ctx))

	freshness := cache.GetFreshness(ctx)
	require.Len(t, freshness, 2)
	assert.Equal(t, 3, freshness["zagreb"].POICount)
	assert.Equal(t, 1, freshness["ljubljana"].POICount)
	assert.False(t, freshness["zagreb"].IsStale)
}

// setupTestDB creates a test PostgreSQL database using testcontainers.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "Failed to start postgres container")

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	config, err := pgxpool.ParseConfig(connStr)
	require.NoError(t, err)

	pool, err := pgxpool.NewWithConfig(ctx, config)
	require.NoError(t, err, "Failed to create connection pool")

	err = runTestMigrations(ctx, pool)
	require.NoError(t, err, "Failed to run migrations")

	cleanup := func() {
		pool.Close()
		testcontainers.TerminateContainer(container)
	}

	return pool, cleanup
}

// runTestMigrations runs minimal migrations for testing.
func runTestMigrations(ctx context.Context, db *pgxpool.Pool) error {
	schema := `
	CREATE TABLE IF NOT EXISTS pois (
		id TEXT PRIMARY KEY,
		source_slug TEXT,
		external_id TEXT,
		name TEXT NOT NULL,
		description TEXT,
		categories TEXT[] NOT NULL DEFAULT '{}',
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL,
		rating DOUBLE PRECISION,
		cost_index DOUBLE PRECISION,
		website TEXT,
		opening_hours TEXT,
		import_run_id TEXT,
		last_seen_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (source_slug, external_id)
	);
	`
	_, err := db.Exec(ctx, schema)
	return err
}

// seedCatalog inserts a small two-city catalog.
func seedCatalog(t *testing.T, db *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()

	_, err := db.Exec(ctx, `
		INSERT INTO pois (id, source_slug, external_id, name, categories, lat, lng, rating)
		VALUES
			('poi_zg1', 'zagreb', 'zg-001', 'Katedrala', '{culture}', 45.8144, 15.9790, 4.6),
			('poi_zg2', 'zagreb', 'zg-002', 'Dolac', '{market,food}', 45.8147, 15.9770, 4.4),
			('poi_zg3', 'zagreb', 'zg-003', 'Jarun', '{nature}', 45.7833, 15.9167, 4.3),
			('poi_lj1', 'ljubljana', 'lj-001', 'Ljubljanski grad', '{culture}', 46.0489, 14.5086, 4.7)
	`)
	require.NoError(t, err, "Failed to seed catalog")
}

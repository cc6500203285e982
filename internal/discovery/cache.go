package discovery

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/roamly/trip-service/internal/planner"
)

// CatalogCache holds per-source snapshots of the POI catalog. Snapshots are
// built off-lock and swapped atomically, so nearby queries never contend with
// loads.
type CatalogCache struct {
	sourcesMu sync.RWMutex
	sources   map[string]*SourceCache
	sf        singleFlightGroup

	db     *pgxpool.Pool
	config *Config

	// Warmup semaphore limits concurrent DB loads
	warmupSem *semaphore.Weighted

	// Circuit breaker for snapshot load failures
	circuitBreaker *CircuitBreaker

	// Warmup gate blocks queries until the first load is complete
	warmupGate *WarmupGate

	metrics *MetricsRecorder
	logger  *zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// singleFlightGroup prevents thundering herd on snapshot loads.
// We use a custom type instead of golang.org/x/sync/singleflight to allow
// a dedicated load context (not the request ctx) for better cancellation
// handling.
type singleFlightGroup struct {
	mu    sync.Mutex
	calls map[string]*singleFlightCall
}

type singleFlightCall struct {
	wg  sync.WaitGroup
	val *CatalogSnapshot
	err error
}

// SourceCache holds the catalog data for a single source with atomic
// snapshot swaps.
type SourceCache struct {
	snapshot atomic.Value // *CatalogSnapshot
	loadedAt atomic.Value // time.Time
}

// CatalogSnapshot is an immutable snapshot of one source's catalog entries.
type CatalogSnapshot struct {
	pois []CachedPOI

	// byExternalID maps the source's own identifier to an index into pois
	byExternalID map[string]int

	estimatedSizeBytes int64
}

// NewCatalogCache creates a new catalog cache instance.
func NewCatalogCache(db *pgxpool.Pool, config *Config) *CatalogCache {
	if config == nil {
		config = Defaults()
	}

	ctx, cancel := context.WithCancel(context.Background())
	logger := log.With().Str("component", "catalog_cache").Logger()

	return &CatalogCache{
		sources:        make(map[string]*SourceCache),
		db:             db,
		config:         config,
		warmupSem:      semaphore.NewWeighted(int64(config.WarmupConcurrency)),
		circuitBreaker: NewCircuitBreaker("catalog_cache", DefaultCircuitBreakerConfig(), &logger),
		warmupGate:     NewWarmupGate(&logger),
		metrics:        NewMetricsRecorder(),
		logger:         &logger,
		ctx:            ctx,
		cancel:         cancel,
	}
}

// StartWarmup loads catalog snapshots for all known sources.
// It respects the WarmupConcurrency limit to avoid overwhelming the database.
func (c *CatalogCache) StartWarmup(ctx context.Context) error {
	sources, err := c.getKnownSources(ctx)
	if err != nil {
		return fmt.Errorf("failed to get catalog sources: %w", err)
	}

	c.logger.Info().Int("sources", len(sources)).Msg("Starting catalog warmup")

	var wg sync.WaitGroup
	errCh := make(chan error, len(sources))

	for _, source := range sources {
		if err := c.warmupSem.Acquire(ctx, 1); err != nil {
			c.logger.Warn().Err(err).Str("source", source).Msg("Failed to acquire warmup semaphore")
			continue
		}

		wg.Add(1)
		go func(sourceSlug string) {
			defer c.warmupSem.Release(1)
			defer wg.Done()

			loadCtx, cancel := context.WithTimeout(context.Background(), c.config.CacheLoadTimeout)
			defer cancel()

			if err := c.LoadSource(loadCtx, sourceSlug); err != nil {
				c.logger.Error().Err(err).Str("source", sourceSlug).Msg("Failed to warm catalog snapshot")
				errCh <- fmt.Errorf("source %s: %w", sourceSlug, err)
			} else {
				c.logger.Info().Str("source", sourceSlug).Msg("Warmed catalog snapshot")
			}
		}(source)
	}

	go func() {
		wg.Wait()
		close(errCh)
	}()

	for err := range errCh {
		if err != nil {
			return err
		}
	}

	c.logger.Info().Msg("Catalog warmup completed")
	c.warmupGate.Ready()
	return nil
}

// LoadSource loads the catalog snapshot for a specific source using
// singleflight. Only one load per source can happen at a time.
func (c *CatalogCache) LoadSource(ctx context.Context, sourceSlug string) error {
	if !c.circuitBreaker.Allow(ctx) {
		c.logger.Warn().
			Str("source", sourceSlug).
			Str("circuit_state", c.circuitBreaker.State().String()).
			Msg("Circuit breaker rejected snapshot load")
		return fmt.Errorf("circuit breaker open for source %s", sourceSlug)
	}

	_, err, _ := c.sf.Do(sourceSlug, func() (*CatalogSnapshot, error) {
		// Use a dedicated load context, not the request context.
		// Cancellation of one request must not fail the shared load.
		loadCtx, cancel := context.WithTimeout(context.Background(), c.config.CacheLoadTimeout)
		defer cancel()

		start := time.Now()
		snapshot, loadErr := c.loadSourceSnapshot(loadCtx, sourceSlug)
		c.metrics.RecordCacheLoad(sourceSlug, time.Since(start).Seconds(), loadErr == nil)
		if loadErr != nil {
			c.circuitBreaker.RecordFailure(loadErr)
			return nil, loadErr
		}
		c.circuitBreaker.RecordSuccess()

		c.sourcesMu.Lock()
		sourceCache, exists := c.sources[sourceSlug]
		if !exists {
			sourceCache = &SourceCache{}
			c.sources[sourceSlug] = sourceCache
		}
		c.sourcesMu.Unlock()

		// Atomic snapshot swap
		sourceCache.snapshot.Store(snapshot)
		sourceCache.loadedAt.Store(time.Now())

		c.metrics.RecordSnapshot(sourceSlug, snapshot.estimatedSizeBytes, len(snapshot.pois))

		return snapshot, nil
	})

	return err
}

// RefreshSource is an alias for LoadSource for clarity.
func (c *CatalogCache) RefreshSource(ctx context.Context, sourceSlug string) error {
	return c.LoadSource(ctx, sourceSlug)
}

// loadSourceSnapshot reads one source's catalog in a single read-only
// transaction for a consistent view.
func (c *CatalogCache) loadSourceSnapshot(ctx context.Context, sourceSlug string) (*CatalogSnapshot, error) {
	startTime := time.Now()

	tx, err := c.db.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT id, COALESCE(external_id, ''), name, categories, lat, lng,
			rating, cost_index, COALESCE(opening_hours, '')
		FROM pois
		WHERE source_slug = $1
	`, sourceSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to query pois: %w", err)
	}
	defer rows.Close()

	snapshot := &CatalogSnapshot{
		byExternalID: make(map[string]int),
	}

	for rows.Next() {
		var poi CachedPOI
		if err := rows.Scan(
			&poi.ID, &poi.ExternalID, &poi.Name, &poi.Categories,
			&poi.Lat, &poi.Lng, &poi.Rating, &poi.CostIndex, &poi.OpeningHours,
		); err != nil {
			return nil, fmt.Errorf("failed to scan poi: %w", err)
		}

		snapshot.pois = append(snapshot.pois, poi)
		if poi.ExternalID != "" {
			snapshot.byExternalID[poi.ExternalID] = len(snapshot.pois) - 1
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pois: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	snapshot.estimatedSizeBytes = estimateSnapshotSize(snapshot)

	log.Info().
		Str("source", sourceSlug).
		Int("pois", len(snapshot.pois)).
		Dur("duration", time.Since(startTime)).
		Msg("Loaded catalog snapshot")

	return snapshot, nil
}

// Nearby returns cached entries within radiusKm of the point, nearest first.
// An empty sourceSlug searches every loaded source. Categories filter to
// entries carrying at least one of the given labels.
func (c *CatalogCache) Nearby(sourceSlug string, lat, lng, radiusKm float64, categories []string, limit int) []POIWithDistance {
	if radiusKm <= 0 || radiusKm > c.config.MaxRadiusKm {
		radiusKm = c.config.MaxRadiusKm
	}
	if limit <= 0 || limit > c.config.MaxResults {
		limit = c.config.MaxResults
	}

	snapshots := c.snapshotsFor(sourceSlug)

	var results []POIWithDistance
	for source, snapshot := range snapshots {
		if snapshot == nil {
			c.metrics.RecordCacheMiss(source)
			continue
		}
		c.metrics.RecordCacheHit(source)

		for _, poi := range snapshot.pois {
			dist := planner.HaversineKm(lat, lng, poi.Lat, poi.Lng)
			if dist > radiusKm {
				continue
			}
			if len(categories) > 0 && !hasAnyCategory(poi.Categories, categories) {
				continue
			}
			results = append(results, POIWithDistance{POI: poi, DistanceKm: dist})
		}
	}

	SortByDistance(results)
	if len(results) > limit {
		results = results[:limit]
	}

	c.metrics.RecordQueryResults(len(results))
	return results
}

// GetByExternalID resolves a source's own identifier to a cached entry.
func (c *CatalogCache) GetByExternalID(sourceSlug, externalID string) (CachedPOI, bool) {
	c.sourcesMu.RLock()
	sourceCache, exists := c.sources[sourceSlug]
	c.sourcesMu.RUnlock()

	if !exists {
		c.metrics.RecordCacheMiss(sourceSlug)
		return CachedPOI{}, false
	}

	snapshot := getSnapshot(sourceCache)
	if snapshot == nil {
		c.metrics.RecordCacheMiss(sourceSlug)
		return CachedPOI{}, false
	}

	idx, ok := snapshot.byExternalID[externalID]
	if !ok {
		return CachedPOI{}, false
	}
	return snapshot.pois[idx], true
}

// snapshotsFor returns the snapshots to search: one for a named source, or
// all loaded ones for an empty slug.
func (c *CatalogCache) snapshotsFor(sourceSlug string) map[string]*CatalogSnapshot {
	c.sourcesMu.RLock()
	defer c.sourcesMu.RUnlock()

	result := make(map[string]*CatalogSnapshot)
	if sourceSlug != "" {
		if sourceCache, ok := c.sources[sourceSlug]; ok {
			result[sourceSlug] = getSnapshot(sourceCache)
		} else {
			result[sourceSlug] = nil
		}
		return result
	}

	for slug, sourceCache := range c.sources {
		result[slug] = getSnapshot(sourceCache)
	}
	return result
}

// hasAnyCategory reports whether the entry carries at least one wanted label.
func hasAnyCategory(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

// getSnapshot safely gets the current snapshot for a source cache.
func getSnapshot(sourceCache *SourceCache) *CatalogSnapshot {
	val := sourceCache.snapshot.Load()
	if val == nil {
		return nil
	}
	return val.(*CatalogSnapshot)
}

// estimateSnapshotSize estimates the memory footprint of a snapshot in bytes.
func estimateSnapshotSize(s *CatalogSnapshot) int64 {
	size := int64(0)
	for _, poi := range s.pois {
		size += int64(len(poi.ID) + len(poi.ExternalID) + len(poi.Name) + len(poi.OpeningHours))
		for _, cat := range poi.Categories {
			size += int64(len(cat)) + 16
		}
		size += 96 // struct overhead, coordinates, pointers
	}
	size += int64(len(s.byExternalID)) * 64
	return size
}

// getKnownSources retrieves all source slugs present in the catalog.
func (c *CatalogCache) getKnownSources(ctx context.Context) ([]string, error) {
	rows, err := c.db.Query(ctx, `
		SELECT DISTINCT source_slug
		FROM pois
		WHERE source_slug IS NOT NULL
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, err
		}
		sources = append(sources, slug)
	}

	return sources, rows.Err()
}

// Do executes a single-flight call.
func (g *singleFlightGroup) Do(key string, fn func() (*CatalogSnapshot, error)) (*CatalogSnapshot, error, bool) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[string]*singleFlightCall)
	}

	if call, ok := g.calls[key]; ok {
		g.mu.Unlock()
		call.wg.Wait()
		return call.val, call.err, false // shared result
	}

	call := &singleFlightCall{}
	call.wg.Add(1)
	g.calls[key] = call
	g.mu.Unlock()

	call.val, call.err = fn()
	call.wg.Done()

	g.mu.Lock()
	delete(g.calls, key)
	g.mu.Unlock()

	return call.val, call.err, true // new result
}

// IsHealthy returns whether the cache is ready to serve queries.
func (c *CatalogCache) IsHealthy(ctx context.Context) bool {
	if c.circuitBreaker.State() == CircuitOpen {
		c.logger.Debug().Msg("Catalog cache unhealthy: circuit breaker is open")
		return false
	}

	if !c.warmupGate.IsReady() {
		c.logger.Debug().Msg("Catalog cache unhealthy: warmup not complete")
		return false
	}

	c.sourcesMu.RLock()
	defer c.sourcesMu.RUnlock()

	for _, sourceCache := range c.sources {
		if getSnapshot(sourceCache) != nil {
			return true
		}
	}

	c.logger.Debug().Msg("Catalog cache unhealthy: no valid snapshots")
	return false
}

// GetFreshness returns the load state for each source.
func (c *CatalogCache) GetFreshness(ctx context.Context) map[string]CacheFreshness {
	c.sourcesMu.RLock()
	defer c.sourcesMu.RUnlock()

	result := make(map[string]CacheFreshness)
	for slug, sourceCache := range c.sources {
		snapshot := getSnapshot(sourceCache)
		if snapshot == nil {
			result[slug] = CacheFreshness{IsStale: true}
			continue
		}

		loadedAtVal := sourceCache.loadedAt.Load()
		var loadedAt time.Time
		if loadedAtVal != nil {
			loadedAt = loadedAtVal.(time.Time)
		}

		result[slug] = CacheFreshness{
			LoadedAt:    loadedAt.Unix(),
			IsStale:     time.Since(loadedAt) > c.config.CacheTTL,
			EstimatedMB: snapshot.estimatedSizeBytes / (1024 * 1024),
			POICount:    len(snapshot.pois),
		}
	}

	return result
}

// WaitForWarmup blocks until warmup is complete or context is cancelled.
// Returns false if context was cancelled before warmup completed.
func (c *CatalogCache) WaitForWarmup(ctx context.Context) bool {
	return c.warmupGate.Wait(ctx)
}

// Close gracefully shuts down the cache.
func (c *CatalogCache) Close() error {
	c.cancel()
	c.wg.Wait()
	return nil
}

package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

// setupIntegrationTestDB starts a throwaway PostgreSQL container and points
// the package-level pool at it
func setupIntegrationTestDB(ctx context.Context, t testing.TB) (func(), error) {
	if testing.Short() {
		return func() {}, fmt.Errorf("skipping integration test in short mode")
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("get host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("get port: %w", err)
	}

	connString := fmt.Sprintf("postgres://test:test@%s:%s/test?sslmode=disable", host, port.Port())

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("parse config: %w", err)
	}

	testPool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := runTestMigrations(ctx, testPool); err != nil {
		testPool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("migrate: %w", err)
	}

	poolMu.Lock()
	pool = testPool
	poolMu.Unlock()

	cleanup := func() {
		poolMu.Lock()
		pool = nil
		poolMu.Unlock()
		testPool.Close()
		container.Terminate(ctx)
	}

	return cleanup, nil
}

// runTestMigrations sets up the minimal schema for testing
func runTestMigrations(ctx context.Context, db *pgxpool.Pool) error {
	schema := `
		-- Import runs
		CREATE TABLE IF NOT EXISTS import_runs (
			id TEXT PRIMARY KEY,
			source_slug TEXT NOT NULL,
			trigger TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			started_at TIMESTAMPTZ,
			completed_at TIMESTAMPTZ,
			total_files INTEGER,
			processed_files INTEGER,
			total_rows INTEGER,
			imported_rows INTEGER,
			error_count INTEGER,
			file_sha256 TEXT,
			metadata TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		-- Import errors
		CREATE TABLE IF NOT EXISTS import_errors (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL REFERENCES import_runs(id),
			filename TEXT,
			row_number INTEGER,
			field TEXT,
			error_type TEXT NOT NULL,
			error_message TEXT NOT NULL,
			severity TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		-- Points of interest
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
			import_run_id TEXT REFERENCES import_runs(id),
			last_seen_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (source_slug, external_id)
		);

		-- Trips
		CREATE TABLE IF NOT EXISTS trips (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			anchor_name TEXT,
			anchor_lat DOUBLE PRECISION,
			anchor_lng DOUBLE PRECISION,
			start_time TIMESTAMPTZ,
			objective DOUBLE PRECISION,
			solver TEXT,
			total_km DOUBLE PRECISION,
			feasible BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		-- Trip stops
		CREATE TABLE IF NOT EXISTS trip_stops (
			id TEXT PRIMARY KEY,
			trip_id TEXT NOT NULL REFERENCES trips(id),
			poi_id TEXT REFERENCES pois(id),
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			lat DOUBLE PRECISION NOT NULL,
			lng DOUBLE PRECISION NOT NULL,
			arrival TIMESTAMPTZ,
			departure TIMESTAMPTZ,
			travel_km DOUBLE PRECISION NOT NULL DEFAULT 0,
			window_violation TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`

	_, err := db.Exec(ctx, schema)
	return err
}

// TestPOIUpsertFlow verifies the upsert keeps one row per source item and
// refreshes its fields on re-import
func TestPOIUpsertFlow(t *testing.T) {
	ctx := context.Background()

	cleanup, err := setupIntegrationTestDB(ctx, t)
	if err != nil {
		t.Skipf("Skipping integration test: %v", err)
		return
	}
	defer cleanup()

	rating := 4.2
	poi := &POI{
		SourceSlug: strPtr("zagreb"),
		ExternalID: strPtr("zg-001"),
		Name:       "Muzej prekinutih veza",
		Categories: []string{"museum"},
		Lat:        45.8150,
		Lng:        15.9730,
		Rating:     &rating,
	}

	firstID, err := UpsertPOI(ctx, poi)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	// Same source item again with an updated rating
	updated := 4.6
	poi2 := &POI{
		SourceSlug: strPtr("zagreb"),
		ExternalID: strPtr("zg-001"),
		Name:       "Muzej prekinutih veza",
		Categories: []string{"museum", "culture"},
		Lat:        45.8150,
		Lng:        15.9730,
		Rating:     &updated,
	}
	secondID, err := UpsertPOI(ctx, poi2)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if firstID != secondID {
		t.Errorf("expected upsert to reuse row %s, got %s", firstID, secondID)
	}

	stored, err := GetPOI(ctx, firstID)
	if err != nil {
		t.Fatalf("get poi: %v", err)
	}
	if stored.Rating == nil || *stored.Rating != 4.6 {
		t.Errorf("expected rating 4.6 after upsert, got %v", stored.Rating)
	}
	if len(stored.Categories) != 2 {
		t.Errorf("expected 2 categories, got %v", stored.Categories)
	}

	var count int
	if err := Pool().QueryRow(ctx, `SELECT COUNT(*) FROM pois`).Scan(&count); err != nil {
		t.Fatalf("count pois: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 poi row, got %d", count)
	}
}

// TestSearchPOIsRadiusAndCategory exercises the haversine radius filter and
// nearest-first ordering
func TestSearchPOIsRadiusAndCategory(t *testing.T) {
	ctx := context.Background()

	cleanup, err := setupIntegrationTestDB(ctx, t)
	if err != nil {
		t.Skipf("Skipping integration test: %v", err)
		return
	}
	defer cleanup()

	seed := []POI{
		{SourceSlug: strPtr("zagreb"), ExternalID: strPtr("a"), Name: "Katedrala", Categories: []string{"culture"}, Lat: 45.8144, Lng: 15.9790},
		{SourceSlug: strPtr("zagreb"), ExternalID: strPtr("b"), Name: "Jarun", Categories: []string{"nature"}, Lat: 45.7833, Lng: 15.9167},
		{SourceSlug: strPtr("ljubljana"), ExternalID: strPtr("c"), Name: "Ljubljanski grad", Categories: []string{"culture"}, Lat: 46.0489, Lng: 14.5086},
	}
	for i := range seed {
		if _, err := UpsertPOI(ctx, &seed[i]); err != nil {
			t.Fatalf("seed poi %d: %v", i, err)
		}
	}

	// Search around Zagreb main square: the castle in Ljubljana is ~115 km
	// away and must not appear
	results, err := SearchPOIs(ctx, POISearchParams{Lat: 45.8131, Lng: 15.9775, RadiusKm: 20})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results within 20 km, got %d", len(results))
	}
	if results[0].Name != "Katedrala" {
		t.Errorf("expected nearest result first, got %s", results[0].Name)
	}

	// Category filter narrows it to the cathedral
	results, err = SearchPOIs(ctx, POISearchParams{Lat: 45.8131, Lng: 15.9775, RadiusKm: 20, Category: "culture"})
	if err != nil {
		t.Fatalf("category search: %v", err)
	}
	if len(results) != 1 || results[0].Name != "Katedrala" {
		t.Errorf("expected only Katedrala for category culture, got %v", results)
	}
}

// TestTripSaveAndReplaceStops covers trip CRUD and itinerary replacement
func TestTripSaveAndReplaceStops(t *testing.T) {
	ctx := context.Background()

	cleanup, err := setupIntegrationTestDB(ctx, t)
	if err != nil {
		t.Skipf("Skipping integration test: %v", err)
		return
	}
	defer cleanup()

	lat, lng := 45.8131, 15.9775
	trip := &Trip{
		Name:      "Zagreb day trip",
		AnchorLat: &lat,
		AnchorLng: &lng,
		Feasible:  true,
	}
	if err := CreateTrip(ctx, trip); err != nil {
		t.Fatalf("create trip: %v", err)
	}

	stops := []TripStop{
		{Name: "Katedrala", Lat: 45.8144, Lng: 15.9790, TravelKm: 0.2},
		{Name: "Dolac", Lat: 45.8147, Lng: 15.9770, TravelKm: 0.3},
	}
	if err := ReplaceTripStops(ctx, trip.ID, stops, 1.25, 0.5, "exact", true); err != nil {
		t.Fatalf("replace stops: %v", err)
	}

	// Replacing again with a different ordering must not accumulate rows
	reordered := []TripStop{
		{Name: "Dolac", Lat: 45.8147, Lng: 15.9770, TravelKm: 0.3},
		{Name: "Katedrala", Lat: 45.8144, Lng: 15.9790, TravelKm: 0.2},
	}
	if err := ReplaceTripStops(ctx, trip.ID, reordered, 1.10, 0.5, "exact", true); err != nil {
		t.Fatalf("replace stops again: %v", err)
	}

	saved, err := GetTripStops(ctx, trip.ID)
	if err != nil {
		t.Fatalf("get stops: %v", err)
	}
	if len(saved) != 2 {
		t.Fatalf("expected 2 stops, got %d", len(saved))
	}
	if saved[0].Name != "Dolac" || saved[0].Position != 0 {
		t.Errorf("expected Dolac first, got %s at %d", saved[0].Name, saved[0].Position)
	}

	stored, err := GetTrip(ctx, trip.ID)
	if err != nil {
		t.Fatalf("get trip: %v", err)
	}
	if stored.Objective == nil || *stored.Objective != 1.10 {
		t.Errorf("expected objective 1.10, got %v", stored.Objective)
	}

	if err := DeleteTrip(ctx, trip.ID); err != nil {
		t.Fatalf("delete trip: %v", err)
	}
	if _, err := GetTrip(ctx, trip.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

// TestImportRunLifecycle walks a run from pending to completed and verifies
// checksum-based dedup lookup
func TestImportRunLifecycle(t *testing.T) {
	ctx := context.Background()

	cleanup, err := setupIntegrationTestDB(ctx, t)
	if err != nil {
		t.Skipf("Skipping integration test: %v", err)
		return
	}
	defer cleanup()

	run := &ImportRun{
		SourceSlug: "zagreb",
		Trigger:    "manual",
	}
	if err := CreateImportRun(ctx, run); err != nil {
		t.Fatalf("create run: %v", err)
	}
	if run.Status != RunStatusPending {
		t.Errorf("expected pending status, got %s", run.Status)
	}

	started := time.Now()
	completed := started.Add(2 * time.Second)
	run.Status = RunStatusCompleted
	run.StartedAt = &started
	run.CompletedAt = &completed
	run.TotalRows = intPtr(120)
	run.ImportedRows = intPtr(118)
	run.ErrorCount = intPtr(2)
	run.FileSha256 = strPtr("abc123")
	if err := UpdateImportRun(ctx, run); err != nil {
		t.Fatalf("update run: %v", err)
	}

	if err := RecordImportError(ctx, &ImportError{
		RunID:        run.ID,
		Filename:     strPtr("pois.csv"),
		RowNumber:    intPtr(7),
		Field:        strPtr("lat"),
		ErrorType:    "invalid_coordinate",
		ErrorMessage: "latitude out of range",
		Severity:     "error",
	}); err != nil {
		t.Fatalf("record error: %v", err)
	}

	importErrors, err := GetImportErrors(ctx, run.ID, 10)
	if err != nil {
		t.Fatalf("get errors: %v", err)
	}
	if len(importErrors) != 1 || importErrors[0].ErrorType != "invalid_coordinate" {
		t.Errorf("unexpected import errors: %v", importErrors)
	}

	// Dedup lookup finds the completed run by file checksum
	dup, err := GetCompletedRunBySha256(ctx, "zagreb", "abc123")
	if err != nil {
		t.Fatalf("sha lookup: %v", err)
	}
	if dup.ID != run.ID {
		t.Errorf("expected run %s, got %s", run.ID, dup.ID)
	}
	if _, err := GetCompletedRunBySha256(ctx, "zagreb", "different"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for unknown checksum, got %v", err)
	}

	runs, err := ListImportRuns(ctx, "zagreb", 10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

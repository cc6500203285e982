package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/roamly/trip-service/internal/pkg/cuid2"
)

// UpsertPOI inserts or updates a point of interest keyed on its source and
// external identifier. Returns the persisted row ID.
func UpsertPOI(ctx context.Context, poi *POI) (string, error) {
	pool := Pool()

	if poi.ID == "" {
		poi.ID = cuid2.GeneratePrefixedId("poi", cuid2.PrefixedIdOptions{})
	}
	now := time.Now()

	query := `
		INSERT INTO pois (
			id, source_slug, external_id, name, description, categories,
			lat, lng, rating, cost_index, website, opening_hours,
			import_run_id, last_seen_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
		)
		ON CONFLICT (source_slug, external_id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			categories = EXCLUDED.categories,
			lat = EXCLUDED.lat,
			lng = EXCLUDED.lng,
			rating = EXCLUDED.rating,
			cost_index = EXCLUDED.cost_index,
			website = EXCLUDED.website,
			opening_hours = EXCLUDED.opening_hours,
			import_run_id = EXCLUDED.import_run_id,
			last_seen_at = EXCLUDED.last_seen_at,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`

	var id string
	err := pool.QueryRow(ctx, query,
		poi.ID, poi.SourceSlug, poi.ExternalID, poi.Name, poi.Description,
		poi.Categories, poi.Lat, poi.Lng, poi.Rating, poi.CostIndex,
		poi.Website, poi.OpeningHours, poi.ImportRunID, now, now, now,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to upsert poi: %w", err)
	}
	poi.ID = id
	return id, nil
}

// POISearchParams filters the catalog search
type POISearchParams struct {
	Lat      float64
	Lng      float64
	RadiusKm float64
	Category string
	Source   string
	Limit    int
}

// SearchPOIs returns catalog entries within a radius of a point, nearest
// first. The distance is computed with the haversine formula in SQL so the
// ordering matches the planner's travel estimates.
func SearchPOIs(ctx context.Context, params POISearchParams) ([]POI, error) {
	pool := Pool()

	if params.Limit <= 0 || params.Limit > 200 {
		params.Limit = 50
	}
	if params.RadiusKm <= 0 {
		params.RadiusKm = 10
	}

	query := `
		SELECT id, source_slug, external_id, name, description, categories,
			lat, lng, rating, cost_index, website, opening_hours,
			import_run_id, last_seen_at, created_at, updated_at
		FROM pois
		WHERE 6371 * 2 * asin(sqrt(
				power(sin(radians(lat - $1) / 2), 2) +
				cos(radians($1)) * cos(radians(lat)) *
				power(sin(radians(lng - $2) / 2), 2)
			)) <= $3
			AND ($4 = '' OR $4 = ANY(categories))
			AND ($5 = '' OR source_slug = $5)
		ORDER BY 6371 * 2 * asin(sqrt(
				power(sin(radians(lat - $1) / 2), 2) +
				cos(radians($1)) * cos(radians(lat)) *
				power(sin(radians(lng - $2) / 2), 2)
			)) ASC
		LIMIT $6
	`

	rows, err := pool.Query(ctx, query,
		params.Lat, params.Lng, params.RadiusKm, params.Category, params.Source, params.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search pois: %w", err)
	}
	defer rows.Close()

	pois := make([]POI, 0)
	for rows.Next() {
		var poi POI
		if err := rows.Scan(
			&poi.ID, &poi.SourceSlug, &poi.ExternalID, &poi.Name, &poi.Description,
			&poi.Categories, &poi.Lat, &poi.Lng, &poi.Rating, &poi.CostIndex,
			&poi.Website, &poi.OpeningHours, &poi.ImportRunID, &poi.LastSeenAt,
			&poi.CreatedAt, &poi.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan poi: %w", err)
		}
		pois = append(pois, poi)
	}
	return pois, rows.Err()
}

// GetPOI retrieves a single catalog entry by ID
func GetPOI(ctx context.Context, id string) (*POI, error) {
	pool := Pool()

	query := `
		SELECT id, source_slug, external_id, name, description, categories,
			lat, lng, rating, cost_index, website, opening_hours,
			import_run_id, last_seen_at, created_at, updated_at
		FROM pois
		WHERE id = $1
	`

	var poi POI
	err := pool.QueryRow(ctx, query, id).Scan(
		&poi.ID, &poi.SourceSlug, &poi.ExternalID, &poi.Name, &poi.Description,
		&poi.Categories, &poi.Lat, &poi.Lng, &poi.Rating, &poi.CostIndex,
		&poi.Website, &poi.OpeningHours, &poi.ImportRunID, &poi.LastSeenAt,
		&poi.CreatedAt, &poi.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get poi: %w", err)
	}
	return &poi, nil
}

// DeleteStalePOIs removes catalog entries for a source that were not seen in
// any import since the cutoff. Returns the number of deleted rows.
func DeleteStalePOIs(ctx context.Context, sourceSlug string, cutoff time.Time) (int64, error) {
	pool := Pool()

	result, err := pool.Exec(ctx, `
		DELETE FROM pois
		WHERE source_slug = $1 AND last_seen_at < $2
	`, sourceSlug, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale pois: %w", err)
	}
	return result.RowsAffected(), nil
}

// CountPOIsBySource returns per-source catalog sizes
func CountPOIsBySource(ctx context.Context) (map[string]int64, error) {
	pool := Pool()

	rows, err := pool.Query(ctx, `
		SELECT source_slug, COUNT(*)
		FROM pois
		GROUP BY source_slug
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count pois: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var slug string
		var count int64
		if err := rows.Scan(&slug, &count); err != nil {
			return nil, fmt.Errorf("failed to scan poi count: %w", err)
		}
		counts[slug] = count
	}
	return counts, rows.Err()
}

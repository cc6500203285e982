package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/roamly/trip-service/internal/pkg/cuid2"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// CreateTrip inserts a new trip record
func CreateTrip(ctx context.Context, trip *Trip) error {
	pool := Pool()

	if trip.ID == "" {
		trip.ID = cuid2.GeneratePrefixedId("trip", cuid2.PrefixedIdOptions{})
	}
	now := time.Now()
	trip.CreatedAt = now
	trip.UpdatedAt = now

	query := `
		INSERT INTO trips (
			id, name, anchor_name, anchor_lat, anchor_lng, start_time,
			objective, solver, total_km, feasible, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
	`

	_, err := pool.Exec(ctx, query,
		trip.ID, trip.Name, trip.AnchorName, trip.AnchorLat, trip.AnchorLng,
		trip.StartTime, trip.Objective, trip.Solver, trip.TotalKm,
		trip.Feasible, trip.CreatedAt, trip.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create trip: %w", err)
	}
	return nil
}

// GetTrip retrieves a trip by its ID
func GetTrip(ctx context.Context, id string) (*Trip, error) {
	pool := Pool()

	query := `
		SELECT id, name, anchor_name, anchor_lat, anchor_lng, start_time,
			objective, solver, total_km, feasible, created_at, updated_at
		FROM trips
		WHERE id = $1
	`

	var trip Trip
	err := pool.QueryRow(ctx, query, id).Scan(
		&trip.ID, &trip.Name, &trip.AnchorName, &trip.AnchorLat, &trip.AnchorLng,
		&trip.StartTime, &trip.Objective, &trip.Solver, &trip.TotalKm,
		&trip.Feasible, &trip.CreatedAt, &trip.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return &trip, nil
}

// ListTrips returns trips ordered by creation time, newest first
func ListTrips(ctx context.Context, limit, offset int) ([]Trip, error) {
	pool := Pool()

	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `
		SELECT id, name, anchor_name, anchor_lat, anchor_lng, start_time,
			objective, solver, total_km, feasible, created_at, updated_at
		FROM trips
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	defer rows.Close()

	trips := make([]Trip, 0)
	for rows.Next() {
		var trip Trip
		if err := rows.Scan(
			&trip.ID, &trip.Name, &trip.AnchorName, &trip.AnchorLat, &trip.AnchorLng,
			&trip.StartTime, &trip.Objective, &trip.Solver, &trip.TotalKm,
			&trip.Feasible, &trip.CreatedAt, &trip.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}

// DeleteTrip removes a trip and its stops
func DeleteTrip(ctx context.Context, id string) error {
	pool := Pool()

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM trip_stops WHERE trip_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete trip stops: %w", err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM trips WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete trip: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return tx.Commit(ctx)
}

// ReplaceTripStops replaces a trip's itinerary with a new ordered stop list
// in one transaction, and refreshes the trip's optimization summary.
func ReplaceTripStops(ctx context.Context, tripID string, stops []TripStop, objective, totalKm float64, solver string, feasible bool) error {
	pool := Pool()

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM trip_stops WHERE trip_id = $1`, tripID); err != nil {
		return fmt.Errorf("failed to clear trip stops: %w", err)
	}

	now := time.Now()
	for i := range stops {
		stop := &stops[i]
		if stop.ID == "" {
			stop.ID = cuid2.GeneratePrefixedId("stop", cuid2.PrefixedIdOptions{})
		}
		stop.TripID = tripID
		stop.Position = i
		stop.CreatedAt = now

		_, err := tx.Exec(ctx, `
			INSERT INTO trip_stops (
				id, trip_id, poi_id, position, name, lat, lng,
				arrival, departure, travel_km, window_violation, created_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
			)
		`,
			stop.ID, stop.TripID, stop.POIID, stop.Position, stop.Name,
			stop.Lat, stop.Lng, stop.Arrival, stop.Departure,
			stop.TravelKm, stop.WindowViolation, stop.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert trip stop: %w", err)
		}
	}

	result, err := tx.Exec(ctx, `
		UPDATE trips
		SET objective = $2, total_km = $3, solver = $4, feasible = $5, updated_at = $6
		WHERE id = $1
	`, tripID, objective, totalKm, solver, feasible, now)
	if err != nil {
		return fmt.Errorf("failed to update trip summary: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return tx.Commit(ctx)
}

// GetTripStops returns a trip's stops in visiting order
func GetTripStops(ctx context.Context, tripID string) ([]TripStop, error) {
	pool := Pool()

	query := `
		SELECT id, trip_id, poi_id, position, name, lat, lng,
			arrival, departure, travel_km, window_violation, created_at
		FROM trip_stops
		WHERE trip_id = $1
		ORDER BY position ASC
	`

	rows, err := pool.Query(ctx, query, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to get trip stops: %w", err)
	}
	defer rows.Close()

	stops := make([]TripStop, 0)
	for rows.Next() {
		var stop TripStop
		if err := rows.Scan(
			&stop.ID, &stop.TripID, &stop.POIID, &stop.Position, &stop.Name,
			&stop.Lat, &stop.Lng, &stop.Arrival, &stop.Departure,
			&stop.TravelKm, &stop.WindowViolation, &stop.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trip stop: %w", err)
		}
		stops = append(stops, stop)
	}
	return stops, rows.Err()
}

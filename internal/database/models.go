package database

import (
	"time"
)

// POI represents a catalog point of interest, imported from an open-data
// source or registered through the API
type POI struct {
	ID           string    `json:"id"`            // CUID2
	SourceSlug   *string   `json:"source_slug"`   // FK to the dataset source, nil for manual entries
	ExternalID   *string   `json:"external_id"`   // Source's internal ID
	Name         string    `json:"name"`          // Place name
	Description  *string   `json:"description"`   // Free-text description
	Categories   []string  `json:"categories"`    // Lowercased category labels
	Lat          float64   `json:"lat"`
	Lng          float64   `json:"lng"`
	Rating       *float64  `json:"rating"`        // 0-5 scale
	CostIndex    *float64  `json:"cost_index"`    // 0-1 scale
	Website      *string   `json:"website"`
	OpeningHours *string   `json:"opening_hours"` // Raw hours string from the source
	ImportRunID  *string   `json:"import_run_id"` // FK to import_runs.id
	LastSeenAt   time.Time `json:"last_seen_at"`  // Last import that contained this POI
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Trip represents a saved trip: an anchor plus an ordered itinerary
type Trip struct {
	ID        string    `json:"id"`   // CUID2
	Name      string    `json:"name"` // User-facing trip name
	AnchorName *string  `json:"anchor_name"`
	AnchorLat *float64  `json:"anchor_lat"`
	AnchorLng *float64  `json:"anchor_lng"`
	StartTime *time.Time `json:"start_time"`
	// Objective and solver are recorded from the optimization run that
	// produced the saved ordering
	Objective *float64  `json:"objective"`
	Solver    *string   `json:"solver"`
	TotalKm   *float64  `json:"total_km"`
	Feasible  bool      `json:"feasible"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TripStop represents one stop of a saved itinerary, in visiting order
type TripStop struct {
	ID              string     `json:"id"`       // CUID2
	TripID          string     `json:"trip_id"`  // FK to trips.id
	POIID           *string    `json:"poi_id"`   // FK to pois.id, nil for ad-hoc stops
	Position        int        `json:"position"` // 0-based position in the itinerary
	Name            string     `json:"name"`
	Lat             float64    `json:"lat"`
	Lng             float64    `json:"lng"`
	Arrival         *time.Time `json:"arrival"`
	Departure       *time.Time `json:"departure"`
	TravelKm        float64    `json:"travel_km"`
	WindowViolation *string    `json:"window_violation"` // Duration string, nil when inside the window
	CreatedAt       time.Time  `json:"created_at"`
}

// ImportRun represents a single dataset import run for a source
type ImportRun struct {
	ID             string     `json:"id"`          // CUID2
	SourceSlug     string     `json:"source_slug"` // FK to the dataset source
	Trigger        string     `json:"trigger"`     // 'cli', 'api', 'scheduled'
	Status         string     `json:"status"`      // 'pending', 'running', 'completed', 'failed'
	StartedAt      *time.Time `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at"`
	TotalFiles     *int       `json:"total_files"`
	ProcessedFiles *int       `json:"processed_files"`
	TotalRows      *int       `json:"total_rows"`
	ImportedRows   *int       `json:"imported_rows"`
	ErrorCount     *int       `json:"error_count"`
	FileSha256     *string    `json:"file_sha256"` // Checksum of the fetched file, for dedup
	Metadata       *string    `json:"metadata"`    // JSON for additional run info
	CreatedAt      time.Time  `json:"created_at"`
}

// ImportError represents an error recorded during an import run
type ImportError struct {
	ID           string    `json:"id"`     // CUID2
	RunID        string    `json:"run_id"` // FK to import_runs.id
	Filename     *string   `json:"filename"`
	RowNumber    *int      `json:"row_number"`
	Field        *string   `json:"field"`
	ErrorType    string    `json:"error_type"` // 'fetch', 'parse', 'validation', 'persist'
	ErrorMessage string    `json:"error_message"`
	Severity     string    `json:"severity"` // 'warning', 'error', 'critical'
	CreatedAt    time.Time `json:"created_at"`
}

package planner

import (
	"fmt"
	"math"
	"time"
)

// TimeWindow is an inclusive interval during which a stop is open or a
// visit is permitted.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the inclusive interval [Start, End].
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Anchor is a fixed, often time-boxed, point in a trip (e.g. the hotel)
// used as the reference for distance-based scoring. The planner only
// reads anchors, it never mutates them.
type Anchor struct {
	ID     string
	Name   string
	Lat    float64
	Lng    float64
	Window *TimeWindow
}

// CandidateStop is an externally discovered point of interest. All optional
// fields use nil to mean "not supplied"; the scorer substitutes the
// documented defaults (rating 3.5, cost index 0.3, always open).
type CandidateStop struct {
	ID          string
	Name        string
	Lat         float64
	Lng         float64
	Categories  []string
	Rating      *float64 // 0-5
	CostIndex   *float64 // 0-1
	OpenWindows []TimeWindow
}

// Conditions carries the live context hints the caller supplies as plain
// values (no network access happens inside the planner). The zero value is
// valid: crowd level 0, weather penalty 0, and Now defaulting to the wall
// clock at call time.
type Conditions struct {
	Now            time.Time
	CrowdLevel     float64
	WeatherPenalty float64
}

// PreferenceWeights defines the relative importance of each scoring term.
// A weight of 0 disables that term. The same vocabulary drives the route
// objective: travel maps to Distance, stop cost to Cost, desirability
// credit to Rating, and time-window penalties to OpenNow.
type PreferenceWeights struct {
	Distance         float64
	Rating           float64
	OpenNow          float64
	Weather          float64
	Crowding         float64
	Cost             float64
	CategoryAffinity map[string]float64
}

// Validate checks that every weight is finite and non-negative.
func (w PreferenceWeights) Validate() error {
	fields := map[string]float64{
		"distance": w.Distance,
		"rating":   w.Rating,
		"openNow":  w.OpenNow,
		"weather":  w.Weather,
		"crowding": w.Crowding,
		"cost":     w.Cost,
	}
	for name, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrInvalidRequest{Field: "weights." + name, Reason: "must be finite"}
		}
		if v < 0 {
			return ErrInvalidRequest{Field: "weights." + name, Reason: "must be non-negative"}
		}
	}
	for cat, v := range w.CategoryAffinity {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrInvalidRequest{Field: "weights.categoryAffinity." + cat, Reason: "must be finite"}
		}
	}
	return nil
}

// ScoreBreakdown is a candidate's total score plus the itemized contribution
// of each weighted term, keyed by term name ("distance", "rating", "openNow",
// "category", "weather", "crowding", "cost"). Used both for ranking and for
// human-readable rationale.
type ScoreBreakdown struct {
	CandidateID string
	Total       float64
	Terms       map[string]float64
	// Degenerate marks candidates whose score collapsed to NaN (broken
	// coordinate math upstream). They are pinned to the lowest rank
	// instead of corrupting the sort.
	Degenerate bool
}

// Stop is the routing-level generalization of CandidateStop/Anchor: anything
// the route optimizer can order and schedule.
type Stop struct {
	ID        string
	Name      string
	Lat       float64
	Lng       float64
	Anchor    bool // pinned at position 0 of the route
	Window    *TimeWindow
	Dwell     time.Duration
	Rating    *float64
	CostIndex *float64
}

// RouteStop is a Stop annotated with its computed schedule within a route.
type RouteStop struct {
	Stop
	Arrival   time.Time
	Departure time.Time
	// TravelKm is the geometric distance from the previous stop (0 for the
	// first stop).
	TravelKm float64
	// WindowViolation is how far outside the stop's declared window the
	// arrival falls. Zero when the stop has no window or the arrival is
	// inside it. Violations are soft conditions, never errors.
	WindowViolation time.Duration
}

// Route is an ordered sequence of stops with computed arrival/departure
// instants and the aggregate objective value (lower is better).
type Route struct {
	Stops     []RouteStop
	Objective float64
	TotalKm   float64
	Solver    SolverKind
	// Feasible is false when at least one time window is violated and the
	// request asked for strict windows. A best-effort ordering is still
	// returned.
	Feasible   bool
	Iterations int
}

// RouteOptions configures a single OptimizeRoute call.
type RouteOptions struct {
	StartTime time.Time
	Weights   PreferenceWeights
	// Seed makes the annealing run reproducible. 0 selects a time-based
	// seed for production use.
	Seed int64
	// Strict marks routes with any window violation as infeasible instead
	// of only penalizing them.
	Strict bool
}

// ErrInvalidRequest is returned for structurally invalid inputs: non-finite
// coordinates, negative weights, or a missing start time. Malformed but
// type-valid inputs (empty lists, absent optional fields) never raise; they
// use the documented defaults.
type ErrInvalidRequest struct {
	Field  string
	Reason string
	Index  int
}

func (e ErrInvalidRequest) Error() string {
	return e.Field + ": " + e.Reason
}

func validateCoords(field string, idx int, lat, lng float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lng) || math.IsInf(lng, 0) {
		return ErrInvalidRequest{Field: field, Reason: fmt.Sprintf("entry %d has non-finite coordinates", idx), Index: idx}
	}
	return nil
}

// Default substitutions for absent optional candidate fields. These values
// are part of the scoring contract, not an implementation detail.
const (
	defaultRating    = 3.5
	defaultCostIndex = 0.3
)

func ratingOrDefault(r *float64) float64 {
	if r == nil {
		return defaultRating
	}
	return *r
}

func costOrDefault(c *float64) float64 {
	if c == nil {
		return defaultCostIndex
	}
	return *c
}

package planner

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var routeStart = time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC)

func distanceOnly() PreferenceWeights {
	return PreferenceWeights{Distance: 1}
}

// cityStops returns n stops scattered around a city center, the first one
// marked as the anchor. Coordinates are fixed so every run sees the same
// instance.
func cityStops(n int) []Stop {
	coords := [][2]float64{
		{45.8150, 15.9819}, {45.8009, 15.9700}, {45.8230, 16.0190},
		{45.7720, 15.9460}, {45.8350, 15.9120}, {45.7900, 16.0500},
		{45.8600, 15.9900}, {45.7550, 16.0100}, {45.8450, 16.0700},
		{45.7800, 15.8900}, {45.8700, 15.9300}, {45.7400, 15.9600},
	}
	stops := make([]Stop, n)
	for i := 0; i < n; i++ {
		stops[i] = Stop{
			ID:    string(rune('a' + i)),
			Lat:   coords[i%len(coords)][0],
			Lng:   coords[i%len(coords)][1],
			Dwell: 30 * time.Minute,
		}
	}
	stops[0].Anchor = true
	return stops
}

func stopIDs(r Route) []string {
	ids := make([]string, len(r.Stops))
	for i, s := range r.Stops {
		ids[i] = s.ID
	}
	return ids
}

// bruteForceBest enumerates permutations of the free suffix recursively and
// returns the lowest objective, independent of the production search.
func bruteForceBest(stops []Stop, order []int, free int, opts RouteOptions, cfg *Config) float64 {
	best := math.Inf(1)
	var walk func(k int)
	walk = func(k int) {
		if k == len(order) {
			if obj := evalOrder(stops, order, opts, cfg).objective(opts.Weights); obj < best {
				best = obj
			}
			return
		}
		for i := k; i < len(order); i++ {
			order[k], order[i] = order[i], order[k]
			walk(k + 1)
			order[k], order[i] = order[i], order[k]
		}
	}
	walk(free)
	return best
}

func TestSolverForDispatch(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, SolverExact, SolverFor(0, cfg))
	assert.Equal(t, SolverExact, SolverFor(8, cfg))
	assert.Equal(t, SolverAnneal, SolverFor(9, cfg))

	cfg.ExactThreshold = 3
	assert.Equal(t, SolverExact, SolverFor(3, cfg))
	assert.Equal(t, SolverAnneal, SolverFor(4, cfg))
}

// TestExactMatchesBruteForce checks the exhaustive solver against an
// independent recursive enumeration on a 6-stop instance.
func TestExactMatchesBruteForce(t *testing.T) {
	cfg := DefaultConfig()
	stops := cityStops(6)
	opts := RouteOptions{StartTime: routeStart, Weights: distanceOnly()}

	order := initialOrder(stops)
	bestOrder, bestObj, evaluated := exactSolve(context.Background(), stops, order, opts, cfg)

	ref := append([]int(nil), initialOrder(stops)...)
	expected := bruteForceBest(stops, ref, 1, opts, cfg)

	assert.InDelta(t, expected, bestObj, 1e-9)
	assert.InDelta(t, expected, evalOrder(stops, bestOrder, opts, cfg).objective(opts.Weights), 1e-9)
	assert.Equal(t, 120, evaluated) // 5! permutations of the free suffix
}

func TestExactKeepsAnchorFirst(t *testing.T) {
	p := New(nil)
	stops := cityStops(5)
	// anchor deliberately not first in the input
	stops[0].Anchor = false
	stops[3].Anchor = true

	route, err := p.OptimizeRoute(context.Background(), stops, RouteOptions{StartTime: routeStart, Weights: distanceOnly()})
	require.NoError(t, err)
	require.Len(t, route.Stops, 5)
	assert.Equal(t, SolverExact, route.Solver)
	assert.True(t, route.Stops[0].Anchor)
	assert.Equal(t, stops[3].ID, route.Stops[0].ID)
}

// TestAnnealDeterministicUnderSeed verifies that a fixed seed replays the
// annealing run exactly.
func TestAnnealDeterministicUnderSeed(t *testing.T) {
	p := New(nil)
	stops := cityStops(12)
	opts := RouteOptions{StartTime: routeStart, Weights: distanceOnly(), Seed: 42}

	first, err := p.OptimizeRoute(context.Background(), stops, opts)
	require.NoError(t, err)
	second, err := p.OptimizeRoute(context.Background(), stops, opts)
	require.NoError(t, err)

	assert.Equal(t, SolverAnneal, first.Solver)
	assert.Equal(t, stopIDs(first), stopIDs(second))
	assert.Equal(t, first.Objective, second.Objective)
	assert.Equal(t, first.TotalKm, second.TotalKm)
}

// TestAnnealNearExactOptimum forces the annealer onto an instance small
// enough to solve exactly and checks it lands within 5% of the optimum.
func TestAnnealNearExactOptimum(t *testing.T) {
	stops := cityStops(7)
	opts := RouteOptions{StartTime: routeStart, Weights: distanceOnly(), Seed: 7}

	exactRoute, err := New(nil).OptimizeRoute(context.Background(), stops, opts)
	require.NoError(t, err)
	require.Equal(t, SolverExact, exactRoute.Solver)

	cfg := DefaultConfig()
	cfg.ExactThreshold = 2
	saRoute, err := New(cfg).OptimizeRoute(context.Background(), stops, opts)
	require.NoError(t, err)
	require.Equal(t, SolverAnneal, saRoute.Solver)

	assert.LessOrEqual(t, saRoute.TotalKm, exactRoute.TotalKm*1.05)
}

// TestAnnealMatchesExactOnFourStops reproduces the reference instance:
// on a 4-stop route with a generous iteration budget both solvers find the
// same best-known total distance.
func TestAnnealMatchesExactOnFourStops(t *testing.T) {
	stops := cityStops(4)
	opts := RouteOptions{StartTime: routeStart, Weights: distanceOnly(), Seed: 99}

	exactRoute, err := New(nil).OptimizeRoute(context.Background(), stops, opts)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.ExactThreshold = 2
	saRoute, err := New(cfg).OptimizeRoute(context.Background(), stops, opts)
	require.NoError(t, err)

	assert.InDelta(t, exactRoute.TotalKm, saRoute.TotalKm, 1e-9)
	assert.InDelta(t, exactRoute.Objective, saRoute.Objective, 1e-9)
}

func TestOptimizeRouteEmptyAndSingle(t *testing.T) {
	p := New(nil)

	empty, err := p.OptimizeRoute(context.Background(), nil, RouteOptions{StartTime: routeStart})
	require.NoError(t, err)
	assert.Empty(t, empty.Stops)
	assert.True(t, empty.Feasible)
	assert.Zero(t, empty.Objective)

	single, err := p.OptimizeRoute(context.Background(), cityStops(1), RouteOptions{StartTime: routeStart, Weights: distanceOnly()})
	require.NoError(t, err)
	require.Len(t, single.Stops, 1)
	assert.Equal(t, routeStart, single.Stops[0].Arrival)
	assert.Zero(t, single.TotalKm)
}

func TestOptimizeRouteValidation(t *testing.T) {
	p := New(nil)

	tests := []struct {
		name  string
		stops []Stop
		opts  RouteOptions
	}{
		{
			name:  "zero start time",
			stops: cityStops(3),
			opts:  RouteOptions{Weights: distanceOnly()},
		},
		{
			name:  "negative weight",
			stops: cityStops(3),
			opts:  RouteOptions{StartTime: routeStart, Weights: PreferenceWeights{Distance: -2}},
		},
		{
			name:  "non-finite coordinates",
			stops: []Stop{{ID: "x", Lat: math.Inf(1), Lng: 0}},
			opts:  RouteOptions{StartTime: routeStart},
		},
		{
			name: "two anchors",
			stops: []Stop{
				{ID: "a", Lat: 1, Lng: 1, Anchor: true},
				{ID: "b", Lat: 2, Lng: 2, Anchor: true},
			},
			opts: RouteOptions{StartTime: routeStart},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.OptimizeRoute(context.Background(), tt.stops, tt.opts)
			require.Error(t, err)
			var invalid ErrInvalidRequest
			assert.ErrorAs(t, err, &invalid)
		})
	}
}

// TestWindowViolationsAreSoft verifies that an unsatisfiable window never
// fails the call: the route comes back annotated, and only a strict request
// marks it infeasible.
func TestWindowViolationsAreSoft(t *testing.T) {
	p := New(nil)
	closed := &TimeWindow{Start: routeStart.Add(-4 * time.Hour), End: routeStart.Add(-2 * time.Hour)}
	stops := cityStops(3)
	stops[2].Window = closed

	opts := RouteOptions{StartTime: routeStart, Weights: distanceOnly()}
	route, err := p.OptimizeRoute(context.Background(), stops, opts)
	require.NoError(t, err)
	assert.True(t, route.Feasible)

	var violated bool
	for _, s := range route.Stops {
		if s.WindowViolation > 0 {
			violated = true
		}
	}
	assert.True(t, violated)

	opts.Strict = true
	strict, err := p.OptimizeRoute(context.Background(), stops, opts)
	require.NoError(t, err)
	assert.False(t, strict.Feasible)
}

// TestWindowPenaltySteersOrdering verifies the openNow weight pulls a
// time-boxed stop into its window when geometry alone would not.
func TestWindowPenaltySteersOrdering(t *testing.T) {
	p := New(nil)
	stops := cityStops(4)
	// only open right at the start of the trip
	stops[3].Window = &TimeWindow{Start: routeStart, End: routeStart.Add(20 * time.Minute)}

	w := distanceOnly()
	w.OpenNow = 100
	route, err := p.OptimizeRoute(context.Background(), stops, RouteOptions{StartTime: routeStart, Weights: w})
	require.NoError(t, err)

	// the anchor holds position 0, so the best the windowed stop can do is
	// come straight after it
	assert.Equal(t, stops[3].ID, route.Stops[1].ID)
}

// TestCancelledContextReturnsBestEffort verifies that cancellation is not
// an error: the solver stops early and returns the best order seen.
func TestCancelledContextReturnsBestEffort(t *testing.T) {
	p := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	route, err := p.OptimizeRoute(ctx, cityStops(12), RouteOptions{StartTime: routeStart, Weights: distanceOnly(), Seed: 1})
	require.NoError(t, err)
	assert.Len(t, route.Stops, 12)
	assert.Less(t, route.Iterations, DefaultConfig().Iterations)
}

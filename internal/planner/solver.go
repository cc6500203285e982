package planner

import (
	"context"
	"math/rand"
	"time"
)

// SolverKind identifies which ordering algorithm handled a route.
type SolverKind string

const (
	// SolverExact enumerates all permutations; global optimum, O(n!).
	SolverExact SolverKind = "exact"
	// SolverAnneal runs simulated annealing; near-optimal, bounded time.
	SolverAnneal SolverKind = "anneal"
)

// SolverFor selects the solver purely from the input size: exhaustive
// search up to the configured threshold, simulated annealing beyond it.
// Kept as a standalone function so the dispatch rule is testable on its own.
func SolverFor(n int, cfg *Config) SolverKind {
	if n <= cfg.ExactThreshold {
		return SolverExact
	}
	return SolverAnneal
}

// OptimizeRoute orders the given stops into a visiting sequence that
// balances travel effort, cost, rating and time-window feasibility, and
// annotates each stop with computed arrival/departure instants walked from
// opts.StartTime. Window infeasibility is always a soft condition surfaced
// on the result; the call fails only for structurally invalid input.
func (p *Planner) OptimizeRoute(ctx context.Context, stops []Stop, opts RouteOptions) (Route, error) {
	startTime := time.Now()
	solver := SolverFor(len(stops), p.config)
	defer func() {
		p.metrics.RecordRouteDuration(string(solver), time.Since(startTime))
	}()

	if err := p.validateRouteRequest(stops, opts); err != nil {
		return Route{}, err
	}

	p.metrics.RecordRouteStops(len(stops))

	// Degenerate inputs: an empty route has the neutral objective 0; a
	// single stop needs no ordering decision.
	if len(stops) == 0 {
		return Route{Stops: []RouteStop{}, Feasible: true, Solver: solver}, nil
	}
	order := initialOrder(stops)
	if len(stops) == 1 {
		route := buildRoute(stops, order, opts, p.config)
		route.Solver = solver
		return route, nil
	}

	var (
		iters int
		obj   float64
	)
	switch solver {
	case SolverExact:
		order, obj, iters = exactSolve(ctx, stops, order, opts, p.config)
	default:
		seed := opts.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng := rand.New(rand.NewSource(seed))
		order = nearestNeighborOrder(stops, order)
		order, obj, iters = annealSolve(ctx, stops, order, opts, p.config, rng)
	}

	route := buildRoute(stops, order, opts, p.config)
	route.Solver = solver
	route.Iterations = iters

	p.metrics.RecordRouteObjective(obj)
	if !route.Feasible {
		p.metrics.RecordInfeasibleRoute()
	}
	p.logger.Debug().
		Str("solver", string(solver)).
		Int("stops", len(stops)).
		Int("iterations", iters).
		Float64("objective", route.Objective).
		Bool("feasible", route.Feasible).
		Msg("route optimized")
	return route, nil
}

// validateRouteRequest rejects structurally invalid input: non-finite
// coordinates, negative weights, a zero start time, more than one anchor,
// or an oversized stop set.
func (p *Planner) validateRouteRequest(stops []Stop, opts RouteOptions) error {
	if opts.StartTime.IsZero() {
		return ErrInvalidRequest{Field: "startTime", Reason: "must be set"}
	}
	if err := opts.Weights.Validate(); err != nil {
		return err
	}
	if len(stops) > p.config.MaxStops {
		return ErrInvalidRequest{Field: "stops", Reason: "exceeds maximum allowed"}
	}
	anchors := 0
	for i, s := range stops {
		if err := validateCoords("stops", i, s.Lat, s.Lng); err != nil {
			return err
		}
		if s.Anchor {
			anchors++
		}
	}
	if anchors > 1 {
		return ErrInvalidRequest{Field: "stops", Reason: "at most one anchor stop allowed"}
	}
	return nil
}

// initialOrder is the identity permutation with the anchor, when present,
// moved to the front.
func initialOrder(stops []Stop) []int {
	order := make([]int, len(stops))
	for i := range order {
		order[i] = i
	}
	for i, s := range stops {
		if s.Anchor && i != 0 {
			order[0], order[i] = order[i], order[0]
			break
		}
	}
	return order
}

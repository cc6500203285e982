package planner

import (
	"math"
	"time"
)

// routeTotals accumulates the raw ingredients of the combined objective for
// one visiting order.
type routeTotals struct {
	travelKm       float64
	travelHours    float64
	costSum        float64
	ratingSum      float64
	violationHours float64
	violations     int
}

// objective combines the totals under the shared weight vocabulary:
// travel maps to Distance, stop cost to Cost, desirability credit to Rating
// and window penalties to OpenNow. Lower is better; the rating credit is
// subtracted so better-rated stops reduce the cost. A NaN (degenerate
// coordinate math) collapses to +Inf so it can never win a comparison.
func (t routeTotals) objective(w PreferenceWeights) float64 {
	obj := w.Distance*t.travelHours +
		w.Cost*t.costSum -
		w.Rating*t.ratingSum/5 +
		w.OpenNow*t.violationHours
	if math.IsNaN(obj) {
		return math.Inf(1)
	}
	return obj
}

// evalOrder walks the route from opts.StartTime and returns the totals for
// the given visiting order. Arrival at stop k is the start time plus all
// travel times of edges 1..k plus the dwell durations of stops 1..k-1;
// window violations accumulate as soft penalties, never errors. The walk
// allocates nothing so solvers can call it in tight loops.
func evalOrder(stops []Stop, order []int, opts RouteOptions, cfg *Config) routeTotals {
	var t routeTotals
	now := opts.StartTime
	for i, idx := range order {
		s := stops[idx]
		if i > 0 {
			prev := stops[order[i-1]]
			km := HaversineKm(prev.Lat, prev.Lng, s.Lat, s.Lng)
			t.travelKm += km
			t.travelHours += km / cfg.TravelSpeedKmh
			now = now.Add(travelTime(km, cfg.TravelSpeedKmh))
		}
		if v := windowViolation(s, now); v > 0 {
			t.violationHours += v.Hours()
			t.violations++
		}
		t.costSum += costOrDefault(s.CostIndex)
		t.ratingSum += ratingOrDefault(s.Rating)
		now = now.Add(s.Dwell)
	}
	return t
}

// windowViolation returns how far outside the stop's declared window the
// arrival falls, or 0 when the stop has no window or the arrival is inside.
func windowViolation(s Stop, arrival time.Time) time.Duration {
	if s.Window == nil {
		return 0
	}
	if arrival.Before(s.Window.Start) {
		return s.Window.Start.Sub(arrival)
	}
	if arrival.After(s.Window.End) {
		return arrival.Sub(s.Window.End)
	}
	return 0
}

// buildRoute annotates the chosen order with per-stop arrival/departure
// instants and assembles the final Route.
func buildRoute(stops []Stop, order []int, opts RouteOptions, cfg *Config) Route {
	t := evalOrder(stops, order, opts, cfg)
	route := Route{
		Stops:     make([]RouteStop, 0, len(order)),
		Objective: t.objective(opts.Weights),
		TotalKm:   t.travelKm,
		Feasible:  true,
	}
	if opts.Strict && t.violations > 0 {
		route.Feasible = false
	}

	now := opts.StartTime
	for i, idx := range order {
		s := stops[idx]
		rs := RouteStop{Stop: s}
		if i > 0 {
			prev := stops[order[i-1]]
			rs.TravelKm = HaversineKm(prev.Lat, prev.Lng, s.Lat, s.Lng)
			now = now.Add(travelTime(rs.TravelKm, cfg.TravelSpeedKmh))
		}
		rs.Arrival = now
		rs.WindowViolation = windowViolation(s, now)
		now = now.Add(s.Dwell)
		rs.Departure = now
		route.Stops = append(route.Stops, rs)
	}
	return route
}

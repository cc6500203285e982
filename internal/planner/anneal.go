package planner

import (
	"context"
	"math"
	"math/rand"
)

// annealSolve improves a visiting order with simulated annealing. Each
// iteration proposes a local move (pairwise swap or sub-segment reversal
// between two random free positions), accepts improving moves
// unconditionally and worsening moves with probability exp(-delta/T), then
// cools T by the configured rate. The best order seen across the whole run
// is tracked separately and returned, never the final current state. The
// anchor, if present, never leaves position 0.
//
// All randomness flows through the supplied rng, so a fixed seed replays
// the run exactly. Cancellation is observed between iterations; on a
// deadline the best-so-far order is returned, not an error.
func annealSolve(ctx context.Context, stops []Stop, order []int, opts RouteOptions, cfg *Config, rng *rand.Rand) ([]int, float64, int) {
	free := 1
	if len(order) == 0 || !stops[order[0]].Anchor {
		free = 0
	}

	curr := append([]int(nil), order...)
	currObj := evalOrder(stops, curr, opts, cfg).objective(opts.Weights)
	best := append([]int(nil), curr...)
	bestObj := currObj

	temp := cfg.InitialTemp
	n := len(curr)
	iters := 0
	for ; iters < cfg.Iterations; iters++ {
		if iters&255 == 0 && ctx.Err() != nil {
			break
		}

		i := free + rng.Intn(n-free)
		j := free + rng.Intn(n-free)
		if i == j {
			continue
		}
		if i > j {
			i, j = j, i
		}

		reversal := rng.Intn(2) == 0
		if reversal {
			reverse(curr, i, j)
		} else {
			curr[i], curr[j] = curr[j], curr[i]
		}

		obj := evalOrder(stops, curr, opts, cfg).objective(opts.Weights)
		delta := obj - currObj
		if delta < 0 || rng.Float64() < math.Exp(-delta/(temp+1e-9)) {
			currObj = obj
			if obj < bestObj {
				bestObj = obj
				copy(best, curr)
			}
		} else {
			// revert the move
			if reversal {
				reverse(curr, i, j)
			} else {
				curr[i], curr[j] = curr[j], curr[i]
			}
		}
		temp *= cfg.CoolingRate
	}
	return best, bestObj, iters
}

// nearestNeighborOrder builds the initial order greedily: starting from the
// first stop (the anchor when present), repeatedly hop to the closest
// unvisited stop. A decent seed shortens the annealing burn-in.
func nearestNeighborOrder(stops []Stop, order []int) []int {
	if len(order) < 3 {
		return order
	}
	out := make([]int, 0, len(order))
	used := make([]bool, len(order))
	out = append(out, order[0])
	used[0] = true
	cur := stops[order[0]]
	for len(out) < len(order) {
		bestPos, bestKm := -1, math.MaxFloat64
		for pos, idx := range order {
			if used[pos] {
				continue
			}
			km := HaversineKm(cur.Lat, cur.Lng, stops[idx].Lat, stops[idx].Lng)
			if km < bestKm {
				bestKm = km
				bestPos = pos
			}
		}
		used[bestPos] = true
		out = append(out, order[bestPos])
		cur = stops[order[bestPos]]
	}
	return out
}

func reverse(s []int, i, j int) {
	for a, b := i, j; a < b; a, b = a+1, b-1 {
		s[a], s[b] = s[b], s[a]
	}
}

package planner

import (
	"context"
)

// exactSolve enumerates every permutation of the free (non-anchor) stops
// and returns the order with the lowest combined objective. The anchor, if
// present, stays pinned at position 0. Guaranteed global optimum; O(n!)
// time, which the dispatcher bounds via the exact threshold. Ties keep the
// first permutation found so the result is deterministic.
func exactSolve(ctx context.Context, stops []Stop, order []int, opts RouteOptions, cfg *Config) ([]int, float64, int) {
	free := 1 // permute positions [free:], keeping the anchor fixed
	if len(order) == 0 || !stops[order[0]].Anchor {
		free = 0
	}

	best := append([]int(nil), order...)
	bestObj := evalOrder(stops, order, opts, cfg).objective(opts.Weights)
	evaluated := 1

	perm := append([]int(nil), order...)
	// Heap's algorithm over the free suffix; the wall clock is checked at
	// a low fixed cadence so the deadline guard stays off the hot path.
	n := len(perm) - free
	c := make([]int, n)
	i := 0
	for i < n {
		if c[i] < i {
			if i%2 == 0 {
				perm[free], perm[free+i] = perm[free+i], perm[free]
			} else {
				perm[free+c[i]], perm[free+i] = perm[free+i], perm[free+c[i]]
			}
			evaluated++
			if evaluated&1023 == 0 && ctx.Err() != nil {
				return best, bestObj, evaluated
			}
			obj := evalOrder(stops, perm, opts, cfg).objective(opts.Weights)
			if obj < bestObj {
				bestObj = obj
				copy(best, perm)
			}
			c[i]++
			i = 0
		} else {
			c[i] = 0
			i++
		}
	}
	return best, bestObj, evaluated
}

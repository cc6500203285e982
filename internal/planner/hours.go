package planner

import "time"

// IsOpenNow reports whether a candidate is open at the given instant.
// A candidate with no declared open windows is treated as always open;
// this optimistic default is part of the scoring contract. Otherwise the
// candidate is open when the instant falls inside any declared window's
// inclusive interval.
func IsOpenNow(c CandidateStop, at time.Time) bool {
	if len(c.OpenWindows) == 0 {
		return true
	}
	for _, w := range c.OpenWindows {
		if w.Contains(at) {
			return true
		}
	}
	return false
}

package planner

import (
	"context"
	"math"
	"sort"
	"time"
)

// Term names used in ScoreBreakdown.Terms.
const (
	TermDistance = "distance"
	TermRating   = "rating"
	TermOpenNow  = "openNow"
	TermCategory = "category"
	TermWeather  = "weather"
	TermCrowding = "crowding"
	TermCost     = "cost"
)

// ScoreCandidates ranks discovered candidates against an anchor and the
// preference weights, descending by total score and stable on ties. The
// result is a permutation of the input ids: every candidate appears exactly
// once. An absent anchor disables the distance penalty; all other missing
// optional fields use their documented defaults.
func (p *Planner) ScoreCandidates(ctx context.Context, anchor *Anchor, candidates []CandidateStop, prefs PreferenceWeights, env Conditions) ([]ScoreBreakdown, error) {
	startTime := time.Now()
	defer func() {
		p.metrics.RecordScoreDuration(time.Since(startTime))
	}()

	if err := prefs.Validate(); err != nil {
		return nil, err
	}
	if anchor != nil {
		if err := validateCoords("anchor", 0, anchor.Lat, anchor.Lng); err != nil {
			return nil, err
		}
	}
	for i, c := range candidates {
		if err := validateCoords("candidates", i, c.Lat, c.Lng); err != nil {
			return nil, err
		}
	}
	if len(candidates) > p.config.MaxCandidates {
		return nil, ErrInvalidRequest{Field: "candidates", Reason: "exceeds maximum allowed"}
	}

	if len(candidates) == 0 {
		return []ScoreBreakdown{}, nil
	}

	p.metrics.RecordCandidateCount(len(candidates))

	now := env.Now
	if now.IsZero() {
		now = time.Now()
	}

	results := make([]ScoreBreakdown, 0, len(candidates))
	for i := range candidates {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		results = append(results, p.scoreCandidate(anchor, candidates[i], prefs, env, now))
	}

	sortBreakdowns(results)

	p.metrics.RecordTopScore(results[0].Total)
	return results, nil
}

// scoreCandidate computes the seven-term breakdown for a single candidate.
func (p *Planner) scoreCandidate(anchor *Anchor, c CandidateStop, prefs PreferenceWeights, env Conditions, now time.Time) ScoreBreakdown {
	terms := make(map[string]float64, 7)

	distance := 0.0
	if anchor != nil {
		km := HaversineKm(anchor.Lat, anchor.Lng, c.Lat, c.Lng)
		distance = -prefs.Distance * math.Min(1, km/p.config.DistanceNormKm)
	}
	terms[TermDistance] = distance

	terms[TermRating] = prefs.Rating * ratingOrDefault(c.Rating) / 5

	open := 0.0
	if IsOpenNow(c, now) {
		open = 1.0
	}
	terms[TermOpenNow] = prefs.OpenNow * open

	category := 0.0
	if len(c.Categories) > 0 {
		sum := 0.0
		for _, cat := range c.Categories {
			sum += prefs.CategoryAffinity[cat]
		}
		category = sum / float64(len(c.Categories))
	}
	terms[TermCategory] = category

	terms[TermWeather] = -prefs.Weather * env.WeatherPenalty
	terms[TermCrowding] = -prefs.Crowding * math.Max(env.CrowdLevel, 0)
	terms[TermCost] = -prefs.Cost * costOrDefault(c.CostIndex)

	total := 0.0
	for _, v := range terms {
		total += v
	}

	b := ScoreBreakdown{CandidateID: c.ID, Total: total, Terms: terms}
	// A NaN must never reach the sort comparator: pin it to the lowest
	// possible rank deterministically.
	if math.IsNaN(total) {
		b.Total = -math.MaxFloat64
		b.Degenerate = true
	}
	return b
}

// sortBreakdowns sorts by total score (descending), preserving input order
// on ties so equal-scoring candidates keep their discovery order.
func sortBreakdowns(results []ScoreBreakdown) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Total > results[j].Total
	})
}

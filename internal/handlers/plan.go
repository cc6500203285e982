package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/roamly/trip-service/internal/adapters/weather"
	"github.com/roamly/trip-service/internal/discovery"
	"github.com/roamly/trip-service/internal/planner"
)

// ============================================================================
// Trip Planning Endpoints
// ============================================================================

// TimeWindowDTO is an inclusive open/visit interval
type TimeWindowDTO struct {
	Start time.Time `json:"start" binding:"required"`
	End   time.Time `json:"end" binding:"required"`
}

// AnchorDTO is the fixed reference point for candidate scoring
type AnchorDTO struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Lat    float64        `json:"lat" binding:"min=-90,max=90"`
	Lng    float64        `json:"lng" binding:"min=-180,max=180"`
	Window *TimeWindowDTO `json:"window,omitempty"`
}

// CandidateDTO is a stop under consideration
type CandidateDTO struct {
	ID          string          `json:"id" binding:"required"`
	Name        string          `json:"name"`
	Lat         float64         `json:"lat"`
	Lng         float64         `json:"lng"`
	Categories  []string        `json:"categories,omitempty"`
	Rating      *float64        `json:"rating,omitempty"`
	CostIndex   *float64        `json:"costIndex,omitempty"`
	OpenWindows []TimeWindowDTO `json:"openWindows,omitempty"`
}

// WeightsDTO carries the caller's preference weights. Absent fields are 0,
// which disables the corresponding term.
type WeightsDTO struct {
	Distance         float64            `json:"distance"`
	Rating           float64            `json:"rating"`
	OpenNow          float64            `json:"openNow"`
	Weather          float64            `json:"weather"`
	Crowding         float64            `json:"crowding"`
	Cost             float64            `json:"cost"`
	CategoryAffinity map[string]float64 `json:"categoryAffinity,omitempty"`
}

// ConditionsDTO carries live context hints. FetchWeather asks the service to
// resolve the weather penalty itself via the weather adapter.
type ConditionsDTO struct {
	Now            *time.Time `json:"now,omitempty"`
	CrowdLevel     float64    `json:"crowdLevel"`
	WeatherPenalty float64    `json:"weatherPenalty"`
	FetchWeather   bool       `json:"fetchWeather"`
}

// ScoreRequest is the candidate scoring request
type ScoreRequest struct {
	Anchor     *AnchorDTO     `json:"anchor,omitempty"`
	Candidates []CandidateDTO `json:"candidates" binding:"required"`
	Weights    WeightsDTO     `json:"weights"`
	Conditions *ConditionsDTO `json:"conditions,omitempty"`
}

// ScoreResult is one candidate's score with its itemized terms
type ScoreResult struct {
	CandidateID string             `json:"candidateId"`
	Total       float64            `json:"total"`
	Terms       map[string]float64 `json:"terms"`
	Degenerate  bool               `json:"degenerate,omitempty"`
}

// StopDTO is a routing-level stop
type StopDTO struct {
	ID           string         `json:"id" binding:"required"`
	Name         string         `json:"name"`
	Lat          float64        `json:"lat"`
	Lng          float64        `json:"lng"`
	Anchor       bool           `json:"anchor"`
	DwellMinutes int            `json:"dwellMinutes"`
	Window       *TimeWindowDTO `json:"window,omitempty"`
	Rating       *float64       `json:"rating,omitempty"`
	CostIndex    *float64       `json:"costIndex,omitempty"`
}

// RouteRequest is the route ordering request
type RouteRequest struct {
	Stops     []StopDTO  `json:"stops" binding:"required"`
	StartTime time.Time  `json:"startTime" binding:"required"`
	Weights   WeightsDTO `json:"weights"`
	Seed      int64      `json:"seed,omitempty"`
	Strict    bool       `json:"strict"`
}

// RouteStopResult is a stop annotated with its computed schedule
type RouteStopResult struct {
	ID                     string    `json:"id"`
	Name                   string    `json:"name"`
	Lat                    float64   `json:"lat"`
	Lng                    float64   `json:"lng"`
	Arrival                time.Time `json:"arrival"`
	Departure              time.Time `json:"departure"`
	TravelKm               float64   `json:"travelKm"`
	WindowViolationSeconds float64   `json:"windowViolationSeconds,omitempty"`
}

// RouteResult is the ordered route with its aggregate objective
type RouteResult struct {
	Stops      []RouteStopResult `json:"stops"`
	Objective  float64           `json:"objective"`
	TotalKm    float64           `json:"totalKm"`
	Solver     string            `json:"solver"`
	Feasible   bool              `json:"feasible"`
	Iterations int               `json:"iterations"`
}

// Global planner instances (initialized by the application)
var (
	tripPlanner    *planner.Planner
	catalogCache   *discovery.CatalogCache
	weatherAdapter *weather.Client
)

// InitPlanner initializes the planning handler dependencies
// This should be called during application startup
func InitPlanner(p *planner.Planner, cache *discovery.CatalogCache, w *weather.Client) {
	tripPlanner = p
	catalogCache = cache
	weatherAdapter = w
}

// GetCatalogCache returns the catalog cache instance
func GetCatalogCache() *discovery.CatalogCache {
	return catalogCache
}

// ScoreCandidates handles candidate scoring
// POST /internal/plan/score
func ScoreCandidates(c *gin.Context) {
	var req ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if tripPlanner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Planner not initialized"})
		return
	}

	var anchor *planner.Anchor
	if req.Anchor != nil {
		anchor = &planner.Anchor{
			ID:     req.Anchor.ID,
			Name:   req.Anchor.Name,
			Lat:    req.Anchor.Lat,
			Lng:    req.Anchor.Lng,
			Window: toWindow(req.Anchor.Window),
		}
	}

	candidates := make([]planner.CandidateStop, len(req.Candidates))
	for i, cand := range req.Candidates {
		candidates[i] = planner.CandidateStop{
			ID:          cand.ID,
			Name:        cand.Name,
			Lat:         cand.Lat,
			Lng:         cand.Lng,
			Categories:  cand.Categories,
			Rating:      cand.Rating,
			CostIndex:   cand.CostIndex,
			OpenWindows: toWindows(cand.OpenWindows),
		}
	}

	conditions := planner.Conditions{}
	if req.Conditions != nil {
		if req.Conditions.Now != nil {
			conditions.Now = *req.Conditions.Now
		}
		conditions.CrowdLevel = req.Conditions.CrowdLevel
		conditions.WeatherPenalty = req.Conditions.WeatherPenalty

		// Resolve the weather hint server-side when asked to. Failures are
		// soft: scoring falls back to the caller-supplied penalty.
		if req.Conditions.FetchWeather && weatherAdapter != nil && anchor != nil {
			penalty, err := weatherAdapter.CurrentPenalty(c.Request.Context(), anchor.Lat, anchor.Lng)
			if err != nil {
				log.Warn().Err(err).Msg("Weather lookup failed, using supplied penalty")
			} else {
				conditions.WeatherPenalty = penalty
			}
		}
	}

	breakdowns, err := tripPlanner.ScoreCandidates(
		c.Request.Context(), anchor, candidates, toWeights(req.Weights), conditions,
	)
	if err != nil {
		var invalid planner.ErrInvalidRequest
		if errors.As(err, &invalid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": invalid.Field})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	results := make([]ScoreResult, len(breakdowns))
	for i, b := range breakdowns {
		results[i] = ScoreResult{
			CandidateID: b.CandidateID,
			Total:       b.Total,
			Terms:       b.Terms,
			Degenerate:  b.Degenerate,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"total":   len(results),
	})
}

// OptimizeRoute handles route ordering
// POST /internal/plan/route
func OptimizeRoute(c *gin.Context) {
	var req RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if tripPlanner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Planner not initialized"})
		return
	}

	stops := make([]planner.Stop, len(req.Stops))
	for i, s := range req.Stops {
		stops[i] = planner.Stop{
			ID:        s.ID,
			Name:      s.Name,
			Lat:       s.Lat,
			Lng:       s.Lng,
			Anchor:    s.Anchor,
			Window:    toWindow(s.Window),
			Dwell:     time.Duration(s.DwellMinutes) * time.Minute,
			Rating:    s.Rating,
			CostIndex: s.CostIndex,
		}
	}

	route, err := tripPlanner.OptimizeRoute(c.Request.Context(), stops, planner.RouteOptions{
		StartTime: req.StartTime,
		Weights:   toWeights(req.Weights),
		Seed:      req.Seed,
		Strict:    req.Strict,
	})
	if err != nil {
		var invalid planner.ErrInvalidRequest
		if errors.As(err, &invalid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": invalid.Field})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toRouteResult(route))
}

func toRouteResult(route planner.Route) RouteResult {
	stops := make([]RouteStopResult, len(route.Stops))
	for i, s := range route.Stops {
		stops[i] = RouteStopResult{
			ID:                     s.ID,
			Name:                   s.Name,
			Lat:                    s.Lat,
			Lng:                    s.Lng,
			Arrival:                s.Arrival,
			Departure:              s.Departure,
			TravelKm:               s.TravelKm,
			WindowViolationSeconds: s.WindowViolation.Seconds(),
		}
	}

	return RouteResult{
		Stops:      stops,
		Objective:  route.Objective,
		TotalKm:    route.TotalKm,
		Solver:     string(route.Solver),
		Feasible:   route.Feasible,
		Iterations: route.Iterations,
	}
}

func toWeights(w WeightsDTO) planner.PreferenceWeights {
	return planner.PreferenceWeights{
		Distance:         w.Distance,
		Rating:           w.Rating,
		OpenNow:          w.OpenNow,
		Weather:          w.Weather,
		Crowding:         w.Crowding,
		Cost:             w.Cost,
		CategoryAffinity: w.CategoryAffinity,
	}
}

func toWindow(w *TimeWindowDTO) *planner.TimeWindow {
	if w == nil {
		return nil
	}
	return &planner.TimeWindow{Start: w.Start, End: w.End}
}

func toWindows(ws []TimeWindowDTO) []planner.TimeWindow {
	if len(ws) == 0 {
		return nil
	}
	windows := make([]planner.TimeWindow, len(ws))
	for i, w := range ws {
		windows[i] = planner.TimeWindow{Start: w.Start, End: w.End}
	}
	return windows
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roamly/trip-service/internal/database"
	"github.com/roamly/trip-service/internal/planner"
)

// ============================================================================
// Trip CRUD Endpoints
// ============================================================================

// CreateTripRequest creates a trip; when stops are supplied the itinerary is
// optimized and persisted in the same call.
type CreateTripRequest struct {
	Name      string     `json:"name" binding:"required"`
	Anchor    *AnchorDTO `json:"anchor,omitempty"`
	StartTime *time.Time `json:"startTime,omitempty"`
	Stops     []StopDTO  `json:"stops,omitempty"`
	Weights   WeightsDTO `json:"weights"`
	Seed      int64      `json:"seed,omitempty"`
	Strict    bool       `json:"strict"`
}

// SaveItineraryRequest replaces a trip's stops with a freshly optimized order
type SaveItineraryRequest struct {
	Stops     []StopDTO  `json:"stops" binding:"required,min=1"`
	StartTime time.Time  `json:"startTime" binding:"required"`
	Weights   WeightsDTO `json:"weights"`
	Seed      int64      `json:"seed,omitempty"`
	Strict    bool       `json:"strict"`
}

// TripResponse is a stored trip with its ordered stops
type TripResponse struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Anchor    *AnchorDTO         `json:"anchor,omitempty"`
	StartTime *time.Time         `json:"startTime,omitempty"`
	Objective *float64           `json:"objective,omitempty"`
	Solver    *string            `json:"solver,omitempty"`
	TotalKm   *float64           `json:"totalKm,omitempty"`
	Feasible  bool               `json:"feasible"`
	Stops     []TripStopResponse `json:"stops,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// TripStopResponse is a persisted itinerary stop
type TripStopResponse struct {
	ID              string     `json:"id"`
	POIID           *string    `json:"poiId,omitempty"`
	Position        int        `json:"position"`
	Name            string     `json:"name"`
	Lat             float64    `json:"lat"`
	Lng             float64    `json:"lng"`
	Arrival         *time.Time `json:"arrival,omitempty"`
	Departure       *time.Time `json:"departure,omitempty"`
	TravelKm        float64    `json:"travelKm"`
	WindowViolation *string    `json:"windowViolation,omitempty"`
}

// CreateTrip handles trip creation, optionally optimizing an itinerary
// POST /internal/trips
func CreateTrip(c *gin.Context) {
	var req CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	trip := &database.Trip{
		Name:      req.Name,
		StartTime: req.StartTime,
		Feasible:  true,
	}
	if req.Anchor != nil {
		trip.AnchorName = &req.Anchor.Name
		trip.AnchorLat = &req.Anchor.Lat
		trip.AnchorLng = &req.Anchor.Lng
	}

	if err := database.CreateTrip(c.Request.Context(), trip); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var routeOut *RouteResult
	if len(req.Stops) > 0 {
		if req.StartTime == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "startTime is required when stops are supplied"})
			return
		}
		route, err := optimizeAndSave(c, trip.ID, req.Stops, *req.StartTime, req.Weights, req.Seed, req.Strict)
		if err != nil {
			return // response already written
		}
		routeOut = route
	}

	resp := gin.H{"trip": toTripResponse(trip, nil)}
	if routeOut != nil {
		resp["route"] = routeOut
	}
	c.JSON(http.StatusCreated, resp)
}

// SaveItinerary re-optimizes and replaces a trip's stops
// PUT /internal/trips/:id/itinerary
func SaveItinerary(c *gin.Context) {
	tripID := c.Param("id")

	var req SaveItineraryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := database.GetTrip(c.Request.Context(), tripID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "trip not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	route, err := optimizeAndSave(c, tripID, req.Stops, req.StartTime, req.Weights, req.Seed, req.Strict)
	if err != nil {
		return // response already written
	}

	c.JSON(http.StatusOK, gin.H{"tripId": tripID, "route": route})
}

// optimizeAndSave runs the route optimizer and persists the resulting
// itinerary. On failure it writes the HTTP error response itself.
func optimizeAndSave(c *gin.Context, tripID string, stopDTOs []StopDTO, startTime time.Time, weights WeightsDTO, seed int64, strict bool) (*RouteResult, error) {
	if tripPlanner == nil {
		err := errors.New("planner not initialized")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return nil, err
	}

	stops := make([]planner.Stop, len(stopDTOs))
	for i, s := range stopDTOs {
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
		StartTime: startTime,
		Weights:   toWeights(weights),
		Seed:      seed,
		Strict:    strict,
	})
	if err != nil {
		var invalid planner.ErrInvalidRequest
		if errors.As(err, &invalid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": invalid.Field})
			return nil, err
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, err
	}

	dbStops := make([]database.TripStop, len(route.Stops))
	for i, s := range route.Stops {
		arrival := s.Arrival
		departure := s.Departure
		dbStops[i] = database.TripStop{
			Name:      s.Name,
			Lat:       s.Lat,
			Lng:       s.Lng,
			Arrival:   &arrival,
			Departure: &departure,
			TravelKm:  s.TravelKm,
		}
		// Only catalog stops carry a FK back to the POI table
		if strings.HasPrefix(s.ID, "poi_") {
			id := s.ID
			dbStops[i].POIID = &id
		}
		if s.WindowViolation > 0 {
			violation := s.WindowViolation.String()
			dbStops[i].WindowViolation = &violation
		}
	}

	err = database.ReplaceTripStops(
		c.Request.Context(), tripID, dbStops,
		route.Objective, route.TotalKm, string(route.Solver), route.Feasible,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, err
	}

	result := toRouteResult(route)
	return &result, nil
}

// GetTrip handles trip retrieval with its stops
// GET /internal/trips/:id
func GetTrip(c *gin.Context) {
	tripID := c.Param("id")

	trip, err := database.GetTrip(c.Request.Context(), tripID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "trip not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	stops, err := database.GetTripStops(c.Request.Context(), tripID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toTripResponse(trip, stops))
}

// ListTrips handles trip listing, newest first
// GET /internal/trips?limit=..&offset=..
func ListTrips(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	trips, err := database.ListTrips(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	results := make([]TripResponse, len(trips))
	for i := range trips {
		results[i] = toTripResponse(&trips[i], nil)
	}

	c.JSON(http.StatusOK, gin.H{"trips": results, "total": len(results)})
}

// DeleteTrip handles trip removal
// DELETE /internal/trips/:id
func DeleteTrip(c *gin.Context) {
	tripID := c.Param("id")

	if err := database.DeleteTrip(c.Request.Context(), tripID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "trip not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted", "tripId": tripID})
}

func toTripResponse(trip *database.Trip, stops []database.TripStop) TripResponse {
	resp := TripResponse{
		ID:        trip.ID,
		Name:      trip.Name,
		StartTime: trip.StartTime,
		Objective: trip.Objective,
		Solver:    trip.Solver,
		TotalKm:   trip.TotalKm,
		Feasible:  trip.Feasible,
		CreatedAt: trip.CreatedAt,
		UpdatedAt: trip.UpdatedAt,
	}

	if trip.AnchorLat != nil && trip.AnchorLng != nil {
		anchor := &AnchorDTO{Lat: *trip.AnchorLat, Lng: *trip.AnchorLng}
		if trip.AnchorName != nil {
			anchor.Name = *trip.AnchorName
		}
		resp.Anchor = anchor
	}

	if stops != nil {
		resp.Stops = make([]TripStopResponse, len(stops))
		for i, s := range stops {
			resp.Stops[i] = TripStopResponse{
				ID:              s.ID,
				POIID:           s.POIID,
				Position:        s.Position,
				Name:            s.Name,
				Lat:             s.Lat,
				Lng:             s.Lng,
				Arrival:         s.Arrival,
				Departure:       s.Departure,
				TravelKm:        s.TravelKm,
				WindowViolation: s.WindowViolation,
			}
		}
	}

	return resp
}

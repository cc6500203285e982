package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/roamly/trip-service/internal/database"
)

// ============================================================================
// POI Catalog Endpoints
// ============================================================================

// POIResult is a catalog entry in search responses
type POIResult struct {
	ID           string   `json:"id"`
	Source       string   `json:"source,omitempty"`
	ExternalID   string   `json:"externalId,omitempty"`
	Name         string   `json:"name"`
	Categories   []string `json:"categories,omitempty"`
	Lat          float64  `json:"lat"`
	Lng          float64  `json:"lng"`
	Rating       *float64 `json:"rating,omitempty"`
	CostIndex    *float64 `json:"costIndex,omitempty"`
	Website      *string  `json:"website,omitempty"`
	OpeningHours string   `json:"openingHours,omitempty"`
	DistanceKm   float64  `json:"distanceKm"`
}

// SearchPOIs handles catalog search around a point
// GET /internal/pois/search?lat=..&lng=..&radius_km=..&category=..&source=..&limit=..
func SearchPOIs(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat must be a number in [-90, 90]"})
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil || lng < -180 || lng > 180 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lng must be a number in [-180, 180]"})
		return
	}

	radiusKm := 10.0
	if raw := c.Query("radius_km"); raw != "" {
		radiusKm, err = strconv.ParseFloat(raw, 64)
		if err != nil || radiusKm <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "radius_km must be a positive number"})
			return
		}
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
	}

	category := c.Query("category")
	source := c.Query("source")

	// Serve from the snapshot cache when it is warm; fall back to the
	// database otherwise.
	if catalogCache != nil && catalogCache.IsHealthy(c.Request.Context()) {
		var categories []string
		if category != "" {
			categories = []string{category}
		}

		cached := catalogCache.Nearby(source, lat, lng, radiusKm, categories, limit)
		results := make([]POIResult, len(cached))
		for i, entry := range cached {
			results[i] = POIResult{
				ID:           entry.POI.ID,
				ExternalID:   entry.POI.ExternalID,
				Name:         entry.POI.Name,
				Categories:   entry.POI.Categories,
				Lat:          entry.POI.Lat,
				Lng:          entry.POI.Lng,
				Rating:       entry.POI.Rating,
				CostIndex:    entry.POI.CostIndex,
				OpeningHours: entry.POI.OpeningHours,
				DistanceKm:   entry.DistanceKm,
			}
		}
		c.JSON(http.StatusOK, gin.H{"results": results, "total": len(results), "served_from": "cache"})
		return
	}

	pois, err := database.SearchPOIs(c.Request.Context(), database.POISearchParams{
		Lat:      lat,
		Lng:      lng,
		RadiusKm: radiusKm,
		Category: category,
		Source:   source,
		Limit:    limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	results := make([]POIResult, len(pois))
	for i, poi := range pois {
		results[i] = POIResult{
			ID:         poi.ID,
			Name:       poi.Name,
			Categories: poi.Categories,
			Lat:        poi.Lat,
			Lng:        poi.Lng,
			Rating:     poi.Rating,
			CostIndex:  poi.CostIndex,
			Website:    poi.Website,
		}
		if poi.SourceSlug != nil {
			results[i].Source = *poi.SourceSlug
		}
		if poi.ExternalID != nil {
			results[i].ExternalID = *poi.ExternalID
		}
		if poi.OpeningHours != nil {
			results[i].OpeningHours = *poi.OpeningHours
		}
	}

	c.JSON(http.StatusOK, gin.H{"results": results, "total": len(results), "served_from": "database"})
}

// CacheWarmup handles catalog cache warmup requests
// POST /internal/catalog/cache/warmup
func CacheWarmup(c *gin.Context) {
	if catalogCache == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Cache not initialized"})
		return
	}

	err := catalogCache.StartWarmup(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to warm up cache: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Catalog cache warmed up successfully",
	})
}

// CacheRefresh handles catalog cache refresh requests for a specific source
// POST /internal/catalog/cache/refresh/:source
func CacheRefresh(c *gin.Context) {
	source := c.Param("source")
	if source == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source is required"})
		return
	}

	if catalogCache == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Cache not initialized"})
		return
	}

	err := catalogCache.RefreshSource(c.Request.Context(), source)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh cache: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Source snapshot refreshed successfully",
		"source":  source,
	})
}

// CacheHealth handles catalog cache health check requests
// GET /internal/catalog/cache/health
func CacheHealth(c *gin.Context) {
	if catalogCache == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "Cache not initialized",
		})
		return
	}

	freshness := catalogCache.GetFreshness(c.Request.Context())

	sources := make([]gin.H, 0, len(freshness))
	for source, info := range freshness {
		sources = append(sources, gin.H{
			"source":      source,
			"loadedAt":    info.LoadedAt,
			"isStale":     info.IsStale,
			"estimatedMB": info.EstimatedMB,
			"pois":        info.POICount,
		})
	}

	isHealthy := catalogCache.IsHealthy(c.Request.Context())
	status := "ok"
	if !isHealthy {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  status,
		"sources": sources,
	})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roamly/trip-service/internal/database"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Catalog  string `json:"catalog,omitempty"`
}

// HealthCheck handles the health check endpoint
func HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status: "ok",
	}

	// Check database connection
	if database.Pool() != nil {
		err := database.Status(c.Request.Context())
		if err != nil {
			response.Database = "disconnected"
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}
		response.Database = "connected"
	} else {
		response.Database = "not configured"
	}

	// Catalog cache state is informational; plan requests fall back to
	// the database while the cache is cold
	if catalogCache != nil {
		if catalogCache.IsHealthy(c.Request.Context()) {
			response.Catalog = "warm"
		} else {
			response.Catalog = "cold"
		}
	}

	c.JSON(http.StatusOK, response)
}

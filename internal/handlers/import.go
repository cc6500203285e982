package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/roamly/trip-service/internal/database"
	"github.com/roamly/trip-service/internal/pipeline"
	"github.com/roamly/trip-service/internal/sources"
)

// importSem limits concurrent import goroutines to prevent resource exhaustion
var importSem = make(chan struct{}, 4) // Max 4 concurrent import runs

// ImportStartedResponse represents the 202 response when an import is started
type ImportStartedResponse struct {
	Source  string `json:"source"`
	Status  string `json:"status"`
	PollURL string `json:"pollUrl"`
	Message string `json:"message,omitempty"`
}

// ListImportRunsRequest represents query parameters for listing import runs
type ListImportRunsRequest struct {
	Source string `form:"source" json:"source"`
	Limit  int    `form:"limit" json:"limit" binding:"min=0,max=100" jsonschema:"minimum=0,maximum=100"`
}

// ImportRunResponse represents an import run in API responses
type ImportRunResponse struct {
	database.ImportRun
	Errors []database.ImportError `json:"errors,omitempty"`
}

// TriggerImport starts an import run for a source asynchronously
// @Summary Trigger a source import
// @Description Starts an asynchronous import run for the given open-data source
// @Tags import
// @Produce json
// @Param source path string true "Source slug" Enums(zagreb, ljubljana, vienna)
// @Success 202 {object} ImportStartedResponse
// @Failure 400 {object} map[string]string "Bad request"
// @Router /internal/admin/import/{source} [post]
func TriggerImport(c *gin.Context) {
	sourceSlug := c.Param("source")
	if sourceSlug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Source parameter is required"})
		return
	}

	if !sources.IsValidSource(sourceSlug) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Invalid source: %s (valid: %v)", sourceSlug, sources.ValidSources()),
		})
		return
	}

	// Spawn goroutine for actual processing; the run record is created by
	// the runner so polling is done by source until the run shows up
	go func() {
		importSem <- struct{}{}
		defer func() { <-importSem }()

		// Request context dies with the response; the run must not
		bgCtx := context.Background()
		runner := pipeline.NewRunner()
		if _, err := runner.RunImport(bgCtx, sourceSlug, "api"); err != nil {
			log.Error().Err(err).Str("source", sourceSlug).Msg("Import run failed to start")
		}
	}()

	c.JSON(http.StatusAccepted, ImportStartedResponse{
		Source:  sourceSlug,
		Status:  "accepted",
		PollURL: fmt.Sprintf("/internal/import/runs?source=%s", sourceSlug),
		Message: "Import started, poll the runs endpoint for progress",
	})
}

// ListImportRuns returns recent import runs, optionally filtered by source
// @Summary List import runs
// @Description Returns recent import runs with optional source filter, newest first
// @Tags import
// @Produce json
// @Param source query string false "Filter by source slug"
// @Param limit query int false "Number of items to return" default(20) minimum(1) maximum(100)
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /internal/import/runs [get]
func ListImportRuns(c *gin.Context) {
	var req ListImportRunsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Source != "" && !sources.IsValidSource(req.Source) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid source: %s", req.Source)})
		return
	}

	runs, err := database.ListImportRuns(c.Request.Context(), req.Source, req.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs, "total": len(runs)})
}

// GetImportRun returns one import run with its recorded errors
// GET /internal/import/runs/:id
func GetImportRun(c *gin.Context) {
	runID := c.Param("id")

	run, err := database.GetImportRun(c.Request.Context(), runID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "import run not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	importErrors, err := database.GetImportErrors(c.Request.Context(), runID, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, ImportRunResponse{ImportRun: *run, Errors: importErrors})
}

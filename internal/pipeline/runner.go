package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/roamly/trip-service/internal/database"
	"github.com/roamly/trip-service/internal/importer"
	"github.com/roamly/trip-service/internal/sources"
)

// RunResult summarizes one import run
type RunResult struct {
	Run          *database.ImportRun
	FilesTotal   int
	FilesSkipped int
	RowsImported int
	Errors       []string
}

// Runner drives the discover/fetch/parse/persist flow for one source
type Runner struct {
	logger zerolog.Logger
}

func NewRunner() *Runner {
	return &Runner{
		logger: log.With().Str("component", "import_runner").Logger(),
	}
}

// RunImport executes a full import for a source. Files whose checksum
// matches a previously completed run are skipped; when every discovered
// file is a duplicate the run finishes with status skipped.
func (r *Runner) RunImport(ctx context.Context, sourceSlug string, trigger string) (*RunResult, error) {
	if !sources.IsValidSource(sourceSlug) {
		return nil, fmt.Errorf("unknown source: %s", sourceSlug)
	}

	adapter, err := sources.GetAdapter(sources.SourceID(sourceSlug))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source adapter: %w", err)
	}

	now := time.Now()
	run := &database.ImportRun{
		SourceSlug: sourceSlug,
		Trigger:    trigger,
		Status:     database.RunStatusRunning,
		StartedAt:  &now,
	}
	if err := database.CreateImportRun(ctx, run); err != nil {
		return nil, err
	}

	r.logger.Info().
		Str("run_id", run.ID).
		Str("source", sourceSlug).
		Str("trigger", trigger).
		Msg("Starting import run")

	result := &RunResult{Run: run}

	files, err := adapter.Discover(ctx)
	if err != nil {
		r.failRun(ctx, run, result, fmt.Sprintf("discovery failed: %v", err))
		return result, nil
	}
	if len(files) == 0 {
		r.logger.Info().Str("run_id", run.ID).Msg("No files discovered")
		r.completeRun(ctx, run, result, database.RunStatusCompleted)
		return result, nil
	}

	result.FilesTotal = len(files)
	run.TotalFiles = &result.FilesTotal
	processedFiles := 0
	totalRows := 0
	importedRows := 0
	errorCount := 0

	for _, file := range files {
		fileLog := r.logger.With().Str("run_id", run.ID).Str("file", file.Filename).Logger()

		fetched, err := adapter.Fetch(ctx, file)
		if err != nil {
			errorCount++
			result.Errors = append(result.Errors, fmt.Sprintf("fetch %s: %v", file.Filename, err))
			r.recordError(ctx, run.ID, file.Filename, nil, nil, "fetch", err.Error(), "error")
			fileLog.Error().Err(err).Msg("Fetch failed")
			continue
		}

		// Checksum dedup: an identical file was already imported
		if _, err := database.GetCompletedRunBySha256(ctx, sourceSlug, fetched.Sha256); err == nil {
			result.FilesSkipped++
			fileLog.Info().Str("sha256", fetched.Sha256).Msg("File unchanged since last completed run, skipping")
			continue
		} else if !errors.Is(err, database.ErrNotFound) {
			fileLog.Warn().Err(err).Msg("Checksum lookup failed, importing anyway")
		}

		if run.FileSha256 == nil {
			sha := fetched.Sha256
			run.FileSha256 = &sha
		}

		parsed, err := adapter.Parse(fetched.Content, file.Filename)
		if err != nil {
			errorCount++
			result.Errors = append(result.Errors, fmt.Sprintf("parse %s: %v", file.Filename, err))
			r.recordError(ctx, run.ID, file.Filename, nil, nil, "parse", err.Error(), "critical")
			fileLog.Error().Err(err).Msg("Parse failed")
			continue
		}

		totalRows += parsed.TotalRows
		for _, parseErr := range parsed.Errors {
			errorCount++
			r.recordError(ctx, run.ID, file.Filename, parseErr.RowNumber, parseErr.Field, "validation", parseErr.Message, "error")
		}
		for _, warning := range parsed.Warnings {
			r.recordError(ctx, run.ID, file.Filename, warning.RowNumber, warning.Field, "validation", warning.Message, "warning")
		}

		persisted := r.persistRows(ctx, run.ID, sourceSlug, file.Filename, parsed.Rows, &errorCount, result)
		importedRows += persisted
		processedFiles++

		fileLog.Info().
			Int("total_rows", parsed.TotalRows).
			Int("valid_rows", parsed.ValidRows).
			Int("persisted", persisted).
			Msg("File imported")
	}

	run.ProcessedFiles = &processedFiles
	run.TotalRows = &totalRows
	run.ImportedRows = &importedRows
	run.ErrorCount = &errorCount
	result.RowsImported = importedRows

	status := database.RunStatusCompleted
	if result.FilesSkipped == result.FilesTotal {
		status = database.RunStatusSkipped
	} else if processedFiles == 0 {
		status = database.RunStatusFailed
	}
	r.completeRun(ctx, run, result, status)

	return result, nil
}

// persistRows upserts parsed rows into the catalog, recording per-row failures
func (r *Runner) persistRows(ctx context.Context, runID, sourceSlug, filename string, rows []importer.NormalizedPOI, errorCount *int, result *RunResult) int {
	now := time.Now()
	persisted := 0

	for _, row := range rows {
		poi := &database.POI{
			SourceSlug:   &sourceSlug,
			ExternalID:   row.ExternalID,
			Name:         row.Name,
			Description:  row.Description,
			Categories:   row.Categories,
			Lat:          row.Lat,
			Lng:          row.Lng,
			Rating:       row.Rating,
			CostIndex:    row.CostIndex,
			Website:      row.Website,
			OpeningHours: row.OpeningHours,
			ImportRunID:  &runID,
			LastSeenAt:   now,
		}

		if _, err := database.UpsertPOI(ctx, poi); err != nil {
			*errorCount++
			result.Errors = append(result.Errors, fmt.Sprintf("persist row %d: %v", row.RowNumber, err))
			rowNum := row.RowNumber
			r.recordError(ctx, runID, filename, &rowNum, nil, "persist", err.Error(), "error")
			continue
		}
		persisted++
	}

	return persisted
}

func (r *Runner) recordError(ctx context.Context, runID, filename string, rowNumber *int, field *string, errorType, message, severity string) {
	importErr := &database.ImportError{
		RunID:        runID,
		Filename:     &filename,
		RowNumber:    rowNumber,
		Field:        field,
		ErrorType:    errorType,
		ErrorMessage: message,
		Severity:     severity,
	}
	if err := database.RecordImportError(ctx, importErr); err != nil {
		r.logger.Warn().Err(err).Str("run_id", runID).Msg("Failed to record import error")
	}
}

func (r *Runner) completeRun(ctx context.Context, run *database.ImportRun, result *RunResult, status string) {
	completedAt := time.Now()
	run.Status = status
	run.CompletedAt = &completedAt

	if err := database.UpdateImportRun(ctx, run); err != nil {
		r.logger.Error().Err(err).Str("run_id", run.ID).Msg("Failed to finalize import run")
		return
	}

	r.logger.Info().
		Str("run_id", run.ID).
		Str("status", status).
		Int("files", result.FilesTotal).
		Int("skipped", result.FilesSkipped).
		Int("rows_imported", result.RowsImported).
		Int("errors", len(result.Errors)).
		Msg("Import run finished")
}

func (r *Runner) failRun(ctx context.Context, run *database.ImportRun, result *RunResult, reason string) {
	result.Errors = append(result.Errors, reason)
	r.recordError(ctx, run.ID, "", nil, nil, "fetch", reason, "critical")
	r.completeRun(ctx, run, result, database.RunStatusFailed)
}

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/roamly/trip-service/internal/pkg/cuid2"
)

// Import run lifecycle states
const (
	RunStatusPending   = "pending"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
	RunStatusSkipped   = "skipped"
)

// CreateImportRun inserts a new import run record
func CreateImportRun(ctx context.Context, run *ImportRun) error {
	pool := Pool()

	if run.ID == "" {
		run.ID = cuid2.GeneratePrefixedId("run", cuid2.PrefixedIdOptions{})
	}
	if run.Status == "" {
		run.Status = RunStatusPending
	}
	run.CreatedAt = time.Now()

	query := `
		INSERT INTO import_runs (
			id, source_slug, trigger, status, started_at, completed_at,
			total_files, processed_files, total_rows, imported_rows,
			error_count, file_sha256, metadata, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)
	`

	_, err := pool.Exec(ctx, query,
		run.ID, run.SourceSlug, run.Trigger, run.Status,
		run.StartedAt, run.CompletedAt, run.TotalFiles, run.ProcessedFiles,
		run.TotalRows, run.ImportedRows, run.ErrorCount, run.FileSha256,
		run.Metadata, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create import run: %w", err)
	}
	return nil
}

// UpdateImportRun persists a run's current status and counters
func UpdateImportRun(ctx context.Context, run *ImportRun) error {
	pool := Pool()

	query := `
		UPDATE import_runs
		SET status = $2, started_at = $3, completed_at = $4,
			total_files = $5, processed_files = $6, total_rows = $7,
			imported_rows = $8, error_count = $9, file_sha256 = $10,
			metadata = $11
		WHERE id = $1
	`

	result, err := pool.Exec(ctx, query,
		run.ID, run.Status, run.StartedAt, run.CompletedAt,
		run.TotalFiles, run.ProcessedFiles, run.TotalRows,
		run.ImportedRows, run.ErrorCount, run.FileSha256, run.Metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to update import run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetImportRun retrieves a run by its ID
func GetImportRun(ctx context.Context, id string) (*ImportRun, error) {
	pool := Pool()

	query := `
		SELECT id, source_slug, trigger, status, started_at, completed_at,
			total_files, processed_files, total_rows, imported_rows,
			error_count, file_sha256, metadata, created_at
		FROM import_runs
		WHERE id = $1
	`

	var run ImportRun
	err := pool.QueryRow(ctx, query, id).Scan(
		&run.ID, &run.SourceSlug, &run.Trigger, &run.Status,
		&run.StartedAt, &run.CompletedAt, &run.TotalFiles, &run.ProcessedFiles,
		&run.TotalRows, &run.ImportedRows, &run.ErrorCount, &run.FileSha256,
		&run.Metadata, &run.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get import run: %w", err)
	}
	return &run, nil
}

// ListImportRuns returns runs newest first, optionally filtered by source
func ListImportRuns(ctx context.Context, sourceSlug string, limit int) ([]ImportRun, error) {
	pool := Pool()

	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `
		SELECT id, source_slug, trigger, status, started_at, completed_at,
			total_files, processed_files, total_rows, imported_rows,
			error_count, file_sha256, metadata, created_at
		FROM import_runs
		WHERE $1 = '' OR source_slug = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := pool.Query(ctx, query, sourceSlug, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list import runs: %w", err)
	}
	defer rows.Close()

	runs := make([]ImportRun, 0)
	for rows.Next() {
		var run ImportRun
		if err := rows.Scan(
			&run.ID, &run.SourceSlug, &run.Trigger, &run.Status,
			&run.StartedAt, &run.CompletedAt, &run.TotalFiles, &run.ProcessedFiles,
			&run.TotalRows, &run.ImportedRows, &run.ErrorCount, &run.FileSha256,
			&run.Metadata, &run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan import run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetCompletedRunBySha256 looks up a previously completed run for the same
// source file content. Used to skip re-importing unchanged datasets.
func GetCompletedRunBySha256(ctx context.Context, sourceSlug, sha256 string) (*ImportRun, error) {
	pool := Pool()

	query := `
		SELECT id, source_slug, trigger, status, started_at, completed_at,
			total_files, processed_files, total_rows, imported_rows,
			error_count, file_sha256, metadata, created_at
		FROM import_runs
		WHERE source_slug = $1 AND file_sha256 = $2 AND status = $3
		ORDER BY created_at DESC
		LIMIT 1
	`

	var run ImportRun
	err := pool.QueryRow(ctx, query, sourceSlug, sha256, RunStatusCompleted).Scan(
		&run.ID, &run.SourceSlug, &run.Trigger, &run.Status,
		&run.StartedAt, &run.CompletedAt, &run.TotalFiles, &run.ProcessedFiles,
		&run.TotalRows, &run.ImportedRows, &run.ErrorCount, &run.FileSha256,
		&run.Metadata, &run.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up run by checksum: %w", err)
	}
	return &run, nil
}

// RecordImportError stores a row-level problem discovered during an import
func RecordImportError(ctx context.Context, importErr *ImportError) error {
	pool := Pool()

	if importErr.ID == "" {
		importErr.ID = cuid2.GeneratePrefixedId("err", cuid2.PrefixedIdOptions{})
	}
	importErr.CreatedAt = time.Now()

	query := `
		INSERT INTO import_errors (
			id, run_id, filename, row_number, field,
			error_type, error_message, severity, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	_, err := pool.Exec(ctx, query,
		importErr.ID, importErr.RunID, importErr.Filename, importErr.RowNumber,
		importErr.Field, importErr.ErrorType, importErr.ErrorMessage,
		importErr.Severity, importErr.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record import error: %w", err)
	}
	return nil
}

// GetImportErrors returns the recorded problems for a run, oldest first
func GetImportErrors(ctx context.Context, runID string, limit int) ([]ImportError, error) {
	pool := Pool()

	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := pool.Query(ctx, `
		SELECT id, run_id, filename, row_number, field,
			error_type, error_message, severity, created_at
		FROM import_errors
		WHERE run_id = $1
		ORDER BY created_at ASC
		LIMIT $2
	`, runID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get import errors: %w", err)
	}
	defer rows.Close()

	importErrors := make([]ImportError, 0)
	for rows.Next() {
		var ie ImportError
		if err := rows.Scan(
			&ie.ID, &ie.RunID, &ie.Filename, &ie.RowNumber, &ie.Field,
			&ie.ErrorType, &ie.ErrorMessage, &ie.Severity, &ie.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan import error: %w", err)
		}
		importErrors = append(importErrors, ie)
	}
	return importErrors, rows.Err()
}

// CleanupOldImportRuns deletes runs and their errors older than the cutoff.
// Returns the number of deleted runs.
func CleanupOldImportRuns(ctx context.Context, cutoff time.Time) (int64, error) {
	pool := Pool()

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM import_errors
		WHERE run_id IN (SELECT id FROM import_runs WHERE created_at < $1)
	`, cutoff); err != nil {
		return 0, fmt.Errorf("failed to delete old import errors: %w", err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM import_runs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old import runs: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit cleanup: %w", err)
	}
	return result.RowsAffected(), nil
}

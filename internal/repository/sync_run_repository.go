package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vipul43/label-mirror/internal/models"
)

type SyncRunRepository struct {
	db *sql.DB
}

func NewSyncRunRepository(db *sql.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

// Create records a new sync run
func (r *SyncRunRepository) Create(ctx context.Context, run models.SyncRun) error {
	query := `
		INSERT INTO sync_run (
			id, label_id, triggered_by, status, new_count,
			deleted_count, fetched_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		run.ID,
		run.LabelID,
		run.Trigger,
		run.Status,
		run.NewCount,
		run.DeletedCount,
		run.FetchedCount,
		run.CreatedAt,
		run.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create sync run: %w", err)
	}

	return nil
}

// Complete marks a run completed with its final counts
func (r *SyncRunRepository) Complete(ctx context.Context, runID string, newCount, deletedCount, fetchedCount int) error {
	query := `
		UPDATE sync_run
		SET status = $1, new_count = $2, deleted_count = $3, fetched_count = $4,
		    last_error = NULL, updated_at = $5, processed_at = $6
		WHERE id = $7
	`

	now := time.Now()
	_, err := r.db.ExecContext(ctx, query, models.SyncStatusCompleted, newCount, deletedCount, fetchedCount, now, now, runID)
	if err != nil {
		return fmt.Errorf("failed to complete sync run: %w", err)
	}

	return nil
}

// Fail marks a run failed, keeping what it applied before the failure
func (r *SyncRunRepository) Fail(ctx context.Context, runID string, deletedCount, fetchedCount int, lastError string) error {
	query := `
		UPDATE sync_run
		SET status = $1, deleted_count = $2, fetched_count = $3,
		    last_error = $4, updated_at = $5, processed_at = $6
		WHERE id = $7
	`

	now := time.Now()
	_, err := r.db.ExecContext(ctx, query, models.SyncStatusFailed, deletedCount, fetchedCount, lastError, now, now, runID)
	if err != nil {
		return fmt.Errorf("failed to record sync run failure: %w", err)
	}

	return nil
}

// FailStale marks runs stuck in processing state (crash recovery) as failed
func (r *SyncRunRepository) FailStale(ctx context.Context, lastError string) (int64, error) {
	query := `
		UPDATE sync_run
		SET status = $1, last_error = $2, updated_at = $3, processed_at = $4
		WHERE status = $5
	`

	now := time.Now()
	res, err := r.db.ExecContext(ctx, query, models.SyncStatusFailed, lastError, now, now, models.SyncStatusProcessing)
	if err != nil {
		return 0, fmt.Errorf("failed to fail stale sync runs: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count stale sync runs: %w", err)
	}
	return n, nil
}

// ListRecent retrieves the latest sync runs, newest first
func (r *SyncRunRepository) ListRecent(ctx context.Context, limit int) ([]models.SyncRun, error) {
	query := `
		SELECT id, label_id, triggered_by, status, new_count,
		       deleted_count, fetched_count, last_error,
		       created_at, updated_at, processed_at
		FROM sync_run
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	return r.scanRuns(rows)
}

// scanRuns scans database rows into SyncRun slice
func (r *SyncRunRepository) scanRuns(rows *sql.Rows) ([]models.SyncRun, error) {
	var runs []models.SyncRun

	for rows.Next() {
		var run models.SyncRun
		err := rows.Scan(
			&run.ID,
			&run.LabelID,
			&run.Trigger,
			&run.Status,
			&run.NewCount,
			&run.DeletedCount,
			&run.FetchedCount,
			&run.LastError,
			&run.CreatedAt,
			&run.UpdatedAt,
			&run.ProcessedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return runs, nil
}

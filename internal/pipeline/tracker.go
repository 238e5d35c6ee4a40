package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Tracker persists pipeline run records so operators can see what ran,
// when, and how it ended.
type Tracker struct {
	db *sqlx.DB
}

// NewTracker creates a run tracker over an open database handle.
func NewTracker(db *sqlx.DB) *Tracker {
	return &Tracker{db: db}
}

// Begin inserts a new run in the processing state.
func (t *Tracker) Begin(ctx context.Context, inputFiles int) (*Run, error) {
	run := &Run{
		Status:     StatusProcessing,
		InputFiles: inputFiles,
		StartedAt:  time.Now().UTC(),
	}
	const query = `
		INSERT INTO usage_runs (status, input_files, started_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	if err := t.db.QueryRowContext(ctx, query, run.Status, run.InputFiles, run.StartedAt).Scan(&run.ID); err != nil {
		return nil, fmt.Errorf("create usage run: %w", err)
	}
	return run, nil
}

// Complete marks a run finished with its final counters.
func (t *Tracker) Complete(ctx context.Context, run *Run) error {
	now := time.Now().UTC()
	run.Status = StatusCompleted
	run.CompletedAt = &now
	return t.update(ctx, run)
}

// Fail marks a run failed and records the cause.
func (t *Tracker) Fail(ctx context.Context, run *Run, cause error) error {
	now := time.Now().UTC()
	run.Status = StatusFailed
	run.CompletedAt = &now
	if cause != nil {
		run.ErrorMessage = cause.Error()
	}
	return t.update(ctx, run)
}

func (t *Tracker) update(ctx context.Context, run *Run) error {
	const query = `
		UPDATE usage_runs
		SET status = :status, total_lines = :total_lines, drink_count = :drink_count,
		    completed_at = :completed_at, error_message = :error_message
		WHERE id = :id
	`
	if _, err := t.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("update usage run %d: %w", run.ID, err)
	}
	return nil
}

// Recent returns the latest runs, newest first.
func (t *Tracker) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `
		SELECT id, status, input_files, total_lines, drink_count,
		       started_at, completed_at, error_message
		FROM usage_runs
		ORDER BY started_at DESC
		LIMIT $1
	`
	var runs []Run
	if err := t.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("list usage runs: %w", err)
	}
	return runs, nil
}

package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/shared"
)

// RunRepository tracks the history of sync and analysis runs.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Start records a new running run of the given kind and returns it with a generated ID.
func (r *RunRepository) Start(ctx context.Context, kind string) (*models.Run, error) {
	run := &models.Run{
		ID:        shared.GenerateID(),
		Kind:      kind,
		Status:    models.TaskRunning,
		StartedAt: time.Now().UTC(),
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO runs (id, kind, status, message, started_at) VALUES (?, ?, ?, ?, ?)",
		run.ID, run.Kind, string(run.Status), run.Message, timeValue(run.StartedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}
	return run, nil
}

// Finish marks a run as done with the final status and message.
func (r *RunRepository) Finish(ctx context.Context, id string, status models.TaskStatus, message string) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		"UPDATE runs SET status = ?, message = ?, finished_at = ? WHERE id = ?",
		string(status), message, timePtrValue(&now), id)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// Get retrieves a run by ID.
func (r *RunRepository) Get(ctx context.Context, id string) (*models.Run, error) {
	row := r.db.QueryRowContext(ctx, "SELECT id, kind, status, message, started_at, finished_at FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	return run, err
}

// List retrieves runs newest first. Supported criteria: "kind" (string), "limit" (int).
func (r *RunRepository) List(ctx context.Context, criteria map[string]any) ([]models.Run, error) {
	query := "SELECT id, kind, status, message, started_at, finished_at FROM runs WHERE 1 = 1"
	args := []any{}

	if kind, ok := criteria["kind"].(string); ok && kind != "" {
		query += " AND kind = ?"
		args = append(args, kind)
	}
	query += " ORDER BY started_at DESC"
	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return runs, nil
}

func scanRun(s scanner) (*models.Run, error) {
	var (
		run      models.Run
		status   string
		started  any
		finished any
	)
	if err := s.Scan(&run.ID, &run.Kind, &status, &run.Message, &started, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	run.Status = models.TaskStatus(status)
	run.StartedAt = shared.ParseDBTime(started)
	if finished != nil {
		t := shared.ParseDBTime(finished)
		run.FinishedAt = &t
	}
	return &run, nil
}

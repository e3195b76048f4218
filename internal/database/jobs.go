package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"PriceTracker/internal/models"
)

// CreateJob inserts a job. The caller assigns the ID.
func (repo *DBRepository) CreateJob(ctx context.Context, j *models.Job) error {
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now().UTC()
	}
	if j.Status == "" {
		j.Status = models.JobPending
	}
	results, err := json.Marshal(j.Results)
	if err != nil {
		return err
	}
	_, err = repo.DB.ExecContext(ctx, `
	INSERT INTO jobs (
		id, target_ids, status, progress, success_count, fail_count, retry_count, max_retries,
		avg_scrape_time_ms, error_message, created_at, started_at, completed_at, results
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.TargetIDs, string(j.Status), j.Progress, j.SuccessCount, j.FailCount, j.RetryCount,
		j.MaxRetries, j.AvgScrapeTimeMs, j.ErrorMessage, nanos(j.CreatedAt), nullTime(j.StartedAt),
		nullTime(j.CompletedAt), string(results),
	)
	if err != nil {
		return fmt.Errorf("insert job %s: %w", j.ID, err)
	}
	return nil
}

// LoadJob returns models.ErrNotFound when id does not exist.
func (repo *DBRepository) LoadJob(ctx context.Context, id string) (models.Job, error) {
	var (
		j         models.Job
		status    string
		createdAt int64
		started   sql.NullInt64
		completed sql.NullInt64
		results   sql.NullString
	)
	err := repo.DB.QueryRowContext(ctx, `SELECT id, target_ids, status, progress, success_count, fail_count,
		retry_count, max_retries, avg_scrape_time_ms, error_message, created_at, started_at, completed_at, results
		FROM jobs WHERE id = ?`, id).Scan(
		&j.ID, &j.TargetIDs, &status, &j.Progress, &j.SuccessCount, &j.FailCount,
		&j.RetryCount, &j.MaxRetries, &j.AvgScrapeTimeMs, &j.ErrorMessage, &createdAt, &started, &completed, &results,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return j, fmt.Errorf("job %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return j, fmt.Errorf("load job %s: %w", id, err)
	}
	j.Status = models.JobStatus(status)
	j.CreatedAt = fromNanos(createdAt)
	j.StartedAt = timePtr(started)
	j.CompletedAt = timePtr(completed)
	if results.Valid && results.String != "" {
		if err := json.Unmarshal([]byte(results.String), &j.Results); err != nil {
			return j, fmt.Errorf("decode results of job %s: %w", id, err)
		}
	}
	return j, nil
}

// UpdateJob overwrites the mutable fields of an existing job.
func (repo *DBRepository) UpdateJob(ctx context.Context, j models.Job) error {
	results, err := json.Marshal(j.Results)
	if err != nil {
		return err
	}
	res, err := repo.DB.ExecContext(ctx, `
	UPDATE jobs SET
		status = ?, progress = ?, success_count = ?, fail_count = ?, retry_count = ?,
		avg_scrape_time_ms = ?, error_message = ?, started_at = ?, completed_at = ?, results = ?
	WHERE id = ?`,
		string(j.Status), j.Progress, j.SuccessCount, j.FailCount, j.RetryCount,
		j.AvgScrapeTimeMs, j.ErrorMessage, nullTime(j.StartedAt), nullTime(j.CompletedAt), string(results),
		j.ID,
	)
	if err != nil {
		return fmt.Errorf("update job %s: %w", j.ID, err)
	}
	return expectOne(res, "job", j.ID)
}

package models

import "time"

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Finished reports whether s is terminal.
func (s JobStatus) Finished() bool {
	return s == JobCompleted || s == JobFailed
}

type TargetStatus string

const (
	TargetCompleted TargetStatus = "completed"
	TargetFailed    TargetStatus = "failed"
)

// JobTargetResult is the per-target outcome inside one job.
type JobTargetResult struct {
	TargetID   int64        `json:"target_id"`
	Status     TargetStatus `json:"status"`
	Attempts   int          `json:"attempts"`
	RetryCount int          `json:"retry_count"`
	SnapshotID int64        `json:"snapshot_id,omitempty"`
	ElapsedMs  int64        `json:"elapsed_ms"`
	Error      string       `json:"error,omitempty"`
}

// Job groups a batch of targets scraped together.
type Job struct {
	ID              string            `json:"id"`
	TargetIDs       JSONInt64Slice    `json:"target_ids"`
	Status          JobStatus         `json:"status"`
	Progress        int               `json:"progress"`
	SuccessCount    int               `json:"success_count"`
	FailCount       int               `json:"fail_count"`
	RetryCount      int               `json:"retry_count"`
	MaxRetries      int               `json:"max_retries"`
	AvgScrapeTimeMs int64             `json:"avg_scrape_time_ms"`
	ErrorMessage    string            `json:"error_message,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	StartedAt       *time.Time        `json:"started_at,omitempty"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
	Results         []JobTargetResult `json:"results,omitempty"`
}

// Total is the number of targets in the job.
func (j Job) Total() int {
	return len(j.TargetIDs)
}

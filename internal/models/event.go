package models

import "time"

type EventType string

const (
	EventSnapshotCreated EventType = "snapshot.created"
	EventScrapeFailed    EventType = "scrape.failed"
	EventAlertCreated    EventType = "alert.created"
	EventJobCompleted    EventType = "job.completed"
	EventJobFailed       EventType = "job.failed"
)

// Event is a change notification for live subscribers.
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	TargetID  int64                  `json:"target_id,omitempty"`
	JobID     string                 `json:"job_id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

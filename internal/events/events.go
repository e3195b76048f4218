package events

import (
	"context"
	"errors"
	"time"

	"PriceTracker/internal/models"

	"github.com/google/uuid"
)

// Publisher delivers change events to live listeners. Delivery is best
// effort: no subscriber or a full queue means the event is dropped.
type Publisher interface {
	Publish(ctx context.Context, event models.Event) error
}

// New builds an event with a fresh id and the current UTC time.
func New(eventType models.EventType, targetID int64, jobID string, data map[string]interface{}) models.Event {
	return models.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TargetID:  targetID,
		JobID:     jobID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// Multi publishes to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event models.Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, models.Event) error { return nil }

package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"PriceTracker/internal/models"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedEvent() models.Event {
	return models.Event{
		ID:        "evt-1",
		Type:      models.EventSnapshotCreated,
		TargetID:  7,
		Timestamp: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		Data:      map[string]interface{}{"snapshot_id": 3},
	}
}

func TestNew(t *testing.T) {
	e := New(models.EventJobCompleted, 0, "job-1", nil)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "job-1", e.JobID)
	assert.WithinDuration(t, time.Now(), e.Timestamp, time.Second)
	assert.NotEqual(t, e.ID, New(models.EventJobCompleted, 0, "job-1", nil).ID)
}

func TestBroadcaster_DeliversAndDropsWhenFull(t *testing.T) {
	b := NewBroadcaster()
	ctx := context.Background()

	id, ch := b.Subscribe(1)
	_, other := b.Subscribe(4)
	assert.Equal(t, 2, b.Subscribers())

	require.NoError(t, b.Publish(ctx, fixedEvent()))
	second := fixedEvent()
	second.ID = "evt-2"
	require.NoError(t, b.Publish(ctx, second))

	got := <-ch
	assert.Equal(t, "evt-1", got.ID)
	select {
	case e := <-ch:
		t.Fatalf("expected the second event to be dropped, got %s", e.ID)
	default:
	}
	assert.Len(t, other, 2)

	b.Unsubscribe(id)
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 1, b.Subscribers())
	b.Unsubscribe(id)
}

func TestBroadcaster_NoSubscribers(t *testing.T) {
	assert.NoError(t, NewBroadcaster().Publish(context.Background(), fixedEvent()))
}

func TestRedisPublisher_Publish(t *testing.T) {
	db, mock := redismock.NewClientMock()
	pub := newRedisPublisher(db, "")
	ctx := context.TODO()

	payload, err := json.Marshal(fixedEvent())
	require.NoError(t, err)

	mock.ExpectPublish(DefaultChannel, string(payload)).SetVal(1)
	assert.NoError(t, pub.Publish(ctx, fixedEvent()))

	mock.ExpectPublish(DefaultChannel, string(payload)).SetErr(errors.New("redis down"))
	err = pub.Publish(ctx, fixedEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis publish failure")

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

type failing struct{ err error }

func (f failing) Publish(context.Context, models.Event) error { return f.err }

func TestMulti_PublishesToAllAndJoinsErrors(t *testing.T) {
	b := NewBroadcaster()
	_, ch := b.Subscribe(1)
	m := Multi{failing{errors.New("first")}, nil, b, Discard{}}

	err := m.Publish(context.Background(), fixedEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first")
	assert.Len(t, ch, 1)

	assert.NoError(t, Multi{b, Discard{}}.Publish(context.Background(), fixedEvent()))
}

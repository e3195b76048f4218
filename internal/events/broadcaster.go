package events

import (
	"context"
	"sync"

	"PriceTracker/internal/models"

	log "github.com/sirupsen/logrus"
)

// Broadcaster fans events out to in-process subscribers.
type Broadcaster struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan models.Event
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan models.Event)}
}

// Subscribe registers a listener with a queue of the given size.
func (b *Broadcaster) Subscribe(buffer int) (int, <-chan models.Event) {
	if buffer <= 0 {
		buffer = 16
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	ch := make(chan models.Event, buffer)
	b.subs[b.nextID] = ch
	return b.nextID, ch
}

// Unsubscribe removes the listener and closes its channel.
func (b *Broadcaster) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish never blocks; subscribers whose queue is full miss the event.
func (b *Broadcaster) Publish(_ context.Context, event models.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			log.WithFields(log.Fields{"subscriber": id, "event": event.Type}).Debug("Subscriber queue full, event dropped")
		}
	}
	return nil
}

// Subscribers returns the number of active listeners.
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

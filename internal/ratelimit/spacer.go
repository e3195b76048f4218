package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Spacer keeps a minimum delay between consecutive requests to the same
// domain. Each domain's next free slot is reserved under the lock, so
// concurrent callers for one domain queue up instead of firing together.
type Spacer struct {
	mu   sync.Mutex
	next map[string]time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewSpacer() *Spacer {
	return &Spacer{
		next:  make(map[string]time.Time),
		now:   time.Now,
		sleep: sleepCtx,
	}
}

// Wait blocks until domain may be requested again and reserves the slot
// after it. A zero delay never blocks.
func (s *Spacer) Wait(ctx context.Context, domain string, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	s.mu.Lock()
	now := s.now()
	slot := s.next[domain]
	if slot.Before(now) {
		slot = now
	}
	s.next[domain] = slot.Add(delay)
	s.mu.Unlock()

	if wait := slot.Sub(now); wait > 0 {
		return s.sleep(ctx, wait)
	}
	return nil
}

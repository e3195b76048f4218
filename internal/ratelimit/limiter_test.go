package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu     sync.Mutex
	t      time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.t = c.t.Add(d)
	return nil
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func withClock(l *Limiter, c *fakeClock) *Limiter {
	l.now = c.Now
	l.sleep = c.Sleep
	return l
}

func TestLimiter_SixtyFirstRequestWaitsForWindow(t *testing.T) {
	clock := newFakeClock()
	l := withClock(New(60, time.Minute), clock)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		require.NoError(t, l.Acquire(ctx))
	}
	assert.Empty(t, clock.sleeps, "first 60 requests must not wait")
	assert.Equal(t, 60, l.InWindow())

	require.NoError(t, l.Acquire(ctx))
	assert.Equal(t, []time.Duration{time.Minute}, clock.sleeps)
	assert.Equal(t, 1, l.InWindow(), "the first 60 left the window, only the 61st counts")
}

func TestLimiter_WaitsOnlyForOldestEntry(t *testing.T) {
	clock := newFakeClock()
	l := withClock(New(2, time.Minute), clock)
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx))
	clock.Advance(40 * time.Second)
	require.NoError(t, l.Acquire(ctx))

	require.NoError(t, l.Acquire(ctx))
	assert.Equal(t, []time.Duration{20 * time.Second}, clock.sleeps)
	assert.Equal(t, 2, l.InWindow())
}

func TestLimiter_CancelledWhileWaiting(t *testing.T) {
	l := New(1, time.Hour)
	require.NoError(t, l.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, l.InWindow())
}

func TestLimiter_ConcurrentCallersNeverExceedLimit(t *testing.T) {
	l := New(5, 200*time.Millisecond)
	ctx := context.Background()

	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Acquire(ctx))
			assert.LessOrEqual(t, l.InWindow(), 5)
		}()
	}
	wg.Wait()
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestNew_Defaults(t *testing.T) {
	l := New(0, 0)
	assert.Equal(t, DefaultLimit, l.limit)
	assert.Equal(t, DefaultWindow, l.window)
}

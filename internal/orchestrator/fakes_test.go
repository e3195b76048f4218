package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"PriceTracker/internal/models"
	"PriceTracker/internal/scraper"
)

type memoryStore struct {
	mu        sync.Mutex
	targets   map[int64]models.Target
	snapshots []models.Snapshot
	jobs      map[string]models.Job
	jobWrites []models.Job
	alerts    []models.Alert
	touched   map[int64]time.Time

	failJobUpdates bool
}

func newMemoryStore(targets ...models.Target) *memoryStore {
	s := &memoryStore{
		targets: make(map[int64]models.Target),
		jobs:    make(map[string]models.Job),
		touched: make(map[int64]time.Time),
	}
	for _, t := range targets {
		s.targets[t.ID] = t
	}
	return s
}

func (s *memoryStore) LoadTarget(_ context.Context, id int64) (models.Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.targets[id]
	if !ok {
		return t, fmt.Errorf("target %d: %w", id, models.ErrNotFound)
	}
	return t, nil
}

func (s *memoryStore) ListDueTargets(_ context.Context, now time.Time) ([]models.Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []models.Target
	for _, t := range s.targets {
		if t.IsDue(now) {
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	return due, nil
}

func (s *memoryStore) TouchTarget(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched[id] = at
	return nil
}

func (s *memoryStore) UpdateTargetCurrentValues(_ context.Context, id int64, snap models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.targets[id]
	if snap.Price.Valid {
		t.CurrentPrice = snap.Price
	}
	if snap.InStock != nil {
		t.InStock = snap.InStock
	}
	at := snap.CreatedAt
	t.LastCheckedAt = &at
	s.targets[id] = t
	return nil
}

func (s *memoryStore) SaveSnapshot(_ context.Context, snap *models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap.ID = int64(len(s.snapshots) + 1)
	s.snapshots = append(s.snapshots, *snap)
	return nil
}

func (s *memoryStore) ListRecentSnapshots(_ context.Context, targetID int64, before time.Time, limit int) ([]models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Snapshot
	for i := len(s.snapshots) - 1; i >= 0 && len(out) < limit; i-- {
		if s.snapshots[i].TargetID == targetID && s.snapshots[i].CreatedAt.Before(before) {
			out = append(out, s.snapshots[i])
		}
	}
	return out, nil
}

func (s *memoryStore) snapshotsFor(targetID int64) []models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Snapshot
	for _, snap := range s.snapshots {
		if snap.TargetID == targetID {
			out = append(out, snap)
		}
	}
	return out
}

func (s *memoryStore) CreateJob(_ context.Context, j *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.ID] = *j
	return nil
}

func (s *memoryStore) LoadJob(_ context.Context, id string) (models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return j, fmt.Errorf("job %s: %w", id, models.ErrNotFound)
	}
	return j, nil
}

func (s *memoryStore) UpdateJob(_ context.Context, j models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failJobUpdates {
		return fmt.Errorf("job %s: %w", j.ID, models.ErrNotFound)
	}
	if _, ok := s.jobs[j.ID]; !ok {
		return fmt.Errorf("job %s: %w", j.ID, models.ErrNotFound)
	}
	s.jobs[j.ID] = j
	s.jobWrites = append(s.jobWrites, j)
	return nil
}

func (s *memoryStore) HasAlertSince(_ context.Context, targetID int64, alertType models.AlertType, since time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.alerts {
		if a.TargetID == targetID && a.Type == alertType && !a.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryStore) CreateAlert(_ context.Context, a *models.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = int64(len(s.alerts) + 1)
	s.alerts = append(s.alerts, *a)
	return nil
}

// fakeBackend serves canned responses keyed by URL.
type fakeBackend struct {
	respond     func(url string) (*scraper.Response, error)
	initErr     error
	fetches     atomic.Int64
	initialized atomic.Int64
	cleaned     atomic.Int64
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) Initialize(context.Context) error {
	b.initialized.Add(1)
	return b.initErr
}

func (b *fakeBackend) Fetch(_ context.Context, req scraper.Request) (*scraper.Response, error) {
	b.fetches.Add(1)
	return b.respond(req.URL)
}

func (b *fakeBackend) Cleanup() error {
	b.cleaned.Add(1)
	return nil
}

type countingLimiter struct{ n atomic.Int64 }

func (l *countingLimiter) Acquire(ctx context.Context) error {
	l.n.Add(1)
	return ctx.Err()
}

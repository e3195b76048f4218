package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PriceTracker/internal/alerts"
	"PriceTracker/internal/events"
	"PriceTracker/internal/extractor"
	"PriceTracker/internal/models"
	"PriceTracker/internal/scraper"

	log "github.com/sirupsen/logrus"
)

const maxBackoff = 30 * time.Second

// Store is the persistence the orchestrator drives.
type Store interface {
	alerts.Store
	LoadTarget(ctx context.Context, id int64) (models.Target, error)
	ListDueTargets(ctx context.Context, now time.Time) ([]models.Target, error)
	TouchTarget(ctx context.Context, id int64, checkedAt time.Time) error
	UpdateTargetCurrentValues(ctx context.Context, id int64, s models.Snapshot) error
	SaveSnapshot(ctx context.Context, s *models.Snapshot) error
	ListRecentSnapshots(ctx context.Context, targetID int64, before time.Time, limit int) ([]models.Snapshot, error)
	CreateJob(ctx context.Context, j *models.Job) error
	LoadJob(ctx context.Context, id string) (models.Job, error)
	UpdateJob(ctx context.Context, j models.Job) error
}

// SiteResolver maps a host to its extraction config.
type SiteResolver interface {
	Resolve(domain string) models.SiteConfig
}

// Limiter is the process-wide request budget.
type Limiter interface {
	Acquire(ctx context.Context) error
}

// Spacer enforces a site's delay between requests to the same domain.
type Spacer interface {
	Wait(ctx context.Context, domain string, delay time.Duration) error
}

// Options tunes the orchestrator. Zero values take the defaults.
type Options struct {
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	HistoryLimit int
	Backend      scraper.Options
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 5
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = time.Second
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = 10
	}
	return o
}

// Orchestrator runs the scrape lifecycle for single targets and jobs.
type Orchestrator struct {
	store     Store
	sites     SiteResolver
	limiter   Limiter
	spacer    Spacer
	alerts    *alerts.Service
	publisher events.Publisher
	opts      Options

	// NewBackend builds the fetch backend for one scrape invocation.
	NewBackend func(site models.SiteConfig) scraper.Backend

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func New(store Store, sites SiteResolver, limiter Limiter, spacer Spacer, publisher events.Publisher, opts Options) *Orchestrator {
	opts = opts.withDefaults()
	if publisher == nil {
		publisher = events.Discard{}
	}
	o := &Orchestrator{
		store:     store,
		sites:     sites,
		limiter:   limiter,
		spacer:    spacer,
		alerts:    alerts.NewService(store),
		publisher: publisher,
		opts:      opts,
		now:       time.Now,
		sleep:     sleepCtx,
	}
	o.NewBackend = func(site models.SiteConfig) scraper.Backend {
		return scraper.NewBackend(site, opts.Backend)
	}
	return o
}

// Result is the outcome of one target scrape. Err is set when the target
// failed; its error snapshot, if any, is already persisted.
type Result struct {
	Target   models.Target
	Snapshot *models.Snapshot
	Alerts   []models.Alert
	Attempts int
	Elapsed  time.Duration
	Err      error
}

// RetryCount is the number of attempts beyond the first.
func (r Result) RetryCount() int {
	if r.Attempts <= 1 {
		return 0
	}
	return r.Attempts - 1
}

// ScrapeTargetByID loads a target and scrapes it.
func (o *Orchestrator) ScrapeTargetByID(ctx context.Context, id int64, maxRetries int) (Result, error) {
	target, err := o.store.LoadTarget(ctx, id)
	if err != nil {
		return Result{}, fmt.Errorf("load target %d: %w", id, err)
	}
	return o.ScrapeTarget(ctx, target, maxRetries), nil
}

// ScrapeTarget fetches, extracts, persists and evaluates one target.
// Retryable fetch failures are retried up to maxRetries times; permanent
// failures stop at once. Failures end in an error snapshot, never a panic
// or an error return, so batches keep going.
func (o *Orchestrator) ScrapeTarget(ctx context.Context, target models.Target, maxRetries int) Result {
	start := o.now()
	logger := log.WithFields(log.Fields{"target_id": target.ID, "url": target.URL})
	site := o.sites.Resolve(target.Host())

	backend := o.NewBackend(site)
	logger = logger.WithField("backend", backend.Name())
	res := Result{Target: target}

	if err := backend.Initialize(ctx); err != nil {
		res.Err = &scraper.FetchError{Kind: scraper.KindOther, URL: target.URL, Err: err}
		o.fail(ctx, &res, nil, logger)
		res.Elapsed = o.now().Sub(start)
		return res
	}
	defer func() {
		if err := backend.Cleanup(); err != nil {
			logger.WithError(err).Warn("Backend cleanup failed")
		}
	}()

	var (
		resp *scraper.Response
		err  error
	)
	for attempt := 1; ; attempt++ {
		res.Attempts = attempt
		resp, err = o.fetch(ctx, backend, site, target)
		if err == nil {
			break
		}
		if !scraper.IsRetryable(err) || attempt > maxRetries || ctx.Err() != nil {
			break
		}
		backoff := o.backoff(attempt)
		logger.WithError(err).WithFields(log.Fields{"attempt": attempt, "backoff": backoff}).Warn("Retryable fetch failure")
		if serr := o.sleep(ctx, backoff); serr != nil {
			err = serr
			break
		}
	}
	if err != nil {
		res.Err = err
		o.fail(ctx, &res, resp, logger)
		res.Elapsed = o.now().Sub(start)
		return res
	}

	o.succeed(ctx, &res, site, resp, logger)
	res.Elapsed = o.now().Sub(start)
	return res
}

func (o *Orchestrator) fetch(ctx context.Context, backend scraper.Backend, site models.SiteConfig, target models.Target) (*scraper.Response, error) {
	// Space first so the global window only counts requests about to start.
	if o.spacer != nil {
		delay := time.Duration(site.RequestDelaySeconds * float64(time.Second))
		if err := o.spacer.Wait(ctx, target.Host(), delay); err != nil {
			return nil, err
		}
	}
	if err := o.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	return backend.Fetch(ctx, scraper.Request{URL: target.URL, Site: site, Timeout: o.opts.Backend.RequestTimeout})
}

func (o *Orchestrator) backoff(attempt int) time.Duration {
	d := o.opts.RetryBackoff << (attempt - 1)
	if d <= 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}

// fail persists an error snapshot and marks the target checked so it keeps
// its regular schedule.
func (o *Orchestrator) fail(ctx context.Context, res *Result, resp *scraper.Response, logger *log.Entry) {
	ctx = context.WithoutCancel(ctx)
	snap := &models.Snapshot{
		TargetID:  res.Target.ID,
		CreatedAt: o.now().UTC(),
		ExtractedRecord: models.ExtractedRecord{
			URL:          res.Target.URL,
			ErrorMessage: res.Err.Error(),
		},
	}
	snap.Timestamp = snap.CreatedAt
	if resp != nil {
		snap.HTTPStatus = resp.StatusCode
		snap.ResponseTimeMs = resp.ResponseTime.Milliseconds()
		if len(resp.Content) > 0 {
			snap.ContentHash = extractor.ContentHash(resp.Content)
		}
	}
	var fe *scraper.FetchError
	if errors.As(res.Err, &fe) && snap.HTTPStatus == 0 {
		snap.HTTPStatus = fe.StatusCode
	}

	logger.WithError(res.Err).WithField("attempt", res.Attempts).Warn("Scrape failed")
	if err := o.store.SaveSnapshot(ctx, snap); err != nil {
		logger.WithError(err).Error("Failed to save error snapshot")
	} else {
		res.Snapshot = snap
	}
	if err := o.store.TouchTarget(ctx, res.Target.ID, snap.CreatedAt); err != nil {
		logger.WithError(err).Error("Failed to mark target checked")
	}

	kind := ""
	if fe != nil {
		kind = string(fe.Kind)
	}
	o.publish(ctx, events.New(models.EventScrapeFailed, res.Target.ID, "", map[string]interface{}{
		"error":       res.Err.Error(),
		"kind":        kind,
		"attempts":    res.Attempts,
		"http_status": snap.HTTPStatus,
	}))
}

func (o *Orchestrator) succeed(ctx context.Context, res *Result, site models.SiteConfig, resp *scraper.Response, logger *log.Entry) {
	rec, doc, err := extractor.Extract(resp.Content, res.Target.URL, site)
	rec.HTTPStatus = resp.StatusCode
	rec.ResponseTimeMs = resp.ResponseTime.Milliseconds()
	if err != nil {
		res.Err = fmt.Errorf("parse content: %w", err)
		o.fail(ctx, res, resp, logger)
		return
	}

	snap := &models.Snapshot{TargetID: res.Target.ID, CreatedAt: o.now().UTC(), ExtractedRecord: rec}
	snap.CustomFields = extractor.ExtractCustomFields(doc, res.Target.CustomFields, res.Target.EnabledFields)

	history, err := o.store.ListRecentSnapshots(ctx, res.Target.ID, snap.CreatedAt, o.opts.HistoryLimit)
	if err != nil {
		res.Err = fmt.Errorf("load previous snapshots: %w", err)
		logger.WithError(err).Error("Scrape failed")
		return
	}
	if err := o.store.SaveSnapshot(ctx, snap); err != nil {
		res.Err = fmt.Errorf("save snapshot: %w", err)
		logger.WithError(err).Error("Scrape failed")
		return
	}
	res.Snapshot = snap

	created, err := o.alerts.Process(ctx, res.Target, history, *snap)
	if err != nil {
		logger.WithError(err).Warn("Alert evaluation incomplete")
	}
	res.Alerts = created

	if err := o.store.UpdateTargetCurrentValues(ctx, res.Target.ID, *snap); err != nil {
		logger.WithError(err).Error("Failed to update target current values")
	}

	logger.WithFields(log.Fields{
		"status":     rec.HTTPStatus,
		"price":      priceValue(snap),
		"in_stock":   stockValue(snap),
		"elapsed_ms": rec.ResponseTimeMs,
	}).Info("Snapshot saved")

	o.publish(ctx, events.New(models.EventSnapshotCreated, res.Target.ID, "", map[string]interface{}{
		"snapshot_id": snap.ID,
		"price":       priceValue(snap),
		"currency":    snap.Currency,
		"in_stock":    stockValue(snap),
		"http_status": snap.HTTPStatus,
	}))
	for _, a := range created {
		o.publish(ctx, events.New(models.EventAlertCreated, res.Target.ID, "", map[string]interface{}{
			"alert_id":    a.ID,
			"type":        string(a.Type),
			"message":     a.Message,
			"snapshot_id": a.SnapshotID,
		}))
	}
}

func (o *Orchestrator) publish(ctx context.Context, e models.Event) {
	if err := o.publisher.Publish(ctx, e); err != nil {
		log.WithError(err).WithField("event", e.Type).Warn("Event publish failed")
	}
}

func priceValue(s *models.Snapshot) interface{} {
	if !s.Price.Valid {
		return nil
	}
	return s.Price.Decimal.String()
}

func stockValue(s *models.Snapshot) interface{} {
	if s.InStock == nil {
		return nil
	}
	return *s.InStock
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

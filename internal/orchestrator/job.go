package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"PriceTracker/internal/events"
	"PriceTracker/internal/models"
	"PriceTracker/utils"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// CreateJob stores a pending job for the given targets.
func (o *Orchestrator) CreateJob(ctx context.Context, targetIDs []int64, maxRetries int) (models.Job, error) {
	job := models.Job{
		ID:         uuid.NewString(),
		TargetIDs:  models.JSONInt64Slice(utils.UniqueInt64s(targetIDs)),
		Status:     models.JobPending,
		MaxRetries: maxRetries,
		CreatedAt:  o.now().UTC(),
	}
	if err := o.store.CreateJob(ctx, &job); err != nil {
		return job, fmt.Errorf("create job: %w", err)
	}
	return job, nil
}

// RunJob scrapes every target of a job under the worker limit. The job
// always ends completed or failed: a driver error, panic or cancellation
// marks it failed with the message, and the final state is written even
// when ctx is already cancelled.
func (o *Orchestrator) RunJob(ctx context.Context, jobID string) (err error) {
	job, err := o.store.LoadJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", jobID, err)
	}
	logger := log.WithField("job_id", job.ID)

	started := o.now().UTC()
	job.Status = models.JobRunning
	job.StartedAt = &started
	job.CompletedAt = nil
	job.Progress = 0
	job.ErrorMessage = ""

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job driver panicked: %v", r)
		}
		o.finishJob(ctx, &job, err, logger)
		if err == nil && job.Status == models.JobFailed {
			err = errors.New(job.ErrorMessage)
		}
	}()

	if err := o.store.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("mark job %s running: %w", job.ID, err)
	}
	logger.WithField("targets", job.Total()).Info("Job started")

	results := make([]models.JobTargetResult, job.Total())
	var (
		mu   sync.Mutex
		done int
	)
	g := new(errgroup.Group)
	g.SetLimit(o.opts.Workers)
	for i, id := range job.TargetIDs {
		i, id := i, id
		g.Go(func() error {
			results[i] = o.runJobTarget(ctx, id, job.MaxRetries)

			mu.Lock()
			defer mu.Unlock()
			done++
			progress := job
			progress.Progress = done * 100 / job.Total()
			if perr := o.store.UpdateJob(ctx, progress); perr != nil {
				logger.WithError(perr).Debug("Progress update failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	job.Results = results
	aggregate(&job)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("job cancelled: %w", ctxErr)
	}
	return nil
}

// aggregate computes the job counters once every target has resolved.
func aggregate(job *models.Job) {
	total := len(job.Results)
	var elapsed int64
	job.SuccessCount = 0
	job.RetryCount = 0
	for _, r := range job.Results {
		if r.Status == models.TargetCompleted {
			job.SuccessCount++
		}
		if r.RetryCount > job.RetryCount {
			job.RetryCount = r.RetryCount
		}
		elapsed += r.ElapsedMs
	}
	job.FailCount = total - job.SuccessCount
	job.Progress = 100
	if total > 0 {
		job.AvgScrapeTimeMs = elapsed / int64(total)
	}
}

func (o *Orchestrator) finishJob(ctx context.Context, job *models.Job, driverErr error, logger *log.Entry) {
	completed := o.now().UTC()
	job.CompletedAt = &completed
	if driverErr != nil {
		job.Status = models.JobFailed
		job.ErrorMessage = driverErr.Error()
	} else {
		job.Status = models.JobCompleted
	}

	if err := o.store.UpdateJob(context.WithoutCancel(ctx), *job); err != nil {
		logger.WithError(err).Error("Failed to store final job state")
		if driverErr == nil {
			job.Status = models.JobFailed
			job.ErrorMessage = fmt.Sprintf("store final job state: %v", err)
		}
	}

	eventType := models.EventJobCompleted
	entry := logger.WithFields(log.Fields{
		"status":        job.Status,
		"success_count": job.SuccessCount,
		"fail_count":    job.FailCount,
		"retry_count":   job.RetryCount,
	})
	if job.Status == models.JobFailed {
		eventType = models.EventJobFailed
		entry.WithField("error", job.ErrorMessage).Error("Job failed")
	} else {
		entry.Info("Job completed")
	}
	o.publish(context.WithoutCancel(ctx), events.New(eventType, 0, job.ID, map[string]interface{}{
		"status":        string(job.Status),
		"progress":      job.Progress,
		"success_count": job.SuccessCount,
		"fail_count":    job.FailCount,
		"error":         job.ErrorMessage,
	}))
}

// runJobTarget never panics and never returns an error: every outcome is a result.
func (o *Orchestrator) runJobTarget(ctx context.Context, id int64, maxRetries int) (out models.JobTargetResult) {
	out = models.JobTargetResult{TargetID: id, Status: models.TargetFailed}
	start := o.now()
	defer func() {
		if r := recover(); r != nil {
			out.Status = models.TargetFailed
			out.Error = fmt.Sprintf("scrape panicked: %v", r)
			log.WithFields(log.Fields{"target_id": id, "panic": r}).Error("Target scrape panicked")
		}
		out.ElapsedMs = o.now().Sub(start).Milliseconds()
	}()

	if err := ctx.Err(); err != nil {
		out.Error = err.Error()
		return out
	}
	res, err := o.ScrapeTargetByID(ctx, id, maxRetries)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	out.Attempts = res.Attempts
	out.RetryCount = res.RetryCount()
	if res.Snapshot != nil {
		out.SnapshotID = res.Snapshot.ID
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
		return out
	}
	out.Status = models.TargetCompleted
	return out
}

// ScrapeDue creates and runs a job for every target due at now. It returns
// the finished job, or a zero job when nothing is due.
func (o *Orchestrator) ScrapeDue(ctx context.Context, maxRetries int) (models.Job, error) {
	due, err := o.store.ListDueTargets(ctx, o.now())
	if err != nil {
		return models.Job{}, fmt.Errorf("list due targets: %w", err)
	}
	if len(due) == 0 {
		log.Debug("No targets due")
		return models.Job{}, nil
	}
	ids := make([]int64, 0, len(due))
	for _, t := range due {
		ids = append(ids, t.ID)
	}
	job, err := o.CreateJob(ctx, ids, maxRetries)
	if err != nil {
		return job, err
	}
	runErr := o.RunJob(ctx, job.ID)
	finished, err := o.store.LoadJob(context.WithoutCancel(ctx), job.ID)
	if err != nil {
		return job, errors.Join(runErr, err)
	}
	return finished, runErr
}

// Scheduler runs ScrapeDue on a fixed interval until its context ends.
type Scheduler struct {
	orch       *Orchestrator
	interval   time.Duration
	maxRetries int
}

func NewScheduler(orch *Orchestrator, interval time.Duration, maxRetries int) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{orch: orch, interval: interval, maxRetries: maxRetries}
}

// Run ticks immediately and then every interval. It returns nil when ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	log.WithField("interval", s.interval).Info("Scheduler started")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		s.tick(ctx)
		select {
		case <-ctx.Done():
			log.Info("Scheduler stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	job, err := s.orch.ScrapeDue(ctx, s.maxRetries)
	if err != nil {
		log.WithError(err).WithField("job_id", job.ID).Error("Scheduled run failed")
	}
}

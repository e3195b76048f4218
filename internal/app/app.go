package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PriceTracker/internal/database"
	"PriceTracker/internal/events"
	"PriceTracker/internal/models"
	"PriceTracker/internal/orchestrator"
	"PriceTracker/internal/ratelimit"
	"PriceTracker/internal/scraper"
	"PriceTracker/internal/server"
	"PriceTracker/internal/siteconfig"
	"PriceTracker/pkg/config"
	"PriceTracker/utils"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// App is the main application structure holding all dependencies.
type App struct {
	Config       *config.Config
	Repo         *database.DBRepository
	Registry     *siteconfig.Registry
	Broadcaster  *events.Broadcaster
	Orchestrator *orchestrator.Orchestrator

	redis *events.RedisPublisher
}

// New opens the store and wires the scrape pipeline from cfg.
func New(cfg *config.Config) (*App, error) {
	repo, err := database.InitDB(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	a, err := newWithRepo(context.Background(), cfg, repo)
	if err != nil {
		repo.Close()
		return nil, err
	}
	return a, nil
}

func newWithRepo(ctx context.Context, cfg *config.Config, repo *database.DBRepository) (*App, error) {
	registry, err := loadRegistry(ctx, cfg, repo)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:      cfg,
		Repo:        repo,
		Registry:    registry,
		Broadcaster: events.NewBroadcaster(),
	}
	publishers := events.Multi{a.Broadcaster}
	if cfg.Redis.Addr != "" {
		a.redis = events.NewRedisPublisher(cfg.Redis.Addr, cfg.Redis.Channel)
		if err := a.redis.Ping(ctx); err != nil {
			log.WithError(err).WithField("addr", cfg.Redis.Addr).Warn("Redis unreachable at startup")
		}
		publishers = append(publishers, a.redis)
	}

	a.Orchestrator = orchestrator.New(
		repo,
		registry,
		ratelimit.New(cfg.Scraper.RateLimitPerMinute, time.Minute),
		ratelimit.NewSpacer(),
		publishers,
		orchestrator.Options{
			Workers:      utils.GetOptimalWorkerCount(cfg.Scraper.Workers),
			MaxRetries:   cfg.Scraper.MaxRetries,
			RetryBackoff: cfg.Scraper.RetryBackoff,
			Backend: scraper.Options{
				Headless:       cfg.Scraper.Headless,
				RequestTimeout: cfg.Scraper.RequestTimeout,
				SettleMin:      cfg.Scraper.SettleMin,
				SettleMax:      cfg.Scraper.SettleMax,
			},
		},
	)
	return a, nil
}

// loadRegistry layers the built-in sites, the ones saved in the database and
// the sites file, later sources replacing earlier ones.
func loadRegistry(ctx context.Context, cfg *config.Config, repo *database.DBRepository) (*siteconfig.Registry, error) {
	registry := siteconfig.NewRegistry()
	if err := siteconfig.RegisterBuiltin(registry); err != nil {
		return nil, err
	}
	stored, err := repo.ListSites(ctx)
	if err != nil {
		return nil, err
	}
	fromFile, err := config.LoadSites(cfg.SitesFile)
	if err != nil {
		return nil, err
	}
	for _, site := range append(stored, fromFile...) {
		if err := registry.Register(site.Domain, site); err != nil {
			return nil, err
		}
	}
	log.WithFields(log.Fields{"sites": len(registry.Domains()), "from_file": len(fromFile), "stored": len(stored)}).Info("Site registry loaded")
	return registry, nil
}

func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	errs = append(errs, a.Repo.Close())
	return errors.Join(errs...)
}

// ScrapeTarget scrapes one target now.
func (a *App) ScrapeTarget(ctx context.Context, id int64) (orchestrator.Result, error) {
	res, err := a.Orchestrator.ScrapeTargetByID(ctx, id, a.Config.Scraper.MaxRetries)
	if err != nil {
		return res, err
	}
	entry := log.WithFields(log.Fields{"target_id": id, "attempts": res.Attempts, "alerts": len(res.Alerts)})
	if res.Err != nil {
		entry.WithError(res.Err).Warn("Target scrape failed")
	} else {
		entry.Info("Target scraped")
	}
	return res, nil
}

// RunJob creates a job over ids, runs it and returns its final state.
func (a *App) RunJob(ctx context.Context, ids []int64) (models.Job, error) {
	job, err := a.Orchestrator.CreateJob(ctx, ids, a.Config.Scraper.MaxRetries)
	if err != nil {
		return job, err
	}
	runErr := a.Orchestrator.RunJob(ctx, job.ID)
	final, err := a.Repo.LoadJob(context.WithoutCancel(ctx), job.ID)
	if err != nil {
		return job, errors.Join(runErr, err)
	}
	return final, runErr
}

func (a *App) ScrapeDue(ctx context.Context) (models.Job, error) {
	return a.Orchestrator.ScrapeDue(ctx, a.Config.Scraper.MaxRetries)
}

// Watch runs the scheduler and the event server until ctx is cancelled.
func (a *App) Watch(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return orchestrator.NewScheduler(a.Orchestrator, a.Config.Scheduler.Interval, a.Config.Scraper.MaxRetries).Run(gctx)
	})
	if a.Config.Server.Addr != "" {
		g.Go(func() error {
			return server.New(a.Broadcaster, a.Repo).Start(gctx, a.Config.Server.Addr)
		})
	}
	return g.Wait()
}

// TargetInput describes a target to start tracking.
type TargetInput struct {
	Name            string
	URL             string
	IntervalMinutes int
	MinPrice        string
	MaxPrice        string
	NoPrice         bool
	NoStock         bool
	CustomFields    []models.CustomFieldMapping
}

// AddTarget stores a new target. Domains without a registered config are
// scraped with the generic config until a site is added for them.
func (a *App) AddTarget(ctx context.Context, in TargetInput) (models.Target, error) {
	var err error
	if (models.Target{URL: in.URL}).Host() == "" {
		return models.Target{}, fmt.Errorf("invalid target url %q", in.URL)
	}
	if site := a.Registry.Resolve(in.URL); site.Generic {
		log.WithField("domain", site.Domain).Warn("No site config for target, using the generic config")
	}

	t := models.Target{
		Name:                 in.Name,
		URL:                  in.URL,
		CheckIntervalMinutes: in.IntervalMinutes,
		TrackPrice:           !in.NoPrice,
		TrackStock:           !in.NoStock,
		CustomFields:         in.CustomFields,
	}
	for _, m := range in.CustomFields {
		t.EnabledFields = append(t.EnabledFields, m.Field.ID)
	}
	if t.MinPriceThreshold, err = parseThreshold(in.MinPrice); err != nil {
		return t, fmt.Errorf("min price: %w", err)
	}
	if t.MaxPriceThreshold, err = parseThreshold(in.MaxPrice); err != nil {
		return t, fmt.Errorf("max price: %w", err)
	}
	if err := a.Repo.CreateTarget(ctx, &t); err != nil {
		return t, err
	}
	log.WithFields(log.Fields{"target_id": t.ID, "url": t.URL}).Info("Target added")
	return t, nil
}

func parseThreshold(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := utils.ParseDecimal(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

// SiteInput describes a site to draft with the config wizard.
type SiteInput struct {
	URL       string
	Selectors map[string]string
	// Rendering overrides the wizard's guess when set.
	Rendering *bool
}

// AddSite drafts a config for the site serving in.URL, registers it and
// stores it so later runs resolve the domain the same way.
func (a *App) AddSite(ctx context.Context, in SiteInput) (models.SiteConfig, error) {
	site, err := siteconfig.FromURL(in.URL, in.Selectors)
	if err != nil {
		return site, err
	}
	if in.Rendering != nil {
		site.RequiresRendering = *in.Rendering
	}
	if err := a.Registry.Register(site.Domain, site); err != nil {
		return site, err
	}
	if err := a.Repo.SaveSite(ctx, site); err != nil {
		return site, err
	}
	log.WithFields(log.Fields{"domain": site.Domain, "rendering": site.RequiresRendering}).Info("Site added")
	return site, nil
}

// Sites returns domain -> site name for every known config.
func (a *App) Sites() map[string]string {
	return a.Registry.Sites()
}

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"PriceTracker/internal/app"
	"PriceTracker/internal/models"
	"PriceTracker/pkg/config"
	"PriceTracker/utils"

	log "github.com/sirupsen/logrus"
)

func init() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
}

func main() {
	configFile := flag.String("config", "config.yml", "Path to the YAML config file.")
	task := flag.String("task", "watch", "Task to run: scrape-target, run-job, scrape-due, watch, add-target, add-site or sites.")
	logLevel := flag.String("loglevel", "", "Log level (debug, info, warn, error). Overrides the config file.")
	id := flag.Int64("id", 0, "Target id for scrape-target.")
	ids := flag.String("ids", "", "Comma separated target ids for run-job.")
	url := flag.String("url", "", "Product URL for add-target, or any page of the site for add-site.")
	selectors := flag.String("selectors", "", "Selectors for add-site, e.g. price=.amount,stock_status=.stock")
	render := flag.String("render", "", "add-site: true or false to override the rendering guess.")
	name := flag.String("name", "", "Display name for add-target.")
	interval := flag.Int("interval", 60, "Check interval in minutes for add-target.")
	minPrice := flag.String("min", "", "Alert when the price falls to or below this value.")
	maxPrice := flag.String("max", "", "Alert when the price rises to or above this value.")
	fieldsFile := flag.String("fields", "", "YAML file with custom field mappings for add-target.")
	noPrice := flag.Bool("no-price", false, "Do not raise price alerts for the new target.")
	noStock := flag.Bool("no-stock", false, "Do not raise stock alerts for the new target.")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	level := cfg.Log.Level
	if *logLevel != "" {
		level = *logLevel
	}
	parsedLevel, err := log.ParseLevel(level)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	log.SetLevel(parsedLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer application.Close()

	log.WithField("task", *task).Info("Running task")

	switch *task {
	case "scrape-target":
		if *id <= 0 {
			log.Fatal("scrape-target needs -id")
		}
		res, err := application.ScrapeTarget(ctx, *id)
		if err != nil {
			log.Fatalf("Scrape failed: %v", err)
		}
		if res.Err != nil {
			os.Exit(1)
		}

	case "run-job":
		targetIDs, err := parseIDs(*ids)
		if err != nil || len(targetIDs) == 0 {
			log.Fatalf("run-job needs -ids, e.g. -ids 1,2,3")
		}
		job, err := application.RunJob(ctx, targetIDs)
		logJob(job, err)

	case "scrape-due":
		job, err := application.ScrapeDue(ctx)
		if job.ID == "" && err == nil {
			log.Info("No targets due")
			return
		}
		logJob(job, err)

	case "watch":
		if err := application.Watch(ctx); err != nil {
			log.Fatalf("Watch stopped: %v", err)
		}

	case "add-target":
		in := app.TargetInput{
			Name:            *name,
			URL:             *url,
			IntervalMinutes: *interval,
			MinPrice:        *minPrice,
			MaxPrice:        *maxPrice,
			NoPrice:         *noPrice,
			NoStock:         *noStock,
		}
		if *fieldsFile != "" {
			in.CustomFields, err = config.LoadFieldMappings(*fieldsFile)
			if err != nil {
				log.Fatalf("Failed to load custom fields: %v", err)
			}
		}
		if _, err := application.AddTarget(ctx, in); err != nil {
			log.Fatalf("Failed to add target: %v", err)
		}

	case "add-site":
		in := app.SiteInput{URL: *url, Selectors: parseSelectors(*selectors)}
		if *render != "" {
			b, err := strconv.ParseBool(*render)
			if err != nil {
				log.Fatalf("Invalid -render value: %v", err)
			}
			in.Rendering = &b
		}
		if _, err := application.AddSite(ctx, in); err != nil {
			log.Fatalf("Failed to add site: %v", err)
		}

	case "sites":
		sites := application.Sites()
		for _, domain := range utils.SortedKeys(sites) {
			log.WithField("domain", domain).Info(sites[domain])
		}

	default:
		log.Fatalf("Unknown task: %s.", *task)
	}
}

func parseIDs(s string) ([]int64, error) {
	var out []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// parseSelectors reads field=selector pairs separated by commas. Selectors
// containing commas are not supported here; use the sites file for those.
func parseSelectors(s string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		field, sel, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(field) == "" {
			continue
		}
		out[strings.TrimSpace(field)] = strings.TrimSpace(sel)
	}
	return out
}

func logJob(job models.Job, err error) {
	entry := log.WithFields(log.Fields{
		"job_id":        job.ID,
		"status":        job.Status,
		"success_count": job.SuccessCount,
		"fail_count":    job.FailCount,
		"retry_count":   job.RetryCount,
		"avg_ms":        job.AvgScrapeTimeMs,
	})
	if err != nil {
		entry.WithError(err).Fatal("Job failed")
	}
	entry.Info("Job finished")
}

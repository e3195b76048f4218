package scraper

import (
	"context"
	"time"

	"PriceTracker/internal/models"
)

// Backend fetches raw page content for a target. Implementations are
// scoped to one scrape invocation: Initialize before the first Fetch,
// Cleanup on every exit path.
type Backend interface {
	Initialize(ctx context.Context) error
	Fetch(ctx context.Context, req Request) (*Response, error)
	Cleanup() error
	Name() string
}

// Request describes one fetch.
type Request struct {
	URL     string
	Site    models.SiteConfig
	Timeout time.Duration
}

// Response is what a backend returns for a fetch that produced content.
type Response struct {
	Content      []byte
	StatusCode   int
	ResponseTime time.Duration
	FinalURL     string
}

// Options configures the backends built by NewBackend.
type Options struct {
	Headless       bool
	RequestTimeout time.Duration
	SettleMin      time.Duration
	SettleMax      time.Duration
}

// DefaultOptions mirrors the defaults of the scraper config section.
func DefaultOptions() Options {
	return Options{
		Headless:       true,
		RequestTimeout: 30 * time.Second,
		SettleMin:      time.Second,
		SettleMax:      3 * time.Second,
	}
}

// NewBackend picks the rendering backend for sites that need scripts to run
// and the static backend for everything else.
func NewBackend(site models.SiteConfig, opts Options) Backend {
	if site.RequiresRendering {
		return NewBrowser(opts)
	}
	return NewStatic(opts)
}

func timeoutFor(req Request, opts Options) time.Duration {
	if req.Timeout > 0 {
		return req.Timeout
	}
	if opts.RequestTimeout > 0 {
		return opts.RequestTimeout
	}
	return 30 * time.Second
}

package scraper

import (
	"context"
	"errors"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
	log "github.com/sirupsen/logrus"
)

// Static fetches pages over plain HTTP without executing scripts.
type Static struct {
	opts Options
	base *colly.Collector
}

func NewStatic(opts Options) *Static {
	return &Static{opts: opts}
}

func (s *Static) Name() string { return "static" }

func (s *Static) Initialize(ctx context.Context) error {
	s.base = colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.DetectCharset(),
		colly.ParseHTTPErrorResponse(),
	)
	return nil
}

// Fetch visits req.URL with a fresh clone of the base collector so callbacks
// never leak between requests. Redirects are followed.
func (s *Static) Fetch(ctx context.Context, req Request) (*Response, error) {
	if s.base == nil {
		return nil, &FetchError{Kind: KindOther, URL: req.URL, Err: errors.New("static backend not initialized")}
	}

	c := s.base.Clone()
	c.SetRequestTimeout(timeoutFor(req, s.opts))
	extensions.RandomUserAgent(c)

	logger := log.WithFields(log.Fields{"backend": s.Name(), "url": req.URL})
	c.OnRequest(func(r *colly.Request) {
		for k, v := range req.Site.Headers {
			r.Headers.Set(k, v)
		}
		logger.Debug("Visiting page")
	})

	var resp *Response
	status := 0
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		resp = &Response{
			Content:    r.Body,
			StatusCode: r.StatusCode,
			FinalURL:   r.Request.URL.String(),
		}
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	start := time.Now()
	done := make(chan error, 1)
	go func() { done <- c.Visit(req.URL) }()

	var err error
	select {
	case <-ctx.Done():
		return nil, newFetchError(req.URL, 0, ctx.Err())
	case err = <-done:
	}
	elapsed := time.Since(start)

	if err != nil {
		logger.WithError(err).WithField("status", status).Warn("Request failed")
		return nil, newFetchError(req.URL, status, err)
	}
	if resp == nil {
		return nil, &FetchError{Kind: KindOther, URL: req.URL, Err: errors.New("no response received")}
	}
	resp.ResponseTime = elapsed
	if resp.StatusCode >= 400 {
		logger.WithField("status", resp.StatusCode).Warn("Request failed")
		return resp, newFetchError(req.URL, resp.StatusCode, nil)
	}
	return resp, nil
}

// Cleanup drops the collector; colly holds no resources beyond its HTTP client.
func (s *Static) Cleanup() error {
	s.base = nil
	return nil
}

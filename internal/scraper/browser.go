package scraper

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	log "github.com/sirupsen/logrus"
)

const waitForSelectorCap = 10 * time.Second

// Common consent/newsletter dismiss buttons clicked when a site asks for popup handling.
var popupSelectors = []string{
	"#onetrust-accept-btn-handler",
	"button[id*='accept']",
	"button[class*='cookie'][class*='accept']",
	".modal button.close",
	"[aria-label='Close']",
}

// Browser renders pages in a headless Chrome driven by rod.
type Browser struct {
	opts     Options
	launcher *launcher.Launcher
	browser  *rod.Browser
}

func NewBrowser(opts Options) *Browser {
	return &Browser{opts: opts}
}

func (b *Browser) Name() string { return "browser" }

// Initialize launches the browser process and connects to it.
func (b *Browser) Initialize(ctx context.Context) error {
	l := launcher.New().Headless(b.opts.Headless).Context(ctx)
	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("connect browser: %w", err)
	}
	b.launcher = l
	b.browser = browser
	return nil
}

// Fetch navigates a stealth page to req.URL and returns the rendered HTML.
func (b *Browser) Fetch(ctx context.Context, req Request) (*Response, error) {
	if b.browser == nil {
		return nil, &FetchError{Kind: KindOther, URL: req.URL, Err: errors.New("browser backend not initialized")}
	}
	logger := log.WithFields(log.Fields{"backend": b.Name(), "url": req.URL})

	pageCtx, cancel := context.WithTimeout(ctx, timeoutFor(req, b.opts)+b.opts.SettleMax+waitForSelectorCap)
	defer cancel()

	page, err := stealth.Page(b.browser)
	if err != nil {
		return nil, &FetchError{Kind: KindOther, URL: req.URL, Err: fmt.Errorf("open page: %w", err)}
	}
	defer page.Close()
	page = page.Context(pageCtx)

	if err := b.preparePage(page, req); err != nil {
		return nil, &FetchError{Kind: KindOther, URL: req.URL, Err: err}
	}

	router := page.HijackRequests()
	if err := router.Add("*", "", func(h *rod.Hijack) {
		if blockedResource(h.Request.Type()) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	}); err != nil {
		return nil, &FetchError{Kind: KindOther, URL: req.URL, Err: fmt.Errorf("hijack: %w", err)}
	}
	go router.Run()
	defer router.Stop()

	var status atomic.Int64
	if err := (proto.NetworkEnable{}).Call(page); err != nil {
		logger.WithError(err).Debug("Network domain not enabled")
	}
	go page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type == proto.NetworkResourceTypeDocument && e.Response != nil {
			status.Store(int64(e.Response.Status))
			return true
		}
		return false
	})()

	start := time.Now()
	if err := page.Timeout(timeoutFor(req, b.opts)).Navigate(req.URL); err != nil {
		return nil, newFetchError(req.URL, int(status.Load()), err)
	}
	if err := page.Timeout(timeoutFor(req, b.opts)).WaitLoad(); err != nil {
		return nil, newFetchError(req.URL, int(status.Load()), err)
	}

	if err := sleepCtx(pageCtx, settleDelay(b.opts.SettleMin, b.opts.SettleMax)); err != nil {
		return nil, newFetchError(req.URL, 0, err)
	}
	if req.Site.RenderingHints.HandlePopup {
		dismissPopups(page)
	}
	if sel := req.Site.RenderingHints.WaitForSelector; sel != "" {
		if _, err := page.Timeout(waitForSelectorCap).Element(sel); err != nil {
			logger.WithField("selector", sel).Debug("Wait-for selector not found, extracting anyway")
		}
	}
	if req.Site.RenderingHints.Scroll {
		if err := humanlikeScroll(pageCtx, page); err != nil {
			logger.WithError(err).Debug("Scroll failed")
		}
	}
	if ms := req.Site.RenderingHints.WaitMs; ms > 0 {
		if err := sleepCtx(pageCtx, time.Duration(ms)*time.Millisecond); err != nil {
			return nil, newFetchError(req.URL, 0, err)
		}
	}

	info, err := page.Info()
	if err != nil {
		return nil, newFetchError(req.URL, 0, err)
	}
	if isRobotCheck(info.Title) {
		logger.WithField("title", info.Title).Warn("Robot check detected")
		return nil, &FetchError{Kind: KindRetryable, URL: req.URL, Err: fmt.Errorf("robot check detected: %q", info.Title)}
	}

	html, err := page.HTML()
	if err != nil {
		return nil, newFetchError(req.URL, 0, err)
	}
	resp := &Response{
		Content:      []byte(html),
		StatusCode:   int(status.Load()),
		ResponseTime: time.Since(start),
		FinalURL:     info.URL,
	}
	if resp.StatusCode == 0 {
		resp.StatusCode = 200
	}
	if resp.StatusCode >= 400 {
		return resp, newFetchError(req.URL, resp.StatusCode, nil)
	}
	return resp, nil
}

func (b *Browser) preparePage(page *rod.Page, req Request) error {
	headers := requestHeaders(req.Site.Headers)
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: headers.Get("User-Agent")}); err != nil {
		return fmt.Errorf("set user agent: %w", err)
	}
	headers.Del("User-Agent")
	if pairs := headerPairs(headers); len(pairs) > 0 {
		if _, err := page.SetExtraHeaders(pairs); err != nil {
			return fmt.Errorf("set headers: %w", err)
		}
	}
	return nil
}

// Cleanup closes the browser and removes the launcher's profile directory.
func (b *Browser) Cleanup() error {
	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	if b.launcher != nil {
		b.launcher.Cleanup()
		b.launcher = nil
	}
	return err
}

func blockedResource(t proto.NetworkResourceType) bool {
	switch t {
	case proto.NetworkResourceTypeImage, proto.NetworkResourceTypeStylesheet, proto.NetworkResourceTypeFont:
		return true
	}
	return false
}

func isRobotCheck(title string) bool {
	lower := strings.ToLower(title)
	return strings.Contains(lower, "robot check") || strings.Contains(lower, "captcha")
}

// headerPairs flattens headers into the key, value list rod expects, sorted by key.
func headerPairs(h map[string][]string) []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		if len(h[k]) == 0 {
			continue
		}
		pairs = append(pairs, k, h[k][0])
	}
	return pairs
}

func settleDelay(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rand.Int63n(int64(hi-lo)))
}

func dismissPopups(page *rod.Page) {
	for _, sel := range popupSelectors {
		el, err := page.Timeout(time.Second).Element(sel)
		if err != nil {
			continue
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err == nil {
			log.WithField("selector", sel).Debug("Dismissed popup")
			return
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"PriceTracker/internal/database"
	"PriceTracker/internal/models"
	"PriceTracker/pkg/config"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	repo, err := database.InitDB(":memory:")
	require.NoError(t, err)
	cfg := config.Default()
	cfg.SitesFile = ""
	cfg.Scraper.MaxRetries = 0
	a, err := newWithRepo(context.Background(), cfg, repo)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func shopServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gone" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><head><title>Widget</title></head><body>
<h1>Widget</h1><span class="price">1.299,00 TL</span><div class="stock">Stokta var</div></body></html>`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNew_RegistersBuiltinSites(t *testing.T) {
	a := newTestApp(t)
	sites := a.Sites()
	assert.Equal(t, "Trendyol", sites["trendyol.com"])
	assert.Contains(t, sites, "hepsiburada.com")
}

func TestAddTarget_UnknownSiteStaysGeneric(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	target, err := a.AddTarget(ctx, TargetInput{URL: "https://shop.example/item/1", MinPrice: "99,90", IntervalMinutes: 30})
	require.NoError(t, err)
	assert.NotZero(t, target.ID)
	assert.True(t, target.MinPriceThreshold.Decimal.Equal(decimal.RequireFromString("99.90")))
	assert.True(t, target.TrackPrice)

	_, ok := a.Registry.Lookup("shop.example")
	assert.False(t, ok)
	resolved := a.Registry.Resolve(target.Host())
	assert.True(t, resolved.Generic)
	assert.True(t, resolved.RequiresRendering)

	stored, err := a.Repo.ListSites(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)

	_, err = a.AddTarget(ctx, TargetInput{URL: "https://shop.example/item/2", MaxPrice: "cheap"})
	assert.Error(t, err)
	_, err = a.AddTarget(ctx, TargetInput{URL: "not a url"})
	assert.Error(t, err)
}

func TestAddSite(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	site, err := a.AddSite(ctx, SiteInput{URL: "https://www.shop.example/item/1", Selectors: map[string]string{models.FieldPrice: ".amount"}})
	require.NoError(t, err)
	assert.Equal(t, "shop.example", site.Domain)

	cfg, ok := a.Registry.Lookup("shop.example")
	require.True(t, ok)
	assert.False(t, cfg.Generic)
	assert.Equal(t, ".amount", cfg.Selectors[models.FieldPrice])

	render := true
	_, err = a.AddSite(ctx, SiteInput{URL: "https://other.example/", Rendering: &render})
	require.NoError(t, err)
	other, _ := a.Registry.Lookup("other.example")
	assert.True(t, other.RequiresRendering)

	stored, err := a.Repo.ListSites(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	_, err = a.AddSite(ctx, SiteInput{URL: "https://bad.example/", Selectors: map[string]string{models.FieldPrice: "span[["}})
	assert.Error(t, err)
}

// addStaticSite registers the test server as a plain-HTTP site.
func addStaticSite(t *testing.T, a *App, url string) {
	t.Helper()
	static := false
	_, err := a.AddSite(context.Background(), SiteInput{URL: url, Rendering: &static})
	require.NoError(t, err)
}

func TestScrapeTarget_EndToEnd(t *testing.T) {
	a := newTestApp(t)
	srv := shopServer(t)
	ctx := context.Background()
	_, events := a.Broadcaster.Subscribe(16)
	addStaticSite(t, a, srv.URL)

	target, err := a.AddTarget(ctx, TargetInput{URL: srv.URL + "/item"})
	require.NoError(t, err)

	res, err := a.ScrapeTarget(ctx, target.ID)
	require.NoError(t, err)
	require.NoError(t, res.Err)
	require.NotNil(t, res.Snapshot)
	assert.True(t, res.Snapshot.Price.Decimal.Equal(decimal.NewFromInt(1299)))
	assert.Equal(t, "TRY", res.Snapshot.Currency)
	require.NotNil(t, res.Snapshot.InStock)
	assert.True(t, *res.Snapshot.InStock)
	assert.Equal(t, "Widget", res.Snapshot.ProductName)

	stored, err := a.Repo.LoadTarget(ctx, target.ID)
	require.NoError(t, err)
	assert.True(t, stored.CurrentPrice.Decimal.Equal(decimal.NewFromInt(1299)))
	assert.NotNil(t, stored.LastCheckedAt)

	event := <-events
	assert.Equal(t, models.EventSnapshotCreated, event.Type)
}

func TestRunJob_EndToEnd(t *testing.T) {
	a := newTestApp(t)
	srv := shopServer(t)
	ctx := context.Background()
	addStaticSite(t, a, srv.URL)

	ok, err := a.AddTarget(ctx, TargetInput{URL: srv.URL + "/item"})
	require.NoError(t, err)
	gone, err := a.AddTarget(ctx, TargetInput{URL: srv.URL + "/gone"})
	require.NoError(t, err)

	job, err := a.RunJob(ctx, []int64{ok.ID, gone.ID})
	require.NoError(t, err)
	assert.Equal(t, models.JobCompleted, job.Status)
	assert.Equal(t, 1, job.SuccessCount)
	assert.Equal(t, 1, job.FailCount)
	assert.Equal(t, 100, job.Progress)

	stats, err := a.Repo.ScrapeStats(ctx, job.CreatedAt)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalSnapshots)
	assert.Equal(t, 1, stats.FailedSnapshots)
}

package siteconfig

import (
	"fmt"
	"sync"
	"testing"

	"PriceTracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exampleConfig(name string) models.SiteConfig {
	return models.SiteConfig{
		Name:      name,
		Selectors: map[string]string{models.FieldPrice: ".price"},
	}
}

func TestRegistry_ResolveSuffixAndDefault(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("example.com", exampleConfig("Example")))

	for _, host := range []string{"example.com", "www.example.com", "shop.example.com", "https://shop.example.com/p/1"} {
		t.Run(host, func(t *testing.T) {
			cfg := r.Resolve(host)
			assert.Equal(t, "Example", cfg.Name)
			assert.Equal(t, "example.com", cfg.Domain)
			assert.False(t, cfg.Generic)
		})
	}

	unknown := r.Resolve("unrelated.org")
	assert.True(t, unknown.Generic)
	assert.True(t, unknown.RequiresRendering)
	assert.Equal(t, "unrelated.org", unknown.Domain)
	assert.Contains(t, unknown.Selectors, models.FieldPrice)
	assert.Contains(t, unknown.Selectors, models.FieldStockStatus)
	assert.Contains(t, unknown.Selectors, models.FieldAvailabilityText)
	assert.Contains(t, unknown.Selectors, models.FieldProductName)
}

func TestRegistry_ExactMatchWins(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("example.com", exampleConfig("Parent")))
	require.NoError(t, r.Register("shop.example.com", exampleConfig("Shop")))

	assert.Equal(t, "Shop", r.Resolve("shop.example.com").Name)
	assert.Equal(t, "Parent", r.Resolve("blog.example.com").Name)
}

func TestRegistry_LongestMatchIsDeterministic(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("trendyol.com", exampleConfig("Trendyol")))
	require.NoError(t, r.Register("go.trendyol.com", exampleConfig("Go")))
	require.NoError(t, r.Register("abc.com", exampleConfig("ABC")))
	require.NoError(t, r.Register("abd.com", exampleConfig("ABD")))

	for i := 0; i < 20; i++ {
		assert.Equal(t, "Go", r.Resolve("m.go.trendyol.com").Name)
	}
	// Equal length candidates: lexicographically smaller domain wins.
	assert.Equal(t, "ABC", r.Resolve("abc.com.abd.com.x").Name)
}

func TestRegistry_OverwriteAndIsolation(t *testing.T) {
	r := NewRegistry()
	cfg := exampleConfig("First")
	require.NoError(t, r.Register("example.com", cfg))

	cfg.Selectors[models.FieldPrice] = ".mutated"
	assert.Equal(t, ".price", r.Resolve("example.com").Selectors[models.FieldPrice])

	resolved := r.Resolve("example.com")
	resolved.Selectors[models.FieldPrice] = ".also-mutated"
	assert.Equal(t, ".price", r.Resolve("example.com").Selectors[models.FieldPrice])

	require.NoError(t, r.Register("www.example.com", exampleConfig("Second")))
	assert.Equal(t, "Second", r.Resolve("example.com").Name)
	assert.Len(t, r.Domains(), 1)
}

func TestRegistry_RejectsBadInput(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register("", exampleConfig("Empty")))

	bad := exampleConfig("Bad")
	bad.Selectors[models.FieldPrice] = "div[["
	assert.Error(t, r.Register("bad.com", bad))
	_, ok := r.Lookup("bad.com")
	assert.False(t, ok)
}

func TestRegistry_ConcurrentReadersSeeWholeConfigs(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("example.com", exampleConfig("v0")))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= 200; i++ {
			cfg := models.SiteConfig{
				Name:      fmt.Sprintf("v%d", i),
				Selectors: map[string]string{models.FieldPrice: fmt.Sprintf(".p%d", i)},
			}
			_ = r.Register("example.com", cfg)
		}
	}()
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				cfg := r.Resolve("shop.example.com")
				if cfg.Name == "v0" {
					assert.Equal(t, ".price", cfg.Selectors[models.FieldPrice])
				} else {
					assert.Equal(t, ".p"+cfg.Name[1:], cfg.Selectors[models.FieldPrice])
				}
			}
		}()
	}
	wg.Wait()
}

func TestRegisterBuiltin(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterBuiltin(r))

	assert.Equal(t, "Trendyol", r.Resolve("www.trendyol.com").Name)
	assert.Equal(t, "TrendyolGo", r.Resolve("trendyolgo.com").Name)
	assert.False(t, r.Resolve("n11.com").RequiresRendering)
	assert.Equal(t, "Amazon TR", r.Sites()["amazon.com.tr"])
}

func TestFromURL(t *testing.T) {
	cfg, err := FromURL("https://www.myreactshop.com/p/1", map[string]string{models.FieldPrice: ".amount"})
	require.NoError(t, err)

	assert.Equal(t, "myreactshop.com", cfg.Domain)
	assert.Equal(t, "Myreactshop", cfg.Name)
	assert.True(t, cfg.RequiresRendering)
	assert.Equal(t, ".amount", cfg.Selectors[models.FieldPrice])
	assert.NotEmpty(t, cfg.Selectors[models.FieldStockStatus])
	assert.Equal(t, "https://myreactshop.com/", cfg.Headers["Referer"])

	plain, err := FromURL("https://kitapci.com.tr/x", nil)
	require.NoError(t, err)
	assert.False(t, plain.RequiresRendering)

	_, err = FromURL("not a url", nil)
	assert.Error(t, err)
}

package scraper

import (
	"net/http"
	"testing"
	"time"

	"PriceTracker/internal/models"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
)

func TestNewBackend_SelectsByRenderingFlag(t *testing.T) {
	assert.IsType(t, &Browser{}, NewBackend(models.SiteConfig{RequiresRendering: true}, DefaultOptions()))
	assert.IsType(t, &Static{}, NewBackend(models.SiteConfig{}, DefaultOptions()))
}

func TestBlockedResource(t *testing.T) {
	assert.True(t, blockedResource(proto.NetworkResourceTypeImage))
	assert.True(t, blockedResource(proto.NetworkResourceTypeStylesheet))
	assert.True(t, blockedResource(proto.NetworkResourceTypeFont))
	assert.False(t, blockedResource(proto.NetworkResourceTypeDocument))
	assert.False(t, blockedResource(proto.NetworkResourceTypeXHR))
	assert.False(t, blockedResource(proto.NetworkResourceTypeScript))
}

func TestIsRobotCheck(t *testing.T) {
	assert.True(t, isRobotCheck("Amazon.com.tr - Robot Check"))
	assert.True(t, isRobotCheck("Please solve the CAPTCHA"))
	assert.False(t, isRobotCheck("Akıllı Telefon - Mağaza"))
}

func TestHeaderPairs(t *testing.T) {
	h := http.Header{}
	h.Set("Referer", "https://shop.test/")
	h.Set("Accept-Language", "tr-TR")
	assert.Equal(t, []string{"Accept-Language", "tr-TR", "Referer", "https://shop.test/"}, headerPairs(h))
}

func TestRequestHeaders_SiteOverridesUserAgent(t *testing.T) {
	h := requestHeaders(map[string]string{"User-Agent": "custom", "Accept": "text/html"})
	assert.Equal(t, "custom", h.Get("User-Agent"))
	assert.Equal(t, "text/html", h.Get("Accept"))

	assert.Contains(t, userAgents, requestHeaders(nil).Get("User-Agent"))
}

func TestSettleDelay(t *testing.T) {
	for i := 0; i < 50; i++ {
		d := settleDelay(time.Second, 3*time.Second)
		assert.GreaterOrEqual(t, d, time.Second)
		assert.Less(t, d, 3*time.Second)
	}
	assert.Equal(t, time.Second, settleDelay(time.Second, time.Second))
}

func TestBrowser_CleanupWithoutInitialize(t *testing.T) {
	assert.NoError(t, NewBrowser(DefaultOptions()).Cleanup())
}

package extractor

import (
	"testing"

	"PriceTracker/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productPage = `<html><head><title> Akıllı Telefon - Mağaza </title></head><body>
<h1 class="product-name">Akıllı Telefon X</h1>
<span class="price">1.234,56 TL</span>
<div class="stock">Stokta yok</div>
<span class="avail">Kargoya hazır</span>
<select class="qty"><option value="7">7 adet</option><option value="8">8 adet</option></select>
</body></html>`

func siteWith(selectors map[string]string) models.SiteConfig {
	return models.SiteConfig{Name: "Test", Domain: "test.com", Selectors: selectors}
}

func TestExtract_StandardFields(t *testing.T) {
	site := siteWith(map[string]string{
		models.FieldPrice:            ".price",
		models.FieldCurrency:         ".price",
		models.FieldStockStatus:      ".stock",
		models.FieldAvailabilityText: ".avail",
		models.FieldProductName:      ".product-name",
		models.FieldStockQuantity:    ".qty option",
	})

	rec, doc, err := Extract([]byte(productPage), "https://test.com/p/1", site)
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.Equal(t, "https://test.com/p/1", rec.URL)
	assert.Equal(t, "Akıllı Telefon - Mağaza", rec.PageTitle)
	assert.Equal(t, "Akıllı Telefon X", rec.ProductName)
	require.True(t, rec.Price.Valid)
	assert.True(t, decimal.RequireFromString("1234.56").Equal(rec.Price.Decimal))
	assert.Equal(t, "TRY", rec.Currency)
	require.NotNil(t, rec.InStock)
	assert.False(t, *rec.InStock)
	assert.Equal(t, "Kargoya hazır", rec.AvailabilityText)
	require.NotNil(t, rec.StockQuantity)
	assert.Equal(t, 7, *rec.StockQuantity)
	assert.Empty(t, rec.FieldErrors)
	assert.Equal(t, ContentHash([]byte(productPage)), rec.ContentHash)
	assert.False(t, rec.Failed())
}

func TestExtract_StandardFieldsWithStrayBytes(t *testing.T) {
	site := siteWith(map[string]string{
		models.FieldPrice:       ".price",
		models.FieldStockStatus: ".stock",
	})
	page := []byte("<html><body><p>copyright \xa9 2024</p><span class=price>1.234,56 TL</span><div class=stock>Stokta</div></body></html>")

	rec, _, err := Extract(page, "https://test.com/p/2", site)
	require.NoError(t, err)
	assert.False(t, rec.Failed())
	require.True(t, rec.Price.Valid)
	assert.True(t, decimal.RequireFromString("1234.56").Equal(rec.Price.Decimal))
	require.NotNil(t, rec.InStock)
	assert.True(t, *rec.InStock)
	assert.Equal(t, ContentHash(page), rec.ContentHash)
}

func TestExtract_PriceAttributeFallback(t *testing.T) {
	testCases := []struct {
		name     string
		html     string
		expected string
	}{
		{"data-price", `<span class="p" data-price="1299.90" value="1" content="2"></span>`, "1299.90"},
		{"value", `<input class="p" value="45,50">`, "45.50"},
		{"content", `<meta class="p" content="99,90">`, "99.90"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec, _, err := Extract([]byte("<html><body>"+tc.html+"</body></html>"), "u", siteWith(map[string]string{models.FieldPrice: ".p"}))
			require.NoError(t, err)
			require.True(t, rec.Price.Valid)
			assert.True(t, decimal.RequireFromString(tc.expected).Equal(rec.Price.Decimal))
			assert.Equal(t, "TRY", rec.Currency)
		})
	}
}

func TestExtract_StockFallbacks(t *testing.T) {
	site := siteWith(map[string]string{
		models.FieldStockStatus:      ".stock",
		models.FieldAvailabilityText: ".avail",
	})

	rec, _, err := Extract([]byte(`<div class="stock in-stock">Bilgi</div>`), "u", site)
	require.NoError(t, err)
	require.NotNil(t, rec.InStock)
	assert.True(t, *rec.InStock)

	rec, _, err = Extract([]byte(`<p class="avail">Stokta mevcut</p>`), "u", site)
	require.NoError(t, err)
	require.NotNil(t, rec.InStock)
	assert.True(t, *rec.InStock)

	rec, _, err = Extract([]byte(`<div class="stock">Ürün bilgisi</div>`), "u", site)
	require.NoError(t, err)
	assert.Nil(t, rec.InStock)
	assert.Equal(t, "inconclusive", rec.FieldErrors[models.FieldStockStatus])
}

func TestExtract_PartialSuccess(t *testing.T) {
	site := siteWith(map[string]string{
		models.FieldPrice:       ".price",
		models.FieldProductName: "h1",
		models.FieldCurrency:    ".currency",
	})
	rec, _, err := Extract([]byte(`<html><body><h1>Only a name</h1></body></html>`), "u", site)
	require.NoError(t, err)

	assert.False(t, rec.Failed())
	assert.Equal(t, "Only a name", rec.ProductName)
	assert.False(t, rec.Price.Valid)
	assert.Empty(t, rec.Currency)
	assert.Equal(t, "not found", rec.FieldErrors[models.FieldPrice])
}

func TestExtract_CurrencyFromPriceText(t *testing.T) {
	site := siteWith(map[string]string{models.FieldPrice: ".price"})
	rec, _, err := Extract([]byte(`<span class="price">$1,299.00</span>`), "u", site)
	require.NoError(t, err)
	assert.Equal(t, "USD", rec.Currency)
	assert.True(t, decimal.RequireFromString("1299").Equal(rec.Price.Decimal))
}

func TestExtract_StructuralFailure(t *testing.T) {
	rec, doc, err := Extract([]byte("   "), "u", siteWith(nil))
	assert.ErrorIs(t, err, ErrEmptyContent)
	assert.Nil(t, doc)
	assert.NotEmpty(t, rec.ContentHash)
}

func TestExtract_InvalidSelectorIsFieldLevel(t *testing.T) {
	site := siteWith(map[string]string{
		models.FieldPrice:       "span[[",
		models.FieldProductName: "h1",
	})
	rec, _, err := Extract([]byte(`<h1>Name</h1>`), "u", site)
	require.NoError(t, err)
	assert.Equal(t, "Name", rec.ProductName)
	assert.Contains(t, rec.FieldErrors[models.FieldPrice], "invalid selector")
}

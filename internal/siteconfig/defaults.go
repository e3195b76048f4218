package siteconfig

import "PriceTracker/internal/models"

var defaultSelectors = map[string]string{
	models.FieldPrice:            `.price, .product-price, .current-price, .sale-price, [class*="price"], [data-price]`,
	models.FieldCurrency:         `.price, .product-price, .currency`,
	models.FieldStockStatus:      `.stock, .availability, .in-stock, .out-of-stock, [class*="stock"]`,
	models.FieldAvailabilityText: `.stock-text, .availability-text, .stock-message`,
	models.FieldProductName:      `h1, .product-title, .product-name, [class*="title"], [class*="name"]`,
	models.FieldStockQuantity:    `.quantity, .stock-count, [class*="quantity"]`,
	models.FieldDiscountPrice:    `.sale-price, .discounted-price, .special-price`,
	models.FieldOriginalPrice:    `.original-price, .regular-price, .was-price`,
	models.FieldRating:           `.rating, .stars, .score, [class*="rating"]`,
	models.FieldReviewCount:      `.review-count, .reviews, [class*="review"]`,
}

var defaultHeaders = map[string]string{
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "tr-TR,tr;q=0.9,en;q=0.8",
}

// Generic synthesizes the fallback config for an unknown domain. Unknown
// sites are rendered since their markup may be built client-side.
func Generic(domain string) models.SiteConfig {
	cfg := models.SiteConfig{
		Name:                "Generic E-commerce",
		Domain:              domain,
		RequiresRendering:   true,
		RequestDelaySeconds: 2.0,
		Selectors:           defaultSelectors,
		Headers:             defaultHeaders,
		RenderingHints: models.RenderingHints{
			HandlePopup: true,
			WaitMs:      3000,
		},
		Generic: true,
	}
	return cfg.Clone()
}

// DefaultSelectors returns a copy of the heuristic selector set.
func DefaultSelectors() map[string]string {
	return models.SiteConfig{Selectors: defaultSelectors}.Clone().Selectors
}

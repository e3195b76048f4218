package siteconfig

import (
	"fmt"

	"PriceTracker/internal/models"
)

// Accept-Encoding is left to the transports so responses are decoded for us.
var turkishHeaders = map[string]string{
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "tr-TR,tr;q=0.9,en;q=0.8",
}

func withHeaders(extra map[string]string) map[string]string {
	out := make(map[string]string, len(turkishHeaders)+len(extra))
	for k, v := range turkishHeaders {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// Builtin returns the marketplace configs shipped with the tracker.
func Builtin() []models.SiteConfig {
	return []models.SiteConfig{
		{
			Name:                "Trendyol",
			Domain:              "trendyol.com",
			RequiresRendering:   true,
			RequestDelaySeconds: 1.5,
			Selectors: map[string]string{
				models.FieldPrice:            `.prc-dsc, .prc-org, [data-testid="price-current-price"]`,
				models.FieldCurrency:         `.prc-dsc, .prc-org`,
				models.FieldStockStatus:      `.pr-in-sz, [data-testid="product-variants"], .pr-in-stck`,
				models.FieldAvailabilityText: `.pr-in-sz-tx, .shipping-benefits, .cargo-message`,
				models.FieldProductName:      `.pr-new-br, h1[data-testid="product-name"]`,
				models.FieldStockQuantity:    `select[data-testid="size-selector"] option, .pr-in-sz option`,
				models.FieldDiscountPrice:    `.prc-dsc`,
				models.FieldOriginalPrice:    `.prc-org`,
				models.FieldRating:           `.rating-score`,
				models.FieldReviewCount:      `.rw-cnt`,
			},
			Headers: withHeaders(map[string]string{
				"Cache-Control":  "no-cache",
				"Pragma":         "no-cache",
				"Sec-Fetch-Dest": "document",
				"Sec-Fetch-Mode": "navigate",
				"Sec-Fetch-Site": "none",
				"Sec-Fetch-User": "?1",
			}),
			RenderingHints: models.RenderingHints{WaitForSelector: `.prc-dsc, .prc-org`, Scroll: true, WaitMs: 2000},
		},
		{
			Name:                "TrendyolGo",
			Domain:              "trendyolgo.com",
			RequiresRendering:   true,
			RequestDelaySeconds: 2.0,
			Selectors: map[string]string{
				models.FieldPrice:            `.item-price, .price-current`,
				models.FieldCurrency:         `.item-price`,
				models.FieldStockStatus:      `.stock-status, .availability`,
				models.FieldAvailabilityText: `.stock-info, .delivery-info`,
				models.FieldProductName:      `.item-name, .product-title`,
				models.FieldStockQuantity:    `.quantity-selector option`,
			},
		},
		{
			Name:                "Hepsiburada",
			Domain:              "hepsiburada.com",
			RequiresRendering:   true,
			RequestDelaySeconds: 1.0,
			Selectors: map[string]string{
				models.FieldPrice:            `[data-test-id="price-current-price"], .price-value, .notranslate`,
				models.FieldCurrency:         `[data-test-id="price-current-price"], .price-value`,
				models.FieldStockStatus:      `[data-test-id="shipping-info"], .stock-info, .delivery-info`,
				models.FieldAvailabilityText: `[data-test-id="shipping-info"] span, .stock-status-text`,
				models.FieldProductName:      `[data-test-id="product-name"], h1.product-name`,
				models.FieldStockQuantity:    `.quantity-selector option, .variant-item`,
				models.FieldDiscountPrice:    `[data-test-id="price-current-price"]`,
				models.FieldOriginalPrice:    `[data-test-id="price-old-price"]`,
				models.FieldRating:           `.rating-score, .average-rating`,
				models.FieldReviewCount:      `.rating-count, .review-count`,
			},
			Headers: withHeaders(map[string]string{
				"Referer":        "https://www.hepsiburada.com/",
				"Sec-Fetch-Dest": "document",
				"Sec-Fetch-Mode": "navigate",
			}),
			RenderingHints: models.RenderingHints{WaitForSelector: `[data-test-id="price-current-price"]`, WaitMs: 1500},
		},
		{
			Name:                "N11",
			Domain:              "n11.com",
			RequiresRendering:   false,
			RequestDelaySeconds: 1.0,
			Selectors: map[string]string{
				models.FieldPrice:            `.newPrice, .priceContainer .price, .current-price`,
				models.FieldCurrency:         `.newPrice, .priceContainer .price`,
				models.FieldStockStatus:      `.stockStatus, .availability-info`,
				models.FieldAvailabilityText: `.stockStatus span, .availability-text`,
				models.FieldProductName:      `.proName, .product-name h1`,
				models.FieldStockQuantity:    `.quantity-selector option`,
				models.FieldDiscountPrice:    `.newPrice`,
				models.FieldOriginalPrice:    `.oldPrice, .old-price`,
				models.FieldRating:           `.ratingScore, .rating-value`,
				models.FieldReviewCount:      `.ratingCount, .review-count`,
			},
			Headers: withHeaders(map[string]string{"Cache-Control": "max-age=0"}),
		},
		{
			Name:                "Amazon TR",
			Domain:              "amazon.com.tr",
			RequiresRendering:   true,
			RequestDelaySeconds: 3.0,
			Selectors: map[string]string{
				models.FieldPrice:            `.a-price-whole, .a-offscreen, [data-testid="price"] .a-price-whole`,
				models.FieldCurrency:         `.a-price-symbol, .a-price .a-price-symbol`,
				models.FieldStockStatus:      `#availability span, .a-size-medium.a-color-success, .a-size-medium.a-color-price`,
				models.FieldAvailabilityText: `#availability span, .availability-info`,
				models.FieldProductName:      `#productTitle, .product-title`,
				models.FieldStockQuantity:    `#quantity option, .quantity-selector option`,
				models.FieldDiscountPrice:    `.a-price.a-text-price.a-size-medium.a-color-base .a-offscreen`,
				models.FieldOriginalPrice:    `.a-price.a-text-price .a-offscreen`,
				models.FieldRating:           `.a-icon-alt, .a-star-mini .a-icon-alt`,
				models.FieldReviewCount:      `#acrCustomerReviewText, .review-count`,
			},
			Headers: withHeaders(map[string]string{
				"Accept-Language":           "tr-TR,tr;q=0.9,en-US;q=0.8,en;q=0.7",
				"Cache-Control":             "no-cache",
				"Pragma":                    "no-cache",
				"Sec-Fetch-Dest":            "document",
				"Sec-Fetch-Mode":            "navigate",
				"Sec-Fetch-Site":            "none",
				"Upgrade-Insecure-Requests": "1",
				"Referer":                   "https://www.amazon.com.tr/",
			}),
			RenderingHints: models.RenderingHints{WaitForSelector: `.a-price-whole, #availability`, Scroll: true, WaitMs: 3000},
		},
		{
			Name:                "GittiGidiyor",
			Domain:              "gittigidiyor.com",
			RequiresRendering:   true,
			RequestDelaySeconds: 1.5,
			Selectors: map[string]string{
				models.FieldPrice:            `.product-price, .price-current`,
				models.FieldCurrency:         `.product-price, .price-current`,
				models.FieldStockStatus:      `.stock-info, .availability`,
				models.FieldAvailabilityText: `.stock-status, .delivery-info`,
				models.FieldProductName:      `.product-title, h1.title`,
				models.FieldStockQuantity:    `.stock-count, .quantity-available`,
				models.FieldRating:           `.rating-score`,
				models.FieldReviewCount:      `.review-count`,
			},
			Headers: withHeaders(nil),
		},
		{
			Name:                "Vatan Bilgisayar",
			Domain:              "vatanbilgisayar.com",
			RequiresRendering:   true,
			RequestDelaySeconds: 1.5,
			Selectors: map[string]string{
				models.FieldPrice:            `.product-list__price, .price-current, .product-price-not-discounted`,
				models.FieldCurrency:         `.product-list__price, .price-current`,
				models.FieldStockStatus:      `.product-stock-status, .stock-info, .availability`,
				models.FieldAvailabilityText: `.product-stock-text, .stock-message`,
				models.FieldProductName:      `.product-list__product-name, .product-name h1`,
				models.FieldStockQuantity:    `.stock-quantity, .available-stock`,
				models.FieldDiscountPrice:    `.product-list__price--discounted, .discounted-price`,
				models.FieldOriginalPrice:    `.product-list__price--not-discounted, .original-price`,
				models.FieldRating:           `.rating-score, .product-rating`,
				models.FieldReviewCount:      `.review-count, .comment-count`,
			},
			Headers: withHeaders(map[string]string{
				"Cache-Control":  "no-cache",
				"Referer":        "https://www.vatanbilgisayar.com/",
				"Sec-Fetch-Dest": "document",
				"Sec-Fetch-Mode": "navigate",
			}),
			RenderingHints: models.RenderingHints{WaitForSelector: `.product-list__price, .stock-info`, HandlePopup: true, WaitMs: 2000},
		},
	}
}

// RegisterBuiltin registers every built-in config into r.
func RegisterBuiltin(r *Registry) error {
	for _, cfg := range Builtin() {
		if err := r.Register(cfg.Domain, cfg); err != nil {
			return fmt.Errorf("builtin %s: %w", cfg.Name, err)
		}
	}
	return nil
}

package models

// Selector keys understood by the standard extraction pass.
const (
	FieldPrice            = "price"
	FieldCurrency         = "currency"
	FieldStockStatus      = "stock_status"
	FieldAvailabilityText = "availability_text"
	FieldProductName      = "product_name"
	FieldStockQuantity    = "stock_quantity"
	FieldDiscountPrice    = "discount_price"
	FieldOriginalPrice    = "original_price"
	FieldRating           = "rating"
	FieldReviewCount      = "review_count"
)

// RenderingHints tune the rendering backend for one site.
type RenderingHints struct {
	WaitForSelector string `yaml:"wait_for_selector" json:"wait_for_selector,omitempty"`
	Scroll          bool   `yaml:"scroll" json:"scroll,omitempty"`
	HandlePopup     bool   `yaml:"handle_popup" json:"handle_popup,omitempty"`
	WaitMs          int    `yaml:"wait_ms" json:"wait_ms,omitempty"`
}

// SiteConfig describes how to scrape one domain. Values handed out by the
// registry are copies, so callers may not mutate the registered config.
type SiteConfig struct {
	Name                string            `yaml:"name" json:"name"`
	Domain              string            `yaml:"domain" json:"domain"`
	RequiresRendering   bool              `yaml:"requires_rendering" json:"requires_rendering"`
	RequiresProxy       bool              `yaml:"requires_proxy" json:"requires_proxy"`
	RequestDelaySeconds float64           `yaml:"request_delay_seconds" json:"request_delay_seconds"`
	Selectors           map[string]string `yaml:"selectors" json:"selectors"`
	Headers             map[string]string `yaml:"headers" json:"headers,omitempty"`
	RenderingHints      RenderingHints    `yaml:"rendering_hints" json:"rendering_hints"`
	// Generic marks the synthesized fallback config.
	Generic bool `yaml:"-" json:"generic,omitempty"`
}

// Clone returns a deep copy.
func (c SiteConfig) Clone() SiteConfig {
	out := c
	out.Selectors = copyMap(c.Selectors)
	out.Headers = copyMap(c.Headers)
	return out
}

// Selector returns the selector registered for field, if any.
func (c SiteConfig) Selector(field string) (string, bool) {
	sel, ok := c.Selectors[field]
	return sel, ok && sel != ""
}

func copyMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

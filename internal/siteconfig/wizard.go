package siteconfig

import (
	"fmt"
	"net/url"
	"strings"

	"PriceTracker/internal/models"
	"PriceTracker/utils"
)

// Domain fragments that usually mean a client-rendered storefront.
var spaHints = []string{"react", "vue", "angular", "spa", "app"}

// FromURL drafts a config for the site serving rawURL. Manual selectors take
// precedence over the generic heuristics.
func FromURL(rawURL string, manual map[string]string) (models.SiteConfig, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return models.SiteConfig{}, fmt.Errorf("invalid site url %q", rawURL)
	}
	domain := utils.NormalizeDomain(u.Host)

	needsJS := false
	for _, hint := range spaHints {
		if strings.Contains(domain, hint) {
			needsJS = true
			break
		}
	}

	selectors := DefaultSelectors()
	for field, sel := range manual {
		selectors[field] = sel
	}

	return models.SiteConfig{
		Name:                utils.SiteNameFromDomain(domain),
		Domain:              domain,
		RequiresRendering:   needsJS,
		RequestDelaySeconds: 2.0,
		Selectors:           selectors,
		Headers: map[string]string{
			"Accept":          defaultHeaders["Accept"],
			"Accept-Language": defaultHeaders["Accept-Language"],
			"Referer":         fmt.Sprintf("https://%s/", domain),
		},
	}, nil
}

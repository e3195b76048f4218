package siteconfig

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"PriceTracker/internal/models"
	"PriceTracker/utils"

	"github.com/andybalholm/cascadia"
)

// Registry maps domains to extraction configs. It is safe for concurrent use;
// configs are copied in and out so readers never see a config being built.
type Registry struct {
	mu    sync.RWMutex
	sites map[string]models.SiteConfig
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sites: make(map[string]models.SiteConfig)}
}

// Register adds or replaces the config for domain. Every selector must compile.
func (r *Registry) Register(domain string, cfg models.SiteConfig) error {
	key := utils.NormalizeDomain(domain)
	if key == "" {
		return fmt.Errorf("register site %q: empty domain", cfg.Name)
	}
	for field, sel := range cfg.Selectors {
		if _, err := cascadia.Compile(sel); err != nil {
			return fmt.Errorf("register site %s: selector %s %q: %w", key, field, sel, err)
		}
	}
	if cfg.RenderingHints.WaitForSelector != "" {
		if _, err := cascadia.Compile(cfg.RenderingHints.WaitForSelector); err != nil {
			return fmt.Errorf("register site %s: wait_for_selector: %w", key, err)
		}
	}

	stored := cfg.Clone()
	stored.Domain = key
	stored.Generic = false
	if stored.Name == "" {
		stored.Name = utils.SiteNameFromDomain(key)
	}

	r.mu.Lock()
	r.sites[key] = stored
	r.mu.Unlock()
	return nil
}

// Resolve returns the config for domain (a host or a URL).
//
// An exact match wins. Otherwise every registered domain that is a suffix or a
// substring of the query is a candidate and the longest one wins, ties going to
// the lexicographically smaller domain. With no candidate the generic config is
// returned.
func (r *Registry) Resolve(domain string) models.SiteConfig {
	key := utils.NormalizeDomain(domain)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if cfg, ok := r.sites[key]; ok {
		return cfg.Clone()
	}

	best := ""
	for registered := range r.sites {
		if !strings.HasSuffix(key, registered) && !strings.Contains(key, registered) {
			continue
		}
		if len(registered) > len(best) || (len(registered) == len(best) && registered < best) {
			best = registered
		}
	}
	if best != "" {
		return r.sites[best].Clone()
	}
	return Generic(key)
}

// Lookup returns the registered config for exactly domain.
func (r *Registry) Lookup(domain string) (models.SiteConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.sites[utils.NormalizeDomain(domain)]
	if !ok {
		return models.SiteConfig{}, false
	}
	return cfg.Clone(), true
}

// Sites returns domain -> site name for every registered config.
func (r *Registry) Sites() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.sites))
	for domain, cfg := range r.sites {
		out[domain] = cfg.Name
	}
	return out
}

// Domains returns the registered domains in ascending order.
func (r *Registry) Domains() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	domains := make([]string, 0, len(r.sites))
	for domain := range r.sites {
		domains = append(domains, domain)
	}
	sort.Strings(domains)
	return domains
}

package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"PriceTracker/internal/models"
)

// SaveSite stores or replaces the config registered for cfg.Domain.
func (repo *DBRepository) SaveSite(ctx context.Context, cfg models.SiteConfig) error {
	b, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = repo.DB.ExecContext(ctx, `INSERT INTO sites (domain, config, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(domain) DO UPDATE SET config = excluded.config, updated_at = excluded.updated_at`,
		cfg.Domain, string(b), nanos(time.Now()))
	if err != nil {
		return fmt.Errorf("save site %s: %w", cfg.Domain, err)
	}
	return nil
}

// ListSites returns every stored site config ordered by domain.
func (repo *DBRepository) ListSites(ctx context.Context) ([]models.SiteConfig, error) {
	rows, err := repo.DB.QueryContext(ctx, `SELECT domain, config FROM sites ORDER BY domain`)
	if err != nil {
		return nil, fmt.Errorf("query sites: %w", err)
	}
	defer rows.Close()

	var sites []models.SiteConfig
	for rows.Next() {
		var domain, raw string
		if err := rows.Scan(&domain, &raw); err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		var cfg models.SiteConfig
		if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
			return nil, fmt.Errorf("decode site %s: %w", domain, err)
		}
		sites = append(sites, cfg)
	}
	return sites, rows.Err()
}

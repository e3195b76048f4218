package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"PriceTracker/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ScraperConfig holds fetch and retry settings.
type ScraperConfig struct {
	Workers            string        `yaml:"workers"`
	Headless           bool          `yaml:"headless"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	MaxRetries         int           `yaml:"max_retries"`
	RetryBackoff       time.Duration `yaml:"retry_backoff"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute"`
	SettleMin          time.Duration `yaml:"settle_min"`
	SettleMax          time.Duration `yaml:"settle_max"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// RedisConfig enables the Redis event publisher when Addr is set.
type RedisConfig struct {
	Addr    string `yaml:"addr"`
	Channel string `yaml:"channel"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type SchedulerConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Config is the complete structure for the config.yml file.
type Config struct {
	Scraper   ScraperConfig   `yaml:"scraper"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Server    ServerConfig    `yaml:"server"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Log       LogConfig       `yaml:"log"`
	SitesFile string          `yaml:"sites_file"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Scraper: ScraperConfig{
			Workers:            "5",
			Headless:           true,
			RequestTimeout:     30 * time.Second,
			MaxRetries:         3,
			RetryBackoff:       time.Second,
			RateLimitPerMinute: 60,
			SettleMin:          time.Second,
			SettleMax:          3 * time.Second,
		},
		Database:  DatabaseConfig{Path: "tracker.db"},
		Redis:     RedisConfig{Channel: "price-tracker:events"},
		Server:    ServerConfig{Addr: ":8080"},
		Scheduler: SchedulerConfig{Interval: time.Minute},
		Log:       LogConfig{Level: "info"},
		SitesFile: "sites.yml",
	}
}

// LoadConfig reads path over the defaults, then applies .env and TRACKER_*
// environment overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TRACKER_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("TRACKER_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("TRACKER_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("TRACKER_WORKERS"); v != "" {
		c.Scraper.Workers = v
	}
	if v := os.Getenv("TRACKER_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("TRACKER_RATE_LIMIT: invalid value %q", v)
		}
		c.Scraper.RateLimitPerMinute = n
	}
	if v := os.Getenv("TRACKER_HEADLESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TRACKER_HEADLESS: %w", err)
		}
		c.Scraper.Headless = b
	}
	return nil
}

type sitesFile struct {
	Sites []models.SiteConfig `yaml:"sites"`
}

// LoadSites reads site definitions from path. A missing file yields none.
func LoadSites(path string) ([]models.SiteConfig, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sites %s: %w", path, err)
	}
	var f sitesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sites %s: %w", path, err)
	}
	for i, s := range f.Sites {
		if s.Domain == "" {
			return nil, fmt.Errorf("parse sites %s: entry %d has no domain", path, i)
		}
	}
	return f.Sites, nil
}

type fieldsFile struct {
	Fields []models.CustomFieldMapping `yaml:"fields"`
}

// LoadFieldMappings reads custom field mappings for a target.
func LoadFieldMappings(path string) ([]models.CustomFieldMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fields %s: %w", path, err)
	}
	var f fieldsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fields %s: %w", path, err)
	}
	for i, m := range f.Fields {
		if m.Field.ID == "" || m.Selector == "" {
			return nil, fmt.Errorf("parse fields %s: entry %d needs field.id and selector", path, i)
		}
	}
	return f.Fields, nil
}

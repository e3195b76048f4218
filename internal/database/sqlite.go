package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// DBRepository is the SQLite-backed store for targets, snapshots, jobs,
// alerts and site configs.
type DBRepository struct {
	DB *sql.DB
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS targets (
		"id" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		"name" TEXT NOT NULL DEFAULT '',
		"url" TEXT NOT NULL,
		"check_interval_minutes" INTEGER NOT NULL DEFAULT 60,
		"last_checked_at" INTEGER,
		"track_price" BOOLEAN NOT NULL DEFAULT 1,
		"track_stock" BOOLEAN NOT NULL DEFAULT 1,
		"min_price_threshold" TEXT,
		"max_price_threshold" TEXT,
		"current_price" TEXT,
		"current_currency" TEXT NOT NULL DEFAULT '',
		"in_stock" BOOLEAN,
		"stock_quantity" INTEGER,
		"enabled_fields" TEXT,
		"custom_fields" TEXT,
		"created_at" INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS snapshots (
		"id" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		"target_id" INTEGER NOT NULL,
		"created_at" INTEGER NOT NULL,
		"url" TEXT NOT NULL DEFAULT '',
		"price" TEXT,
		"currency" TEXT NOT NULL DEFAULT '',
		"in_stock" BOOLEAN,
		"stock_quantity" INTEGER,
		"page_title" TEXT NOT NULL DEFAULT '',
		"availability_text" TEXT NOT NULL DEFAULT '',
		"product_name" TEXT NOT NULL DEFAULT '',
		"http_status" INTEGER NOT NULL DEFAULT 0,
		"response_time_ms" INTEGER NOT NULL DEFAULT 0,
		"content_hash" TEXT NOT NULL DEFAULT '',
		"error_message" TEXT NOT NULL DEFAULT '',
		"field_errors" TEXT
	);`,
	`CREATE INDEX IF NOT EXISTS idx_snapshots_target_created ON snapshots (target_id, created_at DESC);`,
	`CREATE TABLE IF NOT EXISTS custom_field_values (
		"id" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		"snapshot_id" INTEGER NOT NULL,
		"field_id" TEXT NOT NULL,
		"field_name" TEXT NOT NULL,
		"field_type" TEXT NOT NULL,
		"raw_value" TEXT NOT NULL DEFAULT '',
		"value" TEXT,
		"ok" BOOLEAN NOT NULL,
		"error" TEXT NOT NULL DEFAULT ''
	);`,
	`CREATE TABLE IF NOT EXISTS jobs (
		"id" TEXT NOT NULL PRIMARY KEY,
		"target_ids" TEXT,
		"status" TEXT NOT NULL,
		"progress" INTEGER NOT NULL DEFAULT 0,
		"success_count" INTEGER NOT NULL DEFAULT 0,
		"fail_count" INTEGER NOT NULL DEFAULT 0,
		"retry_count" INTEGER NOT NULL DEFAULT 0,
		"max_retries" INTEGER NOT NULL DEFAULT 0,
		"avg_scrape_time_ms" INTEGER NOT NULL DEFAULT 0,
		"error_message" TEXT NOT NULL DEFAULT '',
		"created_at" INTEGER NOT NULL,
		"started_at" INTEGER,
		"completed_at" INTEGER,
		"results" TEXT
	);`,
	`CREATE TABLE IF NOT EXISTS alerts (
		"id" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		"target_id" INTEGER NOT NULL,
		"snapshot_id" INTEGER NOT NULL,
		"type" TEXT NOT NULL,
		"condition_value" TEXT,
		"trigger_value" TEXT,
		"message" TEXT NOT NULL DEFAULT '',
		"created_at" INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_target_type ON alerts (target_id, type, created_at);`,
	`CREATE TABLE IF NOT EXISTS sites (
		"domain" TEXT NOT NULL PRIMARY KEY,
		"config" TEXT NOT NULL,
		"updated_at" INTEGER NOT NULL
	);`,
}

// InitDB opens the database at path (":memory:" works) and creates the schema.
func InitDB(path string) (*DBRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY under the worker pool.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	repo := New(db)
	if err := repo.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	log.WithField("path", path).Info("Database and tables initialized")
	return repo, nil
}

// New wraps an already opened database without touching the schema.
func New(db *sql.DB) *DBRepository {
	return &DBRepository{DB: db}
}

// Migrate creates any missing tables and indexes.
func (repo *DBRepository) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := repo.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

func (repo *DBRepository) Close() error {
	return repo.DB.Close()
}

func nanos(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: nanos(*t), Valid: true}
}

func timePtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromNanos(n.Int64)
	return &t
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func boolPtr(n sql.NullBool) *bool {
	if !n.Valid {
		return nil
	}
	b := n.Bool
	return &b
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	i := int(n.Int64)
	return &i
}

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"PriceTracker/internal/models"
)

const targetColumns = `id, name, url, check_interval_minutes, last_checked_at, track_price, track_stock,
	min_price_threshold, max_price_threshold, current_price, current_currency, in_stock,
	stock_quantity, enabled_fields, custom_fields, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTarget(row rowScanner) (models.Target, error) {
	var (
		t            models.Target
		lastChecked  sql.NullInt64
		inStock      sql.NullBool
		quantity     sql.NullInt64
		customFields sql.NullString
		createdAt    int64
	)
	err := row.Scan(
		&t.ID, &t.Name, &t.URL, &t.CheckIntervalMinutes, &lastChecked, &t.TrackPrice, &t.TrackStock,
		&t.MinPriceThreshold, &t.MaxPriceThreshold, &t.CurrentPrice, &t.CurrentCurrency, &inStock,
		&quantity, &t.EnabledFields, &customFields, &createdAt,
	)
	if err != nil {
		return t, err
	}
	t.LastCheckedAt = timePtr(lastChecked)
	t.InStock = boolPtr(inStock)
	t.StockQuantity = intPtr(quantity)
	t.CreatedAt = fromNanos(createdAt)
	if customFields.Valid && customFields.String != "" {
		if err := json.Unmarshal([]byte(customFields.String), &t.CustomFields); err != nil {
			return t, fmt.Errorf("decode custom fields of target %d: %w", t.ID, err)
		}
	}
	return t, nil
}

// CreateTarget inserts t and sets its ID and CreatedAt.
func (repo *DBRepository) CreateTarget(ctx context.Context, t *models.Target) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.CheckIntervalMinutes <= 0 {
		t.CheckIntervalMinutes = 60
	}
	customFields, err := json.Marshal(t.CustomFields)
	if err != nil {
		return err
	}

	res, err := repo.DB.ExecContext(ctx, `
	INSERT INTO targets (
		name, url, check_interval_minutes, last_checked_at, track_price, track_stock,
		min_price_threshold, max_price_threshold, current_price, current_currency, in_stock,
		stock_quantity, enabled_fields, custom_fields, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Name, t.URL, t.CheckIntervalMinutes, nullTime(t.LastCheckedAt), t.TrackPrice, t.TrackStock,
		t.MinPriceThreshold, t.MaxPriceThreshold, t.CurrentPrice, t.CurrentCurrency, nullBool(t.InStock),
		nullInt(t.StockQuantity), t.EnabledFields, string(customFields), nanos(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert target %s: %w", t.URL, err)
	}
	t.ID, err = res.LastInsertId()
	return err
}

// LoadTarget returns models.ErrNotFound when id does not exist.
func (repo *DBRepository) LoadTarget(ctx context.Context, id int64) (models.Target, error) {
	row := repo.DB.QueryRowContext(ctx, `SELECT `+targetColumns+` FROM targets WHERE id = ?`, id)
	t, err := scanTarget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return t, fmt.Errorf("target %d: %w", id, models.ErrNotFound)
	}
	return t, err
}

// ListTargets returns all targets ordered by id.
func (repo *DBRepository) ListTargets(ctx context.Context) ([]models.Target, error) {
	return repo.queryTargets(ctx, `SELECT `+targetColumns+` FROM targets ORDER BY id`)
}

// ListDueTargets returns targets never checked or whose interval has elapsed at now.
func (repo *DBRepository) ListDueTargets(ctx context.Context, now time.Time) ([]models.Target, error) {
	return repo.queryTargets(ctx, `SELECT `+targetColumns+` FROM targets
		WHERE last_checked_at IS NULL
		   OR last_checked_at + check_interval_minutes * 60000000000 <= ?
		ORDER BY id`, nanos(now))
}

func (repo *DBRepository) queryTargets(ctx context.Context, query string, args ...interface{}) ([]models.Target, error) {
	rows, err := repo.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query targets: %w", err)
	}
	defer rows.Close()

	var targets []models.Target
	for rows.Next() {
		t, err := scanTarget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan target: %w", err)
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// TouchTarget records a check without changing the cached current values.
func (repo *DBRepository) TouchTarget(ctx context.Context, id int64, checkedAt time.Time) error {
	res, err := repo.DB.ExecContext(ctx, `UPDATE targets SET last_checked_at = ? WHERE id = ?`, nanos(checkedAt), id)
	if err != nil {
		return fmt.Errorf("touch target %d: %w", id, err)
	}
	return expectOne(res, "target", id)
}

// UpdateTargetCurrentValues caches the snapshot's price and stock on the
// target and marks it checked at the snapshot time. Null fields keep the
// previously cached value.
func (repo *DBRepository) UpdateTargetCurrentValues(ctx context.Context, id int64, s models.Snapshot) error {
	res, err := repo.DB.ExecContext(ctx, `
	UPDATE targets SET
		current_price = COALESCE(?, current_price),
		current_currency = CASE WHEN ? = '' THEN current_currency ELSE ? END,
		in_stock = COALESCE(?, in_stock),
		stock_quantity = COALESCE(?, stock_quantity),
		last_checked_at = ?
	WHERE id = ?`,
		s.Price, s.Currency, s.Currency, nullBool(s.InStock), nullInt(s.StockQuantity), nanos(s.CreatedAt), id,
	)
	if err != nil {
		return fmt.Errorf("update current values of target %d: %w", id, err)
	}
	return expectOne(res, "target", id)
}

func expectOne(res sql.Result, kind string, id interface{}) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %v: %w", kind, id, models.ErrNotFound)
	}
	return nil
}

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"PriceTracker/internal/models"
)

// SaveSnapshot inserts s and its custom field results in one transaction
// and sets s.ID. A zero CreatedAt is set to now.
func (repo *DBRepository) SaveSnapshot(ctx context.Context, s *models.Snapshot) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	var fieldErrors sql.NullString
	if len(s.FieldErrors) > 0 {
		b, err := json.Marshal(s.FieldErrors)
		if err != nil {
			return err
		}
		fieldErrors = sql.NullString{String: string(b), Valid: true}
	}

	tx, err := repo.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
	INSERT INTO snapshots (
		target_id, created_at, url, price, currency, in_stock, stock_quantity, page_title,
		availability_text, product_name, http_status, response_time_ms, content_hash,
		error_message, field_errors
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.TargetID, nanos(s.CreatedAt), s.URL, s.Price, s.Currency, nullBool(s.InStock),
		nullInt(s.StockQuantity), s.PageTitle, s.AvailabilityText, s.ProductName, s.HTTPStatus,
		s.ResponseTimeMs, s.ContentHash, s.ErrorMessage, fieldErrors,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot for target %d: %w", s.TargetID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	if len(s.CustomFields) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO custom_field_values (snapshot_id, field_id, field_name, field_type, raw_value, value, ok, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, f := range s.CustomFields {
			var value sql.NullString
			if f.OK && f.Value != nil {
				b, err := json.Marshal(f.Value)
				if err != nil {
					return fmt.Errorf("encode custom field %s: %w", f.FieldName, err)
				}
				value = sql.NullString{String: string(b), Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, id, f.FieldID, f.FieldName, string(f.FieldType), f.RawValue, value, f.OK, f.Error); err != nil {
				return fmt.Errorf("insert custom field %s: %w", f.FieldName, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	s.ID = id
	return nil
}

const snapshotColumns = `id, target_id, created_at, url, price, currency, in_stock, stock_quantity,
	page_title, availability_text, product_name, http_status, response_time_ms, content_hash,
	error_message, field_errors`

func scanSnapshot(row rowScanner) (models.Snapshot, error) {
	var (
		s           models.Snapshot
		createdAt   int64
		inStock     sql.NullBool
		quantity    sql.NullInt64
		fieldErrors sql.NullString
	)
	err := row.Scan(
		&s.ID, &s.TargetID, &createdAt, &s.URL, &s.Price, &s.Currency, &inStock, &quantity,
		&s.PageTitle, &s.AvailabilityText, &s.ProductName, &s.HTTPStatus, &s.ResponseTimeMs,
		&s.ContentHash, &s.ErrorMessage, &fieldErrors,
	)
	if err != nil {
		return s, err
	}
	s.CreatedAt = fromNanos(createdAt)
	s.Timestamp = s.CreatedAt
	s.InStock = boolPtr(inStock)
	s.StockQuantity = intPtr(quantity)
	if fieldErrors.Valid {
		if err := json.Unmarshal([]byte(fieldErrors.String), &s.FieldErrors); err != nil {
			return s, fmt.Errorf("decode field errors of snapshot %d: %w", s.ID, err)
		}
	}
	return s, nil
}

// ListRecentSnapshots returns up to limit snapshots of a target created
// strictly before the given time, most recent first.
func (repo *DBRepository) ListRecentSnapshots(ctx context.Context, targetID int64, before time.Time, limit int) ([]models.Snapshot, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := repo.DB.QueryContext(ctx, `SELECT `+snapshotColumns+` FROM snapshots
		WHERE target_id = ? AND created_at < ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, targetID, nanos(before), limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots of target %d: %w", targetID, err)
	}
	defer rows.Close()

	var snapshots []models.Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

// ListCustomFieldValues returns the custom field results stored with a
// snapshot. Values come back JSON-decoded (numbers as float64, prices as strings).
func (repo *DBRepository) ListCustomFieldValues(ctx context.Context, snapshotID int64) ([]models.CustomFieldResult, error) {
	rows, err := repo.DB.QueryContext(ctx, `SELECT field_id, field_name, field_type, raw_value, value, ok, error
		FROM custom_field_values WHERE snapshot_id = ? ORDER BY id`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("query custom fields of snapshot %d: %w", snapshotID, err)
	}
	defer rows.Close()

	var results []models.CustomFieldResult
	for rows.Next() {
		var (
			r         models.CustomFieldResult
			fieldType string
			value     sql.NullString
		)
		if err := rows.Scan(&r.FieldID, &r.FieldName, &fieldType, &r.RawValue, &value, &r.OK, &r.Error); err != nil {
			return nil, fmt.Errorf("scan custom field: %w", err)
		}
		r.FieldType = models.FieldType(fieldType)
		if value.Valid {
			if err := json.Unmarshal([]byte(value.String), &r.Value); err != nil {
				return nil, fmt.Errorf("decode custom field %s: %w", r.FieldName, err)
			}
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ScrapeStats summarises snapshots created at or after since.
func (repo *DBRepository) ScrapeStats(ctx context.Context, since time.Time) (models.ScrapeStats, error) {
	stats := models.ScrapeStats{Since: since.UTC()}
	var (
		successful sql.NullInt64
		avg        sql.NullFloat64
	)
	err := repo.DB.QueryRowContext(ctx, `SELECT
			COUNT(*),
			SUM(CASE WHEN error_message = '' THEN 1 ELSE 0 END),
			AVG(response_time_ms)
		FROM snapshots WHERE created_at >= ?`, nanos(since)).Scan(&stats.TotalSnapshots, &successful, &avg)
	if err != nil {
		return stats, fmt.Errorf("query scrape stats: %w", err)
	}
	stats.SuccessfulSnapshots = int(successful.Int64)
	stats.FailedSnapshots = stats.TotalSnapshots - stats.SuccessfulSnapshots
	if stats.TotalSnapshots > 0 {
		stats.SuccessRate = float64(stats.SuccessfulSnapshots) / float64(stats.TotalSnapshots) * 100
	}
	stats.AvgResponseTimeMs = int64(avg.Float64)
	return stats, nil
}

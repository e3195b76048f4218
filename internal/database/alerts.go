package database

import (
	"context"
	"fmt"
	"time"

	"PriceTracker/internal/models"
)

// CreateAlert inserts a and sets its ID.
func (repo *DBRepository) CreateAlert(ctx context.Context, a *models.Alert) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	res, err := repo.DB.ExecContext(ctx, `
	INSERT INTO alerts (target_id, snapshot_id, type, condition_value, trigger_value, message, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.TargetID, a.SnapshotID, string(a.Type), a.ConditionValue, a.TriggerValue, a.Message, nanos(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert %s alert for target %d: %w", a.Type, a.TargetID, err)
	}
	a.ID, err = res.LastInsertId()
	return err
}

// HasAlertSince reports whether an alert of the type exists for the target
// created at or after since.
func (repo *DBRepository) HasAlertSince(ctx context.Context, targetID int64, alertType models.AlertType, since time.Time) (bool, error) {
	var n int
	err := repo.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM alerts WHERE target_id = ? AND type = ? AND created_at >= ?`,
		targetID, string(alertType), nanos(since)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count alerts: %w", err)
	}
	return n > 0, nil
}

// ListAlerts returns a target's alerts, most recent first.
func (repo *DBRepository) ListAlerts(ctx context.Context, targetID int64) ([]models.Alert, error) {
	rows, err := repo.DB.QueryContext(ctx, `SELECT id, target_id, snapshot_id, type, condition_value, trigger_value, message, created_at
		FROM alerts WHERE target_id = ? ORDER BY created_at DESC, id DESC`, targetID)
	if err != nil {
		return nil, fmt.Errorf("query alerts of target %d: %w", targetID, err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		var (
			a         models.Alert
			alertType string
			createdAt int64
		)
		if err := rows.Scan(&a.ID, &a.TargetID, &a.SnapshotID, &alertType, &a.ConditionValue, &a.TriggerValue, &a.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.Type = models.AlertType(alertType)
		a.CreatedAt = fromNanos(createdAt)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

package alerts

import (
	"context"
	"fmt"
	"sort"
	"time"

	"PriceTracker/internal/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var (
	dropRatio = decimal.RequireFromString("-0.10")
	riseRatio = decimal.RequireFromString("0.20")
	hundred   = decimal.NewFromInt(100)
)

// Store is the persistence the alert service needs.
type Store interface {
	HasAlertSince(ctx context.Context, targetID int64, alertType models.AlertType, since time.Time) (bool, error)
	CreateAlert(ctx context.Context, alert *models.Alert) error
}

// Service turns snapshot transitions into persisted, deduplicated alerts.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Process evaluates current against history (newest first, excluding
// current) and stores every candidate not already raised for the target
// today (UTC). It returns the alerts it created.
func (s *Service) Process(ctx context.Context, target models.Target, history []models.Snapshot, current models.Snapshot) ([]models.Alert, error) {
	candidates := Evaluate(target, history, current)
	if len(candidates) == 0 {
		return nil, nil
	}
	dayStart := startOfDay(s.now())

	var created []models.Alert
	for i := range candidates {
		a := candidates[i]
		exists, err := s.store.HasAlertSince(ctx, a.TargetID, a.Type, dayStart)
		if err != nil {
			return created, fmt.Errorf("check existing %s alert: %w", a.Type, err)
		}
		if exists {
			log.WithFields(log.Fields{"target_id": a.TargetID, "type": a.Type}).Debug("Alert already raised today")
			continue
		}
		a.CreatedAt = s.now().UTC()
		if err := s.store.CreateAlert(ctx, &a); err != nil {
			return created, fmt.Errorf("create %s alert: %w", a.Type, err)
		}
		log.WithFields(log.Fields{"target_id": a.TargetID, "type": a.Type}).Info(a.Message)
		created = append(created, a)
	}
	return created, nil
}

func startOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Evaluate returns the alerts current raises relative to the latest prior
// snapshot with the relevant field set. At most one alert per type is
// returned; nothing fires without a baseline.
func Evaluate(target models.Target, history []models.Snapshot, current models.Snapshot) []models.Alert {
	if current.Failed() {
		return nil
	}
	history = newestFirst(history)
	var out []models.Alert
	seen := make(map[models.AlertType]bool)
	add := func(a models.Alert) {
		if seen[a.Type] {
			return
		}
		seen[a.Type] = true
		a.TargetID = target.ID
		a.SnapshotID = current.ID
		out = append(out, a)
	}

	if target.TrackStock && current.InStock != nil {
		if prev := latestWithStock(history); prev != nil {
			switch {
			case *prev.InStock && !*current.InStock:
				add(models.Alert{Type: models.AlertStockOut, Message: "Product went out of stock"})
			case !*prev.InStock && *current.InStock:
				add(models.Alert{Type: models.AlertStockIn, Message: "Product is back in stock"})
			}
		}
	}

	if target.TrackPrice && current.Price.Valid {
		if prev := latestWithPrice(history); prev != nil {
			for _, a := range priceAlerts(target, prev.Price.Decimal, current.Price.Decimal) {
				add(a)
			}
		}
	}
	return out
}

func priceAlerts(target models.Target, prev, cur decimal.Decimal) []models.Alert {
	var out []models.Alert
	trigger := decimal.NullDecimal{Decimal: cur, Valid: true}

	if lo := target.MinPriceThreshold; lo.Valid && cur.LessThanOrEqual(lo.Decimal) {
		out = append(out, models.Alert{
			Type:           models.AlertPriceDrop,
			ConditionValue: lo,
			TriggerValue:   trigger,
			Message:        fmt.Sprintf("Price %s is at or below threshold %s", cur.String(), lo.Decimal.String()),
		})
	}
	if hi := target.MaxPriceThreshold; hi.Valid && cur.GreaterThanOrEqual(hi.Decimal) {
		out = append(out, models.Alert{
			Type:           models.AlertPriceRise,
			ConditionValue: hi,
			TriggerValue:   trigger,
			Message:        fmt.Sprintf("Price %s is at or above threshold %s", cur.String(), hi.Decimal.String()),
		})
	}

	if prev.IsZero() {
		return out
	}
	change := cur.Sub(prev).Div(prev)
	condition := decimal.NullDecimal{Decimal: prev, Valid: true}
	switch {
	case change.LessThanOrEqual(dropRatio):
		out = append(out, models.Alert{
			Type:           models.AlertPriceDrop,
			ConditionValue: condition,
			TriggerValue:   trigger,
			Message:        fmt.Sprintf("Price dropped %s%% (%s to %s)", change.Neg().Mul(hundred).StringFixed(2), prev.String(), cur.String()),
		})
	case change.GreaterThanOrEqual(riseRatio):
		out = append(out, models.Alert{
			Type:           models.AlertPriceRise,
			ConditionValue: condition,
			TriggerValue:   trigger,
			Message:        fmt.Sprintf("Price rose %s%% (%s to %s)", change.Mul(hundred).StringFixed(2), prev.String(), cur.String()),
		})
	}
	return out
}

func latestWithStock(history []models.Snapshot) *models.Snapshot {
	for i := range history {
		if !history[i].Failed() && history[i].InStock != nil {
			return &history[i]
		}
	}
	return nil
}

func latestWithPrice(history []models.Snapshot) *models.Snapshot {
	for i := range history {
		if !history[i].Failed() && history[i].Price.Valid {
			return &history[i]
		}
	}
	return nil
}

// newestFirst orders a copy of history by CreatedAt, most recent first.
func newestFirst(history []models.Snapshot) []models.Snapshot {
	sorted := make([]models.Snapshot, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	return sorted
}

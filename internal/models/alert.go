package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type AlertType string

const (
	AlertStockOut  AlertType = "stock_out"
	AlertStockIn   AlertType = "stock_in"
	AlertPriceDrop AlertType = "price_drop"
	AlertPriceRise AlertType = "price_rise"
)

// Alert records a stock or price event raised by a snapshot.
type Alert struct {
	ID             int64               `json:"id"`
	TargetID       int64               `json:"target_id"`
	SnapshotID     int64               `json:"snapshot_id"`
	Type           AlertType           `json:"type"`
	ConditionValue decimal.NullDecimal `json:"condition_value"`
	TriggerValue   decimal.NullDecimal `json:"trigger_value"`
	Message        string              `json:"message"`
	CreatedAt      time.Time           `json:"created_at"`
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Target is one tracked product page.
type Target struct {
	ID                   int64               `db:"id"`
	Name                 string              `db:"name"`
	URL                  string              `db:"url"`
	CheckIntervalMinutes int                 `db:"check_interval_minutes"`
	LastCheckedAt        *time.Time          `db:"last_checked_at"`
	TrackPrice           bool                `db:"track_price"`
	TrackStock           bool                `db:"track_stock"`
	MinPriceThreshold    decimal.NullDecimal `db:"min_price_threshold"`
	MaxPriceThreshold    decimal.NullDecimal `db:"max_price_threshold"`
	CurrentPrice         decimal.NullDecimal `db:"current_price"`
	CurrentCurrency      string              `db:"current_currency"`
	InStock              *bool               `db:"in_stock"`
	StockQuantity        *int                `db:"stock_quantity"`
	EnabledFields        JSONStringSlice     `db:"enabled_fields"`
	CreatedAt            time.Time           `db:"created_at"`

	// CustomFields are the per-site field mappings available to this target.
	// Only mappings whose definition id is in EnabledFields are evaluated.
	CustomFields []CustomFieldMapping `db:"-"`
}

// IsDue reports whether the target should be scraped at now.
func (t Target) IsDue(now time.Time) bool {
	if t.LastCheckedAt == nil {
		return true
	}
	return now.Sub(*t.LastCheckedAt) >= time.Duration(t.CheckIntervalMinutes)*time.Minute
}

// Host returns the lower-cased host of the target URL, without port.
func (t Target) Host() string {
	u, err := url.Parse(strings.TrimSpace(t.URL))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// JSONStringSlice is a custom type to handle JSON serialization/deserialization for []string
type JSONStringSlice []string

// Value implements the driver.Valuer interface to convert []string to JSON for database storage
func (j JSONStringSlice) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	b, err := json.Marshal([]string(j))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface to convert JSON from database to []string
func (j *JSONStringSlice) Scan(value interface{}) error {
	bytes, err := scanBytes(value)
	if err != nil || bytes == nil {
		*j = nil
		return err
	}
	return json.Unmarshal(bytes, (*[]string)(j))
}

// Contains reports whether s is in the slice.
func (j JSONStringSlice) Contains(s string) bool {
	for _, v := range j {
		if v == s {
			return true
		}
	}
	return false
}

// JSONInt64Slice stores id lists as JSON text.
type JSONInt64Slice []int64

func (j JSONInt64Slice) Value() (driver.Value, error) {
	if j == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]int64(j))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (j *JSONInt64Slice) Scan(value interface{}) error {
	bytes, err := scanBytes(value)
	if err != nil || bytes == nil {
		*j = nil
		return err
	}
	return json.Unmarshal(bytes, (*[]int64)(j))
}

func scanBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.New("unsupported type for JSON column")
	}
}

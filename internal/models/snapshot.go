package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExtractedRecord is the typed result of one fetch. Either ErrorMessage is
// set, or field extraction was attempted; missing fields stay null.
type ExtractedRecord struct {
	URL              string              `json:"url"`
	Timestamp        time.Time           `json:"timestamp"`
	Price            decimal.NullDecimal `json:"price"`
	Currency         string              `json:"currency,omitempty"`
	InStock          *bool               `json:"in_stock"`
	StockQuantity    *int                `json:"stock_quantity"`
	PageTitle        string              `json:"page_title,omitempty"`
	AvailabilityText string              `json:"availability_text,omitempty"`
	ProductName      string              `json:"product_name,omitempty"`
	HTTPStatus       int                 `json:"http_status,omitempty"`
	ResponseTimeMs   int64               `json:"response_time_ms"`
	ContentHash      string              `json:"content_hash,omitempty"`
	ErrorMessage     string              `json:"error_message,omitempty"`
	// FieldErrors holds the reason for each standard field that was
	// configured but could not be extracted.
	FieldErrors map[string]string `json:"field_errors,omitempty"`
}

// Failed reports whether the record is a whole-record error.
func (r ExtractedRecord) Failed() bool {
	return r.ErrorMessage != ""
}

// Snapshot is a persisted ExtractedRecord. Snapshots are immutable and
// ordered by CreatedAt.
type Snapshot struct {
	ID        int64     `json:"id"`
	TargetID  int64     `json:"target_id"`
	CreatedAt time.Time `json:"created_at"`
	ExtractedRecord
	CustomFields []CustomFieldResult `json:"custom_fields,omitempty"`
}

// ScrapeStats summarises snapshots written since a point in time.
type ScrapeStats struct {
	Since               time.Time `json:"since"`
	TotalSnapshots      int       `json:"total_snapshots"`
	SuccessfulSnapshots int       `json:"successful_snapshots"`
	FailedSnapshots     int       `json:"failed_snapshots"`
	SuccessRate         float64   `json:"success_rate"`
	AvgResponseTimeMs   int64     `json:"avg_response_time_ms"`
}

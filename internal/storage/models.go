package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceRecord holds the quoted prices for a single calendar date. A quote
// field that was not published on that date is simply absent from Quotes;
// absence is never conflated with a zero price.
type PriceRecord struct {
	Date      time.Time
	Quotes    map[string]decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Quote returns the named quote and whether it is present.
func (r PriceRecord) Quote(field string) (decimal.Decimal, bool) {
	v, ok := r.Quotes[field]
	return v, ok
}

// AlertRecord captures a persisted price movement alert. Rows are append-only.
type AlertRecord struct {
	ID            int64
	AlertType     string
	Field         string
	Percentage    decimal.Decimal
	BasePrice     decimal.Decimal
	CurrentPrice  decimal.Decimal
	DateTriggered time.Time
	PeriodType    string
	IsCritical    bool
	CreatedAt     time.Time
}

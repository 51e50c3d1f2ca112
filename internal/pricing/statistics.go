package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"gold-price-alerts/internal/storage"
)

// FieldSummary condenses one quote field over a period: the latest value,
// the extremes, the mean, and the change from the first to the last present
// value.
type FieldSummary struct {
	Current   decimal.Decimal
	Min       decimal.Decimal
	Max       decimal.Decimal
	Avg       decimal.Decimal
	Change    decimal.Decimal
	ChangePct decimal.Decimal
	Count     int
}

// Statistics is the per-period statistical summary across all quote fields.
type Statistics struct {
	Period    string
	Count     int
	StartDate time.Time
	EndDate   time.Time
	Fields    map[string]FieldSummary
}

// Summarize computes period statistics from date-ordered raw records.
// Fields with no present value in the period are omitted. ChangePct is left
// zero when the first present value is zero.
func Summarize(period string, records []storage.PriceRecord) Statistics {
	stats := Statistics{
		Period: period,
		Count:  len(records),
		Fields: make(map[string]FieldSummary),
	}
	if len(records) == 0 {
		return stats
	}

	stats.StartDate = records[0].Date
	stats.EndDate = records[len(records)-1].Date

	type series struct {
		first decimal.Decimal
		last  decimal.Decimal
		min   decimal.Decimal
		max   decimal.Decimal
		sum   decimal.Decimal
		count int
	}
	fields := make(map[string]*series)

	for _, record := range records {
		for name, value := range record.Quotes {
			s, ok := fields[name]
			if !ok {
				fields[name] = &series{first: value, last: value, min: value, max: value, sum: value, count: 1}
				continue
			}
			s.last = value
			s.sum = s.sum.Add(value)
			s.count++
			if value.LessThan(s.min) {
				s.min = value
			}
			if value.GreaterThan(s.max) {
				s.max = value
			}
		}
	}

	for name, s := range fields {
		summary := FieldSummary{
			Current: s.last,
			Min:     s.min,
			Max:     s.max,
			Avg:     s.sum.Div(decimal.NewFromInt(int64(s.count))),
			Change:  s.last.Sub(s.first),
			Count:   s.count,
		}
		if s.first.Sign() > 0 {
			summary.ChangePct = s.last.Sub(s.first).Div(s.first).Mul(decimal.NewFromInt(100)).Round(2)
		}
		stats.Fields[name] = summary
	}

	return stats
}

package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"gold-price-alerts/internal/storage"
)

// Granularity selects the level of temporal grouping for a series query.
type Granularity string

const (
	GranularityRaw     Granularity = "raw"
	GranularityMonthly Granularity = "monthly"
	GranularityYearly  Granularity = "yearly"
)

// FieldStats aggregates one quote field within one period group. Only
// present values contribute; a field absent from every record of a group
// produces no FieldStats entry at all.
type FieldStats struct {
	Avg   decimal.Decimal
	Min   decimal.Decimal
	Max   decimal.Decimal
	Count int
}

// AggregateRow is one period group of an aggregated series.
type AggregateRow struct {
	Period     string
	DataPoints int
	Fields     map[string]FieldStats
}

// QueryRange lists records within an inclusive date range, distinguishing a
// completely empty store (ErrEmptyStore) from a range that merely matches
// nothing (empty slice).
func QueryRange(ctx context.Context, store storage.RecordStore, from, to time.Time) ([]storage.PriceRecord, error) {
	count, err := store.CountRecords(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrEmptyStore
	}
	return store.ListRecordsBetween(ctx, from, to)
}

// Aggregate groups date-ordered records by calendar month or year and
// computes per-field mean, min, and max. Periods with zero records are
// omitted rather than zero-filled.
func Aggregate(records []storage.PriceRecord, granularity Granularity) ([]AggregateRow, error) {
	layout, err := periodLayout(granularity)
	if err != nil {
		return nil, err
	}

	type accumulator struct {
		sum   decimal.Decimal
		min   decimal.Decimal
		max   decimal.Decimal
		count int
	}

	keys := make([]string, 0)
	groups := make(map[string]map[string]*accumulator)
	points := make(map[string]int)

	for _, record := range records {
		key := record.Date.Format(layout)
		fields, ok := groups[key]
		if !ok {
			fields = make(map[string]*accumulator)
			groups[key] = fields
			keys = append(keys, key)
		}
		points[key]++

		for name, value := range record.Quotes {
			acc, ok := fields[name]
			if !ok {
				fields[name] = &accumulator{sum: value, min: value, max: value, count: 1}
				continue
			}
			acc.sum = acc.sum.Add(value)
			acc.count++
			if value.LessThan(acc.min) {
				acc.min = value
			}
			if value.GreaterThan(acc.max) {
				acc.max = value
			}
		}
	}

	rows := make([]AggregateRow, 0, len(keys))
	for _, key := range keys {
		row := AggregateRow{
			Period:     key,
			DataPoints: points[key],
			Fields:     make(map[string]FieldStats, len(groups[key])),
		}
		for name, acc := range groups[key] {
			row.Fields[name] = FieldStats{
				Avg:   acc.sum.Div(decimal.NewFromInt(int64(acc.count))),
				Min:   acc.min,
				Max:   acc.max,
				Count: acc.count,
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func periodLayout(granularity Granularity) (string, error) {
	switch granularity {
	case GranularityMonthly:
		return "2006-01", nil
	case GranularityYearly:
		return "2006", nil
	default:
		return "", fmt.Errorf("granularity %q does not aggregate", granularity)
	}
}

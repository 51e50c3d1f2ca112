package pricing

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"gold-price-alerts/internal/storage"
)

// Row is one scraped entry of the daily feed: a calendar date plus the raw
// quote values keyed by field name. Values arrive as strings and are
// validated here, so one malformed cell fails only its own row.
type Row struct {
	Date   time.Time
	Quotes map[string]string
}

// Summary reports the outcome of a merge call.
type Summary struct {
	New       int
	Updated   int
	Unchanged int
	Failed    []ValidationError
}

// Merger is the single write path into the record store. Merging the same
// batch twice is a no-op the second time: rows whose quotes already match
// are left untouched, including their updated_at timestamp.
type Merger struct {
	store  storage.RecordStore
	logger zerolog.Logger
}

// NewMerger constructs a Merger.
func NewMerger(store storage.RecordStore, logger zerolog.Logger) *Merger {
	return &Merger{
		store:  store,
		logger: logger.With().Str("component", "merger").Logger(),
	}
}

// Merge partitions the batch into new, changed, and unchanged dates with a
// single existing-date lookup, inserts the new rows, and overwrites only the
// rows whose quotes actually differ. Dates may arrive in any order; a date
// repeated within the batch resolves last-wins.
func (m *Merger) Merge(ctx context.Context, batch []Row) (Summary, error) {
	summary := Summary{}

	order := make([]time.Time, 0, len(batch))
	parsed := make(map[time.Time]map[string]decimal.Decimal, len(batch))

	for _, row := range batch {
		date := Day(row.Date)
		quotes, err := parseQuotes(date, row.Quotes)
		if err != nil {
			summary.Failed = append(summary.Failed, *err)
			m.logger.Warn().Str("date", date.Format(DateFormat)).Str("reason", err.Reason).Msg("rejected feed row")
			continue
		}
		if _, seen := parsed[date]; !seen {
			order = append(order, date)
		}
		parsed[date] = quotes
	}

	if len(order) == 0 {
		return summary, nil
	}

	existingRecords, err := m.store.ListRecordsByDates(ctx, order)
	if err != nil {
		return summary, err
	}
	existing := make(map[time.Time]storage.PriceRecord, len(existingRecords))
	for _, record := range existingRecords {
		existing[Day(record.Date)] = record
	}

	now := time.Now().UTC()
	inserts := make([]storage.PriceRecord, 0)

	for _, date := range order {
		quotes := parsed[date]
		record, ok := existing[date]
		if !ok {
			inserts = append(inserts, storage.PriceRecord{
				Date:      date,
				Quotes:    quotes,
				CreatedAt: now,
				UpdatedAt: now,
			})
			continue
		}

		if quotesEqual(record.Quotes, quotes) {
			summary.Unchanged++
			continue
		}

		if err := m.store.UpdateRecordQuotes(ctx, date, quotes, now); err != nil {
			return summary, err
		}
		summary.Updated++
	}

	if err := m.store.InsertRecords(ctx, inserts); err != nil {
		return summary, err
	}
	summary.New = len(inserts)

	m.logger.Info().
		Int("new", summary.New).
		Int("updated", summary.Updated).
		Int("unchanged", summary.Unchanged).
		Int("failed", len(summary.Failed)).
		Msg("merge complete")

	return summary, nil
}

func parseQuotes(date time.Time, raw map[string]string) (map[string]decimal.Decimal, *ValidationError) {
	quotes := make(map[string]decimal.Decimal, len(raw))
	for field, value := range raw {
		parsed, err := decimal.NewFromString(value)
		if err != nil {
			return nil, &ValidationError{Date: date, Field: field, Reason: "not a number"}
		}
		if parsed.IsNegative() {
			return nil, &ValidationError{Date: date, Field: field, Reason: "negative price"}
		}
		quotes[field] = parsed
	}
	return quotes, nil
}

func quotesEqual(a, b map[string]decimal.Decimal) bool {
	if len(a) != len(b) {
		return false
	}
	for field, value := range a {
		other, ok := b[field]
		if !ok || !value.Equal(other) {
			return false
		}
	}
	return true
}

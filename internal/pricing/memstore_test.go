package pricing

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"gold-price-alerts/internal/storage"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

// memStore is an in-memory RecordStore and AlertStore keeping records sorted
// by ascending date, mirroring the SQL ordering guarantees.
type memStore struct {
	records []storage.PriceRecord
	alerts  []storage.AlertRecord
	nextID  int64
}

func newMemStore() *memStore {
	return &memStore{nextID: 1}
}

func (m *memStore) InsertRecords(_ context.Context, records []storage.PriceRecord) error {
	m.records = append(m.records, records...)
	sort.Slice(m.records, func(i, j int) bool {
		return m.records[i].Date.Before(m.records[j].Date)
	})
	return nil
}

func (m *memStore) UpdateRecordQuotes(_ context.Context, date time.Time, quotes map[string]decimal.Decimal, updatedAt time.Time) error {
	for i := range m.records {
		if m.records[i].Date.Equal(date) {
			m.records[i].Quotes = quotes
			m.records[i].UpdatedAt = updatedAt
			return nil
		}
	}
	return storage.ErrRecordNotFound
}

func (m *memStore) ListRecordsByDates(_ context.Context, dates []time.Time) ([]storage.PriceRecord, error) {
	wanted := make(map[time.Time]struct{}, len(dates))
	for _, date := range dates {
		wanted[date] = struct{}{}
	}
	out := make([]storage.PriceRecord, 0)
	for _, record := range m.records {
		if _, ok := wanted[record.Date]; ok {
			out = append(out, record)
		}
	}
	return out, nil
}

func (m *memStore) ListRecordsBetween(_ context.Context, from, to time.Time) ([]storage.PriceRecord, error) {
	out := make([]storage.PriceRecord, 0)
	for _, record := range m.records {
		if record.Date.Before(from) || record.Date.After(to) {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

func (m *memStore) ListRecentRecords(_ context.Context, limit int) ([]storage.PriceRecord, error) {
	out := make([]storage.PriceRecord, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

func (m *memStore) LatestRecord(_ context.Context) (storage.PriceRecord, error) {
	if len(m.records) == 0 {
		return storage.PriceRecord{}, storage.ErrRecordNotFound
	}
	return m.records[len(m.records)-1], nil
}

func (m *memStore) LatestRecordOnOrBefore(_ context.Context, date time.Time) (storage.PriceRecord, error) {
	for i := len(m.records) - 1; i >= 0; i-- {
		if !m.records[i].Date.After(date) {
			return m.records[i], nil
		}
	}
	return storage.PriceRecord{}, storage.ErrRecordNotFound
}

func (m *memStore) CountRecords(_ context.Context) (int64, error) {
	return int64(len(m.records)), nil
}

func (m *memStore) InsertAlert(_ context.Context, alert storage.AlertRecord) (storage.AlertRecord, error) {
	alert.ID = m.nextID
	m.nextID++
	alert.CreatedAt = time.Now().UTC()
	m.alerts = append(m.alerts, alert)
	return alert, nil
}

func (m *memStore) ListRecentAlerts(_ context.Context, limit int) ([]storage.AlertRecord, error) {
	out := make([]storage.AlertRecord, 0, limit)
	for i := len(m.alerts) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.alerts[i])
	}
	return out, nil
}

var (
	_ storage.RecordStore = (*memStore)(nil)
	_ storage.AlertStore  = (*memStore)(nil)
)

func day(value string) time.Time {
	t, err := time.Parse(DateFormat, value)
	if err != nil {
		panic(err)
	}
	return t
}

func quotes(pairs map[string]string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(pairs))
	for field, value := range pairs {
		out[field] = decimal.RequireFromString(value)
	}
	return out
}

func seedRecord(store *memStore, date string, pairs map[string]string) {
	now := time.Now().UTC()
	_ = store.InsertRecords(context.Background(), []storage.PriceRecord{{
		Date:      day(date),
		Quotes:    quotes(pairs),
		CreatedAt: now,
		UpdatedAt: now,
	}})
}

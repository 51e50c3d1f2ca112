package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestAggregateMonthly(t *testing.T) {
	store := newMemStore()
	seedRecord(store, "2024-01-05", map[string]string{"gold_ounce": "100"})
	seedRecord(store, "2024-01-20", map[string]string{"gold_ounce": "120"})
	seedRecord(store, "2024-02-03", map[string]string{"gold_ounce": "200"})

	rows, err := Aggregate(store.records, GranularityMonthly)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 month groups, got %d", len(rows))
	}

	jan := rows[0]
	if jan.Period != "2024-01" || jan.DataPoints != 2 {
		t.Fatalf("unexpected january group: %+v", jan)
	}
	stats := jan.Fields["gold_ounce"]
	if !stats.Avg.Equal(decimal.NewFromInt(110)) {
		t.Fatalf("january avg = %s, want 110", stats.Avg)
	}
	if !stats.Min.Equal(decimal.NewFromInt(100)) || !stats.Max.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("january min/max = %s/%s", stats.Min, stats.Max)
	}

	feb := rows[1]
	if feb.Period != "2024-02" || feb.DataPoints != 1 {
		t.Fatalf("unexpected february group: %+v", feb)
	}
	stats = feb.Fields["gold_ounce"]
	if !stats.Avg.Equal(decimal.NewFromInt(200)) || !stats.Min.Equal(decimal.NewFromInt(200)) || !stats.Max.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("single-point group should have avg=min=max=200, got %+v", stats)
	}
}

func TestAggregateYearly(t *testing.T) {
	store := newMemStore()
	seedRecord(store, "2023-06-01", map[string]string{"gold_ounce": "90"})
	seedRecord(store, "2024-01-05", map[string]string{"gold_ounce": "100"})
	seedRecord(store, "2024-12-31", map[string]string{"gold_ounce": "300"})

	rows, err := Aggregate(store.records, GranularityYearly)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 year groups, got %d", len(rows))
	}
	if rows[0].Period != "2023" || rows[1].Period != "2024" {
		t.Fatalf("groups out of order: %s, %s", rows[0].Period, rows[1].Period)
	}
	if !rows[1].Fields["gold_ounce"].Avg.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("2024 avg = %s, want 200", rows[1].Fields["gold_ounce"].Avg)
	}
}

func TestAggregateSkipsAbsentFields(t *testing.T) {
	store := newMemStore()
	seedRecord(store, "2024-01-05", map[string]string{"gold_ounce": "100", "carat_24_1gram": "10"})
	seedRecord(store, "2024-01-20", map[string]string{"gold_ounce": "120"})

	rows, err := Aggregate(store.records, GranularityMonthly)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}

	carat := rows[0].Fields["carat_24_1gram"]
	if carat.Count != 1 {
		t.Fatalf("absent values must not count, got %d", carat.Count)
	}
	if !carat.Avg.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("avg over present values only, got %s", carat.Avg)
	}
	if rows[0].Fields["gold_ounce"].Count != 2 {
		t.Fatalf("gold_ounce count = %d, want 2", rows[0].Fields["gold_ounce"].Count)
	}
}

func TestAggregateRejectsRawGranularity(t *testing.T) {
	if _, err := Aggregate(nil, GranularityRaw); err == nil {
		t.Fatal("raw granularity must not aggregate")
	}
}

func TestQueryRangeEmptyStore(t *testing.T) {
	store := newMemStore()
	_, err := QueryRange(context.Background(), store, time.Time{}, day("2024-06-15"))
	if !errors.Is(err, ErrEmptyStore) {
		t.Fatalf("expected ErrEmptyStore, got %v", err)
	}
}

func TestQueryRangeEmptyWindowIsNotAnError(t *testing.T) {
	store := newMemStore()
	seedRecord(store, "2020-01-01", map[string]string{"gold_ounce": "100"})

	records, err := QueryRange(context.Background(), store, day("2024-01-01"), day("2024-06-15"))
	if err != nil {
		t.Fatalf("a populated store with an empty window must not error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

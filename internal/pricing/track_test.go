package pricing

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
)

func newTestTracker(store *memStore) *Tracker {
	return NewTracker(store, store, DefaultThresholds(), noopLogger())
}

func TestClassifyBoundaries(t *testing.T) {
	th := DefaultThresholds()

	cases := []struct {
		pct      string
		alert    string
		critical bool
	}{
		{"-5", AlertDecrease, true},
		{"-5.01", AlertDecrease, true},
		{"-4.99", AlertDecrease, false},
		{"10", AlertIncrease, true},
		{"10.01", AlertIncrease, true},
		{"9.99", AlertIncrease, false},
		{"0", AlertDecrease, false},
		{"0.5", AlertIncrease, false},
	}

	for _, tc := range cases {
		alert, critical := Classify(decimal.RequireFromString(tc.pct), th)
		if alert != tc.alert || critical != tc.critical {
			t.Fatalf("%s%%: got (%s, %v), want (%s, %v)", tc.pct, alert, critical, tc.alert, tc.critical)
		}
	}
}

func TestClassifyDecreaseCheckedFirst(t *testing.T) {
	// Overlapping thresholds: a -3% move satisfies the decrease boundary and
	// must be classified as a decrease even though 3 >= increase is false.
	th := Thresholds{DecreasePct: decimal.NewFromInt(3), IncreasePct: decimal.NewFromInt(3)}
	alert, critical := Classify(decimal.NewFromInt(-3), th)
	if alert != AlertDecrease || !critical {
		t.Fatalf("got (%s, %v), want critical decrease", alert, critical)
	}
}

func TestTrackCriticalDecrease(t *testing.T) {
	store := newMemStore()
	seedRecord(store, "2024-06-08", map[string]string{"gold_ounce": "1000"})
	seedRecord(store, "2024-06-15", map[string]string{"gold_ounce": "950"})

	result, err := newTestTracker(store).Track(context.Background(), "gold_ounce", day("2024-06-15"))
	if err != nil {
		t.Fatalf("track failed: %v", err)
	}
	weekly := result.Weekly
	if weekly == nil {
		t.Fatal("weekly window should resolve")
	}
	if !weekly.PercentageChange.Equal(decimal.RequireFromString("-5")) {
		t.Fatalf("pct = %s, want -5", weekly.PercentageChange)
	}
	if weekly.AlertType != AlertDecrease || !weekly.IsCritical {
		t.Fatalf("expected critical decrease, got %+v", weekly)
	}
}

func TestTrackNonCriticalDecrease(t *testing.T) {
	store := newMemStore()
	seedRecord(store, "2024-06-08", map[string]string{"gold_ounce": "1000"})
	seedRecord(store, "2024-06-15", map[string]string{"gold_ounce": "951"})

	result, err := newTestTracker(store).Track(context.Background(), "gold_ounce", day("2024-06-15"))
	if err != nil {
		t.Fatalf("track failed: %v", err)
	}
	weekly := result.Weekly
	if weekly == nil || weekly.IsCritical {
		t.Fatalf("-4.9%% must not be critical: %+v", weekly)
	}
	if weekly.AlertType != AlertDecrease {
		t.Fatalf("direction = %s, want decrease", weekly.AlertType)
	}
}

func TestTrackCriticalIncreaseBoundary(t *testing.T) {
	store := newMemStore()
	seedRecord(store, "2024-06-08", map[string]string{"gold_ounce": "1000"})
	seedRecord(store, "2024-06-15", map[string]string{"gold_ounce": "1100"})

	result, err := newTestTracker(store).Track(context.Background(), "gold_ounce", day("2024-06-15"))
	if err != nil {
		t.Fatalf("track failed: %v", err)
	}
	weekly := result.Weekly
	if weekly == nil || weekly.AlertType != AlertIncrease || !weekly.IsCritical {
		t.Fatalf("+10%% must be a critical increase: %+v", weekly)
	}
}

func TestTrackJustBelowIncreaseBoundary(t *testing.T) {
	store := newMemStore()
	seedRecord(store, "2024-06-08", map[string]string{"gold_ounce": "1000"})
	seedRecord(store, "2024-06-15", map[string]string{"gold_ounce": "1099"})

	result, err := newTestTracker(store).Track(context.Background(), "gold_ounce", day("2024-06-15"))
	if err != nil {
		t.Fatalf("track failed: %v", err)
	}
	if result.Weekly == nil || result.Weekly.IsCritical {
		t.Fatalf("+9.9%% must not be critical: %+v", result.Weekly)
	}
}

func TestTrackUsesNearestBeforeBase(t *testing.T) {
	// No record exactly 7 days back; the nearest earlier record is 9 days
	// back and must serve as the base.
	store := newMemStore()
	seedRecord(store, "2024-06-06", map[string]string{"gold_ounce": "1000"})
	seedRecord(store, "2024-06-15", map[string]string{"gold_ounce": "1100"})

	result, err := newTestTracker(store).Track(context.Background(), "gold_ounce", day("2024-06-15"))
	if err != nil {
		t.Fatalf("track failed: %v", err)
	}
	weekly := result.Weekly
	if weekly == nil {
		t.Fatal("weekly window should resolve via nearest-before lookup")
	}
	if !weekly.BaseDate.Equal(day("2024-06-06")) {
		t.Fatalf("base date = %s, want 2024-06-06", weekly.BaseDate.Format(DateFormat))
	}
	if weekly.DaysTracked != 9 {
		t.Fatalf("days tracked = %d, want 9", weekly.DaysTracked)
	}
}

func TestTrackMissingBaseYieldsNilWindow(t *testing.T) {
	store := newMemStore()
	seedRecord(store, "2024-06-15", map[string]string{"gold_ounce": "1000"})

	result, err := newTestTracker(store).Track(context.Background(), "gold_ounce", day("2024-06-15"))
	if err != nil {
		t.Fatalf("a missing base is not an error: %v", err)
	}
	if result.Weekly != nil || result.Monthly != nil {
		t.Fatalf("windows should be nil without a base record: %+v", result)
	}
}

func TestTrackAbsentFieldYieldsNilWindow(t *testing.T) {
	store := newMemStore()
	seedRecord(store, "2024-06-08", map[string]string{"carat_24_1gram": "95"})
	seedRecord(store, "2024-06-15", map[string]string{"carat_24_1gram": "96"})

	result, err := newTestTracker(store).Track(context.Background(), "gold_ounce", day("2024-06-15"))
	if err != nil {
		t.Fatalf("track failed: %v", err)
	}
	if result.Weekly != nil {
		t.Fatalf("absent field must not produce a change: %+v", result.Weekly)
	}
}

func TestCheckAndPersistAlertsStoresOnlyCritical(t *testing.T) {
	store := newMemStore()
	// gold_ounce drops 5% (critical); carat_24_1gram rises 1% (informational).
	seedRecord(store, "2024-05-10", map[string]string{"gold_ounce": "1000", "carat_24_1gram": "100"})
	seedRecord(store, "2024-06-08", map[string]string{"gold_ounce": "1000", "carat_24_1gram": "100"})
	seedRecord(store, "2024-06-15", map[string]string{"gold_ounce": "950", "carat_24_1gram": "101"})

	tracker := newTestTracker(store)
	changes, persisted, err := tracker.CheckAndPersistAlerts(context.Background(), []string{"gold_ounce", "carat_24_1gram"}, day("2024-06-15"))
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}

	// Each field yields a weekly and a monthly change.
	if len(changes) != 4 {
		t.Fatalf("expected 4 evaluated changes, got %d", len(changes))
	}
	if len(persisted) != 2 {
		t.Fatalf("only the critical gold_ounce windows should persist, got %d", len(persisted))
	}
	for _, alert := range persisted {
		if alert.Field != "gold_ounce" || !alert.IsCritical || alert.AlertType != AlertDecrease {
			t.Fatalf("unexpected persisted alert: %+v", alert)
		}
		if alert.ID == 0 {
			t.Fatal("persisted alert should carry a store-assigned id")
		}
	}
	if len(store.alerts) != 2 {
		t.Fatalf("alert log should hold 2 rows, got %d", len(store.alerts))
	}
}

func TestPersistCriticalSkipsInformational(t *testing.T) {
	store := newMemStore()
	tracker := newTestTracker(store)

	changes := []Change{
		{Field: "gold_ounce", PeriodType: PeriodTypeWeek, AlertType: AlertIncrease, IsCritical: false},
	}
	persisted, err := tracker.PersistCritical(context.Background(), changes)
	if err != nil {
		t.Fatalf("persist failed: %v", err)
	}
	if len(persisted) != 0 || len(store.alerts) != 0 {
		t.Fatal("informational changes must not be persisted")
	}
}

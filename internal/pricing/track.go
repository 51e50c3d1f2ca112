package pricing

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"gold-price-alerts/internal/storage"
)

// Look-back period types and alert directions.
const (
	PeriodTypeWeek  = "week"
	PeriodTypeMonth = "month"

	AlertIncrease = "increase"
	AlertDecrease = "decrease"
)

const (
	weekWindowDays  = 7
	monthWindowDays = 30
)

// Thresholds configure the critical alert boundaries, in percent. The
// defaults are asymmetric: downside moves are flagged at half the magnitude
// of upside moves.
type Thresholds struct {
	DecreasePct decimal.Decimal
	IncreasePct decimal.Decimal
}

// DefaultThresholds returns the stock 5% decrease / 10% increase boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DecreasePct: decimal.NewFromInt(5),
		IncreasePct: decimal.NewFromInt(10),
	}
}

// Change describes the price movement of one quote field over one look-back
// window. Non-critical changes are informational; only critical ones are
// persisted as alerts.
type Change struct {
	Field            string
	PeriodType       string
	BaseDate         time.Time
	CurrentDate      time.Time
	BasePrice        decimal.Decimal
	CurrentPrice     decimal.Decimal
	PriceChange      decimal.Decimal
	PercentageChange decimal.Decimal
	AlertType        string
	IsCritical       bool
	DaysTracked      int
}

// TrackingResult reports both windows for one field. A nil window means the
// comparison was unavailable (no base record, or the field is absent),
// which is an expected state for young stores, not an error.
type TrackingResult struct {
	Field   string
	Weekly  *Change
	Monthly *Change
}

// Tracker evaluates recent price movement against the look-back windows and
// records qualifying alerts. It never mutates price records.
type Tracker struct {
	records    storage.RecordStore
	alerts     storage.AlertStore
	thresholds Thresholds
	logger     zerolog.Logger
}

// NewTracker constructs a Tracker.
func NewTracker(records storage.RecordStore, alerts storage.AlertStore, thresholds Thresholds, logger zerolog.Logger) *Tracker {
	return &Tracker{
		records:    records,
		alerts:     alerts,
		thresholds: thresholds,
		logger:     logger.With().Str("component", "tracker").Logger(),
	}
}

// Classify maps a percentage change onto an alert direction and criticality.
// The decrease boundary is checked first.
func Classify(pct decimal.Decimal, thresholds Thresholds) (string, bool) {
	if pct.LessThanOrEqual(thresholds.DecreasePct.Neg()) {
		return AlertDecrease, true
	}
	if pct.GreaterThanOrEqual(thresholds.IncreasePct) {
		return AlertIncrease, true
	}
	if pct.Sign() > 0 {
		return AlertIncrease, false
	}
	return AlertDecrease, false
}

// Track evaluates one field against both look-back windows anchored on the
// given date.
func (t *Tracker) Track(ctx context.Context, field string, anchor time.Time) (TrackingResult, error) {
	result := TrackingResult{Field: field}

	weekly, err := t.trackWindow(ctx, field, anchor, PeriodTypeWeek, weekWindowDays)
	if err != nil {
		return result, err
	}
	result.Weekly = weekly

	monthly, err := t.trackWindow(ctx, field, anchor, PeriodTypeMonth, monthWindowDays)
	if err != nil {
		return result, err
	}
	result.Monthly = monthly

	return result, nil
}

func (t *Tracker) trackWindow(ctx context.Context, field string, anchor time.Time, periodType string, days int) (*Change, error) {
	anchorDay := Day(anchor)

	current, err := t.records.LatestRecordOnOrBefore(ctx, anchorDay)
	if err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	base, err := t.records.LatestRecordOnOrBefore(ctx, anchorDay.AddDate(0, 0, -days))
	if err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	currentPrice, ok := current.Quote(field)
	if !ok {
		return nil, nil
	}
	basePrice, ok := base.Quote(field)
	if !ok || basePrice.IsZero() {
		return nil, nil
	}

	pct := currentPrice.Sub(basePrice).Div(basePrice).Mul(decimal.NewFromInt(100))
	alertType, critical := Classify(pct, t.thresholds)

	return &Change{
		Field:            field,
		PeriodType:       periodType,
		BaseDate:         base.Date,
		CurrentDate:      current.Date,
		BasePrice:        basePrice,
		CurrentPrice:     currentPrice,
		PriceChange:      currentPrice.Sub(basePrice),
		PercentageChange: pct.Round(2),
		AlertType:        alertType,
		IsCritical:       critical,
		DaysTracked:      int(current.Date.Sub(base.Date).Hours() / 24),
	}, nil
}

// CheckAndPersistAlerts tracks every requested field across both windows and
// writes exactly the critical changes to the alert log. All evaluated
// changes, critical or not, are returned for display. Repeated checks on
// the same day may append duplicate alerts; callers wanting deduplication
// must consult the existing log first.
func (t *Tracker) CheckAndPersistAlerts(ctx context.Context, fields []string, anchor time.Time) ([]Change, []storage.AlertRecord, error) {
	changes := make([]Change, 0, len(fields)*2)

	for _, field := range fields {
		result, err := t.Track(ctx, field, anchor)
		if err != nil {
			return changes, nil, err
		}
		for _, change := range []*Change{result.Weekly, result.Monthly} {
			if change != nil {
				changes = append(changes, *change)
			}
		}
	}

	persisted, err := t.PersistCritical(ctx, changes)
	return changes, persisted, err
}

// PersistCritical appends the critical subset of the given changes to the
// alert log.
func (t *Tracker) PersistCritical(ctx context.Context, changes []Change) ([]storage.AlertRecord, error) {
	persisted := make([]storage.AlertRecord, 0)

	for _, change := range changes {
		if !change.IsCritical {
			continue
		}

		record, err := t.alerts.InsertAlert(ctx, storage.AlertRecord{
			AlertType:     change.AlertType,
			Field:         change.Field,
			Percentage:    change.PercentageChange,
			BasePrice:     change.BasePrice,
			CurrentPrice:  change.CurrentPrice,
			DateTriggered: change.CurrentDate,
			PeriodType:    change.PeriodType,
			IsCritical:    true,
		})
		if err != nil {
			return persisted, err
		}
		persisted = append(persisted, record)

		t.logger.Warn().
			Str("field", change.Field).
			Str("period", change.PeriodType).
			Str("direction", change.AlertType).
			Str("percentage", change.PercentageChange.String()).
			Msg("critical price movement recorded")
	}

	return persisted, nil
}

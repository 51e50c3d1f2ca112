package pricing

import (
	"fmt"
	"time"
)

// Recognised period tokens.
const (
	PeriodMonth    = "month"
	Period3Months  = "3months"
	Period6Months  = "6months"
	PeriodYear     = "year"
	PeriodAll      = "all"
)

var periodDays = map[string]int{
	PeriodMonth:   30,
	Period3Months: 90,
	Period6Months: 180,
	PeriodYear:    365,
}

// ResolvePeriod maps a named period token to an absolute inclusive date
// range ending at the anchor date. The "all" token yields an unbounded
// start (the zero time).
func ResolvePeriod(token string, anchor time.Time) (time.Time, time.Time, error) {
	end := Day(anchor)

	if token == PeriodAll {
		return time.Time{}, end, nil
	}

	days, ok := periodDays[token]
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrUnknownPeriod, token)
	}
	return end.AddDate(0, 0, -days), end, nil
}

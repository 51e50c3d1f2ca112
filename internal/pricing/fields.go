package pricing

import "time"

// DateFormat is the canonical wire format for calendar dates.
const DateFormat = "2006-01-02"

// DefaultQuoteFields lists the quote fields published by the daily gold
// feed. The engine itself is field-agnostic; this set only seeds scraping
// and configuration defaults.
var DefaultQuoteFields = []string{
	"gold_ounce",
	"carat_24_1gram",
	"carat_22_1gram",
	"carat_22_8grams",
	"carat_21_1gram",
}

// Day truncates a timestamp to its UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

package app

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"gold-price-alerts/internal/pricing"
	"gold-price-alerts/internal/storage"
)

// Show prints the most recent price records as a table, one column per
// quote field seen in the selection.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	records, err := store.ListRecentRecords(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stdout, "no price records found")
		return nil
	}

	fields := collectFields(records)

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	header := "Date"
	for _, field := range fields {
		header += "\t" + field
	}
	fmt.Fprintln(writer, header)

	for _, record := range records {
		line := record.Date.Format(pricing.DateFormat)
		for _, field := range fields {
			if value, ok := record.Quote(field); ok {
				line += "\t" + formatDecimal(value, 2)
			} else {
				line += "\t-"
			}
		}
		fmt.Fprintln(writer, line)
	}

	writer.Flush()
	return nil
}

func collectFields(records []storage.PriceRecord) []string {
	seen := make(map[string]struct{})
	fields := make([]string, 0)
	for _, record := range records {
		for name := range record.Quotes {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				fields = append(fields, name)
			}
		}
	}
	sort.Strings(fields)
	return fields
}

func formatDecimal(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}

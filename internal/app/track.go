package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"gold-price-alerts/internal/pricing"
)

// Track evaluates both look-back windows for every tracked field and prints
// the result. With persist enabled, critical changes are also written to the
// alert log and dispatched.
func (a *App) Track(ctx context.Context, persist bool) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	svc := a.newService(store)

	var results []pricing.TrackingResult
	var criticalCount, persistedCount int

	if persist {
		checked, err := svc.CheckAlerts(ctx)
		if err != nil {
			return err
		}
		results = checked.Results
		criticalCount = len(checked.Critical)
		persistedCount = len(checked.Persisted)
	} else {
		tracked, err := svc.Tracking(ctx)
		if err != nil {
			return err
		}
		results = tracked.Results
		criticalCount = len(tracked.Critical)
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Field\tWindow\tBase\tCurrent\tChange%\tDirection\tCritical")

	for _, result := range results {
		for _, change := range []*pricing.Change{result.Weekly, result.Monthly} {
			if change == nil {
				continue
			}
			fmt.Fprintf(
				writer,
				"%s\t%s\t%s (%s)\t%s (%s)\t%s\t%s\t%v\n",
				change.Field,
				change.PeriodType,
				formatDecimal(change.BasePrice, 2),
				change.BaseDate.Format(pricing.DateFormat),
				formatDecimal(change.CurrentPrice, 2),
				change.CurrentDate.Format(pricing.DateFormat),
				formatDecimal(change.PercentageChange, 2),
				change.AlertType,
				change.IsCritical,
			)
		}
	}
	writer.Flush()

	fmt.Fprintf(os.Stdout, "\ncritical changes: %d\n", criticalCount)
	if persist {
		fmt.Fprintf(os.Stdout, "alerts persisted: %d\n", persistedCount)
	}
	return nil
}

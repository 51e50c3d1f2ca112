package app

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"gold-price-alerts/internal/pricing"
	"gold-price-alerts/internal/storage"
)

// Export renders the stored price series as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	to := pricing.Day(time.Now())
	if opts.To != nil {
		to = pricing.Day(*opts.To)
	}

	from := time.Time{}
	if opts.From != nil {
		from = pricing.Day(*opts.From)
	}

	if !from.IsZero() && !from.Before(to) {
		return errors.New("from must be before to")
	}

	records, err := store.ListRecordsBetween(ctx, from, to)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		a.Logger.Info().Msg("no price records found for export window")
		return nil
	}

	downsampled := downsampleRecords(records, opts.MaxPoints)
	a.Logger.Info().Int("total", len(records)).Int("exported", len(downsampled)).Msg("exporting price records")

	fields := collectFields(downsampled)

	if opts.CSVPath != "" {
		if err := writeRecordsCSV(opts.CSVPath, fields, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeRecordsPNG(opts.PNGPath, fields, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func downsampleRecords(records []storage.PriceRecord, max int) []storage.PriceRecord {
	if max <= 0 || len(records) <= max {
		return records
	}

	result := make([]storage.PriceRecord, 0, max)
	step := float64(len(records)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(records) {
			idx = len(records) - 1
		}
		result = append(result, records[idx])
	}
	return result
}

func writeRecordsCSV(path string, fields []string, records []storage.PriceRecord) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := append([]string{"date"}, fields...)
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, record := range records {
		row := make([]string, 0, len(fields)+1)
		row = append(row, record.Date.Format(pricing.DateFormat))
		for _, field := range fields {
			if value, ok := record.Quote(field); ok {
				row = append(row, value.String())
			} else {
				row = append(row, "")
			}
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	return writer.Error()
}

// writeRecordsPNG plots one time series per quote field. Records missing a
// field repeat the previous plotted value so the series stays continuous.
func writeRecordsPNG(path string, fields []string, records []storage.PriceRecord) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(records))
	for i, record := range records {
		x[i] = record.Date
	}

	series := make([]chart.Series, 0, len(fields))
	for _, field := range fields {
		y := make([]float64, len(records))
		last := 0.0
		for i, record := range records {
			if value, ok := record.Quote(field); ok {
				last = value.InexactFloat64()
			}
			y[i] = last
		}
		series = append(series, chart.TimeSeries{
			Name:    field,
			XValues: x,
			YValues: y,
		})
	}

	priceFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Price",
			ValueFormatter: priceFormatter,
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

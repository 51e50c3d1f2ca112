package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"gold-price-alerts/internal/alerting"
	"gold-price-alerts/internal/config"
	"gold-price-alerts/internal/pricing"
	"gold-price-alerts/internal/scraper"
	"gold-price-alerts/internal/storage"
)

// Service orchestrates scraping, ingestion, aggregation queries, and alert
// evaluation. Callers are expected to serialise Sync invocations; reads may
// run concurrently.
type Service struct {
	source   scraper.Source
	records  storage.RecordStore
	alerts   storage.AlertStore
	merger   *pricing.Merger
	tracker  *pricing.Tracker
	notifier alerting.Notifier
	fields   []string
	logger   zerolog.Logger
}

// New constructs the price tracking service.
func New(cfg *config.Config, source scraper.Source, records storage.RecordStore, alerts storage.AlertStore, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	thresholds := pricing.DefaultThresholds()
	if cfg.Tracking.DecreasePct > 0 {
		thresholds.DecreasePct = decimal.NewFromFloat(cfg.Tracking.DecreasePct)
	}
	if cfg.Tracking.IncreasePct > 0 {
		thresholds.IncreasePct = decimal.NewFromFloat(cfg.Tracking.IncreasePct)
	}

	return &Service{
		source:   source,
		records:  records,
		alerts:   alerts,
		merger:   pricing.NewMerger(records, logger),
		tracker:  pricing.NewTracker(records, alerts, thresholds, logger),
		notifier: notifier,
		fields:   cfg.Tracking.Fields,
		logger:   logger.With().Str("component", "service").Logger(),
	}
}

// SyncReport summarises one synchronisation run.
type SyncReport struct {
	Summary      pricing.Summary
	TotalRecords int64
	Alerts       []storage.AlertRecord
}

// Status describes the state of the stored series.
type Status struct {
	TotalRecords int64
	Latest       *storage.PriceRecord
}

// PeriodSeries is the result of a period query at one granularity. Records
// is populated for raw queries, Aggregates otherwise.
type PeriodSeries struct {
	Period      string
	Granularity pricing.Granularity
	Records     []storage.PriceRecord
	Aggregates  []pricing.AggregateRow
}

// TrackingReport carries the evaluated deltas for every tracked field plus
// the subset that crossed a critical threshold.
type TrackingReport struct {
	Results   []pricing.TrackingResult
	Critical  []pricing.Change
	Persisted []storage.AlertRecord
}

// Sync fetches the full feed table, merges it into the record store, and
// evaluates alerts against the refreshed series.
func (s *Service) Sync(ctx context.Context) (SyncReport, error) {
	report := SyncReport{}

	rows, err := s.source.FetchDailyPrices(ctx)
	if err != nil {
		return report, fmt.Errorf("fetch daily prices: %w", err)
	}
	if len(rows) == 0 {
		s.logger.Warn().Msg("feed returned no rows")
		return report, nil
	}

	report.Summary, err = s.merger.Merge(ctx, rows)
	if err != nil {
		return report, fmt.Errorf("merge batch: %w", err)
	}

	_, persisted, err := s.tracker.CheckAndPersistAlerts(ctx, s.fields, s.today())
	if err != nil {
		return report, fmt.Errorf("check alerts: %w", err)
	}
	report.Alerts = persisted
	s.dispatchNotifications(ctx, persisted)

	report.TotalRecords, err = s.records.CountRecords(ctx)
	if err != nil {
		return report, err
	}

	s.logger.Info().
		Int("new", report.Summary.New).
		Int("updated", report.Summary.Updated).
		Int("alerts", len(persisted)).
		Int64("total", report.TotalRecords).
		Msg("sync complete")

	return report, nil
}

// SyncStatus reports the record count and latest record.
func (s *Service) SyncStatus(ctx context.Context) (Status, error) {
	total, err := s.records.CountRecords(ctx)
	if err != nil {
		return Status{}, err
	}

	status := Status{TotalRecords: total}

	latest, err := s.records.LatestRecord(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			return status, nil
		}
		return Status{}, err
	}
	status.Latest = &latest
	return status, nil
}

// Latest returns the most recent price record.
func (s *Service) Latest(ctx context.Context) (storage.PriceRecord, error) {
	return s.records.LatestRecord(ctx)
}

// ByPeriod resolves a period token and queries the series at the requested
// granularity.
func (s *Service) ByPeriod(ctx context.Context, token string, granularity pricing.Granularity) (PeriodSeries, error) {
	series := PeriodSeries{Period: token, Granularity: granularity}

	start, end, err := pricing.ResolvePeriod(token, s.today())
	if err != nil {
		return series, err
	}

	records, err := pricing.QueryRange(ctx, s.records, start, end)
	if err != nil {
		return series, err
	}

	if granularity == pricing.GranularityRaw {
		series.Records = records
		return series, nil
	}

	series.Aggregates, err = pricing.Aggregate(records, granularity)
	return series, err
}

// Statistics summarises the series over a resolved period.
func (s *Service) Statistics(ctx context.Context, token string) (pricing.Statistics, error) {
	start, end, err := pricing.ResolvePeriod(token, s.today())
	if err != nil {
		return pricing.Statistics{}, err
	}

	records, err := pricing.QueryRange(ctx, s.records, start, end)
	if err != nil {
		return pricing.Statistics{}, err
	}

	return pricing.Summarize(token, records), nil
}

// Tracking evaluates both look-back windows for every tracked field without
// persisting anything.
func (s *Service) Tracking(ctx context.Context) (TrackingReport, error) {
	report := TrackingReport{}

	for _, field := range s.fields {
		result, err := s.tracker.Track(ctx, field, s.today())
		if err != nil {
			return report, err
		}
		report.Results = append(report.Results, result)

		for _, change := range []*pricing.Change{result.Weekly, result.Monthly} {
			if change != nil && change.IsCritical {
				report.Critical = append(report.Critical, *change)
			}
		}
	}

	return report, nil
}

// CheckAlerts evaluates all tracked fields and persists the critical
// changes to the alert log.
func (s *Service) CheckAlerts(ctx context.Context) (TrackingReport, error) {
	report, err := s.Tracking(ctx)
	if err != nil {
		return report, err
	}

	persisted, err := s.tracker.PersistCritical(ctx, report.Critical)
	if err != nil {
		return report, err
	}
	report.Persisted = persisted
	s.dispatchNotifications(ctx, persisted)

	return report, nil
}

// RecentAlerts lists the most recently persisted alerts.
func (s *Service) RecentAlerts(ctx context.Context, limit int) ([]storage.AlertRecord, error) {
	return s.alerts.ListRecentAlerts(ctx, limit)
}

func (s *Service) dispatchNotifications(ctx context.Context, alerts []storage.AlertRecord) {
	if s.notifier == nil {
		return
	}
	for _, alert := range alerts {
		note := alerting.Notification{
			Field:            alert.Field,
			PeriodType:       alert.PeriodType,
			AlertType:        alert.AlertType,
			PercentageChange: alert.Percentage,
			CurrentPrice:     alert.CurrentPrice,
			BasePrice:        alert.BasePrice,
			CurrentDate:      alert.DateTriggered,
		}
		if err := s.notifier.Notify(ctx, note); err != nil {
			s.logger.Error().Err(err).Str("field", alert.Field).Msg("failed to dispatch alert")
		}
	}
}

func (s *Service) today() time.Time {
	return pricing.Day(time.Now())
}

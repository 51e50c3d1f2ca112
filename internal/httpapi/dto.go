package httpapi

import (
	"time"

	"github.com/shopspring/decimal"

	"gold-price-alerts/internal/pricing"
	"gold-price-alerts/internal/service"
	"gold-price-alerts/internal/storage"
)

type recordDTO struct {
	Date      string                     `json:"date"`
	Quotes    map[string]decimal.Decimal `json:"quotes"`
	CreatedAt time.Time                  `json:"created_at"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

type fieldStatsDTO struct {
	Avg   decimal.Decimal `json:"avg"`
	Min   decimal.Decimal `json:"min"`
	Max   decimal.Decimal `json:"max"`
	Count int             `json:"count"`
}

type aggregateRowDTO struct {
	Period     string                   `json:"period"`
	DataPoints int                      `json:"data_points"`
	Fields     map[string]fieldStatsDTO `json:"fields"`
}

type fieldSummaryDTO struct {
	Current   decimal.Decimal `json:"current"`
	Min       decimal.Decimal `json:"min"`
	Max       decimal.Decimal `json:"max"`
	Avg       decimal.Decimal `json:"avg"`
	Change    decimal.Decimal `json:"change"`
	ChangePct decimal.Decimal `json:"change_pct"`
	Count     int             `json:"count"`
}

type statisticsDTO struct {
	Period    string                     `json:"period"`
	Count     int                        `json:"count"`
	StartDate string                     `json:"start_date,omitempty"`
	EndDate   string                     `json:"end_date,omitempty"`
	Fields    map[string]fieldSummaryDTO `json:"fields"`
}

type changeDTO struct {
	Field            string          `json:"field"`
	PeriodType       string          `json:"period_type"`
	BaseDate         string          `json:"base_date"`
	CurrentDate      string          `json:"current_date"`
	BasePrice        decimal.Decimal `json:"base_price"`
	CurrentPrice     decimal.Decimal `json:"current_price"`
	PriceChange      decimal.Decimal `json:"price_change"`
	PercentageChange decimal.Decimal `json:"percentage_change"`
	AlertType        string          `json:"alert_type"`
	IsCritical       bool            `json:"is_critical"`
	DaysTracked      int             `json:"days_tracked"`
}

type trackingResultDTO struct {
	Field   string     `json:"field"`
	Weekly  *changeDTO `json:"weekly_tracking"`
	Monthly *changeDTO `json:"monthly_tracking"`
}

type trackingReportDTO struct {
	Results           []trackingResultDTO `json:"results"`
	CriticalAlerts    []changeDTO         `json:"critical_alerts"`
	HasCriticalAlerts bool                `json:"has_critical_alerts"`
	PersistedAlerts   []alertDTO          `json:"persisted_alerts,omitempty"`
}

type alertDTO struct {
	ID            int64           `json:"id"`
	AlertType     string          `json:"alert_type"`
	Field         string          `json:"field"`
	Percentage    decimal.Decimal `json:"percentage"`
	BasePrice     decimal.Decimal `json:"base_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	DateTriggered string          `json:"date_triggered"`
	PeriodType    string          `json:"period_type"`
	IsCritical    bool            `json:"is_critical"`
	CreatedAt     time.Time       `json:"created_at"`
}

type syncReportDTO struct {
	NewRecords     int      `json:"new_records"`
	UpdatedRecords int      `json:"updated_records"`
	Unchanged      int      `json:"unchanged_records"`
	FailedRows     []string `json:"failed_rows,omitempty"`
	TotalRecords   int64    `json:"total_records"`
	AlertsRaised   int      `json:"alerts_raised"`
}

func toRecordDTO(record storage.PriceRecord) recordDTO {
	return recordDTO{
		Date:      record.Date.Format(pricing.DateFormat),
		Quotes:    record.Quotes,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func toRecordDTOs(records []storage.PriceRecord) []recordDTO {
	out := make([]recordDTO, 0, len(records))
	for _, record := range records {
		out = append(out, toRecordDTO(record))
	}
	return out
}

func toAggregateDTOs(rows []pricing.AggregateRow) []aggregateRowDTO {
	out := make([]aggregateRowDTO, 0, len(rows))
	for _, row := range rows {
		dto := aggregateRowDTO{
			Period:     row.Period,
			DataPoints: row.DataPoints,
			Fields:     make(map[string]fieldStatsDTO, len(row.Fields)),
		}
		for name, stats := range row.Fields {
			dto.Fields[name] = fieldStatsDTO{
				Avg:   stats.Avg,
				Min:   stats.Min,
				Max:   stats.Max,
				Count: stats.Count,
			}
		}
		out = append(out, dto)
	}
	return out
}

func toStatisticsDTO(stats pricing.Statistics) statisticsDTO {
	dto := statisticsDTO{
		Period: stats.Period,
		Count:  stats.Count,
		Fields: make(map[string]fieldSummaryDTO, len(stats.Fields)),
	}
	if stats.Count > 0 {
		dto.StartDate = stats.StartDate.Format(pricing.DateFormat)
		dto.EndDate = stats.EndDate.Format(pricing.DateFormat)
	}
	for name, summary := range stats.Fields {
		dto.Fields[name] = fieldSummaryDTO{
			Current:   summary.Current,
			Min:       summary.Min,
			Max:       summary.Max,
			Avg:       summary.Avg,
			Change:    summary.Change,
			ChangePct: summary.ChangePct,
			Count:     summary.Count,
		}
	}
	return dto
}

func toChangeDTO(change pricing.Change) changeDTO {
	return changeDTO{
		Field:            change.Field,
		PeriodType:       change.PeriodType,
		BaseDate:         change.BaseDate.Format(pricing.DateFormat),
		CurrentDate:      change.CurrentDate.Format(pricing.DateFormat),
		BasePrice:        change.BasePrice,
		CurrentPrice:     change.CurrentPrice,
		PriceChange:      change.PriceChange,
		PercentageChange: change.PercentageChange,
		AlertType:        change.AlertType,
		IsCritical:       change.IsCritical,
		DaysTracked:      change.DaysTracked,
	}
}

func toTrackingReportDTO(report service.TrackingReport) trackingReportDTO {
	dto := trackingReportDTO{
		Results:           make([]trackingResultDTO, 0, len(report.Results)),
		CriticalAlerts:    make([]changeDTO, 0, len(report.Critical)),
		HasCriticalAlerts: len(report.Critical) > 0,
	}
	for _, result := range report.Results {
		entry := trackingResultDTO{Field: result.Field}
		if result.Weekly != nil {
			weekly := toChangeDTO(*result.Weekly)
			entry.Weekly = &weekly
		}
		if result.Monthly != nil {
			monthly := toChangeDTO(*result.Monthly)
			entry.Monthly = &monthly
		}
		dto.Results = append(dto.Results, entry)
	}
	for _, change := range report.Critical {
		dto.CriticalAlerts = append(dto.CriticalAlerts, toChangeDTO(change))
	}
	for _, alert := range report.Persisted {
		dto.PersistedAlerts = append(dto.PersistedAlerts, toAlertDTO(alert))
	}
	return dto
}

func toAlertDTO(alert storage.AlertRecord) alertDTO {
	return alertDTO{
		ID:            alert.ID,
		AlertType:     alert.AlertType,
		Field:         alert.Field,
		Percentage:    alert.Percentage,
		BasePrice:     alert.BasePrice,
		CurrentPrice:  alert.CurrentPrice,
		DateTriggered: alert.DateTriggered.Format(pricing.DateFormat),
		PeriodType:    alert.PeriodType,
		IsCritical:    alert.IsCritical,
		CreatedAt:     alert.CreatedAt,
	}
}

func toAlertDTOs(alerts []storage.AlertRecord) []alertDTO {
	out := make([]alertDTO, 0, len(alerts))
	for _, alert := range alerts {
		out = append(out, toAlertDTO(alert))
	}
	return out
}

func toSyncReportDTO(report service.SyncReport) syncReportDTO {
	dto := syncReportDTO{
		NewRecords:     report.Summary.New,
		UpdatedRecords: report.Summary.Updated,
		Unchanged:      report.Summary.Unchanged,
		TotalRecords:   report.TotalRecords,
		AlertsRaised:   len(report.Alerts),
	}
	for _, failure := range report.Summary.Failed {
		dto.FailedRows = append(dto.FailedRows, failure.Error())
	}
	return dto
}

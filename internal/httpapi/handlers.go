package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"gold-price-alerts/internal/pricing"
	"gold-price-alerts/internal/storage"
)

const defaultAlertLimit = 10

type envelope struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

type errorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

func respond(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, envelope{Status: "success", Data: data})
}

// respondError maps domain errors onto HTTP status codes. Unknown period
// tokens are a caller mistake; missing records and an empty store are
// absences, not failures of the request shape.
func (s *Server) respondError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, pricing.ErrUnknownPeriod):
		status = http.StatusBadRequest
	case errors.Is(err, storage.ErrRecordNotFound), errors.Is(err, pricing.ErrEmptyStore):
		status = http.StatusNotFound
	default:
		s.logger.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return c.JSON(status, errorResponse{Status: "error", Error: err.Error()})
}

func (s *Server) handleSync(c echo.Context) error {
	report, err := s.svc.Sync(c.Request().Context())
	if err != nil {
		return s.respondError(c, err)
	}
	return respond(c, toSyncReportDTO(report))
}

func (s *Server) handleSyncStatus(c echo.Context) error {
	status, err := s.svc.SyncStatus(c.Request().Context())
	if err != nil {
		return s.respondError(c, err)
	}

	data := map[string]any{
		"total_records": status.TotalRecords,
	}
	if status.Latest != nil {
		latest := toRecordDTO(*status.Latest)
		data["latest_record"] = latest
	}
	return respond(c, data)
}

func (s *Server) handleLatest(c echo.Context) error {
	record, err := s.svc.Latest(c.Request().Context())
	if err != nil {
		return s.respondError(c, err)
	}
	return respond(c, toRecordDTO(record))
}

func (s *Server) handlePeriod(c echo.Context) error {
	series, err := s.svc.ByPeriod(c.Request().Context(), c.Param("period"), pricing.GranularityRaw)
	if err != nil {
		return s.respondError(c, err)
	}
	return respond(c, map[string]any{
		"period":  series.Period,
		"count":   len(series.Records),
		"records": toRecordDTOs(series.Records),
	})
}

func (s *Server) handleMonthlyAggregate(c echo.Context) error {
	return s.handleAggregate(c, pricing.GranularityMonthly)
}

func (s *Server) handleYearlyAggregate(c echo.Context) error {
	return s.handleAggregate(c, pricing.GranularityYearly)
}

func (s *Server) handleAggregate(c echo.Context, granularity pricing.Granularity) error {
	series, err := s.svc.ByPeriod(c.Request().Context(), pricing.PeriodAll, granularity)
	if err != nil {
		return s.respondError(c, err)
	}
	return respond(c, map[string]any{
		"granularity": string(granularity),
		"count":       len(series.Aggregates),
		"aggregates":  toAggregateDTOs(series.Aggregates),
	})
}

func (s *Server) handleStatistics(c echo.Context) error {
	stats, err := s.svc.Statistics(c.Request().Context(), c.Param("period"))
	if err != nil {
		return s.respondError(c, err)
	}
	return respond(c, toStatisticsDTO(stats))
}

func (s *Server) handleTracking(c echo.Context) error {
	report, err := s.svc.Tracking(c.Request().Context())
	if err != nil {
		return s.respondError(c, err)
	}
	return respond(c, toTrackingReportDTO(report))
}

func (s *Server) handleRecentAlerts(c echo.Context) error {
	limit := defaultAlertLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, errorResponse{Status: "error", Error: "limit must be a positive integer"})
		}
		limit = parsed
	}

	alerts, err := s.svc.RecentAlerts(c.Request().Context(), limit)
	if err != nil {
		return s.respondError(c, err)
	}
	return respond(c, map[string]any{
		"count":  len(alerts),
		"alerts": toAlertDTOs(alerts),
	})
}

func (s *Server) handleCheckAlerts(c echo.Context) error {
	report, err := s.svc.CheckAlerts(c.Request().Context())
	if err != nil {
		return s.respondError(c, err)
	}
	return respond(c, toTrackingReportDTO(report))
}

// handleDashboard bundles the latest record, month statistics, tracking
// state, and recent alerts into one response for UI consumption.
func (s *Server) handleDashboard(c echo.Context) error {
	ctx := c.Request().Context()
	data := map[string]any{}

	status, err := s.svc.SyncStatus(ctx)
	if err != nil {
		return s.respondError(c, err)
	}
	data["total_records"] = status.TotalRecords
	if status.Latest != nil {
		data["latest_record"] = toRecordDTO(*status.Latest)
	}

	stats, err := s.svc.Statistics(ctx, pricing.PeriodMonth)
	if err == nil {
		data["month_statistics"] = toStatisticsDTO(stats)
	} else if !errors.Is(err, pricing.ErrEmptyStore) {
		return s.respondError(c, err)
	}

	tracking, err := s.svc.Tracking(ctx)
	if err != nil {
		return s.respondError(c, err)
	}
	data["tracking"] = toTrackingReportDTO(tracking)

	alerts, err := s.svc.RecentAlerts(ctx, defaultAlertLimit)
	if err != nil {
		return s.respondError(c, err)
	}
	data["recent_alerts"] = toAlertDTOs(alerts)

	return respond(c, data)
}

package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"gold-price-alerts/internal/service"
	"gold-price-alerts/internal/version"
)

// Server exposes the price tracking service over HTTP.
type Server struct {
	echo   *echo.Echo
	svc    *service.Service
	logger zerolog.Logger
}

// New builds the HTTP server and registers all routes.
func New(svc *service.Service, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:   e,
		svc:    svc,
		logger: logger.With().Str("component", "httpapi").Logger(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/", s.handleHealth)

	api := s.echo.Group("/api")

	api.POST("/scrape/sync", s.handleSync)
	api.GET("/scrape/status", s.handleSyncStatus)

	api.GET("/prices/latest", s.handleLatest)
	api.GET("/prices/period/:period", s.handlePeriod)
	api.GET("/prices/monthly-aggregate", s.handleMonthlyAggregate)
	api.GET("/prices/yearly-aggregate", s.handleYearlyAggregate)
	api.GET("/prices/statistics/:period", s.handleStatistics)

	api.GET("/tracking", s.handleTracking)

	api.GET("/alerts/recent", s.handleRecentAlerts)
	api.POST("/alerts/check", s.handleCheckAlerts)

	api.GET("/dashboard", s.handleDashboard)
}

// Start begins serving on the given address and blocks until shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("http server listening")
	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

type healthResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status:    "ok",
		Service:   "goldwatcher",
		Version:   version.Version,
		Timestamp: time.Now().UTC(),
	})
}

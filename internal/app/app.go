package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"gold-price-alerts/internal/alerting"
	"gold-price-alerts/internal/config"
	"gold-price-alerts/internal/scheduler"
	"gold-price-alerts/internal/scraper"
	"gold-price-alerts/internal/service"
	"gold-price-alerts/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newSource() scraper.Source {
	return scraper.New(scraper.Options{
		URL:        a.Config.Source.URL,
		UserAgent:  a.Config.Source.UserAgent,
		Timeout:    a.Config.Source.RequestTimeout,
		TableIndex: a.Config.Source.TableIndex,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Enabled && a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, storage.ErrNotConfigured
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}

	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

func (a *App) newService(store *storage.Store) *service.Service {
	return service.New(a.Config, a.newSource(), store, store, a.newNotifier(), a.Logger)
}

// Run executes the long-running sync daemon: one scrape-merge-alert cycle on
// every scheduler tick.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	svc := a.newService(store)

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		AlignToStart: a.Config.Scheduler.AlignToDay,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	a.Logger.Info().Msg("starting sync daemon")
	err = sched.Run(ctx, func(ctx context.Context, _ time.Time) error {
		_, err := svc.Sync(ctx)
		return err
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("sync daemon terminated with error")
		return err
	}

	a.Logger.Info().Msg("sync daemon stopped")
	return nil
}

// SyncOnce runs a single scrape-merge-alert cycle and prints the outcome.
func (a *App) SyncOnce(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	svc := a.newService(store)

	report, err := svc.Sync(ctx)
	if err != nil {
		return err
	}

	a.Logger.Info().
		Int("new", report.Summary.New).
		Int("updated", report.Summary.Updated).
		Int("unchanged", report.Summary.Unchanged).
		Int("failed_rows", len(report.Summary.Failed)).
		Int("alerts", len(report.Alerts)).
		Int64("total_records", report.TotalRecords).
		Msg("sync finished")

	for _, failure := range report.Summary.Failed {
		a.Logger.Warn().Str("reason", failure.Error()).Msg("row rejected")
	}
	return nil
}

// ExportOptions hold parameters for exporting the stored series.
type ExportOptions struct {
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

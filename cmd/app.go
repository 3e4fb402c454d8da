package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/matrixise/coinfolio/internal/config"
	"github.com/matrixise/coinfolio/internal/dashboard"
	"github.com/matrixise/coinfolio/internal/logger"
	"github.com/matrixise/coinfolio/internal/market"
	"github.com/matrixise/coinfolio/internal/state"
	"github.com/matrixise/coinfolio/internal/storage"
	"github.com/matrixise/coinfolio/internal/valuation"
)

// app wires the store, persistence and market gateway for one command
type app struct {
	cfg       *config.Config
	kv        storage.KV
	store     *state.Store
	persister *storage.Persister
	dash      *dashboard.Dashboard
	logger    *slog.Logger
}

// loadConfig reads the configuration and applies its log level unless
// --log-level was given explicitly
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	logger.Setup(logLevel)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		slog.Error("Configuration error", "error", err)
		return nil, err
	}

	if !cmd.Flags().Changed("log-level") && cfg.LogLevel != "" {
		logger.Setup(cfg.LogLevel)
	}
	return cfg, nil
}

// newApp opens storage and restores the persisted watchlist and holdings
func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log := slog.Default()

	if cfg.Storage.Backend == storage.BackendPostgres {
		if err := storage.RunMigrations(ctx, cfg.Storage.DatabaseURL); err != nil {
			slog.Error("Failed to apply migrations", "error", err)
			return nil, err
		}
	}

	kv, err := storage.Open(ctx, cfg.StorageOptions(log))
	if err != nil {
		slog.Error("Failed to open storage", "backend", cfg.Storage.Backend, "error", err)
		return nil, err
	}
	slog.Debug("Storage opened", "backend", cfg.Storage.Backend, "scope", cfg.Scope)

	store := state.NewStore(state.Initial(), state.WithLogger(log))
	persister := storage.NewPersister(kv, store, cfg.Scope, log)
	if _, err := persister.Load(ctx); err != nil {
		_ = kv.Close()
		slog.Error("Failed to restore state", "error", err)
		return nil, err
	}

	client := market.NewClient(cfg.MarketOptions(log))

	return &app{
		cfg:       cfg,
		kv:        kv,
		store:     store,
		persister: persister,
		dash:      dashboard.New(store, client, cfg.DashboardOptions(log)),
		logger:    log,
	}, nil
}

// save writes the watchlist and holdings back to storage
func (a *app) save(ctx context.Context) error {
	if err := a.persister.Save(ctx); err != nil {
		a.logger.Error("Failed to save state", "error", err)
		return err
	}
	return nil
}

// refreshAndRecord refreshes prices and, on PostgreSQL, appends the
// resulting valuation to the history table
func (a *app) refreshAndRecord(ctx context.Context) error {
	if err := a.dash.RefreshAll(ctx); err != nil {
		return err
	}

	pg, ok := a.kv.(*storage.PostgresStore)
	if !ok {
		return nil
	}

	s := a.dash.State()
	records := storage.ValuationRecords(a.cfg.Scope, time.Now().UTC(), valuation.Compute(s.Watchlist, s.Holdings))
	if len(records) == 0 {
		return nil
	}
	if err := pg.RecordValuation(ctx, records); err != nil {
		return fmt.Errorf("record valuation: %w", err)
	}
	a.logger.Info("Valuation recorded", "scope", a.cfg.Scope, "rows", len(records))
	return nil
}

func (a *app) Close() {
	a.dash.Close()
	if err := a.kv.Close(); err != nil {
		a.logger.Warn("Failed to close storage", "error", err)
	}
}

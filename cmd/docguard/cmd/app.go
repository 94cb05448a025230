package cmd

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solatis/docguard/internal/core/api"
	"github.com/solatis/docguard/internal/core/config"
	"github.com/solatis/docguard/internal/core/db"
	"github.com/solatis/docguard/internal/core/metrics"
	"github.com/solatis/docguard/internal/core/store"
	"github.com/solatis/docguard/internal/rules"
)

// app holds the wired components shared by serve and worker.
type app struct {
	cfg      *config.Config
	db       *sqlx.DB
	store    *store.Store
	rules    *store.CachedRuleSource
	metrics  *metrics.Registry
	gatherer prometheus.Gatherer
	service  *api.ValidationService
}

// loadConfig reads config and applies the persistent --db-url flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("db-url") {
		cfg.Database.URL = dbURL
	}
	return cfg, nil
}

// openDB connects and loads named queries.
func openDB(ctx context.Context, cfg *config.Config) (*sqlx.DB, *db.Queries, error) {
	database, err := db.Open(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	queries, err := db.LoadQueries(database)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to load queries: %w", err)
	}
	return database, queries, nil
}

// newApp opens the database, verifies migrations and wires the engine and
// service. Metrics register on the default Prometheus registry.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	database, queries, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := db.RequireMigrated(database); err != nil {
		database.Close()
		return nil, err
	}

	s := store.New(queries)
	reg := metrics.NewRegistry(prometheus.DefaultRegisterer)

	var source rules.RuleSource = s
	var cached *store.CachedRuleSource
	if cfg.Validation.RuleCacheTTL > 0 {
		cached = store.NewCachedRuleSource(s, cfg.Validation.RuleCacheTTL, reg)
		source = cached
	}

	engine := rules.NewEngine(source, s,
		rules.WithLogger(logger.Named("engine")),
		rules.WithObserver(reg),
		rules.WithConcurrency(cfg.Validation.Concurrency),
	)

	service, err := api.NewValidationService(s, engine, logger.Named("service"))
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create service: %w", err)
	}

	logger.Info("components wired",
		zap.String("driver", database.DriverName()),
		zap.Duration("rule_cache_ttl", cfg.Validation.RuleCacheTTL),
		zap.Int("rule_concurrency", cfg.Validation.Concurrency))

	return &app{
		cfg:      cfg,
		db:       database,
		store:    s,
		rules:    cached,
		metrics:  reg,
		gatherer: prometheus.DefaultGatherer,
		service:  service,
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

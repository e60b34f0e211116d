package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"event-dashboard/config"
	"event-dashboard/ingest"
	"event-dashboard/metrics"
	"event-dashboard/services"
	"event-dashboard/storage"
	"event-dashboard/utils"
)

var (
	dbDriver    string
	dbDSN       string
	profilePath string
	logLevel    string
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "eventdash",
	Short: "System event log dashboard",
	Long: `eventdash loads a system/equipment event-log export, extracts the event
description and the user behind each entry, stores the result in the
Eventos table and renders summary statistics and charts.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbDriver, "db-driver", "", "database driver: sqlite, postgres (default from DB_DRIVER)")
	rootCmd.PersistentFlags().StringVar(&dbDSN, "db-dsn", "", "database DSN or SQLite file (default from DB_DSN)")
	rootCmd.PersistentFlags().StringVarP(&profilePath, "profile", "p", "", "YAML import profile (default from IMPORT_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "log level: debug, info, warn, error")
}

// app bundles the components every command needs.
type app struct {
	cfg      *config.Config
	logger   *utils.Logger
	store    *storage.SQLStore
	metrics  *metrics.Collector
	loader   *services.Loader
	insights *services.InsightService
	location *time.Location
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if profilePath != "" {
		if err := cfg.ApplyProfile(profilePath); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if dbDriver != "" {
		cfg.DBDriver = dbDriver
	}
	if dbDSN != "" {
		cfg.DBDSN = dbDSN
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger := utils.NewLoggerTo(os.Stdout, os.Stderr, utils.ParseLevel(cfg.LogLevel))

	loc, err := time.LoadLocation(cfg.Import.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", cfg.Import.Timezone, err)
	}

	schema := storage.Schema{
		Table:           cfg.Import.Table,
		TimestampColumn: cfg.Import.Columns.Timestamp,
		EventColumn:     cfg.Import.Columns.Event,
		ActorColumn:     cfg.Import.Columns.Actor,
	}
	store, err := storage.NewSQLStore(ctx, cfg.DBDriver, cfg.DBDSN, schema, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Store ready — driver: %s | table: %s", cfg.DBDriver, schema.Table)

	normalizer := services.NewNormalizer(logger, services.NormalizerOptions{
		Policy:       cfg.Import.TimestampPolicy,
		DayFirst:     cfg.Import.DayFirst,
		Location:     loc,
		ExtraLayouts: cfg.Import.ExtraLayouts,
	})
	opts := ingest.Options{
		SkipRows:  cfg.Import.SkipRows,
		Delimiter: []rune(cfg.Import.Delimiter)[0],
		Encoding:  cfg.Import.Encoding,
		Columns:   2,
	}

	m := metrics.New()
	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		metrics:  m,
		loader:   services.NewLoader(opts, normalizer, store, m, logger),
		insights: services.NewInsightService(logger),
		location: loc,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("Closing store: %v", err)
	}
}

// loadFile runs one export from disk through the loader.
func (a *app) loadFile(ctx context.Context, path string) (*services.Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	ds, err := a.loader.Load(ctx, path, f)
	if err != nil {
		return nil, err
	}
	session := services.NewSession()
	session.Replace(ds)
	return session, nil
}

func parseDateFlag(v string, loc *time.Location) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", v, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", v, err)
	}
	return &t, nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/example/studyplan/internal/config"
	"github.com/example/studyplan/internal/database"
	"github.com/example/studyplan/internal/metrics"
	"github.com/example/studyplan/internal/review"
)

var (
	cfg        *config.Config
	configFile string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	rootCmd := &cobra.Command{
		Use:   "studyplan",
		Short: "Spaced-repetition review scheduler",
		Long:  "studyplan schedules concept reviews with SM-2 and serves the due list over HTTP and the command line.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return nil
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file")

	rootCmd.AddCommand(
		serveCmd(),
		addCmd(),
		importCmd(),
		dueCmd(),
		scheduleCmd(),
		reviewCmd(),
		statsCmd(),
	)

	rootCmd.SetContext(ctx)

	err := rootCmd.Execute()
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}

	zc := zap.NewProductionConfig()
	if cfg.Log.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// backend bundles the storage the commands work against.
type backend struct {
	db        *sqlx.DB // nil for the memory driver
	store     review.Store
	audit     review.ReviewLogger
	reminders *database.ReminderRepository // nil for the memory driver
	collector *metrics.Collector
}

func (b *backend) Close() {
	if b.db != nil {
		_ = b.db.Close()
	}
}

func openBackend(logger *zap.Logger) (*backend, error) {
	b := &backend{collector: metrics.NewCollector("studyplan", prometheus.DefaultRegisterer)}

	if cfg.Database.Driver == config.DriverMemory {
		logger.Warn("using in-memory storage, nothing will be persisted")
		st := review.NewMemoryStore()
		b.store, b.audit = st, st
		return b, nil
	}

	db, err := database.Connect(database.Config{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN})
	if err != nil {
		return nil, err
	}
	b.db = db
	b.store = database.NewMemoryStateRepository(db)
	b.audit = database.NewReviewLogRepository(db)
	b.reminders = database.NewReminderRepository(db)
	return b, nil
}

func (b *backend) service(logger *zap.Logger) *review.Service {
	return review.NewService(b.store, b.audit, logger).WithMetrics(b.collector)
}

// setup is the common prologue of every command that touches storage.
func setup() (*zap.Logger, *backend, *review.Service, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, nil, nil, err
	}
	b, err := openBackend(logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, nil, fmt.Errorf("opening storage: %w", err)
	}
	return logger, b, b.service(logger), nil
}

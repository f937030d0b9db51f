package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/studyplan/internal/api"
	"github.com/example/studyplan/internal/auth"
	"github.com/example/studyplan/internal/bot"
	"github.com/example/studyplan/internal/scheduler"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and, when enabled, the reminder scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger, b, svc, err := setup()
			if err != nil {
				return err
			}
			defer b.Close()
			defer func() { _ = logger.Sync() }()

			srv, err := api.NewServer(svc, api.Config{
				ListenAddr: cfg.API.ListenAddr,
				JWTSecret:  cfg.API.JWTSecret,
				JWTIssuer:  cfg.API.JWTIssuer,
			}, logger, b.collector, prometheus.DefaultGatherer)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			if cfg.Reminders.Enabled {
				stopReminders, err := startReminders(ctx, b, logger)
				if err != nil {
					return fmt.Errorf("serve: reminders: %w", err)
				}
				defer stopReminders()
			}

			errCh := make(chan error, 1)
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case <-ctx.Done():
				logger.Info("shutting down")
			case err := <-errCh:
				return err
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("serve: graceful shutdown: %w", err)
			}
			return <-errCh
		},
	}
}

// startReminders wires the Telegram bot to the hourly scheduler.
func startReminders(ctx context.Context, b *backend, logger *zap.Logger) (func(), error) {
	if b.reminders == nil {
		return nil, errors.New("reminders need a sqlite3 or postgres database")
	}
	loc, err := cfg.Reminders.Location()
	if err != nil {
		return nil, err
	}

	verifier := auth.NewVerifier(cfg.API.JWTSecret, cfg.API.JWTIssuer)
	tg, err := bot.New(cfg.Reminders.TelegramToken, b.reminders, verifier, logger)
	if err != nil {
		return nil, err
	}

	sched := scheduler.New(scheduler.Config{
		StartHour:     cfg.Reminders.StartHour,
		EndHour:       cfg.Reminders.EndHour,
		Location:      loc,
		MaxPerMessage: cfg.Reminders.MaxPerMessage,
	}, b.reminders, b.store, tg, logger).WithMetrics(b.collector)
	if err := sched.Start(ctx); err != nil {
		return nil, err
	}

	go func() {
		if err := tg.Listen(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("telegram listener stopped", zap.Error(err))
		}
	}()

	return sched.Stop, nil
}

// Package scheduler runs the hourly "reviews due" reminder job.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/example/studyplan/internal/metrics"
	"github.com/example/studyplan/pkg/models"
)

// Default notification window
const (
	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 22
)

// Subscriptions lists the reminder subscriptions for an hour of the day
type Subscriptions interface {
	ListForHour(ctx context.Context, hour int) ([]models.ReminderSubscription, error)
}

// DueCounter counts due memory states per user
type DueCounter interface {
	CountDueByUser(ctx context.Context, asOf time.Time) (map[string]int, error)
}

// Notifier interface for sending notifications
type Notifier interface {
	SendReminder(ctx context.Context, chatID int64, count int) error
}

// Config controls when and how reminders go out
type Config struct {
	StartHour     int
	EndHour       int
	Location      *time.Location
	MaxPerMessage int // 0 means no cap
}

// DefaultConfig returns the default reminder window in UTC
func DefaultConfig() Config {
	return Config{
		StartHour: DefaultNotificationStartHour,
		EndHour:   DefaultNotificationEndHour,
		Location:  time.UTC,
	}
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	cfg       Config
	scheduler *gocron.Scheduler
	subs      Subscriptions
	due       DueCounter
	notifier  Notifier
	metrics   *metrics.Collector
	logger    *zap.Logger
}

// New creates a new scheduler instance
func New(cfg Config, subs Subscriptions, due DueCounter, notifier Notifier, logger *zap.Logger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cfg:       cfg,
		scheduler: gocron.NewScheduler(cfg.Location),
		subs:      subs,
		due:       due,
		notifier:  notifier,
		logger:    logger.With(zap.String("component", "scheduler")),
	}
}

// WithMetrics attaches a metrics collector
func (s *Scheduler) WithMetrics(c *metrics.Collector) *Scheduler {
	s.metrics = c
	return s
}

// Start schedules the hourly reminder check and returns immediately
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.scheduler.Every(1).Hour().StartAt(nextHour(time.Now().In(s.cfg.Location))).Do(func() {
		if _, err := s.RunOnce(ctx, time.Now()); err != nil {
			s.logger.Error("reminder run failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminders: %w", err)
	}

	s.scheduler.StartAsync()
	s.logger.Info("reminder scheduler started",
		zap.Int("start_hour", s.cfg.StartHour),
		zap.Int("end_hour", s.cfg.EndHour),
		zap.String("timezone", s.cfg.Location.String()),
	)
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// InWindow reports whether hour falls inside the notification window.
// A window whose end is before its start wraps past midnight.
func (s *Scheduler) InWindow(hour int) bool {
	if s.cfg.StartHour <= s.cfg.EndHour {
		return hour >= s.cfg.StartHour && hour <= s.cfg.EndHour
	}
	return hour >= s.cfg.StartHour || hour <= s.cfg.EndHour
}

// RunOnce sends reminders to everyone subscribed for now's hour who has
// reviews due, and returns how many reminders went out. A failed send is
// logged and does not stop the run.
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) (int, error) {
	hour := now.In(s.cfg.Location).Hour()
	if !s.InWindow(hour) {
		s.logger.Debug("outside notification hours, skipping reminders",
			zap.Int("hour", hour),
			zap.Int("start_hour", s.cfg.StartHour),
			zap.Int("end_hour", s.cfg.EndHour),
		)
		return 0, nil
	}

	subs, err := s.subs.ListForHour(ctx, hour)
	if err != nil {
		return 0, fmt.Errorf("listing subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return 0, nil
	}

	counts, err := s.due.CountDueByUser(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("counting due reviews: %w", err)
	}

	sent := 0
	for _, sub := range subs {
		count := counts[sub.UserID]
		if count == 0 {
			continue
		}
		if s.cfg.MaxPerMessage > 0 && count > s.cfg.MaxPerMessage {
			count = s.cfg.MaxPerMessage
		}

		if err := s.notifier.SendReminder(ctx, sub.ChatID, count); err != nil {
			s.logger.Warn("failed to send reminder",
				zap.String("user_id", sub.UserID),
				zap.Int64("chat_id", sub.ChatID),
				zap.Error(err),
			)
			continue
		}
		sent++
		s.metrics.RecordReminderSent()
		s.logger.Info("reminder sent", zap.String("user_id", sub.UserID), zap.Int("count", count))
	}
	return sent, nil
}

// nextHour returns the start of the next wall-clock hour in t's location.
// Truncate works on absolute time and lands on :30 in half-hour zones.
func nextHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour()+1, 0, 0, 0, t.Location())
}

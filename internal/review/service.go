// Package review records graded reviews against a learner's stored memory
// states and serves the due list and the upcoming review load.
package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/studyplan/internal/metrics"
	"github.com/example/studyplan/internal/spaced_repetition"
	"github.com/example/studyplan/pkg/models"
)

// Request is a single grading event for one concept.
type Request struct {
	ConceptID        string   `json:"concept_id"`
	Quality          int      `json:"quality"`
	TimeTakenMinutes *float64 `json:"time_taken_minutes,omitempty"`
	Confidence       *float64 `json:"confidence,omitempty"`
}

// Result is the updated state plus an echo of the computed fields.
type Result struct {
	State        models.MemoryState `json:"item"`
	Repetitions  int                `json:"repetitions"`
	EaseFactor   float64            `json:"ease_factor"`
	IntervalDays int                `json:"interval_days"`
	NextReview   time.Time          `json:"next_review"`
}

// Service coordinates the scheduler with storage and the audit log.
type Service struct {
	store   Store
	audit   ReviewLogger
	sm      *spaced_repetition.SM2
	metrics *metrics.Collector
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a review service. audit and logger may be nil.
func NewService(store Store, audit ReviewLogger, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		audit:  audit,
		sm:     spaced_repetition.NewSM2(),
		logger: logger.With(zap.String("component", "review")),
		now:    time.Now,
	}
}

// WithMetrics attaches a metrics collector.
func (s *Service) WithMetrics(c *metrics.Collector) *Service {
	s.metrics = c
	return s
}

// WithClock overrides the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Now returns the service's current time.
func (s *Service) Now() time.Time { return s.now() }

// Scheduler returns the SM-2 parameters the service grades with.
func (s *Service) Scheduler() *spaced_repetition.SM2 { return s.sm }

// RecordReview grades one concept for userID and persists the new state.
// No state is touched when the request is rejected.
func (s *Service) RecordReview(ctx context.Context, userID string, req Request) (*Result, error) {
	res, err := s.recordReview(ctx, userID, req)
	if err != nil {
		s.metrics.RecordReviewError(ErrorKind(err))
		s.logger.Warn("review rejected",
			zap.String("user_id", userID),
			zap.String("concept_id", req.ConceptID),
			zap.String("kind", ErrorKind(err)),
			zap.Error(err),
		)
		return nil, err
	}
	return res, nil
}

func (s *Service) recordReview(ctx context.Context, userID string, req Request) (*Result, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(req.ConceptID) == "" {
		return nil, fmt.Errorf("%w: concept_id is required", ErrValidation)
	}
	if err := spaced_repetition.ValidateQuality(req.Quality); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	current, err := s.store.Get(ctx, userID, req.ConceptID)
	if err != nil {
		return nil, storageError("loading memory state", err)
	}

	now := s.now()
	updated, err := s.sm.Schedule(*current, req.Quality, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	if err := s.store.Put(ctx, &updated); err != nil {
		return nil, storageError("saving memory state", err)
	}

	s.appendAudit(ctx, current, req, now)
	s.metrics.RecordReview(req.Quality >= s.sm.PassThreshold)

	s.logger.Debug("review recorded",
		zap.String("user_id", userID),
		zap.String("concept_id", updated.ConceptID),
		zap.Int("quality", req.Quality),
		zap.Int("interval_days", updated.IntervalDays),
		zap.Float64("ease_factor", updated.EaseFactor),
	)

	return &Result{
		State:        updated,
		Repetitions:  updated.Repetitions,
		EaseFactor:   updated.EaseFactor,
		IntervalDays: updated.IntervalDays,
		NextReview:   updated.NextReview,
	}, nil
}

// appendAudit writes the review to the audit log. A failure here is logged
// and never fails the review.
func (s *Service) appendAudit(ctx context.Context, prev *models.MemoryState, req Request, now time.Time) {
	if s.audit == nil {
		return
	}

	entry := &models.ReviewLog{
		UserID:               prev.UserID,
		StateID:              prev.ID,
		ConceptID:            prev.ConceptID,
		ActivityType:         models.ActivityReview,
		Quality:              req.Quality,
		Correctness:          float64(req.Quality) / 5,
		TimeTakenMinutes:     req.TimeTakenMinutes,
		Confidence:           req.Confidence,
		PreviousEaseFactor:   prev.EaseFactor,
		PreviousIntervalDays: prev.IntervalDays,
		CreatedAt:            now,
	}

	if err := s.audit.Append(ctx, entry); err != nil {
		s.metrics.RecordAuditLogFailure()
		s.logger.Warn("failed to write review audit log",
			zap.String("user_id", prev.UserID),
			zap.String("concept_id", prev.ConceptID),
			zap.Error(err),
		)
	}
}

// DueItems returns the learner's states due at asOf.
func (s *Service) DueItems(ctx context.Context, userID string, asOf time.Time) ([]models.MemoryState, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	items, err := s.store.ListDue(ctx, userID, asOf)
	if err != nil {
		return nil, storageError("listing due states", err)
	}
	return spaced_repetition.DueItems(items, asOf), nil
}

// UpcomingSchedule returns the learner's forward review load by day.
func (s *Service) UpcomingSchedule(ctx context.Context, userID string, asOf time.Time) ([]spaced_repetition.DayLoad, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	items, err := s.store.ListAll(ctx, userID)
	if err != nil {
		return nil, storageError("listing states", err)
	}
	return spaced_repetition.UpcomingSchedule(items, asOf), nil
}

// AddConcept puts a concept on the learner's review queue, due immediately.
// An existing state is returned untouched with created=false.
func (s *Service) AddConcept(ctx context.Context, userID, conceptID, title string) (*models.MemoryState, bool, error) {
	if userID == "" {
		return nil, false, ErrUnauthenticated
	}
	conceptID = strings.TrimSpace(conceptID)
	if conceptID == "" {
		return nil, false, fmt.Errorf("%w: concept_id is required", ErrValidation)
	}
	if title = strings.TrimSpace(title); title == "" {
		title = conceptID
	}

	state := s.sm.NewState(userID, conceptID, title, s.now())
	err := s.store.Create(ctx, &state)
	if errors.Is(err, ErrAlreadyExists) {
		existing, getErr := s.store.Get(ctx, userID, conceptID)
		if getErr != nil {
			return nil, false, storageError("loading existing state", getErr)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, storageError("creating memory state", err)
	}

	s.logger.Info("concept queued", zap.String("user_id", userID), zap.String("concept_id", conceptID))
	return &state, true, nil
}

// RemoveConcept stops tracking a concept for the learner.
func (s *Service) RemoveConcept(ctx context.Context, userID, conceptID string) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	if strings.TrimSpace(conceptID) == "" {
		return fmt.Errorf("%w: concept_id is required", ErrValidation)
	}
	if err := s.store.Delete(ctx, userID, conceptID); err != nil {
		return storageError("deleting memory state", err)
	}
	return nil
}

// Commit persists a state graded outside RecordReview, such as by an
// interactive session, and writes its audit entry.
func (s *Service) Commit(ctx context.Context, prev, updated models.MemoryState) error {
	reviewedAt := s.now()
	if updated.LastReviewed != nil {
		reviewedAt = *updated.LastReviewed
	}
	if err := s.store.Put(ctx, &updated); err != nil {
		return storageError("saving memory state", err)
	}
	s.appendAudit(ctx, &prev, Request{ConceptID: prev.ConceptID, Quality: updated.LastQuality}, reviewedAt)
	s.metrics.RecordReview(updated.LastQuality >= s.sm.PassThreshold)
	return nil
}

// storageError keeps not-found and conflict errors as they are and wraps
// everything else as ErrStorage.
func storageError(op string, err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrAlreadyExists) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

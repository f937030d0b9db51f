package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/example/studyplan/internal/review"
	"github.com/example/studyplan/pkg/models"
)

var _ review.ReviewLogger = (*ReviewLogRepository)(nil)

// ReviewLogRepository handles database operations for the review audit log
type ReviewLogRepository struct {
	db *sqlx.DB
}

// NewReviewLogRepository creates a new repository instance
func NewReviewLogRepository(db *sqlx.DB) *ReviewLogRepository {
	return &ReviewLogRepository{db: db}
}

// Append inserts a new audit entry
func (r *ReviewLogRepository) Append(ctx context.Context, entry *models.ReviewLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	query := r.db.Rebind(`
		INSERT INTO review_logs (
			id, user_id, state_id, concept_id, activity_type, quality, correctness,
			time_taken_minutes, confidence, previous_ease_factor, previous_interval_days, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.StateID,
		entry.ConceptID,
		entry.ActivityType,
		entry.Quality,
		entry.Correctness,
		entry.TimeTakenMinutes,
		entry.Confidence,
		entry.PreviousEaseFactor,
		entry.PreviousIntervalDays,
		entry.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create review log: %w", err)
	}
	return nil
}

// GetByUserID returns a user's audit entries, newest first
func (r *ReviewLogRepository) GetByUserID(ctx context.Context, userID string, limit int) ([]models.ReviewLog, error) {
	query := r.db.Rebind(`
		SELECT id, user_id, state_id, concept_id, activity_type, quality, correctness,
			time_taken_minutes, confidence, previous_ease_factor, previous_interval_days, created_at
		FROM review_logs
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`)

	logs := []models.ReviewLog{}
	if err := r.db.SelectContext(ctx, &logs, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to get review logs: %w", err)
	}
	return logs, nil
}

// GetUserStatsByPeriod returns review statistics for a user within a time period
func (r *ReviewLogRepository) GetUserStatsByPeriod(ctx context.Context, userID string, startDate, endDate time.Time) (*ReviewStats, error) {
	query := r.db.Rebind(`
		SELECT
			COUNT(*) AS total_reviews,
			COALESCE(SUM(CASE WHEN quality >= 3 THEN 1 ELSE 0 END), 0) AS passed_reviews,
			COALESCE(AVG(correctness), 0) AS avg_correctness
		FROM review_logs
		WHERE user_id = ? AND created_at BETWEEN ? AND ?
	`)

	var stats ReviewStats
	if err := r.db.GetContext(ctx, &stats, query, userID, startDate.UTC(), endDate.UTC()); err != nil {
		return nil, fmt.Errorf("failed to get review stats: %w", err)
	}
	return &stats, nil
}

// ReviewStats aggregates audit entries over a period
type ReviewStats struct {
	TotalReviews   int     `json:"total_reviews" db:"total_reviews"`
	PassedReviews  int     `json:"passed_reviews" db:"passed_reviews"`
	AvgCorrectness float64 `json:"avg_correctness" db:"avg_correctness"`
}

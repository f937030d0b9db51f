package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/example/studyplan/internal/review"
	"github.com/example/studyplan/pkg/models"
)

const memoryStateColumns = `id, user_id, concept_id, concept_title, repetitions, interval_days,
	ease_factor, last_quality, last_reviewed, next_review, version, created_at, updated_at`

var _ review.Store = (*MemoryStateRepository)(nil)

// MemoryStateRepository handles database operations for memory states
type MemoryStateRepository struct {
	db *sqlx.DB
}

// NewMemoryStateRepository creates a new repository instance
func NewMemoryStateRepository(db *sqlx.DB) *MemoryStateRepository {
	return &MemoryStateRepository{db: db}
}

// Get returns the state for a specific user and concept
func (r *MemoryStateRepository) Get(ctx context.Context, userID, conceptID string) (*models.MemoryState, error) {
	query := r.db.Rebind(`SELECT ` + memoryStateColumns + ` FROM memory_states WHERE user_id = ? AND concept_id = ?`)

	var state models.MemoryState
	err := r.db.GetContext(ctx, &state, query, userID, conceptID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, review.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get memory state: %w", err)
	}
	return &state, nil
}

// Create inserts a new state record
func (r *MemoryStateRepository) Create(ctx context.Context, state *models.MemoryState) error {
	if state.ID == "" {
		state.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if state.CreatedAt.IsZero() {
		state.CreatedAt = now
	}
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = state.CreatedAt
	}
	state.Version = 1

	query := r.db.Rebind(`
		INSERT INTO memory_states (` + memoryStateColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		state.ID,
		state.UserID,
		state.ConceptID,
		state.ConceptTitle,
		state.Repetitions,
		state.IntervalDays,
		state.EaseFactor,
		state.LastQuality,
		utcPtr(state.LastReviewed),
		state.NextReview.UTC(),
		state.Version,
		state.CreatedAt.UTC(),
		state.UpdatedAt.UTC(),
	)
	if isUniqueViolation(err) {
		return review.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to create memory state: %w", err)
	}
	return nil
}

// Put writes the scheduling fields of state if nobody else has written it
// since it was read. UpdatedAt is stored as given, or stamped when zero.
func (r *MemoryStateRepository) Put(ctx context.Context, state *models.MemoryState) error {
	updatedAt := state.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	query := r.db.Rebind(`
		UPDATE memory_states SET
			repetitions = ?,
			interval_days = ?,
			ease_factor = ?,
			last_quality = ?,
			last_reviewed = ?,
			next_review = ?,
			version = version + 1,
			updated_at = ?
		WHERE user_id = ? AND concept_id = ? AND version = ?
	`)
	result, err := r.db.ExecContext(ctx, query,
		state.Repetitions,
		state.IntervalDays,
		state.EaseFactor,
		state.LastQuality,
		utcPtr(state.LastReviewed),
		state.NextReview.UTC(),
		updatedAt.UTC(),
		state.UserID,
		state.ConceptID,
		state.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update memory state: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		// Either the row is gone or another writer got there first
		var exists int
		err := r.db.GetContext(ctx, &exists,
			r.db.Rebind(`SELECT COUNT(*) FROM memory_states WHERE user_id = ? AND concept_id = ?`),
			state.UserID, state.ConceptID)
		if err != nil {
			return fmt.Errorf("failed to check memory state: %w", err)
		}
		if exists == 0 {
			return review.ErrNotFound
		}
		return review.ErrConflict
	}

	state.Version++
	state.UpdatedAt = updatedAt
	return nil
}

// ListDue returns states due for review for a specific user
func (r *MemoryStateRepository) ListDue(ctx context.Context, userID string, asOf time.Time) ([]models.MemoryState, error) {
	query := r.db.Rebind(`
		SELECT ` + memoryStateColumns + ` FROM memory_states
		WHERE user_id = ? AND next_review <= ?
		ORDER BY next_review ASC, concept_id ASC
	`)

	states := []models.MemoryState{}
	if err := r.db.SelectContext(ctx, &states, query, userID, asOf.UTC()); err != nil {
		return nil, fmt.Errorf("failed to get due memory states: %w", err)
	}
	return states, nil
}

// ListAll returns every state for a user
func (r *MemoryStateRepository) ListAll(ctx context.Context, userID string) ([]models.MemoryState, error) {
	query := r.db.Rebind(`
		SELECT ` + memoryStateColumns + ` FROM memory_states
		WHERE user_id = ?
		ORDER BY next_review ASC, concept_id ASC
	`)

	states := []models.MemoryState{}
	if err := r.db.SelectContext(ctx, &states, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get memory states: %w", err)
	}
	return states, nil
}

// Delete removes a state record
func (r *MemoryStateRepository) Delete(ctx context.Context, userID, conceptID string) error {
	result, err := r.db.ExecContext(ctx,
		r.db.Rebind(`DELETE FROM memory_states WHERE user_id = ? AND concept_id = ?`),
		userID, conceptID)
	if err != nil {
		return fmt.Errorf("failed to delete memory state: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return review.ErrNotFound
	}
	return nil
}

// CountDueByUser returns the number of due states per user
func (r *MemoryStateRepository) CountDueByUser(ctx context.Context, asOf time.Time) (map[string]int, error) {
	query := r.db.Rebind(`
		SELECT user_id, COUNT(*) AS due FROM memory_states
		WHERE next_review <= ?
		GROUP BY user_id
	`)

	var rows []struct {
		UserID string `db:"user_id"`
		Due    int    `db:"due"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, asOf.UTC()); err != nil {
		return nil, fmt.Errorf("failed to count due memory states: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.UserID] = row.Due
	}
	return counts, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// isUniqueViolation recognizes duplicate-key errors from both drivers
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

package review

import (
	"context"
	"time"

	"github.com/example/studyplan/pkg/models"
)

// Store persists memory states.
//
// Put must be an atomic read-modify-write per item: it succeeds only when the
// stored Version equals state.Version, bumps Version on success, and returns
// ErrConflict otherwise.
type Store interface {
	// Get returns ErrNotFound when the learner has no state for conceptID.
	Get(ctx context.Context, userID, conceptID string) (*models.MemoryState, error)

	// Create inserts a new state. ErrAlreadyExists on a duplicate (user, concept).
	Create(ctx context.Context, state *models.MemoryState) error

	// Put writes an updated state using an optimistic version check.
	Put(ctx context.Context, state *models.MemoryState) error

	// ListDue returns states with NextReview <= asOf, ordered by next review.
	ListDue(ctx context.Context, userID string, asOf time.Time) ([]models.MemoryState, error)

	// ListAll returns every state for the learner, ordered by next review.
	ListAll(ctx context.Context, userID string) ([]models.MemoryState, error)

	// Delete removes a concept from tracking. ErrNotFound when absent.
	Delete(ctx context.Context, userID, conceptID string) error

	// CountDueByUser returns the number of due states per learner.
	CountDueByUser(ctx context.Context, asOf time.Time) (map[string]int, error)
}

// ReviewLogger appends audit records for graded reviews.
type ReviewLogger interface {
	Append(ctx context.Context, entry *models.ReviewLog) error
}

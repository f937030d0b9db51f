// Package session sequences one learner's interactive pass over a batch of due items.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/studyplan/internal/spaced_repetition"
	"github.com/example/studyplan/pkg/models"
)

var (
	// ErrNotInProgress is returned when an item is requested or graded outside InProgress.
	ErrNotInProgress = errors.New("session: not in progress")
	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("session: already started")
)

// State is the lifecycle stage of a review session
type State int

const (
	NotStarted State = iota
	InProgress
	Completed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case InProgress:
		return "in_progress"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Stats summarizes the grading outcomes of a session
type Stats struct {
	Reviewed int     `json:"reviewed"`
	Passed   int     `json:"passed"`
	Accuracy float64 `json:"accuracy"` // Passed/Reviewed, 0 when nothing was reviewed
}

// CommitFunc persists a freshly scheduled state. A non-nil error keeps the
// session on the current item.
type CommitFunc func(ctx context.Context, updated models.MemoryState) error

// Session is a single-owner review pass. It is not safe for concurrent use.
type Session struct {
	sm       *spaced_repetition.SM2
	queue    []models.MemoryState
	cursor   int
	state    State
	reviewed int
	passed   int
}

// New creates a session that schedules with sm. A nil sm uses the defaults.
func New(sm *spaced_repetition.SM2) *Session {
	if sm == nil {
		sm = spaced_repetition.NewSM2()
	}
	return &Session{sm: sm, state: NotStarted}
}

// Start captures items as the fixed queue for this pass.
// An empty batch completes the session immediately with zero stats.
func (s *Session) Start(items []models.MemoryState) error {
	if s.state != NotStarted {
		return ErrAlreadyStarted
	}

	s.queue = make([]models.MemoryState, len(items))
	for i, it := range items {
		s.queue[i] = it.Clone()
	}
	s.cursor = 0

	if len(s.queue) == 0 {
		s.state = Completed
		return nil
	}
	s.state = InProgress
	return nil
}

// Current returns the item at the cursor.
func (s *Session) Current() (models.MemoryState, error) {
	if s.state != InProgress {
		return models.MemoryState{}, fmt.Errorf("%w: %s", ErrNotInProgress, s.state)
	}
	return s.queue[s.cursor].Clone(), nil
}

// Grade schedules the current item with quality at now and hands the result to
// commit. The cursor and counters only move once commit succeeds.
func (s *Session) Grade(ctx context.Context, quality int, now time.Time, commit CommitFunc) (models.MemoryState, error) {
	if s.state != InProgress {
		return models.MemoryState{}, fmt.Errorf("%w: %s", ErrNotInProgress, s.state)
	}

	updated, err := s.sm.Schedule(s.queue[s.cursor], quality, now)
	if err != nil {
		return models.MemoryState{}, err
	}

	if commit != nil {
		if err := commit(ctx, updated); err != nil {
			return models.MemoryState{}, fmt.Errorf("committing review of %s: %w", updated.ConceptID, err)
		}
	}

	s.queue[s.cursor] = updated
	s.reviewed++
	if quality >= s.sm.PassThreshold {
		s.passed++
	}
	s.cursor++
	if s.cursor == len(s.queue) {
		s.state = Completed
	}

	return updated, nil
}

// Stats reports counts for the pass so far.
func (s *Session) Stats() Stats {
	st := Stats{Reviewed: s.reviewed, Passed: s.passed}
	if s.reviewed > 0 {
		st.Accuracy = float64(s.passed) / float64(s.reviewed)
	}
	return st
}

// State returns the current lifecycle stage.
func (s *Session) State() State { return s.state }

// Remaining returns how many items are still waiting to be graded.
func (s *Session) Remaining() int {
	if s.state != InProgress {
		return 0
	}
	return len(s.queue) - s.cursor
}

// Len returns the size of the captured queue.
func (s *Session) Len() int { return len(s.queue) }

// Position returns the 1-based position of the current item, for progress display.
func (s *Session) Position() int { return s.cursor + 1 }

package models

import "time"

// MemoryState tracks a learner's spaced-repetition state for a single concept
type MemoryState struct {
	ID           string     `json:"id" db:"id"`
	UserID       string     `json:"user_id" db:"user_id"`
	ConceptID    string     `json:"concept_id" db:"concept_id"`
	ConceptTitle string     `json:"concept_title" db:"concept_title"`
	Repetitions  int        `json:"repetitions" db:"repetitions"`     // Consecutive passes since the last lapse
	IntervalDays int        `json:"interval_days" db:"interval_days"` // Days until the next review
	EaseFactor   float64    `json:"ease_factor" db:"ease_factor"`     // SM-2 EF parameter, never below 1.3
	LastQuality  int        `json:"last_quality" db:"last_quality"`   // 0-5 rating of the last recall
	LastReviewed *time.Time `json:"last_reviewed,omitempty" db:"last_reviewed"`
	NextReview   time.Time  `json:"next_review" db:"next_review"`
	Version      int64      `json:"version" db:"version"` // Bumped on every successful write
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// IsDue reports whether the state is due for review at asOf.
func (s MemoryState) IsDue(asOf time.Time) bool {
	return !s.NextReview.After(asOf)
}

// Clone returns a copy that shares no pointers with s.
func (s MemoryState) Clone() MemoryState {
	c := s
	if s.LastReviewed != nil {
		t := *s.LastReviewed
		c.LastReviewed = &t
	}
	return c
}

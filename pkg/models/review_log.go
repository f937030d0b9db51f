package models

import "time"

// ReviewLog is an audit record of a single graded review
type ReviewLog struct {
	ID                   string    `json:"id" db:"id"`
	UserID               string    `json:"user_id" db:"user_id"`
	StateID              string    `json:"state_id" db:"state_id"`
	ConceptID            string    `json:"concept_id" db:"concept_id"`
	ActivityType         string    `json:"activity_type" db:"activity_type"` // e.g., "review"
	Quality              int       `json:"quality" db:"quality"`
	Correctness          float64   `json:"correctness" db:"correctness"` // quality normalized to 0-1
	TimeTakenMinutes     *float64  `json:"time_taken_minutes,omitempty" db:"time_taken_minutes"`
	Confidence           *float64  `json:"confidence,omitempty" db:"confidence"`
	PreviousEaseFactor   float64   `json:"previous_ease_factor" db:"previous_ease_factor"`
	PreviousIntervalDays int       `json:"previous_interval_days" db:"previous_interval_days"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
}

// ActivityReview marks a log entry produced by grading a review.
const ActivityReview = "review"

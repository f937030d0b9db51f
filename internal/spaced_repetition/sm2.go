package spaced_repetition

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/example/studyplan/pkg/models"
)

// ErrInvalidQuality is returned when a grade falls outside the 0-5 scale.
var ErrInvalidQuality = errors.New("spaced_repetition: quality must be an integer between 0 and 5")

const (
	// InitialEaseFactor is the ease assigned to a concept when it joins the queue
	InitialEaseFactor = 2.5
	// MinEaseFactor is the hard floor for the ease factor
	MinEaseFactor = 1.3
)

// SM2 implements the SuperMemo-2 algorithm for spaced repetition
type SM2 struct {
	// Grades at or above this value count as a pass
	PassThreshold int
	// Ease factor never drops below this value
	MinEaseFactor float64
	// Ease factor given to freshly queued concepts
	InitialEaseFactor float64
}

// NewSM2 creates a new SM2 instance with default settings
func NewSM2() *SM2 {
	return &SM2{
		PassThreshold:     int(QualityCorrectDifficult),
		MinEaseFactor:     MinEaseFactor,
		InitialEaseFactor: InitialEaseFactor,
	}
}

// QualityResponse represents the quality of response in SM-2
type QualityResponse int

const (
	// Complete blackout, unable to recall
	QualityBlackout QualityResponse = 0
	// Incorrect response but remembered upon seeing the correct answer
	QualityIncorrect QualityResponse = 1
	// Incorrect response but the correct answer felt familiar
	QualityIncorrectFamiliar QualityResponse = 2
	// Correct response but required significant effort
	QualityCorrectDifficult QualityResponse = 3
	// Correct response after some hesitation
	QualityCorrectHesitation QualityResponse = 4
	// Perfect response with no hesitation
	QualityPerfect QualityResponse = 5
)

// IsValid reports whether q is on the 0-5 scale.
func (q QualityResponse) IsValid() bool {
	return q >= QualityBlackout && q <= QualityPerfect
}

// ValidateQuality returns ErrInvalidQuality for grades outside 0-5.
func ValidateQuality(quality int) error {
	if !QualityResponse(quality).IsValid() {
		return fmt.Errorf("%w: got %d", ErrInvalidQuality, quality)
	}
	return nil
}

// NewState returns the initial memory state for a concept joining the review queue.
// It is due immediately.
func (sm *SM2) NewState(userID, conceptID, title string, now time.Time) models.MemoryState {
	return models.MemoryState{
		UserID:       userID,
		ConceptID:    conceptID,
		ConceptTitle: title,
		Repetitions:  0,
		IntervalDays: 0,
		EaseFactor:   sm.InitialEaseFactor,
		NextReview:   now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Schedule computes the memory state that follows grading state with quality at now.
// The input is not modified. An invalid quality yields ErrInvalidQuality and a zero state.
func (sm *SM2) Schedule(state models.MemoryState, quality int, now time.Time) (models.MemoryState, error) {
	if err := ValidateQuality(quality); err != nil {
		return models.MemoryState{}, err
	}

	next := state.Clone()

	if quality < sm.PassThreshold {
		// Lapse: restart the streak and review again tomorrow
		next.Repetitions = 0
		next.IntervalDays = 1
	} else {
		next.Repetitions = state.Repetitions + 1
		switch next.Repetitions {
		case 1:
			next.IntervalDays = 1
		case 2:
			next.IntervalDays = 6
		default:
			next.IntervalDays = roundHalfUp(float64(state.IntervalDays) * state.EaseFactor)
		}
	}

	next.EaseFactor = sm.nextEaseFactor(state.EaseFactor, quality)
	next.LastQuality = quality

	reviewed := now
	next.LastReviewed = &reviewed
	next.NextReview = now.AddDate(0, 0, next.IntervalDays)
	next.UpdatedAt = now

	return next, nil
}

// nextEaseFactor applies the SM-2 ease update and clamps it to the floor
func (sm *SM2) nextEaseFactor(ef float64, quality int) float64 {
	d := float64(5 - quality)
	newEF := ef + (0.1 - d*(0.08+d*0.02))
	if newEF < sm.MinEaseFactor {
		newEF = sm.MinEaseFactor
	}
	return newEF
}

// IsMastered determines if a concept is considered "mastered"
func (sm *SM2) IsMastered(state models.MemoryState) bool {
	// A concept is considered mastered if:
	// 1. It has been passed at least 5 times in a row
	// 2. The latest quality response was 4 or 5
	// 3. The interval is at least 30 days
	return state.Repetitions >= 5 &&
		state.LastQuality >= int(QualityCorrectHesitation) &&
		state.IntervalDays >= 30
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

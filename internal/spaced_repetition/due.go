package spaced_repetition

import (
	"sort"
	"time"

	"github.com/example/studyplan/pkg/models"
)

// DueItems returns the states due for review at asOf (NextReview <= asOf).
// Input order is preserved and the input slice is left untouched.
func DueItems(items []models.MemoryState, asOf time.Time) []models.MemoryState {
	due := make([]models.MemoryState, 0, len(items))
	for _, s := range items {
		if s.IsDue(asOf) {
			due = append(due, s)
		}
	}
	return due
}

// Prioritize returns a copy of items ordered for an interactive review pass:
// 1. Concepts that have never been reviewed
// 2. Concepts with the lowest ease factor (hardest first)
// 3. Concepts that are the most overdue
// Remaining ties are broken by concept ID so the order is total.
func Prioritize(items []models.MemoryState) []models.MemoryState {
	out := make([]models.MemoryState, len(items))
	copy(out, items)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]

		aNew, bNew := a.LastReviewed == nil, b.LastReviewed == nil
		if aNew != bNew {
			return aNew
		}

		if a.EaseFactor != b.EaseFactor {
			return a.EaseFactor < b.EaseFactor
		}

		if !a.NextReview.Equal(b.NextReview) {
			return a.NextReview.Before(b.NextReview)
		}

		return a.ConceptID < b.ConceptID
	})

	return out
}

// DayLoad is the number of reviews falling on one calendar day
type DayLoad struct {
	Date  time.Time `json:"date"` // Midnight of the day in the caller's location
	Count int       `json:"count"`
}

// DateString formats the day as YYYY-MM-DD.
func (d DayLoad) DateString() string {
	return d.Date.Format(time.DateOnly)
}

// UpcomingSchedule groups the not-yet-due states (NextReview > asOf) by the calendar
// date of their next review, in asOf's location, ascending by date.
func UpcomingSchedule(items []models.MemoryState, asOf time.Time) []DayLoad {
	loc := asOf.Location()
	counts := make(map[time.Time]int)

	for _, s := range items {
		if !s.NextReview.After(asOf) {
			continue
		}
		counts[startOfDay(s.NextReview, loc)]++
	}

	schedule := make([]DayLoad, 0, len(counts))
	for day, n := range counts {
		schedule = append(schedule, DayLoad{Date: day, Count: n})
	}
	sort.Slice(schedule, func(i, j int) bool {
		return schedule[i].Date.Before(schedule[j].Date)
	})

	return schedule
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

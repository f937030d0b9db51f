package spaced_repetition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/example/studyplan/pkg/models"
)

func dueAt(id string, next time.Time) models.MemoryState {
	return models.MemoryState{ConceptID: id, EaseFactor: InitialEaseFactor, NextReview: next}
}

func TestDueItems_YesterdayTodayTomorrow(t *testing.T) {
	items := []models.MemoryState{
		dueAt("yesterday", t0.AddDate(0, 0, -1)),
		dueAt("today", t0),
		dueAt("tomorrow", t0.AddDate(0, 0, 1)),
	}

	due := DueItems(items, t0)
	require.Len(t, due, 2)
	assert.Equal(t, "yesterday", due[0].ConceptID)
	assert.Equal(t, "today", due[1].ConceptID)
}

func TestDueItems_PreservesInputOrder(t *testing.T) {
	items := []models.MemoryState{
		dueAt("b", t0.Add(-time.Hour)),
		dueAt("a", t0.AddDate(0, 0, -3)),
		dueAt("c", t0.Add(-time.Minute)),
	}

	first := DueItems(items, t0)
	second := DueItems(items, t0)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"b", "a", "c"}, conceptIDs(first))
}

func TestDueItems_Empty(t *testing.T) {
	assert.Empty(t, DueItems(nil, t0))
}

func TestPrioritize(t *testing.T) {
	reviewed := t0.AddDate(0, 0, -10)
	hard := dueAt("hard", t0.AddDate(0, 0, -1))
	hard.EaseFactor = 1.5
	hard.LastReviewed = &reviewed

	easyOld := dueAt("easy-old", t0.AddDate(0, 0, -5))
	easyOld.EaseFactor = 2.8
	easyOld.LastReviewed = &reviewed

	easyRecent := dueAt("easy-recent", t0.AddDate(0, 0, -1))
	easyRecent.EaseFactor = 2.8
	easyRecent.LastReviewed = &reviewed

	fresh := dueAt("fresh", t0)

	in := []models.MemoryState{easyRecent, hard, easyOld, fresh}
	out := Prioritize(in)

	assert.Equal(t, []string{"fresh", "hard", "easy-old", "easy-recent"}, conceptIDs(out))
	assert.Equal(t, "easy-recent", in[0].ConceptID, "input must not be reordered")
}

func TestUpcomingSchedule(t *testing.T) {
	items := []models.MemoryState{
		dueAt("overdue", t0.AddDate(0, 0, -2)),
		dueAt("now", t0),
		dueAt("later-today", t0.Add(3*time.Hour)),
		dueAt("in-two-days-a", t0.AddDate(0, 0, 2)),
		dueAt("tomorrow", t0.AddDate(0, 0, 1).Add(-9*time.Hour)),
		dueAt("in-two-days-b", t0.AddDate(0, 0, 2).Add(5*time.Hour)),
	}

	schedule := UpcomingSchedule(items, t0)
	require.Len(t, schedule, 3)

	assert.Equal(t, "2025-06-15", schedule[0].DateString())
	assert.Equal(t, 1, schedule[0].Count)
	assert.Equal(t, "2025-06-16", schedule[1].DateString())
	assert.Equal(t, 1, schedule[1].Count)
	assert.Equal(t, "2025-06-17", schedule[2].DateString())
	assert.Equal(t, 2, schedule[2].Count)
}

func TestUpcomingSchedule_UsesCallerLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	asOf := t0.In(tokyo) // 2025-06-15 19:00 JST

	// 16:00 UTC is already the next day in Tokyo.
	items := []models.MemoryState{dueAt("x", time.Date(2025, 6, 15, 16, 0, 0, 0, time.UTC))}

	schedule := UpcomingSchedule(items, asOf)
	require.Len(t, schedule, 1)
	assert.Equal(t, "2025-06-16", schedule[0].DateString())
	assert.Equal(t, tokyo, schedule[0].Date.Location())
}

func TestProperty_DueAndUpcomingPartition(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 40).Draw(rt, "n")
		items := make([]models.MemoryState, n)
		for i := range items {
			offset := rapid.IntRange(-72*60, 72*60).Draw(rt, "offsetMinutes")
			items[i] = dueAt("c", t0.Add(time.Duration(offset)*time.Minute))
		}

		due := DueItems(items, t0)
		for _, s := range due {
			assert.False(rt, s.NextReview.After(t0))
		}

		schedule := UpcomingSchedule(items, t0)
		total := 0
		for i, d := range schedule {
			total += d.Count
			if i > 0 {
				assert.True(rt, schedule[i-1].Date.Before(d.Date))
			}
		}
		assert.Equal(rt, n, len(due)+total)
	})
}

func conceptIDs(items []models.MemoryState) []string {
	ids := make([]string, len(items))
	for i, s := range items {
		ids[i] = s.ConceptID
	}
	return ids
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/studyplan/internal/review"
	"github.com/example/studyplan/pkg/models"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T, driver string) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, driver), mock
}

func stateRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "concept_id", "concept_title", "repetitions", "interval_days",
		"ease_factor", "last_quality", "last_reviewed", "next_review", "version", "created_at", "updated_at",
	})
}

func TestMemoryStateRepository_Get(t *testing.T) {
	db, mock := setupTestDB(t, DriverSQLite)
	repo := NewMemoryStateRepository(db)

	reviewed := t0.AddDate(0, 0, -6)
	mock.ExpectQuery(regexp.QuoteMeta("FROM memory_states WHERE user_id = ? AND concept_id = ?")).
		WithArgs("user-1", "heap").
		WillReturnRows(stateRows().AddRow(
			"id-1", "user-1", "heap", "Binary heap", 2, 6, 2.6, 5, reviewed, t0, int64(3), reviewed, reviewed,
		))

	state, err := repo.Get(context.Background(), "user-1", "heap")
	require.NoError(t, err)
	assert.Equal(t, "Binary heap", state.ConceptTitle)
	assert.Equal(t, 6, state.IntervalDays)
	assert.Equal(t, int64(3), state.Version)
	require.NotNil(t, state.LastReviewed)
	assert.True(t, state.LastReviewed.Equal(reviewed))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryStateRepository_GetNotFound(t *testing.T) {
	db, mock := setupTestDB(t, DriverSQLite)
	repo := NewMemoryStateRepository(db)

	mock.ExpectQuery("FROM memory_states").WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "user-1", "missing")
	assert.True(t, errors.Is(err, review.ErrNotFound))
}

func TestMemoryStateRepository_PostgresPlaceholders(t *testing.T) {
	db, mock := setupTestDB(t, DriverPostgres)
	repo := NewMemoryStateRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND concept_id = $2")).
		WithArgs("user-1", "heap").
		WillReturnRows(stateRows())

	_, err := repo.Get(context.Background(), "user-1", "heap")
	assert.True(t, errors.Is(err, review.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryStateRepository_Create(t *testing.T) {
	db, mock := setupTestDB(t, DriverSQLite)
	repo := NewMemoryStateRepository(db)

	state := &models.MemoryState{UserID: "user-1", ConceptID: "trie", ConceptTitle: "Trie", EaseFactor: 2.5, NextReview: t0, CreatedAt: t0, UpdatedAt: t0}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO memory_states")).
		WithArgs(sqlmock.AnyArg(), "user-1", "trie", "Trie", 0, 0, 2.5, 0, nil, t0, int64(1), t0, t0).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Create(context.Background(), state))
	assert.NotEmpty(t, state.ID)
	assert.Equal(t, int64(1), state.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryStateRepository_CreateDuplicate(t *testing.T) {
	tests := []struct {
		driver string
		err    error
	}{
		{DriverSQLite, sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}},
		{DriverPostgres, &pq.Error{Code: "23505"}},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			db, mock := setupTestDB(t, tt.driver)
			repo := NewMemoryStateRepository(db)

			mock.ExpectExec("INSERT INTO memory_states").WillReturnError(tt.err)

			err := repo.Create(context.Background(), &models.MemoryState{UserID: "u", ConceptID: "c", NextReview: t0})
			assert.True(t, errors.Is(err, review.ErrAlreadyExists))
		})
	}
}

func TestMemoryStateRepository_Put(t *testing.T) {
	db, mock := setupTestDB(t, DriverSQLite)
	repo := NewMemoryStateRepository(db)

	reviewed := t0
	state := &models.MemoryState{
		UserID: "user-1", ConceptID: "heap", Repetitions: 3, IntervalDays: 16, EaseFactor: 2.7,
		LastQuality: 5, LastReviewed: &reviewed, NextReview: t0.AddDate(0, 0, 16), Version: 4,
		UpdatedAt: t0,
	}

	mock.ExpectExec(regexp.QuoteMeta("WHERE user_id = ? AND concept_id = ? AND version = ?")).
		WithArgs(3, 16, 2.7, 5, t0, t0.AddDate(0, 0, 16), t0, "user-1", "heap", int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Put(context.Background(), state))
	assert.Equal(t, int64(5), state.Version)
	assert.True(t, state.UpdatedAt.Equal(t0))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryStateRepository_PutConflictAndMissing(t *testing.T) {
	tests := []struct {
		name   string
		exists int
		want   error
	}{
		{"stale version", 1, review.ErrConflict},
		{"deleted row", 0, review.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupTestDB(t, DriverSQLite)
			repo := NewMemoryStateRepository(db)

			mock.ExpectExec("UPDATE memory_states").WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM memory_states")).
				WithArgs("u", "c").
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(tt.exists))

			state := &models.MemoryState{UserID: "u", ConceptID: "c", NextReview: t0, Version: 2}
			err := repo.Put(context.Background(), state)
			assert.True(t, errors.Is(err, tt.want))
			assert.Equal(t, int64(2), state.Version)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMemoryStateRepository_ListDue(t *testing.T) {
	db, mock := setupTestDB(t, DriverSQLite)
	repo := NewMemoryStateRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = ? AND next_review <= ?")).
		WithArgs("user-1", t0).
		WillReturnRows(stateRows().
			AddRow("id-1", "user-1", "a", "A", 0, 0, 2.5, 0, nil, t0.Add(-time.Hour), int64(1), t0, t0).
			AddRow("id-2", "user-1", "b", "B", 1, 1, 2.5, 4, t0, t0, int64(2), t0, t0))

	states, err := repo.ListDue(context.Background(), "user-1", t0)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, "a", states[0].ConceptID)
	assert.Nil(t, states[0].LastReviewed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryStateRepository_ListAllError(t *testing.T) {
	db, mock := setupTestDB(t, DriverSQLite)
	repo := NewMemoryStateRepository(db)

	mock.ExpectQuery("FROM memory_states").WillReturnError(errors.New("database is locked"))

	_, err := repo.ListAll(context.Background(), "user-1")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, review.ErrNotFound))
}

func TestMemoryStateRepository_Delete(t *testing.T) {
	db, mock := setupTestDB(t, DriverSQLite)
	repo := NewMemoryStateRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM memory_states")).
		WithArgs("u", "c").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM memory_states")).
		WithArgs("u", "c").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "u", "c"))
	assert.True(t, errors.Is(repo.Delete(context.Background(), "u", "c"), review.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryStateRepository_CountDueByUser(t *testing.T) {
	db, mock := setupTestDB(t, DriverSQLite)
	repo := NewMemoryStateRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY user_id")).
		WithArgs(t0).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "due"}).AddRow("a", 3).AddRow("b", 1))

	counts, err := repo.CountDueByUser(context.Background(), t0)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 3, "b": 1}, counts)
}

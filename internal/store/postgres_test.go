package store

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"entgo.io/ent/dialect"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mockprep/internal/interview"
)

// The postgres dialect is exercised against sqlmock; sqlite covers the
// same repositories end to end in store_test.go.

func newPostgresMock(t *testing.T) (*SessionRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &SessionRepo{db: db, dialect: dialect.Postgres}, mock
}

func pgSession(version int64) *interview.Session {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := interview.NewSession("s1", "u1", interview.RoleBlock{
		RoleName:       "Backend Engineer",
		Skills:         []string{"go"},
		Difficulty:     interview.DifficultyMedium,
		Rubric:         interview.Rubric{Correctness: 4, Clarity: 2, Depth: 2, Relevance: 2},
		Categories:     []interview.Category{interview.CategoryTechnical},
		TotalQuestions: 3,
	}, now)
	s.Version = version
	return s
}

var (
	pgUpdate = regexp.QuoteMeta(`UPDATE "sessions" SET`) + `.*` + regexp.QuoteMeta(`"id" = $5`) + `.*` + regexp.QuoteMeta(`"version" = $6`)
	pgSelect = regexp.QuoteMeta(`SELECT "data", "version" FROM "sessions" WHERE "id" = $1`)
)

func TestPostgresUpdateSession(t *testing.T) {
	repo, mock := newPostgresMock(t)
	s := pgSession(3)

	mock.ExpectExec(pgUpdate).
		WithArgs(string(interview.StatusInProgress), sqlmock.AnyArg(), int64(4), sqlmock.AnyArg(), "s1", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateSession(context.Background(), s))
	assert.Equal(t, int64(4), s.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateSession_Conflict(t *testing.T) {
	repo, mock := newPostgresMock(t)
	s := pgSession(3)

	stored, err := json.Marshal(pgSession(4))
	require.NoError(t, err)

	mock.ExpectExec(pgUpdate).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(pgSelect).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"data", "version"}).AddRow(string(stored), int64(4)))

	err = repo.UpdateSession(context.Background(), s)
	require.Error(t, err)
	assert.Equal(t, interview.KindConcurrency, interview.KindOf(err))
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.Equal(t, int64(3), s.Version, "version is untouched on conflict")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateSession_Missing(t *testing.T) {
	repo, mock := newPostgresMock(t)

	mock.ExpectExec(pgUpdate).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(pgSelect).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"data", "version"}))

	err := repo.UpdateSession(context.Background(), pgSession(1))
	assert.Equal(t, interview.KindNotFound, interview.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

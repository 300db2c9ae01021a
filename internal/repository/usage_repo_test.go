package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_usage")).
		WithArgs("u1", "audio_analysis", int64(5_000_000)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewUsageRepo(db)
	require.NoError(t, repo.Append(context.Background(), "u1", "audio_analysis", 5_000_000))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountSince(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cutoff := time.Now().Add(-15 * 24 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("u1", cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	repo := NewUsageRepo(db)
	count, err := repo.CountSince(context.Background(), "u1", cutoff)
	require.NoError(t, err)
	assert.Equal(t, 7, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

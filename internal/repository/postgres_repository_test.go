package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basel-ax/imgworkshop/internal/domain"
)

func newMockRepo(t *testing.T) (*PostgresLastImageRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresLastImageRepository(db), mock
}

func TestPostgresRepository_SaveUpserts(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO last_image")).
		WithArgs(postgresSlot, []byte("png"), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ref, err := repo.Save(context.Background(), []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, repo.Ref(), ref)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_LoadMissing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT data FROM last_image")).
		WithArgs(postgresSlot).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Load(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrNoLastImage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_LoadAndUpdatedAt(t *testing.T) {
	repo, mock := newMockRepo(t)
	stamp := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT data FROM last_image")).
		WithArgs(postgresSlot).
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow([]byte("png")))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT updated_at FROM last_image")).
		WithArgs(postgresSlot).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(stamp))

	data, err := repo.Load(context.Background(), repo.Ref())
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)

	got, err := repo.UpdatedAt(context.Background())
	require.NoError(t, err)
	assert.True(t, stamp.Equal(got))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Migrate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS last_image")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

package sessions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/webportal/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostgresStoreWithMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresStore(db), mock
}

func TestPostgresStore_Save(t *testing.T) {
	store, mock := newPostgresStoreWithMock(t)
	s := testSession("s1", time.Now(), time.Hour)

	mock.ExpectExec(`(?s)INSERT\s+INTO\s+sessions\b.*ON CONFLICT \(id\) DO UPDATE`).
		WithArgs("s1", "acc-s1", sqlmock.AnyArg(), s.CreatedAt, s.ExpiresAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Save(context.Background(), s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get(t *testing.T) {
	store, mock := newPostgresStoreWithMock(t)
	now := time.Now()
	store.now = func() time.Time { return now }

	data, err := json.Marshal(testSession("s1", now, time.Hour))
	require.NoError(t, err)

	mock.ExpectQuery(`(?s)SELECT\s+data\s+FROM\s+sessions\s+WHERE\s+id\s*=\s*\$1\s+AND\s+expires_at\s*>\s*\$2`).
		WithArgs("s1", now).
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow(data))

	got, err := store.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "User s1", got.FullName)
}

func TestPostgresStore_GetNotFound(t *testing.T) {
	store, mock := newPostgresStoreWithMock(t)

	mock.ExpectQuery(`FROM\s+sessions`).WillReturnError(sql.ErrNoRows)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPostgresStore_DeleteError(t *testing.T) {
	store, mock := newPostgresStoreWithMock(t)

	mock.ExpectExec(`(?s)DELETE\s+FROM\s+sessions\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs("s1").
		WillReturnError(errors.New("db err"))

	err := store.Delete(context.Background(), "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: db err")
}

func TestPostgresStore_DeleteExpired(t *testing.T) {
	store, mock := newPostgresStoreWithMock(t)

	mock.ExpectExec(`DELETE FROM sessions WHERE expires_at <= \$1`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := store.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

package resolver

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/webportal/internal/logging"
	"github.com/dmitrijs2005/webportal/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var snapshotColumns = []string{"now", "server", "user", "db"}

func candidate(name string) models.ConnectionCandidate {
	return models.ConnectionCandidate{
		Name:     name,
		Driver:   models.DriverSQLServer,
		Host:     "localhost",
		Port:     1433,
		Database: "master",
		User:     "sa",
		Password: "pw",
		Auth:     models.AuthSQL,
	}
}

// fakeOpener hands out a prepared result per candidate DSN and records the
// order in which candidates were opened.
type fakeOpener struct {
	mu     sync.Mutex
	byHost map[string]func() (*sql.DB, error)
	opened []string
}

func (f *fakeOpener) open(driver, dsn string) (*sql.DB, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for key, fn := range f.byHost {
		if strings.Contains(dsn, "@"+key+":") {
			f.opened = append(f.opened, key)
			return fn()
		}
	}
	return nil, errors.New("unexpected dsn " + dsn)
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	return db, mock
}

type recorder struct {
	calls []string
}

func (r *recorder) RecordResolverAttempt(method string, success bool, _ time.Duration) {
	if success {
		r.calls = append(r.calls, method+":ok")
		return
	}
	r.calls = append(r.calls, method+":fail")
}

func TestResolve_StopsAtFirstSuccess(t *testing.T) {
	query, err := introspectionQuery(models.DriverSQLServer)
	require.NoError(t, err)

	okDB, okMock := newMock(t)
	okMock.ExpectQuery(query).
		WillReturnRows(sqlmock.NewRows(snapshotColumns).AddRow("2026-01-01T10:00:00", "SRV", "dbo", "master"))
	okMock.ExpectClose()

	opener := &fakeOpener{byHost: map[string]func() (*sql.DB, error){
		"a": func() (*sql.DB, error) { return nil, errors.New("login failed for user 'sa'") },
		"b": func() (*sql.DB, error) { return okDB, nil },
		"c": func() (*sql.DB, error) { return nil, errors.New("must not be called") },
	}}

	a, b, c := candidate("A"), candidate("B"), candidate("C")
	a.Host, b.Host, c.Host = "a", "b", "c"

	rec := &recorder{}
	r := New([]models.ConnectionCandidate{a, b, c}, logging.Nop(), WithOpenFunc(opener.open), WithRecorder(rec))

	report := r.Resolve(context.Background())

	require.True(t, report.Success)
	assert.Equal(t, "B", report.Method)
	require.NotNil(t, report.Data)
	assert.Equal(t, models.ServerSnapshot{
		CurrentTime:     "2026-01-01T10:00:00",
		ServerName:      "SRV",
		CurrentUser:     "dbo",
		CurrentDatabase: "master",
	}, *report.Data)

	require.Len(t, report.Attempts, 2)
	assert.Equal(t, "A", report.Attempts[0].Method)
	assert.False(t, report.Attempts[0].Success)
	assert.Contains(t, report.Attempts[0].Error, "login failed")
	assert.True(t, report.Attempts[1].Success)
	assert.Equal(t, report.Data, report.Attempts[1].Data)

	assert.Equal(t, []string{"a", "b"}, opener.opened)
	assert.Equal(t, []string{"A:fail", "B:ok"}, rec.calls)
	assert.NoError(t, okMock.ExpectationsWereMet())
}

func TestResolve_AllFail(t *testing.T) {
	query, _ := introspectionQuery(models.DriverSQLServer)

	queryFailDB, queryFailMock := newMock(t)
	queryFailMock.ExpectQuery(query).WillReturnError(errors.New("cannot open database"))
	queryFailMock.ExpectClose()

	opener := &fakeOpener{byHost: map[string]func() (*sql.DB, error){
		"a": func() (*sql.DB, error) { return nil, errors.New("network unreachable") },
		"b": func() (*sql.DB, error) { return queryFailDB, nil },
		"c": func() (*sql.DB, error) { return nil, errors.New("instance not found") },
	}}

	a, b, c := candidate("A"), candidate("B"), candidate("C")
	a.Host, b.Host, c.Host = "a", "b", "c"

	r := New([]models.ConnectionCandidate{a, b, c}, logging.Nop(), WithOpenFunc(opener.open))
	report := r.Resolve(context.Background())

	assert.False(t, report.Success)
	assert.Empty(t, report.Method)
	assert.Nil(t, report.Data)
	require.Len(t, report.Attempts, 3)

	wantErrs := []string{"network unreachable", "cannot open database", "instance not found"}
	for i, at := range report.Attempts {
		assert.False(t, at.Success)
		assert.Nil(t, at.Data)
		assert.Contains(t, at.Error, wantErrs[i])
	}
	assert.Equal(t, []string{"a", "b", "c"}, opener.opened)
	assert.NoError(t, queryFailMock.ExpectationsWereMet())
}

func TestResolve_CloseErrorIsSwallowed(t *testing.T) {
	query, _ := introspectionQuery(models.DriverSQLServer)

	db, mock := newMock(t)
	mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows(snapshotColumns).AddRow("t", "s", "u", "d"))
	mock.ExpectClose().WillReturnError(errors.New("close failed"))

	c := candidate("only")
	r := New([]models.ConnectionCandidate{c}, logging.Nop(),
		WithOpenFunc(func(string, string) (*sql.DB, error) { return db, nil }))

	report := r.Resolve(context.Background())
	assert.True(t, report.Success)
	assert.Len(t, report.Attempts, 1)
}

func TestResolve_AttemptTimeout(t *testing.T) {
	query, _ := introspectionQuery(models.DriverSQLServer)

	db, mock := newMock(t)
	mock.ExpectQuery(query).
		WillDelayFor(time.Second).
		WillReturnRows(sqlmock.NewRows(snapshotColumns).AddRow("t", "s", "u", "d"))

	c := candidate("slow")
	c.ConnectTimeout = 20 * time.Millisecond

	r := New([]models.ConnectionCandidate{c}, logging.Nop(),
		WithOpenFunc(func(string, string) (*sql.DB, error) { return db, nil }))

	start := time.Now()
	report := r.Resolve(context.Background())

	assert.False(t, report.Success)
	require.Len(t, report.Attempts, 1)
	assert.NotEmpty(t, report.Attempts[0].Error)
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}

func TestResolve_NoCandidates(t *testing.T) {
	report := New(nil, logging.Nop()).Resolve(context.Background())

	assert.False(t, report.Success)
	assert.NotNil(t, report.Attempts)
	assert.Empty(t, report.Attempts)
}

func TestResolve_UnsupportedDriverIsRecorded(t *testing.T) {
	c := candidate("odd")
	c.Driver = "oracle"

	report := New([]models.ConnectionCandidate{c}, logging.Nop()).Resolve(context.Background())

	require.Len(t, report.Attempts, 1)
	assert.Contains(t, report.Attempts[0].Error, "unsupported driver")
}

func TestResolve_RealSQLite(t *testing.T) {
	broken := models.ConnectionCandidate{
		Name:   "missing file",
		Driver: models.DriverSQLite,
		DSN:    "file:/nonexistent-dir/portal.db?mode=ro",
	}
	mem := models.ConnectionCandidate{
		Name:     "in-memory",
		Driver:   models.DriverSQLite,
		Database: ":memory:",
	}

	report := New([]models.ConnectionCandidate{broken, mem}, logging.Nop()).Resolve(context.Background())

	require.True(t, report.Success, "attempts: %+v", report.Attempts)
	assert.Equal(t, "in-memory", report.Method)
	assert.True(t, strings.HasPrefix(report.Data.ServerName, "sqlite "))
	assert.Equal(t, "main", report.Data.CurrentDatabase)
	require.Len(t, report.Attempts, 2)
	assert.False(t, report.Attempts[0].Success)
}

func TestCandidates_ReturnsCopy(t *testing.T) {
	r := New([]models.ConnectionCandidate{candidate("A")}, logging.Nop())

	got := r.Candidates()
	got[0].Name = "changed"

	assert.Equal(t, "A", r.Candidates()[0].Name)
}

package resolver

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/webportal/internal/server/models"
	"github.com/microsoft/go-mssqldb/msdsn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name       string
		c          models.ConnectionCandidate
		wantDriver string
		wantDSN    string
	}{
		{
			name: "sql server sql auth",
			c: models.ConnectionCandidate{
				Host: "localhost", Port: 1433, Database: "master", User: "sa", Password: "pw",
				Auth: models.AuthSQL, TrustServerCertificate: true, ConnectTimeout: 10 * time.Second,
			},
			wantDriver: "sqlserver",
			wantDSN:    "sqlserver://sa:pw@localhost:1433?TrustServerCertificate=true&connection+timeout=10&database=master&encrypt=disable",
		},
		{
			name: "sql server windows auth",
			c: models.ConnectionCandidate{
				Driver: models.DriverSQLServer, Host: "localhost", Port: 1433, Database: "master",
				User: "ignored", Auth: models.AuthWindows, Encrypt: true,
			},
			wantDriver: "sqlserver",
			wantDSN:    "sqlserver://localhost:1433?database=master&encrypt=true",
		},
		{
			name: "sql server named instance",
			c: models.ConnectionCandidate{
				Host: "localhost", Port: 1433, Instance: "SQLEXPRESS2019", Database: "master", Auth: models.AuthWindows,
			},
			wantDriver: "sqlserver",
			wantDSN:    "sqlserver://localhost/SQLEXPRESS2019?database=master&encrypt=disable",
		},
		{
			name: "postgres",
			c: models.ConnectionCandidate{
				Driver: models.DriverPostgres, Host: "db", Port: 5432, Database: "portal",
				User: "app", Password: "p@ss", ConnectTimeout: 5 * time.Second,
			},
			wantDriver: "pgx",
			wantDSN:    "postgres://app:p%40ss@db:5432/portal?connect_timeout=5&sslmode=disable",
		},
		{
			name:       "sqlite default",
			c:          models.ConnectionCandidate{Driver: models.DriverSQLite},
			wantDriver: "sqlite",
			wantDSN:    ":memory:",
		},
		{
			name:       "explicit dsn wins",
			c:          models.ConnectionCandidate{Driver: models.DriverPostgres, Host: "ignored", DSN: "postgres://x/y"},
			wantDriver: "pgx",
			wantDSN:    "postgres://x/y",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver, dsn, err := BuildDSN(tt.c)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDriver, driver)
			assert.Equal(t, tt.wantDSN, dsn)
		})
	}
}

func TestBuildDSN_UnsupportedDriver(t *testing.T) {
	_, _, err := BuildDSN(models.ConnectionCandidate{Driver: "oracle"})
	assert.Error(t, err)
}

func TestBuildDSN_SQLServerRoundTripsThroughDriver(t *testing.T) {
	tests := []struct {
		name     string
		c        models.ConnectionCandidate
		wantHost string
		wantInst string
		wantPort uint64
	}{
		{
			name: "separators in credentials",
			c: models.ConnectionCandidate{
				Host: "db1", Port: 1433, Database: "master", User: "app;user", Password: "ab;cd}ef=g{h@i:j",
				Auth: models.AuthSQL, TrustServerCertificate: true, ConnectTimeout: 10 * time.Second,
			},
			wantHost: "db1",
			wantPort: 1433,
		},
		{
			name: "named instance",
			c: models.ConnectionCandidate{
				Host: "localhost", Port: 1433, Instance: "SQLEXPRESS2019", Database: "master",
				User: "sa", Password: "Sa123456!;x", Auth: models.AuthSQL,
			},
			wantHost: "localhost",
			wantInst: "SQLEXPRESS2019",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, dsn, err := BuildDSN(tt.c)
			require.NoError(t, err)

			cfg, err := msdsn.Parse(dsn)
			require.NoError(t, err)
			assert.Equal(t, tt.c.User, cfg.User)
			assert.Equal(t, tt.c.Password, cfg.Password)
			assert.Equal(t, tt.wantHost, cfg.Host)
			assert.Equal(t, tt.wantInst, cfg.Instance)
			assert.Equal(t, tt.c.Database, cfg.Database)
			if tt.wantPort > 0 {
				assert.Equal(t, tt.wantPort, cfg.Port)
			}
		})
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/webportal/internal/server/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// keep a developer's .env out of the tests
	dotenvFiles = nil
}

func defaults() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	assert.Equal(t, ":3000", c.EndpointAddrHTTP)
	assert.Empty(t, c.DatabaseDSN)
	assert.Equal(t, "secretKey", c.SecretKey)
	assert.Equal(t, 24*time.Hour, c.SessionTTL)
	assert.Equal(t, SessionBackendMemory, c.SessionBackend)
	assert.Equal(t, 30*time.Second, c.RequestTimeout)

	require.Len(t, c.Candidates, 3)
	assert.Equal(t, "localhost:1433 (SQL Auth - sa)", c.Candidates[0].Name)
	assert.Equal(t, models.AuthSQL, c.Candidates[0].Auth)
	assert.Equal(t, models.AuthWindows, c.Candidates[1].Auth)
	assert.Equal(t, "SQLEXPRESS2019", c.Candidates[2].Instance)
	for _, cand := range c.Candidates {
		assert.Equal(t, 10*time.Second, cand.ConnectTimeout)
		assert.Equal(t, "master", cand.Database)
	}
}

func TestLoad_NoSourcesGivesDefaults(t *testing.T) {
	c := load(nil)
	assert.Empty(t, cmp.Diff(defaults(), c))
}

func TestParseFile_JSON(t *testing.T) {
	path := writeFile(t, "conf.json", `{
		"endpoint_addr_http": ":8080",
		"database_dsn": "postgres://u:p@db/portal",
		"session_ttl": "2h",
		"request_timeout": 5000000000,
		"secure_cookies": true,
		"candidates": [
			{"name": "pg", "driver": "pgx", "host": "db", "port": 5432, "database": "portal", "connect_timeout": "3s"}
		]
	}`)

	c := defaults()
	parseFile(c, []string{"-c", path})

	assert.Equal(t, ":8080", c.EndpointAddrHTTP)
	assert.Equal(t, "postgres://u:p@db/portal", c.DatabaseDSN)
	assert.Equal(t, 2*time.Hour, c.SessionTTL)
	assert.Equal(t, 5*time.Second, c.RequestTimeout)
	assert.True(t, c.SecureCookies)
	assert.Equal(t, "secretKey", c.SecretKey)

	want := []models.ConnectionCandidate{{
		Name: "pg", Driver: "pgx", Host: "db", Port: 5432, Database: "portal", ConnectTimeout: 3 * time.Second,
	}}
	assert.Empty(t, cmp.Diff(want, c.Candidates))
}

func TestParseFile_YAML(t *testing.T) {
	path := writeFile(t, "conf.yaml", `
endpoint_addr_http: ":9000"
session_backend: redis
redis_addr: "cache:6379"
remember_session_ttl: 72h
candidates:
  - name: local sqlite
    driver: sqlite
    database: ":memory:"
    connect_timeout: 1s
  - name: express
    driver: sqlserver
    host: localhost
    instance: SQLEXPRESS
    auth: windows
`)

	c := defaults()
	parseFile(c, []string{"--config=" + path})

	assert.Equal(t, ":9000", c.EndpointAddrHTTP)
	assert.Equal(t, SessionBackendRedis, c.SessionBackend)
	assert.Equal(t, "cache:6379", c.RedisAddr)
	assert.Equal(t, 72*time.Hour, c.RememberSessionTTL)

	require.Len(t, c.Candidates, 2)
	assert.Equal(t, "local sqlite", c.Candidates[0].Name)
	assert.Equal(t, time.Second, c.Candidates[0].ConnectTimeout)
	assert.Equal(t, "SQLEXPRESS", c.Candidates[1].Instance)
	assert.Equal(t, models.AuthWindows, c.Candidates[1].Auth)
}

func TestParseFile_Broken(t *testing.T) {
	path := writeFile(t, "conf.json", `{"session_ttl": "soon"}`)

	assert.Panics(t, func() { parseFile(defaults(), []string{"-c", path}) })
	assert.Panics(t, func() { parseFile(defaults(), []string{"-c", filepath.Join(t.TempDir(), "missing.json")}) })
}

func TestParseEnv(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("DATABASE_DSN", "postgres://env")
	t.Setenv("SECRET_KEY", "from-env")
	t.Setenv("SESSION_BACKEND", "postgres")
	t.Setenv("SESSION_TTL", "15m")
	t.Setenv("LOG_FORMAT", "zap")

	c := defaults()
	parseEnv(c)

	assert.Equal(t, ":4000", c.EndpointAddrHTTP)
	assert.Equal(t, "postgres://env", c.DatabaseDSN)
	assert.Equal(t, "from-env", c.SecretKey)
	assert.Equal(t, SessionBackendPostgres, c.SessionBackend)
	assert.Equal(t, 15*time.Minute, c.SessionTTL)
	assert.Equal(t, "zap", c.LogFormat)
	assert.Equal(t, "localhost:6379", c.RedisAddr)
	assert.Equal(t, 30*time.Second, c.RequestTimeout)
}

func TestParseEnv_HTTPAddrWinsOverPort(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("HTTP_ADDR", "127.0.0.1:5000")

	c := defaults()
	parseEnv(c)

	assert.Equal(t, "127.0.0.1:5000", c.EndpointAddrHTTP)
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		expected    func() *Config
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"-a", "127.0.0.1:9090", "-d", "db", "-s", "secret", "-t", "5", "-b", "redis", "-r", "cache:6379", "-l", "text"},
			expected: func() *Config {
				c := defaults()
				c.EndpointAddrHTTP = "127.0.0.1:9090"
				c.DatabaseDSN = "db"
				c.SecretKey = "secret"
				c.SessionTTL = 5 * time.Minute
				c.SessionBackend = "redis"
				c.RedisAddr = "cache:6379"
				c.LogFormat = "text"
				return c
			},
		},
		{
			name:     "foreign flags are ignored",
			args:     []string{"-x", "1", "-c", "conf.json", "-a", ":1"},
			expected: func() *Config { c := defaults(); c.EndpointAddrHTTP = ":1"; return c },
		},
		{
			name:        "bad duration",
			args:        []string{"-t", "soon"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := defaults()
			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(c, tt.args) })
				return
			}
			require.NotPanics(t, func() { parseFlags(c, tt.args) })
			assert.Empty(t, cmp.Diff(tt.expected(), c))
		})
	}
}

func TestLoad_Precedence(t *testing.T) {
	path := writeFile(t, "conf.json", `{"endpoint_addr_http": ":1111", "secret_key": "file", "log_format": "text"}`)
	t.Setenv("SECRET_KEY", "env")
	t.Setenv("PORT", "2222")

	c := load([]string{"-c", path, "-a", ":3333"})

	assert.Equal(t, ":3333", c.EndpointAddrHTTP)
	assert.Equal(t, "env", c.SecretKey)
	assert.Equal(t, "text", c.LogFormat)
}

// Package config builds the server configuration from defaults, an optional
// JSON or YAML file, the environment (including a .env file) and finally
// command-line flags. Later sources win.
package config

import (
	"os"
	"time"

	"github.com/dmitrijs2005/webportal/internal/server/models"
)

// Session backends.
const (
	SessionBackendMemory   = "memory"
	SessionBackendRedis    = "redis"
	SessionBackendPostgres = "postgres"
)

// Config holds runtime settings for the portal server.
//
// An empty DatabaseDSN selects the in-memory account store. Candidates is the
// ordered list probed by GET /test-db.
type Config struct {
	EndpointAddrHTTP       string
	DatabaseDSN            string
	SecretKey              string
	SessionTTL             time.Duration
	RememberSessionTTL     time.Duration
	SessionBackend         string
	SessionCleanupInterval time.Duration
	RedisAddr              string
	RedisPassword          string
	RedisDB                int
	RedisPrefix            string
	RequestTimeout         time.Duration
	LogFormat              string
	SecureCookies          bool
	Candidates             []models.ConnectionCandidate
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secret key and candidate password must be overridden outside
// development.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":3000"
	c.DatabaseDSN = ""
	c.SecretKey = "secretKey"
	c.SessionTTL = 24 * time.Hour
	c.RememberSessionTTL = 30 * 24 * time.Hour
	c.SessionBackend = SessionBackendMemory
	c.SessionCleanupInterval = 10 * time.Minute
	c.RedisAddr = "localhost:6379"
	c.RedisPassword = ""
	c.RedisDB = 0
	c.RedisPrefix = "webportal"
	c.RequestTimeout = 30 * time.Second
	c.LogFormat = "json"
	c.SecureCookies = false
	c.Candidates = DefaultCandidates()
}

// DefaultCandidates are the local SQL Server setups tried when no candidates
// are configured: SQL login, integrated login, then the named Express instance.
func DefaultCandidates() []models.ConnectionCandidate {
	base := models.ConnectionCandidate{
		Driver:                 models.DriverSQLServer,
		Host:                   "localhost",
		Port:                   1433,
		Database:               "master",
		TrustServerCertificate: true,
		ConnectTimeout:         10 * time.Second,
	}

	sqlAuth := base
	sqlAuth.Name = "localhost:1433 (SQL Auth - sa)"
	sqlAuth.Auth = models.AuthSQL
	sqlAuth.User = "sa"
	sqlAuth.Password = "Sa123456!"

	windowsAuth := base
	windowsAuth.Name = "localhost:1433 (Windows Auth)"
	windowsAuth.Auth = models.AuthWindows

	express := base
	express.Name = `localhost\SQLEXPRESS2019 (Windows Auth)`
	express.Auth = models.AuthWindows
	express.Port = 0
	express.Instance = "SQLEXPRESS2019"

	return []models.ConnectionCandidate{sqlAuth, windowsAuth, express}
}

// LoadConfig builds a Config from os.Args and the process environment.
func LoadConfig() *Config {
	return load(os.Args[1:])
}

func load(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg, args)
	parseEnv(cfg)
	parseFlags(cfg, args)
	return cfg
}

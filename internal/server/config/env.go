package config

import (
	"errors"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// envConfig lists the variables read from the environment. Fields missing
// from the environment keep the value they were seeded with.
type envConfig struct {
	Port               string        `env:"PORT"`
	Addr               string        `env:"HTTP_ADDR"`
	DatabaseDSN        string        `env:"DATABASE_DSN"`
	SecretKey          string        `env:"SECRET_KEY"`
	SessionTTL         time.Duration `env:"SESSION_TTL"`
	RememberSessionTTL time.Duration `env:"REMEMBER_SESSION_TTL"`
	SessionBackend     string        `env:"SESSION_BACKEND"`
	RedisAddr          string        `env:"REDIS_ADDR"`
	RedisPassword      string        `env:"REDIS_PASSWORD"`
	RedisDB            int           `env:"REDIS_DB"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT"`
	LogFormat          string        `env:"LOG_FORMAT"`
	SecureCookies      bool          `env:"SECURE_COOKIES"`
}

// dotenvFiles are loaded before the environment is read. Variables already
// set in the process are never overridden.
var dotenvFiles = []string{".env"}

// parseEnv overlays environment variables. PORT is shorthand for ":<port>";
// HTTP_ADDR wins when both are set.
func parseEnv(config *Config) {
	for _, f := range dotenvFiles {
		_ = godotenv.Load(f)
	}

	e := envConfig{
		DatabaseDSN:        config.DatabaseDSN,
		SecretKey:          config.SecretKey,
		SessionTTL:         config.SessionTTL,
		RememberSessionTTL: config.RememberSessionTTL,
		SessionBackend:     config.SessionBackend,
		RedisAddr:          config.RedisAddr,
		RedisPassword:      config.RedisPassword,
		RedisDB:            config.RedisDB,
		RequestTimeout:     config.RequestTimeout,
		LogFormat:          config.LogFormat,
		SecureCookies:      config.SecureCookies,
	}

	if err := envdecode.Decode(&e); err != nil {
		if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
			return
		}
		panic(err)
	}

	if e.Port != "" {
		config.EndpointAddrHTTP = ":" + e.Port
	}
	if e.Addr != "" {
		config.EndpointAddrHTTP = e.Addr
	}
	config.DatabaseDSN = e.DatabaseDSN
	config.SecretKey = e.SecretKey
	config.SessionTTL = e.SessionTTL
	config.RememberSessionTTL = e.RememberSessionTTL
	config.SessionBackend = e.SessionBackend
	config.RedisAddr = e.RedisAddr
	config.RedisPassword = e.RedisPassword
	config.RedisDB = e.RedisDB
	config.RequestTimeout = e.RequestTimeout
	config.LogFormat = e.LogFormat
	config.SecureCookies = e.SecureCookies
}

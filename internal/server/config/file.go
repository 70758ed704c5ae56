package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/webportal/internal/flagx"
	"github.com/dmitrijs2005/webportal/internal/server/models"
	"github.com/dmitrijs2005/webportal/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk form of Config. Durations accept "30s" style
// strings or integer nanoseconds. Zero values leave the current setting alone.
type FileConfig struct {
	EndpointAddrHTTP       string            `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	DatabaseDSN            string            `json:"database_dsn" yaml:"database_dsn"`
	SecretKey              string            `json:"secret_key" yaml:"secret_key"`
	SessionTTL             timex.Duration    `json:"session_ttl" yaml:"session_ttl"`
	RememberSessionTTL     timex.Duration    `json:"remember_session_ttl" yaml:"remember_session_ttl"`
	SessionBackend         string            `json:"session_backend" yaml:"session_backend"`
	SessionCleanupInterval timex.Duration    `json:"session_cleanup_interval" yaml:"session_cleanup_interval"`
	RedisAddr              string            `json:"redis_addr" yaml:"redis_addr"`
	RedisPassword          string            `json:"redis_password" yaml:"redis_password"`
	RedisDB                int               `json:"redis_db" yaml:"redis_db"`
	RedisPrefix            string            `json:"redis_prefix" yaml:"redis_prefix"`
	RequestTimeout         timex.Duration    `json:"request_timeout" yaml:"request_timeout"`
	LogFormat              string            `json:"log_format" yaml:"log_format"`
	SecureCookies          *bool             `json:"secure_cookies" yaml:"secure_cookies"`
	Candidates             []CandidateConfig `json:"candidates" yaml:"candidates"`
}

// CandidateConfig is a connection candidate as written in a config file.
type CandidateConfig struct {
	models.ConnectionCandidate `yaml:",inline"`
	ConnectTimeout             timex.Duration `json:"connect_timeout" yaml:"connect_timeout"`
}

// parseFile overlays the file named by -c/-config, if any. JSON is assumed
// unless the extension is .yaml or .yml. A broken file is fatal.
func parseFile(config *Config, args []string) {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc, err := decodeFile(path, data)
	if err != nil {
		panic(err)
	}

	fc.apply(config)
}

func decodeFile(path string, data []byte) (*FileConfig, error) {
	fc := &FileConfig{}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, fc); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, fc); err != nil {
			return nil, err
		}
	}

	return fc, nil
}

func (fc *FileConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, fc.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, fc.DatabaseDSN)
	setString(&config.SecretKey, fc.SecretKey)
	setString(&config.SessionBackend, fc.SessionBackend)
	setString(&config.RedisAddr, fc.RedisAddr)
	setString(&config.RedisPassword, fc.RedisPassword)
	setString(&config.RedisPrefix, fc.RedisPrefix)
	setString(&config.LogFormat, fc.LogFormat)

	if fc.SessionTTL.Duration > 0 {
		config.SessionTTL = fc.SessionTTL.Duration
	}
	if fc.RememberSessionTTL.Duration > 0 {
		config.RememberSessionTTL = fc.RememberSessionTTL.Duration
	}
	if fc.SessionCleanupInterval.Duration > 0 {
		config.SessionCleanupInterval = fc.SessionCleanupInterval.Duration
	}
	if fc.RequestTimeout.Duration > 0 {
		config.RequestTimeout = fc.RequestTimeout.Duration
	}
	if fc.RedisDB != 0 {
		config.RedisDB = fc.RedisDB
	}
	if fc.SecureCookies != nil {
		config.SecureCookies = *fc.SecureCookies
	}

	if len(fc.Candidates) > 0 {
		config.Candidates = make([]models.ConnectionCandidate, 0, len(fc.Candidates))
		for _, cc := range fc.Candidates {
			c := cc.ConnectionCandidate
			c.ConnectTimeout = cc.ConnectTimeout.Duration
			config.Candidates = append(config.Candidates, c)
		}
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

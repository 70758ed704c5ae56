package models

import "time"

// Supported candidate drivers.
const (
	DriverSQLServer = "sqlserver"
	DriverPostgres  = "pgx"
	DriverSQLite    = "sqlite"
)

// Supported candidate auth modes.
const (
	AuthSQL     = "sql"
	AuthWindows = "windows"
)

// ConnectionCandidate is one named connection configuration tried by the
// resolver. When DSN is set it is used verbatim and the remaining connection
// fields are ignored.
type ConnectionCandidate struct {
	Name                   string        `json:"name" yaml:"name"`
	Driver                 string        `json:"driver" yaml:"driver"`
	Host                   string        `json:"host" yaml:"host"`
	Port                   int           `json:"port" yaml:"port"`
	Instance               string        `json:"instance" yaml:"instance"`
	Database               string        `json:"database" yaml:"database"`
	User                   string        `json:"user" yaml:"user"`
	Password               string        `json:"password" yaml:"password"`
	Auth                   string        `json:"auth" yaml:"auth"`
	Encrypt                bool          `json:"encrypt" yaml:"encrypt"`
	TrustServerCertificate bool          `json:"trust_server_certificate" yaml:"trust_server_certificate"`
	ConnectTimeout         time.Duration `json:"-" yaml:"-"`
	DSN                    string        `json:"dsn" yaml:"dsn"`
}

// ServerSnapshot is the metadata captured by the introspection query of a
// successful candidate.
type ServerSnapshot struct {
	CurrentTime     string `json:"currentTime"`
	ServerName      string `json:"serverName"`
	CurrentUser     string `json:"currentUser"`
	CurrentDatabase string `json:"currentDatabase"`
}

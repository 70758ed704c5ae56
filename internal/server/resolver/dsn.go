package resolver

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/webportal/internal/server/models"
)

// BuildDSN returns the database/sql driver name and connection string for c.
// An explicit c.DSN is used verbatim.
func BuildDSN(c models.ConnectionCandidate) (driver string, dsn string, err error) {
	driver = c.Driver
	if driver == "" {
		driver = models.DriverSQLServer
	}

	if c.DSN != "" {
		return driver, c.DSN, nil
	}

	switch driver {
	case models.DriverSQLServer:
		return driver, sqlServerDSN(c), nil
	case models.DriverPostgres:
		return driver, postgresDSN(c), nil
	case models.DriverSQLite:
		if c.Database == "" {
			return driver, ":memory:", nil
		}
		return driver, c.Database, nil
	default:
		return "", "", fmt.Errorf("unsupported driver %q", c.Driver)
	}
}

// sqlServerDSN builds the sqlserver:// URL form so that credentials are
// escaped. A named instance goes in the path and is resolved by the SQL
// Browser, so the port is left out in that case.
func sqlServerDSN(c models.ConnectionCandidate) string {
	host := c.Host
	if host == "" {
		host = "localhost"
	}

	u := url.URL{Scheme: "sqlserver", Host: host}
	if c.Instance != "" {
		u.Path = "/" + c.Instance
	} else if c.Port > 0 {
		u.Host = net.JoinHostPort(host, strconv.Itoa(c.Port))
	}

	if c.Auth != models.AuthWindows {
		u.User = url.UserPassword(c.User, c.Password)
	}

	q := url.Values{}
	if c.Database != "" {
		q.Set("database", c.Database)
	}
	if c.Encrypt {
		q.Set("encrypt", "true")
	} else {
		q.Set("encrypt", "disable")
	}
	if c.TrustServerCertificate {
		q.Set("TrustServerCertificate", "true")
	}
	if secs := int(c.ConnectTimeout.Seconds()); secs > 0 {
		q.Set("connection timeout", strconv.Itoa(secs))
	}
	u.RawQuery = q.Encode()

	return u.String()
}

func postgresDSN(c models.ConnectionCandidate) string {
	host := c.Host
	if host == "" {
		host = "localhost"
	}
	if c.Port > 0 {
		host = net.JoinHostPort(host, strconv.Itoa(c.Port))
	}

	u := url.URL{Scheme: "postgres", Host: host, Path: "/" + c.Database}
	if c.User != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}

	q := url.Values{}
	if c.Encrypt {
		q.Set("sslmode", "require")
	} else {
		q.Set("sslmode", "disable")
	}
	if secs := int(c.ConnectTimeout.Seconds()); secs > 0 {
		q.Set("connect_timeout", strconv.Itoa(secs))
	}
	u.RawQuery = q.Encode()

	return u.String()
}

func introspectionQuery(driver string) (string, error) {
	switch driver {
	case models.DriverSQLServer:
		return `SELECT CONVERT(varchar(33), GETDATE(), 126), @@SERVERNAME, USER_NAME(), DB_NAME()`, nil
	case models.DriverPostgres:
		return `SELECT now()::text, COALESCE(inet_server_addr()::text, 'localhost'), current_user, current_database()`, nil
	case models.DriverSQLite:
		return `SELECT datetime('now'), 'sqlite ' || sqlite_version(), 'main', 'main'`, nil
	default:
		return "", fmt.Errorf("unsupported driver %q", driver)
	}
}

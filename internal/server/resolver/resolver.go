// Package resolver probes an ordered list of connection candidates and reports
// the first one that answers, together with every attempt made.
package resolver

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/webportal/internal/dbx"
	"github.com/dmitrijs2005/webportal/internal/logging"
	"github.com/dmitrijs2005/webportal/internal/server/models"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"
)

const DefaultConnectTimeout = 10 * time.Second

// OpenFunc matches sql.Open.
type OpenFunc func(driverName, dataSourceName string) (*sql.DB, error)

// Recorder receives one observation per attempt.
type Recorder interface {
	RecordResolverAttempt(method string, success bool, d time.Duration)
}

// Attempt is the outcome of probing one candidate.
type Attempt struct {
	Method  string                 `json:"method"`
	Success bool                   `json:"success"`
	Data    *models.ServerSnapshot `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// Report is the result of one Resolve run. Attempts holds one entry per
// candidate actually tried, in order.
type Report struct {
	Success  bool                   `json:"success"`
	Method   string                 `json:"method,omitempty"`
	Data     *models.ServerSnapshot `json:"data,omitempty"`
	Attempts []Attempt              `json:"attempts"`
}

type Resolver struct {
	candidates []models.ConnectionCandidate
	open       OpenFunc
	logger     logging.Logger
	recorder   Recorder
	timeout    time.Duration
}

type Option func(*Resolver)

func WithOpenFunc(open OpenFunc) Option {
	return func(r *Resolver) { r.open = open }
}

func WithRecorder(rec Recorder) Option {
	return func(r *Resolver) { r.recorder = rec }
}

// WithDefaultTimeout sets the per-attempt timeout used by candidates that
// have none.
func WithDefaultTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.timeout = d }
}

func New(candidates []models.ConnectionCandidate, logger logging.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		candidates: append([]models.ConnectionCandidate(nil), candidates...),
		open:       sql.Open,
		logger:     logger,
		timeout:    DefaultConnectTimeout,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Resolver) Candidates() []models.ConnectionCandidate {
	return append([]models.ConnectionCandidate(nil), r.candidates...)
}

// Resolve tries candidates strictly in order and stops at the first success.
// It never fails: when nothing answers the report has Success false and the
// error of every attempt.
func (r *Resolver) Resolve(ctx context.Context) *Report {
	report := &Report{Attempts: make([]Attempt, 0, len(r.candidates))}

	for _, c := range r.candidates {
		start := time.Now()
		snapshot, err := r.try(ctx, c)
		elapsed := time.Since(start)

		if r.recorder != nil {
			r.recorder.RecordResolverAttempt(c.Name, err == nil, elapsed)
		}

		if err != nil {
			r.logger.Warn(ctx, "connection candidate failed", "method", c.Name, "driver", c.Driver, "elapsed", elapsed, "error", err)
			report.Attempts = append(report.Attempts, Attempt{Method: c.Name, Error: err.Error()})
			continue
		}

		r.logger.Info(ctx, "connection candidate succeeded", "method", c.Name, "driver", c.Driver, "elapsed", elapsed)
		report.Attempts = append(report.Attempts, Attempt{Method: c.Name, Success: true, Data: snapshot})
		report.Success = true
		report.Method = c.Name
		report.Data = snapshot
		break
	}

	return report
}

// try opens a private pool for one candidate, runs the introspection query on
// a single connection and always closes the pool.
func (r *Resolver) try(ctx context.Context, c models.ConnectionCandidate) (*models.ServerSnapshot, error) {
	driver, dsn, err := BuildDSN(c)
	if err != nil {
		return nil, err
	}
	query, err := introspectionQuery(driver)
	if err != nil {
		return nil, err
	}

	timeout := c.ConnectTimeout
	if timeout <= 0 {
		timeout = r.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := r.open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	var snapshot *models.ServerSnapshot
	err = dbx.WithConn(ctx, db, func(ctx context.Context, conn dbx.DBTX) error {
		var now, server, user, database sql.NullString
		if err := conn.QueryRowContext(ctx, query).Scan(&now, &server, &user, &database); err != nil {
			return err
		}
		snapshot = &models.ServerSnapshot{
			CurrentTime:     now.String,
			ServerName:      server.String,
			CurrentUser:     user.String,
			CurrentDatabase: database.String,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return snapshot, nil
}

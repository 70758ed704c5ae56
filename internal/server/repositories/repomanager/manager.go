// Package repomanager owns the account store backend. It vends repositories,
// runs schema migrations and scopes multi-step work to a transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/webportal/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/webportal/internal/server/sessions"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	// Conn returns the underlying pool, or nil for the in-memory backend.
	Conn() *sql.DB
	Accounts() accounts.Repository
	Sessions() sessions.Store
	// WithTx runs fn with an accounts repository bound to one transaction.
	WithTx(ctx context.Context, fn func(ctx context.Context, repo accounts.Repository) error) error
	Close() error
}

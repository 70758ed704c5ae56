package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/webportal/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/webportal/internal/server/sessions"
)

// InMemoryRepositoryManager backs the portal with process memory. Data is
// lost on restart.
type InMemoryRepositoryManager struct {
	accounts *accounts.MemoryRepository
	sessions *sessions.MemoryStore
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		accounts: accounts.NewMemoryRepository(),
		sessions: sessions.NewMemoryStore(),
	}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *InMemoryRepositoryManager) Conn() *sql.DB { return nil }

func (m *InMemoryRepositoryManager) Accounts() accounts.Repository { return m.accounts }

func (m *InMemoryRepositoryManager) Sessions() sessions.Store { return m.sessions }

// WithTx has no rollback in memory; every repository call is atomic on its own.
func (m *InMemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, repo accounts.Repository) error) error {
	return fn(ctx, m.accounts)
}

func (m *InMemoryRepositoryManager) Close() error { return nil }

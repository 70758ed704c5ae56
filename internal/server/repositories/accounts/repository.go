// Package accounts declares the account store contract and its PostgreSQL and
// in-memory implementations.
package accounts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/webportal/internal/server/models"
)

type Repository interface {
	// Create inserts a new account and fills in its ID and CreatedAt.
	// Unique violations are reported as common.ErrDuplicateUsername or
	// common.ErrDuplicateEmail.
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	// FindForAuth returns the account only when it is active.
	FindForAuth(ctx context.Context, username string) (*models.Account, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	SetActive(ctx context.Context, id string, active bool) error
	List(ctx context.Context) ([]*models.Account, error)
}

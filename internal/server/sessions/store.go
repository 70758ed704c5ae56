// Package sessions stores authenticated browser sessions. Three backends are
// provided: process memory, Redis and PostgreSQL.
package sessions

import (
	"context"

	"github.com/dmitrijs2005/webportal/internal/common"
	"github.com/dmitrijs2005/webportal/internal/server/models"
)

// Store is safe for concurrent use. Get returns common.ErrorNotFound for
// missing and expired sessions alike; Delete of an unknown id is not an error.
type Store interface {
	Save(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

// NewID returns a random 128-bit session identifier, hex encoded.
func NewID() (string, error) {
	return common.MakeRandHexString(16)
}

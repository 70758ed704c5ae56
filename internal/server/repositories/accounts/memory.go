package accounts

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/webportal/internal/common"
	"github.com/dmitrijs2005/webportal/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps accounts in process memory. Username and email
// uniqueness are enforced under the same lock as the insert.
type MemoryRepository struct {
	mu         sync.RWMutex
	byID       map[string]*models.Account
	byUsername map[string]string
	byEmail    map[string]string
	now        func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:       make(map[string]*models.Account),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
		now:        time.Now,
	}
}

func (r *MemoryRepository) Create(_ context.Context, account *models.Account) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUsername[account.Username]; ok {
		return nil, common.ErrDuplicateUsername
	}
	if _, ok := r.byEmail[account.Email]; ok {
		return nil, common.ErrDuplicateEmail
	}

	account.ID = uuid.NewString()
	account.CreatedAt = r.now().UTC()

	stored := *account
	r.byID[stored.ID] = &stored
	r.byUsername[stored.Username] = stored.ID
	r.byEmail[stored.Email] = stored.ID

	return account, nil
}

func (r *MemoryRepository) GetByUsername(_ context.Context, username string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(r.byUsername, username)
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(r.byEmail, email)
}

func (r *MemoryRepository) FindForAuth(_ context.Context, username string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, err := r.lookup(r.byUsername, username)
	if err != nil {
		return nil, err
	}
	if !a.IsActive {
		return nil, common.ErrorNotFound
	}
	return a, nil
}

func (r *MemoryRepository) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	t := at
	a.LastLogin = &t
	return nil
}

func (r *MemoryRepository) List(_ context.Context) ([]*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Account, 0, len(r.byID))
	for _, a := range r.byID {
		result = append(result, clone(a))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].Username < result[j].Username
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *MemoryRepository) SetActive(_ context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.IsActive = active
	return nil
}

func (r *MemoryRepository) lookup(index map[string]string, key string) (*models.Account, error) {
	id, ok := index[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(r.byID[id]), nil
}

func clone(a *models.Account) *models.Account {
	c := *a
	if a.LastLogin != nil {
		t := *a.LastLogin
		c.LastLogin = &t
	}
	return &c
}

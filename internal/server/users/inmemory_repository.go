package users

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// InMemoryRepository keeps accounts in a map guarded by an RWMutex.
// Contents live for the lifetime of the process.
type InMemoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{accounts: make(map[string]Account)}
}

func (r *InMemoryRepository) InsertIfAbsent(ctx context.Context, account *Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[account.Email]; ok {
		return common.ErrorAlreadyExists
	}
	r.accounts[account.Email] = *account

	return nil
}

func (r *InMemoryRepository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	account, ok := r.accounts[email]
	r.mu.RUnlock()

	if !ok {
		return nil, common.ErrorNotFound
	}

	return &account, nil
}

// Len returns the number of stored accounts.
func (r *InMemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.accounts)
}

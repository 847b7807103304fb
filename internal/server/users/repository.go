package users

import (
	"context"
)

// Repository stores accounts. Implementations must be safe for concurrent use.
type Repository interface {
	// InsertIfAbsent stores account unless its email is already present, in
	// which case it returns common.ErrorAlreadyExists and changes nothing.
	InsertIfAbsent(ctx context.Context, account *Account) error

	// GetByEmail returns a copy of the account or common.ErrorNotFound.
	GetByEmail(ctx context.Context, email string) (*Account, error)
}

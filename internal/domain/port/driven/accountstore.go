package driven

import (
	"context"

	"github.com/FranciscoYorlano/meliorar-app-backend/internal/domain/model"
)

// AccountStore defines the driven port for account persistence. Accounts are
// passed and returned by value; Save is the single authoritative write path
// for connection state.
type AccountStore interface {
	Create(ctx context.Context, account model.Account) error

	// GetByID returns nil, nil when the account does not exist.
	GetByID(ctx context.Context, id string) (*model.Account, error)

	// Save overwrites the account's mutable fields (email, MercadoLibre
	// connection state, sync timestamps).
	Save(ctx context.Context, account model.Account) error

	// ListConnected returns all accounts that currently hold a complete
	// MercadoLibre credential, ordered by creation time.
	ListConnected(ctx context.Context) ([]model.Account, error)
}

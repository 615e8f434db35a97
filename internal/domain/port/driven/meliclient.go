package driven

import (
	"context"

	"github.com/FranciscoYorlano/meliorar-app-backend/internal/domain/model"
)

// MeliClient defines the driven port for the MercadoLibre API: the OAuth
// token endpoint plus the two catalog reads the sync pipeline needs.
// Remote failures surface as *RemoteError; adapters perform no retries.
type MeliClient interface {
	// AuthorizationURL builds the seller-facing authorization redirect URL
	// with the given opaque state.
	AuthorizationURL(state string) string

	// ExchangeCode trades a one-time authorization code for an initial
	// access/refresh token pair.
	ExchangeCode(ctx context.Context, code string) (*model.TokenGrant, error)

	// RefreshToken posts the stored refresh token for a fresh grant. The
	// marketplace may rotate the refresh token; callers must store the
	// returned one.
	RefreshToken(ctx context.Context, refreshToken string) (*model.TokenGrant, error)

	// SearchItemIDs pages through the seller's item search and returns the
	// full ordered id list, filtered to the given listing statuses.
	SearchItemIDs(ctx context.Context, meliUserID int64, accessToken string, statuses []string) ([]string, error)

	// GetItems fetches item details in protocol-sized batches. Entries the
	// marketplace reports as failed (multiget envelope code != 200) are
	// dropped, logged, and counted; they never fail the batch.
	GetItems(ctx context.Context, ids []string, accessToken string) ([]model.ItemDetail, error)
}

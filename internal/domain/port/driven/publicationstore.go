package driven

import (
	"context"
	"time"

	"github.com/FranciscoYorlano/meliorar-app-backend/internal/domain/model"
)

// PublicationStore defines the driven port for the local listing cache.
// Uniqueness of (account_id, meli_item_id) is enforced by the schema; Upsert
// only ever touches the mirrored columns on conflict, so the locally-owned
// cost fields cannot be clobbered by a sync.
type PublicationStore interface {
	// Upsert inserts the publication or, when (account_id, meli_item_id)
	// already exists, overwrites the mirrored fields (title, sku, price,
	// category, fetched_at) in place.
	Upsert(ctx context.Context, pub model.Publication) error

	// GetByItemID returns nil, nil when no entry exists for the pair.
	GetByItemID(ctx context.Context, accountID, meliItemID string) (*model.Publication, error)

	// GetBySKU returns the first publication with the given SKU for the
	// account, or nil, nil when none matches.
	GetBySKU(ctx context.Context, accountID, sku string) (*model.Publication, error)

	// UpdateCost sets the locally-owned cost fields for one publication.
	UpdateCost(ctx context.Context, id string, netCost, ivaRate float64, updatedAt time.Time) error

	// ListByAccount returns all cached publications for the account,
	// ordered by title.
	ListByAccount(ctx context.Context, accountID string) ([]model.Publication, error)
}

package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FranciscoYorlano/meliorar-app-backend/internal/domain/model"
)

// seedAccount inserts an account row so publication foreign keys resolve.
func seedAccount(t *testing.T, db *DB, id string) {
	t.Helper()
	repo := NewAccountRepo(db)
	require.NoError(t, repo.Create(context.Background(), model.Account{
		ID:    id,
		Email: id + "@example.com",
	}))
}

func strptr(s string) *string { return &s }

func TestPublicationRepo_UpsertAndGet(t *testing.T) {
	db := setupTestDB(t)
	seedAccount(t, db, "acc-1")
	repo := NewPublicationRepo(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	err := repo.Upsert(ctx, model.Publication{
		ID:         "pub-1",
		AccountID:  "acc-1",
		MeliItemID: "MLA123",
		Title:      "Notebook 14 pulgadas",
		SKU:        strptr("NB-14"),
		PriceMeli:  499999.99,
		FetchedAt:  now,
	})
	require.NoError(t, err)

	pub, err := repo.GetByItemID(ctx, "acc-1", "MLA123")
	require.NoError(t, err)
	require.NotNil(t, pub)
	assert.Equal(t, "pub-1", pub.ID)
	assert.Equal(t, "Notebook 14 pulgadas", pub.Title)
	require.NotNil(t, pub.SKU)
	assert.Equal(t, "NB-14", *pub.SKU)
	assert.InDelta(t, 499999.99, pub.PriceMeli, 0.001)
	assert.True(t, pub.FetchedAt.Equal(now))
	assert.Nil(t, pub.CostPriceUser)
	assert.Nil(t, pub.IvaRateUser)
}

func TestPublicationRepo_UpsertPreservesCostFields(t *testing.T) {
	db := setupTestDB(t)
	seedAccount(t, db, "acc-1")
	repo := NewPublicationRepo(db)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, repo.Upsert(ctx, model.Publication{
		ID: "pub-1", AccountID: "acc-1", MeliItemID: "MLA123",
		Title: "Original title", SKU: strptr("SKU-1"), PriceMeli: 100,
		FetchedAt: now,
	}))
	require.NoError(t, repo.UpdateCost(ctx, "pub-1", 42.50, 0.21, now))

	// A later sync pass overwrites the mirrored fields only.
	require.NoError(t, repo.Upsert(ctx, model.Publication{
		ID: "pub-other", AccountID: "acc-1", MeliItemID: "MLA123",
		Title: "Updated title", SKU: strptr("SKU-1"), PriceMeli: 150,
		CategoryIDMeli: strptr("MLA1652"),
		FetchedAt:      now.Add(time.Hour),
	}))

	pub, err := repo.GetByItemID(ctx, "acc-1", "MLA123")
	require.NoError(t, err)
	require.NotNil(t, pub)
	// Primary key of the original row survives the conflict update.
	assert.Equal(t, "pub-1", pub.ID)
	assert.Equal(t, "Updated title", pub.Title)
	assert.InDelta(t, 150, pub.PriceMeli, 0.001)
	require.NotNil(t, pub.CategoryIDMeli)
	assert.Equal(t, "MLA1652", *pub.CategoryIDMeli)
	require.NotNil(t, pub.CostPriceUser)
	assert.InDelta(t, 42.50, *pub.CostPriceUser, 0.001)
	require.NotNil(t, pub.IvaRateUser)
	assert.InDelta(t, 0.21, *pub.IvaRateUser, 0.0001)
	assert.NotNil(t, pub.CostLastUpdatedAt)
}

func TestPublicationRepo_GetBySKU(t *testing.T) {
	db := setupTestDB(t)
	seedAccount(t, db, "acc-1")
	repo := NewPublicationRepo(db)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, repo.Upsert(ctx, model.Publication{
		ID: "pub-1", AccountID: "acc-1", MeliItemID: "MLA1",
		Title: "A", SKU: strptr("SHARED"), PriceMeli: 10, FetchedAt: now,
	}))
	require.NoError(t, repo.Upsert(ctx, model.Publication{
		ID: "pub-2", AccountID: "acc-1", MeliItemID: "MLA2",
		Title: "B", SKU: strptr("SHARED"), PriceMeli: 20, FetchedAt: now,
	}))

	pub, err := repo.GetBySKU(ctx, "acc-1", "SHARED")
	require.NoError(t, err)
	require.NotNil(t, pub)
	assert.Equal(t, "pub-1", pub.ID)

	missing, err := repo.GetBySKU(ctx, "acc-1", "NOPE")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPublicationRepo_GetBySKUScopedToAccount(t *testing.T) {
	db := setupTestDB(t)
	seedAccount(t, db, "acc-1")
	seedAccount(t, db, "acc-2")
	repo := NewPublicationRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, model.Publication{
		ID: "pub-1", AccountID: "acc-1", MeliItemID: "MLA1",
		Title: "A", SKU: strptr("SKU-X"), PriceMeli: 10, FetchedAt: time.Now().UTC(),
	}))

	pub, err := repo.GetBySKU(ctx, "acc-2", "SKU-X")
	require.NoError(t, err)
	assert.Nil(t, pub)
}

func TestPublicationRepo_UpdateCostMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPublicationRepo(db)

	err := repo.UpdateCost(context.Background(), "ghost", 10, 0.21, time.Now().UTC())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such row")
}

func TestPublicationRepo_ListByAccountOrderedByTitle(t *testing.T) {
	db := setupTestDB(t)
	seedAccount(t, db, "acc-1")
	repo := NewPublicationRepo(db)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, repo.Upsert(ctx, model.Publication{
		ID: "pub-1", AccountID: "acc-1", MeliItemID: "MLA1",
		Title: "Zapatillas", PriceMeli: 10, FetchedAt: now,
	}))
	require.NoError(t, repo.Upsert(ctx, model.Publication{
		ID: "pub-2", AccountID: "acc-1", MeliItemID: "MLA2",
		Title: "Auriculares", PriceMeli: 20, FetchedAt: now,
	}))

	pubs, err := repo.ListByAccount(ctx, "acc-1")
	require.NoError(t, err)
	require.Len(t, pubs, 2)
	assert.Equal(t, "Auriculares", pubs[0].Title)
	assert.Equal(t, "Zapatillas", pubs[1].Title)

	empty, err := repo.ListByAccount(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FranciscoYorlano/meliorar-app-backend/internal/domain/model"
)

func TestSettingsRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSettingsRepo(db)

	s, err := repo.GetByAccount(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestSettingsRepo_SaveAndGet(t *testing.T) {
	db := setupTestDB(t)
	seedAccount(t, db, "acc-1")
	repo := NewSettingsRepo(db)
	ctx := context.Background()

	err := repo.Save(ctx, model.ProfitabilitySettings{
		ID:                              "set-1",
		AccountID:                       "acc-1",
		IIBBRate:                        0.035,
		MunicipalRate:                   0.01,
		FinancialCostRate:               0.08,
		LogisticCostFixed:               850,
		IsIVASubjectObligated:           true,
		NonOperationalCostsVariableRate: 0.02,
	})
	require.NoError(t, err)

	s, err := repo.GetByAccount(ctx, "acc-1")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "set-1", s.ID)
	assert.InDelta(t, 0.035, s.IIBBRate, 0.0001)
	assert.InDelta(t, 0.01, s.MunicipalRate, 0.0001)
	assert.InDelta(t, 0.08, s.FinancialCostRate, 0.0001)
	assert.InDelta(t, 850, s.LogisticCostFixed, 0.001)
	assert.True(t, s.IsIVASubjectObligated)
	assert.InDelta(t, 0.02, s.NonOperationalCostsVariableRate, 0.0001)
	assert.False(t, s.CreatedAt.IsZero())
}

func TestSettingsRepo_SaveUpsertsExisting(t *testing.T) {
	db := setupTestDB(t)
	seedAccount(t, db, "acc-1")
	repo := NewSettingsRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, model.ProfitabilitySettings{
		ID: "set-1", AccountID: "acc-1", IIBBRate: 0.035, IsIVASubjectObligated: true,
	}))
	require.NoError(t, repo.Save(ctx, model.ProfitabilitySettings{
		ID: "set-other", AccountID: "acc-1", IIBBRate: 0.05, IsIVASubjectObligated: false,
	}))

	s, err := repo.GetByAccount(ctx, "acc-1")
	require.NoError(t, err)
	require.NotNil(t, s)
	// Replaced in place; the original row id survives.
	assert.Equal(t, "set-1", s.ID)
	assert.InDelta(t, 0.05, s.IIBBRate, 0.0001)
	assert.False(t, s.IsIVASubjectObligated)
}

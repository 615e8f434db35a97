package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FranciscoYorlano/meliorar-app-backend/internal/application"
	"github.com/FranciscoYorlano/meliorar-app-backend/internal/domain/model"
	"github.com/FranciscoYorlano/meliorar-app-backend/internal/domain/port/driven"
)

func boolptr(b bool) *bool { return &b }

func TestSettingsService_GetCreatesDefaults(t *testing.T) {
	accounts := newMockAccountStore(model.Account{ID: "acc-1", Email: "a@example.com"})
	store := newMockSettingsStore()
	svc := application.NewSettingsService(accounts, store)

	settings, err := svc.Get(context.Background(), "acc-1")
	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.NotEmpty(t, settings.ID)
	assert.Equal(t, "acc-1", settings.AccountID)
	assert.True(t, settings.IsIVASubjectObligated)
	assert.Zero(t, settings.IIBBRate)
	// The defaults record was persisted on first access.
	require.Len(t, store.saves, 1)

	again, err := svc.Get(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, settings.ID, again.ID)
	assert.Len(t, store.saves, 1)
}

func TestSettingsService_GetAccountNotFound(t *testing.T) {
	svc := application.NewSettingsService(newMockAccountStore(), newMockSettingsStore())

	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, driven.ErrAccountNotFound)
}

func TestSettingsService_UpdatePartialPatch(t *testing.T) {
	accounts := newMockAccountStore(model.Account{ID: "acc-1", Email: "a@example.com"})
	store := newMockSettingsStore()
	svc := application.NewSettingsService(accounts, store)

	updated, err := svc.Update(context.Background(), "acc-1", application.SettingsPatch{
		IIBBRate:              floatptr(0.035),
		LogisticCostFixed:     floatptr(850),
		IsIVASubjectObligated: boolptr(false),
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.035, updated.IIBBRate, 0.0001)
	assert.InDelta(t, 850, updated.LogisticCostFixed, 0.001)
	assert.False(t, updated.IsIVASubjectObligated)
	// Untouched fields keep their defaults.
	assert.Zero(t, updated.MunicipalRate)

	// A second patch leaves earlier values in place.
	updated, err = svc.Update(context.Background(), "acc-1", application.SettingsPatch{
		MunicipalRate: floatptr(0.01),
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.035, updated.IIBBRate, 0.0001)
	assert.InDelta(t, 0.01, updated.MunicipalRate, 0.0001)
}

func TestSettingsService_UpdateValidation(t *testing.T) {
	accounts := newMockAccountStore(model.Account{ID: "acc-1", Email: "a@example.com"})
	store := newMockSettingsStore()
	svc := application.NewSettingsService(accounts, store)

	_, err := svc.Update(context.Background(), "acc-1", application.SettingsPatch{
		IIBBRate: floatptr(1.5),
	})
	assert.ErrorIs(t, err, application.ErrInvalidSettings)

	_, err = svc.Update(context.Background(), "acc-1", application.SettingsPatch{
		FinancialCostRate: floatptr(-0.1),
	})
	assert.ErrorIs(t, err, application.ErrInvalidSettings)

	_, err = svc.Update(context.Background(), "acc-1", application.SettingsPatch{
		LogisticCostFixed: floatptr(-1),
	})
	assert.ErrorIs(t, err, application.ErrInvalidSettings)

	// Validation failures never persist anything.
	assert.Empty(t, store.saves)
}

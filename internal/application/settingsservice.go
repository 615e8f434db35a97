package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/FranciscoYorlano/meliorar-app-backend/internal/domain/model"
	"github.com/FranciscoYorlano/meliorar-app-backend/internal/domain/port/driven"
)

// ErrInvalidSettings is returned when a settings patch fails validation.
var ErrInvalidSettings = errors.New("invalid profitability settings")

// SettingsPatch carries a partial profitability settings update. Nil fields
// are left untouched.
type SettingsPatch struct {
	IIBBRate                        *float64
	MunicipalRate                   *float64
	FinancialCostRate               *float64
	OtherCommissionRate             *float64
	LogisticCostFixed               *float64
	LogisticCostVariableRate        *float64
	IsIVASubjectObligated           *bool
	NonOperationalCostsFixedPerUnit *float64
	NonOperationalCostsVariableRate *float64
}

// SettingsService manages per-account profitability settings.
type SettingsService struct {
	accounts driven.AccountStore
	settings driven.SettingsStore
}

// NewSettingsService creates a SettingsService.
func NewSettingsService(accounts driven.AccountStore, settings driven.SettingsStore) *SettingsService {
	return &SettingsService{accounts: accounts, settings: settings}
}

// Get returns the account's settings, creating a defaults record on first
// access so the frontend always has something to render.
func (s *SettingsService) Get(ctx context.Context, accountID string) (*model.ProfitabilitySettings, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, driven.ErrAccountNotFound
	}

	settings, err := s.settings.GetByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if settings != nil {
		return settings, nil
	}

	defaults := model.DefaultProfitabilitySettings(accountID)
	defaults.ID = uuid.NewString()
	if err := s.settings.Save(ctx, defaults); err != nil {
		return nil, fmt.Errorf("create default settings: %w", err)
	}
	return &defaults, nil
}

// Update applies the non-nil fields of the patch after validation and
// returns the resulting settings.
func (s *SettingsService) Update(ctx context.Context, accountID string, patch SettingsPatch) (*model.ProfitabilitySettings, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	settings, err := s.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	updated := *settings
	applyIfSet(&updated.IIBBRate, patch.IIBBRate)
	applyIfSet(&updated.MunicipalRate, patch.MunicipalRate)
	applyIfSet(&updated.FinancialCostRate, patch.FinancialCostRate)
	applyIfSet(&updated.OtherCommissionRate, patch.OtherCommissionRate)
	applyIfSet(&updated.LogisticCostFixed, patch.LogisticCostFixed)
	applyIfSet(&updated.LogisticCostVariableRate, patch.LogisticCostVariableRate)
	applyIfSet(&updated.NonOperationalCostsFixedPerUnit, patch.NonOperationalCostsFixedPerUnit)
	applyIfSet(&updated.NonOperationalCostsVariableRate, patch.NonOperationalCostsVariableRate)
	if patch.IsIVASubjectObligated != nil {
		updated.IsIVASubjectObligated = *patch.IsIVASubjectObligated
	}

	if err := s.settings.Save(ctx, updated); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}
	return &updated, nil
}

// validatePatch enforces rate bounds: percentage rates live in [0, 1],
// fixed per-unit costs must be non-negative.
func validatePatch(patch SettingsPatch) error {
	rates := map[string]*float64{
		"iibb_rate":                           patch.IIBBRate,
		"municipal_rate":                      patch.MunicipalRate,
		"financial_cost_rate":                 patch.FinancialCostRate,
		"other_commission_rate":               patch.OtherCommissionRate,
		"logistic_cost_variable_rate":         patch.LogisticCostVariableRate,
		"non_operational_costs_variable_rate": patch.NonOperationalCostsVariableRate,
	}
	for name, rate := range rates {
		if rate != nil && (*rate < 0 || *rate > 1) {
			return fmt.Errorf("%w: %s must be between 0 and 1", ErrInvalidSettings, name)
		}
	}

	fixed := map[string]*float64{
		"logistic_cost_fixed":                  patch.LogisticCostFixed,
		"non_operational_costs_fixed_per_unit": patch.NonOperationalCostsFixedPerUnit,
	}
	for name, v := range fixed {
		if v != nil && *v < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidSettings, name)
		}
	}

	return nil
}

func applyIfSet(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

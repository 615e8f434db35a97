package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/FranciscoYorlano/meliorar-app-backend/internal/domain/model"
	"github.com/FranciscoYorlano/meliorar-app-backend/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SettingsStore = (*SettingsRepo)(nil)

// SettingsRepo is the SQLite implementation of the SettingsStore port interface.
type SettingsRepo struct {
	db *DB
}

// NewSettingsRepo creates a new SettingsRepo backed by the given DB.
func NewSettingsRepo(db *DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

// GetByAccount retrieves the profitability settings for one account.
// Returns nil, nil if the account has none yet.
func (r *SettingsRepo) GetByAccount(ctx context.Context, accountID string) (*model.ProfitabilitySettings, error) {
	const query = `
		SELECT id, account_id, iibb_rate, municipal_rate, financial_cost_rate,
		       other_commission_rate, logistic_cost_fixed, logistic_cost_variable_rate,
		       is_iva_subject_obligated, non_operational_costs_fixed_per_unit,
		       non_operational_costs_variable_rate, created_at, updated_at
		FROM profitability_settings
		WHERE account_id = ?
	`

	var (
		s          model.ProfitabilitySettings
		ivaSubject int
		createdAt  string
		updatedAt  string
	)

	err := r.db.Reader.QueryRowContext(ctx, query, accountID).Scan(
		&s.ID, &s.AccountID, &s.IIBBRate, &s.MunicipalRate, &s.FinancialCostRate,
		&s.OtherCommissionRate, &s.LogisticCostFixed, &s.LogisticCostVariableRate,
		&ivaSubject, &s.NonOperationalCostsFixedPerUnit,
		&s.NonOperationalCostsVariableRate, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings for account %s: %w", accountID, err)
	}

	s.IsIVASubjectObligated = ivaSubject != 0

	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if s.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &s, nil
}

// Save inserts the settings or replaces the existing record for the account.
func (r *SettingsRepo) Save(ctx context.Context, s model.ProfitabilitySettings) error {
	const query = `
		INSERT INTO profitability_settings (
			id, account_id, iibb_rate, municipal_rate, financial_cost_rate,
			other_commission_rate, logistic_cost_fixed, logistic_cost_variable_rate,
			is_iva_subject_obligated, non_operational_costs_fixed_per_unit,
			non_operational_costs_variable_rate
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET
			iibb_rate = excluded.iibb_rate,
			municipal_rate = excluded.municipal_rate,
			financial_cost_rate = excluded.financial_cost_rate,
			other_commission_rate = excluded.other_commission_rate,
			logistic_cost_fixed = excluded.logistic_cost_fixed,
			logistic_cost_variable_rate = excluded.logistic_cost_variable_rate,
			is_iva_subject_obligated = excluded.is_iva_subject_obligated,
			non_operational_costs_fixed_per_unit = excluded.non_operational_costs_fixed_per_unit,
			non_operational_costs_variable_rate = excluded.non_operational_costs_variable_rate,
			updated_at = CURRENT_TIMESTAMP
	`

	ivaSubject := 0
	if s.IsIVASubjectObligated {
		ivaSubject = 1
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		s.ID, s.AccountID, s.IIBBRate, s.MunicipalRate, s.FinancialCostRate,
		s.OtherCommissionRate, s.LogisticCostFixed, s.LogisticCostVariableRate,
		ivaSubject, s.NonOperationalCostsFixedPerUnit, s.NonOperationalCostsVariableRate,
	)
	if err != nil {
		return fmt.Errorf("save settings for account %s: %w", s.AccountID, err)
	}
	return nil
}

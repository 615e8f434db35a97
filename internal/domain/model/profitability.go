package model

import "time"

// ProfitabilitySettings holds the per-account rates used for profitability
// computation on top of synced publications. Rates are stored as decimals
// (0.035 means 3.5%); fixed costs are per-unit amounts.
type ProfitabilitySettings struct {
	ID        string
	AccountID string

	IIBBRate                 float64
	MunicipalRate            float64
	FinancialCostRate        float64
	OtherCommissionRate      float64
	LogisticCostFixed        float64
	LogisticCostVariableRate float64
	IsIVASubjectObligated    bool

	NonOperationalCostsFixedPerUnit float64
	NonOperationalCostsVariableRate float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultProfitabilitySettings returns the settings a new seller starts with:
// all rates zero and IVA-subject-obligated enabled.
func DefaultProfitabilitySettings(accountID string) ProfitabilitySettings {
	return ProfitabilitySettings{
		AccountID:             accountID,
		IsIVASubjectObligated: true,
	}
}

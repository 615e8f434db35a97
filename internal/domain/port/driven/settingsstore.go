package driven

import (
	"context"

	"github.com/FranciscoYorlano/meliorar-app-backend/internal/domain/model"
)

// SettingsStore defines the driven port for profitability settings, one
// record per account.
type SettingsStore interface {
	// GetByAccount returns nil, nil when the account has no settings yet.
	GetByAccount(ctx context.Context, accountID string) (*model.ProfitabilitySettings, error)

	// Save inserts the settings or replaces the existing record for the
	// same account.
	Save(ctx context.Context, settings model.ProfitabilitySettings) error
}

// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/FranciscoYorlano/meliorar-app-backend/internal/domain/model"
	"github.com/FranciscoYorlano/meliorar-app-backend/internal/domain/port/driven"
)

// refreshSafetyMargin is how much remaining token lifetime still counts as
// stale. Refreshing inside this window hides expiry from all callers and
// amortizes refresh cost to one exchange per near-expiry window.
const refreshSafetyMargin = 5 * time.Minute

// TokenService manages the MercadoLibre token lifecycle for accounts:
// the initial code exchange, transparent refresh, and forced disconnection
// when the marketplace rejects the stored refresh token.
type TokenService struct {
	meli     driven.MeliClient // nil when the integration is not configured
	accounts driven.AccountStore
}

// NewTokenService creates a TokenService. meli may be nil when MercadoLibre
// credentials are not provisioned; every operation then fails with
// ErrMeliNotConfigured.
func NewTokenService(meli driven.MeliClient, accounts driven.AccountStore) *TokenService {
	return &TokenService{meli: meli, accounts: accounts}
}

// Configured reports whether a MercadoLibre client is available.
func (s *TokenService) Configured() bool {
	return s.meli != nil
}

// ConnectURL returns the authorization redirect URL for the account, using
// the account id as the OAuth state so the callback can be re-associated.
func (s *TokenService) ConnectURL(ctx context.Context, accountID string) (string, error) {
	if s.meli == nil {
		return "", driven.ErrMeliNotConfigured
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return "", err
	}
	if account == nil {
		return "", driven.ErrAccountNotFound
	}

	return s.meli.AuthorizationURL(account.ID), nil
}

// HandleCallback validates the OAuth state against the claimed account and
// trades the authorization code for tokens.
func (s *TokenService) HandleCallback(ctx context.Context, code, state, accountID string) (*model.Account, error) {
	if state == "" || state != accountID {
		slog.Warn("oauth state mismatch", "state", state, "account", accountID)
		return nil, driven.ErrInvalidState
	}
	return s.ExchangeCode(ctx, code, accountID)
}

// ExchangeCode trades a one-time authorization code for an initial token
// pair, persists it on the account, and returns the account with secrets
// stripped. This is the only transition from Disconnected to Connected.
func (s *TokenService) ExchangeCode(ctx context.Context, code, accountID string) (*model.Account, error) {
	if s.meli == nil {
		return nil, driven.ErrMeliNotConfigured
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, driven.ErrAccountNotFound
	}

	grant, err := s.meli.ExchangeCode(ctx, code)
	if err != nil {
		slog.Error("authorization code exchange failed", "account", accountID, "error", err)
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	now := time.Now().UTC()
	updated := applyGrant(*account, grant, now)
	updated.MeliLastSyncAt = &now

	if err := s.accounts.Save(ctx, updated); err != nil {
		return nil, fmt.Errorf("persist exchanged tokens: %w", err)
	}

	slog.Info("mercadolibre account connected",
		"account", accountID,
		"meli_user_id", grant.MeliUserID,
	)

	sanitized := updated.Sanitized()
	return &sanitized, nil
}

// ValidAccessToken returns the account together with an access token
// guaranteed usable for at least the next remote operation, refreshing
// transparently when the stored token is inside the safety margin.
func (s *TokenService) ValidAccessToken(ctx context.Context, accountID string) (*model.Account, string, error) {
	if s.meli == nil {
		return nil, "", driven.ErrMeliNotConfigured
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, "", err
	}
	if account == nil {
		return nil, "", driven.ErrAccountNotFound
	}
	if !account.IsConnected() {
		return nil, "", driven.ErrNotConnected
	}

	if !account.TokenExpiresWithin(refreshSafetyMargin) {
		return account, account.MeliAccessToken, nil
	}

	refreshed, err := s.refresh(ctx, *account)
	if err != nil {
		return nil, "", err
	}
	return refreshed, refreshed.MeliAccessToken, nil
}

// Disconnect clears the account's MercadoLibre credentials.
func (s *TokenService) Disconnect(ctx context.Context, accountID string) (*model.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, driven.ErrAccountNotFound
	}

	cleared := account.Disconnected()
	if err := s.accounts.Save(ctx, cleared); err != nil {
		return nil, fmt.Errorf("clear credentials: %w", err)
	}

	slog.Info("mercadolibre account disconnected", "account", accountID)

	sanitized := cleared.Sanitized()
	return &sanitized, nil
}

// refresh exchanges the stored refresh token for a new grant. A 400/401
// rejection means the refresh token is permanently invalid: the credentials
// are cleared and the caller gets ErrReauthRequired, which must not be
// retried. Any other remote failure propagates as-is and may be retried by
// the caller.
func (s *TokenService) refresh(ctx context.Context, account model.Account) (*model.Account, error) {
	grant, err := s.meli.RefreshToken(ctx, account.MeliRefreshToken)
	if err != nil {
		var remoteErr *driven.RemoteError
		if errors.As(err, &remoteErr) &&
			(remoteErr.StatusCode == http.StatusBadRequest || remoteErr.StatusCode == http.StatusUnauthorized) {
			slog.Warn("refresh token rejected, clearing credentials",
				"account", account.ID,
				"status", remoteErr.StatusCode,
				"body", remoteErr.Body,
			)
			cleared := account.Disconnected()
			if saveErr := s.accounts.Save(ctx, cleared); saveErr != nil {
				return nil, fmt.Errorf("clear rejected credentials: %w", saveErr)
			}
			return nil, driven.ErrReauthRequired
		}

		slog.Error("token refresh failed", "account", account.ID, "error", err)
		return nil, fmt.Errorf("refresh access token: %w", err)
	}

	// The marketplace may rotate the refresh token; the returned grant is
	// authoritative for all three credential fields.
	updated := applyGrant(account, grant, time.Now().UTC())
	if err := s.accounts.Save(ctx, updated); err != nil {
		return nil, fmt.Errorf("persist refreshed tokens: %w", err)
	}

	slog.Debug("access token refreshed", "account", account.ID)
	return &updated, nil
}

func applyGrant(account model.Account, grant *model.TokenGrant, now time.Time) model.Account {
	expiresAt := now.Add(time.Duration(grant.ExpiresIn) * time.Second)
	if grant.MeliUserID != 0 {
		account.MeliUserID = grant.MeliUserID
	}
	account.MeliAccessToken = grant.AccessToken
	account.MeliRefreshToken = grant.RefreshToken
	account.MeliTokenExpiresAt = &expiresAt
	return account
}

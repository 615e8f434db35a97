package model

import "time"

// Account represents a local seller account that may hold one MercadoLibre
// connection. The three credential fields (access token, refresh token,
// expiry) are either all present or all absent; only the token lifecycle
// code mutates them, and only through AccountStore.Save.
type Account struct {
	ID    string
	Email string

	// MercadoLibre connection state. MeliUserID is the identity assigned
	// by the marketplace; it is 0 until the first successful exchange.
	MeliUserID         int64
	MeliAccessToken    string
	MeliRefreshToken   string
	MeliTokenExpiresAt *time.Time

	MeliLastSyncAt             *time.Time
	MeliLastPublicationsSyncAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsConnected reports whether the account holds a complete MercadoLibre
// credential (access token, refresh token, and expiry all present).
func (a Account) IsConnected() bool {
	return a.MeliAccessToken != "" && a.MeliRefreshToken != "" && a.MeliTokenExpiresAt != nil
}

// TokenExpiresWithin reports whether the access token's remaining lifetime is
// at most margin. A missing expiry counts as expired.
func (a Account) TokenExpiresWithin(margin time.Duration) bool {
	if a.MeliTokenExpiresAt == nil {
		return true
	}
	return time.Until(*a.MeliTokenExpiresAt) <= margin
}

// Disconnected returns a copy of the account with all credential fields
// cleared, dropping it back to the disconnected state.
func (a Account) Disconnected() Account {
	a.MeliAccessToken = ""
	a.MeliRefreshToken = ""
	a.MeliTokenExpiresAt = nil
	return a
}

// Sanitized returns a copy of the account safe to expose to API callers:
// both token secrets are stripped, connection metadata is kept.
func (a Account) Sanitized() Account {
	a.MeliAccessToken = ""
	a.MeliRefreshToken = ""
	return a
}

package driven

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the MercadoLibre integration. Application
// services return them (possibly wrapped); the HTTP adapter maps them to
// response codes with errors.Is.
var (
	// ErrAccountNotFound is returned when the referenced local account
	// does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrNotConnected is returned when an operation needs MercadoLibre
	// credentials but the account has none stored.
	ErrNotConnected = errors.New("account is not connected to MercadoLibre")

	// ErrReauthRequired is returned after the marketplace permanently
	// rejects the stored refresh token. The credentials have been cleared;
	// the seller must restart the authorization flow. Never retried.
	ErrReauthRequired = errors.New("MercadoLibre rejected the refresh token: reauthorization required")

	// ErrInvalidState is returned when the OAuth callback state does not
	// match the initiating account.
	ErrInvalidState = errors.New("oauth state does not match the initiating account")

	// ErrMeliNotConfigured is returned when MercadoLibre client
	// credentials were not provisioned on this server.
	ErrMeliNotConfigured = errors.New("MercadoLibre integration is not configured")
)

// RemoteError carries a non-success response from the MercadoLibre API.
// Callers may retry the whole operation later; nothing in this codebase
// retries automatically.
type RemoteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("mercadolibre api: status %d: %s", e.StatusCode, e.Body)
}

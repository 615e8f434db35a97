package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func timeptr(t time.Time) *time.Time { return &t }

func TestAccount_IsConnected(t *testing.T) {
	expiresAt := time.Now().Add(time.Hour)

	assert.False(t, Account{}.IsConnected())
	assert.False(t, Account{MeliAccessToken: "a"}.IsConnected())
	assert.False(t, Account{MeliAccessToken: "a", MeliRefreshToken: "r"}.IsConnected())
	assert.True(t, Account{
		MeliAccessToken:    "a",
		MeliRefreshToken:   "r",
		MeliTokenExpiresAt: &expiresAt,
	}.IsConnected())
}

func TestAccount_TokenExpiresWithin(t *testing.T) {
	margin := 5 * time.Minute

	tests := []struct {
		name      string
		expiresAt *time.Time
		want      bool
	}{
		{"no expiry counts as expired", nil, true},
		{"already expired", timeptr(time.Now().Add(-time.Minute)), true},
		{"inside the margin", timeptr(time.Now().Add(2 * time.Minute)), true},
		{"outside the margin", timeptr(time.Now().Add(time.Hour)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account := Account{MeliTokenExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, account.TokenExpiresWithin(margin))
		})
	}
}

func TestAccount_Disconnected(t *testing.T) {
	expiresAt := time.Now().Add(time.Hour)
	syncedAt := time.Now()
	account := Account{
		ID:                         "acc-1",
		MeliUserID:                 777,
		MeliAccessToken:            "a",
		MeliRefreshToken:           "r",
		MeliTokenExpiresAt:         &expiresAt,
		MeliLastPublicationsSyncAt: &syncedAt,
	}

	cleared := account.Disconnected()
	assert.False(t, cleared.IsConnected())
	assert.Empty(t, cleared.MeliAccessToken)
	assert.Empty(t, cleared.MeliRefreshToken)
	assert.Nil(t, cleared.MeliTokenExpiresAt)
	// Identity and sync history survive.
	assert.Equal(t, int64(777), cleared.MeliUserID)
	assert.NotNil(t, cleared.MeliLastPublicationsSyncAt)
	// The receiver is a value; the original is untouched.
	assert.True(t, account.IsConnected())
}

func TestAccount_Sanitized(t *testing.T) {
	expiresAt := time.Now().Add(time.Hour)
	account := Account{
		MeliAccessToken:    "secret-a",
		MeliRefreshToken:   "secret-r",
		MeliTokenExpiresAt: &expiresAt,
	}

	safe := account.Sanitized()
	assert.Empty(t, safe.MeliAccessToken)
	assert.Empty(t, safe.MeliRefreshToken)
	// Expiry stays so callers can still show connection state.
	assert.NotNil(t, safe.MeliTokenExpiresAt)
}

// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Default MercadoLibre endpoints; overridable for sandbox or test setups.
const (
	defaultAuthURL    = "https://auth.mercadolibre.com.ar/authorization"
	defaultTokenURL   = "https://api.mercadolibre.com/oauth/token"
	defaultAPIBaseURL = "https://api.mercadolibre.com"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr   string
	DBPath       string
	SyncInterval time.Duration

	MeliClientID     string
	MeliClientSecret string
	MeliRedirectURI  string
	MeliAuthURL      string
	MeliTokenURL     string
	MeliAPIBaseURL   string
}

// HasMeliCredentials returns true when the MercadoLibre application
// credentials are fully provisioned. Used by the composition root to decide
// whether to construct a real marketplace client at startup.
func (c *Config) HasMeliCredentials() bool {
	return c.MeliClientID != "" && c.MeliClientSecret != "" && c.MeliRedirectURI != ""
}

// Load reads configuration from the environment (and a .env file when
// present) and returns a validated Config. MercadoLibre credentials
// (MELI_CLIENT_ID, MELI_CLIENT_SECRET, MELI_REDIRECT_URI) are optional; if
// absent, the app starts but the integration stays disabled.
// Optional variables with defaults: MELIORAR_LISTEN_ADDR (127.0.0.1:8080),
// MELIORAR_DB_PATH (meliorar.db), MELIORAR_SYNC_INTERVAL (30m).
func Load() (*Config, error) {
	// A missing .env is fine; real deployments use plain env vars.
	_ = godotenv.Load()

	syncInterval := 30 * time.Minute
	if v, ok := os.LookupEnv("MELIORAR_SYNC_INTERVAL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("MELIORAR_SYNC_INTERVAL has invalid duration %q: %w", v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("MELIORAR_SYNC_INTERVAL must be positive, got %q", v)
		}
		syncInterval = parsed
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("MELIORAR_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "meliorar.db"
	if v, ok := os.LookupEnv("MELIORAR_DB_PATH"); ok {
		dbPath = v
	}

	return &Config{
		ListenAddr:       listenAddr,
		DBPath:           dbPath,
		SyncInterval:     syncInterval,
		MeliClientID:     os.Getenv("MELI_CLIENT_ID"),
		MeliClientSecret: os.Getenv("MELI_CLIENT_SECRET"),
		MeliRedirectURI:  os.Getenv("MELI_REDIRECT_URI"),
		MeliAuthURL:      getenvDefault("MELI_AUTH_URL", defaultAuthURL),
		MeliTokenURL:     getenvDefault("MELI_TOKEN_URL", defaultTokenURL),
		MeliAPIBaseURL:   getenvDefault("MELI_API_BASE_URL", defaultAPIBaseURL),
	}, nil
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

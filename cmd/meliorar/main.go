package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	meliadapter "github.com/FranciscoYorlano/meliorar-app-backend/internal/adapter/driven/meli"
	sqliteadapter "github.com/FranciscoYorlano/meliorar-app-backend/internal/adapter/driven/sqlite"
	httphandler "github.com/FranciscoYorlano/meliorar-app-backend/internal/adapter/driving/http"
	"github.com/FranciscoYorlano/meliorar-app-backend/internal/application"
	"github.com/FranciscoYorlano/meliorar-app-backend/internal/config"
	"github.com/FranciscoYorlano/meliorar-app-backend/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on malformed env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"sync_interval", cfg.SyncInterval,
		"meli_configured", cfg.HasMeliCredentials(),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire adapters.
	accountStore := sqliteadapter.NewAccountRepo(db)
	publicationStore := sqliteadapter.NewPublicationRepo(db)
	settingsStore := sqliteadapter.NewSettingsRepo(db)

	// 6. Create MercadoLibre client (nil when no app credentials configured;
	// the API then reports the integration as unavailable instead of failing
	// at startup).
	var meliClient driven.MeliClient
	if cfg.HasMeliCredentials() {
		client, err := meliadapter.NewClient(meliadapter.Config{
			ClientID:     cfg.MeliClientID,
			ClientSecret: cfg.MeliClientSecret,
			RedirectURI:  cfg.MeliRedirectURI,
			AuthURL:      cfg.MeliAuthURL,
			TokenURL:     cfg.MeliTokenURL,
			APIBaseURL:   cfg.MeliAPIBaseURL,
		})
		if err != nil {
			return err
		}
		meliClient = client
		slog.Info("mercadolibre client created", "api_base_url", cfg.MeliAPIBaseURL)
	} else {
		slog.Info("no mercadolibre credentials configured, catalog sync disabled")
	}

	// 7. Create application services.
	tokenSvc := application.NewTokenService(meliClient, accountStore)

	var syncSvc *application.SyncService
	if meliClient != nil {
		syncSvc = application.NewSyncService(tokenSvc, meliClient, accountStore, publicationStore, cfg.SyncInterval)
		go syncSvc.Start(ctx)
	}

	costSvc := application.NewCostService(accountStore, publicationStore)
	settingsSvc := application.NewSettingsService(accountStore, settingsStore)

	// 8. Create HTTP handler and register routes.
	apiHandler := httphandler.NewHandler(accountStore, publicationStore, tokenSvc, syncSvc, costSvc, settingsSvc, slog.Default())
	handler := httphandler.NewServeMux(apiHandler, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("meliorar started",
		"listen_addr", cfg.ListenAddr,
		"sync_interval", cfg.SyncInterval,
	)

	// 9. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

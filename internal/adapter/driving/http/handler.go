// Package httphandler is the HTTP driving adapter serving the JSON API.
package httphandler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FranciscoYorlano/meliorar-app-backend/internal/application"
	"github.com/FranciscoYorlano/meliorar-app-backend/internal/domain/model"
	"github.com/FranciscoYorlano/meliorar-app-backend/internal/domain/port/driven"
)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	accounts     driven.AccountStore
	publications driven.PublicationStore
	tokenSvc     *application.TokenService
	syncSvc      *application.SyncService
	costSvc      *application.CostService
	settingsSvc  *application.SettingsService
	logger       *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. syncSvc may
// be nil when the MercadoLibre integration is not configured.
func NewHandler(
	accounts driven.AccountStore,
	publications driven.PublicationStore,
	tokenSvc *application.TokenService,
	syncSvc *application.SyncService,
	costSvc *application.CostService,
	settingsSvc *application.SettingsService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		accounts:     accounts,
		publications: publications,
		tokenSvc:     tokenSvc,
		syncSvc:      syncSvc,
		costSvc:      costSvc,
		settingsSvc:  settingsSvc,
		logger:       logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/accounts", h.CreateAccount)
	mux.HandleFunc("GET /api/v1/accounts/{id}", h.GetAccount)

	mux.HandleFunc("GET /api/v1/meli/connect", h.Connect)
	mux.HandleFunc("GET /api/v1/meli/callback", h.Callback)
	mux.HandleFunc("POST /api/v1/meli/disconnect", h.Disconnect)
	mux.HandleFunc("POST /api/v1/meli/sync", h.Sync)

	mux.HandleFunc("GET /api/v1/publications", h.ListPublications)
	mux.HandleFunc("POST /api/v1/costs", h.ApplyCosts)
	mux.HandleFunc("GET /api/v1/profitability-settings", h.GetSettings)
	mux.HandleFunc("PUT /api/v1/profitability-settings", h.UpdateSettings)

	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// CreateAccountRequest is the body for POST /api/v1/accounts.
type CreateAccountRequest struct {
	Email string `json:"email"`
}

// CreateAccount registers a minimal local account record. Full user
// management (passwords, sessions) lives in a separate service.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}

	account := model.Account{
		ID:        uuid.NewString(),
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.accounts.Create(r.Context(), account); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			writeError(w, http.StatusConflict, "an account with that email already exists")
			return
		}
		h.logger.Error("failed to create account", "email", email, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, toAccountResponse(account))
}

// GetAccount returns one account by id.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	account, err := h.accounts.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get account", "account", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if account == nil {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(account.Sanitized()))
}

// Connect redirects the seller to the MercadoLibre authorization page, with
// the account id as the OAuth state.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "account_id is required")
		return
	}

	authURL, err := h.tokenSvc.ConnectURL(r.Context(), accountID)
	if err != nil {
		h.writeServiceError(w, "connect", accountID, err)
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback handles the marketplace's OAuth redirect: it validates the state
// against the claimed account and exchanges the code for tokens.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if remoteErr := q.Get("error"); remoteErr != "" {
		description := q.Get("error_description")
		if description == "" {
			description = remoteErr
		}
		h.logger.Warn("authorization denied by MercadoLibre", "error", remoteErr, "description", description)
		writeError(w, http.StatusBadRequest, fmt.Sprintf("MercadoLibre authorization failed: %s", description))
		return
	}

	code := q.Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "authorization code is missing")
		return
	}

	accountID := q.Get("account_id")
	if accountID == "" {
		// Frontends that cannot thread the account through the redirect
		// rely on the state parameter alone.
		accountID = q.Get("state")
	}

	account, err := h.tokenSvc.HandleCallback(r.Context(), code, q.Get("state"), accountID)
	if err != nil {
		h.writeServiceError(w, "callback", accountID, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(*account))
}

// Disconnect clears the account's MercadoLibre credentials.
func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "account_id is required")
		return
	}

	account, err := h.tokenSvc.Disconnect(r.Context(), accountID)
	if err != nil {
		h.writeServiceError(w, "disconnect", accountID, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(*account))
}

// Sync runs a full catalog reconciliation for the account and returns the
// resulting publications.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "account_id is required")
		return
	}

	if h.syncSvc == nil {
		writeError(w, http.StatusServiceUnavailable, "MercadoLibre integration is not configured on this server")
		return
	}

	// Syncs keep running after the HTTP client gives up; the run itself is
	// bounded by server shutdown, not by the request context.
	pubs, err := h.syncSvc.SyncAccount(context.WithoutCancel(r.Context()), accountID)
	if err != nil {
		h.writeServiceError(w, "sync", accountID, err)
		return
	}

	resp := make([]PublicationResponse, 0, len(pubs))
	for _, pub := range pubs {
		resp = append(resp, toPublicationResponse(pub))
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListPublications returns the account's cached publications.
func (h *Handler) ListPublications(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "account_id is required")
		return
	}

	account, err := h.accounts.GetByID(r.Context(), accountID)
	if err != nil {
		h.logger.Error("failed to get account", "account", accountID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if account == nil {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}

	pubs, err := h.publications.ListByAccount(r.Context(), accountID)
	if err != nil {
		h.logger.Error("failed to list publications", "account", accountID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]PublicationResponse, 0, len(pubs))
	for _, pub := range pubs {
		resp = append(resp, toPublicationResponse(pub))
	}

	writeJSON(w, http.StatusOK, resp)
}

// ApplyCosts applies already-parsed cost rows to the account's publications.
func (h *Handler) ApplyCosts(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "account_id is required")
		return
	}

	var reqRows []CostRowRequest
	if err := json.NewDecoder(r.Body).Decode(&reqRows); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: expected an array of cost rows")
		return
	}
	if len(reqRows) == 0 {
		writeError(w, http.StatusBadRequest, "no cost rows provided")
		return
	}

	rows := make([]model.CostRow, 0, len(reqRows))
	for _, row := range reqRows {
		rows = append(rows, model.CostRow{
			SKU:     row.SKU,
			NetCost: row.NetCost,
			IVARate: row.IVARate,
		})
	}

	report, err := h.costSvc.ApplyCostRows(r.Context(), accountID, rows)
	if err != nil {
		h.writeServiceError(w, "costs", accountID, err)
		return
	}

	writeJSON(w, http.StatusOK, toCostReportResponse(*report))
}

// GetSettings returns the account's profitability settings, creating
// defaults on first access.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "account_id is required")
		return
	}

	settings, err := h.settingsSvc.Get(r.Context(), accountID)
	if err != nil {
		h.writeServiceError(w, "settings", accountID, err)
		return
	}

	writeJSON(w, http.StatusOK, toSettingsResponse(*settings))
}

// UpdateSettings applies a partial profitability settings update.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "account_id is required")
		return
	}

	var req SettingsPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch := application.SettingsPatch{
		IIBBRate:                        req.IIBBRate,
		MunicipalRate:                   req.MunicipalRate,
		FinancialCostRate:               req.FinancialCostRate,
		OtherCommissionRate:             req.OtherCommissionRate,
		LogisticCostFixed:               req.LogisticCostFixed,
		LogisticCostVariableRate:        req.LogisticCostVariableRate,
		IsIVASubjectObligated:           req.IsIVASubjectObligated,
		NonOperationalCostsFixedPerUnit: req.NonOperationalCostsFixedPerUnit,
		NonOperationalCostsVariableRate: req.NonOperationalCostsVariableRate,
	}

	settings, err := h.settingsSvc.Update(r.Context(), accountID, patch)
	if err != nil {
		h.writeServiceError(w, "settings", accountID, err)
		return
	}

	writeJSON(w, http.StatusOK, toSettingsResponse(*settings))
}

// Health reports service liveness.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeServiceError maps known application errors to responses and logs
// everything else as a 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, stage, accountID string, err error) {
	if status, message := serviceStatus(err); status != 0 {
		h.logger.Warn("request rejected", "stage", stage, "account", accountID, "error", err)
		writeError(w, status, message)
		return
	}

	h.logger.Error("request failed", "stage", stage, "account", accountID, "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

package httphandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/FranciscoYorlano/meliorar-app-backend/internal/application"
	"github.com/FranciscoYorlano/meliorar-app-backend/internal/domain/model"
	"github.com/FranciscoYorlano/meliorar-app-backend/internal/domain/port/driven"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// serviceStatus maps application-level errors to an HTTP status code and a
// caller-safe message. Unrecognized errors come back as 0 so the handler can
// log them and answer 500.
func serviceStatus(err error) (int, string) {
	var remoteErr *driven.RemoteError
	switch {
	case errors.Is(err, driven.ErrAccountNotFound):
		return http.StatusNotFound, "account not found"
	case errors.Is(err, driven.ErrNotConnected):
		return http.StatusUnauthorized, "account is not connected to MercadoLibre"
	case errors.Is(err, driven.ErrReauthRequired):
		return http.StatusUnauthorized, "MercadoLibre authorization expired; reconnect the account"
	case errors.Is(err, driven.ErrInvalidState):
		return http.StatusBadRequest, "invalid oauth state"
	case errors.Is(err, driven.ErrMeliNotConfigured):
		return http.StatusServiceUnavailable, "MercadoLibre integration is not configured on this server"
	case errors.Is(err, application.ErrInvalidSettings):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &remoteErr):
		return http.StatusBadGateway, "MercadoLibre request failed; try again later"
	}
	return 0, ""
}

// AccountResponse is the JSON representation of an account. Token secrets
// are never present on the model copies reaching this layer.
type AccountResponse struct {
	ID                     string `json:"id"`
	Email                  string `json:"email"`
	MeliUserID             int64  `json:"meli_user_id,omitempty"`
	Connected              bool   `json:"connected"`
	LastSyncAt             string `json:"last_sync_at,omitempty"`
	LastPublicationsSyncAt string `json:"last_publications_sync_at,omitempty"`
	CreatedAt              string `json:"created_at"`
}

func toAccountResponse(a model.Account) AccountResponse {
	return AccountResponse{
		ID:                     a.ID,
		Email:                  a.Email,
		MeliUserID:             a.MeliUserID,
		Connected:              a.MeliTokenExpiresAt != nil,
		LastSyncAt:             formatOptional(a.MeliLastSyncAt),
		LastPublicationsSyncAt: formatOptional(a.MeliLastPublicationsSyncAt),
		CreatedAt:              a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// PublicationResponse is the JSON representation of a cached listing.
type PublicationResponse struct {
	ID                string   `json:"id"`
	MeliItemID        string   `json:"meli_item_id"`
	Title             string   `json:"title"`
	SKU               *string  `json:"sku"`
	PriceMeli         float64  `json:"price_meli"`
	CategoryIDMeli    *string  `json:"category_id_meli"`
	CostPriceUser     *float64 `json:"cost_price_user"`
	IvaRateUser       *float64 `json:"iva_rate_user"`
	HasCost           bool     `json:"has_cost"`
	CostLastUpdatedAt string   `json:"cost_last_updated_at,omitempty"`
	FetchedAt         string   `json:"fetched_at"`
}

func toPublicationResponse(p model.Publication) PublicationResponse {
	return PublicationResponse{
		ID:                p.ID,
		MeliItemID:        p.MeliItemID,
		Title:             p.Title,
		SKU:               p.SKU,
		PriceMeli:         p.PriceMeli,
		CategoryIDMeli:    p.CategoryIDMeli,
		CostPriceUser:     p.CostPriceUser,
		IvaRateUser:       p.IvaRateUser,
		HasCost:           p.HasCost(),
		CostLastUpdatedAt: formatOptional(p.CostLastUpdatedAt),
		FetchedAt:         p.FetchedAt.UTC().Format(time.RFC3339),
	}
}

// CostRowRequest is one uploaded cost row. The Excel file itself is parsed
// by the frontend; this API receives plain rows.
type CostRowRequest struct {
	SKU     string   `json:"sku"`
	NetCost *float64 `json:"net_cost"`
	IVARate *float64 `json:"iva_rate"`
}

// CostReportResponse summarizes an applied cost upload.
type CostReportResponse struct {
	Updated     int                     `json:"updated"`
	NotFound    int                     `json:"not_found"`
	InvalidRows int                     `json:"invalid_rows"`
	InvalidCost int                     `json:"invalid_cost"`
	InvalidIVA  int                     `json:"invalid_iva"`
	Results     []CostRowResultResponse `json:"results"`
}

// CostRowResultResponse reports the outcome of one cost row.
type CostRowResultResponse struct {
	SKU     string `json:"sku"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func toCostReportResponse(r model.CostReport) CostReportResponse {
	resp := CostReportResponse{
		Updated:     r.Updated,
		NotFound:    r.NotFound,
		InvalidRows: r.InvalidRows,
		InvalidCost: r.InvalidCost,
		InvalidIVA:  r.InvalidIVA,
		Results:     make([]CostRowResultResponse, 0, len(r.Results)),
	}
	for _, res := range r.Results {
		resp.Results = append(resp.Results, CostRowResultResponse{
			SKU:     res.SKU,
			Status:  string(res.Status),
			Message: res.Message,
		})
	}
	return resp
}

// SettingsResponse is the JSON representation of profitability settings.
type SettingsResponse struct {
	IIBBRate                        float64 `json:"iibb_rate"`
	MunicipalRate                   float64 `json:"municipal_rate"`
	FinancialCostRate               float64 `json:"financial_cost_rate"`
	OtherCommissionRate             float64 `json:"other_commission_rate"`
	LogisticCostFixed               float64 `json:"logistic_cost_fixed"`
	LogisticCostVariableRate        float64 `json:"logistic_cost_variable_rate"`
	IsIVASubjectObligated           bool    `json:"is_iva_subject_obligated"`
	NonOperationalCostsFixedPerUnit float64 `json:"non_operational_costs_fixed_per_unit"`
	NonOperationalCostsVariableRate float64 `json:"non_operational_costs_variable_rate"`
}

func toSettingsResponse(s model.ProfitabilitySettings) SettingsResponse {
	return SettingsResponse{
		IIBBRate:                        s.IIBBRate,
		MunicipalRate:                   s.MunicipalRate,
		FinancialCostRate:               s.FinancialCostRate,
		OtherCommissionRate:             s.OtherCommissionRate,
		LogisticCostFixed:               s.LogisticCostFixed,
		LogisticCostVariableRate:        s.LogisticCostVariableRate,
		IsIVASubjectObligated:           s.IsIVASubjectObligated,
		NonOperationalCostsFixedPerUnit: s.NonOperationalCostsFixedPerUnit,
		NonOperationalCostsVariableRate: s.NonOperationalCostsVariableRate,
	}
}

// SettingsPatchRequest is the wire form of a partial settings update.
type SettingsPatchRequest struct {
	IIBBRate                        *float64 `json:"iibb_rate"`
	MunicipalRate                   *float64 `json:"municipal_rate"`
	FinancialCostRate               *float64 `json:"financial_cost_rate"`
	OtherCommissionRate             *float64 `json:"other_commission_rate"`
	LogisticCostFixed               *float64 `json:"logistic_cost_fixed"`
	LogisticCostVariableRate        *float64 `json:"logistic_cost_variable_rate"`
	IsIVASubjectObligated           *bool    `json:"is_iva_subject_obligated"`
	NonOperationalCostsFixedPerUnit *float64 `json:"non_operational_costs_fixed_per_unit"`
	NonOperationalCostsVariableRate *float64 `json:"non_operational_costs_variable_rate"`
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// Package meli implements the MeliClient port against the MercadoLibre REST API.
package meli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gregjones/httpcache"

	"github.com/FranciscoYorlano/meliorar-app-backend/internal/domain/model"
	"github.com/FranciscoYorlano/meliorar-app-backend/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.MeliClient = (*Client)(nil)

const (
	// searchPageSize is the fixed limit used when paging the item search.
	searchPageSize = 50

	// multigetBatchSize is the protocol-imposed maximum of ids per
	// GET /items?ids= request.
	multigetBatchSize = 20

	// maxResponseBytes bounds how much of an upstream body is read, both
	// for decoding and for error reporting.
	maxResponseBytes = 4 << 20
)

// Config holds the MercadoLibre application credentials and endpoints.
// All fields are required; NewClient validates them eagerly so a
// misconfigured server fails at startup rather than mid-flow.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
	APIBaseURL   string
}

// Validate returns an error naming the first missing field.
func (c Config) Validate() error {
	missing := ""
	switch {
	case c.ClientID == "":
		missing = "client id"
	case c.ClientSecret == "":
		missing = "client secret"
	case c.RedirectURI == "":
		missing = "redirect uri"
	case c.AuthURL == "":
		missing = "auth url"
	case c.TokenURL == "":
		missing = "token url"
	case c.APIBaseURL == "":
		missing = "api base url"
	}
	if missing != "" {
		return fmt.Errorf("mercadolibre config: %s is required", missing)
	}
	return nil
}

// Client implements the driven.MeliClient port with plain HTTP calls.
// Responses are cached through an httpcache memory transport. Failed calls
// are never retried here; retrying a sync is the caller's decision.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a MercadoLibre API client with an in-memory caching
// transport. Returns an error if the config is incomplete.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		cfg:  cfg,
		http: &http.Client{Transport: httpcache.NewMemoryCacheTransport()},
	}, nil
}

// NewClientWithHTTPClient creates a Client with a custom http.Client.
// This constructor is intended for testing against httptest servers.
func NewClientWithHTTPClient(cfg Config, httpClient *http.Client) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, http: httpClient}, nil
}

// AuthorizationURL builds the seller-facing authorization redirect URL.
func (c *Client) AuthorizationURL(state string) string {
	u, err := url.Parse(c.cfg.AuthURL)
	if err != nil {
		// AuthURL was validated non-empty; a parse failure means a config
		// typo, surfaced when the marketplace rejects the redirect.
		return c.cfg.AuthURL
	}

	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", c.cfg.ClientID)
	q.Set("redirect_uri", c.cfg.RedirectURI)
	q.Set("state", state)
	u.RawQuery = q.Encode()

	return u.String()
}

// tokenResponse mirrors the MercadoLibre token endpoint payload.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
	UserID       int64  `json:"user_id"`
	RefreshToken string `json:"refresh_token"`
}

// ExchangeCode trades a one-time authorization code for a token grant.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*model.TokenGrant, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"code":          {code},
		"redirect_uri":  {c.cfg.RedirectURI},
	}
	return c.requestToken(ctx, form)
}

// RefreshToken posts the stored refresh token for a fresh grant.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*model.TokenGrant, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"refresh_token": {refreshToken},
	}
	return c.requestToken(ctx, form)
}

func (c *Client) requestToken(ctx context.Context, form url.Values) (*model.TokenGrant, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post token endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &driven.RemoteError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" || tr.RefreshToken == "" || tr.ExpiresIn <= 0 {
		return nil, fmt.Errorf("token response missing access_token, refresh_token, or expires_in")
	}

	return &model.TokenGrant{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresIn:    tr.ExpiresIn,
		MeliUserID:   tr.UserID,
		Scope:        tr.Scope,
	}, nil
}

// searchResponse mirrors the item search payload's paging metadata.
type searchResponse struct {
	Results []string `json:"results"`
	Paging  struct {
		Total  int `json:"total"`
		Offset int `json:"offset"`
		Limit  int `json:"limit"`
	} `json:"paging"`
}

// SearchItemIDs pages through /users/{id}/items/search and returns the full
// materialized id list. The whole list must exist before detail fetching
// starts because the multiget batch size is independent of the page size.
func (c *Client) SearchItemIDs(ctx context.Context, meliUserID int64, accessToken string, statuses []string) ([]string, error) {
	var ids []string

	for offset := 0; ; offset += searchPageSize {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(searchPageSize))
		q.Set("offset", strconv.Itoa(offset))
		if len(statuses) > 0 {
			q.Set("status", strings.Join(statuses, ","))
		}
		endpoint := fmt.Sprintf("%s/users/%d/items/search?%s", c.cfg.APIBaseURL, meliUserID, q.Encode())

		var page searchResponse
		if err := c.getJSON(ctx, endpoint, accessToken, &page); err != nil {
			return nil, fmt.Errorf("search items at offset %d: %w", offset, err)
		}

		ids = append(ids, page.Results...)

		if offset+searchPageSize >= page.Paging.Total {
			break
		}
	}

	return ids, nil
}

// multigetEnvelope is the wrapper the multiget endpoint may place around each
// item. Bare item documents have no "code" field, leaving Code zero.
type multigetEnvelope struct {
	Code int             `json:"code"`
	Body json.RawMessage `json:"body"`
}

// itemDocument mirrors the subset of a MercadoLibre item payload we consume.
type itemDocument struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	Price             float64 `json:"price"`
	CategoryID        string  `json:"category_id"`
	SellerCustomField string  `json:"seller_custom_field"`
	Attributes        []struct {
		ID        string `json:"id"`
		ValueName string `json:"value_name"`
		Values    []struct {
			Name string `json:"name"`
		} `json:"values"`
	} `json:"attributes"`
}

// GetItems fetches item details in batches of at most multigetBatchSize,
// issued sequentially to stay under the marketplace's rate limits. Entries
// whose envelope code is not 200 are dropped and counted, never fatal.
func (c *Client) GetItems(ctx context.Context, ids []string, accessToken string) ([]model.ItemDetail, error) {
	details := make([]model.ItemDetail, 0, len(ids))

	for start := 0; start < len(ids); start += multigetBatchSize {
		end := min(start+multigetBatchSize, len(ids))
		batch := ids[start:end]

		q := url.Values{}
		q.Set("ids", strings.Join(batch, ","))
		endpoint := c.cfg.APIBaseURL + "/items?" + q.Encode()

		var entries []json.RawMessage
		if err := c.getJSON(ctx, endpoint, accessToken, &entries); err != nil {
			return nil, fmt.Errorf("multiget batch of %d items: %w", len(batch), err)
		}

		var dropped int
		for _, entry := range entries {
			doc, ok := decodeMultigetEntry(entry)
			if !ok {
				dropped++
				continue
			}
			details = append(details, mapItem(doc))
		}

		if dropped > 0 {
			slog.Warn("multiget batch returned degraded entries",
				"requested", len(batch),
				"dropped", dropped,
			)
		}
	}

	return details, nil
}

// decodeMultigetEntry unwraps one multiget response element, which is either
// a bare item document or a {code, body} envelope.
func decodeMultigetEntry(entry json.RawMessage) (itemDocument, bool) {
	var env multigetEnvelope
	if err := json.Unmarshal(entry, &env); err == nil && env.Code != 0 {
		if env.Code != http.StatusOK {
			return itemDocument{}, false
		}
		entry = env.Body
	}

	var doc itemDocument
	if err := json.Unmarshal(entry, &doc); err != nil {
		slog.Warn("malformed multiget entry", "error", err)
		return itemDocument{}, false
	}
	return doc, true
}

func mapItem(doc itemDocument) model.ItemDetail {
	item := model.ItemDetail{
		ID:                doc.ID,
		Title:             doc.Title,
		Price:             doc.Price,
		CategoryID:        doc.CategoryID,
		SellerCustomField: doc.SellerCustomField,
	}

	for _, attr := range doc.Attributes {
		mapped := model.ItemAttribute{
			ID:        attr.ID,
			ValueName: attr.ValueName,
		}
		for _, v := range attr.Values {
			mapped.Values = append(mapped.Values, model.AttributeValue{Name: v.Name})
		}
		item.Attributes = append(item.Attributes, mapped)
	}

	return item
}

// getJSON issues an authenticated GET and decodes a 200 response into out.
// Any other status becomes a *driven.RemoteError carrying the body.
func (c *Client) getJSON(ctx context.Context, endpoint, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &driven.RemoteError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

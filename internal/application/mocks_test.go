package application_test

import (
	"context"
	"time"

	"github.com/FranciscoYorlano/meliorar-app-backend/internal/domain/model"
)

// --- Mock implementations ---

type mockAccountStore struct {
	accounts map[string]model.Account
	saves    []model.Account
	saveErr  error
}

func newMockAccountStore(accounts ...model.Account) *mockAccountStore {
	m := &mockAccountStore{accounts: make(map[string]model.Account)}
	for _, a := range accounts {
		m.accounts[a.ID] = a
	}
	return m
}

func (m *mockAccountStore) Create(_ context.Context, account model.Account) error {
	m.accounts[account.ID] = account
	return nil
}

func (m *mockAccountStore) GetByID(_ context.Context, id string) (*model.Account, error) {
	account, ok := m.accounts[id]
	if !ok {
		return nil, nil
	}
	return &account, nil
}

func (m *mockAccountStore) Save(_ context.Context, account model.Account) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.accounts[account.ID] = account
	m.saves = append(m.saves, account)
	return nil
}

func (m *mockAccountStore) ListConnected(_ context.Context) ([]model.Account, error) {
	var connected []model.Account
	for _, a := range m.accounts {
		if a.IsConnected() {
			connected = append(connected, a)
		}
	}
	return connected, nil
}

type costUpdate struct {
	ID      string
	NetCost float64
	IVARate float64
}

type mockPublicationStore struct {
	byItemID map[string]model.Publication // key: accountID + "/" + meliItemID
	bySKU    map[string]model.Publication // key: accountID + "/" + sku
	upserts  []model.Publication
	costs    []costUpdate
}

func newMockPublicationStore() *mockPublicationStore {
	return &mockPublicationStore{
		byItemID: make(map[string]model.Publication),
		bySKU:    make(map[string]model.Publication),
	}
}

func (m *mockPublicationStore) seed(pub model.Publication) {
	m.byItemID[pub.AccountID+"/"+pub.MeliItemID] = pub
	if pub.SKU != nil {
		m.bySKU[pub.AccountID+"/"+*pub.SKU] = pub
	}
}

func (m *mockPublicationStore) Upsert(_ context.Context, pub model.Publication) error {
	if existing, ok := m.byItemID[pub.AccountID+"/"+pub.MeliItemID]; ok {
		// Mirrors the SQL ON CONFLICT clause: keep the original row id and
		// the locally-owned cost fields.
		pub.ID = existing.ID
		pub.CostPriceUser = existing.CostPriceUser
		pub.IvaRateUser = existing.IvaRateUser
		pub.CostLastUpdatedAt = existing.CostLastUpdatedAt
	}
	m.seed(pub)
	m.upserts = append(m.upserts, pub)
	return nil
}

func (m *mockPublicationStore) GetByItemID(_ context.Context, accountID, meliItemID string) (*model.Publication, error) {
	pub, ok := m.byItemID[accountID+"/"+meliItemID]
	if !ok {
		return nil, nil
	}
	return &pub, nil
}

func (m *mockPublicationStore) GetBySKU(_ context.Context, accountID, sku string) (*model.Publication, error) {
	pub, ok := m.bySKU[accountID+"/"+sku]
	if !ok {
		return nil, nil
	}
	return &pub, nil
}

func (m *mockPublicationStore) UpdateCost(_ context.Context, id string, netCost, ivaRate float64, _ time.Time) error {
	m.costs = append(m.costs, costUpdate{ID: id, NetCost: netCost, IVARate: ivaRate})
	return nil
}

func (m *mockPublicationStore) ListByAccount(_ context.Context, accountID string) ([]model.Publication, error) {
	var pubs []model.Publication
	for _, pub := range m.byItemID {
		if pub.AccountID == accountID {
			pubs = append(pubs, pub)
		}
	}
	return pubs, nil
}

type mockMeliClient struct {
	exchangeCode  func(ctx context.Context, code string) (*model.TokenGrant, error)
	refreshToken  func(ctx context.Context, refreshToken string) (*model.TokenGrant, error)
	searchItemIDs func(ctx context.Context, meliUserID int64, accessToken string, statuses []string) ([]string, error)
	getItems      func(ctx context.Context, ids []string, accessToken string) ([]model.ItemDetail, error)

	refreshCalls int
}

func (m *mockMeliClient) AuthorizationURL(state string) string {
	return "https://auth.example.com/authorization?state=" + state
}

func (m *mockMeliClient) ExchangeCode(ctx context.Context, code string) (*model.TokenGrant, error) {
	return m.exchangeCode(ctx, code)
}

func (m *mockMeliClient) RefreshToken(ctx context.Context, refreshToken string) (*model.TokenGrant, error) {
	m.refreshCalls++
	return m.refreshToken(ctx, refreshToken)
}

func (m *mockMeliClient) SearchItemIDs(ctx context.Context, meliUserID int64, accessToken string, statuses []string) ([]string, error) {
	return m.searchItemIDs(ctx, meliUserID, accessToken, statuses)
}

func (m *mockMeliClient) GetItems(ctx context.Context, ids []string, accessToken string) ([]model.ItemDetail, error) {
	return m.getItems(ctx, ids, accessToken)
}

type mockSettingsStore struct {
	byAccount map[string]model.ProfitabilitySettings
	saves     []model.ProfitabilitySettings
}

func newMockSettingsStore() *mockSettingsStore {
	return &mockSettingsStore{byAccount: make(map[string]model.ProfitabilitySettings)}
}

func (m *mockSettingsStore) GetByAccount(_ context.Context, accountID string) (*model.ProfitabilitySettings, error) {
	s, ok := m.byAccount[accountID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *mockSettingsStore) Save(_ context.Context, settings model.ProfitabilitySettings) error {
	m.byAccount[settings.AccountID] = settings
	m.saves = append(m.saves, settings)
	return nil
}

// --- Shared fixtures ---

func connectedAccount(id string, expiresIn time.Duration) model.Account {
	expiresAt := time.Now().UTC().Add(expiresIn)
	return model.Account{
		ID:                 id,
		Email:              id + "@example.com",
		MeliUserID:         777,
		MeliAccessToken:    "access-" + id,
		MeliRefreshToken:   "refresh-" + id,
		MeliTokenExpiresAt: &expiresAt,
	}
}

func floatptr(f float64) *float64 { return &f }

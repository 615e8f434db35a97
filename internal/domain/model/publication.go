package model

import "time"

// Publication is one cached MercadoLibre listing, keyed by
// (account, meli item id). Title, price, category, and SKU mirror remote
// state and are fully overwritten on every sync. The cost fields are owned
// locally (set by cost ingestion) and must survive syncs untouched.
// Entries are never deleted by the sync path: a listing that disappears from
// the remote catalog simply stops being refreshed.
type Publication struct {
	ID         string
	AccountID  string
	MeliItemID string

	Title          string
	SKU            *string // nil when the marketplace has no SKU recorded
	PriceMeli      float64
	CategoryIDMeli *string

	CostPriceUser     *float64
	IvaRateUser       *float64
	CostLastUpdatedAt *time.Time

	FetchedAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasCost reports whether the user has recorded a net cost for this listing.
func (p Publication) HasCost() bool {
	return p.CostPriceUser != nil && p.IvaRateUser != nil
}

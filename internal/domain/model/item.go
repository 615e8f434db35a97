package model

// ItemDetail is the subset of a MercadoLibre item document consumed by the
// sync pipeline. Attributes carry the structured SKU candidates;
// SellerCustomField is the legacy free-text SKU slot.
type ItemDetail struct {
	ID                string
	Title             string
	Price             float64
	CategoryID        string
	SellerCustomField string
	Attributes        []ItemAttribute
}

// ItemAttribute is one structured attribute on an item, such as SELLER_SKU.
type ItemAttribute struct {
	ID        string
	ValueName string
	Values    []AttributeValue
}

// AttributeValue is a raw attribute value entry.
type AttributeValue struct {
	Name string
}

// TokenGrant is the marketplace's response to a token exchange or refresh:
// a fresh access/refresh token pair with its lifetime in seconds.
type TokenGrant struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
	MeliUserID   int64
	Scope        string
}

package model

// CostRowStatus classifies the outcome of applying one cost row.
type CostRowStatus string

const (
	CostRowUpdated     CostRowStatus = "updated"
	CostRowNotFound    CostRowStatus = "not_found"
	CostRowInvalidSKU  CostRowStatus = "invalid_row"
	CostRowInvalidCost CostRowStatus = "invalid_cost"
	CostRowInvalidIVA  CostRowStatus = "invalid_iva"
)

// CostRow is one already-parsed row of a cost upload. Pointer fields
// distinguish absent values from zero values.
type CostRow struct {
	SKU     string
	NetCost *float64
	IVARate *float64
}

// CostRowResult reports what happened to a single cost row.
type CostRowResult struct {
	SKU     string
	Status  CostRowStatus
	Message string
}

// CostReport aggregates the per-row results of a cost upload.
type CostReport struct {
	Updated     int
	NotFound    int
	InvalidRows int
	InvalidCost int
	InvalidIVA  int
	Results     []CostRowResult
}

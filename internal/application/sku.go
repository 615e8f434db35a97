package application

import (
	"strings"

	"github.com/FranciscoYorlano/meliorar-app-backend/internal/domain/model"
)

// ExtractSKU resolves the seller SKU for an item with a deterministic,
// ordered fallback:
//
//  1. the legacy free-text seller_custom_field, if non-blank;
//  2. a SELLER_SKU or ITEM_SKU attribute: its resolved value_name first,
//     falling back to the first raw value entry;
//  3. otherwise "".
//
// The result is always trimmed; "" means the marketplace has no SKU recorded.
func ExtractSKU(item model.ItemDetail) string {
	if sku := strings.TrimSpace(item.SellerCustomField); sku != "" {
		return sku
	}

	for _, attr := range item.Attributes {
		if attr.ID != "SELLER_SKU" && attr.ID != "ITEM_SKU" {
			continue
		}
		if sku := strings.TrimSpace(attr.ValueName); sku != "" {
			return sku
		}
		if len(attr.Values) > 0 {
			if sku := strings.TrimSpace(attr.Values[0].Name); sku != "" {
				return sku
			}
		}
	}

	return ""
}

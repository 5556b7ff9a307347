package cart

import (
	"encoding/json"
	"fmt"

	"storefront/internal/domain"
)

func encode(items []domain.CartItem) ([]byte, error) {
	if items == nil {
		items = []domain.CartItem{}
	}
	return json.Marshal(items)
}

// decode parses a stored record and rejects anything that breaks the cart
// invariants, so callers never see a half-valid cart.
func decode(raw []byte) ([]domain.CartItem, error) {
	var items []domain.CartItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	seen := make(map[int]struct{}, len(items))
	for _, it := range items {
		if it.Quantity < 1 {
			return nil, fmt.Errorf("item %d: quantity %d", it.ID, it.Quantity)
		}
		if it.Price.IsNegative() {
			return nil, fmt.Errorf("item %d: negative price %s", it.ID, it.Price)
		}
		if _, dup := seen[it.ID]; dup {
			return nil, fmt.Errorf("item %d: duplicate id", it.ID)
		}
		seen[it.ID] = struct{}{}
	}
	return items, nil
}

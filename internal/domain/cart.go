package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ProductRef is what a page hands to the cart when the visitor clicks "buy".
type ProductRef struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Duration string          `json:"duration"`
}

// CartItem is one line of the visitor's cart. Quantity is always >= 1 once persisted.
type CartItem struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Duration string          `json:"duration"`
	Quantity int             `json:"quantity"`
}

// LineTotal returns price * quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// MarshalJSON writes price as a JSON number so the stored record keeps the
// same layout the browser cart used.
func (i CartItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID       int         `json:"id"`
		Name     string      `json:"name"`
		Price    json.Number `json:"price"`
		Duration string      `json:"duration"`
		Quantity int         `json:"quantity"`
	}{
		ID:       i.ID,
		Name:     i.Name,
		Price:    json.Number(i.Price.String()),
		Duration: i.Duration,
		Quantity: i.Quantity,
	})
}

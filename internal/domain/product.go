package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Product is a listing managed through the remote admin API.
type Product struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Duration  string          `json:"duration"`
	Features  []string        `json:"features"`
	Badge     *string         `json:"badge"`
	IsPopular bool            `json:"is_popular"`
	IsActive  bool            `json:"is_active"`
}

// Ref returns the subset of fields the cart keeps.
func (p Product) Ref() ProductRef {
	return ProductRef{ID: p.ID, Name: p.Name, Price: p.Price, Duration: p.Duration}
}

func (p Product) MarshalJSON() ([]byte, error) {
	features := p.Features
	if features == nil {
		features = []string{}
	}
	return json.Marshal(struct {
		ID        int         `json:"id"`
		Name      string      `json:"name"`
		Price     json.Number `json:"price"`
		Duration  string      `json:"duration"`
		Features  []string    `json:"features"`
		Badge     *string     `json:"badge"`
		IsPopular bool        `json:"is_popular"`
		IsActive  bool        `json:"is_active"`
	}{
		ID:        p.ID,
		Name:      p.Name,
		Price:     json.Number(p.Price.String()),
		Duration:  p.Duration,
		Features:  features,
		Badge:     p.Badge,
		IsPopular: p.IsPopular,
		IsActive:  p.IsActive,
	})
}

// ProductInput carries the editable fields of a product. An empty Duration
// lets the admin API apply its own default.
type ProductInput struct {
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Duration  string          `json:"duration,omitempty"`
	Features  []string        `json:"features"`
	Badge     *string         `json:"badge"`
	IsPopular bool            `json:"is_popular"`
	IsActive  bool            `json:"is_active"`
}

func (in ProductInput) MarshalJSON() ([]byte, error) {
	features := in.Features
	if features == nil {
		features = []string{}
	}
	return json.Marshal(struct {
		Name      string      `json:"name"`
		Price     json.Number `json:"price"`
		Duration  string      `json:"duration,omitempty"`
		Features  []string    `json:"features"`
		Badge     *string     `json:"badge"`
		IsPopular bool        `json:"is_popular"`
		IsActive  bool        `json:"is_active"`
	}{
		Name:      in.Name,
		Price:     json.Number(in.Price.String()),
		Duration:  in.Duration,
		Features:  features,
		Badge:     in.Badge,
		IsPopular: in.IsPopular,
		IsActive:  in.IsActive,
	})
}

package seed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	adminclient "storefront/internal/client/admin"
	"storefront/internal/domain"
)

// API is the admin API surface seeding needs.
type API interface {
	CreateAdmin(ctx context.Context, username, password string) (int, error)
	Login(ctx context.Context, username, password string) (*adminclient.LoginResult, error)
	Products(ctx context.Context) ([]domain.Product, error)
	CreateProduct(ctx context.Context, token string, in domain.ProductInput) (int, error)
}

// Result reports what Apply changed.
type Result struct {
	AdminCreated    bool
	ProductsCreated int
}

func badge(s string) *string { return &s }

var demoProducts = []domain.ProductInput{
	{
		Name:     "Lite",
		Price:    decimal.NewFromInt(199),
		Duration: "30 дней",
		Features: []string{"Basic modules", "Updates for 30 days"},
		IsActive: true,
	},
	{
		Name:      "Pro",
		Price:     decimal.NewFromInt(499),
		Duration:  "90 дней",
		Features:  []string{"All modules", "Priority support", "Updates for 90 days"},
		Badge:     badge("Хит"),
		IsPopular: true,
		IsActive:  true,
	},
	{
		Name:     "Forever",
		Price:    decimal.NewFromInt(1490),
		Features: []string{"All modules", "Lifetime updates"},
		IsActive: true,
	},
}

// Apply creates the first admin account and the demo products. It is
// idempotent: an existing admin is reused and products are matched by name.
func Apply(ctx context.Context, api API, username, password string) (Result, error) {
	var res Result

	_, err := api.CreateAdmin(ctx, username, password)
	switch {
	case err == nil:
		res.AdminCreated = true
	case adminExists(err):
	default:
		return res, fmt.Errorf("create admin: %w", err)
	}

	login, err := api.Login(ctx, username, password)
	if err != nil {
		return res, fmt.Errorf("login as %q: %w", username, err)
	}

	existing, err := api.Products(ctx)
	if err != nil {
		return res, fmt.Errorf("list products: %w", err)
	}
	names := make(map[string]bool, len(existing))
	for _, p := range existing {
		names[strings.ToLower(p.Name)] = true
	}

	for _, p := range demoProducts {
		if names[strings.ToLower(p.Name)] {
			continue
		}
		if _, err := api.CreateProduct(ctx, login.Token, p); err != nil {
			return res, fmt.Errorf("create product %q: %w", p.Name, err)
		}
		res.ProductsCreated++
	}
	return res, nil
}

func adminExists(err error) bool {
	var apiErr *adminclient.APIError
	return errors.As(err, &apiErr) &&
		apiErr.Status == http.StatusBadRequest &&
		strings.Contains(strings.ToLower(apiErr.Message), "already exists")
}

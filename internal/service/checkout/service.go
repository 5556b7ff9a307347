// Package checkout turns a visitor's cart into a hosted payment.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strconv"
	"strings"

	"storefront/internal/client/payment"
	"storefront/internal/service/cart"
)

var (
	ErrMissingFields = errors.New("name and email are required")
	ErrInvalidEmail  = errors.New("invalid email")
	ErrEmptyCart     = errors.New("cart is empty")
)

// PaymentCreator creates a hosted payment and returns its URL.
type PaymentCreator interface {
	CreatePayment(ctx context.Context, req payment.CreateRequest) (string, error)
}

// Cart is the part of the cart store checkout needs.
type Cart interface {
	Summary(ctx context.Context) cart.Summary
	Clear(ctx context.Context) error
}

type Input struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Result struct {
	PaymentURL string `json:"payment_url"`
}

type Service struct {
	payments   PaymentCreator
	returnURL  string
	deferClear bool
	logger     *log.Logger
}

// New builds a checkout service. Buyers are sent back to
// publicBaseURL + "/order-success" after paying. With deferClear the cart is
// kept until Confirm instead of being emptied as soon as the payment exists.
func New(payments PaymentCreator, publicBaseURL string, deferClear bool, logger *log.Logger) *Service {
	return &Service{
		payments:   payments,
		returnURL:  strings.TrimRight(publicBaseURL, "/") + "/order-success",
		deferClear: deferClear,
		logger:     logger,
	}
}

// Checkout validates the purchaser, asks the payment service for a payment
// covering the whole cart and returns where to send the buyer. The cart is
// left untouched on any error.
func (s *Service) Checkout(ctx context.Context, c Cart, in Input) (Result, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" {
		return Result{}, ErrMissingFields
	}
	if !validEmail(email) {
		return Result{}, ErrInvalidEmail
	}

	summary := c.Summary(ctx)
	if len(summary.Items) == 0 {
		return Result{}, ErrEmptyCart
	}

	req := payment.CreateRequest{
		Amount:    json.Number(summary.Total.String()),
		UserEmail: email,
		UserName:  name,
		ReturnURL: s.returnURL,
		CartItems: make([]payment.LineItem, 0, len(summary.Items)),
	}
	for _, it := range summary.Items {
		req.CartItems = append(req.CartItems, payment.LineItem{
			ID:       strconv.Itoa(it.ID),
			Name:     it.Name,
			Price:    json.Number(it.Price.String()),
			Quantity: it.Quantity,
		})
	}

	url, err := s.payments.CreatePayment(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("create payment: %w", err)
	}

	if !s.deferClear {
		// The payment already exists; a failed clear must not hide its URL.
		if err := c.Clear(ctx); err != nil {
			s.logger.Printf("clear cart after checkout: %v", err)
		}
	}
	return Result{PaymentURL: url}, nil
}

// Confirm is called when the buyer lands on the order-success page. It
// empties the cart when clearing was deferred and reports whether it did.
func (s *Service) Confirm(ctx context.Context, c Cart) (bool, error) {
	if !s.deferClear {
		return false, nil
	}
	if err := c.Clear(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	// ParseAddress also accepts "Name <a@b>"; only a bare address is allowed here.
	return addr.Address == email && strings.Contains(email[strings.LastIndex(email, "@"):], ".")
}

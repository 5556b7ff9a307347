// Package payment talks to the hosted payment-creation function.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = errors.New("payment service unavailable")

// Error is a refusal reported by the payment service.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("payment service returned status %d", e.Status)
	}
	return fmt.Sprintf("payment service returned status %d: %s", e.Status, e.Message)
}

// LineItem is one cart line as the payment service expects it.
type LineItem struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	Quantity int         `json:"quantity"`
}

// CreateRequest is the body of a payment-creation call.
type CreateRequest struct {
	Amount    json.Number `json:"amount"`
	UserEmail string      `json:"user_email"`
	UserName  string      `json:"user_name"`
	ReturnURL string      `json:"return_url"`
	CartItems []LineItem  `json:"cart_items"`
}

type createResponse struct {
	PaymentURL string `json:"payment_url"`
	Error      string `json:"error"`
}

type Client struct {
	url     string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[string]
}

// New builds a client for the function at url. A nil httpClient gets one
// with the given timeout.
func New(url string, httpClient *http.Client, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "payment",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Refusals (bad email, amount rejected) say nothing about the health
		// of the service; only transport errors and 5xx count.
		IsSuccessful: func(err error) bool {
			var perr *Error
			if errors.As(err, &perr) {
				return perr.Status < http.StatusInternalServerError
			}
			return err == nil
		},
	})
	return &Client{url: url, http: httpClient, breaker: breaker}
}

// CreatePayment asks the service for a payment and returns the URL the
// purchaser should be sent to.
func (c *Client) CreatePayment(ctx context.Context, req CreateRequest) (string, error) {
	paymentURL, err := c.breaker.Execute(func() (string, error) {
		return c.create(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return paymentURL, err
}

func (c *Client) create(ctx context.Context, req CreateRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var out createResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return "", &Error{Status: resp.StatusCode}
		}
		return "", fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || out.PaymentURL == "" {
		return "", &Error{Status: resp.StatusCode, Message: out.Error}
	}
	return out.PaymentURL, nil
}

// Package admin is a client for the remote admin API. Every call is routed
// by the "action" query parameter.
package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"storefront/internal/domain"
)

// ErrUnauthorized is returned when the API rejects the bearer token or the credentials.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx answer from the admin API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("admin api: status %d: %s", e.Status, e.Message)
}

// Unwrap lets callers match 401s with errors.Is(err, ErrUnauthorized).
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, httpClient *http.Client, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var out struct {
		Success bool `json:"success"`
		LoginResult
	}
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "login", nil, "", body, &out); err != nil {
		return nil, err
	}
	if !out.Success || out.Token == "" {
		return nil, &APIError{Status: http.StatusUnauthorized, Message: "login rejected"}
	}
	return &out.LoginResult, nil
}

// CreateAdmin registers a new admin account and returns its id.
func (c *Client) CreateAdmin(ctx context.Context, username, password string) (int, error) {
	var out struct {
		AdminID int `json:"admin_id"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "create-admin", nil, "", body, &out); err != nil {
		return 0, err
	}
	return out.AdminID, nil
}

func (c *Client) Settings(ctx context.Context, token string) (domain.Settings, error) {
	out := domain.Settings{}
	if err := c.do(ctx, http.MethodGet, "settings", nil, token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateSettings sends setting_key -> value pairs. Unknown keys are ignored by the API.
func (c *Client) UpdateSettings(ctx context.Context, token string, values map[string]string) error {
	return c.do(ctx, http.MethodPut, "settings", nil, token, values, nil)
}

// Products lists every product, active or not. No token is required.
func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	if err := c.do(ctx, http.MethodGet, "products", nil, "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateProduct(ctx context.Context, token string, in domain.ProductInput) (int, error) {
	var out struct {
		ID int `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "products", nil, token, in, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *Client) UpdateProduct(ctx context.Context, token string, id int, in domain.ProductInput) error {
	return c.do(ctx, http.MethodPut, "products", idQuery(id), token, in, nil)
}

// DeleteProduct deactivates a product; the API keeps the row.
func (c *Client) DeleteProduct(ctx context.Context, token string, id int) error {
	return c.do(ctx, http.MethodDelete, "products", idQuery(id), token, nil, nil)
}

func idQuery(id int) url.Values {
	return url.Values{"id": []string{strconv.Itoa(id)}}
}

func (c *Client) do(ctx context.Context, method, action string, query url.Values, token string, in, out any) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("action", action)
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", action, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", action, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		// The hosting gateway forwards Authorization as X-Authorization;
		// send both so the client works with or without it.
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("X-Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", action, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", action, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", action, err)
	}
	return nil
}

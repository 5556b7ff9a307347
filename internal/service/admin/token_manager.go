package admin

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/repository/kv"
)

const (
	tokenKey    = "admin_token"
	usernameKey = "admin_username"
	tokenLength = 64
)

// tokenManager keeps the console bearer token in a visitor's storage.
type tokenManager struct {
	repo kv.Repository
}

func newTokenManager(repo kv.Repository) *tokenManager {
	return &tokenManager{repo: repo}
}

func (m *tokenManager) Save(ctx context.Context, token, username string) error {
	if err := m.repo.Set(ctx, tokenKey, []byte(token)); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	if err := m.repo.Set(ctx, usernameKey, []byte(username)); err != nil {
		return fmt.Errorf("store username: %w", err)
	}
	return nil
}

// Token returns the stored token, or ErrNotLoggedIn when there is none or it
// has the wrong shape. A malformed token is removed.
func (m *tokenManager) Token(ctx context.Context) (string, error) {
	raw, err := m.repo.Get(ctx, tokenKey)
	if errors.Is(err, domain.ErrNotFound) {
		return "", ErrNotLoggedIn
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	token := string(raw)
	if !validToken(token) {
		_ = m.Drop(ctx)
		return "", ErrNotLoggedIn
	}
	return token, nil
}

func (m *tokenManager) Username(ctx context.Context) string {
	raw, err := m.repo.Get(ctx, usernameKey)
	if err != nil {
		return ""
	}
	return string(raw)
}

func (m *tokenManager) Drop(ctx context.Context) error {
	if err := m.repo.Delete(ctx, tokenKey); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	if err := m.repo.Delete(ctx, usernameKey); err != nil {
		return fmt.Errorf("delete username: %w", err)
	}
	return nil
}

func validToken(token string) bool {
	if len(token) != tokenLength {
		return false
	}
	_, err := hex.DecodeString(token)
	return err == nil
}

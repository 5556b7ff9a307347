// Package admin is the console side of the remote admin API: it logs a
// visitor in, keeps the bearer token in that visitor's storage and forwards
// settings and product edits.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	adminclient "storefront/internal/client/admin"
	"storefront/internal/domain"
	"storefront/internal/repository/kv"
)

var (
	// ErrNotLoggedIn is returned by console calls made without a stored token.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrInvalidCredentials is returned when the API rejects a login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMissingCredentials is returned when username or password is blank.
	ErrMissingCredentials = errors.New("username and password are required")
)

// API is the part of the admin client the console uses.
type API interface {
	Login(ctx context.Context, username, password string) (*adminclient.LoginResult, error)
	Settings(ctx context.Context, token string) (domain.Settings, error)
	UpdateSettings(ctx context.Context, token string, values map[string]string) error
	Products(ctx context.Context) ([]domain.Product, error)
	CreateProduct(ctx context.Context, token string, in domain.ProductInput) (int, error)
	UpdateProduct(ctx context.Context, token string, id int, in domain.ProductInput) error
	DeleteProduct(ctx context.Context, token string, id int) error
}

type Service struct {
	api    API
	logger *log.Logger
}

func New(api API, logger *log.Logger) *Service {
	return &Service{api: api, logger: logger}
}

// Session describes who is logged into the console for a visitor.
type Session struct {
	LoggedIn bool   `json:"logged_in"`
	Username string `json:"username,omitempty"`
}

// Login authenticates against the API and stores the token in repo.
func (s *Service) Login(ctx context.Context, repo kv.Repository, username, password string) (Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Session{}, ErrMissingCredentials
	}
	res, err := s.api.Login(ctx, username, password)
	if errors.Is(err, adminclient.ErrUnauthorized) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if !validToken(res.Token) {
		return Session{}, fmt.Errorf("login: unexpected token format")
	}
	name := res.Username
	if name == "" {
		name = username
	}
	if err := newTokenManager(repo).Save(ctx, res.Token, name); err != nil {
		return Session{}, err
	}
	return Session{LoggedIn: true, Username: name}, nil
}

func (s *Service) Logout(ctx context.Context, repo kv.Repository) error {
	return newTokenManager(repo).Drop(ctx)
}

// Session reports whether repo holds a usable token.
func (s *Service) Session(ctx context.Context, repo kv.Repository) Session {
	tokens := newTokenManager(repo)
	if _, err := tokens.Token(ctx); err != nil {
		return Session{}
	}
	return Session{LoggedIn: true, Username: tokens.Username(ctx)}
}

func (s *Service) Settings(ctx context.Context, repo kv.Repository) (domain.Settings, error) {
	var out domain.Settings
	err := s.withToken(ctx, repo, func(token string) error {
		var err error
		out, err = s.api.Settings(ctx, token)
		return err
	})
	return out, err
}

func (s *Service) UpdateSettings(ctx context.Context, repo kv.Repository, values map[string]string) error {
	return s.withToken(ctx, repo, func(token string) error {
		return s.api.UpdateSettings(ctx, token, values)
	})
}

// Products lists every product, including inactive ones, for the console.
func (s *Service) Products(ctx context.Context, repo kv.Repository) ([]domain.Product, error) {
	if _, err := newTokenManager(repo).Token(ctx); err != nil {
		return nil, err
	}
	return s.api.Products(ctx)
}

func (s *Service) CreateProduct(ctx context.Context, repo kv.Repository, in domain.ProductInput) (int, error) {
	if err := validateProduct(in); err != nil {
		return 0, err
	}
	var id int
	err := s.withToken(ctx, repo, func(token string) error {
		var err error
		id, err = s.api.CreateProduct(ctx, token, in)
		return err
	})
	return id, err
}

func (s *Service) UpdateProduct(ctx context.Context, repo kv.Repository, id int, in domain.ProductInput) error {
	if err := validateProduct(in); err != nil {
		return err
	}
	return s.withToken(ctx, repo, func(token string) error {
		return s.api.UpdateProduct(ctx, token, id, in)
	})
}

func (s *Service) DeleteProduct(ctx context.Context, repo kv.Repository, id int) error {
	return s.withToken(ctx, repo, func(token string) error {
		return s.api.DeleteProduct(ctx, token, id)
	})
}

// ValidationError reports a product field the console refuses to send.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid product field %q", e.Field)
}

func validateProduct(in domain.ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Field: "name"}
	}
	if in.Price.IsNegative() {
		return &ValidationError{Field: "price"}
	}
	return nil
}

// withToken runs fn with the stored token. A 401 from the API means the
// token expired remotely, so it is dropped and ErrNotLoggedIn returned.
func (s *Service) withToken(ctx context.Context, repo kv.Repository, fn func(token string) error) error {
	tokens := newTokenManager(repo)
	token, err := tokens.Token(ctx)
	if err != nil {
		return err
	}
	err = fn(token)
	if errors.Is(err, adminclient.ErrUnauthorized) {
		if dropErr := tokens.Drop(ctx); dropErr != nil {
			s.logger.Printf("drop expired admin token: %v", dropErr)
		}
		return ErrNotLoggedIn
	}
	return err
}

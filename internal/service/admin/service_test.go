package admin

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adminclient "storefront/internal/client/admin"
	"storefront/internal/domain"
	"storefront/internal/repository/kv"
)

var validToken64 = strings.Repeat("ab", 32)

// fakeAPI is an in-memory stand-in for the remote admin API.
type fakeAPI struct {
	token     string
	loginErr  error
	settings  domain.Settings
	products  []domain.Product
	gotTokens []string
	nextErr   error
	nextID    int
}

func (f *fakeAPI) Login(_ context.Context, username, password string) (*adminclient.LoginResult, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &adminclient.LoginResult{Token: f.token, Username: username}, nil
}

func (f *fakeAPI) Settings(_ context.Context, token string) (domain.Settings, error) {
	f.gotTokens = append(f.gotTokens, token)
	return f.settings, f.nextErr
}

func (f *fakeAPI) UpdateSettings(_ context.Context, token string, values map[string]string) error {
	f.gotTokens = append(f.gotTokens, token)
	if f.nextErr != nil {
		return f.nextErr
	}
	for k, v := range values {
		if s, ok := f.settings[k]; ok {
			s.Value = v
			f.settings[k] = s
		}
	}
	return nil
}

func (f *fakeAPI) Products(context.Context) ([]domain.Product, error) {
	return f.products, nil
}

func (f *fakeAPI) CreateProduct(_ context.Context, token string, in domain.ProductInput) (int, error) {
	f.gotTokens = append(f.gotTokens, token)
	if f.nextErr != nil {
		return 0, f.nextErr
	}
	f.nextID++
	f.products = append(f.products, domain.Product{ID: f.nextID, Name: in.Name, Price: in.Price, IsActive: in.IsActive})
	return f.nextID, nil
}

func (f *fakeAPI) UpdateProduct(_ context.Context, token string, id int, in domain.ProductInput) error {
	f.gotTokens = append(f.gotTokens, token)
	return f.nextErr
}

func (f *fakeAPI) DeleteProduct(_ context.Context, token string, id int) error {
	f.gotTokens = append(f.gotTokens, token)
	return f.nextErr
}

func newService(api *fakeAPI) *Service {
	return New(api, log.New(io.Discard, "", 0))
}

func TestLogin_StoresTokenAndUsername(t *testing.T) {
	ctx := context.Background()
	repo := kv.NewMemory()
	svc := newService(&fakeAPI{token: validToken64})

	session, err := svc.Login(ctx, repo, "  root ", "secret")
	require.NoError(t, err)
	assert.Equal(t, Session{LoggedIn: true, Username: "root"}, session)

	raw, err := repo.Get(ctx, "admin_token")
	require.NoError(t, err)
	assert.Equal(t, validToken64, string(raw))
	raw, err = repo.Get(ctx, "admin_username")
	require.NoError(t, err)
	assert.Equal(t, "root", string(raw))

	assert.Equal(t, session, svc.Session(ctx, repo))
}

func TestLogin_Rejections(t *testing.T) {
	ctx := context.Background()

	_, err := newService(&fakeAPI{}).Login(ctx, kv.NewMemory(), "", "x")
	assert.ErrorIs(t, err, ErrMissingCredentials)

	api := &fakeAPI{loginErr: &adminclient.APIError{Status: 401, Message: "Invalid credentials"}}
	repo := kv.NewMemory()
	_, err = newService(api).Login(ctx, repo, "root", "bad")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = repo.Get(ctx, "admin_token")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = newService(&fakeAPI{token: "short"}).Login(ctx, repo, "root", "secret")
	assert.Error(t, err)
	_, err = repo.Get(ctx, "admin_token")
	assert.ErrorIs(t, err, domain.ErrNotFound, "malformed token is not stored")
}

func TestCallsWithoutTokenFailFast(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	svc := newService(api)
	repo := kv.NewMemory()

	_, err := svc.Settings(ctx, repo)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	_, err = svc.Products(ctx, repo)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	err = svc.DeleteProduct(ctx, repo, 1)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	assert.Empty(t, api.gotTokens, "API never called")
	assert.Equal(t, Session{}, svc.Session(ctx, repo))
}

func TestMalformedStoredTokenIsDropped(t *testing.T) {
	ctx := context.Background()
	repo := kv.NewMemory()
	require.NoError(t, repo.Set(ctx, "admin_token", []byte("not-hex")))

	_, err := newService(&fakeAPI{}).Settings(ctx, repo)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	_, err = repo.Get(ctx, "admin_token")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUnauthorizedDropsToken(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{token: validToken64, settings: domain.Settings{}}
	svc := newService(api)
	repo := kv.NewMemory()
	_, err := svc.Login(ctx, repo, "root", "secret")
	require.NoError(t, err)

	api.nextErr = &adminclient.APIError{Status: 401, Message: "Unauthorized"}
	err = svc.UpdateSettings(ctx, repo, map[string]string{"a": "b"})
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	_, err = repo.Get(ctx, "admin_token")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = repo.Get(ctx, "admin_username")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOtherAPIErrorsKeepToken(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{token: validToken64}
	svc := newService(api)
	repo := kv.NewMemory()
	_, err := svc.Login(ctx, repo, "root", "secret")
	require.NoError(t, err)

	api.nextErr = &adminclient.APIError{Status: 500, Message: "db down"}
	err = svc.DeleteProduct(ctx, repo, 3)
	var apiErr *adminclient.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 500, apiErr.Status)
	assert.True(t, svc.Session(ctx, repo).LoggedIn)
}

func TestSettingsAndProductsRoundTrip(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{token: validToken64, settings: domain.Settings{"site_title": {Value: "Old", Type: "text"}}}
	svc := newService(api)
	repo := kv.NewMemory()
	_, err := svc.Login(ctx, repo, "root", "secret")
	require.NoError(t, err)

	require.NoError(t, svc.UpdateSettings(ctx, repo, map[string]string{"site_title": "New"}))
	settings, err := svc.Settings(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, "New", settings["site_title"].Value)

	id, err := svc.CreateProduct(ctx, repo, domain.ProductInput{Name: "Pro", Price: decimal.NewFromInt(10), IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, 1, id)
	products, err := svc.Products(ctx, repo)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Pro", products[0].Name)

	for _, tok := range api.gotTokens {
		assert.Equal(t, validToken64, tok)
	}
}

func TestProductValidation(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{token: validToken64}
	svc := newService(api)
	repo := kv.NewMemory()
	_, err := svc.Login(ctx, repo, "root", "secret")
	require.NoError(t, err)

	_, err = svc.CreateProduct(ctx, repo, domain.ProductInput{Name: " ", Price: decimal.NewFromInt(1)})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "name", verr.Field)

	err = svc.UpdateProduct(ctx, repo, 1, domain.ProductInput{Name: "X", Price: decimal.NewFromInt(-1)})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "price", verr.Field)
	assert.Empty(t, api.gotTokens)
}

func TestLogoutClearsSession(t *testing.T) {
	ctx := context.Background()
	svc := newService(&fakeAPI{token: validToken64})
	repo := kv.NewMemory()
	_, err := svc.Login(ctx, repo, "root", "secret")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, repo))
	assert.False(t, svc.Session(ctx, repo).LoggedIn)
	require.NoError(t, svc.Logout(ctx, repo), "logout is idempotent")
}

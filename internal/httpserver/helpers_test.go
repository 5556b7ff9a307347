package httpserver

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/repository/kv"
	adminsvc "storefront/internal/service/admin"
	"storefront/internal/service/checkout"
	"storefront/internal/service/visitor"
)

func logDiscard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type stubCheckout struct {
	result  checkout.Result
	err     error
	cleared bool
	calls   int
}

func (s *stubCheckout) Checkout(ctx context.Context, c checkout.Cart, _ checkout.Input) (checkout.Result, error) {
	s.calls++
	if s.err != nil {
		return checkout.Result{}, s.err
	}
	if err := c.Clear(ctx); err != nil {
		return checkout.Result{}, err
	}
	return s.result, nil
}

func (s *stubCheckout) Confirm(context.Context, checkout.Cart) (bool, error) {
	return s.cleared, nil
}

type stubCatalog struct {
	products    []domain.Product
	err         error
	invalidated int
}

func (s *stubCatalog) List(context.Context) ([]domain.Product, error) {
	return s.products, s.err
}

func (s *stubCatalog) Get(_ context.Context, id int) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, p := range s.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubCatalog) Invalidate() { s.invalidated++ }

// stubAdmin keeps a per-storage login flag the way the real console keeps a token.
type stubAdmin struct {
	settings domain.Settings
	err      error
	created  []domain.ProductInput
}

func (s *stubAdmin) loggedIn(ctx context.Context, repo kv.Repository) bool {
	_, err := repo.Get(ctx, "admin_token")
	return err == nil
}

func (s *stubAdmin) Login(ctx context.Context, repo kv.Repository, username, password string) (adminsvc.Session, error) {
	if password != "secret" {
		return adminsvc.Session{}, adminsvc.ErrInvalidCredentials
	}
	if err := repo.Set(ctx, "admin_token", []byte("t")); err != nil {
		return adminsvc.Session{}, err
	}
	return adminsvc.Session{LoggedIn: true, Username: username}, nil
}

func (s *stubAdmin) Logout(ctx context.Context, repo kv.Repository) error {
	return repo.Delete(ctx, "admin_token")
}

func (s *stubAdmin) Session(ctx context.Context, repo kv.Repository) adminsvc.Session {
	return adminsvc.Session{LoggedIn: s.loggedIn(ctx, repo)}
}

func (s *stubAdmin) Settings(ctx context.Context, repo kv.Repository) (domain.Settings, error) {
	if !s.loggedIn(ctx, repo) {
		return nil, adminsvc.ErrNotLoggedIn
	}
	return s.settings, s.err
}

func (s *stubAdmin) UpdateSettings(ctx context.Context, repo kv.Repository, _ map[string]string) error {
	if !s.loggedIn(ctx, repo) {
		return adminsvc.ErrNotLoggedIn
	}
	return s.err
}

func (s *stubAdmin) Products(ctx context.Context, repo kv.Repository) ([]domain.Product, error) {
	if !s.loggedIn(ctx, repo) {
		return nil, adminsvc.ErrNotLoggedIn
	}
	return nil, s.err
}

func (s *stubAdmin) CreateProduct(ctx context.Context, repo kv.Repository, in domain.ProductInput) (int, error) {
	if !s.loggedIn(ctx, repo) {
		return 0, adminsvc.ErrNotLoggedIn
	}
	if s.err != nil {
		return 0, s.err
	}
	s.created = append(s.created, in)
	return len(s.created), nil
}

func (s *stubAdmin) UpdateProduct(ctx context.Context, repo kv.Repository, _ int, _ domain.ProductInput) error {
	if !s.loggedIn(ctx, repo) {
		return adminsvc.ErrNotLoggedIn
	}
	return s.err
}

func (s *stubAdmin) DeleteProduct(ctx context.Context, repo kv.Repository, _ int) error {
	if !s.loggedIn(ctx, repo) {
		return adminsvc.ErrNotLoggedIn
	}
	return s.err
}

type testEnv struct {
	router   *gin.Engine
	storage  kv.Repository
	visitors *visitor.Registry
	checkout *stubCheckout
	catalog  *stubCatalog
	admin    *stubAdmin
	cookies  []*http.Cookie
}

// fixedVisitor identifies every request as the same visitor.
type fixedVisitor string

func (v fixedVisitor) Identify(http.ResponseWriter, *http.Request) (string, error) {
	return string(v), nil
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, visitor.NewSessions("test-secret", false))
}

func newTestEnvWith(t *testing.T, sessions VisitorIdentifier) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	storage := kv.NewMemory()
	env := &testEnv{
		storage:  storage,
		visitors: visitor.NewRegistry(storage, time.Hour, logDiscard()),
		checkout: &stubCheckout{},
		catalog:  &stubCatalog{},
		admin:    &stubAdmin{},
	}
	router, err := buildRouter(logDiscard(), Deps{
		Storage:  storage,
		Sessions: sessions,
		Visitors: env.visitors,
		Checkout: env.checkout,
		Catalog:  env.catalog,
		Admin:    env.admin,
	})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	env.router = router
	return env
}

// do sends a request as the same visitor across calls.
func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range e.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	if cookies := rec.Result().Cookies(); len(cookies) > 0 {
		e.cookies = cookies
	}
	return rec
}

package httpserver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/repository/kv"
	adminsvc "storefront/internal/service/admin"
	"storefront/internal/service/cart"
	"storefront/internal/service/checkout"
)

// VisitorIdentifier resolves the visitor behind a request, issuing a cookie if needed.
type VisitorIdentifier interface {
	Identify(w http.ResponseWriter, r *http.Request) (string, error)
}

// VisitorStore hands out per-visitor state.
type VisitorStore interface {
	Cart(visitorID string) *cart.Store
	Storage(visitorID string) kv.Repository
}

type CheckoutService interface {
	Checkout(ctx context.Context, c checkout.Cart, in checkout.Input) (checkout.Result, error)
	Confirm(ctx context.Context, c checkout.Cart) (bool, error)
}

type CatalogService interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id int) (*domain.Product, error)
	Invalidate()
}

type AdminService interface {
	Login(ctx context.Context, repo kv.Repository, username, password string) (adminsvc.Session, error)
	Logout(ctx context.Context, repo kv.Repository) error
	Session(ctx context.Context, repo kv.Repository) adminsvc.Session
	Settings(ctx context.Context, repo kv.Repository) (domain.Settings, error)
	UpdateSettings(ctx context.Context, repo kv.Repository, values map[string]string) error
	Products(ctx context.Context, repo kv.Repository) ([]domain.Product, error)
	CreateProduct(ctx context.Context, repo kv.Repository, in domain.ProductInput) (int, error)
	UpdateProduct(ctx context.Context, repo kv.Repository, id int, in domain.ProductInput) error
	DeleteProduct(ctx context.Context, repo kv.Repository, id int) error
}

// Deps carries the services the routes call into.
type Deps struct {
	Storage     kv.Repository
	Sessions    VisitorIdentifier
	Visitors    VisitorStore
	Checkout    CheckoutService
	Catalog     CatalogService
	Admin       AdminService
	CORSOrigins []string
}

func (d Deps) validate() error {
	switch {
	case d.Sessions == nil:
		return errors.New("httpserver: sessions not configured")
	case d.Visitors == nil:
		return errors.New("httpserver: visitor store not configured")
	case d.Checkout == nil:
		return errors.New("httpserver: checkout service not configured")
	case d.Catalog == nil:
		return errors.New("httpserver: catalog not configured")
	case d.Admin == nil:
		return errors.New("httpserver: admin service not configured")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery(), corsMiddleware(deps.CORSOrigins))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Storage))

	api := router.Group("/api")
	api.Use(visitorMiddleware(deps.Sessions, logger))

	api.GET("/products", listProductsHandler(deps.Catalog, logger))
	api.GET("/products/:id", getProductHandler(deps.Catalog))

	api.GET("/cart", getCartHandler(deps.Visitors))
	api.DELETE("/cart", clearCartHandler(deps.Visitors))
	api.GET("/cart/count", cartCountHandler(deps.Visitors))
	api.GET("/cart/events", cartEventsHandler(deps.Visitors))
	api.POST("/cart/items", addCartItemHandler(deps.Visitors, deps.Catalog))
	api.PUT("/cart/items/:id", setCartQuantityHandler(deps.Visitors))
	api.DELETE("/cart/items/:id", removeCartItemHandler(deps.Visitors))

	api.POST("/checkout", checkoutHandler(deps.Visitors, deps.Checkout, logger))
	api.GET("/order-success", orderSuccessHandler(deps.Visitors, deps.Checkout))

	admin := api.Group("/admin")
	admin.POST("/login", adminLoginHandler(deps.Visitors, deps.Admin, logger))
	admin.POST("/logout", adminLogoutHandler(deps.Visitors, deps.Admin))
	admin.GET("/session", adminSessionHandler(deps.Visitors, deps.Admin))
	admin.GET("/settings", adminSettingsHandler(deps.Visitors, deps.Admin, logger))
	admin.PUT("/settings", adminUpdateSettingsHandler(deps.Visitors, deps.Admin, logger))
	admin.GET("/products", adminProductsHandler(deps.Visitors, deps.Admin, logger))
	admin.POST("/products", adminCreateProductHandler(deps.Visitors, deps.Admin, deps.Catalog, logger))
	admin.PUT("/products/:id", adminUpdateProductHandler(deps.Visitors, deps.Admin, deps.Catalog, logger))
	admin.DELETE("/products/:id", adminDeleteProductHandler(deps.Visitors, deps.Admin, deps.Catalog, logger))

	return router, nil
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	// The visitor cookie needs credentialed requests, which browsers refuse
	// with a literal "*"; echo the caller's origin instead.
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

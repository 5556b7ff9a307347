package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/service/cart"
)

type addItemRequest struct {
	ID       int              `json:"id" binding:"required"`
	Name     string           `json:"name"`
	Price    *decimal.Decimal `json:"price"`
	Duration string           `json:"duration"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func visitorCart(c *gin.Context, visitors VisitorStore) *cart.Store {
	return visitors.Cart(visitorFromContext(c.Request.Context()))
}

func getCartHandler(visitors VisitorStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := visitorCart(c, visitors)
		c.JSON(http.StatusOK, toCartResponse(store.Summary(c.Request.Context())))
	}
}

func cartCountHandler(visitors VisitorStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := visitorCart(c, visitors)
		c.JSON(http.StatusOK, gin.H{"count": store.Count(c.Request.Context())})
	}
}

// addCartItemHandler adds one unit of a product. A body carrying only the id
// is completed from the catalog.
func addCartItemHandler(visitors VisitorStore, catalog CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addItemRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.ID <= 0 {
			writeError(c, http.StatusBadRequest, "invalid cart item")
			return
		}

		ctx := c.Request.Context()
		var ref domain.ProductRef
		if strings.TrimSpace(req.Name) == "" || req.Price == nil {
			product, err := catalog.Get(ctx, req.ID)
			if errors.Is(err, domain.ErrNotFound) {
				writeError(c, http.StatusNotFound, "product not found")
				return
			}
			if err != nil {
				writeError(c, http.StatusBadGateway, "catalog unavailable")
				return
			}
			ref = product.Ref()
		} else {
			if req.Price.IsNegative() {
				writeError(c, http.StatusBadRequest, "invalid cart item")
				return
			}
			ref = domain.ProductRef{ID: req.ID, Name: req.Name, Price: *req.Price, Duration: req.Duration}
		}

		store := visitorCart(c, visitors)
		if err := store.Add(ctx, ref); err != nil {
			writeCartError(c, err)
			return
		}
		c.JSON(http.StatusOK, toCartResponse(store.Summary(ctx)))
	}
}

func setCartQuantityHandler(visitors VisitorStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			writeError(c, http.StatusBadRequest, "invalid item id")
			return
		}
		var req setQuantityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "quantity is required")
			return
		}

		ctx := c.Request.Context()
		store := visitorCart(c, visitors)
		if err := store.SetQuantity(ctx, id, *req.Quantity); err != nil {
			writeCartError(c, err)
			return
		}
		c.JSON(http.StatusOK, toCartResponse(store.Summary(ctx)))
	}
}

func removeCartItemHandler(visitors VisitorStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			writeError(c, http.StatusBadRequest, "invalid item id")
			return
		}

		ctx := c.Request.Context()
		store := visitorCart(c, visitors)
		if err := store.Remove(ctx, id); err != nil {
			writeCartError(c, err)
			return
		}
		c.JSON(http.StatusOK, toCartResponse(store.Summary(ctx)))
	}
}

func clearCartHandler(visitors VisitorStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		store := visitorCart(c, visitors)
		if err := store.Clear(ctx); err != nil {
			writeCartError(c, err)
			return
		}
		c.JSON(http.StatusOK, toCartResponse(store.Summary(ctx)))
	}
}

func writeCartError(c *gin.Context, err error) {
	if errors.Is(err, cart.ErrInvalidItem) {
		writeError(c, http.StatusBadRequest, "invalid cart item")
		return
	}
	if errors.Is(err, cart.ErrWriteUnavailable) {
		writeError(c, http.StatusServiceUnavailable, "cart storage unavailable")
		return
	}
	writeError(c, http.StatusInternalServerError, "cart update failed")
}

package httpserver

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

func listProductsHandler(catalog CatalogService, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := catalog.List(c.Request.Context())
		if err != nil {
			logger.Printf("list products: %v", err)
			writeError(c, http.StatusBadGateway, "catalog unavailable")
			return
		}
		if products == nil {
			products = []domain.Product{}
		}
		c.JSON(http.StatusOK, products)
	}
}

func getProductHandler(catalog CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			writeError(c, http.StatusBadRequest, "invalid product id")
			return
		}
		product, err := catalog.Get(c.Request.Context(), id)
		if errors.Is(err, domain.ErrNotFound) {
			writeError(c, http.StatusNotFound, "product not found")
			return
		}
		if err != nil {
			writeError(c, http.StatusBadGateway, "catalog unavailable")
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

package httpserver

import (
	"encoding/json"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/service/cart"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, errorResponse{Error: msg})
}

type cartResponse struct {
	Items []domain.CartItem `json:"items"`
	Count int               `json:"count"`
	Total json.Number       `json:"total"`
}

func toCartResponse(s cart.Summary) cartResponse {
	items := s.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	return cartResponse{Items: items, Count: s.Count, Total: json.Number(s.Total.String())}
}

type cartEvent struct {
	Count int         `json:"count"`
	Total json.Number `json:"total"`
}

func toCartEvent(s cart.Summary) cartEvent {
	return cartEvent{Count: s.Count, Total: json.Number(s.Total.String())}
}

// pathID parses a positive integer path parameter.
func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

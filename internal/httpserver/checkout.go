package httpserver

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/client/payment"
	"storefront/internal/service/checkout"
)

func checkoutHandler(visitors VisitorStore, svc CheckoutService, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in checkout.Input
		if err := c.ShouldBindJSON(&in); err != nil {
			writeError(c, http.StatusBadRequest, "invalid request body")
			return
		}

		res, err := svc.Checkout(c.Request.Context(), visitorCart(c, visitors), in)
		if err != nil {
			writeCheckoutError(c, err, logger)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func orderSuccessHandler(visitors VisitorStore, svc CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cleared, err := svc.Confirm(c.Request.Context(), visitorCart(c, visitors))
		if err != nil {
			writeCartError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "cart_cleared": cleared})
	}
}

func writeCheckoutError(c *gin.Context, err error, logger *log.Logger) {
	switch {
	case errors.Is(err, checkout.ErrMissingFields),
		errors.Is(err, checkout.ErrInvalidEmail),
		errors.Is(err, checkout.ErrEmptyCart):
		writeError(c, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, payment.ErrUnavailable):
		writeError(c, http.StatusServiceUnavailable, "payment service unavailable")
		return
	}

	var perr *payment.Error
	if errors.As(err, &perr) && perr.Message != "" {
		writeError(c, http.StatusBadGateway, perr.Message)
		return
	}
	logger.Printf("checkout: %v", err)
	writeError(c, http.StatusBadGateway, "failed to create payment")
}

package httpserver

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	adminclient "storefront/internal/client/admin"
	"storefront/internal/domain"
	"storefront/internal/repository/kv"
	adminsvc "storefront/internal/service/admin"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func visitorStorage(c *gin.Context, visitors VisitorStore) kv.Repository {
	return visitors.Storage(visitorFromContext(c.Request.Context()))
}

func adminLoginHandler(visitors VisitorStore, svc AdminService, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid request body")
			return
		}
		session, err := svc.Login(c.Request.Context(), visitorStorage(c, visitors), req.Username, req.Password)
		if err != nil {
			writeAdminError(c, err, logger)
			return
		}
		c.JSON(http.StatusOK, session)
	}
}

func adminLogoutHandler(visitors VisitorStore, svc AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Logout(c.Request.Context(), visitorStorage(c, visitors)); err != nil {
			writeError(c, http.StatusInternalServerError, "logout failed")
			return
		}
		c.JSON(http.StatusOK, adminsvc.Session{})
	}
}

func adminSessionHandler(visitors VisitorStore, svc AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.Session(c.Request.Context(), visitorStorage(c, visitors)))
	}
}

func adminSettingsHandler(visitors VisitorStore, svc AdminService, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		settings, err := svc.Settings(c.Request.Context(), visitorStorage(c, visitors))
		if err != nil {
			writeAdminError(c, err, logger)
			return
		}
		if settings == nil {
			settings = domain.Settings{}
		}
		c.JSON(http.StatusOK, settings)
	}
}

func adminUpdateSettingsHandler(visitors VisitorStore, svc AdminService, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var values map[string]string
		if err := c.ShouldBindJSON(&values); err != nil || len(values) == 0 {
			writeError(c, http.StatusBadRequest, "settings must be a non-empty object of strings")
			return
		}
		if err := svc.UpdateSettings(c.Request.Context(), visitorStorage(c, visitors), values); err != nil {
			writeAdminError(c, err, logger)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func adminProductsHandler(visitors VisitorStore, svc AdminService, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := svc.Products(c.Request.Context(), visitorStorage(c, visitors))
		if err != nil {
			writeAdminError(c, err, logger)
			return
		}
		if products == nil {
			products = []domain.Product{}
		}
		c.JSON(http.StatusOK, products)
	}
}

func adminCreateProductHandler(visitors VisitorStore, svc AdminService, catalog CatalogService, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in domain.ProductInput
		if err := c.ShouldBindJSON(&in); err != nil {
			writeError(c, http.StatusBadRequest, "invalid product")
			return
		}
		id, err := svc.CreateProduct(c.Request.Context(), visitorStorage(c, visitors), in)
		if err != nil {
			writeAdminError(c, err, logger)
			return
		}
		catalog.Invalidate()
		c.JSON(http.StatusCreated, gin.H{"success": true, "id": id})
	}
}

func adminUpdateProductHandler(visitors VisitorStore, svc AdminService, catalog CatalogService, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			writeError(c, http.StatusBadRequest, "invalid product id")
			return
		}
		var in domain.ProductInput
		if err := c.ShouldBindJSON(&in); err != nil {
			writeError(c, http.StatusBadRequest, "invalid product")
			return
		}
		if err := svc.UpdateProduct(c.Request.Context(), visitorStorage(c, visitors), id, in); err != nil {
			writeAdminError(c, err, logger)
			return
		}
		catalog.Invalidate()
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func adminDeleteProductHandler(visitors VisitorStore, svc AdminService, catalog CatalogService, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			writeError(c, http.StatusBadRequest, "invalid product id")
			return
		}
		if err := svc.DeleteProduct(c.Request.Context(), visitorStorage(c, visitors), id); err != nil {
			writeAdminError(c, err, logger)
			return
		}
		catalog.Invalidate()
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func writeAdminError(c *gin.Context, err error, logger *log.Logger) {
	var verr *adminsvc.ValidationError
	var apiErr *adminclient.APIError
	switch {
	case errors.Is(err, adminsvc.ErrNotLoggedIn), errors.Is(err, adminsvc.ErrInvalidCredentials):
		writeError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, adminsvc.ErrMissingCredentials):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.As(err, &verr):
		writeError(c, http.StatusBadRequest, verr.Error())
	case errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500:
		writeError(c, apiErr.Status, apiErr.Message)
	default:
		logger.Printf("admin api: %v", err)
		writeError(c, http.StatusBadGateway, "admin service unavailable")
	}
}

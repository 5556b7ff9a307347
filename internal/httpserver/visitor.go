package httpserver

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

type ctxKey string

const visitorCtxKey ctxKey = "visitor"

// visitorMiddleware makes sure every API request belongs to a visitor and
// stores the id on the request context.
func visitorMiddleware(sessions VisitorIdentifier, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := sessions.Identify(c.Writer, c.Request)
		if err != nil {
			logger.Printf("identify visitor: %v", err)
			writeError(c, http.StatusInternalServerError, "failed to start session")
			c.Abort()
			return
		}
		ctx := context.WithValue(c.Request.Context(), visitorCtxKey, id)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func visitorFromContext(ctx context.Context) string {
	id, _ := ctx.Value(visitorCtxKey).(string)
	return id
}

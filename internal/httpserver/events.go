package httpserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const eventKeepAlive = 25 * time.Second

// cartEventsHandler streams a "cart-updated" event with the cart badge
// values on every change. The first event is the current state.
func cartEventsHandler(visitors VisitorStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		store := visitorCart(c, visitors)

		// Listeners run on the mutating request; never block it on a slow
		// stream. A pending signal already covers any later change.
		changed := make(chan struct{}, 1)
		unsubscribe := store.Subscribe(func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
		defer unsubscribe()

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)

		send := func() {
			c.SSEvent("cart-updated", toCartEvent(store.Summary(ctx)))
			c.Writer.Flush()
		}
		send()

		keepAlive := time.NewTicker(eventKeepAlive)
		defer keepAlive.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-changed:
				send()
			case <-keepAlive.C:
				fmt.Fprint(c.Writer, ": keep-alive\n\n")
				c.Writer.Flush()
			}
		}
	}
}

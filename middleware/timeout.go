package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// QueryTimeout bounds the request context so store queries started by the
// handler are cancelled once d elapses. A non-positive d disables it.
func QueryTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Timeout bounds request handling by deadline-ing the request context. The
// chain runs synchronously; blocking work (database, redis, SMTP) takes the
// context and unblocks when the deadline fires. If the deadline expired and
// no handler wrote a response, a 504 goes out. Writing from the same
// goroutine as the handlers keeps the response writer race-free.
func Timeout(duration time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), duration)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{
				"status":  "error",
				"message": "request timeout",
			})
		}
	}
}

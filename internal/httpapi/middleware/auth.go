// Package middleware – ops API authentication
//
// The read-only ops endpoints are guarded by a single static bearer token.
// There are no user accounts here; the token gates operators only.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// BearerAuth returns a middleware requiring "Authorization: Bearer <token>".
// Comparison is constant time. An empty configured token disables the
// endpoints entirely rather than leaving them open.
func BearerAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			abortUnauthorized(c)
			return
		}
		h := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(h, prefix) {
			abortUnauthorized(c)
			return
		}
		if subtle.ConstantTimeCompare([]byte(strings.TrimPrefix(h, prefix)), []byte(token)) != 1 {
			abortUnauthorized(c)
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       "unauthorized",
		"message":    "missing or invalid token",
	})
}

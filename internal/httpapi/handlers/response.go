// Package handlers implements the HTTP endpoints: the Telegram webhook that
// feeds the orchestrator, and a small read-only ops API over the catalog and
// the pending requests.
package handlers

import (
	"github.com/gin-gonic/gin"
)

// Error codes used in failure envelopes.
const (
	CodeBadRequest   = "bad_request"
	CodeUnauthorized = "unauthorized"
	CodeNotFound     = "not_found"
	CodeInternal     = "internal_error"
)

// Fail writes the standard error envelope, mirroring the shape emitted by
// the middleware, and aborts the chain.
func Fail(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": c.Writer.Header().Get("X-Request-ID"),
		"code":       code,
		"message":    message,
	})
}

package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmoran/go-movie-channel/internal/bot"
	"github.com/dmoran/go-movie-channel/internal/httpapi/middleware"
	"github.com/dmoran/go-movie-channel/internal/telegram"
)

// Webhook returns the handler for inbound Telegram updates. The path secret
// authenticates Telegram; anything else is rejected without detail. A valid
// update is handled synchronously and always acknowledged with 200 so
// Telegram does not redeliver it: conversational failures are answered in
// the chat, not with HTTP status codes.
func Webhook(orch *bot.Orchestrator, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if subtle.ConstantTimeCompare([]byte(c.Param("secret")), []byte(secret)) != 1 {
			Fail(c, http.StatusUnauthorized, CodeUnauthorized, "invalid webhook secret")
			return
		}

		var u telegram.Update
		if err := c.ShouldBindJSON(&u); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("malformed webhook payload")
			Fail(c, http.StatusBadRequest, CodeBadRequest, "malformed update payload")
			return
		}

		orch.HandleUpdate(c.Request.Context(), &u)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

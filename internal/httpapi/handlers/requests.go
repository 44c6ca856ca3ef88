package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmoran/go-movie-channel/internal/httpapi/middleware"
	"github.com/dmoran/go-movie-channel/internal/services"
)

// ListRequests returns the outstanding user requests, oldest first. The
// PendingRequest JSON tags shape the payload directly.
//
//	GET /api/v1/requests
func ListRequests(requests *services.RequestService) gin.HandlerFunc {
	return func(c *gin.Context) {
		pending, err := requests.Pending(c.Request.Context())
		if err != nil {
			middleware.LoggerFrom(c).Error().Err(err).Msg("pending request listing failed")
			Fail(c, http.StatusInternalServerError, CodeInternal, "could not list requests")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"items": pending,
			"total": len(pending),
		})
	}
}

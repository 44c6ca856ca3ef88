package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmoran/go-movie-channel/internal/domain"
	"github.com/dmoran/go-movie-channel/internal/httpapi/middleware"
	"github.com/dmoran/go-movie-channel/internal/services"
	"github.com/dmoran/go-movie-channel/internal/utils"
)

// maxPageSize caps the ops catalog page size.
const maxPageSize = 100

// movieItem is the ops API projection of a catalog record.
type movieItem struct {
	Key           string   `json:"key"`
	Names         []string `json:"names"`
	ExternalID    int64    `json:"external_id"`
	Link          string   `json:"link"`
	LiveMessageID *int64   `json:"live_message_id,omitempty"`
	UpdatedAt     string   `json:"updated_at"`
}

func toMovieItem(m *domain.MovieRecord) movieItem {
	return movieItem{
		Key:           m.Key,
		Names:         m.Names,
		ExternalID:    m.ExternalID,
		Link:          m.Link,
		LiveMessageID: m.LastMessageID,
		UpdatedAt:     m.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// ListCatalog returns one catalog page with pagination metadata.
//
//	GET /api/v1/catalog?page=1&page_size=20
func ListCatalog(catalog *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, size := utils.ClampPage(
			utils.AtoiDefault(c.Query("page"), 1),
			utils.AtoiDefault(c.Query("page_size"), 20),
			maxPageSize,
		)

		items, total, err := catalog.Page(c.Request.Context(), page, size)
		if err != nil {
			middleware.LoggerFrom(c).Error().Err(err).Msg("catalog page failed")
			Fail(c, http.StatusInternalServerError, CodeInternal, "could not list catalog")
			return
		}

		out := make([]movieItem, 0, len(items))
		for i := range items {
			out = append(out, toMovieItem(&items[i]))
		}
		c.JSON(http.StatusOK, gin.H{
			"items":       out,
			"page":        page,
			"page_size":   size,
			"total":       total,
			"total_pages": utils.TotalPages(total, size),
		})
	}
}

// DeleteCatalogEntry removes a catalog record by canonical key. A live
// channel announcement is left in place; only the catalog entry goes away.
//
//	DELETE /api/v1/catalog/:key
func DeleteCatalogEntry(catalog *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Param("key")

		err := catalog.Remove(c.Request.Context(), key)
		switch {
		case err == nil:
			c.JSON(http.StatusOK, gin.H{"deleted": key})
		case errors.Is(err, services.ErrMovieNotFound), errors.Is(err, services.ErrEmptyTitle):
			Fail(c, http.StatusNotFound, CodeNotFound, "no catalog entry for key")
		default:
			middleware.LoggerFrom(c).Error().Err(err).Str("key", key).Msg("catalog delete failed")
			Fail(c, http.StatusInternalServerError, CodeInternal, "could not delete catalog entry")
		}
	}
}

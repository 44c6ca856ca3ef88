// Package httpapi assembles the Gin engine: middleware chain, the Telegram
// webhook route, the read-only ops API, and the infra endpoints.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/dmoran/go-movie-channel/internal/bot"
	"github.com/dmoran/go-movie-channel/internal/config"
	"github.com/dmoran/go-movie-channel/internal/httpapi/handlers"
	"github.com/dmoran/go-movie-channel/internal/httpapi/middleware"
	"github.com/dmoran/go-movie-channel/internal/services"
)

// Deps carries everything the routes need.
type Deps struct {
	DB           *gorm.DB
	Orchestrator *bot.Orchestrator
	Catalog      *services.CatalogService
	Requests     *services.RequestService
}

// NewRouter builds the engine with the full middleware chain and all routes.
func NewRouter(cfg config.Config, deps Deps) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))
	r.Use(middleware.Metrics())
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	if len(cfg.CORS.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CORS.AllowedOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodDelete},
			AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
			MaxAge:       12 * time.Hour,
		}))
	}

	if cfg.RateRPS > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP())
		r.Use(limiter.Handler())
	}

	// Infra.
	r.GET("/health", handlers.Health(deps.DB))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Inbound Telegram updates.
	r.POST("/webhook/:secret", handlers.Webhook(deps.Orchestrator, cfg.Telegram.WebhookSecret))

	// Read-only ops API.
	api := r.Group("/api/v1", middleware.BearerAuth(cfg.AdminAPIToken))
	{
		api.GET("/catalog", handlers.ListCatalog(deps.Catalog))
		api.DELETE("/catalog/:key", handlers.DeleteCatalogEntry(deps.Catalog))
		api.GET("/requests", handlers.ListRequests(deps.Requests))
	}

	return r
}

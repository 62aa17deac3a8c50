// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, compression,
// CORS, security headers, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/tbourn/go-promotions-service/internal/config"
	"github.com/tbourn/go-promotions-service/internal/domain"
	"github.com/tbourn/go-promotions-service/internal/http/handlers"
	"github.com/tbourn/go-promotions-service/internal/http/middleware"
	"github.com/tbourn/go-promotions-service/internal/repo"
	"github.com/tbourn/go-promotions-service/internal/services"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"
)

// promotionRepoShim adapts the repository free functions to the
// services.PromotionRepo interface expected by the PromotionService. This
// keeps services decoupled from the concrete repo package while reusing
// existing functions.
type promotionRepoShim struct{}

// CreatePromotion proxies repo.CreatePromotion.
func (promotionRepoShim) CreatePromotion(ctx context.Context, db *gorm.DB, p *domain.Promotion) error {
	return repo.CreatePromotion(ctx, db, p)
}

// GetPromotion proxies repo.GetPromotion.
func (promotionRepoShim) GetPromotion(ctx context.Context, db *gorm.DB, id int) (*domain.Promotion, error) {
	return repo.GetPromotion(ctx, db, id)
}

// ListPromotions proxies repo.ListPromotions.
func (promotionRepoShim) ListPromotions(ctx context.Context, db *gorm.DB) ([]domain.Promotion, error) {
	return repo.ListPromotions(ctx, db)
}

// ListByName proxies repo.ListByName.
func (promotionRepoShim) ListByName(ctx context.Context, db *gorm.DB, name string) ([]domain.Promotion, error) {
	return repo.ListByName(ctx, db, name)
}

// ListByProductID proxies repo.ListByProductID.
func (promotionRepoShim) ListByProductID(ctx context.Context, db *gorm.DB, productID int) ([]domain.Promotion, error) {
	return repo.ListByProductID(ctx, db, productID)
}

// ListByType proxies repo.ListByType.
func (promotionRepoShim) ListByType(ctx context.Context, db *gorm.DB, promotionType string) ([]domain.Promotion, error) {
	return repo.ListByType(ctx, db, promotionType)
}

// ListActiveOn proxies repo.ListActiveOn.
func (promotionRepoShim) ListActiveOn(ctx context.Context, db *gorm.DB, day domain.Date) ([]domain.Promotion, error) {
	return repo.ListActiveOn(ctx, db, day)
}

// ListInactiveOn proxies repo.ListInactiveOn.
func (promotionRepoShim) ListInactiveOn(ctx context.Context, db *gorm.DB, day domain.Date) ([]domain.Promotion, error) {
	return repo.ListInactiveOn(ctx, db, day)
}

// UpdatePromotion proxies repo.UpdatePromotion.
func (promotionRepoShim) UpdatePromotion(ctx context.Context, db *gorm.DB, p *domain.Promotion) error {
	return repo.UpdatePromotion(ctx, db, p)
}

// DeactivatePromotion proxies repo.DeactivatePromotion.
func (promotionRepoShim) DeactivatePromotion(ctx context.Context, db *gorm.DB, id int, day domain.Date) (*domain.Promotion, error) {
	return repo.DeactivatePromotion(ctx, db, id, day)
}

// DeletePromotion proxies repo.DeletePromotion.
func (promotionRepoShim) DeletePromotion(ctx context.Context, db *gorm.DB, id int) error {
	return repo.DeletePromotion(ctx, db, id)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), compression, rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the promotions API under the configured base path.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Gzip response compression
//  7. Metrics
//  8. Rate limiter (per client IP)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured access logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Compress JSON responses for clients that accept it
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Token-bucket rate limiter per client IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "Location"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "Location"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.TitleNotFound,
			"The requested URL was not found on the server.")
	})
	r.NoMethod(func(c *gin.Context) {
		if allow := allowedMethods(c.Request.URL.Path, cfg.APIBasePath); allow != "" {
			c.Header("Allow", allow)
		}
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.TitleMethodNotAllowed,
			"The method is not allowed for the requested URL.")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (opt-in via SWAGGER_ENABLED)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: service ← repo/db
	svc := services.NewPromotionService(db, promotionRepoShim{})
	h := handlers.New(svc)

	// Service index document at the root
	r.GET("/", h.Index)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.GET("/promotions", h.ListPromotions)
		api.POST("/promotions", h.CreatePromotion)
		api.GET("/promotions/:id", h.GetPromotion)
		api.PUT("/promotions/:id", h.UpdatePromotion)
		api.DELETE("/promotions/:id", h.DeletePromotion)
		api.PUT("/promotions/:id/deactivate", h.DeactivatePromotion)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

// allowedMethods maps a request path onto the verbs registered for the
// matching promotions route, for use in the 405 Allow header. It returns ""
// when the path does not correspond to an API route.
func allowedMethods(path, base string) string {
	p := path
	if base != "" && base != "/" && strings.HasPrefix(p, base) {
		p = strings.TrimPrefix(p, base)
	}
	seg := strings.Split(strings.Trim(p, "/"), "/")
	switch {
	case len(seg) == 1 && seg[0] == "":
		return "GET"
	case len(seg) == 1 && seg[0] == "promotions":
		return "GET, POST"
	case len(seg) == 2 && seg[0] == "promotions":
		return "GET, PUT, DELETE"
	case len(seg) == 3 && seg[0] == "promotions" && seg[2] == "deactivate":
		return "PUT"
	}
	return ""
}

// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, rate limiting, and compression.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-closet-backend/docs"
	"github.com/tbourn/go-closet-backend/internal/cache"
	"github.com/tbourn/go-closet-backend/internal/config"
	"github.com/tbourn/go-closet-backend/internal/domain"
	"github.com/tbourn/go-closet-backend/internal/http/handlers"
	"github.com/tbourn/go-closet-backend/internal/http/middleware"
	"github.com/tbourn/go-closet-backend/internal/repo"
	"github.com/tbourn/go-closet-backend/internal/services"
)

// garmentRepoShim adapts the repository free functions to the
// services.GarmentRepo interface expected by the GarmentService.
type garmentRepoShim struct{}

// CreateGarment proxies repo.CreateGarment.
func (garmentRepoShim) CreateGarment(ctx context.Context, db *gorm.DB, g *domain.Garment) error {
	return repo.CreateGarment(ctx, db, g)
}

// GetGarment proxies repo.GetGarment.
func (garmentRepoShim) GetGarment(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Garment, error) {
	return repo.GetGarment(ctx, db, id, userID)
}

// ListGarments proxies repo.ListGarments.
func (garmentRepoShim) ListGarments(ctx context.Context, db *gorm.DB, userID string, categoryIDs []string) ([]domain.Garment, error) {
	return repo.ListGarments(ctx, db, userID, categoryIDs)
}

// DeleteGarment proxies repo.DeleteGarment.
func (garmentRepoShim) DeleteGarment(ctx context.Context, db *gorm.DB, id, userID string) error {
	return repo.DeleteGarment(ctx, db, id, userID)
}

// GetCategory proxies repo.GetCategory.
func (garmentRepoShim) GetCategory(ctx context.Context, db *gorm.DB, id string) (*domain.Category, error) {
	return repo.GetCategory(ctx, db, id)
}

// ListCategories proxies repo.ListCategories.
func (garmentRepoShim) ListCategories(ctx context.Context, db *gorm.DB) ([]domain.Category, error) {
	return repo.ListCategories(ctx, db)
}

// UpdateGarment proxies repo.UpdateGarment.
func (garmentRepoShim) UpdateGarment(ctx context.Context, db *gorm.DB, id, userID string, fields map[string]any) error {
	return repo.UpdateGarment(ctx, db, id, userID, fields)
}

// SearchGarments proxies repo.SearchGarments.
func (garmentRepoShim) SearchGarments(ctx context.Context, db *gorm.DB, userID string, f repo.GarmentFilter) ([]domain.Garment, error) {
	return repo.SearchGarments(ctx, db, userID, f)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. rdb is optional: without Redis, preferences are read straight from
// the database and the hourly generation quota is off.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID and UserID: correlation id and caller
//  3. AccessLog: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per user/IP, bypass on replay)
//  9. CORS, security headers, and gzip
func RegisterRoutes(r *gin.Engine, db *gorm.DB, rdb *redis.Client, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())
	r.Use(middleware.UserID())

	// 3) Structured logging with redaction
	r.Use(middleware.AccessLog(middleware.AccessLogOptions{MaskHeaders: []string{middleware.HeaderIdempotencyKey}}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderUserID, middleware.HeaderIdempotencyKey, "If-None-Match"}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", "ETag", middleware.HeaderIdempotencyReplayed, "Retry-After", "X-RateLimit-Remaining"}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
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
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
		DocsPrefix:   "/swagger",
	}))

	// Compress JSON bodies; Prometheus negotiates its own encoding.
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs
	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
	}

	// Dependency injection: services ← store ← repo/db (+ optional cache)
	var store services.CandidateStore = repo.NewStore(db)
	if rdb != nil {
		store = cache.NewPreferences(store, rdb, cfg.PrefsCacheTTL)
	}
	recSvc := services.NewRecommendationService(db, store, services.NewRandomSource(cfg.RandomSeed))
	recSvc.Learner.Limit = cfg.FavoriteColorLimit
	garmentSvc := services.NewGarmentService(db, garmentRepoShim{})

	h := handlers.New(recSvc, garmentSvc)
	h.IdempotencyTTL = cfg.IdempotencyTTL

	quota := middleware.NewGenerationQuota(rdb, cfg.GenerateQuota, time.Hour)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath) // e.g. "/api/v1"
	{
		// Taxonomy and closet
		api.GET("/categories", h.ListCategories)
		api.POST("/garments", h.CreateGarment)
		api.GET("/garments", h.ListGarments)
		api.GET("/garments/search", h.SearchGarments)
		api.GET("/garments/:id", h.GetGarment)
		api.PUT("/garments/:id", h.UpdateGarment)
		api.DELETE("/garments/:id", h.DeleteGarment)

		// Recommendations
		recs := api.Group("/recommendations")
		recs.POST("/generate", quota.Handler(), h.GenerateRecommendation)
		recs.GET("/history", h.ListHistory)
		recs.GET("/stats", h.GetStats)
		recs.GET("/preferences", h.GetPreferences)
		recs.PUT("/preferences", h.UpdatePreferences)
		recs.GET("/:id", h.GetRecommendation)
		recs.POST("/:id/rate", h.RateRecommendation)
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

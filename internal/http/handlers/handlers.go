// Package handlers exposes the closet API over HTTP.
//
// Endpoints (relative to the API base path):
//
//	POST   /recommendations/generate
//	GET    /recommendations/history
//	GET    /recommendations/stats
//	GET    /recommendations/preferences
//	PUT    /recommendations/preferences
//	GET    /recommendations/{id}
//	POST   /recommendations/{id}/rate
//	GET    /categories
//	POST   /garments
//	GET    /garments
//	GET    /garments/{id}
//	DELETE /garments/{id}
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses (including conditional
// responses and idempotent replays).
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-closet-backend/internal/domain"
	"github.com/tbourn/go-closet-backend/internal/http/middleware"
	"github.com/tbourn/go-closet-backend/internal/services"
	"github.com/tbourn/go-closet-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// RecommendationService generates and rates outfits and reports on them.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type RecommendationService interface {
	Generate(ctx context.Context, userID, occasion, weather string, categoryIDs []string) (services.Outcome, error)
	Get(ctx context.Context, userID, id string) (*services.Recommendation, error)
	Rate(ctx context.Context, in services.RateInput) (*services.RatingAck, error)
	History(ctx context.Context, userID string, page, pageSize int) (*services.HistoryPage, error)
	Stats(ctx context.Context, userID string) (*services.Stats, error)
	Preferences(ctx context.Context, userID string) (*services.PreferencesView, error)
	UpdatePreferences(ctx context.Context, userID string, colors *[]string, style *string) (*services.PreferencesView, error)

	// Replay returns the recommendation stored under an idempotency key, or
	// nil when there is none.
	Replay(ctx context.Context, userID, scope, key string) (*services.Recommendation, error)
	// Remember stores the recommendation produced under an idempotency key.
	Remember(ctx context.Context, userID, scope, key, recommendationID string, status int, ttl time.Duration) error
}

// GarmentService manages a user's closet and the category taxonomy.
type GarmentService interface {
	Create(ctx context.Context, userID string, in services.GarmentInput) (*domain.Garment, error)
	List(ctx context.Context, userID string, categoryIDs []string) ([]domain.Garment, error)
	Get(ctx context.Context, userID, id string) (*domain.Garment, error)
	Update(ctx context.Context, userID, id string, p services.GarmentPatch) (*domain.Garment, error)
	Search(ctx context.Context, userID string, q services.GarmentQuery) ([]domain.Garment, error)
	Delete(ctx context.Context, userID, id string) error
	Categories(ctx context.Context) ([]domain.Category, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints of the API.
type Handlers struct {
	recSvc     RecommendationService
	garmentSvc GarmentService

	// IdempotencyTTL is how long a generate replay stays available.
	IdempotencyTTL time.Duration
}

// New constructs Handlers bound to the given services and installs the
// custom binding validators.
func New(recSvc RecommendationService, garmentSvc GarmentService) *Handlers {
	registerValidators()
	return &Handlers{recSvc: recSvc, garmentSvc: garmentSvc, IdempotencyTTL: 24 * time.Hour}
}

// userID returns the caller set by middleware.UserID, falling back to the
// raw X-User-ID header when that middleware is not installed.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c.Request != nil {
		return strings.TrimSpace(c.GetHeader(middleware.HeaderUserID))
	}
	return ""
}

// requireUser returns the caller or aborts with 401.
func requireUser(c *gin.Context) (string, bool) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "X-User-ID header is required")
		return "", false
	}
	return uid, true
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination parses and bounds page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	return utils.ClampPage(c.Query("page"), c.Query("page_size"), utils.DefaultPageSize, utils.MaxPageSize)
}

// notModified sets a weak ETag and reports whether the client already holds
// it, in which case a 304 has been written.
func notModified(c *gin.Context, etag string) bool {
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

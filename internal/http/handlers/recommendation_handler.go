// Recommendation HTTP handlers.
//
// Generation supports idempotent retries: when the client supplies an
// Idempotency-Key and a previous generate under the same key succeeded, the
// stored outfit is returned with `Idempotency-Replayed: true` instead of
// drawing a new one.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-closet-backend/internal/http/middleware"
	"github.com/tbourn/go-closet-backend/internal/repo"
	"github.com/tbourn/go-closet-backend/internal/services"
)

//
// DTOs
//

// GenerateRequest asks for one outfit built from the given categories, in
// the order they should be filled.
type GenerateRequest struct {
	Occasion    string   `json:"occasion"     binding:"required,occasion"                  example:"casual"`
	Weather     string   `json:"weather"      binding:"required,weather"                   example:"templado"`
	CategoryIDs []string `json:"category_ids" binding:"required,min=1,max=20,dive,required,max=64"`
}

// NotEnoughGarmentsResponse is returned with 422 when the closet cannot
// satisfy the request. Reason is one of no_warm_layer, no_footwear,
// no_candidates.
type NotEnoughGarmentsResponse struct {
	ErrorResponse
	Reason string `json:"reason" example:"no_footwear"`
}

// RateRequest is a verdict on a recommendation.
type RateRequest struct {
	Liked *bool `json:"liked" binding:"required" example:"false"`
	// GarmentIDs must be garments of the recommendation; it defaults to all of them.
	GarmentIDs []string `json:"garment_ids,omitempty" binding:"omitempty,max=20,dive,required,max=64"`
	Occasion   string   `json:"occasion,omitempty"    binding:"omitempty,occasion"`
	Weather    string   `json:"weather,omitempty"     binding:"omitempty,weather"`
	// RejectedGarmentID, on a dislike, excludes that garment from future outfits.
	RejectedGarmentID string `json:"rejected_garment_id,omitempty" binding:"omitempty,max=64"`
	Reason            string `json:"reason,omitempty"              binding:"omitempty,max=255" example:"too tight"`
}

// HistoryResponse is a page of past recommendations and rating totals.
type HistoryResponse struct {
	Recommendations []services.Recommendation `json:"recommendations"`
	Stats           repo.RatingCounts         `json:"stats"`
	Pagination      Pagination                `json:"pagination"`
}

// UpdatePreferencesRequest edits a user's taste. Omitted fields keep their
// stored value; an empty list clears the favorite colors.
type UpdatePreferencesRequest struct {
	FavoriteColors  *[]string `json:"favorite_colors"  binding:"omitempty,max=20"`
	StylePreference *string   `json:"style_preference" binding:"omitempty,max=32" example:"casual"`
}

//
// Handlers
//

// GenerateRecommendation godoc
// @ID          generateRecommendation
// @Summary     Generate an outfit
// @Description Builds one outfit from the caller's closet for the given occasion and weather.
// @Description Supports idempotency via the Idempotency-Key header (same key → same outfit).
// @Tags        Recommendations
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  true  "User ID"                                   example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"           example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.GenerateRequest  true  "Generation request"
//
// @Success     201  {object}  services.Recommendation                "New outfit"
// @Success     200  {object}  services.Recommendation                "Replayed outfit"
// @Failure     400  {object}  handlers.ErrorResponse                 "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse                 "Missing user"
// @Failure     422  {object}  handlers.NotEnoughGarmentsResponse     "Closet cannot satisfy the request"
// @Failure     429  {object}  handlers.ErrorResponse                 "Rate limited"
// @Failure     500  {object}  handlers.ErrorResponse                 "Internal error"
// @Router      /recommendations/generate [post]
func (h *Handlers) GenerateRecommendation(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBinding(c, err)
		return
	}
	ctx := c.Request.Context()

	scope := middleware.IdempotencyScope(c)
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" {
		prev, err := h.recSvc.Replay(ctx, uid, scope, idemKey)
		if err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency replay lookup failed")
		}
		if prev != nil {
			c.Header(middleware.HeaderIdempotencyReplayed, "true")
			ok(c, http.StatusOK, prev)
			return
		}
	}

	out, err := h.recSvc.Generate(ctx, uid, req.Occasion, req.Weather, req.CategoryIDs)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidOccasion):
			fail(c, http.StatusBadRequest, ErrCodeInvalidOccasion, err.Error())
		case errors.Is(err, services.ErrInvalidWeather):
			fail(c, http.StatusBadRequest, ErrCodeInvalidWeather, err.Error())
		case errors.Is(err, services.ErrNoCategories):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.Is(err, services.ErrUnknownCategory):
			fail(c, http.StatusBadRequest, ErrCodeUnknownCategory, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeGenerateFailed, err.Error())
		}
		return
	}

	if out.Status == services.StatusNotEnoughGarments {
		abortWithNotEnough(c, string(out.Veto))
		return
	}

	if idemKey != "" {
		ttl := h.IdempotencyTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		if err := h.recSvc.Remember(ctx, uid, scope, idemKey, out.Recommendation.ID, http.StatusCreated, ttl); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("storing idempotency record failed")
		}
	}
	ok(c, http.StatusCreated, out.Recommendation)
}

func abortWithNotEnough(c *gin.Context, reason string) {
	resp := NotEnoughGarmentsResponse{
		ErrorResponse: ErrorResponse{
			RequestID: c.Writer.Header().Get("X-Request-ID"),
			Code:      ErrCodeNotEnoughGarments,
			Message:   notEnoughMessage(reason),
		},
		Reason: reason,
	}
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, resp)
}

func notEnoughMessage(reason string) string {
	switch reason {
	case "no_warm_layer":
		return "cold weather needs a sweater, jacket, or coat in the selected categories"
	case "no_footwear":
		return "an outfit needs footwear in the selected categories"
	default:
		return "no garment in the selected categories fits this occasion and weather"
	}
}

// GetRecommendation godoc
// @ID          getRecommendation
// @Summary     Get a recommendation
// @Tags        Recommendations
// @Produce     json
// @Param       X-User-ID  header  string  true  "User ID"  example(user123)
// @Param       id         path    string  true  "Recommendation ID (UUID)"  format(uuid)
// @Success     200  {object}  services.Recommendation
// @Failure     401  {object}  handlers.ErrorResponse "Missing user"
// @Failure     404  {object}  handlers.ErrorResponse "Recommendation not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /recommendations/{id} [get]
func (h *Handlers) GetRecommendation(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	rec, err := h.recSvc.Get(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrRecommendationNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "recommendation not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, rec)
}

// RateRecommendation godoc
// @ID          rateRecommendation
// @Summary     Rate an outfit
// @Description Records a like or dislike. A like updates learned favorite colors; a dislike
// @Description naming rejected_garment_id keeps that garment out of future outfits.
// @Tags        Recommendations
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  true  "User ID"  example(user123)
// @Param       id         path    string  true  "Recommendation ID (UUID)"  format(uuid)
// @Param       body       body    handlers.RateRequest  true  "Verdict"
// @Success     200  {object}  services.RatingAck
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse "Missing user"
// @Failure     404  {object}  handlers.ErrorResponse "Recommendation not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /recommendations/{id}/rate [post]
func (h *Handlers) RateRecommendation(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	var req RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBinding(c, err)
		return
	}

	ack, err := h.recSvc.Rate(c.Request.Context(), services.RateInput{
		UserID:            uid,
		RecommendationID:  c.Param("id"),
		Liked:             *req.Liked,
		GarmentIDs:        req.GarmentIDs,
		Occasion:          req.Occasion,
		Weather:           req.Weather,
		RejectedGarmentID: req.RejectedGarmentID,
		Reason:            req.Reason,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRecommendationNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "recommendation not found")
		case errors.Is(err, services.ErrGarmentNotInOutfit):
			fail(c, http.StatusBadRequest, ErrCodeGarmentNotInOutfit, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeRateFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, ack)
}

// ListHistory godoc
// @ID          listRecommendationHistory
// @Summary     Recommendation history (paginated)
// @Description Returns past outfits, newest first, with rating totals. Supports weak ETag via If-None-Match.
// @Tags        Recommendations
// @Produce     json
// @Param       X-User-ID      header  string  true  "User ID"                      example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object} handlers.HistoryResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     401  {object} handlers.ErrorResponse "Missing user"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /recommendations/history [get]
func (h *Handlers) ListHistory(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if svc, isConcrete := h.recSvc.(*services.RecommendationService); isConcrete && svc.DB != nil {
		if count, maxTS, err := repo.RecommendationsStats(ctx, svc.DB, uid); err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.UnixNano()
			}
			if notModified(c, fmt.Sprintf(`W/"history:%s:%d:%d:%d:%d"`, uid, count, ts, page, pageSize)) {
				return
			}
		}
	}

	hist, err := h.recSvc.History(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, HistoryResponse{
		Recommendations: hist.Items,
		Stats:           hist.Stats,
		Pagination:      newPagination(page, pageSize, hist.Total),
	})
}

// GetStats godoc
// @ID          getRecommendationStats
// @Summary     Recommendation statistics
// @Description Rating totals, garments disliked most often, favorite occasions, and favorite colors.
// @Tags        Recommendations
// @Produce     json
// @Param       X-User-ID  header  string  true  "User ID"  example(user123)
// @Success     200  {object} services.Stats
// @Failure     401  {object} handlers.ErrorResponse "Missing user"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /recommendations/stats [get]
func (h *Handlers) GetStats(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	st, err := h.recSvc.Stats(c.Request.Context(), uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, st)
}

// GetPreferences godoc
// @ID          getPreferences
// @Summary     Get learned preferences
// @Tags        Preferences
// @Produce     json
// @Param       X-User-ID  header  string  true  "User ID"  example(user123)
// @Success     200  {object} services.PreferencesView
// @Failure     401  {object} handlers.ErrorResponse "Missing user"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /recommendations/preferences [get]
func (h *Handlers) GetPreferences(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	p, err := h.recSvc.Preferences(c.Request.Context(), uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, p)
}

// UpdatePreferences godoc
// @ID          updatePreferences
// @Summary     Edit preferences
// @Description Sets favorite colors and/or style by hand. Omitted fields keep their stored value.
// @Tags        Preferences
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  true  "User ID"  example(user123)
// @Param       body       body    handlers.UpdatePreferencesRequest  true  "Preferences"
// @Success     200  {object} services.PreferencesView
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Missing user"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /recommendations/preferences [put]
func (h *Handlers) UpdatePreferences(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	var req UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBinding(c, err)
		return
	}
	if req.FavoriteColors == nil && req.StylePreference == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "nothing to update")
		return
	}
	p, err := h.recSvc.UpdatePreferences(c.Request.Context(), uid, req.FavoriteColors, req.StylePreference)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, p)
}

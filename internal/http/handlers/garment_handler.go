// Closet HTTP handlers: garments, closet search, and the category taxonomy.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-closet-backend/internal/domain"
	"github.com/tbourn/go-closet-backend/internal/repo"
	"github.com/tbourn/go-closet-backend/internal/services"
)

// CreateGarmentRequest adds a garment to the caller's closet. Labels are free
// text; they are normalized (case, accents, English aliases) on write.
type CreateGarmentRequest struct {
	Name       string   `json:"name"                binding:"required,max=128"       example:"Camisa azul Oxford"`
	CategoryID string   `json:"category_id"         binding:"required,max=64"        example:"0b0f7c64-0c55-4d8e-9d51-3c0c5b7f1e2a"`
	Color      string   `json:"color,omitempty"     binding:"omitempty,max=32"       example:"azul"`
	Style      string   `json:"style,omitempty"     binding:"omitempty,max=32"       example:"elegante"`
	Season     string   `json:"season,omitempty"    binding:"omitempty,max=32"       example:"todo_ano"`
	Condition  string   `json:"condition,omitempty" binding:"omitempty,max=32"       example:"nuevo"`
	ImageURL   string   `json:"image_url,omitempty" binding:"omitempty,url,max=512"`
	Tags       []string `json:"tags,omitempty"      binding:"omitempty,max=20,dive,max=32" example:"verano,algodon"`
}

// UpdateGarmentRequest changes some fields of a garment. Omitted fields are
// kept; "tags": [] clears the tags.
type UpdateGarmentRequest struct {
	Name      *string  `json:"name,omitempty"      binding:"omitempty,max=128"             example:"Camisa azul marino"`
	Color     *string  `json:"color,omitempty"     binding:"omitempty,max=32"              example:"azul marino"`
	Style     *string  `json:"style,omitempty"     binding:"omitempty,max=32"`
	Season    *string  `json:"season,omitempty"    binding:"omitempty,max=32"`
	Condition *string  `json:"condition,omitempty" binding:"omitempty,max=32"`
	ImageURL  *string  `json:"image_url,omitempty" binding:"omitempty,max=512"`
	Tags      []string `json:"tags,omitempty"      binding:"omitempty,max=20,dive,max=32"`
}

// GarmentResponse is a garment as shown to clients, with its category name.
type GarmentResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	CategoryID string    `json:"category_id"`
	Category   string    `json:"category,omitempty"`
	Color      string    `json:"color,omitempty"`
	Style      string    `json:"style,omitempty"`
	Season     string    `json:"season,omitempty"`
	Condition  string    `json:"condition,omitempty"`
	ImageURL   string    `json:"image_url,omitempty"`
	Tags       []string  `json:"tags"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListGarmentsResponse wraps the caller's garments.
type ListGarmentsResponse struct {
	Garments []GarmentResponse `json:"garments"`
}

// SearchGarmentsResponse wraps the garments matching a closet search.
type SearchGarmentsResponse struct {
	Total    int               `json:"total"`
	Garments []GarmentResponse `json:"garments"`
}

// ListCategoriesResponse wraps the category taxonomy.
type ListCategoriesResponse struct {
	Categories []domain.Category `json:"categories"`
}

func toGarmentResponse(g domain.Garment) GarmentResponse {
	return GarmentResponse{
		ID:         g.ID,
		Name:       g.Name,
		CategoryID: g.CategoryID,
		Category:   g.Category.Name,
		Color:      g.Color,
		Style:      g.Style,
		Season:     g.Season,
		Condition:  g.Condition,
		ImageURL:   g.ImageURL,
		Tags:       repo.DecodeStrings(g.Tags),
		CreatedAt:  g.CreatedAt,
	}
}

// ListCategories godoc
// @ID          listCategories
// @Summary     List clothing categories
// @Tags        Closet
// @Produce     json
// @Success     200  {object} handlers.ListCategoriesResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /categories [get]
func (h *Handlers) ListCategories(c *gin.Context) {
	cats, err := h.garmentSvc.Categories(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if cats == nil {
		cats = []domain.Category{}
	}
	ok(c, http.StatusOK, ListCategoriesResponse{Categories: cats})
}

// CreateGarment godoc
// @ID          createGarment
// @Summary     Add a garment
// @Tags        Closet
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  true  "User ID"  example(user123)
// @Param       body       body    handlers.CreateGarmentRequest  true  "Garment"
// @Success     201  {object} handlers.GarmentResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Missing user"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /garments [post]
func (h *Handlers) CreateGarment(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	var req CreateGarmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBinding(c, err)
		return
	}

	g, err := h.garmentSvc.Create(c.Request.Context(), uid, services.GarmentInput{
		Name:       req.Name,
		CategoryID: req.CategoryID,
		Color:      req.Color,
		Style:      req.Style,
		Season:     req.Season,
		Condition:  req.Condition,
		ImageURL:   req.ImageURL,
		Tags:       req.Tags,
	})
	if err != nil {
		if !failGarmentInput(c, err) {
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, toGarmentResponse(*g))
}

// failGarmentInput writes a 4xx for garment validation errors and reports
// whether it did.
func failGarmentInput(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, services.ErrEmptyName):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name required")
	case errors.Is(err, services.ErrTooLong):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name too long")
	case errors.Is(err, services.ErrTooManyTags):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "too many tags")
	case errors.Is(err, services.ErrUnknownCategory):
		fail(c, http.StatusBadRequest, ErrCodeUnknownCategory, err.Error())
	case errors.Is(err, services.ErrGarmentNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "garment not found")
	default:
		return false
	}
	return true
}

// UpdateGarment godoc
// @ID          updateGarment
// @Summary     Edit a garment
// @Description Partial update. Labels and tags are normalized like on create.
// @Tags        Closet
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  true  "User ID"  example(user123)
// @Param       id         path    string  true  "Garment ID (UUID)"  format(uuid)
// @Param       body       body    handlers.UpdateGarmentRequest  true  "Fields to change"
// @Success     200  {object} handlers.GarmentResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Missing user"
// @Failure     404  {object} handlers.ErrorResponse "Garment not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /garments/{id} [put]
func (h *Handlers) UpdateGarment(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	var req UpdateGarmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBinding(c, err)
		return
	}

	g, err := h.garmentSvc.Update(c.Request.Context(), uid, c.Param("id"), services.GarmentPatch{
		Name:      req.Name,
		Color:     req.Color,
		Style:     req.Style,
		Season:    req.Season,
		Condition: req.Condition,
		ImageURL:  req.ImageURL,
		Tags:      req.Tags,
	})
	if err != nil {
		if !failGarmentInput(c, err) {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, toGarmentResponse(*g))
}

// SearchGarments godoc
// @ID          searchGarments
// @Summary     Search the closet
// @Description Matches a substring of the name or tags, a category, and a color. Colors are normalized, so "red" finds "rojo".
// @Tags        Closet
// @Produce     json
// @Param       X-User-ID    header  string  true  "User ID"  example(user123)
// @Param       q            query   string  false "Text in the name or tags"
// @Param       category_id  query   string  false "Category ID"
// @Param       color        query   string  false "Color label"
// @Success     200  {object} handlers.SearchGarmentsResponse
// @Failure     401  {object} handlers.ErrorResponse "Missing user"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /garments/search [get]
func (h *Handlers) SearchGarments(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	items, err := h.garmentSvc.Search(c.Request.Context(), uid, services.GarmentQuery{
		Text:       c.Query("q"),
		CategoryID: c.Query("category_id"),
		Color:      c.Query("color"),
	})
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	out := make([]GarmentResponse, 0, len(items))
	for _, g := range items {
		out = append(out, toGarmentResponse(g))
	}
	ok(c, http.StatusOK, SearchGarmentsResponse{Total: len(out), Garments: out})
}

// ListGarments godoc
// @ID          listGarments
// @Summary     List the closet
// @Description Returns the caller's garments, newest first. Supports weak ETag via If-None-Match.
// @Tags        Closet
// @Produce     json
// @Param       X-User-ID      header  string  true  "User ID"  example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       category_id    query   string  false "Comma-separated category IDs to filter by"
// @Success     200  {object} handlers.ListGarmentsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     401  {object} handlers.ErrorResponse "Missing user"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /garments [get]
func (h *Handlers) ListGarments(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	ctx := c.Request.Context()
	var filter []string
	if raw := c.Query("category_id"); raw != "" {
		filter = strings.Split(raw, ",")
	}

	// ETag pre-check (best effort).
	if svc, isConcrete := h.garmentSvc.(*services.GarmentService); isConcrete && svc.DB != nil {
		if count, maxTS, err := repo.GarmentsStats(ctx, svc.DB, uid); err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.UnixNano()
			}
			if notModified(c, fmt.Sprintf(`W/"garments:%s:%d:%d:%s"`, uid, count, ts, strings.Join(filter, ","))) {
				return
			}
		}
	}

	items, err := h.garmentSvc.List(ctx, uid, filter)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	out := make([]GarmentResponse, 0, len(items))
	for _, g := range items {
		out = append(out, toGarmentResponse(g))
	}
	ok(c, http.StatusOK, ListGarmentsResponse{Garments: out})
}

// GetGarment godoc
// @ID          getGarment
// @Summary     Get a garment
// @Tags        Closet
// @Produce     json
// @Param       X-User-ID  header  string  true  "User ID"  example(user123)
// @Param       id         path    string  true  "Garment ID (UUID)"  format(uuid)
// @Success     200  {object} handlers.GarmentResponse
// @Failure     401  {object} handlers.ErrorResponse "Missing user"
// @Failure     404  {object} handlers.ErrorResponse "Garment not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /garments/{id} [get]
func (h *Handlers) GetGarment(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	g, err := h.garmentSvc.Get(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrGarmentNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "garment not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, toGarmentResponse(*g))
}

// DeleteGarment godoc
// @ID          deleteGarment
// @Summary     Remove a garment
// @Description Soft-deletes a garment. Past recommendations keep showing it.
// @Tags        Closet
// @Param       X-User-ID  header  string  true  "User ID"  example(user123)
// @Param       id         path    string  true  "Garment ID (UUID)"  format(uuid)
// @Success     204  {string} string "No Content"
// @Failure     401  {object} handlers.ErrorResponse "Missing user"
// @Failure     404  {object} handlers.ErrorResponse "Garment not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /garments/{id} [delete]
func (h *Handlers) DeleteGarment(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	if err := h.garmentSvc.Delete(c.Request.Context(), uid, c.Param("id")); err != nil {
		if errors.Is(err, services.ErrGarmentNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "garment not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}

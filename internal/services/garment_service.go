// Package services – GarmentService
//
// This file implements GarmentService, which manages the closet the
// recommender draws from. It is the storage boundary for garment labels:
// color, style, and season are normalized on write, so every reader (the
// rule filter, the scorer, learning) sees canonical values.
//
// Ownership is enforced by user ID; another user's garment is reported as
// ErrGarmentNotFound.
package services

import (
	"context"
	"errors"
	"slices"
	"strings"
	"unicode/utf8"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tbourn/go-closet-backend/internal/domain"
	"github.com/tbourn/go-closet-backend/internal/outfit"
	"github.com/tbourn/go-closet-backend/internal/repo"
)

// GarmentRepo defines the repository contract required by GarmentService.
type GarmentRepo interface {
	// CreateGarment inserts g and assigns its ID.
	CreateGarment(ctx context.Context, db *gorm.DB, g *domain.Garment) error

	// GetGarment fetches a garment ensuring it belongs to the user.
	GetGarment(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Garment, error)

	// ListGarments returns the user's garments, optionally per category.
	ListGarments(ctx context.Context, db *gorm.DB, userID string, categoryIDs []string) ([]domain.Garment, error)

	// DeleteGarment soft-deletes a garment owned by the user.
	DeleteGarment(ctx context.Context, db *gorm.DB, id, userID string) error

	// GetCategory fetches a category by ID.
	GetCategory(ctx context.Context, db *gorm.DB, id string) (*domain.Category, error)

	// ListCategories returns the whole taxonomy.
	ListCategories(ctx context.Context, db *gorm.DB) ([]domain.Category, error)

	// UpdateGarment applies fields to a garment owned by the user.
	UpdateGarment(ctx context.Context, db *gorm.DB, id, userID string, fields map[string]any) error

	// SearchGarments filters the user's garments.
	SearchGarments(ctx context.Context, db *gorm.DB, userID string, f repo.GarmentFilter) ([]domain.Garment, error)
}

// GarmentInput carries the user-editable fields of a garment.
type GarmentInput struct {
	Name       string
	CategoryID string
	Color      string
	Style      string
	Season     string
	Condition  string
	ImageURL   string
	Tags       []string
}

// GarmentPatch is a partial update. Nil fields are left unchanged; a non-nil
// empty Tags clears them.
type GarmentPatch struct {
	Name      *string
	Color     *string
	Style     *string
	Season    *string
	Condition *string
	ImageURL  *string
	Tags      []string
}

// GarmentQuery is a closet search. Empty fields match everything.
type GarmentQuery struct {
	Text       string
	CategoryID string
	Color      string
}

// GarmentService provides closet operations.
type GarmentService struct {
	DB   *gorm.DB
	Repo GarmentRepo

	// NameMaxLen caps garment names by rune length.
	NameMaxLen int

	// MaxTags caps how many distinct tags a garment keeps.
	MaxTags int
}

// NewGarmentService constructs a GarmentService with default limits.
func NewGarmentService(db *gorm.DB, r GarmentRepo) *GarmentService {
	return &GarmentService{DB: db, Repo: r, NameMaxLen: 128, MaxTags: 20}
}

// Create adds a garment to userID's closet.
func (s *GarmentService) Create(ctx context.Context, userID string, in GarmentInput) (*domain.Garment, error) {
	name, err := s.cleanName(in.Name)
	if err != nil {
		return nil, err
	}
	tags, err := s.encodeTags(in.Tags)
	if err != nil {
		return nil, err
	}

	cat, err := s.Repo.GetCategory(ctx, s.DB, strings.TrimSpace(in.CategoryID))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnknownCategory
	}
	if err != nil {
		return nil, err
	}

	g := &domain.Garment{
		UserID:     userID,
		CategoryID: cat.ID,
		Name:       name,
		Color:      string(outfit.ParseColor(in.Color)),
		Style:      string(outfit.ParseStyle(in.Style)),
		Season:     string(outfit.ParseSeason(in.Season)),
		Condition:  outfit.NormalizeLabel(in.Condition),
		ImageURL:   strings.TrimSpace(in.ImageURL),
		Tags:       tags,
	}
	if err := s.Repo.CreateGarment(ctx, s.DB, g); err != nil {
		return nil, err
	}
	g.Category = *cat
	return g, nil
}

// Update applies p to one of userID's garments and returns the result.
// Labels are normalized the same way Create does.
func (s *GarmentService) Update(ctx context.Context, userID, id string, p GarmentPatch) (*domain.Garment, error) {
	fields := map[string]any{}
	if p.Name != nil {
		name, err := s.cleanName(*p.Name)
		if err != nil {
			return nil, err
		}
		fields["name"] = name
	}
	if p.Color != nil {
		fields["color"] = string(outfit.ParseColor(*p.Color))
	}
	if p.Style != nil {
		fields["style"] = string(outfit.ParseStyle(*p.Style))
	}
	if p.Season != nil {
		fields["season"] = string(outfit.ParseSeason(*p.Season))
	}
	if p.Condition != nil {
		fields["condition"] = outfit.NormalizeLabel(*p.Condition)
	}
	if p.ImageURL != nil {
		fields["image_url"] = strings.TrimSpace(*p.ImageURL)
	}
	if p.Tags != nil {
		tags, err := s.encodeTags(p.Tags)
		if err != nil {
			return nil, err
		}
		fields["tags"] = tags
	}

	err := s.Repo.UpdateGarment(ctx, s.DB, id, userID, fields)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGarmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID, id)
}

// Search filters userID's garments by text, category, and color. The color is
// normalized like stored labels, so "Red" finds "rojo".
func (s *GarmentService) Search(ctx context.Context, userID string, q GarmentQuery) ([]domain.Garment, error) {
	return s.Repo.SearchGarments(ctx, s.DB, userID, repo.GarmentFilter{
		Query:      strings.Join(strings.Fields(q.Text), " "),
		CategoryID: strings.TrimSpace(q.CategoryID),
		Color:      string(outfit.ParseColor(q.Color)),
	})
}

// List returns userID's garments, optionally restricted to categoryIDs.
func (s *GarmentService) List(ctx context.Context, userID string, categoryIDs []string) ([]domain.Garment, error) {
	return s.Repo.ListGarments(ctx, s.DB, userID, uniqueNonEmpty(categoryIDs))
}

// Get returns one of userID's garments.
func (s *GarmentService) Get(ctx context.Context, userID, id string) (*domain.Garment, error) {
	g, err := s.Repo.GetGarment(ctx, s.DB, id, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGarmentNotFound
	}
	return g, err
}

// Delete removes a garment from userID's closet. Past recommendations keep
// referring to it.
func (s *GarmentService) Delete(ctx context.Context, userID, id string) error {
	err := s.Repo.DeleteGarment(ctx, s.DB, id, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrGarmentNotFound
	}
	return err
}

// Categories returns the clothing taxonomy.
func (s *GarmentService) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.Repo.ListCategories(ctx, s.DB)
}

func (s *GarmentService) cleanName(raw string) (string, error) {
	name := strings.Join(strings.Fields(raw), " ")
	if name == "" {
		return "", ErrEmptyName
	}
	if s.NameMaxLen > 0 && utf8.RuneCountInString(name) > s.NameMaxLen {
		return "", ErrTooLong
	}
	return name, nil
}

// encodeTags folds tags like labels, drops blanks and duplicates, and keeps
// at most MaxTags of them in input order.
func (s *GarmentService) encodeTags(in []string) (datatypes.JSON, error) {
	tags := make([]string, 0, len(in))
	for _, t := range in {
		t = outfit.NormalizeLabel(t)
		if t == "" || slices.Contains(tags, t) {
			continue
		}
		if s.MaxTags > 0 && len(tags) == s.MaxTags {
			return nil, ErrTooManyTags
		}
		tags = append(tags, t)
	}
	return repo.EncodeStrings(tags)
}

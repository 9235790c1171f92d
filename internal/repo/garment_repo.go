// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Garment
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. Ownership is enforced by always scoping
// on user_id; a garment owned by someone else is indistinguishable from a
// missing one (ErrNotFound).
package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-closet-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateGarment inserts g, assigning an ID and UTC timestamps when missing.
func CreateGarment(ctx context.Context, db *gorm.DB, g *domain.Garment) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	g.UpdatedAt = now
	return db.WithContext(ctx).Omit("Category").Create(g).Error
}

// GetGarment fetches a garment with its category by ID and owner.
func GetGarment(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Garment, error) {
	var g domain.Garment
	err := db.WithContext(ctx).
		Preload("Category").
		Where("id = ? AND user_id = ?", id, userID).
		First(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ListGarments returns a user's garments, newest first, optionally restricted
// to the given categories. An empty categoryIDs means all categories.
func ListGarments(ctx context.Context, db *gorm.DB, userID string, categoryIDs []string) ([]domain.Garment, error) {
	q := db.WithContext(ctx).
		Preload("Category").
		Where("user_id = ?", userID)
	if len(categoryIDs) > 0 {
		q = q.Where("category_id IN ?", categoryIDs)
	}
	var out []domain.Garment
	err := q.Order("created_at desc").Order("id asc").Find(&out).Error
	return out, err
}

// CountGarments returns how many garments userID owns.
func CountGarments(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Garment{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

// DeleteGarment soft-deletes a garment owned by userID. It returns
// ErrNotFound when no row matched.
func DeleteGarment(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Garment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GarmentsByIDs returns userID's garments with the given IDs, including
// soft-deleted ones, so past outfits can still be described.
func GarmentsByIDs(ctx context.Context, db *gorm.DB, userID string, ids []string) ([]domain.Garment, error) {
	if len(ids) == 0 {
		return []domain.Garment{}, nil
	}
	var out []domain.Garment
	err := db.WithContext(ctx).
		Unscoped().
		Preload("Category").
		Where("user_id = ? AND id IN ?", userID, ids).
		Find(&out).Error
	return out, err
}

// UpdateGarment applies fields to a garment owned by userID and bumps
// updated_at. It returns ErrNotFound when no row matched.
func UpdateGarment(ctx context.Context, db *gorm.DB, id, userID string, fields map[string]any) error {
	if fields == nil {
		fields = map[string]any{}
	}
	fields["updated_at"] = time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.Garment{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GarmentFilter narrows SearchGarments. Zero fields match everything.
type GarmentFilter struct {
	// Query matches a substring of the name or of the stored tags.
	Query      string
	CategoryID string
	// Color must already be normalized.
	Color string
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchGarments returns userID's garments matching f, newest first.
func SearchGarments(ctx context.Context, db *gorm.DB, userID string, f GarmentFilter) ([]domain.Garment, error) {
	q := db.WithContext(ctx).
		Preload("Category").
		Where("user_id = ?", userID)
	if f.Query != "" {
		pat := "%" + likeEscaper.Replace(strings.ToLower(f.Query)) + "%"
		q = q.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(tags) LIKE ? ESCAPE '\')`, pat, pat)
	}
	if f.CategoryID != "" {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.Color != "" {
		q = q.Where("color = ?", f.Color)
	}
	var out []domain.Garment
	err := q.Order("created_at desc").Order("id asc").Find(&out).Error
	return out, err
}

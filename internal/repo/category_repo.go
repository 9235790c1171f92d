// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the shared
// Category taxonomy.
//
// Categories are reference data. They are seeded at boot via
// UpsertCategories and otherwise only read.
package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-closet-backend/internal/domain"
)

// ListCategories returns every category ordered by name.
func ListCategories(ctx context.Context, db *gorm.DB) ([]domain.Category, error) {
	var out []domain.Category
	err := db.WithContext(ctx).Order("name asc").Find(&out).Error
	return out, err
}

// GetCategory fetches a category by ID, or ErrNotFound.
func GetCategory(ctx context.Context, db *gorm.DB, id string) (*domain.Category, error) {
	var c domain.Category
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// CountCategories returns how many of ids exist.
func CountCategories(ctx context.Context, db *gorm.DB, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int64
	err := db.WithContext(ctx).Model(&domain.Category{}).Where("id IN ?", ids).Count(&n).Error
	return n, err
}

// UpsertCategories inserts categories keyed by name. Existing rows keep their
// ID and get the incoming description, gender, and icon. Rows without an ID
// are assigned a fresh UUID.
func UpsertCategories(ctx context.Context, db *gorm.DB, cats []domain.Category) error {
	if len(cats) == 0 {
		return nil
	}
	rows := make([]domain.Category, len(cats))
	copy(rows, cats)
	for i := range rows {
		if rows[i].ID == "" {
			rows[i].ID = uuid.NewString()
		}
		if rows[i].Gender == "" {
			rows[i].Gender = "unisex"
		}
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"description", "gender", "icon"}),
	}).Create(&rows).Error
}

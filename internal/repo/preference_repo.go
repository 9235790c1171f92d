// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for
// UserPreferences and the per-user rejection set.
//
// Both writes are safe under concurrent requests for the same user: the
// preference write is an upsert on user_id and the rejection write is an
// insert that ignores conflicts on (user_id, garment_id).
package repo

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-closet-backend/internal/domain"
)

// GetPreferences returns the stored preferences for userID, or ErrNotFound
// when nothing has been learned yet.
//
// favorite_colors is read as plain text so a malformed value written by an
// older client cannot fail the scan; DecodeStrings treats it as empty.
func GetPreferences(ctx context.Context, db *gorm.DB, userID string) (*domain.UserPreferences, error) {
	var row struct {
		UserID          string
		FavoriteColors  *string
		StylePreference *string
		CreatedAt       time.Time
		UpdatedAt       time.Time
	}
	err := db.WithContext(ctx).
		Model(&domain.UserPreferences{}).
		Select("user_id, CAST(favorite_colors AS TEXT) AS favorite_colors, style_preference, created_at, updated_at").
		Where("user_id = ?", userID).
		Take(&row).Error
	if err != nil {
		return nil, err
	}
	p := &domain.UserPreferences{
		UserID:          row.UserID,
		StylePreference: row.StylePreference,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
	if row.FavoriteColors != nil {
		p.FavoriteColors = datatypes.JSON(*row.FavoriteColors)
	}
	return p, nil
}

// UpsertFavoriteColors replaces the favorite-color list of userID, creating
// the preferences row when absent. The style preference is left untouched.
func UpsertFavoriteColors(ctx context.Context, db *gorm.DB, userID string, colors []string) error {
	raw, err := EncodeStrings(colors)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	row := domain.UserPreferences{UserID: userID, FavoriteColors: raw, CreatedAt: now, UpdatedAt: now}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"favorite_colors", "updated_at"}),
	}).Create(&row).Error
}

// UpdatePreferences writes the fields that are non-nil and keeps the stored
// value of the others. A nil colors on a new row stores an empty list.
func UpdatePreferences(ctx context.Context, db *gorm.DB, userID string, colors *[]string, style *string) error {
	var list []string
	if colors != nil {
		list = *colors
	}
	raw, err := EncodeStrings(list)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	row := domain.UserPreferences{UserID: userID, FavoriteColors: raw, StylePreference: style, CreatedAt: now, UpdatedAt: now}

	cols := []string{"updated_at"}
	if colors != nil {
		cols = append(cols, "favorite_colors")
	}
	if style != nil {
		cols = append(cols, "style_preference")
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns(cols),
	}).Create(&row).Error
}

// RecordRejection remembers that userID never wants to see garmentID again.
// Recording the same pair twice leaves a single row.
func RecordRejection(ctx context.Context, db *gorm.DB, userID, garmentID, reason string) error {
	row := domain.RejectedGarment{
		ID:        uuid.NewString(),
		UserID:    userID,
		GarmentID: garmentID,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "garment_id"}},
		DoNothing: true,
	}).Create(&row).Error
}

// ListRejectedGarmentIDs returns the IDs of every garment userID rejected.
func ListRejectedGarmentIDs(ctx context.Context, db *gorm.DB, userID string) ([]string, error) {
	var ids []string
	err := db.WithContext(ctx).
		Model(&domain.RejectedGarment{}).
		Where("user_id = ?", userID).
		Pluck("garment_id", &ids).Error
	return ids, err
}

// DecodeStrings reads a JSON array of strings. Anything else, including
// malformed JSON, yields an empty list.
func DecodeStrings(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

// EncodeStrings writes vs as a JSON array; nil becomes [].
func EncodeStrings(vs []string) (datatypes.JSON, error) {
	if vs == nil {
		vs = []string{}
	}
	b, err := json.Marshal(vs)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

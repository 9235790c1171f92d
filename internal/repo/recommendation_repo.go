// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Recommendation history: persisted outfits, their items, and the liked flag.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-closet-backend/internal/domain"
)

// CreateRecommendation inserts rec and its items in one transaction. IDs and
// timestamps are filled in when missing; item positions follow slice order.
func CreateRecommendation(ctx context.Context, db *gorm.DB, rec *domain.Recommendation) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	for i := range rec.Items {
		if rec.Items[i].ID == "" {
			rec.Items[i].ID = uuid.NewString()
		}
		rec.Items[i].RecommendationID = rec.ID
		rec.Items[i].Position = i
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(rec).Error
	})
}

// GetRecommendation fetches a recommendation owned by userID with its items
// in position order.
func GetRecommendation(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Recommendation, error) {
	var rec domain.Recommendation
	err := db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("position asc") }).
		Where("id = ? AND user_id = ?", id, userID).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CountRecommendations returns the number of recommendations of userID.
func CountRecommendations(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Recommendation{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

// ListRecommendationsPage returns a page of userID's recommendations, newest
// first, with their items.
func ListRecommendationsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Recommendation, error) {
	var out []domain.Recommendation
	err := db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("position asc") }).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Order("id asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// RatingCounts summarizes how a user's recommendations were rated.
type RatingCounts struct {
	Total    int64 `json:"total"`
	Liked    int64 `json:"liked"`
	Disliked int64 `json:"disliked"`
	NotRated int64 `json:"not_rated"`
}

// CountRatings aggregates the liked flag over userID's recommendations.
func CountRatings(ctx context.Context, db *gorm.DB, userID string) (RatingCounts, error) {
	var rc RatingCounts
	err := db.WithContext(ctx).
		Model(&domain.Recommendation{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN liked = 1 THEN 1 ELSE 0 END), 0) AS liked,
			COALESCE(SUM(CASE WHEN liked = 0 THEN 1 ELSE 0 END), 0) AS disliked,
			COALESCE(SUM(CASE WHEN liked IS NULL THEN 1 ELSE 0 END), 0) AS not_rated`).
		Where("user_id = ?", userID).
		Scan(&rc).Error
	return rc, err
}

// SetRecommendationLiked stores the verdict on a recommendation owned by
// userID. It returns ErrNotFound when no row matched.
func SetRecommendationLiked(ctx context.Context, db *gorm.DB, id, userID string, liked bool) error {
	res := db.WithContext(ctx).
		Model(&domain.Recommendation{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"liked": liked, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// OccasionCount is how many liked outfits were generated for an occasion.
type OccasionCount struct {
	Occasion string `json:"occasion"`
	Count    int64  `json:"count"`
}

// FavoriteOccasions returns the occasions of userID's liked outfits, most
// frequent first, at most limit entries.
func FavoriteOccasions(ctx context.Context, db *gorm.DB, userID string, limit int) ([]OccasionCount, error) {
	var out []OccasionCount
	err := db.WithContext(ctx).
		Model(&domain.Recommendation{}).
		Select("occasion, COUNT(*) AS count").
		Where("user_id = ? AND liked = ?", userID, true).
		Group("occasion").
		Order("count desc").
		Order("occasion asc").
		Limit(limit).
		Scan(&out).Error
	return out, err
}

// LikedOutfitColors returns the color of every garment that appeared in an
// outfit userID liked, one entry per appearance. Colorless garments are
// skipped.
func LikedOutfitColors(ctx context.Context, db *gorm.DB, userID string) ([]string, error) {
	var colors []string
	err := db.WithContext(ctx).
		Table("recommendations AS r").
		Joins("JOIN recommendation_items AS i ON i.recommendation_id = r.id").
		Joins("JOIN garments AS g ON g.id = i.garment_id").
		Where("r.user_id = ? AND r.liked = ?", userID, true).
		Where("g.color IS NOT NULL AND g.color <> ''").
		Pluck("g.color", &colors).Error
	return colors, err
}

// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for per-garment
// ratings and the reject percentages derived from them.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-closet-backend/internal/domain"
)

// UpsertGarmentRatings stores one rating row per garment of a rated
// recommendation. Rating the same recommendation again overwrites the
// verdict and context of each garment.
func UpsertGarmentRatings(ctx context.Context, db *gorm.DB, recommendationID, userID string, garmentIDs []string, liked bool, occasion, weather string) error {
	if len(garmentIDs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]domain.GarmentRating, 0, len(garmentIDs))
	for _, gid := range garmentIDs {
		rows = append(rows, domain.GarmentRating{
			ID:               uuid.NewString(),
			RecommendationID: recommendationID,
			GarmentID:        gid,
			UserID:           userID,
			Liked:            liked,
			Occasion:         occasion,
			Weather:          weather,
			CreatedAt:        now,
			UpdatedAt:        now,
		})
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "recommendation_id"}, {Name: "garment_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"liked", "occasion", "weather", "updated_at"}),
	}).Create(&rows).Error
}

// GarmentRejectStats is the rating history of one garment.
type GarmentRejectStats struct {
	GarmentID string
	Total     int64
	Rejected  int64
}

// RejectPct is the rejected share of ratings in [0,100]; 0 without ratings.
func (s GarmentRejectStats) RejectPct() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Rejected) * 100 / float64(s.Total)
}

// RejectStats aggregates userID's ratings per garment. With garmentIDs empty
// every rated garment is returned.
func RejectStats(ctx context.Context, db *gorm.DB, userID string, garmentIDs []string) ([]GarmentRejectStats, error) {
	q := db.WithContext(ctx).
		Model(&domain.GarmentRating{}).
		Select(`garment_id,
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN liked = 0 THEN 1 ELSE 0 END), 0) AS rejected`).
		Where("user_id = ?", userID)
	if len(garmentIDs) > 0 {
		q = q.Where("garment_id IN ?", garmentIDs)
	}
	var out []GarmentRejectStats
	err := q.Group("garment_id").Scan(&out).Error
	return out, err
}

// ProblematicGarment is a garment the user keeps disliking.
type ProblematicGarment struct {
	GarmentID string  `json:"garment_id"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Total     int64   `json:"total_ratings"`
	Rejected  int64   `json:"rejected"`
	RejectPct float64 `json:"reject_pct"`
}

// ProblematicGarments lists userID's live garments with at least minRatings
// ratings whose reject share is above 50%, worst first, at most limit rows.
func ProblematicGarments(ctx context.Context, db *gorm.DB, userID string, minRatings int64, limit int) ([]ProblematicGarment, error) {
	var rows []struct {
		GarmentID string
		Name      string
		Category  string
		Total     int64
		Rejected  int64
	}
	err := db.WithContext(ctx).
		Table("garment_ratings AS gr").
		Select(`gr.garment_id AS garment_id, g.name AS name, c.name AS category,
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN gr.liked = 0 THEN 1 ELSE 0 END), 0) AS rejected`).
		Joins("JOIN garments AS g ON g.id = gr.garment_id AND g.deleted_at IS NULL").
		Joins("JOIN categories AS c ON c.id = g.category_id").
		Where("gr.user_id = ?", userID).
		Group("gr.garment_id, g.name, c.name").
		Having("COUNT(*) >= ? AND SUM(CASE WHEN gr.liked = 0 THEN 1 ELSE 0 END) * 2 > COUNT(*)", minRatings).
		Order("SUM(CASE WHEN gr.liked = 0 THEN 1 ELSE 0 END) * 1.0 / COUNT(*) DESC").
		Order("gr.garment_id asc").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]ProblematicGarment, 0, len(rows))
	for _, r := range rows {
		st := GarmentRejectStats{Total: r.Total, Rejected: r.Rejected}
		out = append(out, ProblematicGarment{
			GarmentID: r.GarmentID, Name: r.Name, Category: r.Category,
			Total: r.Total, Rejected: r.Rejected, RejectPct: st.RejectPct(),
		})
	}
	return out, nil
}

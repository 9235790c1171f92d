// Package domain defines the persistence models for the closet: clothing
// categories, garments, learned preferences, rejection records, and the
// recommendation history with its per-garment ratings. These types are mapped
// with GORM and form the data layer consumed by the repo package.
package domain

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Category is a node of the shared clothing taxonomy (e.g. "Zapatos",
// "Chaquetas"). Categories are reference data: seeded at boot and read-only
// for the rest of the application.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Name: unique display name; business rules match on it.
//   - Gender: "masculino", "femenino" or "unisex".
//   - Icon: optional emoji shown by clients.
type Category struct {
	ID          string `json:"id"          gorm:"type:char(36);primaryKey"`
	Name        string `json:"name"        gorm:"type:varchar(64);not null;uniqueIndex"`
	Description string `json:"description" gorm:"type:varchar(255)"`
	Gender      string `json:"gender"      gorm:"type:varchar(16);not null;default:'unisex'"`
	Icon        string `json:"icon,omitempty" gorm:"type:varchar(16)"`
}

// TableName returns the database table name for Category.
func (Category) TableName() string { return "categories" }

// Garment is a single item of a user's closet. It always belongs to exactly
// one user and one category. Color, style, season, and condition are optional
// free-text labels normalized on write.
//
// Tags is a JSON array of strings. Rows written by older clients may hold
// malformed JSON here; readers treat that as "no tags".
type Garment struct {
	ID         string         `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID     string         `json:"user_id"     gorm:"type:varchar(64);not null;index:idx_user_garments,priority:1"`
	CategoryID string         `json:"category_id" gorm:"type:char(36);not null;index:idx_user_garments,priority:2"`
	Name       string         `json:"name"        gorm:"type:varchar(128);not null"`
	Color      string         `json:"color,omitempty"     gorm:"type:varchar(32)"`
	Style      string         `json:"style,omitempty"     gorm:"type:varchar(32)"`
	Season     string         `json:"season,omitempty"    gorm:"type:varchar(32)"`
	Condition  string         `json:"condition,omitempty" gorm:"type:varchar(32)"`
	Tags       datatypes.JSON `json:"-"`
	ImageURL   string         `json:"image_url,omitempty" gorm:"type:varchar(512)"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`

	Category Category `json:"-" gorm:"foreignKey:CategoryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for Garment.
func (Garment) TableName() string { return "garments" }

// UserPreferences stores what the recommender has learned about a user. There
// is at most one row per user; it is created lazily on the first write.
//
// FavoriteColors is a JSON array ordered most-frequent first.
type UserPreferences struct {
	UserID          string         `json:"user_id"          gorm:"type:varchar(64);primaryKey"`
	FavoriteColors  datatypes.JSON `json:"favorite_colors"`
	StylePreference *string        `json:"style_preference" gorm:"type:varchar(32)"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// TableName returns the database table name for UserPreferences.
func (UserPreferences) TableName() string { return "user_preferences" }

// RejectedGarment records that a user asked never to be shown a garment again.
// The (user_id, garment_id) pair is unique; inserting it twice is a no-op.
type RejectedGarment struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"    gorm:"type:varchar(64);not null;uniqueIndex:ux_rejected_user_garment,priority:1"`
	GarmentID string    `json:"garment_id" gorm:"type:char(36);not null;uniqueIndex:ux_rejected_user_garment,priority:2"`
	Reason    string    `json:"reason"     gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for RejectedGarment.
func (RejectedGarment) TableName() string { return "rejected_garments" }

// Recommendation is the persisted metadata of a generated outfit. Liked is nil
// until the user rates it.
//
// Fields:
//   - Confidence: aggregate score in [0,1].
//   - Score: Confidence reported as a rounded percentage.
//   - Items: garments chosen, ordered by Position.
type Recommendation struct {
	ID         string               `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID     string               `json:"user_id"    gorm:"type:varchar(64);not null;index:idx_user_recs,priority:1"`
	Occasion   string               `json:"occasion"   gorm:"type:varchar(32);not null"`
	Weather    string               `json:"weather"    gorm:"type:varchar(32);not null"`
	Confidence float64              `json:"confidence" gorm:"not null"`
	Score      int                  `json:"score"      gorm:"not null;check:score BETWEEN 0 AND 100"`
	Reasoning  string               `json:"reasoning"  gorm:"type:text"`
	Liked      *bool                `json:"liked"`
	CreatedAt  time.Time            `json:"created_at" gorm:"index:idx_user_recs,priority:2"`
	UpdatedAt  time.Time            `json:"updated_at"`
	Items      []RecommendationItem `json:"items,omitempty" gorm:"foreignKey:RecommendationID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Recommendation.
func (Recommendation) TableName() string { return "recommendations" }

// RecommendationItem links a garment to the recommendation it was chosen for.
type RecommendationItem struct {
	ID               string `json:"-"          gorm:"type:char(36);primaryKey"`
	RecommendationID string `json:"-"          gorm:"type:char(36);not null;index"`
	GarmentID        string `json:"garment_id" gorm:"type:char(36);not null;index"`
	Position         int    `json:"position"   gorm:"not null"`
}

// TableName returns the database table name for RecommendationItem.
func (RecommendationItem) TableName() string { return "recommendation_items" }

// GarmentRating is one garment's share of a rating: when a user rates an
// outfit, each rated garment gets a row carrying the verdict. Reject
// percentages are aggregated from these rows. Re-rating the same
// recommendation overwrites the verdict.
type GarmentRating struct {
	ID               string    `json:"id"                gorm:"type:char(36);primaryKey"`
	RecommendationID string    `json:"recommendation_id" gorm:"type:char(36);not null;uniqueIndex:ux_rating_rec_garment,priority:1"`
	GarmentID        string    `json:"garment_id"        gorm:"type:char(36);not null;uniqueIndex:ux_rating_rec_garment,priority:2;index"`
	UserID           string    `json:"user_id"           gorm:"type:varchar(64);not null;index"`
	Liked            bool      `json:"liked"             gorm:"not null"`
	Occasion         string    `json:"occasion"          gorm:"type:varchar(32)"`
	Weather          string    `json:"weather"           gorm:"type:varchar(32)"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName returns the database table name for GarmentRating.
func (GarmentRating) TableName() string { return "garment_ratings" }

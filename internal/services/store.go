package services

import (
	"context"

	"github.com/tbourn/go-closet-backend/internal/outfit"
)

// CandidateStore is everything the recommender reads from and writes to
// storage about a user's closet and taste. Implementations must make
// UpsertFavoriteColors an upsert on the user and RecordRejection an insert
// that ignores an existing (user, garment) pair, so concurrent requests for
// the same user are safe.
type CandidateStore interface {
	// LoadEligibleGarments returns the user's garments in categoryIDs.
	LoadEligibleGarments(ctx context.Context, userID string, categoryIDs []string) ([]outfit.Candidate, error)

	// LoadRejectionSet returns the IDs of garments the user never wants again.
	LoadRejectionSet(ctx context.Context, userID string) (map[string]struct{}, error)

	// LoadPreferences returns nil, nil when nothing has been learned yet.
	LoadPreferences(ctx context.Context, userID string) (*outfit.Preferences, error)

	// LoadLikedOutfitColors returns one color per garment appearance in a liked outfit.
	LoadLikedOutfitColors(ctx context.Context, userID string) ([]outfit.Color, error)

	UpsertFavoriteColors(ctx context.Context, userID string, colors []outfit.Color) error

	// UpdatePreferences writes the non-nil fields and keeps the others.
	UpdatePreferences(ctx context.Context, userID string, colors *[]outfit.Color, style *outfit.Style) error

	RecordRejection(ctx context.Context, userID, garmentID, reason string) error
}

// Package services – LearningUpdater
//
// LearningUpdater recomputes a user's favorite colors from the full history
// of outfits they liked. Each run replaces the stored list, so running it
// twice over the same history stores the same list.
package services

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-closet-backend/internal/outfit"
)

// DefaultFavoriteColorLimit caps the learned favorite-color list.
const DefaultFavoriteColorLimit = 5

// LearningUpdater derives favorite colors from liked outfits.
type LearningUpdater struct {
	Store CandidateStore
	// Limit is the maximum number of favorite colors kept.
	Limit int
}

// NewLearningUpdater returns an updater with the default limit.
func NewLearningUpdater(store CandidateStore) *LearningUpdater {
	return &LearningUpdater{Store: store, Limit: DefaultFavoriteColorLimit}
}

// Update counts the colors of every garment in the user's liked outfits,
// keeps the most frequent ones (ties broken alphabetically), and stores them
// as the user's favorite colors. It returns the stored list.
func (u *LearningUpdater) Update(ctx context.Context, userID string) ([]outfit.Color, error) {
	tr := otel.Tracer("services/LearningUpdater")
	ctx, span := tr.Start(ctx, "Update", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	colors, err := u.Store.LoadLikedOutfitColors(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	fav := TopColors(colors, u.limit())
	span.SetAttributes(attribute.Int("colors.liked", len(colors)), attribute.Int("colors.favorite", len(fav)))

	if err := u.Store.UpsertFavoriteColors(ctx, userID, fav); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return fav, nil
}

func (u *LearningUpdater) limit() int {
	if u.Limit <= 0 {
		return DefaultFavoriteColorLimit
	}
	return u.Limit
}

// TopColors returns up to n distinct colors ordered by descending frequency,
// then label. Empty colors are ignored.
func TopColors(colors []outfit.Color, n int) []outfit.Color {
	counts := make(map[outfit.Color]int)
	for _, c := range colors {
		if c != "" {
			counts[c]++
		}
	}
	out := make([]outfit.Color, 0, len(counts))
	for c := range counts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if counts[out[i]] != counts[out[j]] {
			return counts[out[i]] > counts[out[j]]
		}
		return out[i] < out[j]
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

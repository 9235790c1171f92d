// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file adapts the repository functions to the shape the
// recommendation engine consumes: garments become outfit.Candidate values
// with normalized labels and a reject percentage, and preferences become
// outfit.Preferences.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-closet-backend/internal/outfit"
)

// Store is the GORM-backed candidate store.
type Store struct {
	DB *gorm.DB
}

// NewStore returns a Store over db.
func NewStore(db *gorm.DB) *Store { return &Store{DB: db} }

// LoadEligibleGarments returns userID's garments in the given categories,
// newest first, each carrying its category name and reject percentage.
func (s *Store) LoadEligibleGarments(ctx context.Context, userID string, categoryIDs []string) ([]outfit.Candidate, error) {
	if len(categoryIDs) == 0 {
		return []outfit.Candidate{}, nil
	}
	gs, err := ListGarments(ctx, s.DB, userID, categoryIDs)
	if err != nil {
		return nil, err
	}
	if len(gs) == 0 {
		return []outfit.Candidate{}, nil
	}

	ids := make([]string, len(gs))
	for i, g := range gs {
		ids[i] = g.ID
	}
	stats, err := RejectStats(ctx, s.DB, userID, ids)
	if err != nil {
		return nil, err
	}
	pct := make(map[string]float64, len(stats))
	for _, st := range stats {
		pct[st.GarmentID] = st.RejectPct()
	}

	out := make([]outfit.Candidate, 0, len(gs))
	for _, g := range gs {
		out = append(out, outfit.Candidate{
			ID:         g.ID,
			Name:       g.Name,
			CategoryID: g.CategoryID,
			Category:   g.Category.Name,
			Color:      outfit.ParseColor(g.Color),
			Style:      outfit.ParseStyle(g.Style),
			Season:     outfit.ParseSeason(g.Season),
			ImageURL:   g.ImageURL,
			RejectPct:  pct[g.ID],
		})
	}
	return out, nil
}

// LoadRejectionSet returns the IDs of the garments userID rejected.
func (s *Store) LoadRejectionSet(ctx context.Context, userID string) (map[string]struct{}, error) {
	ids, err := ListRejectedGarmentIDs(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// LoadPreferences returns the learned preferences of userID, or nil when
// nothing has been learned yet. Malformed stored colors read as none.
func (s *Store) LoadPreferences(ctx context.Context, userID string) (*outfit.Preferences, error) {
	p, err := GetPreferences(ctx, s.DB, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	prefs := &outfit.Preferences{FavoriteColors: []outfit.Color{}}
	for _, c := range DecodeStrings(p.FavoriteColors) {
		if col := outfit.ParseColor(c); col != "" {
			prefs.FavoriteColors = append(prefs.FavoriteColors, col)
		}
	}
	if p.StylePreference != nil {
		prefs.FavoriteStyle = outfit.ParseStyle(*p.StylePreference)
	}
	return prefs, nil
}

// LoadLikedOutfitColors returns one normalized color per garment appearance
// in a liked outfit.
func (s *Store) LoadLikedOutfitColors(ctx context.Context, userID string) ([]outfit.Color, error) {
	raw, err := LikedOutfitColors(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	out := make([]outfit.Color, 0, len(raw))
	for _, c := range raw {
		if col := outfit.ParseColor(c); col != "" {
			out = append(out, col)
		}
	}
	return out, nil
}

// UpsertFavoriteColors replaces userID's favorite colors.
func (s *Store) UpsertFavoriteColors(ctx context.Context, userID string, colors []outfit.Color) error {
	raw := make([]string, len(colors))
	for i, c := range colors {
		raw[i] = string(c)
	}
	return UpsertFavoriteColors(ctx, s.DB, userID, raw)
}

// UpdatePreferences writes manually edited preferences; nil fields keep
// their stored value.
func (s *Store) UpdatePreferences(ctx context.Context, userID string, colors *[]outfit.Color, style *outfit.Style) error {
	var rawColors *[]string
	if colors != nil {
		raw := make([]string, len(*colors))
		for i, c := range *colors {
			raw[i] = string(c)
		}
		rawColors = &raw
	}
	var rawStyle *string
	if style != nil {
		v := string(*style)
		rawStyle = &v
	}
	return UpdatePreferences(ctx, s.DB, userID, rawColors, rawStyle)
}

// RecordRejection records that userID rejected garmentID. Repeats are no-ops.
func (s *Store) RecordRejection(ctx context.Context, userID, garmentID, reason string) error {
	return RecordRejection(ctx, s.DB, userID, garmentID, reason)
}

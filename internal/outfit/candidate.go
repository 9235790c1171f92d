package outfit

import "slices"

// Candidate is a garment as the engine sees it: normalized labels, its
// category name for rule matching, and how often the user has rejected it.
type Candidate struct {
	ID         string
	Name       string
	CategoryID string
	Category   string
	Color      Color
	Style      Style
	Season     Season
	ImageURL   string

	// RejectPct is the share of past ratings, in [0,100], in which this
	// garment was part of a disliked outfit.
	RejectPct float64
}

// Preferences is what has been learned about a user. The zero value means
// "nothing learned yet".
type Preferences struct {
	FavoriteColors []Color
	FavoriteStyle  Style
}

func (p Preferences) likesColor(c Color) bool {
	return c != "" && slices.Contains(p.FavoriteColors, c)
}

func (p Preferences) likesStyle(s Style) bool {
	return s != "" && p.FavoriteStyle == s
}

// ExcludeIDs returns cands without the garments whose IDs are in ids,
// preserving order.
func ExcludeIDs(cands []Candidate, ids map[string]struct{}) []Candidate {
	if len(ids) == 0 {
		return cands
	}
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if _, drop := ids[c.ID]; !drop {
			out = append(out, c)
		}
	}
	return out
}

// GroupByCategory buckets cands by CategoryID and returns the buckets in the
// order given. Categories in order with no candidates yield empty buckets;
// candidates whose category is not in order are ignored. Duplicate IDs in
// order are visited once.
func GroupByCategory(cands []Candidate, order []string) [][]Candidate {
	by := make(map[string][]Candidate, len(order))
	for _, c := range cands {
		by[c.CategoryID] = append(by[c.CategoryID], c)
	}
	seen := make(map[string]struct{}, len(order))
	out := make([][]Candidate, 0, len(order))
	for _, id := range order {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, by[id])
	}
	return out
}

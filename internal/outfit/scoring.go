package outfit

import "math"

// Affinity weights.
const (
	weightFavoriteColor = 0.5
	weightFavoriteStyle = 0.3
	weightColorSynergy  = 0.3
	weightAllYear       = 0.2
)

// Outfit score weights and defaults.
const (
	weightColorScore      = 0.30
	weightStyleScore      = 0.30
	weightOccasionScore   = 0.20
	weightPreferenceScore = 0.20

	defaultColorScore = 0.8
	defaultStyleScore = 0.7
	occasionStyled    = 0.8
	occasionUnstyled  = 0.5
)

// Affinity ranks g within its category given the items already chosen for
// the outfit and the user's learned preferences:
//
//	0.5 if g's color is a favorite
//	+ 0.3 if g's style is the favorite style
//	+ 0.3 × Σ compatibility(g, s) over chosen items s
//	+ 0.2 if g is worn all year
//	- RejectionPenalty(g.RejectPct)
//
// Garments without a color compare as the empty label. The result is not
// clamped; only the ordering within a category matters.
func Affinity(g Candidate, chosen []Candidate, prefs Preferences) float64 {
	var score float64
	if prefs.likesColor(g.Color) {
		score += weightFavoriteColor
	}
	if prefs.likesStyle(g.Style) {
		score += weightFavoriteStyle
	}
	for _, s := range chosen {
		score += weightColorSynergy * Compatibility(g.Color, s.Color)
	}
	if g.Season == SeasonAllYear {
		score += weightAllYear
	}
	return score - RejectionPenalty(g.RejectPct)
}

// RejectionPenalty grows with how often a garment was rejected. Above 50%
// it costs pct/100 × 0.8, above 25% it costs pct/100 × 0.4, and at 25% or
// below it costs nothing.
func RejectionPenalty(rejectPct float64) float64 {
	switch {
	case rejectPct > 50:
		return rejectPct / 100 * 0.8
	case rejectPct > 25:
		return rejectPct / 100 * 0.4
	default:
		return 0
	}
}

// Breakdown holds the components of an outfit score. Final is in [0,1].
type Breakdown struct {
	Color      float64 `json:"color"`
	Style      float64 `json:"style"`
	Occasion   float64 `json:"occasion"`
	Preference float64 `json:"preference"`
	Final      float64 `json:"final"`
}

// Percent reports Final as a rounded percentage in [0,100].
func (b Breakdown) Percent() int { return int(math.Round(b.Final * 100)) }

// ScoreOutfit computes the aggregate score of the chosen items.
//
// The occasion component only checks whether any item has a style label. It
// stands in for real occasion matching and is kept as is until that is
// defined.
func ScoreOutfit(items []Candidate, prefs Preferences) Breakdown {
	b := Breakdown{
		Color:      colorScore(items),
		Style:      styleScore(items),
		Occasion:   occasionUnstyled,
		Preference: preferenceScore(items, prefs),
	}
	for _, it := range items {
		if it.Style != "" {
			b.Occasion = occasionStyled
			break
		}
	}
	final := weightColorScore*b.Color +
		weightStyleScore*b.Style +
		weightOccasionScore*b.Occasion +
		weightPreferenceScore*b.Preference
	b.Final = math.Min(1, math.Max(0, final))
	return b
}

// colorScore is the mean pairwise compatibility of the colored items.
func colorScore(items []Candidate) float64 {
	colors := make([]Color, 0, len(items))
	for _, it := range items {
		if it.Color != "" {
			colors = append(colors, it.Color)
		}
	}
	if len(colors) < 2 {
		return defaultColorScore
	}
	var sum float64
	pairs := 0
	for i := 0; i < len(colors); i++ {
		for j := i + 1; j < len(colors); j++ {
			sum += Compatibility(colors[i], colors[j])
			pairs++
		}
	}
	return sum / float64(pairs)
}

// styleScore is the share of styled items that carry the most common style.
func styleScore(items []Candidate) float64 {
	counts := make(map[Style]int)
	styled, top := 0, 0
	for _, it := range items {
		if it.Style == "" {
			continue
		}
		styled++
		counts[it.Style]++
		top = max(top, counts[it.Style])
	}
	if styled == 0 {
		return defaultStyleScore
	}
	return float64(top) / float64(styled)
}

func preferenceScore(items []Candidate, prefs Preferences) float64 {
	if len(items) == 0 {
		return 0
	}
	n := 0
	for _, it := range items {
		if prefs.likesColor(it.Color) {
			n++
		}
	}
	return float64(n) / float64(len(items))
}

package outfit

import (
	"math"
	"sort"
)

// RandomSource yields uniform values in [0,1). *math/rand/v2.Rand satisfies
// it; tests substitute a fixed sequence.
type RandomSource interface {
	Float64() float64
}

// selectionBias skews draws toward the front of a ranked list. Values above
// 1 favor high-affinity garments while every garment keeps a nonzero chance.
const selectionBias = 1.5

// Ranked pairs a candidate with its affinity.
type Ranked struct {
	Candidate
	Affinity float64
}

// Rank scores cands against the chosen items and sorts them by descending
// affinity. Equal affinities keep their input order.
func Rank(cands []Candidate, chosen []Candidate, prefs Preferences) []Ranked {
	out := make([]Ranked, len(cands))
	for i, c := range cands {
		out[i] = Ranked{Candidate: c, Affinity: Affinity(c, chosen, prefs)}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Affinity > out[j].Affinity })
	return out
}

// PickIndex maps a draw r in [0,1) onto a list of n ranked items:
// floor(r^1.5 × n), clamped to n-1. It returns -1 when n is zero.
func PickIndex(r float64, n int) int {
	if n <= 0 {
		return -1
	}
	idx := int(math.Floor(math.Pow(r, selectionBias) * float64(n)))
	return min(max(idx, 0), n-1)
}

// Selector picks one garment per category.
type Selector struct {
	Rand RandomSource
}

// SelectOutfit walks groups in order and picks one garment from each. Every
// pick is ranked against the garments already picked, so earlier categories
// shape later ones. Empty groups contribute nothing.
func (s Selector) SelectOutfit(groups [][]Candidate, prefs Preferences) []Candidate {
	chosen := make([]Candidate, 0, len(groups))
	for _, g := range groups {
		if len(g) == 0 {
			continue
		}
		ranked := Rank(g, chosen, prefs)
		chosen = append(chosen, ranked[PickIndex(s.Rand.Float64(), len(ranked))].Candidate)
	}
	return chosen
}

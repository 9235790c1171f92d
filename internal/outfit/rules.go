package outfit

import (
	"slices"
	"strings"
)

// VetoReason explains why no outfit can be built.
type VetoReason string

const (
	VetoNone        VetoReason = ""
	VetoNoWarmLayer VetoReason = "no_warm_layer"
	VetoNoFootwear  VetoReason = "no_footwear"
)

// FilterResult is the outcome of ApplyRules. When Vetoed is true the
// constraints make an outfit impossible and Garments is nil. When Vetoed is
// false Garments may still be empty.
type FilterResult struct {
	Garments []Candidate
	Vetoed   bool
	Veto     VetoReason
}

func vetoed(r VetoReason) FilterResult { return FilterResult{Vetoed: true, Veto: r} }

// Category names are compared folded, so the lists hold folded names. Spanish
// taxonomy names come first, followed by their English equivalents.
var (
	warmCategories  = nameSet("Chaquetas", "Hoodies", "Abrigos", "Sudaderas", "Jackets", "Coats", "Sweaters", "Sweatshirts")
	beachExcluded   = nameSet("Pantalones", "Chaquetas", "Abrigos", "Pants", "Jackets", "Coats")
	hotExcluded     = nameSet("Abrigos", "Chaquetas gruesas", "Coats", "Heavy jackets")
	formalStyles    = map[Style]struct{}{"formal": {}, "elegante": {}}
	footwearMarkers = []string{"zapato", "zapatilla", "shoe", "sneaker"}
)

func nameSet(names ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[fold(n)] = struct{}{}
	}
	return m
}

func inCategories(c Candidate, set map[string]struct{}) bool {
	_, ok := set[fold(c.Category)]
	return ok
}

// IsFootwear reports whether a category name belongs to the shoe family.
func IsFootwear(category string) bool {
	f := fold(category)
	for _, m := range footwearMarkers {
		if strings.Contains(f, m) {
			return true
		}
	}
	return false
}

// ApplyRules filters garments for an occasion and weather. The input order is
// preserved. Rules run in order and a veto stops evaluation:
//
//  1. cold weather with no warm layer available vetoes
//  2. formal occasions drop garments whose style is set but not formal
//  3. beach occasions drop long pants, jackets, and coats
//  4. hot weather drops coats and heavy jackets
//  5. no footwear left vetoes
//
// Unknown occasions and weathers apply no rule of their own; the footwear
// check always runs.
func ApplyRules(garments []Candidate, occasion Occasion, weather Weather) FilterResult {
	out := append([]Candidate(nil), garments...)

	if weather == WeatherCold && !slices.ContainsFunc(out, func(c Candidate) bool { return inCategories(c, warmCategories) }) {
		return vetoed(VetoNoWarmLayer)
	}

	if occasion == OccasionFormal {
		out = keep(out, func(c Candidate) bool {
			if c.Style == "" {
				return true
			}
			_, ok := formalStyles[c.Style]
			return ok
		})
	}

	if occasion == OccasionBeach {
		out = keep(out, func(c Candidate) bool { return !inCategories(c, beachExcluded) })
	}

	if weather == WeatherHot {
		out = keep(out, func(c Candidate) bool { return !inCategories(c, hotExcluded) })
	}

	if !slices.ContainsFunc(out, func(c Candidate) bool { return IsFootwear(c.Category) }) {
		return vetoed(VetoNoFootwear)
	}
	return FilterResult{Garments: out}
}

func keep(cs []Candidate, pred func(Candidate) bool) []Candidate {
	out := cs[:0]
	for _, c := range cs {
		if pred(c) {
			out = append(out, c)
		}
	}
	return out
}

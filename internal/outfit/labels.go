// Package outfit is the recommendation engine: color compatibility, the
// occasion/weather rule filter, affinity and outfit scoring, biased random
// selection, and the reasoning text shown with each outfit.
//
// Everything in this package is pure. Callers load garments, preferences, and
// rejection data from storage, pass them in explicitly, and persist whatever
// comes out. Randomness enters only through RandomSource.
//
// Labels (color, style, season, occasion, weather) arrive as free text. They
// are normalized once with NormalizeLabel so the lookup tables below operate
// on a finite canonical vocabulary. Canonical labels are the Spanish names of
// the closet taxonomy; common English spellings are accepted as aliases.
package outfit

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var lower = cases.Lower(language.Und)

// fold lower-cases s, strips diacritics, trims it, and collapses inner
// whitespace to single spaces. "  Marrón  Claro " becomes "marron claro".
func fold(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(lower.String(out)), " ")
}

// NormalizeLabel folds s and maps known aliases onto their canonical label.
// Unknown labels are returned folded, never rejected.
func NormalizeLabel(s string) string {
	f := fold(s)
	if c, ok := aliases[f]; ok {
		return c
	}
	return f
}

// aliases maps folded alternative spellings to canonical labels. Keys must
// already be folded.
var aliases = map[string]string{
	// colors
	"white": "blanco", "black": "negro", "gray": "gris", "grey": "gris",
	"brown": "marron", "cream": "crema", "blue": "azul", "orange": "naranja",
	"yellow": "amarillo", "red": "rojo", "green": "verde", "turquoise": "turquesa",
	"purple": "morado", "violet": "morado", "cyan": "cian", "light blue": "azul claro",
	"teal": "verde azulado", "dark red": "rojo oscuro", "crimson": "carmesi",
	"light yellow": "amarillo claro", "gold": "dorado", "golden": "dorado",
	"light green": "verde claro", "dark green": "verde oscuro", "lime green": "verde lima",
	"lime": "verde lima", "dark orange": "naranja oscuro", "light purple": "morado claro",
	"dark purple": "morado oscuro", "ochre": "ocre", "ocher": "ocre",
	"terracotta": "terracota", "olive": "verde oliva", "olive green": "verde oliva",

	// styles
	"elegant": "elegante", "sporty": "deportivo", "sport": "deportivo",

	// seasons
	"todo ano": SeasonAllYear, "all-season": SeasonAllYear, "all season": SeasonAllYear,
	"all-year": SeasonAllYear, "all year": SeasonAllYear, "summer": "verano",
	"winter": "invierno", "spring": "primavera", "autumn": "otono", "fall": "otono",

	// occasions
	"beach": string(OccasionBeach),

	// weather
	"cold": string(WeatherCold), "mild": string(WeatherMild), "temperate": string(WeatherMild),
	"hot": string(WeatherHot), "warm": string(WeatherHot),
}

// Color is a normalized color label. The empty Color means "no color".
type Color string

// ParseColor normalizes free text into a Color.
func ParseColor(s string) Color { return Color(NormalizeLabel(s)) }

// Known reports whether c appears in any of the compatibility tables.
func (c Color) Known() bool {
	if c == "" {
		return false
	}
	_, ok := palette[c]
	return ok
}

// Style is a normalized style label such as "formal" or "casual".
type Style string

// ParseStyle normalizes free text into a Style.
func ParseStyle(s string) Style { return Style(NormalizeLabel(s)) }

// Known reports whether s is one of the styles the rules understand.
func (s Style) Known() bool {
	_, ok := knownStyles[s]
	return ok
}

var knownStyles = map[Style]struct{}{
	"formal": {}, "elegante": {}, "casual": {}, "deportivo": {},
}

// Season is a normalized season label.
type Season string

// SeasonAllYear marks garments worn in any season; they get a small affinity bonus.
const SeasonAllYear = "todo_ano"

// ParseSeason normalizes free text into a Season.
func ParseSeason(s string) Season { return Season(NormalizeLabel(s)) }

// Known reports whether s is a recognized season.
func (s Season) Known() bool {
	switch s {
	case SeasonAllYear, "verano", "invierno", "primavera", "otono":
		return true
	}
	return false
}

// Occasion is the event an outfit is generated for.
type Occasion string

const (
	OccasionCasual Occasion = "casual"
	OccasionFormal Occasion = "formal"
	OccasionBeach  Occasion = "playa"
)

// ParseOccasion normalizes free text and reports whether it names a known occasion.
func ParseOccasion(s string) (Occasion, bool) {
	o := Occasion(NormalizeLabel(s))
	switch o {
	case OccasionCasual, OccasionFormal, OccasionBeach:
		return o, true
	}
	return o, false
}

// Weather is the weather an outfit is generated for.
type Weather string

const (
	WeatherCold Weather = "frio"
	WeatherMild Weather = "templado"
	WeatherHot  Weather = "calido"
)

// ParseWeather normalizes free text and reports whether it names a known weather.
func ParseWeather(s string) (Weather, bool) {
	w := Weather(NormalizeLabel(s))
	switch w {
	case WeatherCold, WeatherMild, WeatherHot:
		return w, true
	}
	return w, false
}

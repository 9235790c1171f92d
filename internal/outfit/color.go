package outfit

import "slices"

const (
	scoreIdentical     = 0.95
	scoreNeutral       = 0.90
	scoreComplementary = 0.85
	scoreAnalogous     = 0.80
	scoreEarthTones    = 0.75
	scoreDefault       = 0.50
)

var neutrals = colorSet("blanco", "negro", "gris", "beige", "marron", "crema")

var earthTones = colorSet("beige", "marron", "ocre", "terracota", "verde oliva")

var complementary = map[Color][]Color{
	"azul":     {"naranja", "amarillo"},
	"rojo":     {"verde", "turquesa"},
	"amarillo": {"azul", "morado"},
	"verde":    {"rojo", "magenta"},
	"naranja":  {"azul", "cian"},
	"morado":   {"amarillo", "verde"},
}

var analogous = map[Color][]Color{
	"azul":     {"azul claro", "turquesa", "verde azulado"},
	"rojo":     {"rojo oscuro", "naranja rojo", "carmesi"},
	"amarillo": {"amarillo claro", "dorado", "naranja"},
	"verde":    {"verde claro", "verde oscuro", "verde lima"},
	"naranja":  {"naranja oscuro", "rojo naranja", "amarillo naranja"},
	"morado":   {"morado claro", "morado oscuro", "magenta"},
}

// palette is every color mentioned by any table.
var palette = func() map[Color]struct{} {
	p := make(map[Color]struct{})
	for c := range neutrals {
		p[c] = struct{}{}
	}
	for c := range earthTones {
		p[c] = struct{}{}
	}
	for _, tbl := range []map[Color][]Color{complementary, analogous} {
		for k, vs := range tbl {
			p[k] = struct{}{}
			for _, v := range vs {
				p[v] = struct{}{}
			}
		}
	}
	return p
}()

func colorSet(cs ...Color) map[Color]struct{} {
	m := make(map[Color]struct{}, len(cs))
	for _, c := range cs {
		m[c] = struct{}{}
	}
	return m
}

// Compatibility scores how well two colors go together, in [0,1]. Labels are
// compared after normalization; the first matching rule wins:
//
//	identical                 0.95
//	either is neutral         0.90
//	complementary pair        0.85
//	analogous pair            0.80
//	both earth tones          0.75
//	anything else             0.50
//
// Tables are consulted in both directions so the result is symmetric.
// Unknown labels are not an error; they fall through to 0.5.
func Compatibility(a, b Color) float64 {
	a, b = ParseColor(string(a)), ParseColor(string(b))

	if a == b {
		return scoreIdentical
	}
	if _, ok := neutrals[a]; ok {
		return scoreNeutral
	}
	if _, ok := neutrals[b]; ok {
		return scoreNeutral
	}
	if pairIn(complementary, a, b) {
		return scoreComplementary
	}
	if pairIn(analogous, a, b) {
		return scoreAnalogous
	}
	_, ea := earthTones[a]
	_, eb := earthTones[b]
	if ea && eb {
		return scoreEarthTones
	}
	return scoreDefault
}

func pairIn(tbl map[Color][]Color, a, b Color) bool {
	return slices.Contains(tbl[a], b) || slices.Contains(tbl[b], a)
}

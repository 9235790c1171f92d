package outfit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompatibility_Table(t *testing.T) {
	tests := []struct {
		name string
		a, b Color
		want float64
	}{
		{"identical", "azul", "azul", 0.95},
		{"identical unknown", "fucsia neon", "fucsia neon", 0.95},
		{"identical ignores case and spaces", "  AZUL ", "azul", 0.95},
		{"english alias of same color", "Blue", "azul", 0.95},
		{"neutral left", "negro", "rojo", 0.9},
		{"neutral right", "rojo", "blanco", 0.9},
		{"neutral wins over earth tones", "beige", "ocre", 0.9},
		{"complementary", "azul", "naranja", 0.85},
		{"complementary reverse lookup", "turquesa", "rojo", 0.85},
		{"analogous", "verde", "verde lima", 0.80},
		{"analogous with accent", "rojo", "Carmesí", 0.80},
		{"earth tones", "ocre", "terracota", 0.75},
		{"unknown pair", "fucsia", "plateado", 0.5},
		{"empty against color", "", "azul", 0.5},
		{"both empty", "", "", 0.95},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, Compatibility(tc.a, tc.b), 1e-9)
		})
	}
}

func TestCompatibility_Symmetric(t *testing.T) {
	labels := []Color{"", "desconocido", "Orange", "crimson"}
	for c := range palette {
		labels = append(labels, c)
	}
	for _, a := range labels {
		for _, b := range labels {
			assert.Equal(t, Compatibility(a, b), Compatibility(b, a), "%q vs %q", a, b)
		}
	}
}

func TestCompatibility_IdentityForEveryLabel(t *testing.T) {
	for c := range palette {
		assert.Equal(t, 0.95, Compatibility(c, c), string(c))
	}
	assert.Equal(t, 0.95, Compatibility("sin tabla", "sin tabla"))
}

func TestNormalizeLabel(t *testing.T) {
	assert.Equal(t, "marron claro", NormalizeLabel("  Marrón   Claro "))
	assert.Equal(t, "gris", NormalizeLabel("GREY"))
	assert.Equal(t, SeasonAllYear, NormalizeLabel("Todo año"))
	assert.Equal(t, SeasonAllYear, NormalizeLabel("all-season"))
	assert.Equal(t, "", NormalizeLabel("   "))

	o, ok := ParseOccasion("Beach")
	assert.True(t, ok)
	assert.Equal(t, OccasionBeach, o)

	w, ok := ParseWeather("Frío")
	assert.True(t, ok)
	assert.Equal(t, WeatherCold, w)

	_, ok = ParseWeather("tormenta")
	assert.False(t, ok)

	assert.True(t, ParseColor("Olive").Known())
	assert.False(t, ParseColor("fucsia").Known())
	assert.False(t, Color("").Known())
	assert.True(t, ParseStyle("Elegant").Known())
	assert.True(t, ParseSeason("winter").Known())
}

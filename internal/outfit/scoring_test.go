package outfit

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRejectionPenalty(t *testing.T) {
	assert.Equal(t, 0.0, RejectionPenalty(0))
	assert.Equal(t, 0.0, RejectionPenalty(25))
	assert.InDelta(t, 0.26*0.4, RejectionPenalty(26), 1e-9)
	assert.InDelta(t, 0.5*0.4, RejectionPenalty(50), 1e-9)
	assert.InDelta(t, 0.51*0.8, RejectionPenalty(51), 1e-9)
	assert.InDelta(t, 0.8, RejectionPenalty(100), 1e-9)
}

func TestAffinity_Terms(t *testing.T) {
	prefs := Preferences{FavoriteColors: []Color{"azul"}, FavoriteStyle: "casual"}
	g := cand("g", "Shirts", withColor("azul"), withStyle("casual"), withSeason(SeasonAllYear))
	chosen := []Candidate{cand("s", "Shoes", withColor("negro"))}

	// 0.5 + 0.3 + 0.3*0.9 + 0.2
	assert.InDelta(t, 1.27, Affinity(g, chosen, prefs), 1e-9)
	assert.InDelta(t, 0.0, Affinity(cand("bare", "Shirts"), nil, Preferences{}), 1e-9)
}

func TestAffinity_UnsetStyleDoesNotMatchUnsetPreference(t *testing.T) {
	assert.Equal(t, 0.0, Affinity(cand("g", "Shirts"), nil, Preferences{}))
}

func TestAffinity_MissingColorsCompareAsEmpty(t *testing.T) {
	g := cand("g", "Shirts")
	assert.InDelta(t, 0.3*0.95, Affinity(g, []Candidate{cand("s", "Shoes")}, Preferences{}), 1e-9)
	assert.InDelta(t, 0.3*0.5, Affinity(g, []Candidate{cand("s", "Shoes", withColor("azul"))}, Preferences{}), 1e-9)
}

func TestAffinity_HighRejectRanksBelow(t *testing.T) {
	clean := cand("clean", "Shirts", withColor("azul"))
	rejected := cand("rejected", "Shirts", withColor("azul"), withReject(80))
	ranked := Rank([]Candidate{rejected, clean}, nil, Preferences{})
	assert.Equal(t, "clean", ranked[0].ID)
	assert.Less(t, ranked[1].Affinity, ranked[0].Affinity)
	assert.InDelta(t, -0.64, ranked[1].Affinity, 1e-9)
}

func TestScoreOutfit_ShirtAndShoeScenario(t *testing.T) {
	items := []Candidate{
		cand("shirt", "Shirts", withColor("azul")),
		cand("shoe", "Shoes", withColor("negro")),
	}
	b := ScoreOutfit(items, Preferences{})
	assert.InDelta(t, 0.9, b.Color, 1e-9)
	assert.InDelta(t, 0.7, b.Style, 1e-9)
	assert.InDelta(t, 0.5, b.Occasion, 1e-9)
	assert.InDelta(t, 0.0, b.Preference, 1e-9)
	assert.InDelta(t, 0.58, b.Final, 1e-9)
	assert.Equal(t, 58, b.Percent())
}

func TestScoreOutfit_StyleAndPreference(t *testing.T) {
	items := []Candidate{
		cand("a", "Shirts", withColor("azul"), withStyle("casual")),
		cand("b", "Pants", withColor("azul"), withStyle("casual")),
		cand("c", "Shoes", withColor("naranja"), withStyle("formal")),
		cand("d", "Hats"),
	}
	b := ScoreOutfit(items, Preferences{FavoriteColors: []Color{"azul"}})
	assert.InDelta(t, (0.95+0.85+0.85)/3, b.Color, 1e-9)
	assert.InDelta(t, 2.0/3.0, b.Style, 1e-9)
	assert.InDelta(t, 0.8, b.Occasion, 1e-9)
	assert.InDelta(t, 0.5, b.Preference, 1e-9)
}

func TestScoreOutfit_AlwaysWithinBounds(t *testing.T) {
	colors := []Color{"", "azul", "negro", "naranja", "fucsia"}
	styles := []Style{"", "formal", "casual"}
	prefs := []Preferences{{}, {FavoriteColors: []Color{"azul", "negro", "naranja", "fucsia"}}}

	for n := 0; n <= 4; n++ {
		for ci := range colors {
			for si := range styles {
				items := make([]Candidate, n)
				for i := range items {
					items[i] = cand(fmt.Sprint(i), "X",
						withColor(colors[(ci+i)%len(colors)]),
						withStyle(styles[(si+i)%len(styles)]))
				}
				for _, p := range prefs {
					b := ScoreOutfit(items, p)
					assert.GreaterOrEqual(t, b.Final, 0.0)
					assert.LessOrEqual(t, b.Final, 1.0)
					assert.GreaterOrEqual(t, b.Percent(), 0)
					assert.LessOrEqual(t, b.Percent(), 100)
				}
			}
		}
	}
}

func TestScoreOutfit_Empty(t *testing.T) {
	b := ScoreOutfit(nil, Preferences{})
	assert.InDelta(t, 0.3*0.8+0.3*0.7+0.2*0.5, b.Final, 1e-9)
}

package outfit

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedRand replays a sequence of draws, repeating the last one.
type fixedRand struct {
	vals []float64
	i    int
}

func (f *fixedRand) Float64() float64 {
	v := f.vals[min(f.i, len(f.vals)-1)]
	f.i++
	return v
}

func TestPickIndex(t *testing.T) {
	assert.Equal(t, -1, PickIndex(0.5, 0))
	assert.Equal(t, 0, PickIndex(0, 4))
	assert.Equal(t, 1, PickIndex(0.5, 4)) // 0.5^1.5*4 ≈ 1.41
	assert.Equal(t, 3, PickIndex(0.99, 4))
	assert.Equal(t, 0, PickIndex(0.99, 1))
	assert.Equal(t, 3, PickIndex(1, 4))
}

func TestRank_StableOnTies(t *testing.T) {
	cs := []Candidate{cand("a", "X"), cand("b", "X"), cand("c", "X", withSeason(SeasonAllYear))}
	r := Rank(cs, nil, Preferences{})
	assert.Equal(t, []string{"c", "a", "b"}, []string{r[0].ID, r[1].ID, r[2].ID})
}

func TestSelectOutfit_PinnedDraws(t *testing.T) {
	shirts := []Candidate{
		cand("s-plain", "Shirts"),
		cand("s-fav", "Shirts", withColor("azul")),
		cand("s-year", "Shirts", withSeason(SeasonAllYear)),
	}
	shoes := []Candidate{
		cand("sh-black", "Shoes", withColor("negro")),
		cand("sh-orange", "Shoes", withColor("naranja")),
	}
	prefs := Preferences{FavoriteColors: []Color{"azul"}}

	// Draw 0 takes the best of each category.
	sel := Selector{Rand: &fixedRand{vals: []float64{0}}}
	got := sel.SelectOutfit([][]Candidate{shirts, nil, shoes}, prefs)
	require.Len(t, got, 2)
	assert.Equal(t, "s-fav", got[0].ID)
	assert.Equal(t, "sh-black", got[1].ID) // negro 0.9 beats naranja 0.85 next to azul

	// A draw near 1 takes the worst.
	sel = Selector{Rand: &fixedRand{vals: []float64{0.99, 0.99}}}
	got = sel.SelectOutfit([][]Candidate{shirts, shoes}, prefs)
	assert.Equal(t, []string{"s-plain", "sh-orange"}, ids(got))
}

func TestSelectOutfit_AllEmpty(t *testing.T) {
	sel := Selector{Rand: rand.New(rand.NewPCG(1, 2))}
	assert.Empty(t, sel.SelectOutfit([][]Candidate{nil, {}}, Preferences{}))
}

func TestSelectOutfit_FavorsFront(t *testing.T) {
	cs := []Candidate{cand("best", "X", withColor("azul")), cand("b", "X"), cand("c", "X"), cand("d", "X")}
	prefs := Preferences{FavoriteColors: []Color{"azul"}}
	sel := Selector{Rand: rand.New(rand.NewPCG(7, 7))}

	hits := 0
	const rounds = 2000
	for i := 0; i < rounds; i++ {
		if sel.SelectOutfit([][]Candidate{cs}, prefs)[0].ID == "best" {
			hits++
		}
	}
	// P(index 0) = P(r^1.5 < 0.25) = 0.25^(2/3) ≈ 0.397, well above uniform 0.25.
	assert.Greater(t, hits, rounds*33/100)
}

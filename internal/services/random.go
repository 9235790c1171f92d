package services

import (
	"math/rand/v2"
	"sync"

	"github.com/tbourn/go-closet-backend/internal/outfit"
)

// NewRandomSource returns a RandomSource safe for concurrent requests. A zero
// seed uses the runtime's randomly seeded generator; any other seed yields a
// reproducible sequence.
func NewRandomSource(seed int64) outfit.RandomSource {
	if seed == 0 {
		return globalRand{}
	}
	return &lockedRand{r: rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))}
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

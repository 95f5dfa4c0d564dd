package engine

import (
	"math/rand/v2"
	"sync"
)

// Rand is the random source shared by every actor of a house.
// Implementations must be safe for concurrent use without external locking.
type Rand interface {
	// IntN returns a uniform int in [0, n). n must be positive.
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRand returns the process-wide generator.
func DefaultRand() Rand {
	return globalRand{}
}

// lockedRand serialises a seeded generator.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSeededRand returns a concurrency-safe generator seeded with seed.
// A seeded source makes single-actor runs repeatable; runs with several
// actors still depend on scheduling.
func NewSeededRand(seed uint64) Rand {
	return &lockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

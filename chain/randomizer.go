package chain

import (
	"math/rand"
	"sync"
	"time"

	"dingwecker/config"
)

// Randomizer picks the first delay of a chain.
type Randomizer struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandomizer returns a Randomizer drawing from src, or from a
// time-seeded source when src is nil.
func NewRandomizer(src rand.Source) *Randomizer {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Randomizer{r: rand.New(src)}
}

// Pick returns a value uniformly distributed over [r.Min, r.Max], both ends included.
func (z *Randomizer) Pick(r config.DelayRange) (int, error) {
	if err := r.Validate(); err != nil {
		return 0, &InvalidRangeError{Range: r}
	}

	z.mu.Lock()
	defer z.mu.Unlock()
	return r.Min + z.r.Intn(r.Max-r.Min+1), nil
}

package s1_signals

import (
	"math/rand"
	"sync"
	"time"
)

// RandSource supplies uniform values in [0,1).
// Indicator noise is drawn only from here so tests can pin it.
type RandSource interface {
	Float64() float64
}

// lockedRand is a RandSource safe for concurrent symbol pipelines
type lockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandSource returns a seeded source; seed 0 seeds from the clock
func NewRandSource(seed int64) RandSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedRand{rnd: rand.New(rand.NewSource(seed))}
}

func (r *lockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Float64()
}

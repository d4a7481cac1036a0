package sim

import mathrand "math/rand"

// Rand is the random stream the engine consumes during a turn. It is
// injected per call so a turn can be replayed exactly: the same state,
// action and seed always produce the same next state.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// NewRand returns a seeded stream backed by math/rand. The engine draws
// in a fixed order, so two streams with the same seed stay in lockstep.
func NewRand(seed int64) Rand {
	return mathrand.New(mathrand.NewSource(seed))
}

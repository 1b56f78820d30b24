package game

import "math/rand"

// RNG is the randomness the simulation draws from: target re-pick intervals,
// shot-delay jitter, shot deflection, melee rolls and crew shuffles. Tests
// inject scripted sequences.
type RNG interface {
	Float64() float64
	Intn(n int) int
}

// NewRNG returns a seeded math/rand source.
func NewRNG(seed int64) RNG {
	return rand.New(rand.NewSource(seed)) // #nosec G404 -- game only
}

// rngRange draws uniformly from [lo, hi).
func rngRange(r RNG, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

// rngSigned draws uniformly from [-mag, mag).
func rngSigned(r RNG, mag float64) float64 {
	return (r.Float64()*2 - 1) * mag
}

// shuffleInts performs a Fisher-Yates shuffle driven by r.
func shuffleInts(r RNG, xs []int) {
	for i := len(xs) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		xs[i], xs[j] = xs[j], xs[i]
	}
}

// SequenceRNG replays a fixed list of Float64 values, cycling when exhausted.
// Intn maps the next value onto [0,n).
type SequenceRNG struct {
	Values []float64
	pos    int
}

// Float64 implements RNG.
func (s *SequenceRNG) Float64() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	v := s.Values[s.pos%len(s.Values)]
	s.pos++
	return v
}

// Intn implements RNG.
func (s *SequenceRNG) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	i := int(s.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

package world

import "math/rand"

// RNG is a seeded random source that counts every draw it makes. The
// seed plus the draw count reconstruct its exact state, which is how
// saved games replay to the same randomness.
type RNG struct {
	seed  int64
	src   *rand.Rand
	draws int64
}

// NewRNG returns a fresh source for the given seed.
func NewRNG(seed int64) *RNG {
	return &RNG{seed: seed, src: rand.New(rand.NewSource(seed))}
}

// Roll returns a uniform integer in [1, sides].
func (r *RNG) Roll(sides int) int {
	r.draws++
	return r.src.Intn(sides) + 1
}

// WeightedSelect picks an index with probability proportional to its
// weight. Zero-weight entries are never picked; the total must be
// positive.
func (r *RNG) WeightedSelect(weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	r.draws++
	pick := r.src.Intn(total)
	for i, w := range weights {
		if pick < w {
			return i
		}
		pick -= w
	}
	return len(weights) - 1
}

// Seed returns the seed this source was created with.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Position returns how many draws have been made since creation.
func (r *RNG) Position() int64 {
	return r.draws
}

// RestoreRNG rebuilds a source at a given draw position by replaying
// the underlying stream. Roll and WeightedSelect each consume one value
// from it, so the position alone pins down the state.
func RestoreRNG(seed, position int64) *RNG {
	r := NewRNG(seed)
	for i := int64(0); i < position; i++ {
		r.src.Int63()
	}
	r.draws = position
	return r
}

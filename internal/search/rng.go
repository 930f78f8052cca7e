package search

import "math/rand"

// RandomStream is the seedable pseudo-random source owned by one engine.
// It is not safe for concurrent use; give each engine its own stream.
type RandomStream struct {
	rng  *rand.Rand
	seed int64
}

// NewRandomStream creates a stream seeded verbatim with seed.
func NewRandomStream(seed int64) *RandomStream {
	return &RandomStream{
		rng:  rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Seed returns the seed the stream was created with.
func (s *RandomStream) Seed() int64 {
	return s.seed
}

// Float64 returns a uniform value in [0, 1).
func (s *RandomStream) Float64() float64 {
	return s.rng.Float64()
}

// Intn returns a uniform value in [0, n). It panics if n <= 0.
func (s *RandomStream) Intn(n int) int {
	return s.rng.Intn(n)
}

// Bit returns 0 or 1 with equal probability.
func (s *RandomStream) Bit() byte {
	return byte(s.rng.Intn(2))
}

// Candidate draws a uniformly random candidate of the given length.
func (s *RandomStream) Candidate(length int) Candidate {
	c := make(Candidate, length)
	for i := range c {
		c[i] = s.Bit()
	}
	return c
}

// Sample draws k distinct indices from [0, n) using Floyd's algorithm.
// The returned order is the draw order and is deterministic for a given
// stream state. Requires 0 <= k <= n.
func (s *RandomStream) Sample(n, k int) []int {
	out := make([]int, 0, k)
	seen := make(map[int]struct{}, k)
	for j := n - k; j < n; j++ {
		t := s.rng.Intn(j + 1)
		if _, dup := seen[t]; dup {
			t = j
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Rand exposes the underlying generator for libraries that need a *rand.Rand.
// Draws made through it advance this stream.
func (s *RandomStream) Rand() *rand.Rand {
	return s.rng
}

// Package prng is the seeded generator behind every subdivision decision.
//
// A Stream is created per derivation from its own Seed; there is no shared
// generator state, so the same seed always replays the same draws no matter
// how many other streams exist.
package prng

import "math"

type Seed uint64

// SentinelSeed is the parent of seed 0. The sentinel is 2^64, which wraps
// to the largest representable seed.
const SentinelSeed Seed = math.MaxUint64

const (
	golden = 0x9e3779b97f4a7c15
	mulA   = 0xbf58476d1ce4e5b9
	mulB   = 0x94d049bb133111eb
)

// Stream is a SplitMix64 sequence. Not safe for concurrent use.
type Stream struct {
	state uint64
}

func New(seed Seed) *Stream {
	return &Stream{state: uint64(seed)}
}

func (s *Stream) next() uint64 {
	s.state += golden
	z := s.state
	z = (z ^ (z >> 30)) * mulA
	z = (z ^ (z >> 27)) * mulB
	return z ^ (z >> 31)
}

// Float returns a value in [0,1) built from the top 53 bits of the next draw.
func (s *Stream) Float() float64 {
	return float64(s.next()>>11) * (1.0 / (1 << 53))
}

// Seed draws a seed for a derived stream.
func (s *Stream) Seed() Seed {
	return Seed(s.next())
}

// Pick returns floor(n * Float()), an integer in [0,n). n <= 0 yields 0.
func (s *Stream) Pick(n int) int {
	if n <= 0 {
		return 0
	}
	v := int(float64(n) * s.Float())
	if v >= n {
		// n*Float() can round up to n for large n.
		v = n - 1
	}
	return v
}

// ParentSeed is the seed one level up the hierarchy.
func ParentSeed(s Seed) Seed {
	if s == 0 {
		return SentinelSeed
	}
	return s - 1
}

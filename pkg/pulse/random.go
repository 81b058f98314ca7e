package pulse

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// Random is a goroutine-safe pseudo-random source shared by random nodes.
// Two Randoms created with the same seed produce the same sequence.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom creates a generator seeded with seed.
func NewRandom(seed uint64) *Random {
	return &Random{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// defaultRandom is used by contexts that were not given a generator.
var defaultRandom = NewRandom(uint64(time.Now().UnixNano()))

// DefaultRandom returns the process-wide generator.
func DefaultRandom() *Random { return defaultRandom }

// Float64 returns a value in [0, 1).
func (r *Random) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

// IntN returns a value in [0, n). n must be positive.
func (r *Random) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}

// Uint64N returns a value in [0, n). n must be positive.
func (r *Random) Uint64N(n uint64) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Uint64N(n)
}

// Between returns a uniformly distributed value in [lo, hi) for any Number.
// Ranges are half-open, including ranges spanning the whole integer type;
// when hi <= lo the result is lo.
func Between[T Number](r *Random, lo, hi T) T {
	if hi <= lo {
		return lo
	}
	if isFloat[T]() {
		u := r.Float64()
		v := T(float64(lo)*(1-u) + float64(hi)*u)
		if v >= hi {
			v = below(hi)
		}
		if v < lo {
			v = lo
		}
		return v
	}
	// Two's complement arithmetic in uint64 covers every integer width.
	base := uint64(int64(lo))
	span := uint64(int64(hi)) - base
	return T(base + r.Uint64N(span))
}

// below returns the largest value of T's float type that is less than hi.
func below[T Number](hi T) T {
	if v := T(math.Nextafter(float64(hi), math.Inf(-1))); v < hi {
		return v
	}
	return T(math.Nextafter32(float32(hi), float32(math.Inf(-1))))
}

// isFloat reports whether T has a fractional part (1/2 != 0).
func isFloat[T Number]() bool {
	var half T = 1
	half /= 2
	return half != 0
}

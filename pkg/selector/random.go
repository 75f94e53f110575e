/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: random.go
Description: Seeded 48-bit linear congruential generator using the java.util.Random
recurrence. Same seed, same sequence, on every platform. Used by the message
selector so the crash message is identical to the one the mobile app produces.
*/

package selector

import "math"

const (
	multiplier = 0x5DEECE66D
	addend     = 0xB
	mask       = (int64(1) << 48) - 1
)

// Random is a deterministic pseudo-random generator. It is not safe for
// concurrent use; create one per goroutine.
type Random struct {
	seed int64
}

// NewRandom creates a generator scrambled with the given seed.
func NewRandom(seed int64) *Random {
	return &Random{seed: (seed ^ multiplier) & mask}
}

// Next advances the state and returns the top bits of the new seed as a
// signed 32-bit value.
func (r *Random) Next(bits uint) int32 {
	r.seed = (r.seed*multiplier + addend) & mask
	return int32(uint64(r.seed) >> (48 - bits))
}

// NextInt returns a uniformly distributed int in [0, bound).
// It panics if bound <= 0 or bound > math.MaxInt32.
func (r *Random) NextInt(bound int) int {
	if bound <= 0 || bound > math.MaxInt32 {
		panic("selector: invalid argument to NextInt")
	}
	n := int32(bound)

	// Power of two: take the high bits directly.
	if n&(-n) == n {
		return int(int32((int64(n) * int64(r.Next(31))) >> 31))
	}

	bits := r.Next(31)
	val := bits % n
	// Reject draws from the incomplete final bucket; relies on int32 wraparound.
	for bits-val+(n-1) < 0 {
		bits = r.Next(31)
		val = bits % n
	}
	return int(val)
}

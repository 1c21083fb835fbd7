// Package util holds small numeric helpers shared across the planner
// package, mirroring the teacher's sim/internal/util.Len64 convention of
// factoring tiny int-width helpers out of the main package.
package util

import "math"

// DivRoundUp returns ceil(n/d). Saturates at math.MaxUint32 instead of
// wrapping if the division would overflow; d == 0 saturates too, since
// shape arithmetic never legitimately divides by zero.
func DivRoundUp(n, d uint32) uint32 {
	if d == 0 {
		return math.MaxUint32
	}
	q := n / d
	if n%d != 0 {
		if q == math.MaxUint32 {
			return math.MaxUint32
		}
		q++
	}
	return q
}

// RoundUpToMultiple rounds n up to the nearest multiple of m. m == 0
// returns n unchanged (rounding to a multiple of nothing is a no-op).
// Saturates at math.MaxUint32 rather than wrapping on overflow.
func RoundUpToMultiple(n, m uint32) uint32 {
	if m == 0 {
		return n
	}
	rem := n % m
	if rem == 0 {
		return n
	}
	add := m - rem
	if n > math.MaxUint32-add {
		return math.MaxUint32
	}
	return n + add
}

// Min returns the smaller of a and b.
func Min(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

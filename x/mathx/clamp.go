package mathx

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Clamp limits v to [lo, hi]. If lo > hi, the bounds are swapped.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if hi < lo {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Abs for signed numbers.
func Abs[T constraints.Signed | constraints.Float](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

// QuantizeDown rounds v toward lo in multiples of step from lo. A zero step
// returns v unchanged.
func QuantizeDown[T constraints.Float](v, lo, step T) T {
	if step <= 0 {
		return v
	}
	n := math.Floor(float64((v-lo)/step) + 1e-9)
	return lo + T(n)*step
}

// Nearest rounds v to the nearest multiple of step.
func Nearest[T constraints.Float](v, step T) T {
	if step <= 0 {
		return v
	}
	return T(math.Round(float64(v/step))) * step
}

package types

import (
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
)

// Range is a closed interval with an optional step (0 = continuous).
type Range[T constraints.Integer | constraints.Float] struct {
	Start T `json:"start" yaml:"start"`
	Stop  T `json:"stop" yaml:"stop"`
	Step  T `json:"step,omitempty" yaml:"step,omitempty"`
}

// FreqRange is in Hz.
type FreqRange = Range[float64]

// GainRange is in dB.
type GainRange = Range[float64]

// NewRange returns a continuous range.
func NewRange[T constraints.Integer | constraints.Float](start, stop T) Range[T] {
	return Range[T]{Start: start, Stop: stop}
}

// Contains reports Start <= v <= Stop.
func (r Range[T]) Contains(v T) bool { return v >= r.Start && v <= r.Stop }

// Clip limits v to the range. With quantize set and a non-zero step, the
// result is rounded to the nearest step above Start.
func (r Range[T]) Clip(v T, quantize bool) T {
	if v < r.Start {
		v = r.Start
	}
	if v > r.Stop {
		v = r.Stop
	}
	if !quantize || r.Step == 0 {
		return v
	}
	n := math.Round(float64(v-r.Start) / float64(r.Step))
	q := r.Start + T(n)*r.Step
	if q > r.Stop {
		q -= r.Step
	}
	return q
}

// Expand widens both ends by d.
func (r Range[T]) Expand(d T) Range[T] {
	return Range[T]{Start: r.Start - d, Stop: r.Stop + d, Step: r.Step}
}

func (r Range[T]) String() string {
	if r.Step == 0 {
		return fmt.Sprintf("(%v, %v)", r.Start, r.Stop)
	}
	return fmt.Sprintf("(%v, %v, %v)", r.Start, r.Stop, r.Step)
}

package types

import (
	"fmt"
	"math"
	"time"
)

// TimeSpec is device time: whole seconds plus a fractional part in [0, 1).
type TimeSpec struct {
	Secs int64   `json:"secs"`
	Frac float64 `json:"frac"`
}

// TimeFromReal builds a TimeSpec from seconds.
func TimeFromReal(secs float64) TimeSpec {
	whole := math.Floor(secs)
	return TimeSpec{Secs: int64(whole), Frac: secs - whole}.norm()
}

// TimeFromTicks builds a TimeSpec from a tick count at rate ticks/second.
func TimeFromTicks(ticks int64, rate float64) TimeSpec {
	r := int64(rate)
	if float64(r) == rate && r > 0 {
		return TimeSpec{Secs: ticks / r, Frac: float64(ticks%r) / rate}.norm()
	}
	return TimeFromReal(float64(ticks) / rate)
}

// Ticks converts to a tick count at rate ticks/second.
func (t TimeSpec) Ticks(rate float64) int64 {
	return t.Secs*int64(rate) + int64(math.Round(t.Frac*rate))
}

// Real returns the time in seconds.
func (t TimeSpec) Real() float64 { return float64(t.Secs) + t.Frac }

func (t TimeSpec) Add(d TimeSpec) TimeSpec {
	return TimeSpec{Secs: t.Secs + d.Secs, Frac: t.Frac + d.Frac}.norm()
}

func (t TimeSpec) Sub(d TimeSpec) TimeSpec {
	return TimeSpec{Secs: t.Secs - d.Secs, Frac: t.Frac - d.Frac}.norm()
}

// AddDuration advances t by a wall-clock duration.
func (t TimeSpec) AddDuration(d time.Duration) TimeSpec {
	return t.Add(TimeFromReal(d.Seconds()))
}

// Compare returns -1, 0 or +1.
func (t TimeSpec) Compare(o TimeSpec) int {
	switch {
	case t.Secs < o.Secs:
		return -1
	case t.Secs > o.Secs:
		return 1
	case t.Frac < o.Frac:
		return -1
	case t.Frac > o.Frac:
		return 1
	}
	return 0
}

func (t TimeSpec) Before(o TimeSpec) bool { return t.Compare(o) < 0 }

func (t TimeSpec) String() string { return fmt.Sprintf("%.9f s", t.Real()) }

func (t TimeSpec) norm() TimeSpec {
	if t.Frac >= 1 || t.Frac < 0 {
		w := math.Floor(t.Frac)
		t.Secs += int64(w)
		t.Frac -= w
	}
	return t
}

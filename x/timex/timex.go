// Package timex abstracts wall-clock reads and sleeps so blocking waits can
// be driven by simulated time in tests.
package timex

import (
	"sync"
	"time"
)

// Clock is the wall-clock dependency of blocking operations.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// System is the real clock.
type System struct{}

func (System) Now() time.Time        { return time.Now() }
func (System) Sleep(d time.Duration) { time.Sleep(d) }

// Fake is a manual clock. Sleep advances it instantly and runs OnSleep, which
// lets simulated hardware move forward in step with the caller.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	OnSleep func(d time.Duration)
}

// NewFake starts a fake clock at t.
func NewFake(t time.Time) *Fake { return &Fake{now: t} }

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Sleep(d time.Duration) {
	f.Advance(d)
	if f.OnSleep != nil {
		f.OnSleep(d)
	}
}

// Advance moves the clock forward without running OnSleep.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

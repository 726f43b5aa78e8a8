package timex

import (
	"testing"
	"time"
)

func TestFakeClock(t *testing.T) {
	start := time.Unix(1000, 0)
	f := NewFake(start)
	var slept time.Duration
	f.OnSleep = func(d time.Duration) { slept += d }

	f.Sleep(time.Second)
	f.Advance(500 * time.Millisecond)

	if got := f.Now().Sub(start); got != 1500*time.Millisecond {
		t.Fatalf("elapsed = %v", got)
	}
	if slept != time.Second {
		t.Fatalf("OnSleep saw %v", slept)
	}
}

package syncmon

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usrphost-go/bus"
	"usrphost-go/services/config"
	"usrphost-go/x/timex"
)

type fakeChecker struct {
	ok    atomic.Bool
	calls atomic.Int32
	err   error
}

func (f *fakeChecker) TimeSynchronized() (bool, error) {
	f.calls.Add(1)
	return f.ok.Load(), f.err
}

func waitStatus(t *testing.T, sub *bus.Subscription, want bool) Status {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case m := <-sub.Channel():
			if st := m.Payload.(Status); st.Synchronized == want {
				return st
			}
		case <-deadline:
			t.Fatalf("no status with synchronized=%v", want)
		}
	}
}

func TestPublishesStatus(t *testing.T) {
	b := bus.NewBus(16)
	dev := &fakeChecker{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := b.NewConnection("test").Subscribe(TopicStatus)
	clk := timex.NewFake(time.Unix(1_700_000_000, 0))
	s := &Service{Dev: dev, Interval: 5 * time.Millisecond, Clock: clk}
	require.NoError(t, s.Start(ctx, b.NewConnection("syncmon")))

	st := waitStatus(t, sub, false)
	assert.True(t, st.At.Equal(clk.Now()), "stamped from the injected clock")
	clk.Advance(time.Minute)
	dev.ok.Store(true)
	st = waitStatus(t, sub, true)
	assert.Empty(t, st.Err)
	assert.True(t, st.At.Equal(time.Unix(1_700_000_060, 0)))
}

func TestReportsCheckError(t *testing.T) {
	b := bus.NewBus(16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := b.NewConnection("test").Subscribe(TopicStatus)
	s := &Service{Dev: &fakeChecker{err: errors.New("mboard 1 out of range")}, Interval: 5 * time.Millisecond}
	require.NoError(t, s.Start(ctx, b.NewConnection("syncmon")))

	st := waitStatus(t, sub, false)
	assert.Equal(t, "mboard 1 out of range", st.Err)
}

func TestIntervalFromConfig(t *testing.T) {
	b := bus.NewBus(16)
	dev := &fakeChecker{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// disabled until the sync section arrives
	s := &Service{Dev: dev}
	require.NoError(t, s.Start(ctx, b.NewConnection("syncmon")))
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, dev.calls.Load())

	cfg := config.Default()
	cfg.Sync.MonitorInterval = 5 * time.Millisecond
	config.Publish(b.NewConnection("config"), cfg)
	assert.Eventually(t, func() bool { return dev.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
}

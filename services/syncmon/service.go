// Package syncmon periodically checks the time alignment of a multi-board
// device and publishes the result.
package syncmon

import (
	"context"
	"log/slog"
	"time"

	"usrphost-go/bus"
	"usrphost-go/services/config"
	"usrphost-go/x/timex"
)

var (
	topicConfigSync = bus.T("config", "sync")
	// TopicStatus carries the latest Status, retained.
	TopicStatus = bus.T("usrp", "sync", "status")
)

// Checker is the part of the facade the monitor polls.
type Checker interface {
	TimeSynchronized() (bool, error)
}

// Status is one check result.
type Status struct {
	Synchronized bool      `json:"synchronized"`
	Err          string    `json:"err,omitempty"`
	At           time.Time `json:"at"`
}

// Service polls Dev every Interval. Clock stamps each Status and defaults
// to the system clock.
type Service struct {
	Dev      Checker
	Interval time.Duration
	Clock    timex.Clock
	Log      *slog.Logger
}

func (s *Service) check(conn *bus.Connection, last *Status) {
	ok, err := s.Dev.TimeSynchronized()
	st := Status{Synchronized: ok, At: s.Clock.Now()}
	if err != nil {
		st.Err = err.Error()
	}
	if last.Synchronized != st.Synchronized || last.Err != st.Err || last.At.IsZero() {
		s.Log.Info("sync status changed", "synchronized", ok, "err", st.Err)
	}
	*last = st
	conn.Publish(conn.Bus().NewMessage(TopicStatus, st, true))
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigSync)
	defer conn.Unsubscribe(cfgSub)

	interval := s.Interval
	tick := time.NewTicker(max(interval, time.Millisecond))
	defer tick.Stop()
	if interval <= 0 {
		tick.Stop()
	}

	var last Status
	for {
		select {
		case <-ctx.Done():
			s.Log.Info("sync monitor stopping")
			return
		case <-tick.C:
			s.check(conn, &last)
		case msg := <-cfgSub.Channel():
			sc, ok := msg.Payload.(config.SyncConfig)
			if !ok || sc.MonitorInterval == interval {
				continue
			}
			interval = sc.MonitorInterval
			if interval <= 0 {
				tick.Stop()
				s.Log.Info("sync monitor paused")
				continue
			}
			tick.Reset(interval)
			s.Log.Info("sync monitor interval set", "interval", interval)
		}
	}
}

// Start runs the monitor until ctx is done.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	if s.Log == nil {
		s.Log = slog.New(slog.DiscardHandler)
	}
	if s.Clock == nil {
		s.Clock = timex.System{}
	}
	go s.serviceLoop(ctx, conn)
	return nil
}

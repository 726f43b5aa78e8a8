package usrp

import (
	"context"

	"usrphost-go/bus"
	"usrphost-go/errcode"
	"usrphost-go/types"
)

// SyncState is the progress of SetTimeUnknownPPS.
type SyncState uint8

const (
	SyncIdle SyncState = iota
	SyncWaitingForPPS
	SyncPPSArmed
	SyncVerified
	SyncFailed
)

var syncStateNames = [...]string{
	SyncIdle:          "idle",
	SyncWaitingForPPS: "waiting_for_pps",
	SyncPPSArmed:      "pps_armed",
	SyncVerified:      "verified",
	SyncFailed:        "failed",
}

func (s SyncState) String() string {
	if int(s) < len(syncStateNames) {
		return syncStateNames[s]
	}
	return "unknown"
}

// TopicSyncState carries the current SyncState name, retained.
var TopicSyncState = bus.T("usrp", "sync", "state")

// SyncState returns the state of the last or running time sync.
func (u *USRP) SyncState() SyncState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

func (u *USRP) setState(s SyncState) {
	u.mu.Lock()
	u.state = s
	u.mu.Unlock()
	u.log.Info("time sync", "state", s.String())
	if u.conn != nil {
		u.conn.Publish(u.conn.Bus().NewMessage(TopicSyncState, s.String(), true))
	}
}

func (u *USRP) fail(err error) error {
	u.setState(SyncFailed)
	return err
}

// SetTimeUnknownPPS aligns every board to t at a PPS edge whose position is
// not known in advance:
//
//  1. poll board 0 until its last-PPS time changes, failing with a
//     configuration error once the PPS timeout of device time has passed;
//  2. arm t on every board for the following edge and sleep the settle
//     period;
//  3. compare every board against board 0 and warn on deviations.
//
// ctx is checked between polls and after the settle sleep.
func (u *USRP) SetTimeUnknownPPS(ctx context.Context, t types.TimeSpec) error {
	u.setState(SyncWaitingForPPS)
	start, err := u.TimeNow(0)
	if err != nil {
		return u.fail(err)
	}
	deadline := start.AddDuration(u.ppsTimeout)
	startPPS, err := u.TimeLastPPS(0)
	if err != nil {
		return u.fail(err)
	}
	for {
		last, err := u.TimeLastPPS(0)
		if err != nil {
			return u.fail(err)
		}
		if last.Compare(startPPS) != 0 {
			u.log.Debug("pps edge", "last_pps", last.String())
			break
		}
		now, err := u.TimeNow(0)
		if err != nil {
			return u.fail(err)
		}
		if now.Compare(deadline) > 0 {
			return u.fail(errcode.Configf(
				"board 0 may not be getting a PPS signal: no PPS detected within %s", u.ppsTimeout))
		}
		if err := ctx.Err(); err != nil {
			return u.fail(err)
		}
		u.clock.Sleep(u.poll)
	}

	u.setState(SyncPPSArmed)
	if err := u.SetTimeNextPPS(t); err != nil {
		return u.fail(err)
	}
	u.clock.Sleep(u.settle)
	if err := ctx.Err(); err != nil {
		return u.fail(err)
	}

	if _, err := u.checkSync(true); err != nil {
		return u.fail(err)
	}
	u.setState(SyncVerified)
	return nil
}

// TimeSynchronized reports whether every board is at or ahead of board 0
// by no more than the sync tolerance.
func (u *USRP) TimeSynchronized() (bool, error) { return u.checkSync(false) }

func (u *USRP) checkSync(warn bool) (bool, error) {
	n, err := u.NumMboards()
	if err != nil {
		return false, err
	}
	ok := true
	for m := 1; m < n; m++ {
		t0, err := u.TimeNow(0)
		if err != nil {
			return false, err
		}
		ti, err := u.TimeNow(m)
		if err != nil {
			return false, err
		}
		if !ti.Before(t0) && ti.Sub(t0).Real() <= u.syncTol.Seconds() {
			continue
		}
		if !warn {
			return false, nil
		}
		ok = false
		u.timeWarning(m, t0, ti)
	}
	return ok, nil
}

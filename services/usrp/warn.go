package usrp

import (
	"fmt"

	"usrphost-go/bus"
	"usrphost-go/types"
	"usrphost-go/x/mathx"
)

// Warning kinds.
const (
	WarnRate = "rate"
	WarnFreq = "freq"
	WarnTime = "time"
)

// TopicWarning prefixes the non-retained warning messages; the kind is
// appended.
var TopicWarning = bus.T("usrp", "warning")

// Warning is a realized value that missed its target by more than the
// tolerance. The operation that raised it still succeeded.
type Warning struct {
	Kind    string  `json:"kind"`
	Subject string  `json:"subject"`
	Target  float64 `json:"target"`
	Actual  float64 `json:"actual"`
	Message string  `json:"message"`
}

func (w Warning) String() string { return w.Message }

func (u *USRP) warn(w Warning) {
	u.log.Warn(w.Message, "kind", w.Kind, "subject", w.Subject, "target", w.Target, "actual", w.Actual)
	if u.conn == nil {
		return
	}
	u.conn.Publish(u.conn.Bus().NewMessage(TopicWarning.Append(w.Kind), w, false))
}

func (u *USRP) checkRate(s side, ch int, target, actual float64) {
	if mathx.Abs(target-actual) <= u.rateTol {
		return
	}
	u.warn(Warning{
		Kind:    WarnRate,
		Subject: fmt.Sprintf("%s channel %d", s.label, ch),
		Target:  target,
		Actual:  actual,
		Message: fmt.Sprintf("hardware does not support the requested %s sample rate: target %f MSps, actual %f MSps",
			s.label, target/1e6, actual/1e6),
	})
}

func (u *USRP) checkFreq(s side, ch int, target, actual float64) {
	if mathx.Abs(target-actual) <= u.freqTol {
		return
	}
	u.warn(Warning{
		Kind:    WarnFreq,
		Subject: fmt.Sprintf("%s channel %d", s.label, ch),
		Target:  target,
		Actual:  actual,
		Message: fmt.Sprintf("hardware does not support the requested %s frequency: target %f MHz, actual %f MHz",
			s.label, target/1e6, actual/1e6),
	})
}

func (u *USRP) timeWarning(m int, t0, ti types.TimeSpec) {
	u.warn(Warning{
		Kind:    WarnTime,
		Subject: fmt.Sprintf("mboard %d", m),
		Target:  t0.Real(),
		Actual:  ti.Real(),
		Message: fmt.Sprintf("time deviation between board %d and board 0: board 0 at %f s, board %d at %f s",
			m, t0.Real(), m, ti.Real()),
	})
}

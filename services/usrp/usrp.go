// Package usrp aggregates the motherboards of a device tree behind one
// channel-indexed control surface: joint RF/DSP tuning, rate control, gain
// and antenna selection, and PPS time alignment across boards.
//
// No internal locking is done on the tree; concurrent calls on the same
// channel must be serialised by the caller.
package usrp

import (
	"log/slog"
	"sync"
	"time"

	"usrphost-go/bus"
	"usrphost-go/prop"
	"usrphost-go/services/config"
	"usrphost-go/x/timex"
)

// Sentinels accepted by setters to fan out over every board, channel or
// gain stage.
const (
	AllMboards = -1
	AllChans   = -1
	AllGains   = ""
)

// Defaults for the tolerances and sync timing.
const (
	DefaultPPSTimeout   = 1100 * time.Millisecond
	DefaultPollInterval = time.Millisecond
	DefaultSettle       = time.Second
	DefaultSyncTol      = 10 * time.Millisecond
	DefaultRateTol      = 1.0
	DefaultFreqTol      = 1.0
)

// USRP is the facade over one device tree.
type USRP struct {
	dev   prop.Node
	log   *slog.Logger
	conn  *bus.Connection
	clock timex.Clock

	ppsTimeout time.Duration
	poll       time.Duration
	settle     time.Duration
	syncTol    time.Duration
	rateTol    float64
	freqTol    float64

	mu    sync.Mutex
	state SyncState
}

// Option configures a USRP.
type Option func(*USRP)

func WithLogger(l *slog.Logger) Option         { return func(u *USRP) { u.log = l } }
func WithBus(c *bus.Connection) Option         { return func(u *USRP) { u.conn = c } }
func WithClock(c timex.Clock) Option           { return func(u *USRP) { u.clock = c } }
func WithPPSTimeout(d time.Duration) Option    { return func(u *USRP) { u.ppsTimeout = d } }
func WithPollInterval(d time.Duration) Option  { return func(u *USRP) { u.poll = d } }
func WithSettle(d time.Duration) Option        { return func(u *USRP) { u.settle = d } }
func WithSyncTolerance(d time.Duration) Option { return func(u *USRP) { u.syncTol = d } }
func WithRateTolerance(sps float64) Option     { return func(u *USRP) { u.rateTol = sps } }
func WithFreqTolerance(hz float64) Option      { return func(u *USRP) { u.freqTol = hz } }

// OptionsFromConfig maps the sync and tolerance sections onto options.
func OptionsFromConfig(cfg *config.Config) []Option {
	return []Option{
		WithPPSTimeout(cfg.Sync.PPSTimeout),
		WithPollInterval(cfg.Sync.PollInterval),
		WithSettle(cfg.Sync.Settle),
		WithSyncTolerance(cfg.Sync.Tolerance),
		WithRateTolerance(cfg.Tolerances.RateSps),
		WithFreqTolerance(cfg.Tolerances.FreqHz),
	}
}

// New wraps the device rooted at dev.
func New(dev prop.Node, opts ...Option) *USRP {
	u := &USRP{
		dev:        dev,
		log:        slog.New(slog.DiscardHandler),
		clock:      timex.System{},
		ppsTimeout: DefaultPPSTimeout,
		poll:       DefaultPollInterval,
		settle:     DefaultSettle,
		syncTol:    DefaultSyncTol,
		rateTol:    DefaultRateTol,
		freqTol:    DefaultFreqTol,
	}
	for _, fn := range opts {
		fn(u)
	}
	if u.log == nil {
		u.log = slog.New(slog.DiscardHandler)
	}
	return u
}

// Device returns the underlying tree root.
func (u *USRP) Device() prop.Node { return u.dev }

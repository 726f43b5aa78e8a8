// Package sim builds an in-memory multi-motherboard device tree: time
// registers driven by a clock, DSP blocks with quantized rates and mixer
// frequencies, and daughterboard slots populated through the registry.
package sim

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"usrphost-go/errcode"
	"usrphost-go/prop"
	"usrphost-go/services/config"
	"usrphost-go/services/dboard"
	"usrphost-go/services/gaingroup"
	"usrphost-go/types"
	"usrphost-go/x/timex"
)

// SlotName is the only daughterboard slot of a simulated motherboard.
const SlotName = "A"

type options struct {
	clock timex.Clock
	reg   *dboard.Registry
	log   *slog.Logger
	noPPS bool
	quant RateQuantizer
}

// Option configures NewDevice.
type Option func(*options)

func WithClock(c timex.Clock) Option           { return func(o *options) { o.clock = c } }
func WithRegistry(r *dboard.Registry) Option   { return func(o *options) { o.reg = r } }
func WithLogger(l *slog.Logger) Option         { return func(o *options) { o.log = l } }
func WithRateQuantizer(q RateQuantizer) Option { return func(o *options) { o.quant = q } }

// WithNoPPS disconnects the PPS input of every board: the last-PPS register
// never moves and armed times never latch.
func WithNoPPS(v bool) Option { return func(o *options) { o.noPPS = v } }

// Device is the root node of a simulated device.
type Device struct {
	*prop.Tree
	mboards []*Mboard
}

// NewDevice builds the device described by cfg.
func NewDevice(cfg config.DeviceConfig, opts ...Option) (*Device, error) {
	o := options{
		clock: timex.System{},
		reg:   dboard.Default(),
		log:   slog.New(slog.DiscardHandler),
		quant: DivQuantizer,
	}
	for _, fn := range opts {
		fn(&o)
	}
	if len(cfg.Mboards) == 0 {
		return nil, errcode.Configf("device %q has no mboards", cfg.Name)
	}

	d := &Device{Tree: prop.NewTree(cfg.Name)}
	epoch := o.clock.Now()
	names := make([]string, 0, len(cfg.Mboards))
	for i, mc := range cfg.Mboards {
		name := mc.Name
		if name == "" {
			name = fmt.Sprintf("mboard%d", i)
		}
		if slices.Contains(names, name) {
			return nil, errcode.Configf("duplicate mboard name %q", name)
		}
		mb, err := newMboard(name, mc, epoch, o)
		if err != nil {
			return nil, fmt.Errorf("mboard %s: %w", name, err)
		}
		names = append(names, name)
		d.mboards = append(d.mboards, mb)
	}

	prop.Const(d.Tree, prop.K(prop.Name), cfg.Name)
	prop.Const(d.Tree, prop.K(prop.MboardNames), names)
	for _, mb := range d.mboards {
		prop.Link(d.Tree, prop.Named(prop.Mboard, mb.name), mb.tree)
	}
	o.log.Info("sim device ready", "name", cfg.Name, "mboards", len(names))
	return d, nil
}

// Mboard returns board i, or nil.
func (d *Device) Mboard(i int) *Mboard {
	if i < 0 || i >= len(d.mboards) {
		return nil
	}
	return d.mboards[i]
}

// Mboard is one simulated motherboard and its slot.
type Mboard struct {
	name  string
	rate  float64
	count *counter
	slot  *Iface
	mgr   *dboard.Manager
	rxID  dboard.ID
	txID  dboard.ID

	rxDSP, txDSP   []*dsp
	rxSpec, txSpec types.SubdevSpec
	clockCfg       types.ClockConfig
	tree           *prop.Tree
}

func newMboard(name string, mc config.MboardConfig, epoch time.Time, o options) (*Mboard, error) {
	mb := &Mboard{
		name:  name,
		rate:  mc.MasterClockRate,
		count: newCounter(o.clock, epoch, mc.TimeOffset, o.noPPS),
	}
	mb.slot = NewIface(mb.clockRate)

	for _, e := range []struct {
		addr uint16
		id   string
	}{{AddrRxEEPROM, mc.RxDboardID}, {AddrTxEEPROM, mc.TxDboardID}} {
		id, err := config.ParseDboardID(e.id)
		if err != nil {
			return nil, errcode.Wrap(errcode.Configuration, "eeprom", err)
		}
		mb.slot.EEPROMBus().Attach(e.addr, eepromImage(dboard.ID(id)))
	}
	rxE, err := dboard.ReadEEPROM(mb.slot.I2C(), AddrRxEEPROM)
	if err != nil {
		return nil, err
	}
	txE, err := dboard.ReadEEPROM(mb.slot.I2C(), AddrTxEEPROM)
	if err != nil {
		return nil, err
	}
	mb.rxID, mb.txID = rxE.ID, txE.ID

	log := o.log.With("mboard", name)
	mb.mgr, err = dboard.NewManager(o.reg, mb.rxID, mb.txID, mb.slot, dboard.WithLogger(log))
	if err != nil {
		return nil, err
	}
	for i := range max(1, len(mb.mgr.RxSubdevNames())) {
		mb.rxDSP = append(mb.rxDSP, newDSP(fmt.Sprintf("%s rx dsp%d", name, i), mb.clockRate, o.quant))
	}
	for i := range max(1, len(mb.mgr.TxSubdevNames())) {
		mb.txDSP = append(mb.txDSP, newDSP(fmt.Sprintf("%s tx dsp%d", name, i), mb.clockRate, o.quant))
	}

	if mb.rxSpec, err = mb.parseSpec(mc.RxSubdevSpec, true); err != nil {
		return nil, err
	}
	if mb.txSpec, err = mb.parseSpec(mc.TxSubdevSpec, false); err != nil {
		return nil, err
	}

	rxDB, err := mb.dboardTree(true)
	if err != nil {
		return nil, err
	}
	txDB, err := mb.dboardTree(false)
	if err != nil {
		return nil, err
	}
	mb.tree = mb.buildTree(rxDB, txDB)
	log.Debug("mboard ready", "rx_id", mb.rxID.String(), "tx_id", mb.txID.String(),
		"rx_spec", mb.rxSpec.String(), "tx_spec", mb.txSpec.String())
	return mb, nil
}

// eepromImage is what a slot reads back for id. IDNone is a blank part.
func eepromImage(id dboard.ID) []byte {
	if id == dboard.IDNone {
		return slices.Repeat([]byte{0xff}, dboard.EEPROMSize)
	}
	return dboard.EEPROM{ID: id}.Encode()
}

func (mb *Mboard) clockRate() float64 { return mb.rate }

func (mb *Mboard) parseSpec(s string, rx bool) (types.SubdevSpec, error) {
	spec, err := types.ParseSubdevSpec(s)
	if err != nil {
		return nil, errcode.Wrap(errcode.InvalidParams, "subdev spec", err)
	}
	return spec, mb.checkSpec(spec, rx)
}

func (mb *Mboard) checkSpec(spec types.SubdevSpec, rx bool) error {
	dir, names, ndsp := "tx", mb.mgr.TxSubdevNames(), len(mb.txDSP)
	if rx {
		dir, names, ndsp = "rx", mb.mgr.RxSubdevNames(), len(mb.rxDSP)
	}
	if len(spec) == 0 {
		return errcode.New(errcode.InvalidParams, "subdev spec", "empty %s spec", dir)
	}
	if len(spec) > ndsp {
		return errcode.New(errcode.InvalidParams, "subdev spec", "%s spec %q has %d channels, %d dsps", dir, spec, len(spec), ndsp)
	}
	for _, p := range spec {
		if p.DB != SlotName {
			return errcode.Addressingf("%s subdev spec %q: unknown dboard %q", dir, spec, p.DB)
		}
		if !slices.Contains(names, p.SD) {
			return errcode.Addressingf("%s subdev spec %q: unknown subdev %q (have %q)", dir, spec, p.SD, names)
		}
	}
	return nil
}

func (mb *Mboard) dboardTree(rx bool) (*prop.Tree, error) {
	dir, id, names, get := "TX", mb.txID, mb.mgr.TxSubdevNames(), mb.mgr.TxSubdev
	if rx {
		dir, id, names, get = "RX", mb.rxID, mb.mgr.RxSubdevNames(), mb.mgr.RxSubdev
	}
	name := fmt.Sprintf("%s %s dboard %s (%s)", mb.name, dir, SlotName, id)
	t := prop.NewTree(name)
	prop.Const(t, prop.K(prop.Name), name)
	prop.Const(t, prop.K(prop.SubdevNames), names)
	for _, sd := range names {
		n, err := get(sd)
		if err != nil {
			return nil, err
		}
		g, err := gaingroup.ForSubdev(n)
		if err != nil {
			return nil, fmt.Errorf("%s subdev %q gain group: %w", dir, sd, err)
		}
		prop.Link(t, prop.Named(prop.Subdev, sd), n)
		prop.Const(t, prop.Named(prop.GainGroup, sd), g)
	}
	prop.Const[dboard.Iface](t, prop.K(prop.DboardIface), mb.slot)
	prop.Const(t, prop.K(prop.DboardID), id)
	return t, nil
}

func (mb *Mboard) buildTree(rxDB, txDB *prop.Tree) *prop.Tree {
	t := prop.NewTree(mb.name)
	prop.Const(t, prop.K(prop.Name), mb.name)
	prop.Handle(t, prop.K(prop.ClockRate), prop.Accessor[float64]{
		Get: func() (float64, error) { return mb.rate, nil },
		Set: func(r float64) error {
			if r <= 0 {
				return errcode.New(errcode.InvalidParams, mb.name, "clock rate %v must be positive", r)
			}
			mb.rate = r
			return nil
		},
	})
	prop.Handle(t, prop.K(prop.TimeNow), prop.Accessor[types.TimeSpec]{
		Get: func() (types.TimeSpec, error) { return mb.count.now(), nil },
		Set: func(ts types.TimeSpec) error { mb.count.setNow(ts); return nil },
	})
	prop.Handle(t, prop.K(prop.TimePPS), prop.Accessor[types.TimeSpec]{
		Get: func() (types.TimeSpec, error) { return mb.count.lastPPS(), nil },
		Set: func(ts types.TimeSpec) error { mb.count.setNextPPS(ts); return nil },
	})
	prop.Handle(t, prop.K(prop.ClockConfig), prop.Accessor[types.ClockConfig]{
		Get: func() (types.ClockConfig, error) { return mb.clockCfg, nil },
		Set: func(c types.ClockConfig) error { mb.clockCfg = c; return nil },
	})
	prop.Const[types.MboardIface](t, prop.K(prop.Iface), &regs{mb: mb})
	prop.Const(t, prop.K(prop.SensorNames), []string{"ref_locked"})
	prop.Handle(t, prop.Named(prop.Sensor, "ref_locked"), prop.Accessor[types.SensorValue]{
		Get: func() (types.SensorValue, error) {
			return types.BoolSensor("ref_locked", true, "locked", "unlocked"), nil
		},
	})

	for _, side := range []struct {
		rx                  bool
		spec                *types.SubdevSpec
		specTag, namesTag   prop.Tag
		dspTag, dbNames, db prop.Tag
		dsps                []*dsp
		node                *prop.Tree
	}{
		{true, &mb.rxSpec, prop.RxSubdevSpec, prop.RxDSPNames, prop.RxDSP, prop.RxDboardNames, prop.RxDboard, mb.rxDSP, rxDB},
		{false, &mb.txSpec, prop.TxSubdevSpec, prop.TxDSPNames, prop.TxDSP, prop.TxDboardNames, prop.TxDboard, mb.txDSP, txDB},
	} {
		prop.Handle(t, prop.K(side.specTag), prop.Accessor[types.SubdevSpec]{
			Get: func() (types.SubdevSpec, error) { return slices.Clone(*side.spec), nil },
			Set: func(s types.SubdevSpec) error {
				if err := mb.checkSpec(s, side.rx); err != nil {
					return err
				}
				*side.spec = slices.Clone(s)
				return nil
			},
		})
		names := make([]string, len(side.dsps))
		for i, d := range side.dsps {
			names[i] = fmt.Sprint(i)
			prop.Link(t, prop.Named(side.dspTag, names[i]), d.tree(side.rx))
		}
		prop.Const(t, prop.K(side.namesTag), names)
		prop.Const(t, prop.K(side.dbNames), []string{SlotName})
		prop.Link(t, prop.Named(side.db, SlotName), side.node)
	}
	return t
}

// ---- test hooks ----

func (mb *Mboard) Name() string   { return mb.name }
func (mb *Mboard) Iface() *Iface  { return mb.slot }
func (mb *Mboard) PPSWrites() int { return mb.count.writes() }

// Drift moves the board's time counter by d.
func (mb *Mboard) Drift(d time.Duration) { mb.count.drift(d) }

// StreamCmds returns the commands issued to RX DSP i.
func (mb *Mboard) StreamCmds(i int) []types.StreamCmd {
	if i < 0 || i >= len(mb.rxDSP) {
		return nil
	}
	return slices.Clone(mb.rxDSP[i].cmds)
}

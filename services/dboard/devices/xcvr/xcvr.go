// Package xcvr is a TDD transceiver daughterboard: one LO synthesizer shared
// by the receive and transmit paths, an antenna switch driven by the ATR
// registers and programmable gain amplifiers on the serial bus.
package xcvr

import (
	"fmt"
	"log/slog"

	"tinygo.org/x/drivers"

	"usrphost-go/errcode"
	"usrphost-go/prop"
	"usrphost-go/services/dboard"
	"usrphost-go/types"
)

// ID is the EEPROM identifier of the board.
const ID dboard.ID = 0x0057

// GPIO bits on the TX bank.
const (
	bitAntSW = 1 << 6 // TX/RX port to transmitter
	bitRX2   = 1 << 5 // RX path fed from RX2 port
	bitPAEn  = 1 << 4
)

const (
	AntTXRX = "TX/RX"
	AntRX2  = "RX2"
)

// FreqRange is the nominal LO range. The FREQ_RANGE property reports the
// part of it the synthesizer reaches at the current reference.
var (
	FreqRange   = types.FreqRange{Start: 50e6, Stop: 2.2e9}
	RxGainRange = types.GainRange{Start: 0, Stop: 70, Step: 0.5}
	TxPGA0Range = types.GainRange{Start: -20, Stop: 0, Step: 1}
	TxPGA1Range = types.GainRange{Start: 0, Stop: 25, Step: 1}
	BWRange     = types.Range[float64]{Start: 1.5e6, Stop: 28e6}
)

// PGA register addresses.
const (
	pgaRX0 = 0x10
	pgaTX0 = 0x20
	pgaTX1 = 0x21
)

// Builder is comparable so the manager detects the transceiver pairing.
type Builder struct{}

var _ dboard.Builder = Builder{}

// Register adds the board to reg under ID with its single sub-device "0".
func Register(reg *dboard.Registry) { reg.Register(ID, Builder{}, "0") }

func (Builder) Build(in dboard.BuildInput) (dboard.Board, error) {
	log := in.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	ifc := in.Iface
	spi := ifc.SPI(dboard.UnitTX)
	if spi == nil {
		return nil, errcode.New(errcode.Configuration, "xcvr", "no spi bus on tx unit")
	}
	b := &board{
		name:  in.Name,
		ifc:   ifc,
		spi:   spi,
		log:   log,
		synth: newSynth(spi, ifc.ClockRate(dboard.UnitTX), FreqRange),
		rxAnt: AntRX2,
		rxBW:  BWRange.Stop,
		txBW:  BWRange.Stop,
		rxEn:  true,
		txEn:  true,
		gains: map[uint8]float64{},
	}

	outputs := uint16(bitAntSW | bitRX2 | bitPAEn)
	if err := ifc.SetGPIODDR(dboard.BankTX, outputs, outputs); err != nil {
		return nil, err
	}
	if err := ifc.SetATRReg(dboard.BankTX, dboard.ATR{
		Idle:       0,
		RX:         0,
		TX:         bitAntSW | bitPAEn,
		FullDuplex: bitAntSW | bitPAEn,
	}); err != nil {
		return nil, err
	}
	if err := b.setRxAntenna(AntRX2); err != nil {
		return nil, err
	}
	if _, err := b.synth.tune(FreqRange.Start); err != nil {
		return nil, err
	}

	b.TreeBoard = dboard.TreeBoard{RX: b.rxFace(), TX: b.txFace()}
	return b, nil
}

type board struct {
	dboard.TreeBoard

	name  string
	ifc   dboard.Iface
	spi   drivers.SPI
	log   *slog.Logger
	synth *synth

	rxAnt      string
	rxBW, txBW float64
	rxEn, txEn bool
	gains      map[uint8]float64
}

func (b *board) setFreq(f float64) error {
	f = FreqRange.Clip(f, false)
	got, err := b.synth.tune(f)
	if err != nil {
		return err
	}
	b.log.Debug("lo tuned", "target", f, "actual", got, "n", b.synth.n, "frac", b.synth.frac, "div", b.synth.div)
	return nil
}

func (b *board) setGain(addr uint8, r types.GainRange, v float64) error {
	v = r.Clip(v, true)
	code := uint8((v - r.Start) / r.Step)
	if err := b.spi.Tx([]byte{addr, code}, nil); err != nil {
		return errcode.Wrap(errcode.Error, "xcvr pga", err)
	}
	b.gains[addr] = v
	return nil
}

func (b *board) setRxAntenna(ant string) error {
	var v uint16
	switch ant {
	case AntRX2:
		v = bitRX2
	case AntTXRX:
	default:
		return errcode.New(errcode.InvalidParams, "xcvr", "no rx antenna %q", ant)
	}
	if err := b.ifc.WriteGPIO(dboard.BankTX, v, bitRX2); err != nil {
		return err
	}
	b.rxAnt = ant
	return nil
}

func (b *board) lockSensor() types.SensorValue {
	return types.BoolSensor("lo_locked", b.synth.locked, "locked", "unlocked")
}

func (b *board) common(t *prop.Tree, bw *float64, en *bool) {
	prop.Handle(t, prop.K(prop.Freq), prop.Accessor[float64]{
		Get: func() (float64, error) { return b.synth.freq, nil },
		Set: b.setFreq,
	})
	prop.Handle(t, prop.K(prop.FreqRange), prop.Accessor[types.FreqRange]{
		Get: func() (types.FreqRange, error) { return b.synth.reach(), nil },
	})
	prop.Const(t, prop.K(prop.Connection), types.ConnIQ)
	prop.Handle(t, prop.K(prop.Enabled), prop.Accessor[bool]{
		Get: func() (bool, error) { return *en, nil },
		Set: func(v bool) error { *en = v; return nil },
	})
	prop.Const(t, prop.K(prop.UseLOOffset), false)
	prop.Handle(t, prop.K(prop.Bandwidth), prop.Accessor[float64]{
		Get: func() (float64, error) { return *bw, nil },
		Set: func(v float64) error { *bw = BWRange.Clip(v, false); return nil },
	})
	prop.Const(t, prop.K(prop.SensorNames), []string{"lo_locked"})
	prop.Handle(t, prop.Named(prop.Sensor, "lo_locked"), prop.Accessor[types.SensorValue]{
		Get: func() (types.SensorValue, error) { return b.lockSensor(), nil },
	})
}

func (b *board) gain(t *prop.Tree, name string, addr uint8, r types.GainRange) {
	prop.Handle(t, prop.Named(prop.Gain, name), prop.Accessor[float64]{
		Get: func() (float64, error) { return b.gains[addr], nil },
		Set: func(v float64) error { return b.setGain(addr, r, v) },
	})
	prop.Const(t, prop.Named(prop.GainRange, name), r)
}

func (b *board) rxFace() *prop.Tree {
	name := fmt.Sprintf("XCVR RX (%s)", b.name)
	t := prop.NewTree(name)
	prop.Const(t, prop.K(prop.Name), name)
	prop.Const(t, prop.K(prop.GainNames), []string{"PGA0"})
	b.gain(t, "PGA0", pgaRX0, RxGainRange)
	prop.Handle(t, prop.K(prop.Antenna), prop.Accessor[string]{
		Get: func() (string, error) { return b.rxAnt, nil },
		Set: b.setRxAntenna,
	})
	prop.Const(t, prop.K(prop.AntennaNames), []string{AntTXRX, AntRX2})
	b.common(t, &b.rxBW, &b.rxEn)
	return t
}

func (b *board) txFace() *prop.Tree {
	name := fmt.Sprintf("XCVR TX (%s)", b.name)
	t := prop.NewTree(name)
	prop.Const(t, prop.K(prop.Name), name)
	prop.Const(t, prop.K(prop.GainNames), []string{"PGA0", "PGA1"})
	b.gain(t, "PGA0", pgaTX0, TxPGA0Range)
	b.gain(t, "PGA1", pgaTX1, TxPGA1Range)
	prop.Handle(t, prop.K(prop.Antenna), prop.Accessor[string]{
		Get: func() (string, error) { return AntTXRX, nil },
		Set: func(a string) error {
			if a != AntTXRX {
				return errcode.New(errcode.InvalidParams, "xcvr", "no tx antenna %q", a)
			}
			return nil
		},
	})
	prop.Const(t, prop.K(prop.AntennaNames), []string{AntTXRX})
	b.common(t, &b.txBW, &b.txEn)
	return t
}

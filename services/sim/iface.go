package sim

import (
	"fmt"
	"sync"

	"tinygo.org/x/drivers"

	"usrphost-go/errcode"
	"usrphost-go/services/dboard"
)

// EEPROM addresses of the two halves of a slot.
const (
	AddrRxEEPROM uint16 = 0x50
	AddrTxEEPROM uint16 = 0x51
)

// ----------------------------- I²C ------------------------------------------

// I2C is a bus of byte-addressed memories. A write of one byte sets the read
// pointer; longer writes store data after the pointer byte.
type I2C struct {
	mu   sync.Mutex
	mem  map[uint16][]byte
	Txns int
}

func NewI2C() *I2C { return &I2C{mem: map[uint16][]byte{}} }

// Attach places a memory of contents at addr.
func (b *I2C) Attach(addr uint16, contents []byte) {
	b.mu.Lock()
	b.mem[addr] = append([]byte(nil), contents...)
	b.mu.Unlock()
}

func (b *I2C) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Txns++
	m, ok := b.mem[addr]
	if !ok {
		return fmt.Errorf("i2c 0x%02x: nack", addr)
	}
	off := 0
	if len(w) > 0 {
		off = int(w[0])
		for i, x := range w[1:] {
			if off+i < len(m) {
				m[off+i] = x
			}
		}
	}
	for i := range r {
		if off+i < len(m) {
			r[i] = m[off+i]
		} else {
			r[i] = 0xff
		}
	}
	return nil
}

// ----------------------------- SPI ------------------------------------------

// SPI records every transaction. Reads return zeros.
type SPI struct {
	mu     sync.Mutex
	writes [][]byte
	Err    error
}

func (s *SPI) Tx(w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.writes = append(s.writes, append([]byte(nil), w...))
	clear(r)
	return nil
}

func (s *SPI) Transfer(b byte) (byte, error) {
	var r [1]byte
	err := s.Tx([]byte{b}, r[:])
	return r[0], err
}

// Writes returns a copy of the recorded transactions.
func (s *SPI) Writes() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.writes))
	copy(out, s.writes)
	return out
}

// ----------------------------- slot -----------------------------------------

// Iface is an in-memory daughterboard slot: two GPIO banks with direction
// and ATR registers, one SPI bus per unit and the EEPROM bus.
type Iface struct {
	mu   sync.Mutex
	ddr  [2]uint16
	gpio [2]uint16
	atr  [2]dboard.ATR
	ops  []string

	spi  [2]*SPI
	i2c  *I2C
	rate func() float64
}

var _ dboard.Iface = (*Iface)(nil)

// NewIface returns a slot clocked by rate.
func NewIface(rate func() float64) *Iface {
	return &Iface{
		spi:  [2]*SPI{{}, {}},
		i2c:  NewI2C(),
		rate: rate,
	}
}

func (f *Iface) logOp(format string, args ...any) {
	f.ops = append(f.ops, fmt.Sprintf(format, args...))
}

func bankOK(b dboard.Bank) error {
	if b > dboard.BankTX {
		return errcode.New(errcode.InvalidParams, "gpio", "no bank %d", b)
	}
	return nil
}

func (f *Iface) SetGPIODDR(b dboard.Bank, v, m uint16) error {
	if err := bankOK(b); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ddr[b] = f.ddr[b]&^m | v&m
	f.logOp("ddr %s 0x%04x/0x%04x", b, v, m)
	return nil
}

func (f *Iface) WriteGPIO(b dboard.Bank, v, m uint16) error {
	if err := bankOK(b); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gpio[b] = f.gpio[b]&^m | v&m
	f.logOp("write %s 0x%04x/0x%04x", b, v, m)
	return nil
}

// ReadGPIO returns output pins as driven; input pins read low.
func (f *Iface) ReadGPIO(b dboard.Bank) (uint16, error) {
	if err := bankOK(b); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gpio[b] & f.ddr[b], nil
}

func (f *Iface) SetATRReg(b dboard.Bank, a dboard.ATR) error {
	if err := bankOK(b); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.atr[b] = a
	f.logOp("atr %s %s", b, a)
	return nil
}

func (f *Iface) SPI(u dboard.Unit) drivers.SPI { return f.spi[u&1] }
func (f *Iface) I2C() drivers.I2C              { return f.i2c }
func (f *Iface) ClockRate(dboard.Unit) float64 { return f.rate() }

// SPIBus exposes the recorder of unit.
func (f *Iface) SPIBus(u dboard.Unit) *SPI { return f.spi[u&1] }

// EEPROMBus exposes the slot's I²C memories.
func (f *Iface) EEPROMBus() *I2C { return f.i2c }

// ATR returns the last ATR values written to b.
func (f *Iface) ATR(b dboard.Bank) dboard.ATR {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.atr[b&1]
}

// Ops returns the register operations in the order they happened.
func (f *Iface) Ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ops...)
}

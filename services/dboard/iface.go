// Package dboard builds daughterboard objects from hardware identifiers and
// publishes their sub-devices as direction-tagged property nodes.
package dboard

import (
	"fmt"

	"tinygo.org/x/drivers"
)

// Bank selects one of the two 16-bit GPIO banks on a daughterboard slot.
type Bank uint8

const (
	BankRX Bank = iota
	BankTX
)

func (b Bank) String() string {
	if b == BankTX {
		return "tx"
	}
	return "rx"
}

// Unit selects the RX or TX side of the slot for serial buses and clocks.
type Unit uint8

const (
	UnitRX Unit = iota
	UnitTX
)

func (u Unit) String() string {
	if u == UnitTX {
		return "tx"
	}
	return "rx"
}

// ATR holds the automatic transmit/receive register values of one bank.
type ATR struct {
	Idle       uint16
	RX         uint16
	TX         uint16
	FullDuplex uint16
}

func (a ATR) String() string {
	return fmt.Sprintf("idle=0x%04x rx=0x%04x tx=0x%04x fdx=0x%04x", a.Idle, a.RX, a.TX, a.FullDuplex)
}

// Iface is the hardware handle a motherboard hands to its daughterboards.
type Iface interface {
	SetGPIODDR(bank Bank, value, mask uint16) error
	WriteGPIO(bank Bank, value, mask uint16) error
	ReadGPIO(bank Bank) (uint16, error)
	SetATRReg(bank Bank, atr ATR) error

	// SPI returns the serial bus wired to the chip select of unit.
	SPI(unit Unit) drivers.SPI
	// I2C returns the slot's EEPROM / peripheral bus.
	I2C() drivers.I2C

	// ClockRate reports the reference clock fed to unit in Hz.
	ClockRate(unit Unit) float64
}

// resetGPIO puts both banks into the software-controlled, all-input,
// all-zero state expected before any board constructor runs.
func resetGPIO(ifc Iface) error {
	for _, b := range []Bank{BankRX, BankTX} {
		if err := ifc.SetGPIODDR(b, 0x0000, 0xffff); err != nil {
			return fmt.Errorf("gpio ddr %s: %w", b, err)
		}
	}
	for _, b := range []Bank{BankRX, BankTX} {
		if err := ifc.WriteGPIO(b, 0x0000, 0xffff); err != nil {
			return fmt.Errorf("gpio write %s: %w", b, err)
		}
	}
	for _, b := range []Bank{BankRX, BankTX} {
		if err := ifc.SetATRReg(b, ATR{}); err != nil {
			return fmt.Errorf("atr %s: %w", b, err)
		}
	}
	return nil
}

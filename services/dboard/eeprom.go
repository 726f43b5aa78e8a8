package dboard

import (
	"encoding/binary"

	"tinygo.org/x/drivers"

	"usrphost-go/errcode"
)

// EEPROM layout: magic, little-endian board id, little-endian option id,
// zero padding, and a trailing checksum byte that makes the sum of all
// bytes zero modulo 256.
const (
	EEPROMSize  = 32
	eepromMagic = 0xDB

	offMagic    = 0
	offID       = 1
	offOption   = 3
	offChecksum = EEPROMSize - 1
)

// EEPROM is the decoded identity block of a daughterboard.
type EEPROM struct {
	ID       ID
	OptionID uint16
}

// Encode renders the EEPROM image.
func (e EEPROM) Encode() []byte {
	buf := make([]byte, EEPROMSize)
	buf[offMagic] = eepromMagic
	binary.LittleEndian.PutUint16(buf[offID:], uint16(e.ID))
	binary.LittleEndian.PutUint16(buf[offOption:], e.OptionID)
	buf[offChecksum] = -checksum(buf[:offChecksum])
	return buf
}

// DecodeEEPROM parses an image. Blank, short or corrupt images decode to
// IDNone together with a non-nil error describing the defect.
func DecodeEEPROM(b []byte) (EEPROM, error) {
	none := EEPROM{ID: IDNone}
	if len(b) < EEPROMSize {
		return none, errcode.New(errcode.InvalidParams, "eeprom", "short image: %d bytes", len(b))
	}
	b = b[:EEPROMSize]
	if b[offMagic] != eepromMagic {
		return none, errcode.New(errcode.InvalidParams, "eeprom", "bad magic 0x%02x", b[offMagic])
	}
	if checksum(b) != 0 {
		return none, errcode.New(errcode.InvalidParams, "eeprom", "checksum mismatch")
	}
	return EEPROM{
		ID:       ID(binary.LittleEndian.Uint16(b[offID:])),
		OptionID: binary.LittleEndian.Uint16(b[offOption:]),
	}, nil
}

// ReadEEPROM reads and decodes the identity EEPROM at addr. Decode failures
// are not returned: a missing or unprogrammed board reads as IDNone. Bus
// errors are returned.
func ReadEEPROM(bus drivers.I2C, addr uint16) (EEPROM, error) {
	buf := make([]byte, EEPROMSize)
	if err := bus.Tx(addr, []byte{0x00}, buf); err != nil {
		return EEPROM{ID: IDNone}, errcode.Wrap(errcode.Error, "eeprom read", err)
	}
	e, _ := DecodeEEPROM(buf)
	return e, nil
}

func checksum(b []byte) byte {
	var s byte
	for _, x := range b {
		s += x
	}
	return s
}

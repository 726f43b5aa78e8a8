package sim

import (
	"sync"

	"usrphost-go/errcode"
	"usrphost-go/types"
)

// Motherboard register map.
const (
	RegCompat    uint32 = 0x00
	RegScratch   uint32 = 0x04
	RegTimeSecs  uint32 = 0x10
	RegTimeTicks uint32 = 0x14
	RegPPSSecs   uint32 = 0x18
	RegPPSTicks  uint32 = 0x1c
)

// CompatNum is the value read back from RegCompat.
const CompatNum uint32 = 0x000a

// regs is the register window of one motherboard. The time registers are
// read-only views of the counter.
type regs struct {
	mb *Mboard

	mu      sync.Mutex
	scratch uint32
}

var _ types.MboardIface = (*regs)(nil)

func (r *regs) Peek32(addr uint32) (uint32, error) {
	switch addr {
	case RegCompat:
		return CompatNum, nil
	case RegScratch:
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.scratch, nil
	case RegTimeSecs, RegTimeTicks:
		return r.split(r.mb.count.now(), addr == RegTimeSecs), nil
	case RegPPSSecs, RegPPSTicks:
		return r.split(r.mb.count.lastPPS(), addr == RegPPSSecs), nil
	}
	return 0, errcode.Addressingf("%s: no register at 0x%02x", r.mb.name, addr)
}

func (r *regs) Poke32(addr, v uint32) error {
	switch addr {
	case RegScratch:
		r.mu.Lock()
		r.scratch = v
		r.mu.Unlock()
		return nil
	case RegCompat, RegTimeSecs, RegTimeTicks, RegPPSSecs, RegPPSTicks:
		return errcode.New(errcode.InvalidParams, r.mb.name, "register 0x%02x is read-only", addr)
	}
	return errcode.Addressingf("%s: no register at 0x%02x", r.mb.name, addr)
}

// split returns the whole seconds or the sub-second ticks of t.
func (r *regs) split(t types.TimeSpec, secs bool) uint32 {
	if secs {
		return uint32(t.Secs)
	}
	return uint32(types.TimeSpec{Frac: t.Frac}.Ticks(r.mb.rate))
}

package xcvr

import (
	"encoding/binary"
	"math"
	"math/bits"

	"tinygo.org/x/drivers"

	"usrphost-go/errcode"
	"usrphost-go/types"
)

// Fractional-N synthesizer: f = Fpfd * (N + FRAC/MOD) / DIV, Fpfd = ref / R.
// DIV is the smallest power of two that lifts the VCO to vcoMin.
const (
	synthMod    = 4096
	synthR      = 4
	synthNMin   = 23
	synthNMax   = 0xffff
	synthDivMax = 64
	vcoMin      = 2.2e9
)

// register addresses live in the low three bits
const (
	regNFrac = 0
	regMod   = 1
	regR     = 2
)

type synth struct {
	spi    drivers.SPI
	ref    float64
	lim    types.FreqRange
	freq   float64
	n      uint32
	frac   uint32
	div    uint32
	locked bool
}

func newSynth(spi drivers.SPI, ref float64, lim types.FreqRange) *synth {
	return &synth{spi: spi, ref: ref, lim: lim}
}

func (s *synth) pfd() float64 { return s.ref / synthR }

func outDiv(f float64) uint32 {
	d := uint32(1)
	for f*float64(d) < vcoMin && d < synthDivMax {
		d <<= 1
	}
	return d
}

// setting is one register programming: N + FRAC/MOD after the divider.
type setting struct {
	n, frac int64
	div     uint32
}

func (s *synth) freqOf(st setting) float64 {
	return s.pfd() * (float64(st.n) + float64(st.frac)/synthMod) / float64(st.div)
}

// step moves the setting by d FRAC units, carrying into N.
func (st *setting) step(d int64) {
	st.frac += d
	switch {
	case st.frac < 0:
		st.n--
		st.frac += synthMod
	case st.frac >= synthMod:
		st.n++
		st.frac -= synthMod
	}
}

// plan finds the setting nearest f that stays inside the tuning limits.
func (s *synth) plan(f float64) (setting, error) {
	pfd := s.pfd()
	if pfd <= 0 {
		return setting{}, errcode.New(errcode.Configuration, "xcvr synth", "no reference clock")
	}
	div := outDiv(f)
	ratio := f * float64(div) / pfd
	n := math.Floor(ratio)
	st := setting{n: int64(n), frac: int64(math.Round((ratio - n) * synthMod)), div: div}
	if st.frac >= synthMod {
		st.n++
		st.frac = 0
	}
	// rounding to the nearest step can cross a limit; one step back in fixes it
	if got := s.freqOf(st); got > s.lim.Stop {
		st.step(-1)
	} else if got < s.lim.Start {
		st.step(1)
	}
	if got := s.freqOf(st); !s.lim.Contains(got) {
		return setting{}, errcode.New(errcode.InvalidParams, "xcvr synth", "no setting for %.0f Hz inside %v", f, s.lim)
	}
	if st.n < synthNMin || st.n > synthNMax {
		return setting{}, errcode.New(errcode.InvalidParams, "xcvr synth", "N=%d out of range for %.0f Hz", st.n, f)
	}
	return st, nil
}

// reach is the span of frequencies the synthesizer can actually produce
// within its limits.
func (s *synth) reach() types.FreqRange {
	lo, err := s.plan(s.lim.Start)
	if err != nil {
		return s.lim
	}
	hi, err := s.plan(s.lim.Stop)
	if err != nil {
		return s.lim
	}
	return types.FreqRange{Start: s.freqOf(lo), Stop: s.freqOf(hi)}
}

// tune programs the nearest achievable frequency and returns it.
func (s *synth) tune(f float64) (float64, error) {
	st, err := s.plan(f)
	if err != nil {
		return 0, err
	}
	if err := s.write(regR, synthR<<14|uint32(bits.TrailingZeros32(st.div))<<3); err != nil {
		return 0, err
	}
	if err := s.write(regMod, synthMod<<3); err != nil {
		return 0, err
	}
	if err := s.write(regNFrac, uint32(st.n)<<15|uint32(st.frac)<<3); err != nil {
		return 0, err
	}

	s.n, s.frac, s.div = uint32(st.n), uint32(st.frac), st.div
	s.freq = s.freqOf(st)
	s.locked = true
	return s.freq, nil
}

func (s *synth) write(addr, payload uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], payload|addr)
	if err := s.spi.Tx(buf[:], nil); err != nil {
		s.locked = false
		return errcode.Wrap(errcode.Error, "xcvr synth write", err)
	}
	return nil
}

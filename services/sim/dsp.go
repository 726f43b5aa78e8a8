package sim

import (
	"math"

	"usrphost-go/errcode"
	"usrphost-go/prop"
	"usrphost-go/types"
	"usrphost-go/x/mathx"
)

// Decimation and interpolation limits of the DSP chain.
const (
	minRateDiv = 4
	maxRateDiv = 512
	phaseBits  = 32
)

// RateQuantizer maps a requested host rate to the rate the hardware gives.
type RateQuantizer func(requested, codec float64) float64

// DivQuantizer picks the nearest integer divider of codec within limits.
func DivQuantizer(requested, codec float64) float64 {
	if requested <= 0 {
		return codec / maxRateDiv
	}
	div := mathx.Clamp(math.Round(codec/requested), minRateDiv, maxRateDiv)
	return codec / div
}

// quantizeShift rounds f to the 32-bit phase increment of the mixer.
func quantizeShift(f, codec float64) float64 {
	lim := codec / 2
	f = mathx.Clamp(f, -lim, lim)
	return mathx.Nearest(f, codec/math.Ldexp(1, phaseBits))
}

type dsp struct {
	name  string
	codec func() float64
	quant RateQuantizer
	rate  float64
	shift float64
	cmds  []types.StreamCmd
}

func newDSP(name string, codec func() float64, q RateQuantizer) *dsp {
	d := &dsp{name: name, codec: codec, quant: q}
	d.rate = q(codec()/minRateDiv, codec())
	return d
}

func (d *dsp) tree(rx bool) *prop.Tree {
	t := prop.NewTree(d.name)
	prop.Const(t, prop.K(prop.Name), d.name)
	prop.Handle(t, prop.K(prop.CodecRate), prop.Accessor[float64]{
		Get: func() (float64, error) { return d.codec(), nil },
	})
	prop.Handle(t, prop.K(prop.HostRate), prop.Accessor[float64]{
		Get: func() (float64, error) { return d.rate, nil },
		Set: func(r float64) error {
			if r <= 0 {
				return errcode.New(errcode.InvalidParams, d.name, "rate %v must be positive", r)
			}
			d.rate = d.quant(r, d.codec())
			return nil
		},
	})
	prop.Handle(t, prop.K(prop.FreqShift), prop.Accessor[float64]{
		Get: func() (float64, error) { return d.shift, nil },
		Set: func(f float64) error { d.shift = quantizeShift(f, d.codec()); return nil },
	})
	if rx {
		prop.Handle(t, prop.K(prop.StreamCmd), prop.Accessor[types.StreamCmd]{
			Set: d.issue,
		})
	}
	return t
}

func (d *dsp) issue(c types.StreamCmd) error {
	switch c.Mode {
	case types.StreamStartContinuous, types.StreamStopContinuous:
	case types.StreamNumSampsAndDone, types.StreamNumSampsAndMore:
		if c.NumSamps == 0 {
			return errcode.New(errcode.InvalidParams, d.name, "stream mode %d needs num_samps", c.Mode)
		}
	default:
		return errcode.New(errcode.InvalidParams, d.name, "unknown stream mode %d", c.Mode)
	}
	if !c.StreamNow {
		// timed commands fire on a codec clock tick
		rate := d.codec()
		c.Time = types.TimeFromTicks(c.Time.Ticks(rate), rate)
	}
	d.cmds = append(d.cmds, c)
	return nil
}

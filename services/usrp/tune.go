package usrp

import (
	"usrphost-go/errcode"
	"usrphost-go/prop"
	"usrphost-go/types"
	"usrphost-go/x/mathx"
)

// setFreq tunes ch, or every channel with AllChans; the fan-out returns a
// zero result.
func (u *USRP) setFreq(s side, req types.TuneRequest, ch int) (types.TuneResult, error) {
	if ch == AllChans {
		err := u.eachChan(s, ch, func(ch int) error {
			_, err := u.setFreq(s, req, ch)
			return err
		})
		return types.TuneResult{}, err
	}
	c, err := u.channel(s, ch)
	if err != nil {
		return types.TuneResult{}, err
	}
	res, err := tuneSubdevAndDSP(c.subdev, c.dsp, req)
	if err != nil {
		return res, err
	}
	u.checkFreq(s, ch, req.TargetFreq, res.Freq())
	return res, nil
}

// tuneSubdevAndDSP places the RF front end as close as its range allows
// and makes up the rest with the DSP mixer, limited to half the codec rate.
func tuneSubdevAndDSP(subdev, dsp prop.Node, req types.TuneRequest) (types.TuneResult, error) {
	var res types.TuneResult

	rfRange, err := prop.Read[types.FreqRange](subdev, prop.K(prop.FreqRange))
	if err != nil {
		return res, err
	}
	codec, err := prop.Read[float64](dsp, prop.K(prop.CodecRate))
	if err != nil {
		return res, err
	}

	switch req.RFPolicy {
	case types.PolicyAuto:
		res.TargetRFFreq = rfRange.Clip(req.TargetFreq+req.LOOffset, false)
	case types.PolicyManual:
		res.TargetRFFreq = req.RFFreq
	case types.PolicyNone:
	default:
		return res, errcode.New(errcode.InvalidParams, "tune", "unknown rf policy %d", req.RFPolicy)
	}
	if req.RFPolicy != types.PolicyNone {
		if err := prop.Write(subdev, res.TargetRFFreq, prop.K(prop.Freq)); err != nil {
			return res, err
		}
	}
	if res.ActualRFFreq, err = prop.Read[float64](subdev, prop.K(prop.Freq)); err != nil {
		return res, err
	}
	if req.RFPolicy == types.PolicyNone {
		res.TargetRFFreq = res.ActualRFFreq
	}

	lim := codec / 2
	switch req.DSPPolicy {
	case types.PolicyAuto:
		res.TargetDSPFreq = mathx.Clamp(req.TargetFreq-res.ActualRFFreq, -lim, lim)
	case types.PolicyManual:
		res.TargetDSPFreq = req.DSPFreq
	case types.PolicyNone:
	default:
		return res, errcode.New(errcode.InvalidParams, "tune", "unknown dsp policy %d", req.DSPPolicy)
	}
	if req.DSPPolicy != types.PolicyNone {
		if err := prop.Write(dsp, res.TargetDSPFreq, prop.K(prop.FreqShift)); err != nil {
			return res, err
		}
	}
	if res.ActualDSPFreq, err = prop.Read[float64](dsp, prop.K(prop.FreqShift)); err != nil {
		return res, err
	}
	if req.DSPPolicy == types.PolicyNone {
		res.TargetDSPFreq = res.ActualDSPFreq
	}
	return res, nil
}

func (u *USRP) freq(s side, ch int) (float64, error) {
	c, err := u.channel(s, ch)
	if err != nil {
		return 0, err
	}
	rf, err := prop.Read[float64](c.subdev, prop.K(prop.Freq))
	if err != nil {
		return 0, err
	}
	shift, err := prop.Read[float64](c.dsp, prop.K(prop.FreqShift))
	if err != nil {
		return 0, err
	}
	return rf + shift, nil
}

// freqRange is the RF range widened by half the codec rate on each side.
func (u *USRP) freqRange(s side, ch int) (types.FreqRange, error) {
	c, err := u.channel(s, ch)
	if err != nil {
		return types.FreqRange{}, err
	}
	r, err := prop.Read[types.FreqRange](c.subdev, prop.K(prop.FreqRange))
	if err != nil {
		return types.FreqRange{}, err
	}
	codec, err := prop.Read[float64](c.dsp, prop.K(prop.CodecRate))
	if err != nil {
		return types.FreqRange{}, err
	}
	return r.Expand(codec / 2), nil
}

package usrp

import (
	"usrphost-go/prop"
	"usrphost-go/services/dboard"
	"usrphost-go/types"
)

// ---- per-channel internals shared by both directions ----

func readSubdev[T any](u *USRP, s side, ch int, key prop.Key) (T, error) {
	c, err := u.channel(s, ch)
	if err != nil {
		var zero T
		return zero, err
	}
	return prop.Read[T](c.subdev, key)
}

func writeSubdev[T any](u *USRP, s side, ch int, key prop.Key, v T) error {
	return u.eachChan(s, ch, func(ch int) error {
		c, err := u.channel(s, ch)
		if err != nil {
			return err
		}
		return prop.Write(c.subdev, v, key)
	})
}

func (u *USRP) setSubdevSpec(s side, spec types.SubdevSpec, m int) error {
	return u.eachMboard(m, func(m int) error {
		mb, err := u.mboard(m)
		if err != nil {
			return err
		}
		return prop.Write(mb, spec, prop.K(s.spec))
	})
}

func (u *USRP) setRate(s side, rate float64, ch int) error {
	return u.eachChan(s, ch, func(ch int) error {
		c, err := u.channel(s, ch)
		if err != nil {
			return err
		}
		if err := prop.Write(c.dsp, rate, prop.K(prop.HostRate)); err != nil {
			return err
		}
		actual, err := prop.Read[float64](c.dsp, prop.K(prop.HostRate))
		if err != nil {
			return err
		}
		u.checkRate(s, ch, rate, actual)
		return nil
	})
}

func (u *USRP) rate(s side, ch int) (float64, error) {
	c, err := u.channel(s, ch)
	if err != nil {
		return 0, err
	}
	return prop.Read[float64](c.dsp, prop.K(prop.HostRate))
}

func (u *USRP) setGain(s side, gain float64, name string, ch int) error {
	return u.eachChan(s, ch, func(ch int) error {
		c, err := u.channel(s, ch)
		if err != nil {
			return err
		}
		g, err := c.gainGroup()
		if err != nil {
			return err
		}
		return g.SetValue(gain, name)
	})
}

func (u *USRP) gain(s side, name string, ch int) (float64, error) {
	c, err := u.channel(s, ch)
	if err != nil {
		return 0, err
	}
	g, err := c.gainGroup()
	if err != nil {
		return 0, err
	}
	return g.Value(name)
}

func (u *USRP) gainRange(s side, name string, ch int) (types.GainRange, error) {
	c, err := u.channel(s, ch)
	if err != nil {
		return types.GainRange{}, err
	}
	g, err := c.gainGroup()
	if err != nil {
		return types.GainRange{}, err
	}
	return g.Range(name)
}

func (u *USRP) gainNames(s side, ch int) ([]string, error) {
	c, err := u.channel(s, ch)
	if err != nil {
		return nil, err
	}
	g, err := c.gainGroup()
	if err != nil {
		return nil, err
	}
	return g.Names(), nil
}

func (u *USRP) dboardIface(s side, ch int) (dboard.Iface, error) {
	c, err := u.channel(s, ch)
	if err != nil {
		return nil, err
	}
	return prop.Read[dboard.Iface](c.dboard, prop.K(prop.DboardIface))
}

// ---- RX ----

func (u *USRP) SetRxSubdevSpec(spec types.SubdevSpec, m int) error {
	return u.setSubdevSpec(rxSide, spec, m)
}
func (u *USRP) RxSubdevSpec(m int) (types.SubdevSpec, error) { return u.subdevSpec(rxSide, m) }
func (u *USRP) RxNumChannels() (int, error)                  { return u.numChannels(rxSide) }

func (u *USRP) RxSubdevName(ch int) (string, error) {
	return readSubdev[string](u, rxSide, ch, prop.K(prop.Name))
}

// SetRxRate sets the host sample rate. A realized rate more than the rate
// tolerance away from rate is reported as a warning, not an error.
func (u *USRP) SetRxRate(rate float64, ch int) error { return u.setRate(rxSide, rate, ch) }
func (u *USRP) RxRate(ch int) (float64, error)       { return u.rate(rxSide, ch) }

func (u *USRP) SetRxFreq(req types.TuneRequest, ch int) (types.TuneResult, error) {
	return u.setFreq(rxSide, req, ch)
}
func (u *USRP) RxFreq(ch int) (float64, error)              { return u.freq(rxSide, ch) }
func (u *USRP) RxFreqRange(ch int) (types.FreqRange, error) { return u.freqRange(rxSide, ch) }
func (u *USRP) SetRxGain(gain float64, name string, ch int) error {
	return u.setGain(rxSide, gain, name, ch)
}
func (u *USRP) RxGain(name string, ch int) (float64, error) { return u.gain(rxSide, name, ch) }
func (u *USRP) RxGainRange(name string, ch int) (types.GainRange, error) {
	return u.gainRange(rxSide, name, ch)
}
func (u *USRP) RxGainNames(ch int) ([]string, error) { return u.gainNames(rxSide, ch) }

func (u *USRP) SetRxAntenna(ant string, ch int) error {
	return writeSubdev(u, rxSide, ch, prop.K(prop.Antenna), ant)
}
func (u *USRP) RxAntenna(ch int) (string, error) {
	return readSubdev[string](u, rxSide, ch, prop.K(prop.Antenna))
}
func (u *USRP) RxAntennas(ch int) ([]string, error) {
	return readSubdev[[]string](u, rxSide, ch, prop.K(prop.AntennaNames))
}

func (u *USRP) SetRxBandwidth(bw float64, ch int) error {
	return writeSubdev(u, rxSide, ch, prop.K(prop.Bandwidth), bw)
}
func (u *USRP) RxBandwidth(ch int) (float64, error) {
	return readSubdev[float64](u, rxSide, ch, prop.K(prop.Bandwidth))
}

func (u *USRP) RxSensor(name string, ch int) (types.SensorValue, error) {
	return readSubdev[types.SensorValue](u, rxSide, ch, prop.Named(prop.Sensor, name))
}
func (u *USRP) RxSensorNames(ch int) ([]string, error) {
	return readSubdev[[]string](u, rxSide, ch, prop.K(prop.SensorNames))
}

func (u *USRP) RxDboardIface(ch int) (dboard.Iface, error) { return u.dboardIface(rxSide, ch) }

// IssueStreamCmd sends cmd to the RX DSP of ch, or of every channel.
func (u *USRP) IssueStreamCmd(cmd types.StreamCmd, ch int) error {
	return u.eachChan(rxSide, ch, func(ch int) error {
		c, err := u.channel(rxSide, ch)
		if err != nil {
			return err
		}
		return prop.Write(c.dsp, cmd, prop.K(prop.StreamCmd))
	})
}

// ---- TX ----

func (u *USRP) SetTxSubdevSpec(spec types.SubdevSpec, m int) error {
	return u.setSubdevSpec(txSide, spec, m)
}
func (u *USRP) TxSubdevSpec(m int) (types.SubdevSpec, error) { return u.subdevSpec(txSide, m) }
func (u *USRP) TxNumChannels() (int, error)                  { return u.numChannels(txSide) }

func (u *USRP) TxSubdevName(ch int) (string, error) {
	return readSubdev[string](u, txSide, ch, prop.K(prop.Name))
}

func (u *USRP) SetTxRate(rate float64, ch int) error { return u.setRate(txSide, rate, ch) }
func (u *USRP) TxRate(ch int) (float64, error)       { return u.rate(txSide, ch) }

func (u *USRP) SetTxFreq(req types.TuneRequest, ch int) (types.TuneResult, error) {
	return u.setFreq(txSide, req, ch)
}
func (u *USRP) TxFreq(ch int) (float64, error)              { return u.freq(txSide, ch) }
func (u *USRP) TxFreqRange(ch int) (types.FreqRange, error) { return u.freqRange(txSide, ch) }
func (u *USRP) SetTxGain(gain float64, name string, ch int) error {
	return u.setGain(txSide, gain, name, ch)
}
func (u *USRP) TxGain(name string, ch int) (float64, error) { return u.gain(txSide, name, ch) }
func (u *USRP) TxGainRange(name string, ch int) (types.GainRange, error) {
	return u.gainRange(txSide, name, ch)
}
func (u *USRP) TxGainNames(ch int) ([]string, error) { return u.gainNames(txSide, ch) }

func (u *USRP) SetTxAntenna(ant string, ch int) error {
	return writeSubdev(u, txSide, ch, prop.K(prop.Antenna), ant)
}
func (u *USRP) TxAntenna(ch int) (string, error) {
	return readSubdev[string](u, txSide, ch, prop.K(prop.Antenna))
}
func (u *USRP) TxAntennas(ch int) ([]string, error) {
	return readSubdev[[]string](u, txSide, ch, prop.K(prop.AntennaNames))
}

func (u *USRP) SetTxBandwidth(bw float64, ch int) error {
	return writeSubdev(u, txSide, ch, prop.K(prop.Bandwidth), bw)
}
func (u *USRP) TxBandwidth(ch int) (float64, error) {
	return readSubdev[float64](u, txSide, ch, prop.K(prop.Bandwidth))
}

func (u *USRP) TxSensor(name string, ch int) (types.SensorValue, error) {
	return readSubdev[types.SensorValue](u, txSide, ch, prop.Named(prop.Sensor, name))
}
func (u *USRP) TxSensorNames(ch int) ([]string, error) {
	return readSubdev[[]string](u, txSide, ch, prop.K(prop.SensorNames))
}

func (u *USRP) TxDboardIface(ch int) (dboard.Iface, error) { return u.dboardIface(txSide, ch) }

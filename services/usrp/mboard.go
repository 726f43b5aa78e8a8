package usrp

import (
	"usrphost-go/prop"
	"usrphost-go/types"
)

func readMboard[T any](u *USRP, m int, key prop.Key) (T, error) {
	mb, err := u.mboard(m)
	if err != nil {
		var zero T
		return zero, err
	}
	return prop.Read[T](mb, key)
}

func writeMboard[T any](u *USRP, m int, key prop.Key, v T) error {
	return u.eachMboard(m, func(m int) error {
		mb, err := u.mboard(m)
		if err != nil {
			return err
		}
		return prop.Write(mb, v, key)
	})
}

func (u *USRP) MboardName(m int) (string, error) {
	return readMboard[string](u, m, prop.K(prop.Name))
}

func (u *USRP) SetMasterClockRate(rate float64, m int) error {
	return writeMboard(u, m, prop.K(prop.ClockRate), rate)
}

func (u *USRP) MasterClockRate(m int) (float64, error) {
	return readMboard[float64](u, m, prop.K(prop.ClockRate))
}

// TimeNow reads the time counter of board m.
func (u *USRP) TimeNow(m int) (types.TimeSpec, error) {
	return readMboard[types.TimeSpec](u, m, prop.K(prop.TimeNow))
}

// TimeLastPPS reads the time latched at the most recent PPS edge.
func (u *USRP) TimeLastPPS(m int) (types.TimeSpec, error) {
	return readMboard[types.TimeSpec](u, m, prop.K(prop.TimePPS))
}

// SetTimeNow loads t into the counter of m immediately. Boards set this
// way are only aligned to within the host's call latency.
func (u *USRP) SetTimeNow(t types.TimeSpec, m int) error {
	return writeMboard(u, m, prop.K(prop.TimeNow), t)
}

// SetTimeNextPPS arms every board to load t at its next PPS edge.
func (u *USRP) SetTimeNextPPS(t types.TimeSpec) error {
	return writeMboard(u, AllMboards, prop.K(prop.TimePPS), t)
}

func (u *USRP) SetClockConfig(cfg types.ClockConfig, m int) error {
	return writeMboard(u, m, prop.K(prop.ClockConfig), cfg)
}

func (u *USRP) ClockConfig(m int) (types.ClockConfig, error) {
	return readMboard[types.ClockConfig](u, m, prop.K(prop.ClockConfig))
}

func (u *USRP) MboardSensor(name string, m int) (types.SensorValue, error) {
	return readMboard[types.SensorValue](u, m, prop.Named(prop.Sensor, name))
}

func (u *USRP) MboardSensorNames(m int) ([]string, error) {
	return readMboard[[]string](u, m, prop.K(prop.SensorNames))
}

// MboardIface returns the register interface of board m.
func (u *USRP) MboardIface(m int) (types.MboardIface, error) {
	return readMboard[types.MboardIface](u, m, prop.K(prop.Iface))
}

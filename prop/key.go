// Package prop implements the dynamically-typed property tree every piece of
// device state is read and written through.
//
// A node holds, per Key, either a typed leaf (stored value or getter/setter
// callbacks) or a link to another Node. Paths of keys descend through linked
// nodes. Values are opaque to the tree; callers interpret them with As, which
// fails with an errcode.Type error distinct from the errcode.Addressing error
// returned for unknown keys.
package prop

import "strconv"

// Tag is the enumerated part of a property key.
type Tag uint16

const (
	TagInvalid Tag = iota

	// Common to every node.
	Name
	Others
	Sensor
	SensorNames

	// Device.
	MboardNames
	Mboard

	// Motherboard.
	ClockRate
	TimeNow
	TimePPS
	ClockConfig
	RxSubdevSpec
	TxSubdevSpec
	RxDSPNames
	TxDSPNames
	RxDSP
	TxDSP
	RxDboardNames
	TxDboardNames
	RxDboard
	TxDboard
	Iface

	// Daughterboard.
	Subdev
	SubdevNames
	GainGroup
	DboardIface
	DboardID

	// Sub-device.
	Gain
	GainRange
	GainNames
	Freq
	FreqRange
	Antenna
	AntennaNames
	Bandwidth
	Connection
	Enabled
	UseLOOffset

	// DSP.
	CodecRate
	HostRate
	FreqShift
	StreamCmd

	tagCount
)

var tagNames = [tagCount]string{
	TagInvalid:    "invalid",
	Name:          "name",
	Others:        "others",
	Sensor:        "sensor",
	SensorNames:   "sensor_names",
	MboardNames:   "mboard_names",
	Mboard:        "mboard",
	ClockRate:     "clock_rate",
	TimeNow:       "time_now",
	TimePPS:       "time_pps",
	ClockConfig:   "clock_config",
	RxSubdevSpec:  "rx_subdev_spec",
	TxSubdevSpec:  "tx_subdev_spec",
	RxDSPNames:    "rx_dsp_names",
	TxDSPNames:    "tx_dsp_names",
	RxDSP:         "rx_dsp",
	TxDSP:         "tx_dsp",
	RxDboardNames: "rx_dboard_names",
	TxDboardNames: "tx_dboard_names",
	RxDboard:      "rx_dboard",
	TxDboard:      "tx_dboard",
	Iface:         "iface",
	Subdev:        "subdev",
	SubdevNames:   "subdev_names",
	GainGroup:     "gain_group",
	DboardIface:   "dboard_iface",
	DboardID:      "dboard_id",
	Gain:          "gain",
	GainRange:     "gain_range",
	GainNames:     "gain_names",
	Freq:          "freq",
	FreqRange:     "freq_range",
	Antenna:       "antenna",
	AntennaNames:  "antenna_names",
	Bandwidth:     "bandwidth",
	Connection:    "connection",
	Enabled:       "enabled",
	UseLOOffset:   "use_lo_offset",
	CodecRate:     "codec_rate",
	HostRate:      "host_rate",
	FreqShift:     "freq_shift",
	StreamCmd:     "stream_cmd",
}

func (t Tag) String() string {
	if t < tagCount {
		return tagNames[t]
	}
	return "tag(" + strconv.Itoa(int(t)) + ")"
}

// Key addresses one property of a node: a plain tag, or a (tag, qualifier)
// pair for families of same-shaped properties such as one sensor per name.
// Keys are built with K or Named.
type Key struct {
	tag   Tag
	name  string
	named bool
}

// K returns a plain key.
func K(t Tag) Key { return Key{tag: t} }

// Named returns a compound key. The empty qualifier is valid and distinct
// from the plain key.
func Named(t Tag, name string) Key { return Key{tag: t, name: name, named: true} }

func (k Key) Tag() Tag { return k.tag }

// Name returns the qualifier of a compound key, "" for a plain key.
func (k Key) Name() string { return k.name }

// IsNamed reports whether k carries a qualifier.
func (k Key) IsNamed() bool { return k.named }

func (k Key) String() string {
	if !k.IsNamed() {
		return k.Tag().String()
	}
	return k.Tag().String() + "[" + k.Name() + "]"
}

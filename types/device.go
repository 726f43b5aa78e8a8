package types

import (
	"fmt"
	"strconv"
	"strings"
)

// ------------------------
// Sensors
// ------------------------

type SensorKind uint8

const (
	SensorBool SensorKind = iota
	SensorInt
	SensorReal
	SensorString
)

// SensorValue is one reading reported by a motherboard or sub-device.
type SensorValue struct {
	Name  string     `json:"name"`
	Value string     `json:"value"`
	Unit  string     `json:"unit,omitempty"`
	Kind  SensorKind `json:"kind"`
}

// BoolSensor reports v with a human-readable label in Unit.
func BoolSensor(name string, v bool, trueStr, falseStr string) SensorValue {
	label := falseStr
	if v {
		label = trueStr
	}
	return SensorValue{Name: name, Value: strconv.FormatBool(v), Unit: label, Kind: SensorBool}
}

func RealSensor(name string, v float64, unit string) SensorValue {
	return SensorValue{Name: name, Value: strconv.FormatFloat(v, 'g', -1, 64), Unit: unit, Kind: SensorReal}
}

// Bool interprets a boolean sensor.
func (s SensorValue) Bool() bool {
	return s.Kind == SensorBool && s.Value == "true"
}

// Real interprets a numeric sensor.
func (s SensorValue) Real() (float64, error) {
	return strconv.ParseFloat(s.Value, 64)
}

func (s SensorValue) String() string {
	if s.Kind == SensorBool {
		return s.Name + ": " + s.Unit
	}
	if s.Unit == "" {
		return s.Name + ": " + s.Value
	}
	return s.Name + ": " + s.Value + " " + s.Unit
}

// ------------------------
// Streaming
// ------------------------

type StreamMode uint8

const (
	StreamStartContinuous StreamMode = iota
	StreamStopContinuous
	StreamNumSampsAndDone
	StreamNumSampsAndMore
)

// StreamCmd instructs an RX DSP to start or stop producing samples.
type StreamCmd struct {
	Mode      StreamMode `json:"mode"`
	NumSamps  uint64     `json:"num_samps,omitempty"`
	StreamNow bool       `json:"stream_now"`
	Time      TimeSpec   `json:"time"`
}

// ------------------------
// Clocking
// ------------------------

type RefSource uint8

const (
	RefInternal RefSource = iota
	RefSMA
	RefMIMO
)

type PPSSource uint8

const (
	PPSSMA PPSSource = iota
	PPSMIMO
)

type PPSPolarity uint8

const (
	PPSPositive PPSPolarity = iota
	PPSNegative
)

// ClockConfig selects the reference and PPS inputs of a motherboard.
type ClockConfig struct {
	Ref         RefSource   `json:"ref"`
	PPS         PPSSource   `json:"pps"`
	PPSPolarity PPSPolarity `json:"pps_polarity"`
}

// ExternalClock is the usual configuration for multi-board setups.
func ExternalClock() ClockConfig {
	return ClockConfig{Ref: RefSMA, PPS: PPSSMA, PPSPolarity: PPSPositive}
}

// ------------------------
// Register access
// ------------------------

// MboardIface is raw 32-bit register access to a motherboard.
type MboardIface interface {
	Peek32(addr uint32) (uint32, error)
	Poke32(addr, v uint32) error
}

// ------------------------
// Sub-device specification
// ------------------------

// SubdevPair names one channel's daughterboard slot and sub-device.
type SubdevPair struct {
	DB string `json:"db"`
	SD string `json:"sd"`
}

func (p SubdevPair) String() string { return p.DB + ":" + p.SD }

// SubdevSpec is the ordered channel list of one motherboard.
type SubdevSpec []SubdevPair

// ParseSubdevSpec parses "A:a A:b" style markup. A bare "A" means sub-device "".
func ParseSubdevSpec(s string) (SubdevSpec, error) {
	var spec SubdevSpec
	for _, f := range strings.Fields(s) {
		db, sd, _ := strings.Cut(f, ":")
		if db == "" {
			return nil, fmt.Errorf("subdev spec %q: empty dboard name in %q", s, f)
		}
		spec = append(spec, SubdevPair{DB: db, SD: sd})
	}
	return spec, nil
}

func (s SubdevSpec) String() string {
	parts := make([]string, len(s))
	for i, p := range s {
		parts[i] = p.String()
	}
	return strings.Join(parts, " ")
}

// ------------------------
// Sub-device connection
// ------------------------

// SubdevConn describes how a sub-device's ADC/DAC pair maps to I and Q.
type SubdevConn string

const (
	ConnIQ SubdevConn = "IQ"
	ConnQI SubdevConn = "QI"
	ConnI  SubdevConn = "I"
	ConnQ  SubdevConn = "Q"
)

// Complex reports whether both converters carry signal.
func (c SubdevConn) Complex() bool { return c == ConnIQ || c == ConnQI }

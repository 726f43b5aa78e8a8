package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usrphost-go/errcode"
	"usrphost-go/prop"
	"usrphost-go/services/config"
	"usrphost-go/services/dboard"
	"usrphost-go/services/dboard/devices/xcvr"
	"usrphost-go/services/gaingroup"
	"usrphost-go/types"
	"usrphost-go/x/timex"
)

func testRegistry() *dboard.Registry {
	reg := dboard.NewRegistry(nil)
	xcvr.Register(reg)
	return reg
}

func newDevice(t *testing.T, cfg config.DeviceConfig, opts ...Option) (*Device, *timex.Fake) {
	t.Helper()
	clk := timex.NewFake(time.Unix(1000, 0))
	opts = append([]Option{WithClock(clk), WithRegistry(testRegistry())}, opts...)
	d, err := NewDevice(cfg, opts...)
	require.NoError(t, err)
	return d, clk
}

func mbPath(name string, keys ...prop.Key) []prop.Key {
	return append([]prop.Key{prop.Named(prop.Mboard, name)}, keys...)
}

func TestDefaultDeviceTree(t *testing.T) {
	d, _ := newDevice(t, config.Default().Device)

	name, err := prop.Read[string](d, prop.K(prop.Name))
	require.NoError(t, err)
	assert.Equal(t, "usrp-sim", name)

	names, err := prop.Read[[]string](d, prop.K(prop.MboardNames))
	require.NoError(t, err)
	assert.Equal(t, []string{"sim-0"}, names)

	rate, err := prop.Read[float64](d, mbPath("sim-0", prop.K(prop.ClockRate))...)
	require.NoError(t, err)
	assert.Equal(t, 64e6, rate)

	spec, err := prop.Read[types.SubdevSpec](d, mbPath("sim-0", prop.K(prop.RxSubdevSpec))...)
	require.NoError(t, err)
	assert.Equal(t, types.SubdevSpec{{DB: "A", SD: "a"}}, spec)

	rxDB := mbPath("sim-0", prop.Named(prop.RxDboard, SlotName))
	id, err := prop.Read[dboard.ID](d, append(rxDB, prop.K(prop.DboardID))...)
	require.NoError(t, err)
	assert.Equal(t, dboard.IDBasicRX, id, "id read back from the slot eeprom")

	sds, err := prop.Read[[]string](d, append(rxDB, prop.K(prop.SubdevNames))...)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "ab"}, sds)

	sdName, err := prop.Read[string](d, append(rxDB, prop.Named(prop.Subdev, "a"), prop.K(prop.Name))...)
	require.NoError(t, err)
	assert.Equal(t, "Basic RX (a)", sdName)

	_, err = prop.Read[*gaingroup.Group](d, append(rxDB, prop.Named(prop.GainGroup, "a"))...)
	require.NoError(t, err)

	dspNames, err := prop.Read[[]string](d, mbPath("sim-0", prop.K(prop.RxDSPNames))...)
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1", "2"}, dspNames, "one rx dsp per subdev")

	s, err := prop.Read[types.SensorValue](d, mbPath("sim-0", prop.Named(prop.Sensor, "ref_locked"))...)
	require.NoError(t, err)
	assert.Equal(t, "ref_locked: locked", s.String())

	ifc, err := prop.Read[dboard.Iface](d, append(rxDB, prop.K(prop.DboardIface))...)
	require.NoError(t, err)
	assert.Same(t, d.Mboard(0).Iface(), ifc)
	ops := d.Mboard(0).Iface().Ops()
	require.NotEmpty(t, ops)
	assert.Equal(t, "ddr rx 0x0000/0xffff", ops[0])
}

func TestBlankEEPROMBuildsUnknownBoard(t *testing.T) {
	cfg := config.DeviceConfig{Name: "blank", Mboards: []config.MboardConfig{{
		MasterClockRate: 64e6,
		RxSubdevSpec:    "A:0",
		TxSubdevSpec:    "A:0",
	}}}
	d, _ := newDevice(t, cfg)
	assert.Equal(t, "mboard0", d.Mboard(0).Name())

	path := mbPath("mboard0", prop.Named(prop.TxDboard, SlotName), prop.Named(prop.Subdev, "0"), prop.K(prop.Name))
	name, err := prop.Read[string](d, path...)
	require.NoError(t, err)
	assert.Equal(t, "Unknown (0xffff)", name)
}

func TestNewDeviceErrors(t *testing.T) {
	clk := WithClock(timex.NewFake(time.Unix(0, 0)))
	base := config.Default().Device.Mboards[0]

	_, err := NewDevice(config.DeviceConfig{Name: "empty"}, clk)
	assert.ErrorIs(t, err, errcode.Configuration)

	unknown := base
	unknown.RxDboardID = "0x1234"
	_, err = NewDevice(config.DeviceConfig{Mboards: []config.MboardConfig{unknown}}, clk, WithRegistry(testRegistry()))
	assert.ErrorIs(t, err, errcode.Addressing)

	badSpec := base
	badSpec.RxSubdevSpec = "A:zz"
	_, err = NewDevice(config.DeviceConfig{Mboards: []config.MboardConfig{badSpec}}, clk, WithRegistry(testRegistry()))
	assert.ErrorIs(t, err, errcode.Addressing)

	_, err = NewDevice(config.DeviceConfig{Mboards: []config.MboardConfig{base, base}}, clk, WithRegistry(testRegistry()))
	assert.ErrorContains(t, err, "duplicate mboard name")
}

func TestSubdevSpecValidation(t *testing.T) {
	d, _ := newDevice(t, config.Default().Device)
	key := mbPath("sim-0", prop.K(prop.RxSubdevSpec))

	require.NoError(t, prop.Write(d, types.SubdevSpec{{DB: "A", SD: "a"}, {DB: "A", SD: "b"}}, key...))
	spec, _ := prop.Read[types.SubdevSpec](d, key...)
	assert.Len(t, spec, 2)

	assert.ErrorIs(t, prop.Write(d, types.SubdevSpec{{DB: "B", SD: "a"}}, key...), errcode.Addressing)
	assert.ErrorIs(t, prop.Write(d, types.SubdevSpec{{DB: "A", SD: "c"}}, key...), errcode.Addressing)
	assert.ErrorIs(t, prop.Write(d, types.SubdevSpec{}, key...), errcode.InvalidParams)
	four := types.SubdevSpec{{DB: "A", SD: "a"}, {DB: "A", SD: "b"}, {DB: "A", SD: "ab"}, {DB: "A", SD: "a"}}
	assert.ErrorIs(t, prop.Write(d, four, key...), errcode.InvalidParams)
	assert.ErrorIs(t, prop.Write(d, "A:a", key...), errcode.Type)

	spec, _ = prop.Read[types.SubdevSpec](d, key...)
	assert.Len(t, spec, 2, "failed writes leave the spec alone")
}

func TestCounterPPSLatch(t *testing.T) {
	clk := timex.NewFake(time.Unix(50, 0))
	c := newCounter(clk, clk.Now(), 3, false)

	assert.Equal(t, 3.0, c.now().Real())
	assert.Equal(t, 3.0, c.lastPPS().Real())

	clk.Advance(500 * time.Millisecond)
	assert.InDelta(t, 3.5, c.now().Real(), 1e-12)
	c.setNextPPS(types.TimeSpec{Secs: 10})
	assert.InDelta(t, 3.5, c.now().Real(), 1e-12, "armed time waits for the edge")

	clk.Advance(500 * time.Millisecond)
	assert.Equal(t, types.TimeSpec{Secs: 10}, c.now())
	assert.Equal(t, types.TimeSpec{Secs: 10}, c.lastPPS())

	clk.Advance(250 * time.Millisecond)
	assert.InDelta(t, 10.25, c.now().Real(), 1e-12)
	assert.Equal(t, 1, c.writes())

	c.drift(20 * time.Millisecond)
	assert.InDelta(t, 10.27, c.now().Real(), 1e-9)

	c.setNow(types.TimeSpec{Secs: 100})
	assert.Equal(t, 100.0, c.now().Real())
}

func TestCounterNoPPS(t *testing.T) {
	clk := timex.NewFake(time.Unix(0, 0))
	c := newCounter(clk, clk.Now(), 0, true)
	start := c.lastPPS()
	c.setNextPPS(types.TimeSpec{Secs: 7})
	clk.Advance(5 * time.Second)
	assert.Equal(t, start, c.lastPPS())
	assert.InDelta(t, 5.0, c.now().Real(), 1e-12, "armed time never latches")
}

func TestMboardRegisters(t *testing.T) {
	d, clk := newDevice(t, config.Default().Device)
	mb := d.Mboard(0)
	regs, err := prop.Read[types.MboardIface](d, mbPath(mb.Name(), prop.K(prop.Iface))...)
	require.NoError(t, err)

	v, err := regs.Peek32(RegCompat)
	require.NoError(t, err)
	assert.Equal(t, CompatNum, v)

	require.NoError(t, regs.Poke32(RegScratch, 0xdeadbeef))
	v, _ = regs.Peek32(RegScratch)
	assert.Equal(t, uint32(0xdeadbeef), v)

	mb.count.setNow(types.TimeSpec{Secs: 12, Frac: 0.25})
	clk.Advance(1500 * time.Millisecond)
	secs, _ := regs.Peek32(RegTimeSecs)
	ticks, _ := regs.Peek32(RegTimeTicks)
	assert.Equal(t, uint32(13), secs)
	assert.Equal(t, uint32(mb.rate*0.75), ticks)
	secs, _ = regs.Peek32(RegPPSSecs)
	ticks, _ = regs.Peek32(RegPPSTicks)
	assert.Equal(t, uint32(13), secs)
	assert.Equal(t, uint32(mb.rate*0.25), ticks, "pps latches on the whole wall second")

	assert.ErrorIs(t, regs.Poke32(RegTimeSecs, 1), errcode.InvalidParams)
	_, err = regs.Peek32(0x100)
	assert.ErrorIs(t, err, errcode.Addressing)
	assert.ErrorIs(t, regs.Poke32(0x100, 1), errcode.Addressing)
}

func TestDSPQuantization(t *testing.T) {
	assert.Equal(t, 1e6, DivQuantizer(1e6, 64e6))
	assert.Equal(t, 64e6/21, DivQuantizer(3e6, 64e6))
	assert.Equal(t, 64e6/4, DivQuantizer(100e6, 64e6), "divider floor")
	assert.Equal(t, 64e6/512, DivQuantizer(1, 64e6), "divider ceiling")

	step := 64e6 / (1 << 32)
	f := quantizeShift(1234567.891, 64e6)
	assert.InDelta(t, 1234567.891, f, step/2)
	assert.Equal(t, 32e6, quantizeShift(40e6, 64e6))
	assert.Equal(t, -32e6, quantizeShift(-40e6, 64e6))
}

func TestDSPNode(t *testing.T) {
	d, _ := newDevice(t, config.Default().Device,
		WithRateQuantizer(func(r, _ float64) float64 { return r - 1 }))
	dsp := mbPath("sim-0", prop.Named(prop.RxDSP, "0"))

	require.NoError(t, prop.Write(d, 10e6, append(dsp, prop.K(prop.HostRate))...))
	r, _ := prop.Read[float64](d, append(dsp, prop.K(prop.HostRate))...)
	assert.Equal(t, 10e6-1, r)
	assert.ErrorIs(t, prop.Write(d, -1.0, append(dsp, prop.K(prop.HostRate))...), errcode.InvalidParams)

	codec, _ := prop.Read[float64](d, append(dsp, prop.K(prop.CodecRate))...)
	assert.Equal(t, 64e6, codec)
	require.NoError(t, prop.Write(d, 100e6, mbPath("sim-0", prop.K(prop.ClockRate))...))
	codec, _ = prop.Read[float64](d, append(dsp, prop.K(prop.CodecRate))...)
	assert.Equal(t, 100e6, codec, "codec rate follows the master clock")

	cmd := types.StreamCmd{Mode: types.StreamNumSampsAndDone, NumSamps: 100, StreamNow: true}
	require.NoError(t, prop.Write(d, cmd, append(dsp, prop.K(prop.StreamCmd))...))
	assert.Equal(t, []types.StreamCmd{cmd}, d.Mboard(0).StreamCmds(0))
	timed := types.StreamCmd{Mode: types.StreamStartContinuous, Time: types.TimeFromReal(2.000000004)}
	require.NoError(t, prop.Write(d, timed, append(dsp, prop.K(prop.StreamCmd))...))
	cmds := d.Mboard(0).StreamCmds(0)
	require.Len(t, cmds, 2)
	assert.Equal(t, types.TimeSpec{Secs: 2}, cmds[1].Time, "timed command lands on a 100 MHz tick")
	bad := types.StreamCmd{Mode: types.StreamNumSampsAndMore}
	assert.ErrorIs(t, prop.Write(d, bad, append(dsp, prop.K(prop.StreamCmd))...), errcode.InvalidParams)

	// tx dsps take no stream commands
	txDSP := mbPath("sim-0", prop.Named(prop.TxDSP, "0"), prop.K(prop.StreamCmd))
	assert.ErrorIs(t, prop.Write(d, cmd, txDSP...), errcode.Addressing)
}

func TestXcvrDevice(t *testing.T) {
	cfg, err := config.LoadProfile("xcvr-2x")
	require.NoError(t, err)
	d, _ := newDevice(t, cfg.Device)

	for i := range 2 {
		mb := d.Mboard(i)
		require.NotNil(t, mb)
		rx := mbPath(mb.Name(), prop.Named(prop.RxDboard, SlotName), prop.Named(prop.Subdev, "0"))
		tx := mbPath(mb.Name(), prop.Named(prop.TxDboard, SlotName), prop.Named(prop.Subdev, "0"))

		require.NoError(t, prop.Write(d, 433e6, append(rx, prop.K(prop.Freq))...))
		f, err := prop.Read[float64](d, append(tx, prop.K(prop.Freq))...)
		require.NoError(t, err)
		assert.InDelta(t, 433e6, f, 1e3, "shared LO")
		assert.NotEmpty(t, mb.Iface().SPIBus(dboard.UnitTX).Writes())
		assert.NotZero(t, mb.Iface().ATR(dboard.BankTX).TX)
	}
	assert.Nil(t, d.Mboard(2))
}

func TestI2CMemory(t *testing.T) {
	b := NewI2C()
	assert.Error(t, b.Tx(0x10, []byte{0}, make([]byte, 1)), "nothing at 0x10")

	b.Attach(0x10, []byte{1, 2, 3})
	require.NoError(t, b.Tx(0x10, []byte{1, 9}, nil))
	r := make([]byte, 4)
	require.NoError(t, b.Tx(0x10, []byte{0}, r))
	assert.Equal(t, []byte{1, 9, 3, 0xff}, r)

	e, err := dboard.ReadEEPROM(b, 0x10)
	require.NoError(t, err)
	assert.Equal(t, dboard.IDNone, e.ID)
}

package prop

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usrphost-go/errcode"
)

func TestKeyIdentity(t *testing.T) {
	if K(Gain) == Named(Gain, "") {
		t.Fatal("plain key must differ from empty-qualified key")
	}
	if Named(Sensor, "lo_locked") != Named(Sensor, "lo_locked") {
		t.Fatal("compound keys with equal parts must compare equal")
	}
	if Named(Sensor, "a") == Named(Sensor, "b") {
		t.Fatal("qualifier must take part in equality")
	}
	assert.Equal(t, "gain[PGA0]", Named(Gain, "PGA0").String())
	assert.Equal(t, "freq", K(Freq).String())

	plain, empty := K(Sensor), Named(Sensor, "")
	assert.Equal(t, Sensor, plain.Tag())
	assert.Equal(t, Sensor, empty.Tag())
	assert.False(t, plain.IsNamed())
	assert.True(t, empty.IsNamed())
	assert.Equal(t, "sensor", plain.String())
	assert.Equal(t, "sensor[]", empty.String())
	assert.Equal(t, "lo_locked", Named(Sensor, "lo_locked").Name())
	assert.Equal(t, Key{}, K(TagInvalid), "the zero key is the plain invalid tag")
}

func TestStoreGetSet(t *testing.T) {
	tr := NewTree("sd")
	Store(tr, K(Bandwidth), 20e6)

	v, err := tr.Get(K(Bandwidth))
	require.NoError(t, err)
	assert.Equal(t, 20e6, MustAs[float64](v))

	require.NoError(t, tr.Set(K(Bandwidth), V(25e6)))
	bw, err := Read[float64](tr, K(Bandwidth))
	require.NoError(t, err)
	assert.Equal(t, 25e6, bw)
}

func TestUnknownKeyIsAddressingError(t *testing.T) {
	tr := NewTree("sd")
	_, err := tr.Get(K(Antenna))
	if !errors.Is(err, errcode.Addressing) {
		t.Fatalf("get unknown: want addressing error, got %v", err)
	}
	if err := tr.Set(K(Antenna), V("TX/RX")); !errors.Is(err, errcode.Addressing) {
		t.Fatalf("set unknown: want addressing error, got %v", err)
	}
}

func TestReadOnlyAndWriteOnly(t *testing.T) {
	tr := NewTree("sd")
	Const(tr, K(Name), "Basic RX")
	var sent int
	Handle(tr, K(StreamCmd), Accessor[int]{Set: func(x int) error { sent = x; return nil }})

	err := tr.Set(K(Name), V("other"))
	assert.ErrorIs(t, err, errcode.Addressing)

	_, err = tr.Get(K(StreamCmd))
	assert.ErrorIs(t, err, errcode.Addressing)

	require.NoError(t, tr.Set(K(StreamCmd), V(3)))
	assert.Equal(t, 3, sent)
}

func TestDeclareUnsetFails(t *testing.T) {
	tr := NewTree("dsp")
	Declare[float64](tr, K(HostRate))
	_, err := tr.Get(K(HostRate))
	assert.ErrorIs(t, err, errcode.Addressing)

	require.NoError(t, tr.Set(K(HostRate), V(1e6)))
	r, err := Read[float64](tr, K(HostRate))
	require.NoError(t, err)
	assert.Equal(t, 1e6, r)
}

func TestTypeMismatch(t *testing.T) {
	tr := NewTree("sd")
	called := false
	Handle(tr, K(Freq), Accessor[float64]{
		Get: func() (float64, error) { return 0, nil },
		Set: func(float64) error { called = true; return nil },
	})

	err := tr.Set(K(Freq), V("100MHz"))
	if !errors.Is(err, errcode.Type) {
		t.Fatalf("want type error, got %v", err)
	}
	if errors.Is(err, errcode.Addressing) {
		t.Fatal("type error must be distinct from addressing error")
	}
	if called {
		t.Fatal("setter must not run on a type mismatch")
	}

	_, err = Read[string](tr, K(Freq))
	assert.ErrorIs(t, err, errcode.Type)
}

func TestSetterErrorPropagates(t *testing.T) {
	tr := NewTree("sd")
	boom := errors.New("spi write failed")
	Handle(tr, K(Freq), Accessor[float64]{Set: func(float64) error { return boom }})
	if err := tr.Set(K(Freq), V(1e9)); err != boom {
		t.Fatalf("want setter error unmodified, got %v", err)
	}
}

func TestPathWalk(t *testing.T) {
	root := NewTree("device")
	mb := NewTree("mboard0")
	db := NewTree("dboardA")
	Link(root, Named(Mboard, "0"), mb)
	Link(mb, Named(RxDboard, "A"), db)
	Const(db, K(Name), "Basic RX")
	Const(mb, K(ClockRate), 64e6)

	name, err := Read[string](root, Named(Mboard, "0"), Named(RxDboard, "A"), K(Name))
	require.NoError(t, err)
	assert.Equal(t, "Basic RX", name)

	err = Write(root, 50e6, Named(Mboard, "0"), K(ClockRate))
	assert.ErrorIs(t, err, errcode.Addressing, "const leaf has no setter")
}

func TestPathThroughLeafFails(t *testing.T) {
	root := NewTree("device")
	mb := NewTree("mboard0")
	Link(root, Named(Mboard, "0"), mb)
	Const(mb, K(ClockRate), 64e6)

	_, err := GetPath(root, P(Named(Mboard, "0"), K(ClockRate), K(Name)))
	require.Error(t, err)
	assert.ErrorIs(t, err, errcode.Addressing)
	assert.True(t, strings.Contains(err.Error(), "not a node"), err.Error())

	_, err = GetPath(root, nil)
	assert.ErrorIs(t, err, errcode.Addressing)
}

func TestKeysOrderAndReplace(t *testing.T) {
	tr := NewTree("sd")
	Store(tr, K(Name), "x")
	Store(tr, K(Freq), 0.0)
	Store(tr, K(Antenna), "")
	Store(tr, K(Freq), 1.0) // replace keeps position
	assert.Equal(t, []Key{K(Name), K(Freq), K(Antenna)}, tr.Keys())
	_, err := tr.Get(K(Gain))
	assert.ErrorIs(t, err, errcode.Addressing)
}

func TestDump(t *testing.T) {
	root := NewTree("device")
	mb := NewTree("mboard0")
	Link(root, Named(Mboard, "0"), mb)
	Const(mb, K(Name), "sim")
	Declare[float64](mb, K(ClockRate))

	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, root))
	out := buf.String()
	assert.Contains(t, out, "mboard[0]:\n")
	assert.Contains(t, out, "  name: sim\n")
	assert.Contains(t, out, "  clock_rate: <addressing>\n")
}

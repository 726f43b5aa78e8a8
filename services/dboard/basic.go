package dboard

import (
	"fmt"

	"usrphost-go/errcode"
	"usrphost-go/prop"
	"usrphost-go/types"
)

// TreeBoard is a Board whose faces are property nodes. A nil face rejects
// every key.
type TreeBoard struct {
	RX prop.Node
	TX prop.Node
}

func (b *TreeBoard) RxGet(key prop.Key) (prop.Value, error) {
	if b.RX == nil {
		return prop.Value{}, errcode.Addressingf("board has no rx face (key %s)", key)
	}
	return b.RX.Get(key)
}

func (b *TreeBoard) RxSet(key prop.Key, val prop.Value) error {
	if b.RX == nil {
		return errcode.Addressingf("board has no rx face (key %s)", key)
	}
	return b.RX.Set(key, val)
}

func (b *TreeBoard) TxGet(key prop.Key) (prop.Value, error) {
	if b.TX == nil {
		return prop.Value{}, errcode.Addressingf("board has no tx face (key %s)", key)
	}
	return b.TX.Get(key)
}

func (b *TreeBoard) TxSet(key prop.Key, val prop.Value) error {
	if b.TX == nil {
		return errcode.Addressingf("board has no tx face (key %s)", key)
	}
	return b.TX.Set(key, val)
}

func (b *TreeBoard) FaceKeys(dir Direction) []prop.Key {
	n := b.RX
	if dir == TX {
		n = b.TX
	}
	if l, ok := n.(prop.Lister); ok {
		return l.Keys()
	}
	return nil
}

// ---- built-in boards ----

type basicRXBuilder struct{}
type basicTXBuilder struct{}
type unknownBuilder struct{}

func (basicRXBuilder) Build(in BuildInput) (Board, error) {
	conn, err := basicConn(in.Name)
	if err != nil {
		return nil, err
	}
	rx := basicFace(fmt.Sprintf("Basic RX (%s)", in.Name), conn, in.Iface.ClockRate(UnitRX))
	return &TreeBoard{RX: rx}, nil
}

func (basicTXBuilder) Build(in BuildInput) (Board, error) {
	conn, err := basicConn(in.Name)
	if err != nil {
		return nil, err
	}
	tx := basicFace(fmt.Sprintf("Basic TX (%s)", in.Name), conn, in.Iface.ClockRate(UnitTX))
	return &TreeBoard{TX: tx}, nil
}

func (unknownBuilder) Build(in BuildInput) (Board, error) {
	name := fmt.Sprintf("Unknown (%s)", in.ID)
	return &TreeBoard{
		RX: basicFace(name, types.ConnIQ, in.Iface.ClockRate(UnitRX)),
		TX: basicFace(name, types.ConnIQ, in.Iface.ClockRate(UnitTX)),
	}, nil
}

func basicConn(sd string) (types.SubdevConn, error) {
	switch sd {
	case "", "ab", "0":
		return types.ConnIQ, nil
	case "ba":
		return types.ConnQI, nil
	case "a":
		return types.ConnI, nil
	case "b":
		return types.ConnQ, nil
	}
	return "", errcode.New(errcode.InvalidParams, "basic dboard", "no connection for subdev %q", sd)
}

// basicFace is a baseband front end: no gain, no tuning, one antenna.
func basicFace(name string, conn types.SubdevConn, bandwidth float64) *prop.Tree {
	t := prop.NewTree(name)
	prop.Const(t, prop.K(prop.Name), name)
	prop.Const(t, prop.K(prop.GainNames), []string{})
	prop.Handle(t, prop.K(prop.Freq), prop.Accessor[float64]{
		Get: func() (float64, error) { return 0, nil },
		Set: func(float64) error { return nil },
	})
	prop.Const(t, prop.K(prop.FreqRange), types.FreqRange{})
	prop.Handle(t, prop.K(prop.Antenna), prop.Accessor[string]{
		Get: func() (string, error) { return "", nil },
		Set: func(a string) error {
			if a != "" {
				return errcode.New(errcode.InvalidParams, name, "no antenna %q", a)
			}
			return nil
		},
	})
	prop.Const(t, prop.K(prop.AntennaNames), []string{""})
	prop.Const(t, prop.K(prop.Connection), conn)
	prop.Store(t, prop.K(prop.Enabled), true)
	prop.Const(t, prop.K(prop.UseLOOffset), false)
	prop.Store(t, prop.K(prop.Bandwidth), bandwidth)
	prop.Const(t, prop.K(prop.SensorNames), []string{})
	return t
}

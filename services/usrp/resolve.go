package usrp

import (
	"usrphost-go/errcode"
	"usrphost-go/prop"
	"usrphost-go/services/gaingroup"
	"usrphost-go/types"
)

// side names the tree keys of one signal direction.
type side struct {
	label    string
	spec     prop.Tag
	dspNames prop.Tag
	dsp      prop.Tag
	dboard   prop.Tag
}

var (
	rxSide = side{"RX", prop.RxSubdevSpec, prop.RxDSPNames, prop.RxDSP, prop.RxDboard}
	txSide = side{"TX", prop.TxSubdevSpec, prop.TxDSPNames, prop.TxDSP, prop.TxDboard}
)

// NumMboards counts the motherboards of the device.
func (u *USRP) NumMboards() (int, error) {
	names, err := u.mboardNames()
	return len(names), err
}

func (u *USRP) mboardNames() ([]string, error) {
	return prop.Read[[]string](u.dev, prop.K(prop.MboardNames))
}

func (u *USRP) mboard(m int) (prop.Node, error) {
	if m == AllMboards {
		return nil, errcode.Addressingf("mboard: all-mboards sentinel is only valid for setters")
	}
	names, err := u.mboardNames()
	if err != nil {
		return nil, err
	}
	if m < 0 || m >= len(names) {
		return nil, errcode.Addressingf("mboard %d out of range (have %d)", m, len(names))
	}
	return prop.Walk(u.dev, prop.P(prop.Named(prop.Mboard, names[m])))
}

func (u *USRP) eachMboard(m int, fn func(m int) error) error {
	if m != AllMboards {
		return fn(m)
	}
	n, err := u.NumMboards()
	if err != nil {
		return err
	}
	for i := range n {
		if err := fn(i); err != nil {
			return err
		}
	}
	return nil
}

func (u *USRP) subdevSpec(s side, m int) (types.SubdevSpec, error) {
	mb, err := u.mboard(m)
	if err != nil {
		return nil, err
	}
	return prop.Read[types.SubdevSpec](mb, prop.K(s.spec))
}

func (u *USRP) numChannels(s side) (int, error) {
	n, err := u.NumMboards()
	if err != nil {
		return 0, err
	}
	sum := 0
	for m := range n {
		spec, err := u.subdevSpec(s, m)
		if err != nil {
			return 0, err
		}
		sum += len(spec)
	}
	return sum, nil
}

// resolve maps a flat channel index onto (mboard, local offset). Specs are
// read on every call since they can change between calls.
func (u *USRP) resolve(s side, ch int) (int, int, error) {
	if ch == AllChans {
		return 0, 0, errcode.Addressingf("%s channel: all-channels sentinel is only valid for setters", s.label)
	}
	if ch < 0 {
		return 0, 0, errcode.Addressingf("%s channel %d out of range", s.label, ch)
	}
	n, err := u.NumMboards()
	if err != nil {
		return 0, 0, err
	}
	local := ch
	for m := range n {
		spec, err := u.subdevSpec(s, m)
		if err != nil {
			return 0, 0, err
		}
		if local < len(spec) {
			return m, local, nil
		}
		local -= len(spec)
	}
	return 0, 0, errcode.Addressingf("%s channel %d out of range (have %d)", s.label, ch, ch-local)
}

// ResolveRx maps an RX channel onto its motherboard and local index.
func (u *USRP) ResolveRx(ch int) (mboard, local int, err error) { return u.resolve(rxSide, ch) }

// ResolveTx maps a TX channel onto its motherboard and local index.
func (u *USRP) ResolveTx(ch int) (mboard, local int, err error) { return u.resolve(txSide, ch) }

func (u *USRP) eachChan(s side, ch int, fn func(ch int) error) error {
	if ch != AllChans {
		return fn(ch)
	}
	n, err := u.numChannels(s)
	if err != nil {
		return err
	}
	for i := range n {
		if err := fn(i); err != nil {
			return err
		}
	}
	return nil
}

// chanPath is every node one channel touches.
type chanPath struct {
	mboard, local int
	pair          types.SubdevPair
	dsp           prop.Node
	dboard        prop.Node
	subdev        prop.Node
}

func (u *USRP) channel(s side, ch int) (*chanPath, error) {
	m, local, err := u.resolve(s, ch)
	if err != nil {
		return nil, err
	}
	mb, err := u.mboard(m)
	if err != nil {
		return nil, err
	}
	spec, err := prop.Read[types.SubdevSpec](mb, prop.K(s.spec))
	if err != nil {
		return nil, err
	}
	dspNames, err := prop.Read[[]string](mb, prop.K(s.dspNames))
	if err != nil {
		return nil, err
	}
	if local >= len(dspNames) {
		return nil, errcode.Addressingf("%s channel %d: mboard %d has %d dsps", s.label, ch, m, len(dspNames))
	}
	c := &chanPath{mboard: m, local: local, pair: spec[local]}
	if c.dsp, err = prop.Walk(mb, prop.P(prop.Named(s.dsp, dspNames[local]))); err != nil {
		return nil, err
	}
	if c.dboard, err = prop.Walk(mb, prop.P(prop.Named(s.dboard, c.pair.DB))); err != nil {
		return nil, err
	}
	if c.subdev, err = prop.Walk(c.dboard, prop.P(prop.Named(prop.Subdev, c.pair.SD))); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *chanPath) gainGroup() (*gaingroup.Group, error) {
	return prop.Read[*gaingroup.Group](c.dboard, prop.Named(prop.GainGroup, c.pair.SD))
}

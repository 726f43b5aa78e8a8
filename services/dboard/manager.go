package dboard

import (
	"fmt"
	"log/slog"
	"slices"

	"usrphost-go/errcode"
	"usrphost-go/prop"
)

// Manager owns the boards of one slot and their sub-device proxies.
type Manager struct {
	rx      map[string]*Proxy
	tx      map[string]*Proxy
	rxNames []string
	txNames []string
	xcvr    bool
}

// Option configures a Manager.
type Option func(*managerOpts)

type managerOpts struct{ log *slog.Logger }

func WithLogger(l *slog.Logger) Option { return func(o *managerOpts) { o.log = l } }

// NewManager resolves rxID and txID, resets the slot GPIO state and builds
// every declared sub-device.
func NewManager(reg *Registry, rxID, txID ID, ifc Iface, opts ...Option) (*Manager, error) {
	o := managerOpts{log: slog.New(slog.DiscardHandler)}
	for _, fn := range opts {
		fn(&o)
	}

	rxB, rxNames, err := reg.Entry(rxID, "rx")
	if err != nil {
		return nil, err
	}
	txB, txNames, err := reg.Entry(txID, "tx")
	if err != nil {
		return nil, err
	}

	if err := resetGPIO(ifc); err != nil {
		return nil, err
	}

	m := &Manager{rx: map[string]*Proxy{}, tx: map[string]*Proxy{}}
	build := func(b Builder, id ID, name string) (Board, error) {
		bd, err := b.Build(BuildInput{ID: id, Name: name, Iface: ifc, Logger: o.log.With("subdev", name)})
		if err != nil {
			return nil, fmt.Errorf("build subdev %q: %w", name, err)
		}
		return bd, nil
	}

	if rxB == txB {
		m.xcvr = true
		for _, name := range rxNames {
			bd, err := build(rxB, rxID, name)
			if err != nil {
				return nil, err
			}
			m.addRX(name, NewProxy(bd, RX))
			m.addTX(name, NewProxy(bd, TX))
		}
		o.log.Debug("dboard manager ready", "rx_id", rxID.String(), "tx_id", txID.String(), "xcvr", true, "subdevs", rxNames)
		return m, nil
	}

	for _, name := range rxNames {
		bd, err := build(rxB, rxID, name)
		if err != nil {
			return nil, err
		}
		m.addRX(name, NewProxy(bd, RX))
	}
	for _, name := range txNames {
		bd, err := build(txB, txID, name)
		if err != nil {
			return nil, err
		}
		m.addTX(name, NewProxy(bd, TX))
	}
	o.log.Debug("dboard manager ready", "rx_id", rxID.String(), "tx_id", txID.String(), "xcvr", false)
	return m, nil
}

// duplicate names keep their first position but take the last board
func (m *Manager) addRX(name string, p *Proxy) {
	if _, ok := m.rx[name]; !ok {
		m.rxNames = append(m.rxNames, name)
	}
	m.rx[name] = p
}

func (m *Manager) addTX(name string, p *Proxy) {
	if _, ok := m.tx[name]; !ok {
		m.txNames = append(m.txNames, name)
	}
	m.tx[name] = p
}

// Transceiver reports whether one board object serves both directions.
func (m *Manager) Transceiver() bool { return m.xcvr }

func (m *Manager) RxSubdevNames() []string { return slices.Clone(m.rxNames) }
func (m *Manager) TxSubdevNames() []string { return slices.Clone(m.txNames) }

// RxSubdev returns the RX-facing node of a sub-device.
func (m *Manager) RxSubdev(name string) (prop.Node, error) {
	p, ok := m.rx[name]
	if !ok {
		return nil, errcode.Addressingf("unknown rx subdev name %s", name)
	}
	return p, nil
}

// TxSubdev returns the TX-facing node of a sub-device.
func (m *Manager) TxSubdev(name string) (prop.Node, error) {
	p, ok := m.tx[name]
	if !ok {
		return nil, errcode.Addressingf("unknown tx subdev name %s", name)
	}
	return p, nil
}

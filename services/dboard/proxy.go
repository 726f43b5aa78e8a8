package dboard

import "usrphost-go/prop"

// Board is a daughterboard implementation. A board serving one direction
// only rejects the other face's keys with an addressing error.
type Board interface {
	RxGet(key prop.Key) (prop.Value, error)
	RxSet(key prop.Key, val prop.Value) error
	TxGet(key prop.Key) (prop.Value, error)
	TxSet(key prop.Key, val prop.Value) error
}

// Direction tags a proxy as the RX or TX face of a board.
type Direction uint8

const (
	RX Direction = iota
	TX
)

func (d Direction) String() string {
	if d == TX {
		return "tx"
	}
	return "rx"
}

// Proxy forwards property access to one face of a board.
type Proxy struct {
	board Board
	dir   Direction
}

var _ prop.Node = (*Proxy)(nil)

func NewProxy(b Board, dir Direction) *Proxy { return &Proxy{board: b, dir: dir} }

func (p *Proxy) Get(key prop.Key) (prop.Value, error) {
	if p.dir == TX {
		return p.board.TxGet(key)
	}
	return p.board.RxGet(key)
}

func (p *Proxy) Set(key prop.Key, val prop.Value) error {
	if p.dir == TX {
		return p.board.TxSet(key, val)
	}
	return p.board.RxSet(key, val)
}

func (p *Proxy) Board() Board         { return p.board }
func (p *Proxy) Direction() Direction { return p.dir }

// FaceLister is implemented by boards that can enumerate a face's keys.
type FaceLister interface {
	FaceKeys(dir Direction) []prop.Key
}

// Keys lists the face's keys when the board supports it.
func (p *Proxy) Keys() []prop.Key {
	if l, ok := p.board.(FaceLister); ok {
		return l.FaceKeys(p.dir)
	}
	return nil
}

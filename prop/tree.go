package prop

import (
	"fmt"

	"usrphost-go/errcode"
)

// Node is anything addressable by Key: a Tree, or a forwarding object such
// as a daughterboard capability proxy.
type Node interface {
	Get(key Key) (Value, error)
	Set(key Key, val Value) error
}

// Lister is implemented by nodes that can enumerate their keys.
type Lister interface {
	Keys() []Key
}

type cell struct {
	get func() (Value, error)
	set func(Value) error
}

// Tree is the generic Node implementation. The accepted type of every key is
// fixed when the key is registered. Tree does no locking; concurrent access
// to the same key must be serialised by the caller.
type Tree struct {
	name  string
	cells map[Key]*cell
	order []Key
}

// NewTree returns an empty tree. name only appears in error messages.
func NewTree(name string) *Tree {
	return &Tree{name: name, cells: map[Key]*cell{}}
}

// Name returns the label given at construction.
func (t *Tree) Name() string { return t.name }

// Get returns the value at key.
func (t *Tree) Get(key Key) (Value, error) {
	c, ok := t.cells[key]
	if !ok {
		return Value{}, errcode.Addressingf("%s: unknown key %s", t.name, key)
	}
	if c.get == nil {
		return Value{}, errcode.Addressingf("%s: key %s is write-only", t.name, key)
	}
	return c.get()
}

// Set writes val at key, running any registered setter synchronously.
func (t *Tree) Set(key Key, val Value) error {
	c, ok := t.cells[key]
	if !ok {
		return errcode.Addressingf("%s: unknown key %s", t.name, key)
	}
	if c.set == nil {
		return errcode.Addressingf("%s: key %s is read-only", t.name, key)
	}
	return c.set(val)
}

// Keys returns the registered keys in registration order.
func (t *Tree) Keys() []Key {
	out := make([]Key, len(t.order))
	copy(out, t.order)
	return out
}

// put registers or replaces a cell, keeping the original position on replace.
func (t *Tree) put(key Key, c *cell) {
	if _, ok := t.cells[key]; !ok {
		t.order = append(t.order, key)
	}
	t.cells[key] = c
}

// ---- typed registration ----

// Accessor is a pair of callbacks backing a leaf. A nil Get makes the leaf
// write-only, a nil Set makes it read-only.
type Accessor[T any] struct {
	Get func() (T, error)
	Set func(T) error
}

// Handle registers a callback-backed leaf of type T.
func Handle[T any](t *Tree, key Key, a Accessor[T]) {
	c := &cell{}
	if a.Get != nil {
		get := a.Get
		c.get = func() (Value, error) {
			x, err := get()
			if err != nil {
				return Value{}, err
			}
			return V(x), nil
		}
	}
	if a.Set != nil {
		set := a.Set
		c.set = func(v Value) error {
			x, err := As[T](v)
			if err != nil {
				return fmt.Errorf("%s: set %s: %w", t.name, key, err)
			}
			return set(x)
		}
	}
	t.put(key, c)
}

// Store registers a plain stored leaf holding initial.
func Store[T any](t *Tree, key Key, initial T) {
	v := initial
	Handle(t, key, Accessor[T]{
		Get: func() (T, error) { return v, nil },
		Set: func(x T) error { v = x; return nil },
	})
}

// Declare registers a stored leaf with no value yet; Get fails with an
// addressing error until the first Set.
func Declare[T any](t *Tree, key Key) {
	var v T
	set := false
	Handle(t, key, Accessor[T]{
		Get: func() (T, error) {
			if !set {
				var zero T
				return zero, errcode.Addressingf("%s: key %s is unset", t.name, key)
			}
			return v, nil
		},
		Set: func(x T) error { v, set = x, true; return nil },
	})
}

// Const registers a read-only leaf.
func Const[T any](t *Tree, key Key, v T) {
	Handle(t, key, Accessor[T]{Get: func() (T, error) { return v, nil }})
}

// Link registers a nested node under key.
func Link(t *Tree, key Key, n Node) {
	Const[Node](t, key, n)
}

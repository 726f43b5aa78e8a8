package dboard

import (
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"sync"

	"usrphost-go/errcode"
)

// ID is the 16-bit identifier burned into a daughterboard EEPROM.
type ID uint16

const (
	IDBasicTX ID = 0x0000
	IDBasicRX ID = 0x0001
	IDNone    ID = 0xffff
)

func (id ID) String() string { return fmt.Sprintf("0x%04x", uint16(id)) }

// BuildInput is passed to a board builder, once per sub-device name.
type BuildInput struct {
	ID     ID
	Name   string // sub-device name
	Iface  Iface
	Logger *slog.Logger
}

// Builder constructs a board. Builders must be comparable: the manager
// treats an id pair resolving to the same builder as one transceiver.
type Builder interface {
	Build(in BuildInput) (Board, error)
}

type entry struct {
	builder Builder
	names   []string
}

// Registry maps board ids to builders and sub-device names.
type Registry struct {
	once    sync.Once
	mu      sync.RWMutex
	entries map[ID]entry
	log     *slog.Logger
}

// NewRegistry returns a registry. Built-in boards are installed on first use.
func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Registry{entries: make(map[ID]entry), log: log}
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide registry.
func Default() *Registry {
	defaultOnce.Do(func() { defaultReg = NewRegistry(nil) })
	return defaultReg
}

func (r *Registry) builtins() {
	r.once.Do(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.entries[IDBasicTX] = entry{builder: basicTXBuilder{}, names: []string{""}}
		r.entries[IDBasicRX] = entry{builder: basicRXBuilder{}, names: []string{"a", "b", "ab"}}
		r.entries[IDNone] = entry{builder: unknownBuilder{}, names: []string{"0"}}
	})
}

// Register records builder and names for id, replacing any earlier entry.
// It panics if b is nil or its dynamic type is not comparable.
func (r *Registry) Register(id ID, b Builder, names ...string) {
	if b == nil {
		panic("dboard: nil builder for id " + id.String())
	}
	if !reflect.TypeOf(b).Comparable() {
		panic(fmt.Sprintf("dboard: builder %T for id %s is not comparable", b, id))
	}
	r.builtins()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; ok {
		r.log.Debug("dboard builder replaced", "id", id.String())
	}
	r.entries[id] = entry{builder: b, names: slices.Clone(names)}
}

// Lookup returns the builder for id. role is "rx" or "tx" and only feeds
// the error text.
func (r *Registry) Lookup(id ID, role string) (Builder, error) {
	b, _, err := r.Entry(id, role)
	return b, err
}

// Entry returns the builder and sub-device names for id.
func (r *Registry) Entry(id ID, role string) (Builder, []string, error) {
	r.builtins()
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, nil, errcode.Addressingf("unknown %s dboard id: %s", role, id)
	}
	return e.builder, slices.Clone(e.names), nil
}

// IDs lists registered ids in ascending order.
func (r *Registry) IDs() []ID {
	r.builtins()
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]ID, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

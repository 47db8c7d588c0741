// Package hmap provides a fallible hashed associative container.
//
// # Overview
//
// Map is an open-addressing hash table whose bucket storage lives in
// allocator blocks: one block for the control bytes, one for the slots.
// Every operation that can allocate is try-prefixed and carries the strong
// safety contract: when a rehash allocation fails, the insert reports the
// error and the existing table is untouched, with every previously inserted
// key still retrievable.
//
// # Policy
//
// The table grows when an insert would push occupancy (live entries plus
// tombstones) past a 0.75 load factor, doubling the slot count from a
// minimum of 4. Inserting an existing key replaces the value, returns the
// previous one, and never allocates. Removal never allocates; it tombstones
// the slot for later reuse.
//
// # Rehash discipline
//
// A rehash allocates both replacement blocks first, migrates every live
// entry, and releases the old blocks only afterwards. Keys appear in exactly
// one slot consistent with their hash and the current capacity at all times.
//
// # Hashing
//
// Keys are hashed through a Hasher. The default SeedHasher uses the
// runtime's maphash with a per-map seed; XXStringHasher offers deterministic
// xxHash placement for string keys.
//
// Iteration order is unspecified. A Map is not safe for concurrent mutation.
package hmap

import (
	"fmt"

	"github.com/cod-technologies/fallacy/alloc"
	"github.com/cod-technologies/fallacy/internal/mathx"
)

const (
	ctrlEmpty     byte = 0
	ctrlTombstone byte = 1
	ctrlFull      byte = 2

	minTableSize = 4
)

type slot[K comparable, V any] struct {
	hash uint64
	key  K
	val  V
}

// Map is a fallible hash map from K to V. The zero value is not usable;
// construct with New or NewWithHasher.
type Map[K comparable, V any] struct {
	a      alloc.Allocator
	hasher Hasher[K]

	ctrlBlock alloc.Block
	slotBlock alloc.Block
	ctrl      []byte
	slots     []slot[K, V]

	live int // entries currently stored
	used int // live entries plus tombstones
}

// New returns an empty map with the default hasher. It does not allocate
// until the first insert. A nil allocator uses alloc.Global.
func New[K comparable, V any](a alloc.Allocator) *Map[K, V] {
	return NewWithHasher[K, V](a, NewSeedHasher[K]())
}

// NewWithHasher returns an empty map using the given hasher.
func NewWithHasher[K comparable, V any](a alloc.Allocator, h Hasher[K]) *Map[K, V] {
	if a == nil {
		a = alloc.Global
	}
	return &Map[K, V]{a: a, hasher: h}
}

// Len returns the number of stored entries.
func (m *Map[K, V]) Len() int { return m.live }

// Cap returns the current slot count of the table.
func (m *Map[K, V]) Cap() int { return len(m.slots) }

// TryInsert stores value under key. Inserting an existing key replaces the
// value, returns the previous one, and performs no allocation. A rehash
// failure leaves the map exactly as it was and the key absent.
func (m *Map[K, V]) TryInsert(key K, value V) (prev V, replaced bool, err error) {
	h := m.hasher.Hash(key)
	if i, ok := m.find(key, h); ok {
		prev = m.slots[i].val
		m.slots[i].val = value
		return prev, true, nil
	}
	if err = m.reserveOne(); err != nil {
		return prev, false, err
	}
	m.insertNew(key, value, h)
	return prev, false, nil
}

// Get returns the value stored under key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	if i, ok := m.find(key, m.hasher.Hash(key)); ok {
		return m.slots[i].val, true
	}
	var zero V
	return zero, false
}

// Contains reports whether key is present.
func (m *Map[K, V]) Contains(key K) bool {
	_, ok := m.find(key, m.hasher.Hash(key))
	return ok
}

// Remove deletes key and returns its value. It never allocates and never
// fails; a missing key reports false.
func (m *Map[K, V]) Remove(key K) (V, bool) {
	var zero V
	i, ok := m.find(key, m.hasher.Hash(key))
	if !ok {
		return zero, false
	}
	val := m.slots[i].val
	m.ctrl[i] = ctrlTombstone
	m.slots[i] = slot[K, V]{}
	m.live--
	return val, true
}

// TryReserve grows the table so that additional more entries fit without
// another rehash. Sizing counts tombstones, since they occupy slots until
// the next rehash clears them.
func (m *Map[K, V]) TryReserve(additional int) error {
	if additional < 0 {
		panic("hmap: negative additional capacity")
	}
	need, ok := mathx.AddOverflowSafe(m.used, additional)
	if !ok {
		return fmt.Errorf("%w: occupancy %d + additional %d", alloc.ErrCapacityOverflow, m.used, additional)
	}
	// Smallest power-of-two capacity keeping need within the load factor.
	target, ok := mathx.MulOverflowSafe(need, 4)
	if !ok {
		return fmt.Errorf("%w: reservation for %d entries", alloc.ErrCapacityOverflow, need)
	}
	newCap, ok := mathx.NextPowerOfTwo((target + 2) / 3)
	if !ok {
		return fmt.Errorf("%w: reservation for %d entries", alloc.ErrCapacityOverflow, need)
	}
	if newCap < minTableSize {
		newCap = minTableSize
	}
	if newCap <= len(m.slots) {
		return nil
	}
	return m.rehash(newCap)
}

// Range calls fn for every entry until fn returns false. Order is
// unspecified. The map must not be mutated during iteration.
func (m *Map[K, V]) Range(fn func(K, V) bool) {
	for i, c := range m.ctrl {
		if c != ctrlFull {
			continue
		}
		if !fn(m.slots[i].key, m.slots[i].val) {
			return
		}
	}
}

// Keys returns the stored keys in unspecified order.
func (m *Map[K, V]) Keys() []K {
	out := make([]K, 0, m.live)
	m.Range(func(k K, _ V) bool {
		out = append(out, k)
		return true
	})
	return out
}

// Clear removes every entry, keeping the table capacity.
func (m *Map[K, V]) Clear() {
	for i := range m.ctrl {
		m.ctrl[i] = ctrlEmpty
		m.slots[i] = slot[K, V]{}
	}
	m.live = 0
	m.used = 0
}

// TryClone returns a new map holding a copy of every entry, using the same
// hasher and allocator but its own table blocks. On failure no clone exists
// and the original is untouched.
func (m *Map[K, V]) TryClone() (*Map[K, V], error) {
	nm := NewWithHasher[K, V](m.a, m.hasher)
	if m.live == 0 {
		return nm, nil
	}
	if err := nm.TryReserve(m.live); err != nil {
		return nil, err
	}
	for i, c := range m.ctrl {
		if c != ctrlFull {
			continue
		}
		s := m.slots[i]
		nm.insertNew(s.key, s.val, s.hash)
	}
	return nm, nil
}

// Free releases the table blocks and resets the map to an empty, reusable
// state.
func (m *Map[K, V]) Free() {
	if !m.ctrlBlock.IsZero() {
		m.a.Release(m.ctrlBlock)
	}
	if !m.slotBlock.IsZero() {
		m.a.Release(m.slotBlock)
	}
	m.ctrlBlock = alloc.Block{}
	m.slotBlock = alloc.Block{}
	m.ctrl = nil
	m.slots = nil
	m.live = 0
	m.used = 0
}

// find locates key's slot. The table always keeps at least one empty slot,
// which terminates the probe.
func (m *Map[K, V]) find(key K, h uint64) (int, bool) {
	if len(m.slots) == 0 {
		return 0, false
	}
	mask := uint64(len(m.slots) - 1)
	i := h & mask
	for {
		switch m.ctrl[i] {
		case ctrlEmpty:
			return 0, false
		case ctrlFull:
			if m.slots[i].hash == h && m.slots[i].key == key {
				return int(i), true
			}
		}
		i = (i + 1) & mask
	}
}

// reserveOne makes room for one new entry, rehashing when occupancy would
// cross the 0.75 load factor.
func (m *Map[K, V]) reserveOne() error {
	if len(m.slots) == 0 {
		return m.rehash(minTableSize)
	}
	if (m.used+1)*4 > len(m.slots)*3 {
		return m.rehash(len(m.slots) * 2)
	}
	return nil
}

// insertNew places a key known to be absent. The probe reuses the first
// tombstone it passes.
func (m *Map[K, V]) insertNew(key K, value V, h uint64) {
	mask := uint64(len(m.slots) - 1)
	i := h & mask
	for m.ctrl[i] == ctrlFull {
		i = (i + 1) & mask
	}
	if m.ctrl[i] == ctrlEmpty {
		m.used++
	}
	m.ctrl[i] = ctrlFull
	m.slots[i] = slot[K, V]{hash: h, key: key, val: value}
	m.live++
}

// rehash migrates the table to newCap slots. Both replacement blocks are
// allocated and confirmed before any entry moves; on failure the old table
// is untouched.
func (m *Map[K, V]) rehash(newCap int) error {
	slotLay, err := alloc.Of[slot[K, V]]().Array(newCap)
	if err != nil {
		return err
	}
	ctrlBlock, err := m.a.Allocate(alloc.Bytes(newCap))
	if err != nil {
		return err
	}
	slotBlock, err := m.a.Allocate(slotLay)
	if err != nil {
		m.a.Release(ctrlBlock)
		return err
	}

	newCtrl := ctrlBlock.Bytes()
	for i := range newCtrl {
		newCtrl[i] = ctrlEmpty
	}
	newSlots := alloc.View[slot[K, V]](slotBlock, newCap)

	mask := uint64(newCap - 1)
	for i, c := range m.ctrl {
		if c != ctrlFull {
			continue
		}
		s := m.slots[i]
		j := s.hash & mask
		for newCtrl[j] == ctrlFull {
			j = (j + 1) & mask
		}
		newCtrl[j] = ctrlFull
		newSlots[j] = s
	}

	if !m.ctrlBlock.IsZero() {
		m.a.Release(m.ctrlBlock)
	}
	if !m.slotBlock.IsZero() {
		m.a.Release(m.slotBlock)
	}
	m.ctrlBlock = ctrlBlock
	m.slotBlock = slotBlock
	m.ctrl = newCtrl
	m.slots = newSlots
	m.used = m.live
	return nil
}

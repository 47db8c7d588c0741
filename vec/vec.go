// Package vec provides a growable array whose every allocation can fail
// gracefully.
//
// A Vec owns a single memory block obtained from an alloc.Allocator and
// carries the strong-safety contract: when a try-prefixed operation returns
// an error, the vector's length, capacity, and contents are exactly what they
// were before the call. Growth is two-phase: the replacement block is
// allocated and confirmed before any element moves, and the old block is
// released only afterwards.
//
// Out-of-range indices are programming errors and panic; they are never
// reported as error values. Pop and Remove never allocate and never fail.
package vec

import (
	"fmt"

	"github.com/cod-technologies/fallacy/alloc"
	"github.com/cod-technologies/fallacy/internal/mathx"
)

// Vec is a contiguous growable array of T backed by one allocator block.
// The zero value is not usable; construct with New or TryWithCapacity.
// A Vec is not safe for concurrent mutation.
type Vec[T any] struct {
	a     alloc.Allocator
	block alloc.Block
	elems []T // typed view over block; len(elems) is the capacity
	n     int
}

// New returns an empty vector that will not allocate until the first push.
// A nil allocator uses alloc.Global.
func New[T any](a alloc.Allocator) *Vec[T] {
	if a == nil {
		a = alloc.Global
	}
	return &Vec[T]{a: a}
}

// TryWithCapacity returns an empty vector able to hold capacity elements
// without further allocation.
func TryWithCapacity[T any](a alloc.Allocator, capacity int) (*Vec[T], error) {
	v := New[T](a)
	if err := v.TryReserveExact(capacity); err != nil {
		return nil, err
	}
	return v, nil
}

// TryFrom returns a vector holding a copy of values.
func TryFrom[T any](a alloc.Allocator, values []T) (*Vec[T], error) {
	v := New[T](a)
	if err := v.TryExtendFromSlice(values); err != nil {
		return nil, err
	}
	return v, nil
}

// Len returns the number of elements.
func (v *Vec[T]) Len() int { return v.n }

// Cap returns the number of elements the vector can hold without growing.
func (v *Vec[T]) Cap() int { return len(v.elems) }

// TryReserve ensures capacity for at least additional more elements, growing
// by the doubling policy: max(cap*2, len+additional), with a small floor for
// the first allocation. Does nothing when capacity is already sufficient.
func (v *Vec[T]) TryReserve(additional int) error {
	if additional < 0 {
		panic("vec: negative additional capacity")
	}
	newCap, err := alloc.GrowCapacity(v.Cap(), v.n, additional, minCap[T]())
	if err != nil {
		return err
	}
	if newCap == v.Cap() {
		return nil
	}
	return v.grow(newCap)
}

// TryReserveExact ensures capacity for exactly len+additional elements,
// without the doubling headroom.
func (v *Vec[T]) TryReserveExact(additional int) error {
	if additional < 0 {
		panic("vec: negative additional capacity")
	}
	need, ok := mathx.AddOverflowSafe(v.n, additional)
	if !ok {
		return fmt.Errorf("%w: length %d + additional %d", alloc.ErrCapacityOverflow, v.n, additional)
	}
	if need <= v.Cap() {
		return nil
	}
	return v.grow(need)
}

// TryPush appends value, growing if needed. On failure the vector is
// unchanged and the caller still holds value.
func (v *Vec[T]) TryPush(value T) error {
	if v.n == len(v.elems) {
		if err := v.TryReserve(1); err != nil {
			return err
		}
	}
	v.elems[v.n] = value
	v.n++
	return nil
}

// TryInsert inserts value at index i, shifting later elements right.
// i may equal Len() (append position); any other out-of-range index panics.
func (v *Vec[T]) TryInsert(i int, value T) error {
	if i < 0 || i > v.n {
		panic(fmt.Sprintf("vec: insert index %d out of range [0, %d]", i, v.n))
	}
	if v.n == len(v.elems) {
		if err := v.TryReserve(1); err != nil {
			return err
		}
	}
	copy(v.elems[i+1:v.n+1], v.elems[i:v.n])
	v.elems[i] = value
	v.n++
	return nil
}

// TryExtendFromSlice appends a copy of every element of values.
// All-or-nothing: a failed reservation appends nothing.
func (v *Vec[T]) TryExtendFromSlice(values []T) error {
	if len(values) == 0 {
		return nil
	}
	if err := v.TryReserve(len(values)); err != nil {
		return err
	}
	copy(v.elems[v.n:v.n+len(values)], values)
	v.n += len(values)
	return nil
}

// TryResize grows or truncates the vector to n elements, filling new slots
// with fill.
func (v *Vec[T]) TryResize(n int, fill T) error {
	if n < 0 {
		panic("vec: negative length")
	}
	if n <= v.n {
		v.Truncate(n)
		return nil
	}
	if err := v.TryReserve(n - v.n); err != nil {
		return err
	}
	for i := v.n; i < n; i++ {
		v.elems[i] = fill
	}
	v.n = n
	return nil
}

// Pop removes and returns the last element. It never allocates.
func (v *Vec[T]) Pop() (T, bool) {
	var zero T
	if v.n == 0 {
		return zero, false
	}
	v.n--
	val := v.elems[v.n]
	v.elems[v.n] = zero
	return val, true
}

// Remove removes and returns the element at index i, shifting later elements
// left. It never allocates. An out-of-range index panics.
func (v *Vec[T]) Remove(i int) T {
	v.checkIndex(i)
	val := v.elems[i]
	copy(v.elems[i:v.n-1], v.elems[i+1:v.n])
	v.n--
	var zero T
	v.elems[v.n] = zero
	return val
}

// SwapRemove removes and returns the element at index i, replacing it with
// the last element. O(1) but does not preserve order.
func (v *Vec[T]) SwapRemove(i int) T {
	v.checkIndex(i)
	val := v.elems[i]
	v.n--
	v.elems[i] = v.elems[v.n]
	var zero T
	v.elems[v.n] = zero
	return val
}

// Get returns the element at index i. An out-of-range index panics.
func (v *Vec[T]) Get(i int) T {
	v.checkIndex(i)
	return v.elems[i]
}

// Set replaces the element at index i. An out-of-range index panics.
func (v *Vec[T]) Set(i int, value T) {
	v.checkIndex(i)
	v.elems[i] = value
}

// Truncate keeps the first n elements and drops the rest. A length at or
// beyond Len() leaves the vector unchanged. Capacity is unaffected.
func (v *Vec[T]) Truncate(n int) {
	if n < 0 {
		panic("vec: negative length")
	}
	if n >= v.n {
		return
	}
	var zero T
	for i := n; i < v.n; i++ {
		v.elems[i] = zero
	}
	v.n = n
}

// Clear removes all elements, keeping the capacity.
func (v *Vec[T]) Clear() { v.Truncate(0) }

// Slice returns the live elements as a slice sharing the vector's storage.
// The slice is valid until the next mutating operation.
func (v *Vec[T]) Slice() []T { return v.elems[:v.n:v.n] }

// TryClone returns a new vector holding a copy of the elements, backed by
// its own block from the same allocator. On failure no clone exists and the
// original is untouched.
func (v *Vec[T]) TryClone() (*Vec[T], error) {
	nv, err := TryWithCapacity[T](v.a, v.n)
	if err != nil {
		return nil, err
	}
	copy(nv.elems[:v.n], v.elems[:v.n])
	nv.n = v.n
	return nv, nil
}

// Free releases the vector's block and resets it to an empty, reusable state.
func (v *Vec[T]) Free() {
	v.Clear()
	if !v.block.IsZero() {
		v.a.Release(v.block)
	}
	v.block = alloc.Block{}
	v.elems = nil
}

// grow installs a block for newCap elements, preserving existing contents.
// Two-phase: the vector's state changes only after the allocator confirms
// the replacement block.
func (v *Vec[T]) grow(newCap int) error {
	lay, err := alloc.Of[T]().Array(newCap)
	if err != nil {
		return err
	}
	var nb alloc.Block
	if v.block.IsZero() {
		nb, err = v.a.Allocate(lay)
	} else {
		nb, err = v.a.Grow(v.block, lay.Size())
	}
	if err != nil {
		return err
	}
	v.block = nb
	v.elems = alloc.View[T](nb, newCap)
	return nil
}

func (v *Vec[T]) checkIndex(i int) {
	if i < 0 || i >= v.n {
		panic(fmt.Sprintf("vec: index %d out of range [0, %d)", i, v.n))
	}
}

// minCap is the smallest non-zero capacity requested: 8 elements for
// byte-size elements, 4 otherwise.
func minCap[T any]() int {
	if alloc.Of[T]().Size() == 1 {
		return 8
	}
	return 4
}

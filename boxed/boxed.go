// Package boxed provides a single-owner heap cell with fallible
// construction.
//
// A Box places one value in allocator-owned storage. Construction
// reports allocation failure as an error and leaves the caller's value
// untouched, so the value can be retried against another allocator or
// dropped. Ownership is explicit: Free returns the storage, Take moves
// the value out, and accessing a freed box is a programming fault that
// panics.
package boxed

import (
	"github.com/cod-technologies/fallacy/alloc"
)

// Box owns a single heap-allocated value of type T.
type Box[T any] struct {
	a     alloc.Allocator
	block alloc.Block
	ptr   *T
}

// TryNew allocates storage for one T and moves value into it. On failure
// the error is returned and value is unaffected.
func TryNew[T any](a alloc.Allocator, value T) (*Box[T], error) {
	if a == nil {
		a = alloc.Global
	}
	lay := alloc.Of[T]()
	if lay.Size() == 0 {
		return &Box[T]{a: a, ptr: new(T)}, nil
	}
	block, err := a.Allocate(lay)
	if err != nil {
		return nil, err
	}
	view := alloc.View[T](block, 1)
	view[0] = value
	return &Box[T]{a: a, block: block, ptr: &view[0]}, nil
}

// Get returns a pointer to the boxed value. It panics if the box has
// been freed.
func (b *Box[T]) Get() *T {
	if b.ptr == nil {
		panic("boxed: use after free")
	}
	return b.ptr
}

// Set replaces the boxed value in place.
func (b *Box[T]) Set(value T) {
	*b.Get() = value
}

// TryClone allocates a new box holding a copy of the value. On failure no
// clone exists and the original is untouched.
func (b *Box[T]) TryClone() (*Box[T], error) {
	return TryNew(b.a, *b.Get())
}

// Take moves the value out and frees the storage. The box must not be
// used afterwards.
func (b *Box[T]) Take() T {
	v := *b.Get()
	b.Free()
	return v
}

// Free returns the storage to the allocator. Calling Free on an already
// freed box is a no-op.
func (b *Box[T]) Free() {
	if b.ptr == nil {
		return
	}
	if !b.block.IsZero() {
		*b.ptr = *new(T)
		b.a.Release(b.block)
	}
	b.block = alloc.Block{}
	b.ptr = nil
}

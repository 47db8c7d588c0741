package alloc

import "unsafe"

// Block is an owned region of memory obtained from an Allocator: an aligned
// byte span plus the layout it was allocated with. A Block performs no logic
// itself; it is an ownership-tracked handle the owning container reads and
// writes through. Exactly one live owner exists at a time, and that owner
// must release the block exactly once.
type Block struct {
	data   []byte
	ref    any // anchor keeping collector-traced or mapped memory alive
	layout Layout
}

// Bytes returns the block's payload. Its length equals the block capacity.
func (b Block) Bytes() []byte { return b.data }

// Cap returns the block's capacity in bytes.
func (b Block) Cap() int { return len(b.data) }

// Layout returns the layout the block was allocated with.
func (b Block) Layout() Layout { return b.layout }

// IsZero reports whether the block holds no memory. The zero Block is the
// valid initial state of every container before its first allocation.
func (b Block) IsZero() bool { return b.data == nil }

// View reinterprets the block's memory as a slice of n values of type T.
// The caller must have allocated the block with a layout for at least n
// elements of T; a block too small for the request is a contract violation
// and panics.
func View[T any](b Block, n int) []T {
	if n == 0 {
		return nil
	}
	lay, err := Of[T]().Array(n)
	if err != nil || lay.size > len(b.data) {
		panic("alloc: view exceeds block capacity")
	}
	if lay.size == 0 {
		// Zero-size elements occupy no block memory.
		return make([]T, n)
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b.data[0])), n)
}

package alloc

import (
	"reflect"
	"unsafe"
)

// Heap allocates from the Go runtime heap. Typed layouts whose element type
// contains Go pointers are backed by reflect-constructed arrays so the
// collector traces them; everything else is an aligned byte slice.
//
// Heap's only failure modes are ErrCapacityOverflow and ErrInvalidLayout:
// exhausting the runtime heap is fatal in Go, so callers that need a bounded,
// recoverable out-of-memory signal compose Heap with Limit or use Arena or
// Mmap. Release is a no-op; the collector reclaims unreferenced blocks.
//
// Heap is stateless and safe for concurrent use.
type Heap struct{}

// Global is the process-wide default allocator. It is initialized once and
// never reconfigured; containers constructed with a nil allocator use it.
var Global Allocator = Heap{}

// Allocate implements Allocator.
func (Heap) Allocate(l Layout) (Block, error) {
	if err := l.check(); err != nil {
		return Block{}, err
	}
	if l.size == 0 {
		return Block{layout: l}, nil
	}
	if l.Pointers() {
		arr := reflect.New(reflect.ArrayOf(l.count, l.elem))
		data := unsafe.Slice((*byte)(arr.UnsafePointer()), l.size)
		return Block{data: data, ref: arr, layout: l}, nil
	}
	raw := make([]byte, l.size+l.align-1)
	off := alignOffset(unsafe.Pointer(&raw[0]), l.align)
	return Block{data: raw[off : off+l.size : off+l.size], layout: l}, nil
}

// Grow implements Allocator by allocating a replacement block and copying.
// The original block is released only after the new one is confirmed.
func (h Heap) Grow(b Block, newSize int) (Block, error) {
	nl, err := b.layout.resize(newSize)
	if err != nil {
		return Block{}, err
	}
	if newSize < len(b.data) {
		return Block{}, layoutErrorf("grow from %d to smaller size %d", len(b.data), newSize)
	}
	return growByCopy(h, b, nl)
}

// Shrink implements Allocator as capacity bookkeeping: the block is resliced
// and the slack stays reachable until the block is released.
func (Heap) Shrink(b Block, newSize int) (Block, error) {
	nl, err := b.layout.resize(newSize)
	if err != nil {
		return Block{}, err
	}
	if newSize > len(b.data) {
		return Block{}, layoutErrorf("shrink from %d to larger size %d", len(b.data), newSize)
	}
	b.data = b.data[:newSize]
	b.layout = nl
	return b, nil
}

// Release implements Allocator. The collector reclaims the memory once the
// caller drops the block.
func (Heap) Release(Block) {}

// alignOffset returns how many bytes past p the first align-aligned address
// lies. align must be a power of two.
func alignOffset(p unsafe.Pointer, align int) int {
	rem := int(uintptr(p) & uintptr(align-1))
	if rem == 0 {
		return 0
	}
	return align - rem
}

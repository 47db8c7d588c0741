package alloc

import "github.com/cod-technologies/fallacy/internal/mathx"

// Arena is a bump-pointer allocator over one contiguous byte region with a
// hard capacity. Allocation advances a cursor; exhaustion is a deterministic
// ErrOutOfMemory, which makes Arena the allocator of choice for embedded-style
// bounded-memory use and for exercising the containers' failure paths.
//
// The most recent allocation gets special treatment: Grow extends it in place
// when the tail has room, and Release rewinds the cursor over it. Releasing
// any other block is a no-op; its bytes are reclaimed only by Reset.
//
// Arena memory is not traced by the garbage collector, so pointer-bearing
// layouts are rejected with ErrInvalidLayout.
//
// An Arena is not safe for concurrent use.
type Arena struct {
	buf  []byte
	off  int
	last int // payload start of the most recent allocation, -1 when none
}

// NewArena returns an arena over a fresh region of the given capacity.
func NewArena(capacity int) *Arena {
	if capacity < 0 {
		panic("alloc: negative arena capacity")
	}
	return &Arena{buf: make([]byte, capacity), last: -1}
}

// Allocate implements Allocator.
func (a *Arena) Allocate(l Layout) (Block, error) {
	if err := l.check(); err != nil {
		return Block{}, err
	}
	if l.Pointers() {
		return Block{}, layoutErrorf("arena memory is not traced by the collector (element type %s)", l.elem)
	}
	if l.size == 0 {
		return Block{layout: l}, nil
	}
	start, ok := mathx.AlignUp(a.off, l.align)
	if !ok {
		return Block{}, oomError(l)
	}
	end, ok := mathx.AddOverflowSafe(start, l.size)
	if !ok || end > len(a.buf) {
		return Block{}, oomError(l)
	}
	a.off = end
	a.last = start
	return Block{data: a.buf[start:end:end], layout: l}, nil
}

// Grow implements Allocator. The most recent allocation grows in place when
// the tail of the arena has room; any other block is grown by allocate-copy,
// after which its old bytes are dead until Reset.
func (a *Arena) Grow(b Block, newSize int) (Block, error) {
	nl, err := b.layout.resize(newSize)
	if err != nil {
		return Block{}, err
	}
	if newSize < len(b.data) {
		return Block{}, layoutErrorf("grow from %d to smaller size %d", len(b.data), newSize)
	}
	if b.IsZero() {
		return a.Allocate(nl)
	}
	if a.isLast(b) {
		if end, ok := mathx.AddOverflowSafe(a.last, newSize); ok && end <= len(a.buf) {
			a.off = end
			return Block{data: a.buf[a.last:end:end], layout: nl}, nil
		}
	}
	return growByCopy(a, b, nl)
}

// Shrink implements Allocator. Shrinking the most recent allocation rewinds
// the cursor; otherwise the trailing bytes are dead until Reset.
func (a *Arena) Shrink(b Block, newSize int) (Block, error) {
	nl, err := b.layout.resize(newSize)
	if err != nil {
		return Block{}, err
	}
	if newSize > len(b.data) {
		return Block{}, layoutErrorf("shrink from %d to larger size %d", len(b.data), newSize)
	}
	if a.isLast(b) {
		a.off = a.last + newSize
	}
	b.data = b.data[:newSize]
	b.layout = nl
	return b, nil
}

// Release implements Allocator. Only the most recent allocation is rewound;
// earlier blocks stay consumed until Reset.
func (a *Arena) Release(b Block) {
	if a.isLast(b) {
		a.off = a.last
		a.last = -1
	}
}

// Reset discards every allocation and rewinds the arena to empty. All blocks
// previously handed out become invalid.
func (a *Arena) Reset() {
	a.off = 0
	a.last = -1
}

// Cap returns the arena's total capacity in bytes.
func (a *Arena) Cap() int { return len(a.buf) }

// Used returns the number of bytes consumed from the arena, including
// alignment padding and dead blocks.
func (a *Arena) Used() int { return a.off }

// Remaining returns the bytes still available at the arena's tail.
func (a *Arena) Remaining() int { return len(a.buf) - a.off }

func (a *Arena) isLast(b Block) bool {
	// len guard also covers blocks shrunk to zero bytes.
	if a.last < 0 || len(b.data) == 0 || a.last >= len(a.buf) {
		return false
	}
	return &b.data[0] == &a.buf[a.last]
}

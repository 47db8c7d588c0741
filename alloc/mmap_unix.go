//go:build linux || darwin

package alloc

import (
	"golang.org/x/sys/unix"

	"github.com/cod-technologies/fallacy/internal/mathx"
)

// Mmap allocates each block as an anonymous private mapping and unmaps it on
// release, so memory goes back to the kernel immediately instead of waiting
// for the collector. A failed mmap surfaces as ErrOutOfMemory.
//
// Mappings are page-granular: small blocks still consume a page, and Grow
// first consumes the slack within the last mapped page before remapping.
// Pointer-bearing layouts are rejected; mapped pages are not traced by the
// collector.
type Mmap struct {
	pageSize int
}

// NewMmap returns a page-mapping allocator.
func NewMmap() (*Mmap, error) {
	return &Mmap{pageSize: unix.Getpagesize()}, nil
}

// PageSize returns the mapping granularity in bytes.
func (m *Mmap) PageSize() int { return m.pageSize }

// Allocate implements Allocator.
func (m *Mmap) Allocate(l Layout) (Block, error) {
	if err := l.check(); err != nil {
		return Block{}, err
	}
	if l.Pointers() {
		return Block{}, layoutErrorf("mapped memory is not traced by the collector (element type %s)", l.elem)
	}
	if l.align > m.pageSize {
		return Block{}, layoutErrorf("alignment %d exceeds page size %d", l.align, m.pageSize)
	}
	if l.size == 0 {
		return Block{layout: l}, nil
	}
	mapped, ok := mathx.AlignUp(l.size, m.pageSize)
	if !ok {
		return Block{}, overflowError(l.size)
	}
	data, err := unix.Mmap(-1, 0, mapped,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return Block{}, oomError(l)
	}
	return Block{data: data[:l.size:l.size], ref: data, layout: l}, nil
}

// Grow implements Allocator. Growth within the mapped page slack is in
// place; otherwise a new mapping is made, filled, and the old one unmapped
// only after the new mapping is confirmed.
func (m *Mmap) Grow(b Block, newSize int) (Block, error) {
	nl, err := b.layout.resize(newSize)
	if err != nil {
		return Block{}, err
	}
	if newSize < len(b.data) {
		return Block{}, layoutErrorf("grow from %d to smaller size %d", len(b.data), newSize)
	}
	if full, ok := b.ref.([]byte); ok && newSize <= len(full) {
		b.data = full[:newSize:newSize]
		b.layout = nl
		return b, nil
	}
	return growByCopy(m, b, nl)
}

// Shrink implements Allocator as capacity bookkeeping; the mapping is kept
// until release.
func (m *Mmap) Shrink(b Block, newSize int) (Block, error) {
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

// Release implements Allocator by unmapping the block's pages.
func (m *Mmap) Release(b Block) {
	if full, ok := b.ref.([]byte); ok {
		_ = unix.Munmap(full)
	}
}

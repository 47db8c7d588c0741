//go:build !linux && !darwin

package alloc

import (
	"fmt"
	"runtime"
)

// Mmap is unavailable on this platform; NewMmap reports the error and every
// method fails. Callers select a different allocator at startup.
type Mmap struct{}

// NewMmap returns an error on platforms without anonymous mapping support.
func NewMmap() (*Mmap, error) {
	return nil, fmt.Errorf("alloc: mmap allocator is not supported on %s", runtime.GOOS)
}

// PageSize returns the mapping granularity in bytes.
func (*Mmap) PageSize() int { return 0 }

// Allocate implements Allocator.
func (*Mmap) Allocate(l Layout) (Block, error) {
	return Block{}, layoutErrorf("mmap allocator is not supported on %s", runtime.GOOS)
}

// Grow implements Allocator.
func (*Mmap) Grow(Block, int) (Block, error) {
	return Block{}, layoutErrorf("mmap allocator is not supported on %s", runtime.GOOS)
}

// Shrink implements Allocator.
func (*Mmap) Shrink(Block, int) (Block, error) {
	return Block{}, layoutErrorf("mmap allocator is not supported on %s", runtime.GOOS)
}

// Release implements Allocator.
func (*Mmap) Release(Block) {}

package alloc

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfMemory indicates the allocator could not satisfy a request of
	// valid size and alignment.
	ErrOutOfMemory = errors.New("alloc: out of memory")

	// ErrCapacityOverflow indicates the requested logical size exceeds the
	// maximum representable size. It is detected before any allocator call.
	ErrCapacityOverflow = errors.New("alloc: capacity overflow")

	// ErrInvalidLayout indicates the size/alignment combination is not
	// constructible, e.g. an alignment that is not a power of two.
	ErrInvalidLayout = errors.New("alloc: invalid layout")
)

func oomError(l Layout) error {
	return fmt.Errorf("%w: failed to allocate layout {size: %d, align: %d}", ErrOutOfMemory, l.size, l.align)
}

func overflowError(size int) error {
	return fmt.Errorf("%w: computed size %d exceeds the maximum", ErrCapacityOverflow, size)
}

func layoutErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidLayout, fmt.Sprintf(format, args...))
}

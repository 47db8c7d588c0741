package alloc

// Allocator is the single seam through which all container memory requests
// flow. Any conforming implementation may back the containers: the Go heap,
// a bump arena, anonymous pages, or a budget-enforcing wrapper.
//
// No operation aborts on exhaustion; exhaustion is always an error value
// wrapping ErrOutOfMemory.
type Allocator interface {
	// Allocate returns a Block with capacity >= layout.Size() whose address
	// is aligned to layout.Align().
	Allocate(layout Layout) (Block, error)

	// Grow returns a block of capacity >= newSize whose leading Cap() bytes
	// equal the original contents. Implementations may extend in place or
	// allocate-copy-release. If Grow fails, the original block remains valid
	// and unmodified, and the caller still owns it.
	Grow(b Block, newSize int) (Block, error)

	// Shrink reduces the block to newSize bytes, newSize <= Cap(). It fails
	// only with ErrInvalidLayout. On success the returned block replaces the
	// original, which the caller no longer owns.
	Shrink(b Block, newSize int) (Block, error)

	// Release returns the block's memory to the allocator. It never fails.
	// Releasing a block twice is a caller contract violation.
	Release(b Block)
}

// growByCopy is the portable grow path: allocate the replacement block first,
// copy, and release the original only after the new block is confirmed. On
// failure the original is untouched.
func growByCopy(a Allocator, b Block, newLayout Layout) (Block, error) {
	nb, err := a.Allocate(newLayout)
	if err != nil {
		return Block{}, err
	}
	copy(nb.data, b.data)
	a.Release(b)
	return nb, nil
}

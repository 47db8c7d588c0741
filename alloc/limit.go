package alloc

import (
	"sync"

	"github.com/cod-technologies/fallacy/internal/mathx"
)

// Limit enforces a byte budget on top of another allocator. Requests that
// would push usage past the budget fail with ErrOutOfMemory before reaching
// the inner allocator; releases and shrinks refund the budget. This is how
// Heap-backed containers get a recoverable out-of-memory signal.
//
// Limit is safe for concurrent use when the inner allocator is.
type Limit struct {
	inner Allocator

	mu     sync.Mutex
	budget int
	used   int
}

// NewLimit wraps inner with a byte budget. A nil inner uses Global.
func NewLimit(inner Allocator, budget int) *Limit {
	if inner == nil {
		inner = Global
	}
	if budget < 0 {
		budget = 0
	}
	return &Limit{inner: inner, budget: budget}
}

// Allocate implements Allocator, charging layout.Size() against the budget.
func (l *Limit) Allocate(lay Layout) (Block, error) {
	if err := lay.check(); err != nil {
		return Block{}, err
	}
	if !l.charge(lay.size) {
		return Block{}, oomError(lay)
	}
	b, err := l.inner.Allocate(lay)
	if err != nil {
		l.refund(lay.size)
		return Block{}, err
	}
	return b, nil
}

// Grow implements Allocator, charging only the size delta.
func (l *Limit) Grow(b Block, newSize int) (Block, error) {
	delta := newSize - len(b.data)
	if delta > 0 && !l.charge(delta) {
		return Block{}, oomError(b.layout)
	}
	nb, err := l.inner.Grow(b, newSize)
	if err != nil {
		if delta > 0 {
			l.refund(delta)
		}
		return Block{}, err
	}
	return nb, nil
}

// Shrink implements Allocator, refunding the size delta on success.
func (l *Limit) Shrink(b Block, newSize int) (Block, error) {
	old := len(b.data)
	nb, err := l.inner.Shrink(b, newSize)
	if err != nil {
		return Block{}, err
	}
	if old > newSize {
		l.refund(old - newSize)
	}
	return nb, nil
}

// Release implements Allocator, refunding the block's capacity.
func (l *Limit) Release(b Block) {
	l.inner.Release(b)
	l.refund(len(b.data))
}

// Used returns the bytes currently charged against the budget.
func (l *Limit) Used() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.used
}

// Budget returns the configured byte budget.
func (l *Limit) Budget() int { return l.budget }

func (l *Limit) charge(n int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	next, ok := mathx.AddOverflowSafe(l.used, n)
	if !ok || next > l.budget {
		return false
	}
	l.used = next
	return true
}

func (l *Limit) refund(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.used -= n
	if l.used < 0 {
		l.used = 0
	}
}

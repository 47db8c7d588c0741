// Package alloctest provides failure-injecting allocators for exercising the
// containers' out-of-memory paths deterministically.
package alloctest

import (
	"fmt"
	"sync"

	"github.com/cod-technologies/fallacy/alloc"
)

// Flaky wraps an allocator with deterministic failure injection and call
// counting. FailAfter(n) lets the next n allocation attempts (Allocate or
// Grow) succeed and fails every attempt after that with ErrOutOfMemory until
// Heal is called. The counters let tests assert that an operation rejected a
// request without ever consulting the allocator.
type Flaky struct {
	inner alloc.Allocator

	mu        sync.Mutex
	remaining int // successful attempts left before failing; -1 = unlimited
	ops       []string

	allocateCalls int
	growCalls     int
	shrinkCalls   int
	releaseCalls  int
}

// New wraps inner with failure injection disabled. A nil inner uses Global.
func New(inner alloc.Allocator) *Flaky {
	if inner == nil {
		inner = alloc.Global
	}
	return &Flaky{inner: inner, remaining: -1}
}

// FailAfter arms the injector: the next n allocation attempts succeed, every
// attempt after that fails until Heal.
func (f *Flaky) FailAfter(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remaining = n
}

// FailNow makes every allocation attempt fail until Heal.
func (f *Flaky) FailNow() { f.FailAfter(0) }

// Heal disables failure injection.
func (f *Flaky) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remaining = -1
}

// Allocate implements alloc.Allocator.
func (f *Flaky) Allocate(l alloc.Layout) (alloc.Block, error) {
	if !f.admit("allocate") {
		return alloc.Block{}, injected()
	}
	return f.inner.Allocate(l)
}

// Grow implements alloc.Allocator. A failed grow leaves the caller's block
// untouched, exactly like a real allocator.
func (f *Flaky) Grow(b alloc.Block, newSize int) (alloc.Block, error) {
	if !f.admit("grow") {
		return alloc.Block{}, injected()
	}
	return f.inner.Grow(b, newSize)
}

// Shrink implements alloc.Allocator. Shrinks are never injected with
// failure; the contract allows them to fail only on invalid layouts.
func (f *Flaky) Shrink(b alloc.Block, newSize int) (alloc.Block, error) {
	f.mu.Lock()
	f.shrinkCalls++
	f.ops = append(f.ops, "shrink")
	f.mu.Unlock()
	return f.inner.Shrink(b, newSize)
}

// Release implements alloc.Allocator.
func (f *Flaky) Release(b alloc.Block) {
	f.mu.Lock()
	f.releaseCalls++
	f.ops = append(f.ops, "release")
	f.mu.Unlock()
	f.inner.Release(b)
}

// AllocateCalls returns the number of Allocate attempts, including failed ones.
func (f *Flaky) AllocateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.allocateCalls
}

// GrowCalls returns the number of Grow attempts, including failed ones.
func (f *Flaky) GrowCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.growCalls
}

// ReleaseCalls returns the number of Release calls.
func (f *Flaky) ReleaseCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.releaseCalls
}

// AttemptCalls returns the total number of allocation attempts (Allocate plus
// Grow), including failed ones.
func (f *Flaky) AttemptCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.allocateCalls + f.growCalls
}

// Ops returns the ordered log of allocator calls seen so far.
func (f *Flaky) Ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.ops))
	copy(out, f.ops)
	return out
}

// admit records an allocation attempt and reports whether it may proceed.
func (f *Flaky) admit(op string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if op == "grow" {
		f.growCalls++
	} else {
		f.allocateCalls++
	}
	f.ops = append(f.ops, op)
	if f.remaining < 0 {
		return true
	}
	if f.remaining == 0 {
		return false
	}
	f.remaining--
	return true
}

func injected() error {
	return fmt.Errorf("%w: injected failure", alloc.ErrOutOfMemory)
}

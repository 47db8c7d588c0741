// Package alloc provides fallible memory allocation for the fallacy containers.
//
// # Overview
//
// Every container in this module obtains its backing memory through the
// Allocator interface defined here. Allocators report exhaustion as an error
// value instead of aborting, which is what lets the containers offer their
// try-prefixed operations: a failed allocation propagates out as ErrOutOfMemory
// and the container is left exactly as it was before the call.
//
// # Layouts and Blocks
//
// A Layout describes a memory request: byte size, alignment, and optionally the
// element type the memory will hold. A Block is the owned region an allocator
// hands back: an aligned byte span plus the layout it was allocated with.
// Exactly one live owner holds a Block at any time, and that owner must release
// it exactly once.
//
// Element types that contain Go pointers (strings, slices, pointers, maps)
// must be allocated through a typed layout so the garbage collector can trace
// the region. The Heap allocator supports typed layouts; raw-memory allocators
// (Arena, Mmap) reject pointer-bearing layouts with ErrInvalidLayout.
//
// # Implementations
//
// Heap: default allocator backed by the Go runtime heap. Its only failure
// modes are ErrCapacityOverflow and ErrInvalidLayout; true heap exhaustion
// is fatal in Go, so bounded-memory callers compose Heap with Limit or use
// Arena or Mmap instead.
//
// Arena: bump-pointer allocator over one contiguous region with a hard
// capacity. Deterministic ErrOutOfMemory on exhaustion, in-place growth of
// the most recent allocation, O(1) Reset.
//
// Mmap (unix): anonymous page mappings from the kernel; Release unmaps.
//
// Limit: byte-budget wrapper around any allocator; releases refund the budget.
//
// Metered: Prometheus counters and gauges around any allocator.
//
// Traced: structured zap logging of every allocator call.
//
// # Errors
//
// All failures wrap one of three sentinels, matched with errors.Is:
//
//	ErrOutOfMemory      the allocator could not satisfy a valid request
//	ErrCapacityOverflow the requested size is not representable
//	ErrInvalidLayout    the size/alignment combination is not constructible
//
// Overflow is always detected before any allocation is attempted.
//
// # Thread Safety
//
// Heap, Limit, and Metered are safe for concurrent use. Arena and Mmap are
// not synchronized; callers share them across goroutines at their own risk.
// Containers treat every allocator call as a black-box synchronous operation.
package alloc

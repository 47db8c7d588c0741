package alloc

import (
	"reflect"

	"github.com/cod-technologies/fallacy/internal/mathx"
)

// Layout describes a memory request: the byte size, the required alignment,
// and optionally the element type the memory will store. Typed layouts let
// the Heap allocator hand out memory the garbage collector traces, which is
// required for element types containing Go pointers.
type Layout struct {
	size  int
	align int
	elem  reflect.Type // nil for raw byte layouts
	count int          // element count when elem != nil
}

// Of returns the layout of a single value of type T.
func Of[T any]() Layout {
	t := reflect.TypeFor[T]()
	return Layout{size: int(t.Size()), align: t.Align(), elem: t, count: 1}
}

// Bytes returns a raw byte layout of the given size with byte alignment.
func Bytes(n int) Layout {
	return Layout{size: n, align: 1}
}

// Aligned returns a raw byte layout with an explicit alignment. The
// alignment is validated when the layout reaches an allocator.
func Aligned(size, align int) Layout {
	return Layout{size: size, align: align}
}

// Array scales the layout to n elements. The size computation is
// overflow-checked; a size that does not fit in int is rejected with
// ErrCapacityOverflow before any allocator is consulted.
func (l Layout) Array(n int) (Layout, error) {
	if n < 0 {
		return Layout{}, layoutErrorf("negative element count %d", n)
	}
	total, ok := mathx.MulOverflowSafe(l.size, n)
	if !ok {
		return Layout{}, overflowError(l.size)
	}
	count, ok := mathx.MulOverflowSafe(l.count, n)
	if !ok {
		return Layout{}, overflowError(l.count)
	}
	out := l
	out.size = total
	out.count = count
	return out, nil
}

// Size returns the layout's byte size.
func (l Layout) Size() int { return l.size }

// Align returns the layout's required alignment.
func (l Layout) Align() int { return l.align }

// Count returns the element count for typed layouts, 0 otherwise.
func (l Layout) Count() int {
	if l.elem == nil {
		return 0
	}
	return l.count
}

// Elem returns the element type for typed layouts, nil otherwise.
func (l Layout) Elem() reflect.Type { return l.elem }

// Pointers reports whether the layout's element type contains Go pointers.
// Pointer-bearing layouts must be allocated from collector-traced memory.
func (l Layout) Pointers() bool {
	return l.elem != nil && typeHasPointers(l.elem)
}

// check validates the layout's invariants: non-negative size, power-of-two
// alignment, and a size consistent with the element type.
func (l Layout) check() error {
	if l.size < 0 {
		return layoutErrorf("negative size %d", l.size)
	}
	if !mathx.IsPowerOfTwo(l.align) {
		return layoutErrorf("alignment %d is not a power of two", l.align)
	}
	if l.elem != nil {
		if want, ok := mathx.MulOverflowSafe(int(l.elem.Size()), l.count); !ok || want != l.size {
			return layoutErrorf("size %d inconsistent with %d elements of %s", l.size, l.count, l.elem)
		}
	}
	return nil
}

// resize returns the layout adjusted to newSize bytes. For typed layouts
// newSize must be a whole multiple of the element size.
func (l Layout) resize(newSize int) (Layout, error) {
	if newSize < 0 {
		return Layout{}, layoutErrorf("negative size %d", newSize)
	}
	out := l
	out.size = newSize
	if l.elem != nil {
		es := int(l.elem.Size())
		if es == 0 {
			if newSize != 0 {
				return Layout{}, layoutErrorf("non-zero size %d for zero-size element %s", newSize, l.elem)
			}
			return out, nil
		}
		if newSize%es != 0 {
			return Layout{}, layoutErrorf("size %d is not a multiple of element size %d", newSize, es)
		}
		out.count = newSize / es
	}
	return out, nil
}

func typeHasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr, reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && typeHasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if typeHasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		// Pointer, slice, string, map, chan, func, interface, unsafe.Pointer.
		return true
	}
}

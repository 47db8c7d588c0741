package alloc

import (
	"math"

	"github.com/cod-technologies/fallacy/internal/mathx"
)

// GrowCapacity computes the capacity an amortized-doubling container should
// request when cur is insufficient for length+additional elements:
//
//	max(cur*2, length+additional, min)
//
// Doubling bounds reallocation frequency; the min floor avoids a run of tiny
// first allocations. The length+additional sum is overflow-checked and an
// unrepresentable request returns ErrCapacityOverflow, so the container can
// reject before touching its allocator. A cur already large enough is
// returned unchanged.
func GrowCapacity(cur, length, additional, min int) (int, error) {
	need, ok := mathx.AddOverflowSafe(length, additional)
	if !ok {
		return 0, overflowError(length)
	}
	if need <= cur {
		return cur, nil
	}
	newCap := need
	if cur <= math.MaxInt/2 && cur*2 > newCap {
		newCap = cur * 2
	}
	if newCap < min {
		newCap = min
	}
	return newCap, nil
}

package hmap_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cod-technologies/fallacy/alloc"
	"github.com/cod-technologies/fallacy/alloc/alloctest"
	"github.com/cod-technologies/fallacy/hmap"
)

func TestInsertGetRemove(t *testing.T) {
	m := hmap.New[string, int](nil)

	_, replaced, err := m.TryInsert("one", 1)
	require.NoError(t, err)
	assert.False(t, replaced)

	_, _, err = m.TryInsert("two", 2)
	require.NoError(t, err)
	require.Equal(t, 2, m.Len())

	got, ok := m.Get("one")
	require.True(t, ok)
	assert.Equal(t, 1, got)

	_, ok = m.Get("three")
	assert.False(t, ok)

	got, ok = m.Remove("one")
	require.True(t, ok)
	assert.Equal(t, 1, got)
	assert.Equal(t, 1, m.Len())
	assert.False(t, m.Contains("one"))

	_, ok = m.Remove("one")
	assert.False(t, ok)
}

// Duplicate insert replaces the value, returns the previous one, and must
// not touch the allocator.
func TestDuplicateKeyReplacesWithoutAllocation(t *testing.T) {
	f := alloctest.New(nil)
	m := hmap.New[string, int](f)

	_, _, err := m.TryInsert("k", 1)
	require.NoError(t, err)

	f.FailNow()
	prev, replaced, err := m.TryInsert("k", 2)
	require.NoError(t, err, "overwrite must not allocate")
	assert.True(t, replaced)
	assert.Equal(t, 1, prev)

	got, _ := m.Get("k")
	assert.Equal(t, 2, got)
	assert.Equal(t, 1, m.Len())
}

// The rehash scenario: with load factor 0.75 and a 4-slot table, the 4th
// distinct key doubles the table to 8 slots. When that rehash allocation
// fails, the insert reports OutOfMemory and the original 3 keys remain
// retrievable.
func TestRehashFailureKeepsOriginalKeys(t *testing.T) {
	f := alloctest.New(nil)
	m := hmap.New[string, int](f)

	for i := 1; i <= 3; i++ {
		_, _, err := m.TryInsert(fmt.Sprintf("key%d", i), i)
		require.NoError(t, err)
	}
	require.Equal(t, 4, m.Cap(), "3 keys fit the minimum 4-slot table")

	f.FailNow()
	_, _, err := m.TryInsert("key4", 4)
	require.Error(t, err)
	assert.ErrorIs(t, err, alloc.ErrOutOfMemory)

	assert.Equal(t, 3, m.Len())
	assert.Equal(t, 4, m.Cap(), "failed rehash leaves the old table")
	for i := 1; i <= 3; i++ {
		got, ok := m.Get(fmt.Sprintf("key%d", i))
		require.True(t, ok, "key%d must survive the failed rehash", i)
		assert.Equal(t, i, got)
	}
	_, ok := m.Get("key4")
	assert.False(t, ok, "the failed insert must not have stored the key")

	f.Heal()
	_, _, err = m.TryInsert("key4", 4)
	require.NoError(t, err)
	assert.Equal(t, 8, m.Cap())
	assert.Equal(t, 4, m.Len())
}

// Integrity under arbitrary injected failures: the retrievable key set is
// exactly the set of keys whose insert succeeded, with no duplicates.
func TestIntegrityUnderInjectedFailures(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	f := alloctest.New(nil)
	m := hmap.New[int, int](f)

	inserted := map[int]int{}
	for i := 0; i < 2000; i++ {
		key := rng.Intn(500)
		switch rng.Intn(4) {
		case 0: // flip the allocator
			if rng.Intn(2) == 0 {
				f.FailNow()
			} else {
				f.Heal()
			}
		case 1:
			if _, ok := m.Remove(key); ok {
				delete(inserted, key)
			}
		default:
			if _, _, err := m.TryInsert(key, i); err == nil {
				inserted[key] = i
			} else {
				require.ErrorIs(t, err, alloc.ErrOutOfMemory)
			}
		}
	}

	require.Equal(t, len(inserted), m.Len())
	for k, want := range inserted {
		got, ok := m.Get(k)
		require.True(t, ok, "key %d", k)
		assert.Equal(t, want, got)
	}
	seen := map[int]bool{}
	m.Range(func(k, _ int) bool {
		require.False(t, seen[k], "key %d iterated twice", k)
		seen[k] = true
		return true
	})
	assert.Equal(t, len(inserted), len(seen))
}

func TestTombstoneReuse(t *testing.T) {
	m := hmap.New[int, string](nil)
	for i := 0; i < 100; i++ {
		_, _, err := m.TryInsert(i, "v")
		require.NoError(t, err)
	}
	for i := 0; i < 100; i++ {
		_, ok := m.Remove(i)
		require.True(t, ok)
	}
	assert.Equal(t, 0, m.Len())

	for i := 0; i < 100; i++ {
		_, _, err := m.TryInsert(i, "w")
		require.NoError(t, err)
	}
	assert.Equal(t, 100, m.Len())
	got, ok := m.Get(42)
	require.True(t, ok)
	assert.Equal(t, "w", got)
}

func TestTryReserveAvoidsRehash(t *testing.T) {
	f := alloctest.New(nil)
	m := hmap.New[int, int](f)

	require.NoError(t, m.TryReserve(100))
	capBefore := m.Cap()
	attempts := f.AttemptCalls()

	for i := 0; i < 100; i++ {
		_, _, err := m.TryInsert(i, i)
		require.NoError(t, err)
	}
	assert.Equal(t, capBefore, m.Cap(), "reserved table must not rehash")
	assert.Equal(t, attempts, f.AttemptCalls(), "inserts after reserve must not allocate")
}

func TestXXStringHasher(t *testing.T) {
	m := hmap.NewWithHasher[string, int](nil, hmap.XXStringHasher{})
	for i := 0; i < 50; i++ {
		_, _, err := m.TryInsert(fmt.Sprintf("key-%d", i), i)
		require.NoError(t, err)
	}
	for i := 0; i < 50; i++ {
		got, ok := m.Get(fmt.Sprintf("key-%d", i))
		require.True(t, ok)
		assert.Equal(t, i, got)
	}
}

// Pointer-free keys and values work on a raw arena, with deterministic
// exhaustion.
func TestArenaBackedMap(t *testing.T) {
	a := alloc.NewArena(1 << 10)
	m := hmap.New[uint64, uint64](a)

	var inserted int
	for i := uint64(0); ; i++ {
		if _, _, err := m.TryInsert(i, i*i); err != nil {
			require.ErrorIs(t, err, alloc.ErrOutOfMemory)
			break
		}
		inserted++
	}
	require.Greater(t, inserted, 8)
	for i := uint64(0); i < uint64(inserted); i++ {
		got, ok := m.Get(i)
		require.True(t, ok, "key %d", i)
		assert.Equal(t, i*i, got)
	}
}

func TestClearAndFree(t *testing.T) {
	m := hmap.New[string, int](nil)
	_, _, err := m.TryInsert("a", 1)
	require.NoError(t, err)

	m.Clear()
	assert.Equal(t, 0, m.Len())
	assert.False(t, m.Contains("a"))

	_, _, err = m.TryInsert("b", 2)
	require.NoError(t, err)

	m.Free()
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0, m.Cap())

	_, _, err = m.TryInsert("c", 3)
	require.NoError(t, err)
	got, ok := m.Get("c")
	require.True(t, ok)
	assert.Equal(t, 3, got)
}

// Reserving after removals accounts for tombstoned slots, so the promised
// inserts cannot trigger a rehash.
func TestTryReserveCountsTombstones(t *testing.T) {
	f := alloctest.New(nil)
	m := hmap.New[int, int](f)

	for i := 0; i < 3; i++ {
		_, _, err := m.TryInsert(i, i)
		require.NoError(t, err)
	}
	for i := 0; i < 3; i++ {
		_, ok := m.Remove(i)
		require.True(t, ok)
	}
	require.Equal(t, 0, m.Len())

	require.NoError(t, m.TryReserve(3))

	f.FailNow()
	for i := 10; i < 13; i++ {
		_, _, err := m.TryInsert(i, i)
		require.NoError(t, err, "reserved insert must not allocate")
	}
	assert.Equal(t, 3, m.Len())
}

func TestTryClone(t *testing.T) {
	m := hmap.New[int, string](nil)
	for i := 0; i < 50; i++ {
		_, _, err := m.TryInsert(i, fmt.Sprintf("v%d", i))
		require.NoError(t, err)
	}

	c, err := m.TryClone()
	require.NoError(t, err)
	require.Equal(t, m.Len(), c.Len())
	for i := 0; i < 50; i++ {
		got, ok := c.Get(i)
		require.True(t, ok, "key %d", i)
		assert.Equal(t, fmt.Sprintf("v%d", i), got)
	}

	c.Remove(0)
	_, _, err = c.TryInsert(100, "new")
	require.NoError(t, err)
	assert.True(t, m.Contains(0), "clone mutation must not reach the original")
	assert.False(t, m.Contains(100))
	assert.Equal(t, 50, m.Len())
}

func TestTryCloneFailureLeavesOriginal(t *testing.T) {
	f := alloctest.New(nil)
	m := hmap.New[int, int](f)
	for i := 0; i < 10; i++ {
		_, _, err := m.TryInsert(i, i)
		require.NoError(t, err)
	}

	f.FailNow()
	c, err := m.TryClone()
	require.Error(t, err)
	assert.ErrorIs(t, err, alloc.ErrOutOfMemory)
	assert.Nil(t, c)
	assert.Equal(t, 10, m.Len())
	for i := 0; i < 10; i++ {
		got, ok := m.Get(i)
		require.True(t, ok)
		assert.Equal(t, i, got)
	}
}

func TestTryCloneEmptyDoesNotAllocate(t *testing.T) {
	f := alloctest.New(nil)
	m := hmap.New[int, int](f)

	f.FailNow()
	c, err := m.TryClone()
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

package hashmap

import (
	"testing"

	"github.com/fagongzi/memkit/freelist"
	"github.com/fagongzi/memkit/galloc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutAndGet(t *testing.T) {
	m := New[string, int](galloc.New())
	defer m.Release()

	m.Put("a", 1)
	m.Put("b", 2)

	v, ok := m.Get("a")
	require.True(t, ok, "TestPutAndGet failed")
	assert.Equal(t, 1, v, "TestPutAndGet failed")

	_, ok = m.Get("missing")
	assert.False(t, ok, "TestPutAndGet failed")
}

func TestPutUpdatesExistingKey(t *testing.T) {
	m := New[string, int](galloc.New())
	defer m.Release()

	m.Put("a", 1)
	m.Put("a", 2)

	v, ok := m.Get("a")
	require.True(t, ok, "TestPutUpdatesExistingKey failed")
	assert.Equal(t, 2, v, "TestPutUpdatesExistingKey failed")
	assert.Equal(t, 1, m.Count(), "TestPutUpdatesExistingKey failed")
}

func TestPutIfEmpty(t *testing.T) {
	m := New[string, int](galloc.New())
	defer m.Release()

	assert.True(t, m.PutIfEmpty("a", 1), "TestPutIfEmpty failed")
	assert.False(t, m.PutIfEmpty("a", 2), "TestPutIfEmpty failed")

	v, _ := m.Get("a")
	assert.Equal(t, 1, v, "TestPutIfEmpty failed")
}

func TestRemoveThenLookupPastRemovedSlot(t *testing.T) {
	// Regression for the tombstone/free-hash distinction: once key 1 is
	// removed, a lookup for key 2 — forced by a degenerate hash function
	// to share key 1's probe chain — must keep scanning past the removed
	// slot instead of stopping as if the chain ended there.
	m := New[int, int](galloc.New(), WithHashFn(func(int) uint64 { return 5 }))
	defer m.Release()

	m.Put(1, 100)
	m.Put(2, 200)

	require.True(t, m.Remove(1), "TestRemoveThenLookupPastRemovedSlot failed")

	v, ok := m.Get(2)
	require.True(t, ok, "TestRemoveThenLookupPastRemovedSlot failed")
	assert.Equal(t, 200, v, "TestRemoveThenLookupPastRemovedSlot failed")
}

func TestRemoveMissingKeyReportsFalse(t *testing.T) {
	m := New[string, int](galloc.New())
	defer m.Release()

	assert.False(t, m.Remove("missing"), "TestRemoveMissingKeyReportsFalse failed")
}

func TestClearEmptiesWithoutReleasing(t *testing.T) {
	m := New[string, int](galloc.New())
	defer m.Release()

	m.Put("a", 1)
	m.Put("b", 2)
	m.Clear()

	assert.Equal(t, 0, m.Count(), "TestClearEmptiesWithoutReleasing failed")
	_, ok := m.Get("a")
	assert.False(t, ok, "TestClearEmptiesWithoutReleasing failed")
}

func TestGrowsPastLoadFactorAndKeepsKeys(t *testing.T) {
	m := NewCapacity[int, int](8, galloc.New())
	defer m.Release()

	for i := 0; i < 500; i++ {
		m.Put(i, i*i)
	}
	for i := 0; i < 500; i++ {
		v, ok := m.Get(i)
		require.True(t, ok, "TestGrowsPastLoadFactorAndKeepsKeys failed")
		assert.Equal(t, i*i, v, "TestGrowsPastLoadFactorAndKeepsKeys failed")
	}
}

func TestNewCapacityRoundsUpToPowerOfTwo(t *testing.T) {
	m := NewCapacity[int, int](10, galloc.New())
	defer m.Release()
	assert.True(t, m.Capacity()&(m.Capacity()-1) == 0, "TestNewCapacityRoundsUpToPowerOfTwo failed")
	assert.GreaterOrEqual(t, m.Capacity(), 10, "TestNewCapacityRoundsUpToPowerOfTwo failed")
}

func TestStringKeysUseByteContentHash(t *testing.T) {
	m := New[string, int](galloc.New())
	defer m.Release()

	m.Put("hello", 1)
	v, ok := m.Get("hello")
	require.True(t, ok, "TestStringKeysUseByteContentHash failed")
	assert.Equal(t, 1, v, "TestStringKeysUseByteContentHash failed")
}

func TestFillMarksEveryBucketOccupied(t *testing.T) {
	m := NewCapacity[int, int](8, galloc.New())
	defer m.Release()

	m.Fill(9)
	assert.Equal(t, m.Capacity(), m.Count(), "TestFillMarksEveryBucketOccupied failed")
}

func TestWorksOverHandleModeAllocator(t *testing.T) {
	fl := freelist.New(freelist.DefaultCapacity, freelist.WithHandleMode(true))
	m := New[int, int](fl)
	defer m.Release()

	for i := 0; i < 50; i++ {
		m.Put(i, i+1000)
	}
	for i := 0; i < 50; i++ {
		v, ok := m.Get(i)
		require.True(t, ok, "TestWorksOverHandleModeAllocator failed")
		assert.Equal(t, i+1000, v, "TestWorksOverHandleModeAllocator failed")
	}
}

func TestReserveGrowsEmptyMap(t *testing.T) {
	m := New[string, int](galloc.New())
	defer m.Release()

	firstCapacity := m.Capacity()
	m.Reserve(firstCapacity * 4)
	assert.Greater(t, m.Capacity(), firstCapacity, "TestReserveGrowsEmptyMap failed")
}

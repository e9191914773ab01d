package linalloc

import (
	"testing"

	"github.com/fagongzi/memkit"
	"github.com/stretchr/testify/assert"
)

func TestAllocateBumpsOffset(t *testing.T) {
	a := NewCapacity(64)
	first := a.Allocate(8, 8)
	second := a.Allocate(8, 8)
	assert.Len(t, first, 8, "TestAllocateBumpsOffset failed")
	assert.Len(t, second, 8, "TestAllocateBumpsOffset failed")
}

func TestAllocateGrowsBackingBuffer(t *testing.T) {
	a := NewCapacity(8)
	buf := a.Allocate(64, 8)
	assert.Len(t, buf, 64, "TestAllocateGrowsBackingBuffer failed")
}

func TestFreeIsNoop(t *testing.T) {
	a := NewCapacity(64)
	buf := a.Allocate(8, 8)
	a.Free(buf)
	assert.Equal(t, 8, a.count, "TestFreeIsNoop failed")
}

func TestClearResetsOffset(t *testing.T) {
	a := NewCapacity(64)
	a.Allocate(16, 8)
	a.Clear()
	assert.Equal(t, 0, a.count, "TestClearResetsOffset failed")
}

func TestHandleRoundTrip(t *testing.T) {
	a := NewCapacity(64)
	h := a.AllocateHandle(8, 8)
	buf := a.HandleToPtr(h)
	assert.GreaterOrEqual(t, len(buf), 8, "TestHandleRoundTrip failed")

	back := a.PtrToHandle(buf)
	assert.Equal(t, h, back, "TestHandleRoundTrip failed")
}

func TestReallocateAlwaysRequestsMemcpy(t *testing.T) {
	a := NewCapacity(64)
	old := a.Allocate(8, 8)
	res := a.Reallocate(old, 16, 8)
	assert.True(t, res.MustMemcpy, "TestReallocateAlwaysRequestsMemcpy failed")
	assert.Len(t, res.Data, 16, "TestReallocateAlwaysRequestsMemcpy failed")
}

func TestUsingHandleIsTrue(t *testing.T) {
	a := New()
	assert.True(t, a.UsingHandle(), "TestUsingHandleIsTrue failed")
}

func TestImplementsAllocator(t *testing.T) {
	var a memkit.Allocator = NewCapacity(64)
	assert.NotNil(t, a, "TestImplementsAllocator failed")
}

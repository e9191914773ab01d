package stackalloc

import (
	"testing"

	"github.com/fagongzi/memkit"
	"github.com/stretchr/testify/assert"
)

func TestFreeOnlyPopsTopFrame(t *testing.T) {
	a := NewCapacity(128)
	first := a.Allocate(8, 8)
	second := a.Allocate(8, 8)
	countAfterTwo := a.count

	// first is no longer the top of the stack, so freeing it is a no-op.
	a.Free(first)
	assert.Equal(t, countAfterTwo, a.count, "TestFreeOnlyPopsTopFrame failed")

	a.Free(second)
	assert.Less(t, a.count, countAfterTwo, "TestFreeOnlyPopsTopFrame failed")
}

func TestReallocateGrowsTopFrameInPlace(t *testing.T) {
	a := NewCapacity(128)
	buf := a.Allocate(8, 8)
	copy(buf, []byte{1, 2, 3, 4, 5, 6, 7, 8})

	res := a.Reallocate(buf, 16, 8)
	assert.False(t, res.MustMemcpy, "TestReallocateGrowsTopFrameInPlace failed")
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, res.Data[:8], "TestReallocateGrowsTopFrameInPlace failed")
}

func TestReallocateGrowsTopFrameAcrossResize(t *testing.T) {
	a := NewCapacity(8)
	buf := a.Allocate(4, 8)
	copy(buf, []byte{1, 2, 3, 4})

	res := a.Reallocate(buf, 64, 8)
	assert.False(t, res.MustMemcpy, "TestReallocateGrowsTopFrameAcrossResize failed")
	assert.Len(t, res.Data, 64, "TestReallocateGrowsTopFrameAcrossResize failed")
	assert.Equal(t, []byte{1, 2, 3, 4}, res.Data[:4], "TestReallocateGrowsTopFrameAcrossResize failed")

	// the grown frame is still the top of the stack and still writable.
	copy(res.Data[4:], []byte{9, 9, 9, 9})
	assert.Equal(t, byte(9), res.Data[7], "TestReallocateGrowsTopFrameAcrossResize failed")
}

func TestReallocateNonTopBumpsFreshBlock(t *testing.T) {
	a := NewCapacity(128)
	first := a.Allocate(8, 8)
	a.Allocate(8, 8)

	res := a.Reallocate(first, 16, 8)
	assert.True(t, res.MustMemcpy, "TestReallocateNonTopBumpsFreshBlock failed")
	assert.Len(t, res.Data, 16, "TestReallocateNonTopBumpsFreshBlock failed")
}

func TestClearResetsStack(t *testing.T) {
	a := NewCapacity(128)
	a.Allocate(8, 8)
	a.Allocate(8, 8)
	a.Clear()
	assert.Equal(t, 0, a.count, "TestClearResetsStack failed")
	assert.Equal(t, 0, a.prevCount, "TestClearResetsStack failed")
}

func TestHandleRoundTrip(t *testing.T) {
	a := NewCapacity(128)
	h := a.AllocateHandle(8, 8)
	buf := a.HandleToPtr(h)
	assert.Equal(t, h, a.PtrToHandle(buf), "TestHandleRoundTrip failed")
}

func TestGrowsBackingBufferWhenFrameExceedsCapacity(t *testing.T) {
	a := NewCapacity(8)
	buf := a.Allocate(64, 8)
	assert.Len(t, buf, 64, "TestGrowsBackingBufferWhenFrameExceedsCapacity failed")
}

func TestStackLIFOScenario(t *testing.T) {
	a := NewCapacity(500)
	hA := a.AllocateHandle(200, 8)
	hB := a.AllocateHandle(200, 8)
	bufC := a.Allocate(300, 8) // cumulative demand exceeds the 500-byte capacity, forcing a resize

	// the resize moved the backing buffer, so A and B are re-resolved
	// from their handles rather than kept as pre-resize slices.
	bufA := a.HandleToPtr(hA)[:200]
	bufB := a.HandleToPtr(hB)[:200]

	assert.Len(t, bufA, 200, "TestStackLIFOScenario failed")
	assert.Len(t, bufB, 200, "TestStackLIFOScenario failed")
	assert.Len(t, bufC, 300, "TestStackLIFOScenario failed")

	a.Free(bufC)
	a.Free(bufB)
	a.Free(bufA)
	assert.Equal(t, 0, a.count, "TestStackLIFOScenario failed")
}

func TestLIFORoundTripRestoresState(t *testing.T) {
	a := NewCapacity(128)
	countBefore := a.count
	prevCountBefore := a.prevCount

	bufs := make([][]byte, 0, 4)
	for i := 0; i < 4; i++ {
		bufs = append(bufs, a.Allocate(8, 8))
	}

	for i := len(bufs) - 1; i >= 0; i-- {
		a.Free(bufs[i])
	}

	assert.Equal(t, countBefore, a.count, "TestLIFORoundTripRestoresState failed")
	assert.Equal(t, prevCountBefore, a.prevCount, "TestLIFORoundTripRestoresState failed")
}

func TestImplementsAllocator(t *testing.T) {
	var a memkit.Allocator = NewCapacity(128)
	assert.NotNil(t, a, "TestImplementsAllocator failed")
}

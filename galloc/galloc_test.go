package galloc

import (
	"testing"

	"github.com/fagongzi/memkit"
	"github.com/stretchr/testify/assert"
)

func TestAllocateReturnsZeroedSlice(t *testing.T) {
	a := New()
	buf := a.Allocate(16, 8)
	assert.Len(t, buf, 16, "TestAllocateReturnsZeroedSlice failed")
	for _, b := range buf {
		assert.Equal(t, byte(0), b, "TestAllocateReturnsZeroedSlice failed")
	}
}

func TestReallocateGrowsAndCopies(t *testing.T) {
	a := New()
	buf := a.Allocate(4, 8)
	copy(buf, []byte{1, 2, 3, 4})

	res := a.Reallocate(buf, 8, 8)
	assert.False(t, res.MustMemcpy, "TestReallocateGrowsAndCopies failed")
	assert.Equal(t, []byte{1, 2, 3, 4}, res.Data[:4], "TestReallocateGrowsAndCopies failed")
}

func TestFreeAndClearAreNoops(t *testing.T) {
	a := New()
	buf := a.Allocate(8, 8)
	a.Free(buf)
	a.Clear()
	assert.Equal(t, 8, len(buf), "TestFreeAndClearAreNoops failed")
}

func TestForbidsHandleMode(t *testing.T) {
	a := New()
	assert.False(t, a.UsingHandle(), "TestForbidsHandleMode failed")
}

func TestDefaultIsSingleton(t *testing.T) {
	first := Default()
	second := Default()
	assert.Same(t, first, second, "TestDefaultIsSingleton failed")
}

func TestImplementsAllocator(t *testing.T) {
	var a memkit.Allocator = New()
	assert.NotNil(t, a, "TestImplementsAllocator failed")
}

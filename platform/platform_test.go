package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemAllocZeroesAndSizes(t *testing.T) {
	buf := MemAlloc(32)
	assert.Len(t, buf, 32, "TestMemAllocZeroesAndSizes failed")
	for _, b := range buf {
		assert.Equal(t, byte(0), b, "TestMemAllocZeroesAndSizes failed")
	}
}

func TestMemReallocPreservesPrefix(t *testing.T) {
	buf := MemAlloc(4)
	copy(buf, []byte{1, 2, 3, 4})

	grown := MemRealloc(buf, 8)
	assert.Len(t, grown, 8, "TestMemReallocPreservesPrefix failed")
	assert.Equal(t, []byte{1, 2, 3, 4}, grown[:4], "TestMemReallocPreservesPrefix failed")
}

func TestPageSizeIsPositive(t *testing.T) {
	assert.Greater(t, PageSize(), 0, "TestPageSizeIsPositive failed")
}

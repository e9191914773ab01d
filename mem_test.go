package memkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddrOfHandlesEmptySlice(t *testing.T) {
	var empty []byte
	assert.NotPanics(t, func() { AddrOf(empty) }, "TestAddrOfHandlesEmptySlice failed")
}

func TestAddrOfNonEmptySlice(t *testing.T) {
	buf := make([]byte, 8)
	assert.NotZero(t, AddrOf(buf), "TestAddrOfNonEmptySlice failed")
}

func TestInRange(t *testing.T) {
	base := AddrOf(make([]byte, 16))
	assert.True(t, InRange(base, 16, base), "TestInRange failed")
	assert.True(t, InRange(base, 16, base+15), "TestInRange failed")
	assert.False(t, InRange(base, 16, base+16), "TestInRange failed")
}

func TestCopyBytesReportsShorterLength(t *testing.T) {
	dst := make([]byte, 4)
	src := []byte("hello world")
	n := CopyBytes(dst, src)
	assert.Equal(t, 4, n, "TestCopyBytesReportsShorterLength failed")
	assert.Equal(t, []byte("hell"), dst, "TestCopyBytesReportsShorterLength failed")
}

func TestCompareBytes(t *testing.T) {
	assert.True(t, CompareBytes([]byte("abc"), []byte("abc")), "TestCompareBytes failed")
	assert.False(t, CompareBytes([]byte("abc"), []byte("abd")), "TestCompareBytes failed")
}

func TestRawBytesOf(t *testing.T) {
	v := int64(0x0102030405060708)
	raw := RawBytesOf(&v)
	assert.Len(t, raw, 8, "TestRawBytesOf failed")
}

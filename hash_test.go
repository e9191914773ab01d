package memkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashBytesIsDeterministic(t *testing.T) {
	a := HashBytes([]byte("memkit"))
	b := HashBytes([]byte("memkit"))
	assert.Equal(t, a, b, "TestHashBytesIsDeterministic failed")
}

func TestHashBytesDiffersOnDifferentInput(t *testing.T) {
	a := HashBytes([]byte("memkit"))
	b := HashBytes([]byte("memkit2"))
	assert.NotEqual(t, a, b, "TestHashBytesDiffersOnDifferentInput failed")
}

func TestHashBytesOfEmptyIsOffsetBasis(t *testing.T) {
	assert.Equal(t, fnv1aOffsetBasis, HashBytes(nil), "TestHashBytesOfEmptyIsOffsetBasis failed")
}

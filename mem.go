package memkit

import (
	"bytes"
	"unsafe"
)

// CopyBytes copies min(len(dst), len(src)) bytes from src to dst and
// reports how many bytes were copied. It is a thin wrapper around the
// builtin copy, named to match the allocator family's memory-primitive
// vocabulary (component A).
func CopyBytes(dst, src []byte) int {
	return copy(dst, src)
}

// ZeroBytes fills buf with zero bytes.
func ZeroBytes(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}

// CompareBytes reports whether first and second hold identical bytes.
func CompareBytes(first, second []byte) bool {
	return bytes.Equal(first, second)
}

// AddrOf returns the address of buf's underlying data, including for a
// zero-length slice produced by a zero-size allocation — unsafe.SliceData
// reports the backing pointer regardless of length, unlike &buf[0].
func AddrOf(buf []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
}

// InRange reports whether addr lies within [base, base+size).
func InRange(base uintptr, size int, addr uintptr) bool {
	return addr >= base && addr < base+uintptr(size)
}

// RawBytesOf reinterprets the in-memory representation of v as a byte
// slice, for hashing arbitrary fixed-size, pointer-free values. Grounded
// on original_source/include/hashmap.hpp's hashfn_default<K>, which
// memcpy's sizeof(K) bytes of the key before hashing them; and on
// github.com/fagongzi/util/hack's zero-copy string/[]byte conversions,
// which the teacher imports for the same kind of reinterpretation.
func RawBytesOf[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}

package memkit

import "unsafe"

// WordSize is the natural machine word size in bytes. Every allocator
// rounds a requested alignment up to at least this, per spec §4.1.
const WordSize = int(unsafe.Sizeof(uintptr(0)))

// IsPowerOfTwo reports whether n is a power of two. Zero is not.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// NextPowerOfTwo returns the smallest power of two >= n (n > 0).
func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// NormalizeAlignment rounds align up to WordSize when it is smaller,
// matching every allocator's "alignment is rounded up to the word size if
// smaller" rule from spec §4.1.
func NormalizeAlignment(align int) int {
	if align < WordSize {
		return WordSize
	}
	return align
}

// Padding returns the smallest non-negative offset such that addr+offset
// is aligned to align (a power of two).
func Padding(addr uintptr, align int) int {
	a := uintptr(align)
	modulo := addr & (a - 1)
	if modulo == 0 {
		return 0
	}
	return int(a - modulo)
}

// PaddingWithHeader returns the padding needed so that addr+offset is
// aligned to align *and* the padding is large enough to hold a header of
// headerSize bytes immediately before the returned user address. Ported
// from original_source/src/memory_sf.cpp's calc_padding_with_header.
func PaddingWithHeader(addr uintptr, align, headerSize int) int {
	a := uintptr(align)
	modulo := addr & (a - 1)

	padding := uintptr(0)
	if modulo != 0 {
		padding = a - modulo
	}

	h := uintptr(headerSize)
	if padding < h {
		h -= padding
		if h&(a-1) != 0 {
			padding += a * (1 + h/a)
		} else {
			padding += a * (h / a)
		}
	}

	return int(padding)
}

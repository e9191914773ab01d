// Package linalloc is the linear (bump) allocator: a single
// monotonically-growing offset into a backing buffer. Individual
// allocations are never freed; the whole arena resets at once via Clear.
// Unlike galloc and arena, it supports handle mode.
package linalloc

import (
	"github.com/fagongzi/memkit"
	"github.com/fagongzi/memkit/platform"
)

// DefaultInitCapacity is used when growth starts from an empty buffer,
// ported from original_source/include/linear_allocator.hpp's
// DEFAULT_INIT_CAPACITY.
const DefaultInitCapacity = 1024

// Allocator is the linear/bump allocator.
type Allocator struct {
	buffer []byte
	count  int
}

var _ memkit.Allocator = (*Allocator)(nil)

// New returns a linear allocator sized at ten OS pages, the same default
// original_source/src/linear_allocator.cpp's no-arg constructor uses
// (get_mem_page_size() * 10).
func New() *Allocator {
	return NewCapacity(platform.PageSize() * 10)
}

// NewCapacity returns a linear allocator with an explicit starting
// capacity.
func NewCapacity(capacity int) *Allocator {
	return &Allocator{buffer: platform.MemAlloc(capacity)}
}

func (a *Allocator) paddingAt(offset, align int) int {
	if len(a.buffer) == 0 {
		return 0
	}
	return memkit.Padding(memkit.AddrOf(a.buffer)+uintptr(offset), align)
}

// allocate is the shared core of Allocate and AllocateHandle. It mirrors
// the original's quirk of computing padding against the buffer address
// *before* any growth and reusing it after a resize moves the buffer,
// rather than recomputing against the new address.
func (a *Allocator) allocate(size, align int) (start int, buf []byte) {
	align = memkit.NormalizeAlignment(align)
	padding := a.paddingAt(a.count, align)
	need := a.count + padding + size

	if need > len(a.buffer) {
		newCap := len(a.buffer)
		if newCap == 0 {
			newCap = DefaultInitCapacity
		}
		for need > newCap {
			newCap *= 2
		}
		a.resize(newCap)
	}

	start = a.count + padding
	end := start + size
	a.count = end
	return start, a.buffer[start:end]
}

func (a *Allocator) resize(newCapacity int) {
	a.buffer = platform.MemRealloc(a.buffer, newCapacity)
}

// Allocate bumps the offset forward by size (plus alignment padding),
// growing the backing buffer if needed.
func (a *Allocator) Allocate(size, align int) []byte {
	_, buf := a.allocate(size, align)
	return buf
}

// AllocateHandle is Allocate's handle-mode counterpart.
func (a *Allocator) AllocateHandle(size, align int) memkit.Handle {
	start, _ := a.allocate(size, align)
	return memkit.Handle(start)
}

func (a *Allocator) owns(buf []byte) bool {
	if buf == nil || len(a.buffer) == 0 {
		return false
	}
	return memkit.InRange(memkit.AddrOf(a.buffer), len(a.buffer), memkit.AddrOf(buf))
}

// Reallocate always bumps a fresh allocation rather than growing old in
// place — a linear allocator never knows an allocation's size after the
// fact — so MustMemcpy is always true: the caller must copy old's
// contents into the returned Data itself.
func (a *Allocator) Reallocate(old []byte, newSize, align int) memkit.Realloc {
	if old == nil {
		return memkit.Realloc{Data: a.Allocate(newSize, align), MustMemcpy: true}
	}
	if !a.owns(old) {
		return memkit.Realloc{Data: nil, MustMemcpy: true}
	}
	return memkit.Realloc{Data: a.Allocate(newSize, align), MustMemcpy: true}
}

func (a *Allocator) ownsHandle(h memkit.Handle) bool {
	return h != memkit.InvalidHandle && int(h) < a.count
}

// ReallocateHandle is Reallocate's handle-mode counterpart.
func (a *Allocator) ReallocateHandle(h memkit.Handle, newSize, align int) memkit.ReallocHandle {
	if h == memkit.InvalidHandle {
		return memkit.ReallocHandle{Handle: a.AllocateHandle(newSize, align), MustMemcpy: true}
	}
	if !a.ownsHandle(h) {
		return memkit.ReallocHandle{Handle: memkit.InvalidHandle, MustMemcpy: true}
	}
	return memkit.ReallocHandle{Handle: a.AllocateHandle(newSize, align), MustMemcpy: true}
}

// HandleToPtr returns the window from h to the current bump offset (the
// end of live storage). As in the original's raw-pointer return, it carries no length
// of its own — callers slice it down to the size they originally
// requested.
func (a *Allocator) HandleToPtr(h memkit.Handle) []byte {
	if !a.ownsHandle(h) {
		return nil
	}
	return a.buffer[h:a.count]
}

// PtrToHandle is the inverse of HandleToPtr.
func (a *Allocator) PtrToHandle(buf []byte) memkit.Handle {
	if !a.owns(buf) {
		return memkit.InvalidHandle
	}
	return memkit.Handle(memkit.AddrOf(buf) - memkit.AddrOf(a.buffer))
}

// Free is a no-op: a linear allocator never reclaims individual
// allocations, only the whole arena at once via Clear.
func (a *Allocator) Free(buf []byte) {}

// FreeHandle is a no-op for the same reason Free is.
func (a *Allocator) FreeHandle(h memkit.Handle) {}

// Clear resets the bump offset to zero without releasing the backing
// buffer.
func (a *Allocator) Clear() {
	a.count = 0
}

// UsingHandle reports true: linalloc is one of the allocators (with
// stackalloc, and freelist when configured for it) that support handle
// mode.
func (a *Allocator) UsingHandle() bool {
	return true
}

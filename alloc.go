package memkit

import "github.com/fagongzi/memkit/assert"

// Allocator is the contract shared by every allocator in this module:
// galloc, linalloc, stackalloc, freelist and arena all implement it in
// full, including the handle methods on allocators that forbid handle
// mode — those implement them as programmer-error stubs via
// NoHandleSupport rather than omitting them, so callers can always hold
// a plain Allocator without a type switch.
type Allocator interface {
	// Allocate returns a slice of size bytes whose address is aligned to
	// align. align is rounded up to WordSize if smaller.
	Allocate(size, align int) []byte

	// AllocateHandle is the handle-mode counterpart of Allocate.
	AllocateHandle(size, align int) Handle

	// Reallocate resizes the allocation backing old to newSize, aligned
	// to align. MustMemcpy reports whether the caller must itself copy
	// old's bytes into the returned Data (true when the allocator moved
	// the allocation without preserving contents, such as linalloc's
	// bump-and-abandon strategy).
	Reallocate(old []byte, newSize, align int) Realloc

	// ReallocateHandle is the handle-mode counterpart of Reallocate.
	ReallocateHandle(h Handle, newSize, align int) ReallocHandle

	// HandleToPtr resolves a handle to its current backing slice.
	HandleToPtr(h Handle) []byte

	// PtrToHandle resolves a slice, previously returned by this
	// allocator, back to its handle.
	PtrToHandle(buf []byte) Handle

	// Free releases an allocation made by Allocate.
	Free(buf []byte)

	// FreeHandle releases an allocation made by AllocateHandle.
	FreeHandle(h Handle)

	// Clear releases every outstanding allocation at once and resets the
	// allocator to its initial state.
	Clear()

	// UsingHandle reports whether this allocator supports handle mode.
	UsingHandle() bool
}

// Realloc is the result of Allocator.Reallocate.
type Realloc struct {
	Data       []byte
	MustMemcpy bool
}

// ReallocHandle is the result of Allocator.ReallocateHandle.
type ReallocHandle struct {
	Handle     Handle
	MustMemcpy bool
}

// NoHandleSupport is embedded by allocators that forbid handle mode
// (galloc, arena). It implements the handle side of Allocator as
// programmer-error stubs: in debug builds (assert.Enabled) they trap via
// assert.Assertf's panic, in release builds they quietly return the sentinel
// values. Mirrors the original allocator family's header-declared but
// concretely-unconditionally-asserting handle methods on types that were
// never meant to support handles.
type NoHandleSupport struct{}

func (NoHandleSupport) AllocateHandle(size, align int) Handle {
	assertNoHandles("AllocateHandle")
	return InvalidHandle
}

func (NoHandleSupport) ReallocateHandle(h Handle, newSize, align int) ReallocHandle {
	assertNoHandles("ReallocateHandle")
	return ReallocHandle{Handle: InvalidHandle}
}

func (NoHandleSupport) HandleToPtr(h Handle) []byte {
	assertNoHandles("HandleToPtr")
	return nil
}

func (NoHandleSupport) PtrToHandle(buf []byte) Handle {
	assertNoHandles("PtrToHandle")
	return InvalidHandle
}

func (NoHandleSupport) FreeHandle(h Handle) {
	assertNoHandles("FreeHandle")
}

func (NoHandleSupport) UsingHandle() bool {
	return false
}

// assertNoHandles traps in debug builds and is a no-op in release,
// mirroring the original allocator family's SF_ASSERT_MSG(false, ...)
// on the handle methods of allocators that were never meant to support
// them.
func assertNoHandles(method string) {
	assert.Assertf(false, "memkit: %s called on an allocator that forbids handle mode", method)
}

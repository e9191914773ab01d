// Package galloc is the general-purpose allocator: a thin, bookkeeping-free
// wrapper over the Go heap. It forbids handle mode — a heap-backed
// allocation has no stable offset to hand out as a Handle — and serves as
// memkit's process-wide default allocator.
package galloc

import (
	"sync"

	"github.com/fagongzi/memkit"
	"github.com/fagongzi/memkit/assert"
)

// Allocator is the general-purpose allocator. Its zero value is ready to
// use; New exists for symmetry with the other allocator packages.
type Allocator struct {
	memkit.NoHandleSupport
}

var _ memkit.Allocator = (*Allocator)(nil)

// New returns a ready-to-use general-purpose allocator.
func New() *Allocator {
	return &Allocator{}
}

// Allocate returns size bytes aligned to align, backed directly by the Go
// heap. Grounded on original_source/src/memory_sf.cpp's sf_mem_alloc,
// which forwards straight to operator new with no bookkeeping of its own.
func (a *Allocator) Allocate(size, align int) []byte {
	align = memkit.NormalizeAlignment(align)
	buf := make([]byte, size+align)
	p := memkit.Padding(memkit.AddrOf(buf), align)
	return buf[p : p+size : p+size]
}

// Reallocate grows or shrinks old, copying its contents itself — Go has
// no in-place heap realloc, so MustMemcpy is always false.
func (a *Allocator) Reallocate(old []byte, newSize, align int) memkit.Realloc {
	next := a.Allocate(newSize, align)
	copy(next, old)
	return memkit.Realloc{Data: next, MustMemcpy: false}
}

// Free is a no-op: the general-purpose allocator keeps no bookkeeping of
// outstanding allocations, mirroring the original's GeneralPurposeAllocator
// whose free() forwards straight to operator delete with nothing to track.
func (a *Allocator) Free(buf []byte) {}

// Clear is a no-op for the same reason Free is: there is nothing to track.
func (a *Allocator) Clear() {}

var (
	defaultOnce sync.Once
	defaultInst *Allocator
)

// Default returns the process-wide general-purpose allocator, created
// lazily on first use. Mirrors the teacher's pool.go defaultPool
// singleton; it lives here rather than in the memkit root package because
// every allocator package already must import memkit for the Allocator
// contract — a root-level singleton would need to import galloc back,
// an import cycle the split avoids.
func Default() *Allocator {
	defaultOnce.Do(func() {
		defaultInst = New()
		assert.Assertf(defaultInst != nil, "galloc: default allocator construction failed")
	})
	return defaultInst
}

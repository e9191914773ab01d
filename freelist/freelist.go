// Package freelist is the first-fit free-list allocator: a sorted
// singly-linked list of free runs threaded directly through the backing
// buffer. Allocation headers record each block's size and padding so
// Free can locate, and Reallocate relocates via copy-then-free.
package freelist

import (
	"encoding/binary"

	"github.com/fagongzi/memkit"
	"github.com/fagongzi/memkit/platform"
)

// DefaultCapacity mirrors the original's FreeList::DEFAULT_CAPACITY.
const DefaultCapacity = 1024

const (
	// nodeHeaderSize is a free node's (next, size) pair threaded into
	// the free space itself.
	nodeHeaderSize = 16
	// allocHeaderSize is the (size, padding) pair stored immediately
	// before every live allocation's data.
	allocHeaderSize = 16
	// MinAllocSize is the smallest request size, large enough that a
	// freed block can always hold a free node. Mirrors
	// FreeList::MIN_ALLOC_SIZE = sizeof(FreeListNode).
	MinAllocSize = nodeHeaderSize
)

// noOffset is the free-list's null pointer: an offset value no real
// allocation can occupy.
const noOffset = ^uint64(0)

// Allocator is the free-list allocator.
type Allocator struct {
	buffer     []byte
	head       uint64
	resizable  bool
	handleMode bool
}

var _ memkit.Allocator = (*Allocator)(nil)

// Option configures a free-list allocator at construction.
type Option func(*Allocator)

// WithHandleMode toggles handle-mode support. Off by default.
func WithHandleMode(enabled bool) Option {
	return func(a *Allocator) { a.handleMode = enabled }
}

// WithResizable toggles whether the allocator doubles its backing
// buffer on exhaustion (the default) or returns failure instead.
func WithResizable(enabled bool) Option {
	return func(a *Allocator) { a.resizable = enabled }
}

// New returns a free-list allocator with the given starting capacity,
// raised to DefaultCapacity if smaller.
func New(capacity int, opts ...Option) *Allocator {
	if capacity < DefaultCapacity {
		capacity = DefaultCapacity
	}
	a := &Allocator{buffer: platform.MemAlloc(capacity), resizable: true}
	for _, opt := range opts {
		opt(a)
	}
	a.Clear()
	return a
}

func (a *Allocator) nodeNext(off uint64) uint64 {
	return binary.BigEndian.Uint64(a.buffer[off : off+8])
}

func (a *Allocator) setNodeNext(off, next uint64) {
	binary.BigEndian.PutUint64(a.buffer[off:off+8], next)
}

func (a *Allocator) nodeSize(off uint64) uint64 {
	return binary.BigEndian.Uint64(a.buffer[off+8 : off+16])
}

func (a *Allocator) setNodeSize(off, size uint64) {
	binary.BigEndian.PutUint64(a.buffer[off+8:off+16], size)
}

func (a *Allocator) setAllocHeader(off, size, padding uint64) {
	binary.BigEndian.PutUint64(a.buffer[off:off+8], size)
	binary.BigEndian.PutUint64(a.buffer[off+8:off+16], padding)
}

func (a *Allocator) allocHeader(off uint64) (size, padding uint64) {
	return binary.BigEndian.Uint64(a.buffer[off : off+8]), binary.BigEndian.Uint64(a.buffer[off+8 : off+16])
}

func (a *Allocator) paddingWithHeaderAt(offset uint64, align int) uint64 {
	return uint64(memkit.PaddingWithHeader(memkit.AddrOf(a.buffer)+uintptr(offset), align, allocHeaderSize))
}

// allocate is the shared core of Allocate and AllocateHandle.
func (a *Allocator) allocate(size, align int) (offset uint64, buf []byte, ok bool) {
	if size < MinAllocSize {
		size = MinAllocSize
	}
	align = memkit.NormalizeAlignment(align)

	var curr, prev = a.head, noOffset
	var padding, required uint64
	found := false
	for curr != noOffset {
		padding = a.paddingWithHeaderAt(curr, align)
		required = uint64(size) + padding
		if a.nodeSize(curr) >= required {
			found = true
			break
		}
		prev = curr
		curr = a.nodeNext(curr)
	}

	if !found {
		if !a.resizable {
			return 0, nil, false
		}
		a.resize(len(a.buffer) * 2)
		return a.allocate(size, align)
	}

	paddingToHeader := padding - allocHeaderSize
	remain := a.nodeSize(curr) - required
	if remain > MinAllocSize+nodeHeaderSize {
		newNode := curr + required
		a.setNodeSize(newNode, remain)
		a.insertNode(curr, newNode)
	}
	a.removeNode(prev, curr)

	headerOffset := curr + paddingToHeader
	a.setAllocHeader(headerOffset, uint64(size), padding)

	dataOffset := headerOffset + allocHeaderSize
	return dataOffset, a.buffer[dataOffset : dataOffset+uint64(size)], true
}

func (a *Allocator) resize(newCapacity int) {
	oldCapacity := len(a.buffer)
	a.buffer = platform.MemRealloc(a.buffer, newCapacity)

	appended := uint64(oldCapacity)
	a.setNodeSize(appended, uint64(newCapacity-oldCapacity))
	a.setNodeNext(appended, noOffset)

	var lastNode, prev uint64 = noOffset, noOffset
	curr := a.head
	for curr != noOffset {
		if a.nodeNext(curr) == noOffset {
			lastNode = curr
			break
		}
		prev = curr
		curr = a.nodeNext(curr)
	}

	a.insertNode(lastNode, appended)
	a.coalesce(prev, lastNode)
}

func (a *Allocator) insertNode(prev, node uint64) {
	if prev != noOffset {
		a.setNodeNext(node, a.nodeNext(prev))
		a.setNodeNext(prev, node)
		return
	}
	a.setNodeNext(node, a.head)
	a.head = node
}

func (a *Allocator) removeNode(prev, node uint64) {
	if prev != noOffset {
		a.setNodeNext(prev, a.nodeNext(node))
		return
	}
	a.head = a.nodeNext(node)
}

func (a *Allocator) coalesce(prev, freeNode uint64) {
	if freeNode != noOffset {
		next := a.nodeNext(freeNode)
		if next != noOffset && freeNode+a.nodeSize(freeNode) == next {
			a.setNodeSize(freeNode, a.nodeSize(freeNode)+a.nodeSize(next))
			a.removeNode(freeNode, next)
		}
	}
	if prev != noOffset && freeNode != noOffset && prev+a.nodeSize(prev) == freeNode {
		a.setNodeSize(prev, a.nodeSize(prev)+a.nodeSize(freeNode))
		a.removeNode(prev, freeNode)
	}
}

func (a *Allocator) owns(buf []byte) bool {
	if buf == nil || len(a.buffer) == 0 {
		return false
	}
	return memkit.InRange(memkit.AddrOf(a.buffer), len(a.buffer), memkit.AddrOf(buf))
}

func (a *Allocator) offsetOf(buf []byte) uint64 {
	return uint64(memkit.AddrOf(buf) - memkit.AddrOf(a.buffer))
}

// Allocate finds the first free run large enough for size (doubling the
// backing buffer if none fits and the allocator is resizable), splits
// off any leftover remainder back into the free list, and returns the
// requested slice.
func (a *Allocator) Allocate(size, align int) []byte {
	_, buf, _ := a.allocate(size, align)
	return buf
}

// AllocateHandle is Allocate's handle-mode counterpart.
func (a *Allocator) AllocateHandle(size, align int) memkit.Handle {
	offset, _, ok := a.allocate(size, align)
	if !ok {
		return memkit.InvalidHandle
	}
	return memkit.Handle(offset)
}

// Free returns buf's block to the free list in sorted-offset order and
// coalesces it with any now-adjacent free neighbors.
//
// The original implementation only calls insert_node when it finds an
// existing node positioned after the freed block; a block freed at or
// past every existing free run — the common case once the list has
// been whittled down — is silently dropped instead of being reinserted.
// This port always inserts at the position the traversal settles on,
// closing that leak.
func (a *Allocator) Free(buf []byte) {
	if !a.owns(buf) {
		return
	}
	blockOffset := a.offsetOf(buf)
	headerOffset := blockOffset - allocHeaderSize
	size, padding := a.allocHeader(headerOffset)
	freeNode := blockOffset - padding

	a.setNodeSize(freeNode, padding+size)
	a.setNodeNext(freeNode, noOffset)

	curr, prev := a.head, noOffset
	for curr != noOffset && curr <= freeNode {
		prev = curr
		curr = a.nodeNext(curr)
	}
	a.insertNode(prev, freeNode)
	a.coalesce(prev, freeNode)
}

// FreeHandle is Free's handle-mode counterpart.
func (a *Allocator) FreeHandle(h memkit.Handle) {
	a.Free(a.HandleToPtr(h))
}

// Reallocate allocates a fresh block of newSize, copies min(len(old),
// newSize) bytes into it, and frees old. A nil old is a plain
// allocation.
func (a *Allocator) Reallocate(old []byte, newSize, align int) memkit.Realloc {
	if old == nil {
		_, buf, _ := a.allocate(newSize, align)
		return memkit.Realloc{Data: buf, MustMemcpy: false}
	}
	if !a.owns(old) {
		return memkit.Realloc{Data: nil, MustMemcpy: false}
	}
	oldOffset := a.offsetOf(old)
	_, newBuf, ok := a.allocate(newSize, align)
	if !ok {
		return memkit.Realloc{Data: nil, MustMemcpy: false}
	}
	copy(newBuf, old)
	// allocate may have moved the backing buffer, so old is freed by its
	// offset into the current buffer rather than through the stale slice.
	a.Free(a.buffer[oldOffset : oldOffset+uint64(len(old))])
	return memkit.Realloc{Data: newBuf, MustMemcpy: false}
}

// ReallocateHandle is Reallocate's handle-mode counterpart.
func (a *Allocator) ReallocateHandle(h memkit.Handle, newSize, align int) memkit.ReallocHandle {
	res := a.Reallocate(a.HandleToPtr(h), newSize, align)
	if res.Data == nil {
		return memkit.ReallocHandle{Handle: memkit.InvalidHandle, MustMemcpy: res.MustMemcpy}
	}
	return memkit.ReallocHandle{Handle: memkit.Handle(a.offsetOf(res.Data)), MustMemcpy: res.MustMemcpy}
}

func (a *Allocator) ownsOffset(offset uint64) bool {
	return offset >= allocHeaderSize && offset <= uint64(len(a.buffer))
}

// HandleToPtr resolves h to its exact live allocation, using the
// allocation header's recorded size — unlike linalloc/stackalloc, an
// allocation's size is always known here, so there is no need to hand
// back a window the caller must reslice themselves. It returns nil when
// the recorded size does not fit inside the buffer.
func (a *Allocator) HandleToPtr(h memkit.Handle) []byte {
	offset := uint64(h)
	if h == memkit.InvalidHandle || !a.ownsOffset(offset) {
		return nil
	}
	size, _ := a.allocHeader(offset - allocHeaderSize)
	if size > uint64(len(a.buffer)) || offset+size > uint64(len(a.buffer)) {
		return nil
	}
	return a.buffer[offset : offset+size]
}

// PtrToHandle is the inverse of HandleToPtr.
func (a *Allocator) PtrToHandle(buf []byte) memkit.Handle {
	if !a.owns(buf) {
		return memkit.InvalidHandle
	}
	return memkit.Handle(a.offsetOf(buf))
}

// Clear drops every outstanding allocation at once, resetting the
// backing buffer to a single free run.
func (a *Allocator) Clear() {
	a.setNodeSize(0, uint64(len(a.buffer)))
	a.setNodeNext(0, noOffset)
	a.head = 0
}

// UsingHandle reports whether this allocator was configured with
// WithHandleMode(true).
func (a *Allocator) UsingHandle() bool {
	return a.handleMode
}

// RemainingSpace sums every free run still on the list. Supplements the
// distilled spec's allocator API with original_source's
// FreeList::get_remain_space, useful for capacity-pressure diagnostics.
func (a *Allocator) RemainingSpace() int {
	total := uint64(0)
	for curr := a.head; curr != noOffset; curr = a.nodeNext(curr) {
		total += a.nodeSize(curr)
	}
	return int(total)
}

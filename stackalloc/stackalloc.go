// Package stackalloc is the stack allocator: LIFO allocation discipline
// over a single backing buffer. Only the most recent still-live
// allocation can be freed, grown or shrunk in place; anything else is
// left in place (reallocate falls back to bumping a fresh block and
// telling the caller to copy).
package stackalloc

import (
	"encoding/binary"

	"github.com/fagongzi/memkit"
	"github.com/fagongzi/memkit/platform"
)

// DefaultInitCapacity mirrors the original's StackAllocator::DEFAULT_INIT_CAPACITY.
const DefaultInitCapacity = 1024

// headerSize is the packed size of the two uint16 fields (diff, padding)
// the original stores as StackAllocatorHeader immediately before every
// allocation's data.
const headerSize = 4

// Allocator is the stack allocator.
type Allocator struct {
	buffer    []byte
	count     int
	prevCount int
}

var _ memkit.Allocator = (*Allocator)(nil)

// New returns a stack allocator with the default starting capacity.
func New() *Allocator {
	return NewCapacity(DefaultInitCapacity)
}

// NewCapacity returns a stack allocator with an explicit starting
// capacity.
func NewCapacity(capacity int) *Allocator {
	return &Allocator{buffer: platform.MemAlloc(capacity)}
}

func writeHeader(buf []byte, diff, padding int) {
	binary.BigEndian.PutUint16(buf[0:2], uint16(diff))
	binary.BigEndian.PutUint16(buf[2:4], uint16(padding))
}

func readHeader(buf []byte) (diff, padding int) {
	return int(binary.BigEndian.Uint16(buf[0:2])), int(binary.BigEndian.Uint16(buf[2:4]))
}

func (a *Allocator) paddingWithHeaderAt(offset, align int) int {
	if len(a.buffer) == 0 {
		return headerSize
	}
	return memkit.PaddingWithHeader(memkit.AddrOf(a.buffer)+uintptr(offset), align, headerSize)
}

// allocate is the shared core of Allocate and AllocateHandle.
func (a *Allocator) allocate(size, align int) (start int, buf []byte) {
	align = memkit.NormalizeAlignment(align)
	padding := a.paddingWithHeaderAt(a.count, align)
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

	headerStart := a.count + padding - headerSize
	writeHeader(a.buffer[headerStart:headerStart+headerSize], a.count-a.prevCount, padding)

	start = a.count + padding
	end := start + size
	a.prevCount = a.count
	a.count = end
	return start, a.buffer[start:end]
}

func (a *Allocator) resize(newCapacity int) {
	a.buffer = platform.MemRealloc(a.buffer, newCapacity)
}

// Allocate pushes a new frame onto the stack.
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

func (a *Allocator) offsetOf(buf []byte) int {
	return int(memkit.AddrOf(buf) - memkit.AddrOf(a.buffer))
}

// topFramePrevOffset reads the header immediately preceding buf and
// returns the stack offset that was current just before buf's
// allocation — the value to compare against prevCount to decide whether
// buf is still the top of the stack.
func (a *Allocator) topFramePrevOffset(buf []byte) (diff, prevOffset int) {
	offset := a.offsetOf(buf)
	header := a.buffer[offset-headerSize : offset]
	diff, padding := readHeader(header)
	return diff, offset - padding
}

// Free pops buf off the stack if, and only if, it is still the top
// allocation; otherwise it is a silent no-op, mirroring the original's
// free() which refuses to touch anything but the top frame.
func (a *Allocator) Free(buf []byte) {
	if !a.owns(buf) {
		return
	}
	diff, prevOffset := a.topFramePrevOffset(buf)
	if a.prevCount != prevOffset {
		return
	}
	a.count = prevOffset
	a.prevCount -= diff
}

func (a *Allocator) ownsHandle(h memkit.Handle) bool {
	return h != memkit.InvalidHandle && int(h) < a.count
}

// FreeHandle is Free's handle-mode counterpart.
func (a *Allocator) FreeHandle(h memkit.Handle) {
	if !a.ownsHandle(h) {
		return
	}
	a.Free(a.HandleToPtr(h))
}

// Reallocate grows or shrinks old in place when old is the top of the
// stack (MustMemcpy false); otherwise it bumps a fresh allocation and
// asks the caller to copy old's contents over, since the old block is
// deliberately left alone — "don't free old block, because user maybe
// needs to memcpy it" in the original's words.
func (a *Allocator) Reallocate(old []byte, newSize, align int) memkit.Realloc {
	if old == nil {
		return memkit.Realloc{Data: a.Allocate(newSize, align), MustMemcpy: false}
	}
	if newSize == 0 && a.owns(old) {
		a.Free(old)
		return memkit.Realloc{Data: nil, MustMemcpy: false}
	}
	if !a.owns(old) {
		return memkit.Realloc{Data: nil, MustMemcpy: false}
	}

	diff, prevOffset := a.topFramePrevOffset(old)
	_ = diff
	if a.prevCount != prevOffset {
		return memkit.Realloc{Data: a.Allocate(newSize, align), MustMemcpy: true}
	}

	start := a.offsetOf(old)
	prevSize := a.count - start
	if newSize > prevSize {
		sizeDiff := newSize - prevSize
		need := a.count + sizeDiff
		if need > len(a.buffer) {
			newCap := len(a.buffer)
			if newCap == 0 {
				newCap = DefaultInitCapacity
			}
			for need > newCap {
				newCap *= 2
			}
			// resize reassigns a.buffer to a freshly allocated array, so
			// old's backing array is stale past this point — reslice from
			// a.buffer at start instead of returning old[:newSize].
			a.resize(newCap)
		}
		a.count += sizeDiff
		return memkit.Realloc{Data: a.buffer[start : start+newSize], MustMemcpy: false}
	}

	sizeDiff := prevSize - newSize
	a.count -= sizeDiff
	return memkit.Realloc{Data: a.buffer[start : start+newSize], MustMemcpy: false}
}

// ReallocateHandle is Reallocate's handle-mode counterpart.
func (a *Allocator) ReallocateHandle(h memkit.Handle, newSize, align int) memkit.ReallocHandle {
	if h == memkit.InvalidHandle {
		return memkit.ReallocHandle{Handle: a.AllocateHandle(newSize, align), MustMemcpy: false}
	}
	res := a.Reallocate(a.HandleToPtr(h), newSize, align)
	if res.Data == nil {
		return memkit.ReallocHandle{Handle: memkit.InvalidHandle, MustMemcpy: res.MustMemcpy}
	}
	return memkit.ReallocHandle{Handle: memkit.Handle(a.offsetOf(res.Data)), MustMemcpy: res.MustMemcpy}
}

// HandleToPtr returns the window from h to the current top of the
// stack; callers slice it down to the size they originally requested.
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
	return memkit.Handle(a.offsetOf(buf))
}

// Clear resets the stack to empty without releasing the backing buffer.
func (a *Allocator) Clear() {
	a.count = 0
	a.prevCount = 0
}

// UsingHandle reports true: stackalloc supports handle mode.
func (a *Allocator) UsingHandle() bool {
	return true
}

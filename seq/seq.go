// Package seq is the growable dynamic sequence: a contiguous run of T
// backed by a memkit.Allocator, in either pointer or handle mode
// depending on what the allocator supports. Ported from
// original_source/include/dynamic_array.hpp's DynamicArray.
package seq

import (
	"unsafe"

	"github.com/fagongzi/memkit"
	"github.com/fagongzi/memkit/assert"
)

// DefaultCapacity mirrors DynamicArray's DEFAULT_CAPACITY template
// parameter default.
const DefaultCapacity = 8

// DefaultGrowthFactor mirrors DynamicArray's GROW_FACTOR template
// parameter default.
const DefaultGrowthFactor = 2.0

type config struct {
	growthFactor    float64
	defaultCapacity int
}

// Option configures a Sequence at construction.
type Option func(*config)

// WithGrowthFactor sets the capacity multiplier used by the inexact
// growth path (Append, AppendRange, ReserveExponent, ResizeExponent).
func WithGrowthFactor(f float64) Option {
	return func(c *config) { c.growthFactor = f }
}

// WithDefaultCapacity sets the capacity a Sequence grows to on its
// first allocation, when the caller hasn't asked for more.
func WithDefaultCapacity(capacity int) Option {
	return func(c *config) { c.defaultCapacity = capacity }
}

// Sequence is a growable, contiguous run of T.
type Sequence[T any] struct {
	allocator memkit.Allocator
	useHandle bool
	handle    memkit.Handle
	ptr       []byte

	capacity int
	count    int

	growthFactor    float64
	defaultCapacity int
}

func elemSize[T any]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

func elemAlign[T any]() int {
	var zero T
	return int(unsafe.Alignof(zero))
}

// New returns an empty sequence backed by allocator. No storage is
// allocated until the first write.
func New[T any](allocator memkit.Allocator, opts ...Option) *Sequence[T] {
	c := config{growthFactor: DefaultGrowthFactor, defaultCapacity: DefaultCapacity}
	for _, opt := range opts {
		opt(&c)
	}
	return &Sequence[T]{
		allocator:       allocator,
		useHandle:       allocator.UsingHandle(),
		handle:          memkit.InvalidHandle,
		growthFactor:    c.growthFactor,
		defaultCapacity: c.defaultCapacity,
	}
}

// NewCapacity returns a sequence pre-allocated to hold capacity
// elements.
func NewCapacity[T any](capacity int, allocator memkit.Allocator, opts ...Option) *Sequence[T] {
	s := New[T](allocator, opts...)
	s.grow(capacity, true)
	return s
}

func (s *Sequence[T]) rawBacking() []byte {
	if s.useHandle {
		return s.allocator.HandleToPtr(s.handle)
	}
	return s.ptr
}

func (s *Sequence[T]) data() []T {
	if s.capacity == 0 {
		return nil
	}
	raw := s.rawBacking()
	if raw == nil {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(raw))), s.capacity)
}

// grow changes the sequence's capacity — to exactly newCapacity when
// exact is true, or to the next power of growthFactor reaching it
// otherwise — and reallocates the backing storage. On an empty sequence
// the first allocation is never smaller than the default capacity,
// whether or not exact is set.
func (s *Sequence[T]) grow(newCapacity int, exact bool) {
	oldCapacity := s.capacity

	switch {
	case s.capacity == 0:
		if newCapacity > s.defaultCapacity {
			s.capacity = newCapacity
		} else {
			s.capacity = s.defaultCapacity
		}
	case exact:
		s.capacity = newCapacity
	default:
		for s.capacity < newCapacity {
			s.capacity = int(float64(s.capacity) * s.growthFactor)
		}
	}

	size := s.capacity * elemSize[T]()
	align := elemAlign[T]()

	if s.useHandle {
		oldHandle := s.handle
		res := s.allocator.ReallocateHandle(oldHandle, size, align)
		if res.MustMemcpy && oldCapacity > 0 {
			copy(s.allocator.HandleToPtr(res.Handle), s.allocator.HandleToPtr(oldHandle)[:oldCapacity*elemSize[T]()])
		}
		s.handle = res.Handle
		return
	}

	oldPtr := s.ptr
	res := s.allocator.Reallocate(oldPtr, size, align)
	if res.MustMemcpy && oldCapacity > 0 {
		copy(res.Data, oldPtr)
	}
	s.ptr = res.Data
}

func (s *Sequence[T]) moveForward(n int) []T {
	if s.capacity-s.count < n {
		s.grow(s.count+n, false)
	}
	data := s.data()
	start := s.count
	s.count += n
	return data[start:s.count]
}

// Append adds item to the end, growing the backing storage if needed.
func (s *Sequence[T]) Append(item T) {
	slot := s.moveForward(1)
	slot[0] = item
}

// AppendRange appends every element of items, in order.
func (s *Sequence[T]) AppendRange(items []T) {
	if len(items) == 0 {
		return
	}
	slot := s.moveForward(len(items))
	copy(slot, items)
}

// RemoveAt removes the element at index, shifting every later element
// down by one. Prefer RemoveUnorderedAt when order doesn't matter.
func (s *Sequence[T]) RemoveAt(index int) {
	assert.Assertf(index >= 0 && index < s.count, "seq: index %d out of bounds (count %d)", index, s.count)
	if index == s.count-1 {
		s.Pop()
		return
	}
	data := s.data()
	copy(data[index:s.count-1], data[index+1:s.count])
	var zero T
	data[s.count-1] = zero
	s.count--
}

// RemoveUnorderedAt removes the element at index by swapping the last
// element into its place, avoiding the shift RemoveAt pays for.
func (s *Sequence[T]) RemoveUnorderedAt(index int) {
	assert.Assertf(index >= 0 && index < s.count, "seq: index %d out of bounds (count %d)", index, s.count)
	if index == s.count-1 {
		s.Pop()
		return
	}
	data := s.data()
	data[index] = data[s.count-1]
	var zero T
	data[s.count-1] = zero
	s.count--
}

func (s *Sequence[T]) popRange(n int) {
	data := s.data()
	var zero T
	for i := s.count - n; i < s.count; i++ {
		data[i] = zero
	}
	s.count -= n
}

// Pop removes the last element.
func (s *Sequence[T]) Pop() {
	assert.Assertf(s.count > 0, "seq: pop on empty sequence")
	s.popRange(1)
}

// PopRange removes the last n elements.
func (s *Sequence[T]) PopRange(n int) {
	assert.Assertf(n <= s.count, "seq: can't pop %d elements, only have %d", n, s.count)
	s.popRange(n)
}

// Clear removes every element without releasing backing storage.
func (s *Sequence[T]) Clear() {
	s.popRange(s.count)
}

// Fill overwrites every element up to capacity with val and sets the
// count to capacity.
func (s *Sequence[T]) Fill(val T) {
	data := s.data()
	for i := 0; i < s.capacity; i++ {
		data[i] = val
	}
	s.count = s.capacity
}

// Reserve grows capacity to exactly newCapacity if it is larger than
// the current one. On an empty sequence the capacity reached is at least
// the default capacity.
func (s *Sequence[T]) Reserve(newCapacity int) {
	if newCapacity > s.capacity {
		s.grow(newCapacity, true)
	}
}

// ReserveExponent grows capacity to the smallest growthFactor power
// reaching newCapacity, rather than exactly to it.
func (s *Sequence[T]) ReserveExponent(newCapacity int) {
	if newCapacity > s.capacity {
		s.grow(newCapacity, false)
	}
}

// Resize grows capacity if needed and raises count to newCount. It
// never shrinks count — calling it with a smaller newCount is a no-op,
// matching the original's resize().
func (s *Sequence[T]) Resize(newCount int) {
	if newCount > s.capacity {
		s.grow(newCount, true)
	}
	if newCount > s.count {
		s.count = newCount
	}
}

// ResizeExponent grows capacity by growthFactor steps until it reaches
// newCount, then raises count to the new capacity. When newCount already
// fits in the current capacity it changes neither capacity nor count.
func (s *Sequence[T]) ResizeExponent(newCount int) {
	if newCount > s.capacity {
		s.grow(newCount, false)
		s.ResizeToCapacity()
	}
}

// ResizeToCapacity raises count to the current capacity.
func (s *Sequence[T]) ResizeToCapacity() {
	if s.count < s.capacity {
		s.count = s.capacity
	}
}

// ReserveAndResize reserves newCapacity exactly and raises count to
// newCount in one step.
func (s *Sequence[T]) ReserveAndResize(newCapacity, newCount int) {
	assert.Assertf(newCapacity >= newCount, "seq: new capacity %d smaller than new count %d", newCapacity, newCount)
	if newCapacity > s.capacity {
		s.grow(newCapacity, true)
	}
	if newCount > s.count {
		s.count = newCount
	}
}

// Shrink lowers the logical capacity to newCapacity, popping elements
// beyond it first if needed. It only adjusts bookkeeping and never
// releases or reallocates the backing storage, matching
// original_source's DynamicArray::shrink.
func (s *Sequence[T]) Shrink(newCapacity int) {
	if newCapacity < s.count {
		s.popRange(s.count - newCapacity)
	}
	s.capacity = newCapacity
}

// At returns the element at index.
func (s *Sequence[T]) At(index int) T {
	assert.Assertf(index >= 0 && index < s.count, "seq: index %d out of bounds (count %d)", index, s.count)
	return s.data()[index]
}

// Set overwrites the element at index.
func (s *Sequence[T]) Set(index int, v T) {
	assert.Assertf(index >= 0 && index < s.count, "seq: index %d out of bounds (count %d)", index, s.count)
	s.data()[index] = v
}

// First returns the first element.
func (s *Sequence[T]) First() T { return s.At(0) }

// Last returns the last element.
func (s *Sequence[T]) Last() T { return s.At(s.count - 1) }

// Count returns the number of live elements.
func (s *Sequence[T]) Count() int { return s.count }

// Capacity returns how many elements the current backing storage can
// hold.
func (s *Sequence[T]) Capacity() int { return s.capacity }

// CapacityRemain returns Capacity minus Count.
func (s *Sequence[T]) CapacityRemain() int { return s.capacity - s.count }

// IsEmpty reports whether Count is zero.
func (s *Sequence[T]) IsEmpty() bool { return s.count == 0 }

// IsFull reports whether Count equals Capacity.
func (s *Sequence[T]) IsFull() bool { return s.count == s.capacity }

// Slice returns the live elements from start, for length elements, as
// a []T view directly over the sequence's backing storage. A length of
// 0 means "to the end".
func (s *Sequence[T]) Slice(start, length int) []T {
	if length == 0 {
		length = s.count - start
	}
	return s.data()[start : start+length]
}

// Release frees the sequence's backing storage and resets it to empty.
// Sequence has no finalizer — callers that construct one with an
// allocator that isn't garbage collected (freelist, arena, stack) must
// call Release explicitly when done.
func (s *Sequence[T]) Release() {
	if s.useHandle {
		if s.handle != memkit.InvalidHandle {
			s.allocator.FreeHandle(s.handle)
			s.handle = memkit.InvalidHandle
		}
	} else if s.ptr != nil {
		s.allocator.Free(s.ptr)
		s.ptr = nil
	}
	s.capacity = 0
	s.count = 0
}

// Contains reports whether item appears in the sequence.
func Contains[T comparable](s *Sequence[T], item T) bool {
	_, ok := IndexOf(s, item)
	return ok
}

// IndexOf returns the index of item's first occurrence.
func IndexOf[T comparable](s *Sequence[T], item T) (int, bool) {
	data := s.data()
	for i := 0; i < s.count; i++ {
		if data[i] == item {
			return i, true
		}
	}
	return 0, false
}

// Equal reports whether a and b hold the same elements in the same
// order.
func Equal[T comparable](a, b *Sequence[T]) bool {
	if a.count != b.count {
		return false
	}
	ad, bd := a.data(), b.data()
	for i := 0; i < a.count; i++ {
		if ad[i] != bd[i] {
			return false
		}
	}
	return true
}

// Hash returns the FNV-1a content hash of the sequence's live elements,
// the same way original_source's DynamicArray::hash does. T must be a
// fixed-size, pointer-free type for the hash to be meaningful.
func Hash[T any](s *Sequence[T]) uint64 {
	if s.count == 0 {
		return memkit.HashBytes(nil)
	}
	data := s.data()[:s.count]
	raw := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(data))), s.count*elemSize[T]())
	return memkit.HashBytes(raw)
}

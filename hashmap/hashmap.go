// Package hashmap is the open-addressing hash table: a flat bucket array
// backed by a memkit.Allocator, linear-probed with wraparound and a
// three-value reserved hash band (free, tombstone, occupied) so removal
// never breaks a probe chain that crosses the removed slot.
//
// Like seq, it reinterprets allocator-returned bytes as typed buckets via
// unsafe.Slice; K and V must therefore be pointer-free so the garbage
// collector never needs to trace into the backing buffer.
package hashmap

import (
	"unsafe"

	"github.com/fagongzi/memkit"
	"github.com/fagongzi/memkit/assert"
	"github.com/fagongzi/util/hack"
)

// DefaultInitCapacity mirrors HashMap::DEFAULT_INIT_CAPACITY. Must stay a
// power of two: indexHash masks by capacity-1 rather than taking a
// modulus.
const DefaultInitCapacity = 32

// Reserved hash values, grounded on hashmap.hpp's FREE_HASH/TOMBSTONE_HASH/
// FIRST_VALID_HASH. freeHash marks a bucket that was never occupied or was
// wiped by Clear; tombstoneHash marks one vacated by Remove. Both are below
// firstValidHash, so an insert may reuse either, but a lookup's probe may
// only stop at freeHash — stopping at a tombstone would wrongly report a
// miss for a key whose probe chain continues past it.
const (
	freeHash       uint64 = 0
	tombstoneHash  uint64 = 1
	firstValidHash uint64 = 2
)

type bucket[K comparable, V any] struct {
	hash  uint64
	key   K
	value V
}

func bucketSize[K comparable, V any]() int {
	var b bucket[K, V]
	return int(unsafe.Sizeof(b))
}

func bucketAlign[K comparable, V any]() int {
	var b bucket[K, V]
	return int(unsafe.Alignof(b))
}

// HashString is the byte-content hash used for string keys, grounded on
// hashfn_default<const char*>/<string_view> in hashmap.hpp: those
// specializations hash the string's characters directly instead of the
// string_view/pointer's own in-memory layout, which default[K]'s raw
// memcpy would do incorrectly. hack.StringToSlice gives a zero-copy view
// of s's bytes for the hash to read, the same zero-copy conversion the
// teacher's buf.ByteBuf.WriteString uses.
func HashString(s string) uint64 {
	return memkit.HashBytes(hack.StringToSlice(s))
}

// defaultHashFn mirrors hashfn_default<K>'s generic case (raw bytes of the
// key) with a runtime type-switch standing in for the original's string
// specialization, since Go generics can't be specialized at compile time.
func defaultHashFn[K comparable]() func(K) uint64 {
	return func(key K) uint64 {
		if s, ok := any(key).(string); ok {
			return HashString(s)
		}
		return memkit.HashBytes(memkit.RawBytesOf(&key))
	}
}

func defaultEqualFn[K comparable](a, b K) bool {
	return a == b
}

// Config collects a Map's tunables, set via Option at construction.
type Config[K comparable] struct {
	HashFn     func(K) uint64
	EqualFn    func(K, K) bool
	LoadFactor float64
	GrowFactor float64
}

// Option configures a Map at construction, mirroring seq.Option's
// functional-options style.
type Option[K comparable] func(*Config[K])

// WithHashFn overrides the default raw-bytes hash.
func WithHashFn[K comparable](fn func(K) uint64) Option[K] {
	return func(c *Config[K]) { c.HashFn = fn }
}

// WithEqualFn overrides the default == comparison.
func WithEqualFn[K comparable](fn func(K, K) bool) Option[K] {
	return func(c *Config[K]) { c.EqualFn = fn }
}

// WithLoadFactor overrides HashMapConfig::load_factor (default 0.75).
func WithLoadFactor[K comparable](factor float64) Option[K] {
	return func(c *Config[K]) { c.LoadFactor = factor }
}

// WithGrowFactor overrides HashMapConfig::grow_factor (default 2.0).
func WithGrowFactor[K comparable](factor float64) Option[K] {
	return func(c *Config[K]) { c.GrowFactor = factor }
}

// Map is the open-addressing hash table, parameterized by a
// memkit.Allocator the way every container in this module is.
type Map[K comparable, V any] struct {
	allocator memkit.Allocator
	useHandle bool
	handle    memkit.Handle
	ptr       []byte
	capacity  int
	count     int

	hashFn     func(K) uint64
	equalFn    func(K, K) bool
	loadFactor float64
	growFactor float64
}

func newMap[K comparable, V any](allocator memkit.Allocator, opts ...Option[K]) *Map[K, V] {
	cfg := Config[K]{
		HashFn:     defaultHashFn[K](),
		EqualFn:    defaultEqualFn[K],
		LoadFactor: memkit.DefaultLoadFactor,
		GrowFactor: memkit.DefaultHashmapGrowthFactor,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Map[K, V]{
		allocator:  allocator,
		useHandle:  allocator.UsingHandle(),
		handle:     memkit.InvalidHandle,
		hashFn:     cfg.HashFn,
		equalFn:    cfg.EqualFn,
		loadFactor: cfg.LoadFactor,
		growFactor: cfg.GrowFactor,
	}
}

// New returns a Map pre-sized to DefaultInitCapacity, mirroring the
// original constructor always calling resize_empty eagerly.
func New[K comparable, V any](allocator memkit.Allocator, opts ...Option[K]) *Map[K, V] {
	m := newMap[K, V](allocator, opts...)
	m.resizeEmpty(DefaultInitCapacity)
	return m
}

// NewCapacity returns an empty Map pre-sized to the next power of two at
// or above prealloc.
//
// The original constructor initializes its capacity member to
// next_power_of_2(prealloc_count) but then immediately calls
// resize_empty(prealloc_count), whose body overwrites _capacity with the
// raw, non-power-of-two prealloc_count — silently breaking the
// index_hash = hash & (capacity - 1) masking every other method relies on.
// This port rounds up before calling resizeEmpty so the invariant holds
// from construction.
func NewCapacity[K comparable, V any](prealloc int, allocator memkit.Allocator, opts ...Option[K]) *Map[K, V] {
	m := newMap[K, V](allocator, opts...)
	m.resizeEmpty(memkit.NextPowerOfTwo(prealloc))
	return m
}

func (m *Map[K, V]) rawBacking() []byte {
	if m.useHandle {
		if m.handle == memkit.InvalidHandle {
			return nil
		}
		return m.allocator.HandleToPtr(m.handle)
	}
	return m.ptr
}

func (m *Map[K, V]) dataAt(raw []byte, capacity int) []bucket[K, V] {
	if raw == nil || capacity == 0 {
		return nil
	}
	return unsafe.Slice((*bucket[K, V])(unsafe.Pointer(unsafe.SliceData(raw))), capacity)
}

func (m *Map[K, V]) data() []bucket[K, V] {
	return m.dataAt(m.rawBacking(), m.capacity)
}

func (m *Map[K, V]) hashInner(key K) uint64 {
	h := m.hashFn(key)
	if h < firstValidHash {
		h = firstValidHash
	}
	return h
}

func (m *Map[K, V]) indexHash(hash uint64, capacity int) int {
	return int(hash & uint64(capacity-1))
}

// resizeEmpty (re)allocates the backing buffer for newCapacity without
// preserving any existing contents, freeing whatever buffer was there
// before.
//
// The original resize_empty never frees the buffer it's replacing,
// relying on the fact that it is only ever called from the constructor
// (nothing to free yet) and from reserve()'s is-empty branch — where a
// map that is merely empty-of-entries but already holds a real backing
// buffer from a prior resize leaks that buffer on every such call. This
// port always frees the prior buffer once the replacement is allocated,
// which is skipped the first time (there is no prior buffer) and closes
// the leak every other time.
func (m *Map[K, V]) resizeEmpty(newCapacity int) {
	oldRaw := m.rawBacking()
	oldHandle := m.handle

	if newCapacity == 0 {
		newCapacity = DefaultInitCapacity
	}
	size := newCapacity * bucketSize[K, V]()
	align := bucketAlign[K, V]()

	m.capacity = newCapacity
	m.count = 0
	if m.useHandle {
		m.handle = m.allocator.AllocateHandle(size, align)
		// the allocation may have moved the allocator's buffer, so the old
		// block is freed by handle rather than through oldRaw.
		if oldHandle != memkit.InvalidHandle {
			m.allocator.FreeHandle(oldHandle)
		}
		return
	}

	m.ptr = m.allocator.Allocate(size, align)
	if oldRaw != nil {
		m.allocator.Free(oldRaw)
	}
}

// putOldEntry inserts key/val into buckets at the first empty slot its
// probe chain finds, without checking for an existing key — every caller
// (resize) already knows the key isn't present because it's rehashing a
// previously-deduplicated table.
func (m *Map[K, V]) putOldEntry(buckets []bucket[K, V], key K, val V) {
	hash := m.hashInner(key)
	n := len(buckets)
	index := m.indexHash(hash, n)

	for i := index; i < n; i++ {
		if buckets[i].hash < firstValidHash {
			buckets[i] = bucket[K, V]{hash: hash, key: key, value: val}
			return
		}
	}
	for i := 0; i < index; i++ {
		if buckets[i].hash < firstValidHash {
			buckets[i] = bucket[K, V]{hash: hash, key: key, value: val}
			return
		}
	}
	assert.Assertf(false, "hashmap: resize invariant violated, no empty slot for rehashed entry")
}

// resize grows the backing buffer to at least newCapacity (rounded by
// growFactor from the current capacity) and rehashes every live entry
// into it, freeing the old buffer once the move is complete.
//
// Mirrors the original's resize(): it always allocates the replacement
// via the allocator's pointer-mode Allocate, then, in handle mode,
// converts the fresh pointer to a handle via PtrToHandle — the same
// technique HandleToPtr/PtrToHandle already support for linalloc,
// stackalloc and freelist, whose handles are just offsets from a single
// base buffer.
func (m *Map[K, V]) resize(newCapacity int) {
	oldCapacity := m.capacity
	oldRaw := m.rawBacking()
	oldHandle := m.handle
	oldBuckets := m.dataAt(oldRaw, oldCapacity)

	newCap := oldCapacity
	if newCap == 0 {
		newCap = DefaultInitCapacity
	}
	for newCap < newCapacity {
		newCap = int(float64(newCap) * m.growFactor)
	}

	size := newCap * bucketSize[K, V]()
	align := bucketAlign[K, V]()
	newPtr := m.allocator.Allocate(size, align)
	newBuckets := m.dataAt(newPtr, newCap)

	m.capacity = newCap
	for i := 0; i < oldCapacity; i++ {
		b := oldBuckets[i]
		if b.hash < firstValidHash {
			continue
		}
		m.putOldEntry(newBuckets, b.key, b.value)
	}

	if m.useHandle {
		m.handle = m.allocator.PtrToHandle(newPtr)
		// Allocate may have moved the allocator's buffer, so the old block
		// is freed by handle rather than through oldRaw.
		if oldHandle != memkit.InvalidHandle {
			m.allocator.FreeHandle(oldHandle)
		}
		return
	}

	m.ptr = newPtr
	if oldRaw != nil {
		m.allocator.Free(oldRaw)
	}
}

func (m *Map[K, V]) maybeGrow() {
	if m.capacity == 0 {
		m.resizeEmpty(DefaultInitCapacity)
		return
	}
	if float64(m.count) >= float64(m.capacity)*m.loadFactor {
		m.resize(int(float64(m.capacity) * m.growFactor))
	}
}

// putInner finds key's probe chain in the live table and either updates
// an existing entry or claims the first empty (free or tombstone) slot.
func (m *Map[K, V]) putInner(key K, val V) {
	data := m.data()
	n := m.capacity
	hash := m.hashInner(key)
	index := m.indexHash(hash, n)

	for i := index; i < n; i++ {
		if data[i].hash < firstValidHash {
			data[i] = bucket[K, V]{hash: hash, key: key, value: val}
			m.count++
			return
		}
		if data[i].hash == hash && m.equalFn(key, data[i].key) {
			data[i].value = val
			return
		}
	}
	for i := 0; i < index; i++ {
		if data[i].hash < firstValidHash {
			data[i] = bucket[K, V]{hash: hash, key: key, value: val}
			m.count++
			return
		}
		if data[i].hash == hash && m.equalFn(key, data[i].key) {
			data[i].value = val
			return
		}
	}
}

// Put inserts or updates key's value, growing the table first if the
// load factor would be exceeded.
func (m *Map[K, V]) Put(key K, val V) {
	m.maybeGrow()
	m.putInner(key, val)
}

// PutWithoutRealloc is Put without the load-factor check, for callers
// that have already reserved enough capacity and want a guaranteed
// allocation-free insert. Traps in debug builds if the table is in fact
// full enough to need a resize.
func (m *Map[K, V]) PutWithoutRealloc(key K, val V) {
	assert.Assertf(m.capacity > 0 && float64(m.count) < float64(m.capacity)*m.loadFactor,
		"hashmap: PutWithoutRealloc called with no guaranteed empty slot, call Put instead")
	m.putInner(key, val)
}

// PutIfEmpty inserts key/val only if key is not already present,
// reporting whether the insert happened.
func (m *Map[K, V]) PutIfEmpty(key K, val V) bool {
	m.maybeGrow()

	data := m.data()
	n := m.capacity
	hash := m.hashInner(key)
	index := m.indexHash(hash, n)

	for i := index; i < n; i++ {
		if data[i].hash < firstValidHash {
			data[i] = bucket[K, V]{hash: hash, key: key, value: val}
			m.count++
			return true
		}
		if data[i].hash == hash && m.equalFn(key, data[i].key) {
			return false
		}
	}
	for i := 0; i < index; i++ {
		if data[i].hash < firstValidHash {
			data[i] = bucket[K, V]{hash: hash, key: key, value: val}
			m.count++
			return true
		}
		if data[i].hash == hash && m.equalFn(key, data[i].key) {
			return false
		}
	}
	return false
}

// findBucket returns a pointer into the live bucket array for key, or
// nil if key is absent. The probe only stops early at a true freeHash
// slot — a tombstoneHash slot means "this position in the chain was once
// occupied by some other key," so the search must continue past it.
func (m *Map[K, V]) findBucket(key K) *bucket[K, V] {
	if m.capacity == 0 {
		return nil
	}
	data := m.data()
	n := m.capacity
	hash := m.hashInner(key)
	index := m.indexHash(hash, n)

	for i := index; i < n; i++ {
		switch {
		case data[i].hash >= firstValidHash:
			if data[i].hash == hash && m.equalFn(key, data[i].key) {
				return &data[i]
			}
		case data[i].hash == freeHash:
			return nil
		}
	}
	for i := 0; i < index; i++ {
		switch {
		case data[i].hash >= firstValidHash:
			if data[i].hash == hash && m.equalFn(key, data[i].key) {
				return &data[i]
			}
		case data[i].hash == freeHash:
			return nil
		}
	}
	return nil
}

// Get returns key's value and true, or the zero value and false if key
// is absent.
func (m *Map[K, V]) Get(key K) (V, bool) {
	b := m.findBucket(key)
	if b == nil {
		var zero V
		return zero, false
	}
	return b.value, true
}

// Contains reports whether key is present.
func (m *Map[K, V]) Contains(key K) bool {
	return m.findBucket(key) != nil
}

// Remove deletes key if present, reporting whether it was.
//
// The original remove() resets the vacated bucket's hash to FREE_HASH,
// the same value used for a slot that was never occupied. find_bucket's
// probe stops at the first FREE_HASH it sees, so removing a key in the
// middle of another key's probe chain makes every lookup for that other
// key past the removed slot wrongly report absent — TOMBSTONE_HASH is
// declared in the original but never actually used. This port sets
// tombstoneHash on removal and only lets the probe stop at freeHash,
// which is what the reserved three-value band documented in this
// package's hash constants requires.
func (m *Map[K, V]) Remove(key K) bool {
	b := m.findBucket(key)
	if b == nil {
		return false
	}
	var zeroKey K
	var zeroVal V
	b.key = zeroKey
	b.value = zeroVal
	b.hash = tombstoneHash
	m.count--
	return true
}

// Reserve ensures the table can hold at least newCapacity entries,
// growing (and rehashing) if necessary. Mirrors HashMap::reserve, fixed
// per resizeEmpty's doc comment to never leak an existing buffer.
func (m *Map[K, V]) Reserve(newCapacity int) {
	if m.IsEmpty() {
		m.resizeEmpty(memkit.NextPowerOfTwo(newCapacity))
		return
	}
	m.resize(newCapacity)
}

// Fill sets every bucket's value to val and marks every bucket occupied,
// reporting Count() == Capacity() afterward.
//
// The original fill() sets every bucket's value but never touches its
// hash field, leaving Count() == Capacity() while most buckets still read
// as logically empty to get/remove/find_bucket — a direct contradiction a
// subsequent Get or Remove call would observe. This port also marks each
// touched bucket occupied (hash = firstValidHash, no real key) so the
// bucket array and the count it reports stay consistent; callers that
// want real keys mapped to val should use Put in a loop instead.
func (m *Map[K, V]) Fill(val V) {
	data := m.data()
	for i := range data {
		data[i].value = val
		if data[i].hash < firstValidHash {
			data[i].hash = firstValidHash
		}
	}
	m.count = m.capacity
}

// Clear marks every bucket free and resets the count, without releasing
// the backing buffer.
func (m *Map[K, V]) Clear() {
	data := m.data()
	var zeroKey K
	var zeroVal V
	for i := range data {
		if data[i].hash != freeHash {
			data[i] = bucket[K, V]{key: zeroKey, value: zeroVal, hash: freeHash}
		}
	}
	m.count = 0
}

// Release frees the backing buffer entirely, leaving the Map in its
// zero-capacity state. Go has no destructors, so callers that built a Map
// over a non-garbage-collected allocator (freelist, arena, stack, linear)
// must call this explicitly.
func (m *Map[K, V]) Release() {
	raw := m.rawBacking()
	if raw != nil {
		m.allocator.Free(raw)
	}
	m.handle = memkit.InvalidHandle
	m.ptr = nil
	m.capacity = 0
	m.count = 0
}

// Count returns the number of live (occupied) entries.
func (m *Map[K, V]) Count() int {
	return m.count
}

// Capacity returns the current bucket array size.
func (m *Map[K, V]) Capacity() int {
	return m.capacity
}

// IsEmpty reports whether the map holds no live entries.
func (m *Map[K, V]) IsEmpty() bool {
	return m.count == 0
}

// LoadFactor returns the configured occupied/capacity ratio that triggers
// a rehash.
func (m *Map[K, V]) LoadFactor() float64 {
	return m.loadFactor
}

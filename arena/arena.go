// Package arena is the arena allocator: a vector of bump-allocated
// regions, each grown independently, with snapshot/rewind support for
// scoped temporary allocations. Handle mode is forbidden — the original
// declares handle methods on ArenaAllocator but every concrete
// implementation unconditionally asserts false — so this port never
// implements them beyond the programmer-error stubs.
package arena

import (
	"encoding/binary"

	"github.com/fagongzi/memkit"
	"github.com/fagongzi/memkit/platform"
)

// DefaultAlignment mirrors ArenaAllocator::DEFAULT_ALIGNMENT.
const DefaultAlignment = memkit.WordSize

// DefaultRegionCapacityPages mirrors
// ArenaAllocator::DEFAULT_REGION_CAPACITY_PAGES.
const DefaultRegionCapacityPages = 4

// headerSize is the packed size of the (padding, diff) uint32 pair
// stored immediately before every allocation, mirroring
// ArenaAllocatorHeader.
const headerSize = 8

type region struct {
	data       []byte
	offset     int
	prevOffset int
}

// Snapshot captures the arena's write position for a later Rewind.
type Snapshot struct {
	RegionIndex  int
	RegionOffset int
}

// Allocator is the arena allocator.
type Allocator struct {
	memkit.NoHandleSupport
	regions         []region
	currRegionIndex int
	snapshotCount   int
}

var _ memkit.Allocator = (*Allocator)(nil)

// New returns an empty arena; its first region is created lazily on the
// first allocation.
func New() *Allocator {
	return &Allocator{}
}

func writeHeader(buf []byte, padding, diff uint32) {
	binary.BigEndian.PutUint32(buf[0:4], padding)
	binary.BigEndian.PutUint32(buf[4:8], diff)
}

func readHeader(buf []byte) (padding, diff uint32) {
	return binary.BigEndian.Uint32(buf[0:4]), binary.BigEndian.Uint32(buf[4:8])
}

func (a *Allocator) findSufficientRegion(size, align int) (index, padding int) {
	start := 0
	if a.snapshotCount > 0 {
		start = a.currRegionIndex
	}

	i := start
	for ; i < len(a.regions); i++ {
		r := &a.regions[i]
		if r.data == nil {
			break
		}
		padding = memkit.PaddingWithHeader(memkit.AddrOf(r.data)+uintptr(r.offset), align, headerSize)
		if size+padding <= len(r.data)-r.offset {
			break
		}
	}

	if i >= len(a.regions) {
		a.regions = append(a.regions, region{})
		i = len(a.regions) - 1
		padding = 0
	}

	a.currRegionIndex = i
	return i, padding
}

func (a *Allocator) initNewRegion(r *region, allocSize int) {
	minSize := platform.PageSize() * DefaultRegionCapacityPages
	if allocSize < minSize {
		allocSize = minSize
	}
	r.data = platform.MemAlloc(allocSize)
	r.offset = 0
	r.prevOffset = 0
}

func (a *Allocator) findRegionForAddr(addr []byte) *region {
	for i := range a.regions {
		r := &a.regions[i]
		if r.data != nil && memkit.InRange(memkit.AddrOf(r.data), len(r.data), memkit.AddrOf(addr)) {
			return r
		}
	}
	return nil
}

// Allocate finds (or grows) a region with enough room, bumps its
// offset, and returns the requested slice.
func (a *Allocator) Allocate(size, align int) []byte {
	align = memkit.NormalizeAlignment(align)
	idx, padding := a.findSufficientRegion(size, align)
	r := &a.regions[idx]
	if r.data == nil {
		a.initNewRegion(r, size+headerSize+align)
		padding = memkit.PaddingWithHeader(memkit.AddrOf(r.data), align, headerSize)
	}

	start := r.offset + padding
	headerOffset := start - headerSize
	writeHeader(r.data[headerOffset:headerOffset+headerSize], uint32(padding), uint32(r.offset-r.prevOffset))

	r.prevOffset = r.offset
	r.offset = start + size
	return r.data[start : start+size]
}

// Reallocate grows or shrinks buf in place when it is the last
// allocation in its region and the region has room; otherwise it bumps
// a fresh allocation, possibly in a new region, asking the caller to
// copy the contents over. buf is freed first only when it is the last
// allocation in its region; any other buf is left in place.
func (a *Allocator) Reallocate(old []byte, newSize, align int) memkit.Realloc {
	if newSize == 0 {
		return memkit.Realloc{Data: nil, MustMemcpy: false}
	}
	if old == nil {
		return memkit.Realloc{Data: a.Allocate(newSize, align), MustMemcpy: false}
	}

	r := a.findRegionForAddr(old)
	if r == nil {
		return memkit.Realloc{Data: nil, MustMemcpy: false}
	}

	offset := int(memkit.AddrOf(old) - memkit.AddrOf(r.data))
	padding, diff := readHeader(r.data[offset-headerSize : offset])
	_ = diff
	prevOffset := offset - int(padding)
	if prevOffset != r.prevOffset {
		return memkit.Realloc{Data: a.Allocate(newSize, align), MustMemcpy: true}
	}

	prevAllocSize := r.offset - offset
	diffSize := newSize - prevAllocSize

	if diffSize <= 0 {
		r.offset += diffSize
		return memkit.Realloc{Data: r.data[offset : offset+newSize], MustMemcpy: false}
	}

	remain := len(r.data) - r.offset
	if diffSize <= remain {
		r.offset += diffSize
		return memkit.Realloc{Data: r.data[offset : offset+newSize], MustMemcpy: false}
	}

	a.freeInRegion(old, r)
	return memkit.Realloc{Data: a.Allocate(newSize, align), MustMemcpy: true}
}

func (a *Allocator) freeInRegion(buf []byte, r *region) {
	offset := int(memkit.AddrOf(buf) - memkit.AddrOf(r.data))
	padding, diff := readHeader(r.data[offset-headerSize : offset])
	prevOffset := offset - int(padding)
	if prevOffset != r.prevOffset {
		return
	}
	r.offset = r.prevOffset
	r.prevOffset -= int(diff)
}

// Free releases buf if, and only if, it is the last allocation made in
// its region; otherwise it is a silent no-op.
func (a *Allocator) Free(buf []byte) {
	r := a.findRegionForAddr(buf)
	if r == nil {
		return
	}
	a.freeInRegion(buf, r)
}

// Clear resets every region's bump offset to zero without releasing
// the regions themselves.
func (a *Allocator) Clear() {
	for i := range a.regions {
		a.regions[i].offset = 0
		a.regions[i].prevOffset = 0
	}
}

// Reserve ensures a region with at least needed bytes free exists,
// allocating a new one if no existing (possibly still-empty) region has
// enough room. Supplements the distilled spec's allocator API with
// original_source's ArenaAllocator::reserve.
func (a *Allocator) Reserve(needed int) {
	found := -1
	for i := range a.regions {
		r := &a.regions[i]
		if r.data == nil || len(r.data)-r.offset >= needed {
			found = i
		}
	}

	if found != -1 && a.regions[found].data != nil {
		return
	}

	var r *region
	if found == -1 {
		a.regions = append(a.regions, region{})
		r = &a.regions[len(a.regions)-1]
	} else {
		r = &a.regions[found]
	}

	size := needed
	minSize := platform.PageSize() * DefaultRegionCapacityPages
	if size < minSize {
		size = minSize
	}
	r.data = platform.MemAlloc(size)
	r.offset = 0
	r.prevOffset = 0
}

// MakeSnapshot captures the arena's current write position.
func (a *Allocator) MakeSnapshot() Snapshot {
	a.snapshotCount++
	if len(a.regions) == 0 {
		return Snapshot{}
	}
	idx := len(a.regions) - 1
	return Snapshot{RegionIndex: idx, RegionOffset: a.regions[idx].offset}
}

// Rewind restores the arena to a previously captured Snapshot, zeroing
// the offset of every region allocated after it.
func (a *Allocator) Rewind(s Snapshot) {
	if s.RegionIndex >= len(a.regions) {
		return
	}
	a.regions[s.RegionIndex].offset = s.RegionOffset
	for i := s.RegionIndex + 1; i < len(a.regions); i++ {
		a.regions[i].offset = 0
	}
	a.currRegionIndex = s.RegionIndex
}

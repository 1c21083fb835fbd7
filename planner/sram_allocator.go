package planner

import "sort"

// region is a contiguous free interval [Offset, Offset+Size) in SRAM.
// SramAllocator tracks free regions in ascending-offset order; this is
// the planner's analogue of the teacher's KVBlock free list (kvcache.go),
// but addresses a byte-addressable range instead of fixed-size blocks, so
// it is modelled as a coalescing interval list rather than a linked list
// of uniform blocks.
type region struct {
	Offset uint32
	Size   uint32
}

// SramAllocator is a bump/free-list allocator over a fixed SRAM address
// range. It has value semantics: Clone is a cheap deep copy of the free
// list, so the planner can probe a candidate pass on a copy and either
// commit it (replace the master) or discard it without ever mutating the
// master allocator.
type SramAllocator struct {
	capacity uint32
	free     []region // sorted ascending by Offset, non-overlapping, non-adjacent (coalesced)
	used     map[uint32]uint32 // Offset -> Size, for regions currently reserved
}

// NewSramAllocator creates an allocator over [0, capacity) with the
// entire range free.
func NewSramAllocator(capacity uint32) *SramAllocator {
	return &SramAllocator{
		capacity: capacity,
		free:     []region{{Offset: 0, Size: capacity}},
		used:     make(map[uint32]uint32),
	}
}

// Clone returns an independent copy. Mutating the clone never affects the
// original and vice versa.
func (a *SramAllocator) Clone() *SramAllocator {
	free := make([]region, len(a.free))
	copy(free, a.free)
	used := make(map[uint32]uint32, len(a.used))
	for k, v := range a.used {
		used[k] = v
	}
	return &SramAllocator{capacity: a.capacity, free: free, used: used}
}

// Capacity returns the total SRAM size this allocator was constructed with.
func (a *SramAllocator) Capacity() uint32 {
	return a.capacity
}

// Reserve returns the offset of the smallest-offset free region large
// enough to hold size bytes, or (0, false) if none fits. Determinism:
// among regions of equal size, the lowest offset always wins because the
// free list is scanned in ascending-offset order.
func (a *SramAllocator) Reserve(size uint32) (uint32, bool) {
	if size == 0 {
		return 0, true
	}
	for i, r := range a.free {
		if r.Size >= size {
			offset := r.Offset
			if r.Size == size {
				a.free = append(a.free[:i], a.free[i+1:]...)
			} else {
				a.free[i] = region{Offset: r.Offset + size, Size: r.Size - size}
			}
			a.used[offset] = size
			return offset, true
		}
	}
	return 0, false
}

// Free releases the region that was reserved at offset, coalescing with
// any adjacent free regions. It is a no-op if offset was not reserved
// (matches the allocator's role as a pure bookkeeping layer: a strategy
// that never reserved at offset cannot corrupt allocator state by
// attempting to free it twice).
func (a *SramAllocator) Free(offset uint32) {
	size, ok := a.used[offset]
	if !ok {
		return
	}
	delete(a.used, offset)
	a.insertFree(region{Offset: offset, Size: size})
}

func (a *SramAllocator) insertFree(r region) {
	idx := sort.Search(len(a.free), func(i int) bool { return a.free[i].Offset > r.Offset })
	a.free = append(a.free, region{})
	copy(a.free[idx+1:], a.free[idx:])
	a.free[idx] = r
	a.coalesceAround(idx)
}

// coalesceAround merges the region at idx with its immediate neighbours
// if they are adjacent, keeping the free list in the minimal, sorted,
// non-adjacent form the Reserve scan relies on.
func (a *SramAllocator) coalesceAround(idx int) {
	if idx+1 < len(a.free) {
		cur := a.free[idx]
		next := a.free[idx+1]
		if cur.Offset+cur.Size == next.Offset {
			a.free[idx] = region{Offset: cur.Offset, Size: cur.Size + next.Size}
			a.free = append(a.free[:idx+1], a.free[idx+2:]...)
		}
	}
	if idx > 0 {
		prev := a.free[idx-1]
		cur := a.free[idx]
		if prev.Offset+prev.Size == cur.Offset {
			a.free[idx-1] = region{Offset: prev.Offset, Size: prev.Size + cur.Size}
			a.free = append(a.free[:idx], a.free[idx+1:]...)
		}
	}
}

// UsedBytes returns the total bytes currently reserved, for diagnostics.
func (a *SramAllocator) UsedBytes() uint32 {
	var total uint32
	for _, size := range a.used {
		total += size
	}
	return total
}

// Equal reports whether two allocators have identical occupancy. Used by
// "purity on failure" tests: the master allocator must be byte-identical
// to its pre-attempt state after any failed planning attempt.
func (a *SramAllocator) Equal(other *SramAllocator) bool {
	if a.capacity != other.capacity || len(a.used) != len(other.used) {
		return false
	}
	for offset, size := range a.used {
		if otherSize, ok := other.used[offset]; !ok || otherSize != size {
			return false
		}
	}
	return true
}

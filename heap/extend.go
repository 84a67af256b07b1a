package heap

import "math"

// AllocateZeroed allocates count*elemSize bytes and zero-fills the whole
// payload before returning.
func (h *Heap) AllocateZeroed(count uint32, elemSize uint32) (uint32, error) {
	total := uint64(count) * uint64(elemSize)
	if total == 0 || total > math.MaxUint32 {
		return NullPtr, ErrInvalidArgument
	}

	ptr, err := h.Allocate(uint32(total))
	if err != nil {
		return NullPtr, err
	}

	payload := h.headerOf(ptr - HeaderSize).size
	data := h.Bytes(ptr, payload)
	for i := range data {
		data[i] = 0
	}
	return ptr, nil
}

// Resize grows or shrinks the allocation owning ptr to newSize bytes.
// Growing first tries to absorb a free next neighbor in place, then
// falls back to allocate-copy-release. Shrinking keeps the recorded
// block size unchanged and returns ptr as is.
func (h *Heap) Resize(ptr uint32, newSize uint32) (uint32, error) {
	h.ensureInit()

	if ptr == NullPtr {
		return h.Allocate(newSize)
	}
	if newSize == 0 {
		return NullPtr, h.Release(ptr)
	}

	if !h.inBounds(ptr) {
		return NullPtr, ErrInvalidPointer
	}
	addr := h.ownerOf(ptr)
	if addr == NullPtr {
		return NullPtr, ErrInvalidPointer
	}
	header := h.headerOf(addr)
	if header.status == statusFree {
		return NullPtr, ErrInvalidPointer
	}

	if newSize <= header.size {
		return ptr, nil
	}

	next := h.nextBlock(addr)
	if next != NullPtr {
		nextHeader := h.headerOf(next)
		if nextHeader.status == statusFree && header.size+HeaderSize+nextHeader.size >= newSize {
			h.removeFree(next)
			header.size += HeaderSize + nextHeader.size
			if header.size-newSize > HeaderSize+minSplitPayload {
				h.split(addr, newSize)
			}
			return ptr, nil
		}
	}

	oldSize := header.size
	newPtr, err := h.Allocate(newSize)
	if err != nil {
		return NullPtr, err
	}
	copy(h.Bytes(newPtr, oldSize), h.Bytes(addr+HeaderSize, oldSize))
	_ = h.Release(ptr)
	return newPtr, nil
}

// AllocateAligned allocates size bytes whose real address (arena base
// plus offset) is a multiple of align. align must be a power of two.
func (h *Heap) AllocateAligned(size uint32, align uint32) (uint32, error) {
	h.ensureInit()

	if align == 0 || align&(align-1) != 0 {
		return NullPtr, ErrInvalidArgument
	}
	if size == 0 {
		return NullPtr, ErrInvalidArgument
	}

	// Worst case needed so an aligned address exists inside the block.
	inflated := uint64(size) + uint64(HeaderSize) + uint64(align) - 1
	if inflated > uint64(MaxAllocSize) {
		return NullPtr, ErrCapacityExceeded
	}

	addr := h.findBestFit(uint32(inflated))
	if addr == NullPtr {
		return NullPtr, ErrOutOfMemory
	}

	h.removeFree(addr)
	header := h.headerOf(addr)
	header.status = statusUsed

	payload := addr + HeaderSize
	realAddr := uint64(uintptr(h.data)) + uint64(payload)
	padding := uint32((uint64(align) - realAddr%uint64(align)) % uint64(align))

	header.alignment = align
	header.padding = padding

	logical := size + padding
	if header.size-logical > HeaderSize+minSplitPayload {
		h.split(addr, logical)
	}

	ptr := payload + padding
	h.recordSite(addr)
	h.emit(Event{Op: EventAllocated, BlockID: header.blockID, Addr: ptr, Size: header.size})
	return ptr, nil
}

// ReleaseAll discards every block identity and reinitializes the pool to
// the pristine single-free-block state. All outstanding pointers become
// invalid; the block id counter restarts at zero.
func (h *Heap) ReleaseAll() {
	h.ensureInit()
	h.reset()
}

package heap

// pushFree inserts a block at the free-list head.
func (h *Heap) pushFree(addr uint32) {
	h.headerOf(addr).next = h.freeList
	h.freeList = addr
}

// removeFree unlinks a block from the free list.
func (h *Heap) removeFree(addr uint32) {
	header := h.headerOf(addr)
	if h.freeList == addr {
		h.freeList = header.next
		header.next = NullPtr
		return
	}

	current := h.freeList
	for current != NullPtr && h.headerOf(current).next != addr {
		current = h.headerOf(current).next
	}
	if current != NullPtr {
		h.headerOf(current).next = header.next
	}
	header.next = NullPtr
}

// findBestFit returns the free block with the smallest size >= want.
// Ties go to the first encountered, which is the most recently freed
// because insertion is LIFO.
func (h *Heap) findBestFit(want uint32) uint32 {
	best := NullPtr
	bestSize := uint32(0)

	current := h.freeList
	for current != NullPtr {
		header := h.headerOf(current)
		if header.size >= want {
			if best == NullPtr || header.size < bestSize {
				best = current
				bestSize = header.size
			}
		}
		current = header.next
	}
	return best
}

func (h *Heap) freeListContent() []uint32 {
	var result []uint32
	current := h.freeList
	for current != NullPtr {
		result = append(result, current)
		current = h.headerOf(current).next
	}
	return result
}

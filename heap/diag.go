package heap

// memoryMapLimit bounds MemoryMap to the first blocks in address order.
const memoryMapLimit = 50

// Stats ...
type Stats struct {
	TotalBlocks uint32
	UsedBlocks  uint32
	FreeBlocks  uint32
	UsedBytes   uint32
	FreeBytes   uint32
	TotalBytes  uint32
}

// Leak describes one still-allocated block. Site is empty unless
// allocation-site tracking is enabled.
type Leak struct {
	ID   uint32
	Addr uint32
	Size uint32
	Site string
}

// Stats walks the pool in address order and counts blocks and payload
// bytes. Pure.
func (h *Heap) Stats() Stats {
	h.ensureInit()

	result := Stats{TotalBytes: PoolSize}
	current := uint32(0)
	for current < PoolSize {
		header := h.headerOf(current)
		result.TotalBlocks++
		if header.status == statusFree {
			result.FreeBlocks++
			result.FreeBytes += header.size
		} else {
			result.UsedBlocks++
			result.UsedBytes += header.size
		}
		current += HeaderSize + header.size
	}
	return result
}

// LeakCheck returns the currently allocated blocks in address order.
func (h *Heap) LeakCheck() []Leak {
	h.ensureInit()

	var result []Leak
	current := uint32(0)
	for current < PoolSize {
		header := h.headerOf(current)
		if header.status != statusFree {
			result = append(result, Leak{
				ID:   header.blockID,
				Addr: current + HeaderSize,
				Size: header.size,
				Site: h.siteOf(current),
			})
		}
		current += HeaderSize + header.size
	}
	return result
}

// MemoryMap returns the free flag of the first 50 blocks in address
// order.
func (h *Heap) MemoryMap() []bool {
	h.ensureInit()

	var result []bool
	current := uint32(0)
	for current < PoolSize && len(result) < memoryMapLimit {
		header := h.headerOf(current)
		result = append(result, header.status == statusFree)
		current += HeaderSize + header.size
	}
	return result
}

// Defragment makes a single forward pass merging adjacent free pairs and
// returns the number of merges. The pass advances past each merged
// region without rechecking it, so a run of three or more consecutive
// free blocks is not fully merged in one call.
func (h *Heap) Defragment() int {
	h.ensureInit()

	merges := 0
	current := uint32(0)
	for current < PoolSize {
		header := h.headerOf(current)
		next := current + HeaderSize + header.size
		if next >= PoolSize {
			break
		}
		if header.status == statusFree && h.headerOf(next).status == statusFree {
			h.removeFree(next)
			header.size += HeaderSize + h.headerOf(next).size
			merges++
			current += HeaderSize + header.size
			continue
		}
		current = next
	}
	return merges
}

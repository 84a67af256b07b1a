package heap

import "unsafe"

// Config ...
type Config struct {
	// OnEvent, when non nil, receives one Event per successful
	// allocation and release.
	OnEvent func(e Event)

	// TrackAllocSites records the file:line of every allocation,
	// reported by LeakCheck.
	TrackAllocSites bool
}

// Heap is a fixed 2 MiB pool carved into an exact, gapless sequence of
// header+payload blocks. Addresses handed out are uint32 byte offsets
// into the arena. Heap itself does no locking, callers must serialize.
type Heap struct {
	buf  []uint64
	data unsafe.Pointer

	freeList    uint32
	nextBlockID uint32
	initialized bool

	onEvent    func(e Event)
	trackSites bool
	sites      map[uint32]string
}

// New ...
func New(conf Config) *Heap {
	return &Heap{
		onEvent:    conf.OnEvent,
		trackSites: conf.TrackAllocSites,
	}
}

// Init initializes the pool to a single free block spanning the whole
// arena. Idempotent; every operation also initializes lazily.
func (h *Heap) Init() {
	h.ensureInit()
}

func (h *Heap) ensureInit() {
	if h.initialized {
		return
	}
	if h.buf == nil {
		h.buf = make([]uint64, PoolSize>>3)
		h.data = unsafe.Pointer(&h.buf[0])
	}
	h.reset()
}

func (h *Heap) reset() {
	h.nextBlockID = 0
	first := h.headerOf(0)
	*first = blockHeader{
		status:  statusFree,
		size:    PoolSize - HeaderSize,
		next:    NullPtr,
		blockID: h.newBlockID(),
	}
	h.freeList = 0
	h.sites = nil
	h.initialized = true
}

func (h *Heap) newBlockID() uint32 {
	id := h.nextBlockID
	h.nextBlockID++
	return id
}

// split shrinks the block at addr to exactly size and carves the
// remainder into a fresh free block. The caller must have checked the
// split threshold.
func (h *Heap) split(addr uint32, size uint32) {
	header := h.headerOf(addr)

	remainder := addr + HeaderSize + size
	*h.headerOf(remainder) = blockHeader{
		status:  statusFree,
		size:    header.size - size - HeaderSize,
		next:    NullPtr,
		blockID: h.newBlockID(),
	}
	h.pushFree(remainder)

	header.size = size
}

// Allocate returns the payload offset of a block of exactly size bytes,
// chosen best-fit from the free list.
func (h *Heap) Allocate(size uint32) (uint32, error) {
	h.ensureInit()

	if size == 0 {
		return NullPtr, ErrInvalidArgument
	}
	if size > MaxAllocSize {
		return NullPtr, ErrCapacityExceeded
	}

	addr := h.findBestFit(size)
	if addr == NullPtr {
		return NullPtr, ErrOutOfMemory
	}

	h.removeFree(addr)
	header := h.headerOf(addr)
	header.status = statusUsed
	header.alignment = 0
	header.padding = 0

	if header.size-size > HeaderSize+minSplitPayload {
		h.split(addr, size)
	}

	ptr := addr + HeaderSize
	h.recordSite(addr)
	h.emit(Event{Op: EventAllocated, BlockID: header.blockID, Addr: ptr, Size: header.size})
	return ptr, nil
}

// Release frees the block owning ptr and coalesces it with free
// neighbors. Invalid pointers are reported and leave the pool untouched.
func (h *Heap) Release(ptr uint32) error {
	h.ensureInit()

	if ptr == NullPtr {
		return ErrInvalidArgument
	}
	if !h.inBounds(ptr) {
		return ErrInvalidPointer
	}
	addr := h.ownerOf(ptr)
	if addr == NullPtr {
		return ErrInvalidPointer
	}
	header := h.headerOf(addr)
	if header.status == statusFree {
		return ErrDoubleFree
	}

	header.status = statusFree
	h.pushFree(addr)
	h.dropSite(addr)
	h.emit(Event{Op: EventFreed, BlockID: header.blockID, Addr: addr + HeaderSize, Size: header.size})

	h.coalesce(addr)
	return nil
}

// coalesce merges the just-freed block with its next neighbor, then the
// enlarged block with its previous neighbor. Checking next first makes a
// block sandwiched between two free neighbors collapse in one call.
func (h *Heap) coalesce(addr uint32) {
	next := h.nextBlock(addr)
	if next != NullPtr && h.headerOf(next).status == statusFree {
		h.removeFree(next)
		h.headerOf(addr).size += HeaderSize + h.headerOf(next).size
	}

	prev := h.prevBlock(addr)
	if prev != NullPtr && h.headerOf(prev).status == statusFree {
		h.removeFree(addr)
		h.headerOf(prev).size += HeaderSize + h.headerOf(addr).size
	}
}

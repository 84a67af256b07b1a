package heap

import (
	"math"
	"reflect"
	"unsafe"
)

const (
	// PoolSize is the fixed size of the backing arena in bytes.
	PoolSize uint32 = 2 * 1024 * 1024

	// HeaderSize is the size of the per-block header in bytes.
	HeaderSize = uint32(unsafe.Sizeof(blockHeader{}))

	// NullPtr is the null arena offset.
	NullPtr uint32 = math.MaxUint32

	// MaxAllocSize is the absolute ceiling for a single allocation,
	// independent of the current fragmentation.
	MaxAllocSize = PoolSize - HeaderSize

	// minSplitPayload is the smallest remainder payload worth carving
	// into its own block.
	minSplitPayload uint32 = 32
)

type blockStatus uint32

const (
	statusUsed blockStatus = 0
	statusFree blockStatus = 1
)

// blockHeader lives inside the arena, immediately before its payload.
// next is meaningful only while the block is free.
// alignment and padding are nonzero only for aligned allocations.
type blockHeader struct {
	status    blockStatus
	size      uint32
	next      uint32
	blockID   uint32
	alignment uint32
	padding   uint32
}

func (h *Heap) headerOf(addr uint32) *blockHeader {
	return (*blockHeader)(unsafe.Pointer(uintptr(h.data) + uintptr(addr)))
}

// ToRealAddr ...
func (h *Heap) ToRealAddr(addr uint32) unsafe.Pointer {
	return unsafe.Pointer(uintptr(h.data) + uintptr(addr))
}

// Bytes returns a byte view over [addr, addr+length) of the arena.
func (h *Heap) Bytes(addr uint32, length uint32) []byte {
	var result []byte
	header := (*reflect.SliceHeader)(unsafe.Pointer(&result))
	header.Data = uintptr(h.ToRealAddr(addr))
	header.Len = int(length)
	header.Cap = int(length)
	return result
}

func (h *Heap) inBounds(ptr uint32) bool {
	return ptr < PoolSize
}

// nextBlock returns the block immediately after addr in address order,
// NullPtr if addr is the last block.
func (h *Heap) nextBlock(addr uint32) uint32 {
	next := addr + HeaderSize + h.headerOf(addr).size
	if next >= PoolSize {
		return NullPtr
	}
	return next
}

// prevBlock scans forward from the pool start, there are no back
// pointers. Returns NullPtr if addr is the first block.
func (h *Heap) prevBlock(addr uint32) uint32 {
	if addr == 0 {
		return NullPtr
	}
	current := uint32(0)
	for {
		next := current + HeaderSize + h.headerOf(current).size
		if next == addr {
			return current
		}
		if next >= PoolSize {
			return NullPtr
		}
		current = next
	}
}

// ownerOf resolves an arbitrary pointer to the block whose payload range
// contains it, NullPtr if no block does.
func (h *Heap) ownerOf(ptr uint32) uint32 {
	current := uint32(0)
	for current < PoolSize {
		header := h.headerOf(current)
		data := current + HeaderSize
		if ptr >= data && ptr < data+header.size {
			return current
		}
		current = data + header.size
	}
	return NullPtr
}

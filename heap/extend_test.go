package heap

import (
	"math"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestHeapAllocateZeroedValidation(t *testing.T) {
	h := New(Config{})

	_, err := h.AllocateZeroed(0, 16)
	assert.Equal(t, ErrInvalidArgument, err)

	_, err = h.AllocateZeroed(16, 0)
	assert.Equal(t, ErrInvalidArgument, err)

	_, err = h.AllocateZeroed(math.MaxUint32, 2)
	assert.Equal(t, ErrInvalidArgument, err)

	_, err = h.AllocateZeroed(1, MaxAllocSize+1)
	assert.Equal(t, ErrCapacityExceeded, err)

	checkInvariants(t, h)
}

func TestHeapAllocateZeroed(t *testing.T) {
	h := New(Config{})

	// Dirty a block, free it, then reallocate it zeroed.
	ptr, err := h.Allocate(1024)
	assert.Nil(t, err)
	data := h.Bytes(ptr, 1024)
	for i := range data {
		data[i] = 0xAA
	}
	assert.Nil(t, h.Release(ptr))

	ptr, err = h.AllocateZeroed(4, 256)
	assert.Nil(t, err)

	data = h.Bytes(ptr, 1024)
	for i := range data {
		if data[i] != 0 {
			t.Fatalf("byte %d not zeroed", i)
		}
	}
	checkInvariants(t, h)
}

func TestHeapResizeNullPointer(t *testing.T) {
	h := New(Config{})

	ptr, err := h.Resize(NullPtr, 100)
	assert.Nil(t, err)
	assert.Equal(t, HeaderSize, ptr)
	assert.Equal(t, uint32(100), h.Stats().UsedBytes)
	checkInvariants(t, h)
}

func TestHeapResizeToZero(t *testing.T) {
	h := New(Config{})
	ptr, _ := h.Allocate(512)

	result, err := h.Resize(ptr, 0)
	assert.Nil(t, err)
	assert.Equal(t, NullPtr, result)
	assert.Equal(t, uint32(0), h.Stats().UsedBlocks)
	checkInvariants(t, h)
}

func TestHeapResizeSmaller(t *testing.T) {
	h := New(Config{})
	ptr, _ := h.Allocate(1024)

	result, err := h.Resize(ptr, 100)
	assert.Nil(t, err)
	assert.Equal(t, ptr, result)

	// The recorded size is not shrunk, no space is reclaimed.
	assert.Equal(t, uint32(1024), h.Stats().UsedBytes)
	checkInvariants(t, h)
}

func TestHeapResizeInPlace(t *testing.T) {
	h := New(Config{})
	ptr, _ := h.Allocate(256)

	data := h.Bytes(ptr, 256)
	for i := range data {
		data[i] = byte(i)
	}

	// The next block is the free tail, growth happens in place.
	result, err := h.Resize(ptr, 1000)
	assert.Nil(t, err)
	assert.Equal(t, ptr, result)

	s := h.Stats()
	assert.Equal(t, uint32(1000), s.UsedBytes)
	assert.Equal(t, uint32(2), s.TotalBlocks)

	data = h.Bytes(result, 256)
	for i := range data {
		assert.Equal(t, byte(i), data[i])
	}
	checkInvariants(t, h)
}

func TestHeapResizeInPlaceNoSplitRemainder(t *testing.T) {
	h := New(Config{})
	offsets := buildLayout(h, []layoutBlock{
		{statusUsed, 256},
		{statusFree, 128},
		{statusUsed, 64},
	})
	ptr := offsets[0] + HeaderSize

	// Absorbing the 128 block gives 256+24+128 = 408 bytes, leftover
	// 8 is below the split threshold and stays internal.
	result, err := h.Resize(ptr, 400)
	assert.Nil(t, err)
	assert.Equal(t, ptr, result)
	assert.Equal(t, uint32(408), h.headerOf(offsets[0]).size)
	checkInvariants(t, h)
}

func TestHeapResizeRelocate(t *testing.T) {
	h := New(Config{})
	ptr, _ := h.Allocate(256)
	_, _ = h.Allocate(64) // separator, blocks in-place growth

	data := h.Bytes(ptr, 256)
	for i := range data {
		data[i] = byte(i * 3)
	}

	result, err := h.Resize(ptr, 5000)
	assert.Nil(t, err)
	assert.NotEqual(t, ptr, result)

	data = h.Bytes(result, 256)
	for i := range data {
		assert.Equal(t, byte(i*3), data[i])
	}

	s := h.Stats()
	assert.Equal(t, uint32(5000+64), s.UsedBytes)
	assert.Equal(t, uint32(2), s.UsedBlocks)
	checkInvariants(t, h)
}

func TestHeapResizeInvalidPointer(t *testing.T) {
	h := New(Config{})
	ptr, _ := h.Allocate(256)

	_, err := h.Resize(PoolSize, 512)
	assert.Equal(t, ErrInvalidPointer, err)

	_, err = h.Resize(4, 512)
	assert.Equal(t, ErrInvalidPointer, err)

	assert.Nil(t, h.Release(ptr))
	_, err = h.Resize(ptr, 512)
	assert.Equal(t, ErrInvalidPointer, err)
	checkInvariants(t, h)
}

func TestHeapAllocateAligned(t *testing.T) {
	for _, align := range []uint32{8, 16, 32, 64} {
		h := New(Config{})
		_, _ = h.Allocate(100) // odd-sized block to unalign the tail

		ptr, err := h.AllocateAligned(256, align)
		assert.Nil(t, err)
		assert.Equal(t, uintptr(0), uintptr(h.ToRealAddr(ptr))%uintptr(align))

		addr := h.ownerOf(ptr)
		header := h.headerOf(addr)
		assert.Equal(t, align, header.alignment)
		assert.Equal(t, addr+HeaderSize+header.padding, ptr)
		assert.True(t, header.size >= 256+header.padding)

		data := h.Bytes(ptr, 256)
		for i := range data {
			data[i] = 0x5A
		}

		assert.Nil(t, h.Release(ptr))
		checkInvariants(t, h)
	}
}

func TestHeapAllocateAlignedValidation(t *testing.T) {
	h := New(Config{})

	_, err := h.AllocateAligned(256, 0)
	assert.Equal(t, ErrInvalidArgument, err)

	_, err = h.AllocateAligned(256, 12)
	assert.Equal(t, ErrInvalidArgument, err)

	_, err = h.AllocateAligned(0, 16)
	assert.Equal(t, ErrInvalidArgument, err)

	_, err = h.AllocateAligned(MaxAllocSize, 64)
	assert.Equal(t, ErrCapacityExceeded, err)

	checkInvariants(t, h)
}

func TestHeapAllocateAlignedMetadataCleared(t *testing.T) {
	h := New(Config{})

	ptr, err := h.AllocateAligned(256, 64)
	assert.Nil(t, err)
	assert.Nil(t, h.Release(ptr))

	// A plain allocation reusing the block must not keep stale
	// alignment metadata.
	ptr, err = h.Allocate(256)
	assert.Nil(t, err)
	header := h.headerOf(h.ownerOf(ptr))
	assert.Equal(t, uint32(0), header.alignment)
	assert.Equal(t, uint32(0), header.padding)
	checkInvariants(t, h)
}

func TestHeapReleaseAll(t *testing.T) {
	h := New(Config{})
	_, _ = h.Allocate(1024)
	_, _ = h.Allocate(2048)
	_, _ = h.AllocateAligned(512, 32)

	h.ReleaseAll()

	assert.Equal(t, Stats{
		TotalBlocks: 1,
		FreeBlocks:  1,
		FreeBytes:   PoolSize - HeaderSize,
		TotalBytes:  PoolSize,
	}, h.Stats())
	assert.Equal(t, []uint32{0}, h.freeListContent())

	// The id counter restarts.
	assert.Equal(t, uint32(0), h.headerOf(0).blockID)
	ptr, err := h.Allocate(64)
	assert.Nil(t, err)
	assert.Equal(t, uint32(0), h.headerOf(h.ownerOf(ptr)).blockID)
	checkInvariants(t, h)
}

func TestHeaderLayout(t *testing.T) {
	assert.Equal(t, uint32(24), HeaderSize)
	assert.Equal(t, uintptr(24), unsafe.Sizeof(blockHeader{}))
	assert.Equal(t, uint32(2*1024*1024), PoolSize)
}

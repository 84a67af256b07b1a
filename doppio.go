package doppio

import (
	"sync"
	"unsafe"

	"github.com/minhqt/doppio/heap"
)

// Allocator is the capability surface of a pool. *Pool is the provided
// implementation; alternative strategies can substitute without touching
// the block and free-list logic.
type Allocator interface {
	Init()
	Allocate(size uint32) (uint32, error)
	Release(ptr uint32) error
	AllocateZeroed(count uint32, elemSize uint32) (uint32, error)
	Resize(ptr uint32, newSize uint32) (uint32, error)
	AllocateAligned(size uint32, align uint32) (uint32, error)
	ReleaseAll()
	Stats() heap.Stats
	LeakCheck() []heap.Leak
	MemoryMap() []bool
	Defragment() int
}

// Config ...
type Config struct {
	// OnEvent, when non nil, is called under the pool lock with one
	// event per successful allocation and release. It must not call
	// back into the pool.
	OnEvent func(e heap.Event)

	// TrackAllocSites records allocation sites for LeakCheck.
	TrackAllocSites bool
}

// Pool is a Heap guarded by a single mutex. Every public operation holds
// the lock for its full duration and releases it on every exit path.
// Pools are independent; tests can run several side by side.
type Pool struct {
	mu   sync.Mutex
	heap *heap.Heap
}

var _ Allocator = &Pool{}

// New ...
func New(conf Config) *Pool {
	return &Pool{
		heap: heap.New(heap.Config{
			OnEvent:         conf.OnEvent,
			TrackAllocSites: conf.TrackAllocSites,
		}),
	}
}

// Init initializes the pool eagerly. Idempotent; any other operation
// initializes lazily.
func (p *Pool) Init() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.heap.Init()
}

// Allocate ...
func (p *Pool) Allocate(size uint32) (uint32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.heap.Allocate(size)
}

// Release ...
func (p *Pool) Release(ptr uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.heap.Release(ptr)
}

// AllocateZeroed ...
func (p *Pool) AllocateZeroed(count uint32, elemSize uint32) (uint32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.heap.AllocateZeroed(count, elemSize)
}

// Resize ...
func (p *Pool) Resize(ptr uint32, newSize uint32) (uint32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.heap.Resize(ptr, newSize)
}

// AllocateAligned ...
func (p *Pool) AllocateAligned(size uint32, align uint32) (uint32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.heap.AllocateAligned(size, align)
}

// ReleaseAll ...
func (p *Pool) ReleaseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.heap.ReleaseAll()
}

// Stats ...
func (p *Pool) Stats() heap.Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.heap.Stats()
}

// LeakCheck ...
func (p *Pool) LeakCheck() []heap.Leak {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.heap.LeakCheck()
}

// MemoryMap ...
func (p *Pool) MemoryMap() []bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.heap.MemoryMap()
}

// Defragment ...
func (p *Pool) Defragment() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.heap.Defragment()
}

// Bytes returns a byte view over the allocation at ptr. The view aliases
// pool memory; it stays valid until the block is released or resized.
func (p *Pool) Bytes(ptr uint32, length uint32) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.heap.Bytes(ptr, length)
}

// ToRealAddr ...
func (p *Pool) ToRealAddr(ptr uint32) unsafe.Pointer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.heap.ToRealAddr(ptr)
}

package store

import (
	"sync"

	"github.com/ebatur/shardcache/pkg/malloc"
)

// syncPool wraps a *malloc.Heap with a single pool-wide mutex, mirroring
// the teacher's pkg/malloc.Pool, whose Alloc/AllocBlock/Free/Grow each
// take p.mu.Lock() around the shared arena list. *malloc.Heap itself is
// deliberately unsynchronized (spec.md's Non-goals exclude thread safety
// from the allocator core), so anything sharing one Heap across goroutines
// — every slot in a Store hashes into the same Heap despite each having
// its own per-slot mutex — needs this wrapper the same way the teacher's
// Store needed a locked Pool underneath its per-slot locks.
type syncPool struct {
	mu sync.Mutex
	h  *malloc.Heap
}

func newSyncPool(h *malloc.Heap) *syncPool {
	return &syncPool{h: h}
}

func (p *syncPool) Allocate(size int) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.h.Allocate(size)
}

func (p *syncPool) Free(ptr []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.h.Free(ptr)
}

func (p *syncPool) Reallocate(ptr []byte, size int) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.h.Reallocate(ptr, size)
}

func (p *syncPool) CheckHeap(verbose bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.h.CheckHeap(verbose)
}

// Package pool implements the fixed-size slab pool used for packets,
// frames, and their backing byte/sample buffers. It is the deterministic,
// no-alloc-hot-path allocator described in spec component 4.A: slabs grow
// geometrically between a configured minimum and maximum chunk size, and
// the pool is safe for concurrent use from multiple goroutines (it is
// shared between the I/O goroutines and the pipeline goroutine).
package pool

import (
	"fmt"
	"sync"
)

// Config bounds a SlabPool's growth.
type Config struct {
	// ObjectSize is the size in bytes of one slot.
	ObjectSize int
	// MinChunkSize is the smallest slab (in objects) to allocate.
	MinChunkSize int
	// MaxChunkSize is the largest slab (in objects) a single growth step
	// may allocate.
	MaxChunkSize int
	// Poison, if true, overwrites freed memory with a fixed byte pattern
	// to make use-after-free bugs visible.
	Poison bool
}

func (c Config) withDefaults() Config {
	if c.MinChunkSize <= 0 {
		c.MinChunkSize = 8
	}
	if c.MaxChunkSize <= 0 {
		c.MaxChunkSize = 4096
	}
	if c.MaxChunkSize < c.MinChunkSize {
		c.MaxChunkSize = c.MinChunkSize
	}
	return c
}

const poisonByte = 0xDE

// SlabPool is a fixed-size slot allocator for objects of type T. It grows
// geometrically (doubling) between Config.MinChunkSize and
// Config.MaxChunkSize objects per slab, and never shrinks: freed slots
// are returned to a free list, not to the runtime, which is what makes
// the hot path allocation-free once the pool has warmed up.
type SlabPool[T any] struct {
	mu        sync.Mutex
	cfg       Config
	freeList  []*T
	allSlabs  [][]T
	nextChunk int
	allocated int
}

// New creates a SlabPool for objects of type T.
func New[T any](cfg Config) *SlabPool[T] {
	cfg = cfg.withDefaults()
	p := &SlabPool[T]{
		cfg:       cfg,
		nextChunk: cfg.MinChunkSize,
	}
	return p
}

// Allocate returns a zero-valued *T from the pool, growing the pool with
// a fresh slab if the free list is empty.
func (p *SlabPool[T]) Allocate() *T {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.freeList) == 0 {
		p.growLocked()
	}

	n := len(p.freeList) - 1
	obj := p.freeList[n]
	p.freeList = p.freeList[:n]
	p.allocated++
	return obj
}

// Deallocate returns obj to the pool's free list. If Config.Poison is
// set, the object's memory is overwritten with a poison pattern first.
func (p *SlabPool[T]) Deallocate(obj *T) {
	if obj == nil {
		return
	}
	if p.cfg.Poison {
		poison(obj)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.freeList = append(p.freeList, obj)
	p.allocated--
}

// Dispose runs destroy (if non-nil) on obj and returns it to the pool.
// It is the typed counterpart to Deallocate used for objects that need
// explicit teardown (clearing slices, releasing references) before their
// memory is reused.
func (p *SlabPool[T]) Dispose(obj *T, destroy func(*T)) {
	if destroy != nil {
		destroy(obj)
	}
	p.Deallocate(obj)
}

// Allocated returns the number of objects currently checked out.
func (p *SlabPool[T]) Allocated() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.allocated
}

func (p *SlabPool[T]) growLocked() {
	chunk := p.nextChunk
	if chunk > p.cfg.MaxChunkSize {
		chunk = p.cfg.MaxChunkSize
	}
	slab := make([]T, chunk)
	p.allSlabs = append(p.allSlabs, slab)
	for i := range slab {
		p.freeList = append(p.freeList, &slab[i])
	}
	p.nextChunk = chunk * 2
	if p.nextChunk > p.cfg.MaxChunkSize {
		p.nextChunk = p.cfg.MaxChunkSize
	}
}

func poison(obj any) {
	// Best-effort: only byte slices embedded behind known accessors get
	// poisoned explicitly by callers (Packet/Frame implement Poisonable);
	// this hook exists so SlabPool[T] doesn't need reflection.
	if p, ok := obj.(Poisonable); ok {
		p.Poison(poisonByte)
	}
}

// Poisonable lets a pooled type opt into poison-on-free.
type Poisonable interface {
	Poison(b byte)
}

// ErrNonZeroRefCount is the panic value raised by RefCounted.MustBeUnreferenced
// when asked to dispose of an object still referenced elsewhere. Per
// spec 4.A, attempting to destroy a reference-counted pooled object with
// a non-zero refcount is a fatal condition, not a recoverable error.
type ErrNonZeroRefCount struct {
	Refs int32
}

func (e ErrNonZeroRefCount) Error() string {
	return fmt.Sprintf("pool: dispose called with %d outstanding references", e.Refs)
}

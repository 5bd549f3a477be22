package pool

import "sync/atomic"

// RefCounted is an embeddable mixin giving a pooled, reference-counted
// object atomic ref-count bookkeeping and a back-reference to the pool
// slot that owns it. Packet and Frame embed this (spec 4.A: "Reference-
// counted objects allocated from a pool carry a back-reference and
// self-destroy at ref count zero; attempting to destroy with non-zero
// ref count fails fatally").
type RefCounted struct {
	refs    int32
	release func()
}

// Init wires the release callback invoked when the ref count reaches
// zero. Must be called once before the object is published to any other
// goroutine.
func (r *RefCounted) Init(release func()) {
	atomic.StoreInt32(&r.refs, 1)
	r.release = release
}

// IncRef increments the reference count. Safe for concurrent use.
func (r *RefCounted) IncRef() {
	atomic.AddInt32(&r.refs, 1)
}

// DecRef decrements the reference count and, if it reaches zero, invokes
// the release callback exactly once.
func (r *RefCounted) DecRef() {
	if atomic.AddInt32(&r.refs, -1) == 0 {
		if r.release != nil {
			r.release()
		}
	}
}

// RefCount returns the current reference count, for diagnostics only.
func (r *RefCounted) RefCount() int32 {
	return atomic.LoadInt32(&r.refs)
}

// MustBeUnreferenced panics with ErrNonZeroRefCount if the object still
// has outstanding references. Callers that dispose of pool objects
// directly (bypassing DecRef, e.g. during forced teardown) call this
// first to uphold the "fails fatally" contract from spec 4.A.
func (r *RefCounted) MustBeUnreferenced() {
	if refs := r.RefCount(); refs != 0 {
		panic(ErrNonZeroRefCount{Refs: refs})
	}
}

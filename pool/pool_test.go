package pool

import "testing"

type widget struct {
	n int
}

func TestSlabPoolGrowsGeometrically(t *testing.T) {
	p := New[widget](Config{MinChunkSize: 2, MaxChunkSize: 8})

	var allocated []*widget
	for i := 0; i < 20; i++ {
		obj := p.Allocate()
		obj.n = i
		allocated = append(allocated, obj)
	}

	if got := p.Allocated(); got != 20 {
		t.Fatalf("Allocated() = %d, want 20", got)
	}

	for _, obj := range allocated {
		p.Deallocate(obj)
	}
	if got := p.Allocated(); got != 0 {
		t.Fatalf("Allocated() after full release = %d, want 0", got)
	}
}

func TestSlabPoolReusesFreedSlots(t *testing.T) {
	p := New[widget](Config{MinChunkSize: 4, MaxChunkSize: 4})

	a := p.Allocate()
	p.Deallocate(a)
	b := p.Allocate()

	if a != b {
		t.Fatalf("expected freed slot to be reused, got distinct pointers %p != %p", a, b)
	}
}

func TestRefCountedDisposesAtZero(t *testing.T) {
	released := 0
	var rc RefCounted
	rc.Init(func() { released++ })

	rc.IncRef()
	rc.DecRef()
	if released != 0 {
		t.Fatalf("released too early: %d", released)
	}
	rc.DecRef()
	if released != 1 {
		t.Fatalf("released = %d, want 1", released)
	}
}

func TestMustBeUnreferencedPanics(t *testing.T) {
	var rc RefCounted
	rc.Init(func() {})

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on non-zero refcount dispose")
		}
		if _, ok := r.(ErrNonZeroRefCount); !ok {
			t.Fatalf("unexpected panic value: %v", r)
		}
	}()
	rc.MustBeUnreferenced()
}

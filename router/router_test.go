package router

import (
	"testing"

	"github.com/roc-streaming/rocrecv/status"
)

type fakeSession struct{ name string }

func TestAddSessionCreatesRoute(t *testing.T) {
	r := New()
	sess := &fakeSession{"s1"}

	if code := r.AddSession(sess, 100, "10.0.0.1:4000"); code != status.OK {
		t.Fatalf("add = %v, want OK", code)
	}

	got, ok := r.FindBySource(100)
	if !ok || got != sess {
		t.Fatalf("find by source = %v, %v", got, ok)
	}
	got, ok = r.FindByAddress("10.0.0.1:4000")
	if !ok || got != sess {
		t.Fatalf("find by address = %v, %v", got, ok)
	}
	if !r.HasSession(sess) {
		t.Fatal("expected HasSession true")
	}
}

func TestAddSessionConflictingAddressFailsWithoutSideEffects(t *testing.T) {
	r := New()
	s1 := &fakeSession{"s1"}
	s2 := &fakeSession{"s2"}

	if code := r.AddSession(s1, 1, "addr"); code != status.OK {
		t.Fatalf("add s1 = %v", code)
	}
	if code := r.AddSession(s2, 2, "addr"); code != status.NoRoute {
		t.Fatalf("add s2 with conflicting addr = %v, want NoRoute", code)
	}
	if r.HasSession(s2) {
		t.Fatal("s2 should not have been registered after conflict")
	}
	if _, ok := r.FindBySource(2); ok {
		t.Fatal("ssrc 2 should not have a route after failed add")
	}
}

func TestAddSessionAlreadyRegisteredFails(t *testing.T) {
	r := New()
	s1 := &fakeSession{"s1"}
	r.AddSession(s1, 1, "addr1")
	if code := r.AddSession(s1, 2, "addr2"); code != status.NoRoute {
		t.Fatalf("re-add same session = %v, want NoRoute", code)
	}
}

func TestRemoveSessionDropsEntireRoute(t *testing.T) {
	r := New()
	sess := &fakeSession{"s1"}
	r.AddSession(sess, 1, "addr")
	r.LinkSource(1, "cname-a")

	if code := r.RemoveSession(sess); code != status.OK {
		t.Fatalf("remove = %v", code)
	}
	if _, ok := r.FindBySource(1); ok {
		t.Fatal("source should be gone after remove")
	}
	if _, ok := r.FindByAddress("addr"); ok {
		t.Fatal("address should be gone after remove")
	}
}

func TestLinkSourceMainSSRCMigratesSessionAndAddress(t *testing.T) {
	r := New()
	sess := &fakeSession{"s1"}
	r.AddSession(sess, 100, "10.0.0.1:4000") // ssrc 100 becomes main

	// No route yet for "alice" -> the main ssrc moves to a new route,
	// taking its session and address with it.
	if code := r.LinkSource(100, "alice"); code != status.OK {
		t.Fatalf("link = %v", code)
	}
	got, ok := r.FindBySource(100)
	if !ok || got != sess {
		t.Fatal("session should still be reachable by its main ssrc after cname link")
	}

	// Now link main ssrc to a cname that already has its own route with
	// no session: the main ssrc, its session and its address merge in.
	r2 := New()
	r2.LinkSource(200, "bob") // pre-existing routeless cname
	sess2 := &fakeSession{"s2"}
	r2.AddSession(sess2, 100, "10.0.0.2:5000")
	if code := r2.LinkSource(100, "bob"); code != status.OK {
		t.Fatalf("merge link = %v", code)
	}
	got, ok = r2.FindBySource(100)
	if !ok || got != sess2 {
		t.Fatal("session should travel with its main ssrc into the merged route")
	}
	got, ok = r2.FindByAddress("10.0.0.2:5000")
	if !ok || got != sess2 {
		t.Fatal("address should travel with the main ssrc")
	}
}

func TestLinkSourceNonMainSSRCLeavesSessionBehind(t *testing.T) {
	r := New()
	sess := &fakeSession{"s1"}
	r.AddSession(sess, 100, "addr") // 100 is main
	r.LinkSource(200, "alice")      // secondary ssrc joins no session yet

	// Attach 200 to the same route as 100 by linking it to a cname that
	// then gets assigned to 100 too, making 200 a non-main member.
	r.LinkSource(100, "alice")

	// Re-link the non-main ssrc 200 elsewhere: session must stay with 100.
	if code := r.LinkSource(200, "carol"); code != status.OK {
		t.Fatalf("link non-main = %v", code)
	}
	got, ok := r.FindBySource(100)
	if !ok || got != sess {
		t.Fatal("main ssrc's session should be unaffected by a non-main re-link")
	}
	if rt, ok := r.bySource[200]; !ok || rt == r.bySource[100] {
		t.Fatal("ssrc 200 should still resolve to a route (just a different one)")
	}
}

func TestLinkSourceMainSSRCSplitLeavesSiblingsOnOldRoute(t *testing.T) {
	r := New()
	r.LinkSource(1, "g1")
	r.LinkSource(2, "g1") // route now holds {1, 2}, cname g1

	sess := &fakeSession{"s1"}
	if code := r.AddSession(sess, 1, "addr"); code != status.OK {
		t.Fatalf("add session = %v, want OK", code) // ssrc 1 becomes main
	}

	if code := r.LinkSource(1, "g2"); code != status.OK {
		t.Fatalf("relink main ssrc = %v, want OK", code)
	}

	// The main ssrc's session must follow it to the new cname's route.
	got, ok := r.FindBySource(1)
	if !ok || got != sess {
		t.Fatal("session should follow the main ssrc to its new route")
	}

	// The sibling ssrc must stay behind on the old route, without a
	// session, instead of silently inheriting one from the split.
	if got, ok := r.FindBySource(2); ok {
		t.Fatalf("sibling ssrc 2 should have no session, got %v", got)
	}
}

func TestLinkSourceMainSSRCMergeSplitLeavesSiblingsOnOldRoute(t *testing.T) {
	r := New()
	r.LinkSource(1, "g1")
	r.LinkSource(2, "g1") // route now holds {1, 2}, cname g1
	r.LinkSource(3, "g2") // pre-existing destination route, no session

	sess := &fakeSession{"s1"}
	if code := r.AddSession(sess, 1, "addr"); code != status.OK {
		t.Fatalf("add session = %v, want OK", code) // ssrc 1 becomes main
	}

	if code := r.LinkSource(1, "g2"); code != status.OK {
		t.Fatalf("relink main ssrc into existing route = %v, want OK", code)
	}

	got, ok := r.FindBySource(1)
	if !ok || got != sess {
		t.Fatal("session should travel with the main ssrc into the merged route")
	}
	if _, ok := r.FindBySource(3); !ok {
		t.Fatal("pre-existing sibling on the destination route should be unaffected")
	}
	if got, ok := r.FindBySource(2); ok {
		t.Fatalf("sibling ssrc 2 left on the old route should have no session, got %v", got)
	}
}

func TestUnlinkSourceRemovesRouteWhenLastSSRC(t *testing.T) {
	r := New()
	r.LinkSource(1, "solo")
	if code := r.UnlinkSource(1); code != status.OK {
		t.Fatalf("unlink = %v", code)
	}
	if _, ok := r.FindBySource(1); ok {
		t.Fatal("source should be gone")
	}
}

func TestAllocationFailureRollsBackAddSession(t *testing.T) {
	r := New()
	s1 := &fakeSession{"s1"}
	s2 := &fakeSession{"s2"}
	r.AddSession(s1, 1, "addr1")

	// s2 tries to attach to ssrc 1, whose route already holds s1; the
	// add must fail leaving state exactly as before.
	before := len(r.bySource)
	code := r.AddSession(s2, 1, "addr2")
	if code != status.NoRoute {
		t.Fatalf("add = %v, want NoRoute", code)
	}
	if len(r.bySource) != before {
		t.Fatalf("bySource index size changed after failed add: %d -> %d", before, len(r.bySource))
	}
	if r.HasSession(s2) {
		t.Fatal("s2 must not be registered after a failed add")
	}
}

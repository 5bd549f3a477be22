package state

import "testing"

func TestTrackerStartsIdle(t *testing.T) {
	tr := NewTracker()
	if tr.State() != StateIdle {
		t.Fatalf("initial state = %v, want idle", tr.State())
	}
}

func TestRegisterPacketTransitionsToActive(t *testing.T) {
	tr := NewTracker()
	tr.RegisterPacket()
	if tr.State() != StateActive {
		t.Fatalf("state = %v, want active", tr.State())
	}
}

func TestPauseThenResumeReturnsToIdle(t *testing.T) {
	tr := NewTracker()
	tr.RegisterPacket()
	tr.Pause()
	if tr.State() != StatePaused {
		t.Fatalf("state = %v, want paused", tr.State())
	}
	tr.Resume()
	if tr.State() != StateIdle {
		t.Fatalf("state = %v, want idle after resume", tr.State())
	}
}

func TestBrokenStateNeverChangesAgain(t *testing.T) {
	tr := NewTracker()
	tr.MarkBroken()
	tr.RegisterPacket()
	tr.Resume()
	if tr.State() != StateBroken {
		t.Fatalf("state = %v, want broken to stick", tr.State())
	}
}

func TestMaskMatches(t *testing.T) {
	m := MaskOf(StateActive, StatePaused)
	if !m.Matches(StateActive) || !m.Matches(StatePaused) {
		t.Fatal("mask should match both included states")
	}
	if m.Matches(StateIdle) || m.Matches(StateBroken) {
		t.Fatal("mask should not match excluded states")
	}
}

func TestWaitStateReturnsImmediatelyWhenAlreadyMatching(t *testing.T) {
	tr := NewTracker()
	got, ok := tr.WaitState(MaskOf(StateIdle), 0)
	if !ok || got != StateIdle {
		t.Fatalf("wait = %v, %v, want idle/true", got, ok)
	}
}

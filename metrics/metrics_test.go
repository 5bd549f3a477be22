package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveSlotSetsSessionGauge(t *testing.T) {
	r := NewRegistry()
	r.ObserveSlot(SlotReport{SlotIndex: 0, NumSessions: 3})

	got := testutil.ToFloat64(r.numSessions.WithLabelValues("0"))
	if got != 3 {
		t.Fatalf("numSessions = %v, want 3", got)
	}
}

func TestObserveParticipantSetsAllGauges(t *testing.T) {
	r := NewRegistry()
	r.ObserveParticipant(1, ParticipantReport{
		SSRC:              42,
		LatencyMeanNs:     1000,
		LatencyVarianceNs: 50,
		JitterMeanNs:      10,
		PacketLossRatio:   0.02,
		FECRecoveryRatio:  0.5,
		PLCActiveRatio:    0.01,
		WatchdogDead:      true,
		ResamplerPPM:      12.5,
		SourceBacklog:     7,
	})

	if got := testutil.ToFloat64(r.latencyMeanNs.WithLabelValues("1", "42")); got != 1000 {
		t.Fatalf("latencyMeanNs = %v, want 1000", got)
	}
	if got := testutil.ToFloat64(r.watchdogState.WithLabelValues("1", "42")); got != 1 {
		t.Fatalf("watchdogState = %v, want 1 (dead)", got)
	}
	if got := testutil.ToFloat64(r.sourceBacklog.WithLabelValues("1", "42")); got != 7 {
		t.Fatalf("sourceBacklog = %v, want 7", got)
	}
}

func TestObserveParticipantWatchdogAliveIsZero(t *testing.T) {
	r := NewRegistry()
	r.ObserveParticipant(0, ParticipantReport{SSRC: 1, WatchdogDead: false})

	if got := testutil.ToFloat64(r.watchdogState.WithLabelValues("0", "1")); got != 0 {
		t.Fatalf("watchdogState = %v, want 0 (alive)", got)
	}
}

func TestObserveEndpointDropsSetsCounters(t *testing.T) {
	r := NewRegistry()
	r.ObserveEndpointDrops(2, "source", 5, 9)

	if got := testutil.ToFloat64(r.droppedParse.WithLabelValues("2", "source")); got != 5 {
		t.Fatalf("droppedParse = %v, want 5", got)
	}
	if got := testutil.ToFloat64(r.droppedRoute.WithLabelValues("2", "source")); got != 9 {
		t.Fatalf("droppedRoute = %v, want 9", got)
	}
}

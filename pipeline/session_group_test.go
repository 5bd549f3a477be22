package pipeline

import (
	"testing"

	"github.com/roc-streaming/rocrecv/audio"
	"github.com/roc-streaming/rocrecv/fec"
	"github.com/roc-streaming/rocrecv/rtp"
	"github.com/roc-streaming/rocrecv/status"
)

func newMixerForTest(spec audio.SampleSpec) *audio.Mixer {
	return audio.NewMixer(spec, true)
}

func TestHandleRTPCreatesSessionOnFirstPacket(t *testing.T) {
	spec := stereoSpec()
	mixer := newMixerForTest(spec)
	group := NewSessionGroup(mixer, testSessionFactory(spec))

	hdr := rtp.Header{SSRC: 7, SequenceNumber: 1, PayloadType: 10}
	code := group.HandleRTP(hdr, nil, make([]byte, 32), "10.0.0.5:5000", 0)
	if code != status.OK {
		t.Fatalf("HandleRTP = %v, want OK", code)
	}
	if group.NumSessions() != 1 {
		t.Fatalf("NumSessions = %d, want 1", group.NumSessions())
	}
}

func TestHandleRTPRoutesSubsequentPacketsToSameSession(t *testing.T) {
	spec := stereoSpec()
	mixer := newMixerForTest(spec)
	group := NewSessionGroup(mixer, testSessionFactory(spec))

	for seq := uint16(1); seq <= 3; seq++ {
		hdr := rtp.Header{SSRC: 7, SequenceNumber: seq, PayloadType: 10}
		if code := group.HandleRTP(hdr, nil, make([]byte, 32), "10.0.0.5:5000", 0); code != status.OK {
			t.Fatalf("HandleRTP seq %d = %v, want OK", seq, code)
		}
	}
	if group.NumSessions() != 1 {
		t.Fatalf("NumSessions = %d, want 1 (same SSRC reuses session)", group.NumSessions())
	}
}

func TestHandleRepairWithoutKnownSourceFails(t *testing.T) {
	spec := stereoSpec()
	mixer := newMixerForTest(spec)
	group := NewSessionGroup(mixer, testSessionFactory(spec))

	code := group.HandleRepair(fec.RepairHeader{Scheme: fec.SchemeRS8M}, make([]byte, 16), "10.0.0.9:9000", 0)
	if code != status.NoRoute {
		t.Fatalf("HandleRepair = %v, want NoRoute", code)
	}
}

func TestAllowSessionCreationGatesNewSessions(t *testing.T) {
	spec := stereoSpec()
	mixer := newMixerForTest(spec)
	group := NewSessionGroup(mixer, testSessionFactory(spec))
	group.AllowSessionCreation = func(addr string) bool { return false }

	hdr := rtp.Header{SSRC: 42, SequenceNumber: 1}
	code := group.HandleRTP(hdr, nil, make([]byte, 32), "10.0.0.5:5000", 0)
	if code != status.NoRoute {
		t.Fatalf("HandleRTP = %v, want NoRoute when creation disallowed", code)
	}
}

func TestFrameReadersReflectsLiveSessions(t *testing.T) {
	spec := stereoSpec()
	mixer := newMixerForTest(spec)
	group := NewSessionGroup(mixer, testSessionFactory(spec))

	hdr := rtp.Header{SSRC: 7, SequenceNumber: 1}
	group.HandleRTP(hdr, nil, make([]byte, 32), "10.0.0.5:5000", 0)

	if got := len(group.FrameReaders()); got != 1 {
		t.Fatalf("FrameReaders = %d, want 1", got)
	}
}

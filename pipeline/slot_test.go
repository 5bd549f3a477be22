package pipeline

import (
	"testing"

	"github.com/roc-streaming/rocrecv/audio"
	"github.com/roc-streaming/rocrecv/fec"
	"github.com/roc-streaming/rocrecv/netio"
	"github.com/roc-streaming/rocrecv/rtp"
)

func composeRTP(t *testing.T, seq uint16, ssrc uint32) []byte {
	t.Helper()
	c := rtp.NewComposer()
	buf, err := c.Compose(rtp.Header{PayloadType: 10, SequenceNumber: seq, SSRC: ssrc}, make([]byte, 32))
	if err != nil {
		t.Fatalf("compose rtp: %v", err)
	}
	return buf
}

func TestSlotRefreshRoutesPacketsIntoNewSession(t *testing.T) {
	spec := stereoSpec()
	mixer := newMixerForTest(spec)
	group := NewSessionGroup(mixer, testSessionFactory(spec))
	slot := NewSlot(0, group)

	w := slot.AddEndpoint(InterfaceAudioSource, netio.ProtoRTP, fec.SchemeNone)
	w.Push(netio.InPacket{Buf: composeRTP(t, 1, 0xBEEF), SrcAddr: "10.0.0.1:6000"})

	slot.Refresh(0)

	if got := slot.NumSessions(); got != 1 {
		t.Fatalf("NumSessions = %d, want 1", got)
	}
	if slot.Broken() {
		t.Fatal("slot should not be broken after a valid packet")
	}
}

func TestReceiverSourceAggregatesAcrossSlots(t *testing.T) {
	spec := stereoSpec()
	rs := NewReceiverSource(spec)

	group1 := NewSessionGroup(newMixerForTest(spec), testSessionFactory(spec))
	group2 := NewSessionGroup(newMixerForTest(spec), testSessionFactory(spec))
	slot1 := NewSlot(0, group1)
	slot2 := NewSlot(1, group2)
	rs.AddSlot(slot1)
	rs.AddSlot(slot2)

	w1 := slot1.AddEndpoint(InterfaceAudioSource, netio.ProtoRTP, fec.SchemeNone)
	w1.Push(netio.InPacket{Buf: composeRTP(t, 1, 1), SrcAddr: "10.0.0.1:6000"})
	w2 := slot2.AddEndpoint(InterfaceAudioSource, netio.ProtoRTP, fec.SchemeNone)
	w2.Push(netio.InPacket{Buf: composeRTP(t, 1, 2), SrcAddr: "10.0.0.2:6000"})

	rs.Refresh(0)

	if got := rs.NumSessions(); got != 2 {
		t.Fatalf("NumSessions = %d, want 2", got)
	}

	frame := audio.NewFrame(spec, 160)
	rs.Read(frame, 160)
	if rs.State().State().String() == "" {
		t.Fatal("expected a valid device state string")
	}
}

func TestReceiverSourceRemoveSlotStopsAggregating(t *testing.T) {
	spec := stereoSpec()
	rs := NewReceiverSource(spec)
	group := NewSessionGroup(newMixerForTest(spec), testSessionFactory(spec))
	slot := NewSlot(0, group)
	rs.AddSlot(slot)
	rs.RemoveSlot(slot)

	if got := rs.NumSessions(); got != 0 {
		t.Fatalf("NumSessions = %d, want 0 after removal", got)
	}
}

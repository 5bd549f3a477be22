package netio

import (
	"sync"
	"testing"

	"github.com/roc-streaming/rocrecv/fec"
	"github.com/roc-streaming/rocrecv/rtcp"
	"github.com/roc-streaming/rocrecv/rtp"
	"github.com/roc-streaming/rocrecv/status"
)

func TestQueueFIFOOrder(t *testing.T) {
	q := newQueue()
	for i := 0; i < 5; i++ {
		q.push(InPacket{SrcAddr: string(rune('a' + i))})
	}
	for i := 0; i < 5; i++ {
		p, ok := q.pop()
		if !ok {
			t.Fatalf("pop %d: expected a value", i)
		}
		want := string(rune('a' + i))
		if p.SrcAddr != want {
			t.Fatalf("pop %d = %q, want %q", i, p.SrcAddr, want)
		}
	}
	if _, ok := q.pop(); ok {
		t.Fatal("expected empty queue")
	}
}

func TestQueueConcurrentProducersPreserveCount(t *testing.T) {
	q := newQueue()
	const producers = 8
	const perProducer = 200

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.push(InPacket{})
			}
		}()
	}
	wg.Wait()

	count := 0
	for {
		if _, ok := q.pop(); !ok {
			break
		}
		count++
	}
	if count != producers*perProducer {
		t.Fatalf("drained %d packets, want %d", count, producers*perProducer)
	}
}

type recordingChain struct {
	rtpCalls    int
	repairCalls int
	rtcpCalls   int
	rtpCode     status.Code
}

func (r *recordingChain) HandleRTP(hdr rtp.Header, footer *fec.SourceFooter, payload []byte, srcAddr string, arrivalNs int64) status.Code {
	r.rtpCalls++
	if r.rtpCode != 0 {
		return r.rtpCode
	}
	return status.OK
}

func (r *recordingChain) HandleRepair(hdr fec.RepairHeader, shard []byte, srcAddr string, arrivalNs int64) status.Code {
	r.repairCalls++
	return status.OK
}

func (r *recordingChain) HandleRTCP(compound rtcp.Compound, srcAddr string) status.Code {
	r.rtcpCalls++
	return status.OK
}

func rtpPacketBytes(t *testing.T, seq uint16, ssrc uint32) []byte {
	t.Helper()
	c := rtp.NewComposer()
	buf, err := c.Compose(rtp.Header{PayloadType: 10, SequenceNumber: seq, SSRC: ssrc}, []byte{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("compose rtp: %v", err)
	}
	return buf
}

func TestEndpointPullPacketsRoutesToChain(t *testing.T) {
	chain := &recordingChain{}
	ep := NewEndpoint(ProtoRTP, fec.SchemeNone, chain)

	w := ep.Writer()
	w.Push(InPacket{Buf: rtpPacketBytes(t, 1, 0xAAAA)})
	w.Push(InPacket{Buf: rtpPacketBytes(t, 2, 0xAAAA)})

	if got := ep.PendingPackets(); got != 2 {
		t.Fatalf("pending = %d, want 2", got)
	}

	if code := ep.PullPackets(0); code != status.OK {
		t.Fatalf("pull = %v, want OK", code)
	}
	if chain.rtpCalls != 2 {
		t.Fatalf("rtpCalls = %d, want 2", chain.rtpCalls)
	}
	if got := ep.PendingPackets(); got != 0 {
		t.Fatalf("pending after pull = %d, want 0", got)
	}
}

func TestEndpointDropsUnparsablePacket(t *testing.T) {
	chain := &recordingChain{}
	ep := NewEndpoint(ProtoRTP, fec.SchemeNone, chain)

	ep.Writer().Push(InPacket{Buf: []byte{1, 2}}) // too short to be RTP

	if code := ep.PullPackets(0); code != status.OK {
		t.Fatalf("pull = %v, want OK despite bad packet", code)
	}
	if chain.rtpCalls != 0 {
		t.Fatalf("rtpCalls = %d, want 0", chain.rtpCalls)
	}
	if got := ep.DroppedParse(); got != 1 {
		t.Fatalf("droppedParse = %d, want 1", got)
	}
}

func TestEndpointFatalChainStatusStopsPull(t *testing.T) {
	chain := &recordingChain{rtpCode: status.Terminated}
	ep := NewEndpoint(ProtoRTP, fec.SchemeNone, chain)

	ep.Writer().Push(InPacket{Buf: rtpPacketBytes(t, 1, 1)})
	ep.Writer().Push(InPacket{Buf: rtpPacketBytes(t, 2, 1)})

	code := ep.PullPackets(0)
	if code != status.Terminated {
		t.Fatalf("pull = %v, want Terminated", code)
	}
	if chain.rtpCalls != 1 {
		t.Fatalf("rtpCalls = %d, want 1 (pull should stop after fatal status)", chain.rtpCalls)
	}
}

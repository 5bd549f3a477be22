package fec

import (
	"bytes"
	"testing"
)

func TestSourceFooterRoundTripRS8M(t *testing.T) {
	c := NewComposer()
	p := NewParser()

	payload := []byte{1, 2, 3, 4, 5}
	footer := SourceFooter{Scheme: SchemeRS8M, BlockNum: 42, SourceBlkLen: 10}

	framed, err := c.ComposeSourceFooter(footer, payload)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if len(framed) != len(payload)+FooterLen(SchemeRS8M) {
		t.Fatalf("framed len = %d, want %d", len(framed), len(payload)+FooterLen(SchemeRS8M))
	}

	gotPayload, gotFooter, err := p.ParseSourceFooter(SchemeRS8M, framed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !bytes.Equal(gotPayload, payload) {
		t.Fatalf("payload = %v, want %v", gotPayload, payload)
	}
	if gotFooter != footer {
		t.Fatalf("footer = %+v, want %+v", gotFooter, footer)
	}
}

func TestRepairHeaderRoundTripLDPC(t *testing.T) {
	c := NewComposer()
	p := NewParser()

	shard := []byte{9, 9, 9}
	header := RepairHeader{
		Scheme:       SchemeLDPCStaircase,
		BlockNum:     7,
		EncodingID:   3,
		SourceBlkLen: 20,
		RepairBlkLen: 4,
	}

	framed, err := c.ComposeRepairHeader(header, shard)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}

	gotShard, gotHeader, err := p.ParseRepairHeader(SchemeLDPCStaircase, framed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !bytes.Equal(gotShard, shard) {
		t.Fatalf("shard = %v, want %v", gotShard, shard)
	}
	if gotHeader != header {
		t.Fatalf("header = %+v, want %+v", gotHeader, header)
	}
}

func TestParseSourceFooterTooShort(t *testing.T) {
	p := NewParser()
	_, _, err := p.ParseSourceFooter(SchemeRS8M, []byte{1, 2})
	if err != ErrTooShort {
		t.Fatalf("err = %v, want ErrTooShort", err)
	}
}

func TestParseUnknownScheme(t *testing.T) {
	p := NewParser()
	_, _, err := p.ParseSourceFooter(Scheme(99), make([]byte, 16))
	if err != ErrUnknownScheme {
		t.Fatalf("err = %v, want ErrUnknownScheme", err)
	}
}

func TestBlockReaderReadyWhenEnoughShards(t *testing.T) {
	r := NewBlockReader(SchemeRS8M, 4)

	for i := uint16(0); i < 8; i++ {
		r.AddSource(1, 10, i, []byte{byte(i)})
	}
	if r.Ready(1) {
		t.Fatal("should not be ready with 8/10 source and no repair")
	}

	r.AddRepair(1, 10, 2, 0, []byte{0xAA})
	r.AddRepair(1, 10, 2, 1, []byte{0xBB})

	if !r.Ready(1) {
		t.Fatal("should be ready with 8 source + 2 repair == source_blk_len")
	}

	missing := r.Missing(1)
	if len(missing) != 2 {
		t.Fatalf("missing = %v, want 2 entries", missing)
	}
}

func TestBlockReaderEvictsOldestBeyondCapacity(t *testing.T) {
	r := NewBlockReader(SchemeRS8M, 2)

	r.AddSource(1, 4, 0, []byte{1})
	r.AddSource(2, 4, 0, []byte{2})
	r.AddSource(3, 4, 0, []byte{3})

	if _, _, ok := func() ([]uint16, []uint16, bool) {
		src, _ := r.Shards(1)
		return nil, nil, src != nil
	}(); ok {
		t.Fatal("block 1 should have been evicted once capacity exceeded")
	}

	src, _ := r.Shards(3)
	if src == nil {
		t.Fatal("block 3 should still be present")
	}
}

func TestBlockReaderPutRecoveredFillsSourceGap(t *testing.T) {
	r := NewBlockReader(SchemeRS8M, 4)
	r.AddSource(1, 2, 0, []byte{1})
	r.PutRecovered(1, 1, []byte{2})

	if missing := r.Missing(1); len(missing) != 0 {
		t.Fatalf("missing = %v, want none after recovery", missing)
	}
}

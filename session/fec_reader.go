package session

import (
	"github.com/roc-streaming/rocrecv/fec"
	"github.com/roc-streaming/rocrecv/rtp"
)

// RecoveryFunc reconstructs missing source shards given present source
// and repair shards. It is the external FEC codec collaborator (RS8M /
// LDPC-Staircase block math, out of scope per spec §1): FECReader calls
// it once a block has enough shards, and stores whatever it returns as
// recovered source payloads.
type RecoveryFunc func(source, repair map[uint16][]byte, sourceBlkLen uint16) (recovered map[uint16][]byte)

// FECReader accumulates source and repair packets into blocks and, once
// a block has enough shards, invokes an external recovery function to
// reconstruct missing source packets. Drain hands a block's source
// packets back in index order and evicts the block; the reader does
// not push packets downstream by itself.
type FECReader struct {
	blocks  *fec.BlockReader
	recover RecoveryFunc
	seqBase map[uint32]uint16 // block number -> RTP seq of the first source shard received for it
}

// NewFECReader creates an FECReader over scheme with the given block
// retention and recovery callback. A nil recover disables
// reconstruction (reader then only reorders/passes through source
// shards, useful when no FEC is negotiated).
func NewFECReader(scheme fec.Scheme, maxBlocks int, recover RecoveryFunc) *FECReader {
	return &FECReader{
		blocks:  fec.NewBlockReader(scheme, maxBlocks),
		recover: recover,
		seqBase: make(map[uint32]uint16),
	}
}

// AddSource records a source shard, keyed by its footer's block number
// and the packet's position within the block: its RTP seq minus the seq
// of the first source shard received for that block (RTP sequence
// numbers increment by 1 per source packet within a block).
func (f *FECReader) AddSource(hdr rtp.Header, footer fec.SourceFooter, payload []byte) {
	if _, ok := f.seqBase[footer.BlockNum]; !ok {
		f.seqBase[footer.BlockNum] = hdr.SequenceNumber
	}
	index := hdr.SequenceNumber - f.seqBase[footer.BlockNum]
	f.blocks.AddSource(footer.BlockNum, footer.SourceBlkLen, index, payload)
	f.tryRecover(footer.BlockNum)
}

// AddRepair records a repair shard for its block.
func (f *FECReader) AddRepair(hdr fec.RepairHeader, shard []byte) {
	f.blocks.AddRepair(hdr.BlockNum, hdr.SourceBlkLen, hdr.RepairBlkLen, uint16(hdr.EncodingID), shard)
	f.tryRecover(hdr.BlockNum)
}

func (f *FECReader) tryRecover(blockNum uint32) {
	if f.recover == nil || !f.blocks.Ready(blockNum) {
		return
	}
	missing := f.blocks.Missing(blockNum)
	if len(missing) == 0 {
		return
	}
	source, repair := f.blocks.Shards(blockNum)
	recovered := f.recover(source, repair, uint16(len(source)+len(missing)))
	for idx, payload := range recovered {
		f.blocks.PutRecovered(blockNum, idx, payload)
	}
}

// Drain returns all currently-recovered/received source shards for
// blockNum in index order, and evicts the block.
func (f *FECReader) Drain(blockNum uint32) [][]byte {
	source, _ := f.blocks.Shards(blockNum)
	out := make([][]byte, 0, len(source))
	for i := uint16(0); i < uint16(len(source)); i++ {
		if payload, ok := source[i]; ok {
			out = append(out, payload)
		}
	}
	f.blocks.Evict(blockNum)
	delete(f.seqBase, blockNum)
	return out
}

// EvictStale drops a block without attempting further recovery,
// used when the sorted queue's playback position has moved past it.
func (f *FECReader) EvictStale(blockNum uint32) {
	f.blocks.Evict(blockNum)
	delete(f.seqBase, blockNum)
}

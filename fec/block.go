package fec

// BlockReader accumulates source and repair shards into blocks keyed by
// block number, and reports when a block has enough shards present to
// let an external FEC codec (out of scope here, per spec §1) attempt
// reconstruction. It implements the bookkeeping half of spec 4.G's "FEC
// reader": "accumulates source + repair packets into blocks; when
// sufficient shards arrive, reconstructs missing source packets; emits
// them in order. Bounded block memory; stale blocks evicted."
//
// The actual Reed-Solomon/LDPC reconstruction math is an external
// collaborator; BlockReader only tracks which shard slots are filled
// and exposes them for a codec to consume, and decides eviction order.
type BlockReader struct {
	scheme    Scheme
	maxBlocks int
	order     []uint32 // block numbers, oldest first
	blocks    map[uint32]*block
}

type block struct {
	sourceBlkLen uint16
	repairBlkLen uint16
	source       map[uint16][]byte // index within block -> payload
	repair       map[uint16][]byte
}

// NewBlockReader creates a block reader for scheme that retains at most
// maxBlocks concurrent blocks before evicting the oldest.
func NewBlockReader(scheme Scheme, maxBlocks int) *BlockReader {
	if maxBlocks <= 0 {
		panic("fec: block reader: max blocks must be > 0")
	}
	return &BlockReader{
		scheme:    scheme,
		maxBlocks: maxBlocks,
		blocks:    make(map[uint32]*block),
	}
}

// AddSource records a source shard at the given intra-block index.
func (r *BlockReader) AddSource(blockNum uint32, blkLen uint16, index uint16, payload []byte) {
	b := r.blockFor(blockNum, blkLen, 0)
	b.source[index] = payload
}

// AddRepair records a repair shard at the given intra-block index.
func (r *BlockReader) AddRepair(blockNum uint32, sourceBlkLen, repairBlkLen uint16, index uint16, payload []byte) {
	b := r.blockFor(blockNum, sourceBlkLen, repairBlkLen)
	b.repair[index] = payload
}

// Ready reports whether blockNum currently holds enough shards (source
// + repair ≥ declared source length) for a codec to attempt recovery of
// any missing source shards.
func (r *BlockReader) Ready(blockNum uint32) bool {
	b, ok := r.blocks[blockNum]
	if !ok || b.sourceBlkLen == 0 {
		return false
	}
	return len(b.source)+len(b.repair) >= int(b.sourceBlkLen)
}

// Missing returns the indexes of source shards not yet present in
// blockNum, the set a codec needs to reconstruct.
func (r *BlockReader) Missing(blockNum uint32) []uint16 {
	b, ok := r.blocks[blockNum]
	if !ok {
		return nil
	}
	var missing []uint16
	for i := uint16(0); i < b.sourceBlkLen; i++ {
		if _, ok := b.source[i]; !ok {
			missing = append(missing, i)
		}
	}
	return missing
}

// Shards returns the currently-present source and repair shard maps for
// blockNum, for a codec to read.
func (r *BlockReader) Shards(blockNum uint32) (source, repair map[uint16][]byte) {
	b, ok := r.blocks[blockNum]
	if !ok {
		return nil, nil
	}
	return b.source, b.repair
}

// PutRecovered records a codec's reconstruction of a missing source
// shard, so subsequent reads see it as present.
func (r *BlockReader) PutRecovered(blockNum uint32, index uint16, payload []byte) {
	b, ok := r.blocks[blockNum]
	if !ok {
		return
	}
	b.source[index] = payload
}

// Evict drops blockNum from memory (it has been fully drained or has
// gone stale relative to the sorted queue's playback position).
func (r *BlockReader) Evict(blockNum uint32) {
	if _, ok := r.blocks[blockNum]; !ok {
		return
	}
	delete(r.blocks, blockNum)
	for i, n := range r.order {
		if n == blockNum {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *BlockReader) blockFor(blockNum uint32, sourceBlkLen, repairBlkLen uint16) *block {
	b, ok := r.blocks[blockNum]
	if !ok {
		b = &block{source: make(map[uint16][]byte), repair: make(map[uint16][]byte)}
		r.blocks[blockNum] = b
		r.order = append(r.order, blockNum)
		if len(r.order) > r.maxBlocks {
			stale := r.order[0]
			r.order = r.order[1:]
			delete(r.blocks, stale)
		}
	}
	if sourceBlkLen > 0 {
		b.sourceBlkLen = sourceBlkLen
	}
	if repairBlkLen > 0 {
		b.repairBlkLen = repairBlkLen
	}
	return b
}

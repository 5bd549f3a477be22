package audio

// ChannelMapper builds and applies a routing matrix between an input and
// an output ChannelSet, per spec 4.B "Channel Mapper".
type ChannelMapper struct {
	inChans  ChannelSet
	outChans ChannelSet
	matrix   [ChanPosMax][ChanPosMax]float32
	// identity is true when in and out sets are equal: Map becomes a
	// pure passthrough and skips the matrix multiply.
	identity bool
}

// NewChannelMapper builds the routing matrix between inChans and
// outChans following the 5-step build protocol from spec 4.B.
func NewChannelMapper(inChans, outChans ChannelSet) *ChannelMapper {
	m := &ChannelMapper{inChans: inChans, outChans: outChans}
	if inChans.Equal(outChans) {
		m.identity = true
		return m
	}

	// Step 1: translate each set into an index map. For surround sets
	// this is the position order defined by the set's Order tag; we
	// don't need the explicit index map as a separate structure because
	// ChanPos values already double as matrix indexes.

	// Step 2: find the first matching table, possibly reversed (upmix).
	table, reversed := findTable(inChans, outChans)

	if table == nil {
		// Step 3: no match, diagonal identity.
		m.setDiagonal()
	} else {
		// Step 4: fill the matrix from the table's rules.
		m.applyTable(*table, reversed)
	}

	// Step 5: normalize rows.
	m.normalize()

	return m
}

func findTable(inChans, outChans ChannelSet) (*MapTable, bool) {
	targetIn := uint32(inChans.words[0])
	targetOut := uint32(outChans.words[0])

	for i := range chanMaps {
		t := &chanMaps[i]
		if (t.OutMask&targetOut) == targetOut && (t.InMask&targetIn) == targetIn {
			return t, false
		}
	}
	for i := range chanMaps {
		t := &chanMaps[i]
		// Reversed roles: this table's declared in/out are swapped
		// relative to what we need, i.e. it's an upmix of a downmix
		// table. Treat it as a match with inverted coefficients.
		if (t.InMask&targetOut) == targetOut && (t.OutMask&targetIn) == targetIn {
			return t, true
		}
	}
	return nil, false
}

func (m *ChannelMapper) setDiagonal() {
	for p := ChanPos(0); p < ChanPosMax; p++ {
		if m.inChans.HasChannel(int(p)) && m.outChans.HasChannel(int(p)) {
			m.matrix[p][p] = 1
		}
	}
}

func (m *ChannelMapper) applyTable(t MapTable, reversed bool) {
	seen := make(map[[2]ChanPos]bool, len(t.Rules))
	for _, r := range t.Rules {
		if r.Coeff == 0 {
			break // terminating rule
		}
		outCh, inCh, coeff := r.OutCh, r.InCh, r.Coeff
		if reversed {
			outCh, inCh = inCh, outCh
			coeff = 1 / coeff
		}
		key := [2]ChanPos{outCh, inCh}
		if seen[key] {
			// spec 4.B step 4: "no two rules may target the same
			// (out,in) pair" — last write silently wins rather than
			// panicking, since this can only happen from a malformed
			// static table and the mapper has no channel to report it.
		}
		seen[key] = true
		if int(outCh) < len(m.matrix) && int(inCh) < len(m.matrix[0]) {
			m.matrix[outCh][inCh] = coeff
		}
	}
}

func (m *ChannelMapper) normalize() {
	for out := ChanPos(0); out < ChanPosMax; out++ {
		var sum float32
		for in := ChanPos(0); in < ChanPosMax; in++ {
			sum += m.matrix[out][in]
		}
		if sum == 0 {
			continue
		}
		for in := ChanPos(0); in < ChanPosMax; in++ {
			m.matrix[out][in] /= sum
		}
	}
}

// Coeff returns the matrix coefficient routing input channel inCh into
// output channel outCh.
func (m *ChannelMapper) Coeff(outCh, inCh ChanPos) float32 {
	if m.identity {
		if outCh == inCh {
			return 1
		}
		return 0
	}
	if int(outCh) >= len(m.matrix) || int(inCh) >= len(m.matrix[0]) {
		return 0
	}
	return m.matrix[outCh][inCh]
}

// Map converts n samples-per-channel from in (using m.inChans layout) to
// out (using m.outChans layout). Both slices must be sized exactly for
// n*NumChannels of their respective channel sets.
func (m *ChannelMapper) Map(in, out []float32, n int) {
	inN := m.inChans.NumChannels()
	outN := m.outChans.NumChannels()

	if m.identity {
		copy(out, in)
		return
	}

	inOrder := orderedChannels(m.inChans)
	outOrder := orderedChannels(m.outChans)

	for s := 0; s < n; s++ {
		inBase := s * inN
		outBase := s * outN
		for oi, outPos := range outOrder {
			var acc float32
			for ii, inPos := range inOrder {
				c := m.Coeff(outPos, inPos)
				if c != 0 {
					acc += c * in[inBase+ii]
				}
			}
			out[outBase+oi] = acc
		}
	}
}

// orderedChannels returns the ChanPos of every enabled channel in cs, in
// the serialization order implied by cs.Order().
func orderedChannels(cs ChannelSet) []ChanPos {
	var out []ChanPos
	for _, p := range orderFor(cs.Order()) {
		if cs.HasChannel(int(p)) {
			out = append(out, p)
		}
	}
	return out
}

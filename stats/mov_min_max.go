package stats

// MovMinMax computes the rolling-window minimum and maximum using the
// monotonic-deque ("sliding window maximum") algorithm: amortized O(1)
// per sample, O(win_len) worst case for a single Add.
type MovMinMax struct {
	winLen  int
	buffer  []float64
	bufferI int
	full    bool
	written int // buffer slots [0, written) hold real samples

	dequeMax []float64 // descending; front is current max
	dequeMin []float64 // ascending; front is current min
	curMax   float64
	curMin   float64
}

// NewMovMinMax creates an estimator over a window of winLen samples.
func NewMovMinMax(winLen int) *MovMinMax {
	if winLen <= 0 {
		panic("stats: mov min max: window length must be greater than 0")
	}
	return &MovMinMax{
		winLen: winLen,
		buffer: make([]float64, winLen),
	}
}

// IsFull reports whether the window has been filled at least once.
func (m *MovMinMax) IsFull() bool { return m.full }

// Min returns the current rolling minimum. O(1).
func (m *MovMinMax) Min() float64 { return m.curMin }

// Max returns the current rolling maximum. O(1).
func (m *MovMinMax) Max() float64 { return m.curMax }

// Add shifts the window by one sample x.
func (m *MovMinMax) Add(x float64) {
	evict := m.bufferI < m.written
	xOld := m.buffer[m.bufferI]
	m.buffer[m.bufferI] = x
	if m.bufferI >= m.written {
		m.written = m.bufferI + 1
	}

	m.bufferI++
	if m.bufferI == m.winLen {
		m.bufferI = 0
		m.full = true
	}

	m.slideMax(x, xOld, evict)
	m.slideMin(x, xOld, evict)
}

func (m *MovMinMax) slideMax(x, xOld float64, evict bool) {
	if len(m.dequeMax) == 0 {
		m.dequeMax = append(m.dequeMax, x)
		m.curMax = x
		return
	}
	if evict && m.dequeMax[0] == xOld {
		m.dequeMax = m.dequeMax[1:]
		if len(m.dequeMax) == 0 {
			m.curMax = x
		} else {
			m.curMax = m.dequeMax[0]
		}
	}
	for len(m.dequeMax) > 0 && m.dequeMax[len(m.dequeMax)-1] < x {
		m.dequeMax = m.dequeMax[:len(m.dequeMax)-1]
	}
	if len(m.dequeMax) == 0 {
		m.curMax = x
	}
	m.dequeMax = append(m.dequeMax, x)
}

func (m *MovMinMax) slideMin(x, xOld float64, evict bool) {
	if len(m.dequeMin) == 0 {
		m.dequeMin = append(m.dequeMin, x)
		m.curMin = x
		return
	}
	if evict && m.dequeMin[0] == xOld {
		m.dequeMin = m.dequeMin[1:]
		if len(m.dequeMin) == 0 {
			m.curMin = x
		} else {
			m.curMin = m.dequeMin[0]
		}
	}
	for len(m.dequeMin) > 0 && m.dequeMin[len(m.dequeMin)-1] > x {
		m.dequeMin = m.dequeMin[:len(m.dequeMin)-1]
	}
	if len(m.dequeMin) == 0 {
		m.curMin = x
	}
	m.dequeMin = append(m.dequeMin, x)
}

// ExtendWin grows the window in place; the deque-based algorithm needs no
// data beyond the current deques, so growth is a cheap bookkeeping
// update (history beyond the previous window is, as documented for every
// estimator in this package, not reconstructed).
func (m *MovMinMax) ExtendWin(newLen int) {
	if newLen <= m.winLen {
		return
	}
	grown := make([]float64, newLen)
	copy(grown, m.buffer)
	m.buffer = grown
	m.winLen = newLen
	m.full = false
}

package stats

import "gonum.org/v1/gonum/floats"

// MovQuantile computes an exact rolling-window quantile. The original
// codebase implements this with a partition-heap so a single Add stays
// O(log win_len); that structure is deeply intrusive (three parallel
// index arrays cross-referencing heap/element positions) and has no
// natural idiomatic-Go shape. This port instead keeps a plain ring
// buffer of the window and, on read, copies the live window and sorts it
// with gonum's floats.Sort — O(win_len log win_len) per read instead of
// O(log win_len) per write, traded deliberately for a much smaller,
// easier-to-verify implementation; see DESIGN.md.
type MovQuantile struct {
	winLen   int
	quantile float64
	buffer   []float64
	bufferI  int
	filled   int
	full     bool

	scratch []float64
}

// NewMovQuantile creates an estimator for the given quantile (0..1) over
// a window of winLen samples.
func NewMovQuantile(winLen int, quantile float64) *MovQuantile {
	if winLen <= 0 {
		panic("stats: mov quantile: window length must be greater than 0")
	}
	if quantile < 0 || quantile > 1 {
		panic("stats: mov quantile: quantile should be between 0 and 1")
	}
	return &MovQuantile{
		winLen:   winLen,
		quantile: quantile,
		buffer:   make([]float64, winLen),
	}
}

// IsFull reports whether the window has been filled at least once.
func (m *MovQuantile) IsFull() bool { return m.full }

// Add shifts the window by one sample x.
func (m *MovQuantile) Add(x float64) {
	m.buffer[m.bufferI] = x
	m.bufferI++
	if m.filled < m.winLen {
		m.filled++
	}
	if m.bufferI == m.winLen {
		m.bufferI = 0
		m.full = true
	}
}

// Quantile returns the current estimate of the configured quantile.
func (m *MovQuantile) Quantile() float64 {
	if m.filled == 0 {
		return 0
	}
	if cap(m.scratch) < m.filled {
		m.scratch = make([]float64, m.filled)
	}
	m.scratch = m.scratch[:m.filled]
	copy(m.scratch, m.buffer[:m.filled])
	floats.Sort(m.scratch)

	idx := int(m.quantile * float64(m.filled-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= m.filled {
		idx = m.filled - 1
	}
	return m.scratch[idx]
}

// ExtendWin grows the window in place.
func (m *MovQuantile) ExtendWin(newLen int) {
	if newLen <= m.winLen {
		return
	}
	grown := make([]float64, newLen)
	n := m.filled
	for i := 0; i < n; i++ {
		idx := (m.bufferI - n + i + m.winLen) % m.winLen
		grown[i] = m.buffer[idx]
	}
	m.buffer = grown
	m.bufferI = n % newLen
	m.winLen = newLen
	m.full = false
}

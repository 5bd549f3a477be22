// Package stats implements the rolling-window estimators used across the
// receiver pipeline for jitter and latency metrics (spec 4.M): moving
// average/variance, moving min/max, moving quantile, and moving
// histogram. All four share the shape described by the Estimator
// interface: Add shifts the window by one sample, IsFull reports whether
// the window has filled at least once, and ExtendWin grows the window in
// place without reconstructing history older than the previous window
// (spec 4.M: "a transient inaccuracy is accepted").
package stats

import "math"

// Estimator is the shape every rolling-window estimator in this package
// satisfies.
type Estimator interface {
	Add(x float64)
	IsFull() bool
	ExtendWin(newLen int)
}

// MovAvgStd computes a rolling-window mean and variance in O(1) per
// sample using Welford's algorithm, adapted for a sliding (not just
// expanding) window. Per spec §9's open question resolution, this
// replaces the numerically weak two-pass-sum "MovAggregate" variant that
// the original codebase also carried: this port keeps only the Welford
// estimator.
type MovAvgStd struct {
	winLen   int
	buffer   []float64
	bufferI  int
	mean     float64
	variance float64
	full     bool
	filled   int
}

// NewMovAvgStd creates an estimator over a window of winLen samples.
// Panics if winLen <= 0, matching the original's documented precondition.
func NewMovAvgStd(winLen int) *MovAvgStd {
	if winLen <= 0 {
		panic("stats: mov avg std: window length must be greater than 0")
	}
	return &MovAvgStd{
		winLen: winLen,
		buffer: make([]float64, winLen),
	}
}

// IsFull reports whether the window has been filled at least once.
func (m *MovAvgStd) IsFull() bool { return m.full }

// Avg returns the current moving average. O(1).
func (m *MovAvgStd) Avg() float64 { return m.mean }

// Var returns the current moving variance. O(1). Clamped to zero to
// absorb floating-point drift that could otherwise produce a tiny
// negative variance.
func (m *MovAvgStd) Var() float64 {
	if m.variance > 0 {
		return m.variance
	}
	return 0
}

// Std returns the current moving standard deviation. O(1).
func (m *MovAvgStd) Std() float64 {
	v := m.Var()
	if v <= 0 {
		return 0
	}
	return math.Sqrt(v)
}

// Add shifts the window by one sample x. O(1).
func (m *MovAvgStd) Add(x float64) {
	xOld := m.buffer[m.bufferI]
	m.buffer[m.bufferI] = x

	if m.full {
		meanOld := m.mean
		m.mean += (x - xOld) / float64(m.winLen)
		m.variance += ((x - m.mean) + (xOld - meanOld)) / float64(m.winLen) * (x - xOld)
	} else {
		meanOld := m.mean
		n := float64(m.bufferI)
		m.mean += (x - m.mean) / (n + 1)
		if n > 0 {
			m.variance = (m.variance + (x-meanOld)/n*(x-m.mean)) * (n / (n + 1))
		}
	}

	m.bufferI++
	if m.bufferI == m.winLen {
		m.bufferI = 0
		m.full = true
	}
	if m.filled < m.winLen {
		m.filled++
	}
}

// ExtendWin grows the window to newLen in place. Samples older than the
// previous window are not reconstructed.
func (m *MovAvgStd) ExtendWin(newLen int) {
	if newLen <= m.winLen {
		return
	}
	grown := make([]float64, newLen)
	// Re-lay the ring out starting from the oldest sample so bufferI can
	// stay a simple trailing index into the larger buffer.
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


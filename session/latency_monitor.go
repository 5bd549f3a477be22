package session

import "github.com/roc-streaming/rocrecv/stats"

// LatencyMonitor measures end-to-end latency from RTCP-derived remote
// timing plus local sink-clock observation, maintaining moving
// statistics that Session exposes through its Latency* getters, and
// feeding the resampler's rate controller. It does not publish to the
// metrics package itself.
type LatencyMonitor struct {
	targetBacklog int
	latencyNs     *stats.MovAvgStd
	jitterNs      *stats.MovAvgStd

	lastSendNs    int64
	hasRemoteTime bool
}

// NewLatencyMonitor creates a LatencyMonitor targeting targetBacklog
// packets of buffering, maintaining moving windows of winLen samples.
func NewLatencyMonitor(targetBacklog, winLen int) *LatencyMonitor {
	return &LatencyMonitor{
		targetBacklog: targetBacklog,
		latencyNs:     stats.NewMovAvgStd(winLen),
		jitterNs:      stats.NewMovAvgStd(winLen),
	}
}

// AddSendingMetrics records an RTCP SR's remote send timestamp, used
// as the reference point for latency computation.
func (m *LatencyMonitor) AddSendingMetrics(remoteSendNs int64) {
	m.lastSendNs = remoteSendNs
	m.hasRemoteTime = true
}

// Reclock records that the sink physically consumed a frame at
// playbackNs (local clock), comparing it against the last known remote
// send timestamp to derive an e2e latency sample.
func (m *LatencyMonitor) Reclock(playbackNs int64) {
	if !m.hasRemoteTime {
		return
	}
	latency := playbackNs - m.lastSendNs
	if latency < 0 {
		latency = 0
	}
	prevAvg := m.latencyNs.Avg()
	m.latencyNs.Add(float64(latency))
	m.jitterNs.Add(abs(float64(latency) - prevAvg))
}

// Deviation returns target_backlog - actual_backlog in packets, the
// signal the resampler's RateController consumes.
func (m *LatencyMonitor) Deviation(actualBacklog int) float64 {
	return float64(m.targetBacklog - actualBacklog)
}

// MeanLatencyNs returns the moving mean of observed e2e latency.
func (m *LatencyMonitor) MeanLatencyNs() float64 { return m.latencyNs.Avg() }

// VarianceLatencyNs returns the moving variance of observed e2e latency.
func (m *LatencyMonitor) VarianceLatencyNs() float64 { return m.latencyNs.Var() }

// MeanJitterNs returns the moving mean of latency jitter (successive
// deviation from the running mean).
func (m *LatencyMonitor) MeanJitterNs() float64 { return m.jitterNs.Avg() }

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

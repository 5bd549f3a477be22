// Package metrics exposes the per-session and per-slot observables
// spec.md's component N (Metrics & State) calls for, as Prometheus
// gauge vectors, grounded on the teacher repo's promauto-based
// PrometheusMetrics struct (madpsy-ka9q_ubersdr/prometheus.go): one
// GaugeVec per measurement, registered via promauto.NewGaugeVec at
// construction time, labeled by an identifying dimension (there,
// "band"; here, slot index and session SSRC).
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every gauge this receiver publishes.
type Registry struct {
	numSessions *prometheus.GaugeVec

	latencyMeanNs *prometheus.GaugeVec
	latencyVarNs  *prometheus.GaugeVec
	jitterMeanNs  *prometheus.GaugeVec

	packetLossRatio  *prometheus.GaugeVec
	fecRecoveryRatio *prometheus.GaugeVec
	plcActiveRatio   *prometheus.GaugeVec

	watchdogState *prometheus.GaugeVec
	resamplerPPM  *prometheus.GaugeVec
	sourceBacklog *prometheus.GaugeVec
	droppedParse  *prometheus.GaugeVec
	droppedRoute  *prometheus.GaugeVec
}

// NewRegistry creates and registers every gauge with the default
// Prometheus registry, the same way the teacher's NewPrometheusMetrics
// does.
func NewRegistry() *Registry {
	return &Registry{
		numSessions: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rocrecv_slot_sessions",
				Help: "Number of live sessions in a receiver slot.",
			},
			[]string{"slot"},
		),
		latencyMeanNs: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rocrecv_session_latency_mean_ns",
				Help: "Moving mean of end-to-end latency in nanoseconds.",
			},
			[]string{"slot", "ssrc"},
		),
		latencyVarNs: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rocrecv_session_latency_variance_ns2",
				Help: "Moving variance of end-to-end latency.",
			},
			[]string{"slot", "ssrc"},
		),
		jitterMeanNs: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rocrecv_session_jitter_mean_ns",
				Help: "Moving mean of latency jitter in nanoseconds.",
			},
			[]string{"slot", "ssrc"},
		),
		packetLossRatio: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rocrecv_session_packet_loss_ratio",
				Help: "Fraction of expected packets not received.",
			},
			[]string{"slot", "ssrc"},
		),
		fecRecoveryRatio: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rocrecv_session_fec_recovery_ratio",
				Help: "Fraction of lost source packets recovered via FEC.",
			},
			[]string{"slot", "ssrc"},
		),
		plcActiveRatio: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rocrecv_session_plc_active_ratio",
				Help: "Fraction of recent frames synthesized by PLC.",
			},
			[]string{"slot", "ssrc"},
		),
		watchdogState: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rocrecv_session_watchdog_dead",
				Help: "1 if the session's watchdog has declared it dead, else 0.",
			},
			[]string{"slot", "ssrc"},
		),
		resamplerPPM: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rocrecv_session_resampler_ppm",
				Help: "Current resampler clock-rate adjustment in parts per million.",
			},
			[]string{"slot", "ssrc"},
		),
		sourceBacklog: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rocrecv_session_source_backlog_packets",
				Help: "Current depth of the session's source sorted queue.",
			},
			[]string{"slot", "ssrc"},
		),
		droppedParse: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rocrecv_endpoint_dropped_parse_total",
				Help: "Cumulative packets dropped for failing to parse.",
			},
			[]string{"slot", "iface"},
		),
		droppedRoute: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rocrecv_endpoint_dropped_route_total",
				Help: "Cumulative packets dropped by the router.",
			},
			[]string{"slot", "iface"},
		),
	}
}

// SlotReport is a snapshot of one slot's observable state, per
// spec.md's "per-slot reports".
type SlotReport struct {
	SlotIndex   int
	NumSessions int
}

// ParticipantReport is a snapshot of one session's observable state,
// per spec.md's "per-session reports".
type ParticipantReport struct {
	SSRC              uint32
	LatencyMeanNs     float64
	LatencyVarianceNs float64
	JitterMeanNs      float64
	PacketLossRatio   float64
	FECRecoveryRatio  float64
	PLCActiveRatio    float64
	WatchdogDead      bool
	ResamplerPPM      float64
	SourceBacklog     int
}

// ObserveSlot publishes slot-level gauges.
func (r *Registry) ObserveSlot(report SlotReport) {
	slot := strconv.Itoa(report.SlotIndex)
	r.numSessions.WithLabelValues(slot).Set(float64(report.NumSessions))
}

// ObserveParticipant publishes per-session gauges.
func (r *Registry) ObserveParticipant(slotIndex int, report ParticipantReport) {
	slot := strconv.Itoa(slotIndex)
	ssrc := strconv.FormatUint(uint64(report.SSRC), 10)

	r.latencyMeanNs.WithLabelValues(slot, ssrc).Set(report.LatencyMeanNs)
	r.latencyVarNs.WithLabelValues(slot, ssrc).Set(report.LatencyVarianceNs)
	r.jitterMeanNs.WithLabelValues(slot, ssrc).Set(report.JitterMeanNs)
	r.packetLossRatio.WithLabelValues(slot, ssrc).Set(report.PacketLossRatio)
	r.fecRecoveryRatio.WithLabelValues(slot, ssrc).Set(report.FECRecoveryRatio)
	r.plcActiveRatio.WithLabelValues(slot, ssrc).Set(report.PLCActiveRatio)
	r.resamplerPPM.WithLabelValues(slot, ssrc).Set(report.ResamplerPPM)
	r.sourceBacklog.WithLabelValues(slot, ssrc).Set(float64(report.SourceBacklog))

	dead := 0.0
	if report.WatchdogDead {
		dead = 1.0
	}
	r.watchdogState.WithLabelValues(slot, ssrc).Set(dead)
}

// ObserveEndpointDrops publishes per-endpoint drop counters.
func (r *Registry) ObserveEndpointDrops(slotIndex int, iface string, droppedParse, droppedRoute int64) {
	slot := strconv.Itoa(slotIndex)
	r.droppedParse.WithLabelValues(slot, iface).Set(float64(droppedParse))
	r.droppedRoute.WithLabelValues(slot, iface).Set(float64(droppedRoute))
}

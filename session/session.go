package session

import (
	"github.com/roc-streaming/rocrecv/audio"
	"github.com/roc-streaming/rocrecv/fec"
	"github.com/roc-streaming/rocrecv/status"
)

// Config bundles the tunables for one Session's DSP chain.
type Config struct {
	SourceQueueCapacity int
	RepairQueueCapacity int
	TargetLatencyPkts   int
	SamplesPerPacket    uint32
	MaxSeqGap           uint16
	PLCHistoryLen       int
	PLCHorizonFrames    int

	ResamplerKp, ResamplerKi         float64
	ResamplerMinPPM, ResamplerMaxPPM float64

	NoPlaybackTimeoutNs int64
	SilenceTimeoutNs    int64
	GapTimeoutNs        int64
	LatencyWinLen       int
}

// Session is one remote sender's full per-session DSP chain, per
// spec 3 "Session" and spec 4.G's fixed chain diagram.
type Session struct {
	SourceAddr string
	SSRC       uint32

	sourceQueue *SortedQueue
	repairQueue *SortedQueue
	delayed     *DelayedReader
	fecReader   *FECReader
	validator   *Validator
	depacket    *Depacketizer
	plc         *PLC
	resampler   *Resampler
	watchdog    *Watchdog
	latency     *LatencyMonitor

	terminated bool
}

// New creates a Session for one remote sender, wiring the fixed chain
// from cfg. decode and conceal are the pluggable codec/PLC backends
// (external collaborators, per spec §1); recover is the FEC codec
// callback, or nil to disable recovery.
func New(sourceAddr string, ssrc uint32, spec audio.SampleSpec, outRate uint32, fecScheme fec.Scheme, cfg Config, decode PayloadDecodeFunc, conceal ConcealFunc, recover RecoveryFunc) *Session {
	sourceQueue := NewSortedQueue(cfg.SourceQueueCapacity)
	var repairQueue *SortedQueue
	if fecScheme != fec.SchemeNone {
		repairQueue = NewSortedQueue(cfg.RepairQueueCapacity)
	}

	controller := NewRateController(cfg.ResamplerKp, cfg.ResamplerKi, cfg.ResamplerMinPPM, cfg.ResamplerMaxPPM)

	return &Session{
		SourceAddr:  sourceAddr,
		SSRC:        ssrc,
		sourceQueue: sourceQueue,
		repairQueue: repairQueue,
		delayed:     NewDelayedReader(sourceQueue, cfg.TargetLatencyPkts),
		fecReader:   NewFECReader(fecScheme, 32, recover),
		validator:   NewValidator(cfg.MaxSeqGap),
		depacket:    NewDepacketizer(spec, cfg.SamplesPerPacket, decode),
		plc:         NewPLC(conceal, cfg.PLCHistoryLen, cfg.PLCHorizonFrames),
		resampler:   NewResampler(spec.SampleRate, outRate, controller),
		watchdog:    NewWatchdog(cfg.NoPlaybackTimeoutNs, cfg.SilenceTimeoutNs, cfg.GapTimeoutNs),
		latency:     NewLatencyMonitor(cfg.TargetLatencyPkts, cfg.LatencyWinLen),
	}
}

// PushSource enqueues an inbound source (audio) packet, additionally
// feeding the FEC reader's block accounting when footer is non-nil
// (the packet was parsed as FEC-source framed).
func (s *Session) PushSource(p QueuedPacket, footer *fec.SourceFooter) {
	s.sourceQueue.Insert(p)
	if footer != nil && s.fecReader != nil {
		s.fecReader.AddSource(p.Header, *footer, p.Payload)
	}
}

// PushRepair enqueues an inbound repair (FEC) packet's shard into the
// FEC reader directly; repair packets carry no sequencing relevant to
// playback ordering, only to block membership.
func (s *Session) PushRepair(hdr fec.RepairHeader, shard []byte) {
	if s.fecReader != nil {
		s.fecReader.AddRepair(hdr, shard)
	}
}

// IsTerminated reports whether the session's validator or watchdog has
// decided the session is dead.
func (s *Session) IsTerminated() bool {
	return s.terminated || s.watchdog.IsDead()
}

// ReadFrame pulls one frame through the chain: delayed-reader ->
// validator -> depacketizer -> PLC -> resampler output, updating the
// watchdog as it goes. It implements audio.FrameReader so a Session
// can feed the mixer directly.
func (s *Session) ReadFrame(out []float32, duration uint32) (n uint32, captureNs int64, ok bool) {
	if s.terminated {
		return 0, 0, false
	}

	qp, hasPacket := s.delayed.Pop()
	var pp *QueuedPacket
	if hasPacket {
		switch s.validator.Check(qp.Header) {
		case ErrPayloadTypeChanged, ErrTimestampNonMonotonic:
			s.terminated = true
			return 0, 0, false
		}
		pp = &qp
	}

	frame := s.depacket.Read(pp)
	s.plc.Process(frame)

	numCh := frame.Spec.NumChannels()
	deviation := s.latency.Deviation(s.sourceQueue.Len())
	scale := s.resampler.Scale(deviation)
	s.resampler.Resample(frame.Samples, out, numCh, scale)

	s.watchdog.RegisterFrame(frame.CaptureNs, frame.Flags&audio.FlagSilence != 0, frame.Flags.HasGap())
	if s.watchdog.IsDead() {
		s.terminated = true
	}

	return duration, frame.CaptureNs, true
}

// Refresh returns the earliest deadline (nanoseconds) at which an
// internal timer (currently, the watchdog) needs another look, per
// spec 4.G's refresh(now) contract.
func (s *Session) Refresh(now int64) int64 {
	return s.watchdog.NextDeadline()
}

// Reclock informs the session of when the sink physically consumed the
// most recently produced frame, for the latency monitor's e2e
// comparison against RTP/RTCP timing, per spec 4.G.
func (s *Session) Reclock(playbackNs int64) {
	s.latency.Reclock(playbackNs)
}

// AddSendingMetrics feeds RTCP-derived remote send timing into the
// latency monitor, driven by the session group's RTCP hooks.
func (s *Session) AddSendingMetrics(remoteSendNs int64) {
	s.latency.AddSendingMetrics(remoteSendNs)
}

// Status reports a coarse receiver-wide status for this session,
// primarily for the session group to decide whether to keep routing
// packets to it.
func (s *Session) Status() status.Code {
	if s.IsTerminated() {
		return status.Terminated
	}
	return status.OK
}

// LatencyMeanNs returns the moving mean of observed e2e latency, for
// metrics reporting.
func (s *Session) LatencyMeanNs() float64 { return s.latency.MeanLatencyNs() }

// LatencyVarianceNs returns the moving variance of observed e2e
// latency, for metrics reporting.
func (s *Session) LatencyVarianceNs() float64 { return s.latency.VarianceLatencyNs() }

// LatencyMeanJitterNs returns the moving mean of latency jitter, for
// metrics reporting.
func (s *Session) LatencyMeanJitterNs() float64 { return s.latency.MeanJitterNs() }

// SourceBacklog returns the current depth of the source sorted queue,
// for metrics reporting.
func (s *Session) SourceBacklog() int { return s.sourceQueue.Len() }

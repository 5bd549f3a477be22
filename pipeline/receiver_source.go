package pipeline

import (
	"github.com/roc-streaming/rocrecv/audio"
	"github.com/roc-streaming/rocrecv/state"
)

// ReceiverSource is the top-level frame producer: it aggregates every
// slot's session group output through a shared mixer, per spec 4.K.
// It is the object the sink thread pulls frames from.
type ReceiverSource struct {
	spec    audio.SampleSpec
	mixer   *audio.Mixer
	slots   []*Slot
	tracker *state.Tracker
}

// NewReceiverSource creates a ReceiverSource producing frames at spec.
func NewReceiverSource(spec audio.SampleSpec) *ReceiverSource {
	return &ReceiverSource{
		spec:    spec,
		mixer:   audio.NewMixer(spec, true),
		tracker: state.NewTracker(),
	}
}

// AddSlot registers slot with the source, so its session group's
// output participates in the next mix.
func (r *ReceiverSource) AddSlot(slot *Slot) {
	r.slots = append(r.slots, slot)
}

// RemoveSlot unregisters slot.
func (r *ReceiverSource) RemoveSlot(slot *Slot) {
	for i, s := range r.slots {
		if s == slot {
			r.slots = append(r.slots[:i], r.slots[i+1:]...)
			return
		}
	}
}

// Read pulls duration samples-per-channel from every slot's sessions
// and mixes them into frame, per spec 4.K / 4.J.
func (r *ReceiverSource) Read(frame *audio.Frame, duration uint32) int {
	frame.Resize(duration)

	var readers []audio.FrameReader
	for _, s := range r.slots {
		readers = append(readers, s.group.FrameReaders()...)
	}

	active := r.mixer.Mix(readers, frame, duration)
	if active > 0 {
		r.tracker.RegisterPacket()
	}
	return active
}

// Refresh pulls packets and refreshes sessions across every slot,
// returning the minimum deadline across all of them for the scheduler
// to pick a sleep duration.
func (r *ReceiverSource) Refresh(now int64) int64 {
	var minDeadline int64 = -1
	for _, s := range r.slots {
		d := s.Refresh(now)
		if d >= 0 && (minDeadline == -1 || d < minDeadline) {
			minDeadline = d
		}
	}
	return minDeadline
}

// Reclock informs every slot's sessions of the sink's playback time.
func (r *ReceiverSource) Reclock(playbackNs int64) {
	for _, s := range r.slots {
		s.Reclock(playbackNs)
	}
}

// NumSessions sums live sessions across all slots.
func (r *ReceiverSource) NumSessions() int {
	total := 0
	for _, s := range r.slots {
		total += s.NumSessions()
	}
	return total
}

// State reports the device state tracker backing this source.
func (r *ReceiverSource) State() *state.Tracker { return r.tracker }

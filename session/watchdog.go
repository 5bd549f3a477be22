package session

// Watchdog declares a session dead after too long without playable
// frames, or after persistent silence/gaps beyond their own timeouts,
// per spec 4.G: "on no-playable-frames for no_playback_timeout, or on
// persistent silence/gaps beyond their timeouts, declares session
// dead."
type Watchdog struct {
	noPlaybackTimeoutNs int64
	silenceTimeoutNs    int64
	gapTimeoutNs        int64

	lastPlayableNs int64
	hasPlayable    bool
	silenceSinceNs int64
	hasSilenceRun  bool
	gapSinceNs     int64
	hasGapRun      bool

	dead bool
}

// NewWatchdog creates a Watchdog with the given per-condition timeouts
// in nanoseconds. A zero timeout disables that condition.
func NewWatchdog(noPlaybackTimeoutNs, silenceTimeoutNs, gapTimeoutNs int64) *Watchdog {
	return &Watchdog{
		noPlaybackTimeoutNs: noPlaybackTimeoutNs,
		silenceTimeoutNs:    silenceTimeoutNs,
		gapTimeoutNs:        gapTimeoutNs,
	}
}

// RegisterFrame updates the watchdog with the outcome of the most
// recently produced frame at time now (nanoseconds, monotonic).
func (w *Watchdog) RegisterFrame(now int64, isSilence, isGap bool) {
	if w.dead {
		return
	}

	if !isSilence && !isGap {
		w.lastPlayableNs = now
		w.hasPlayable = true
	}

	if isSilence {
		if !w.hasSilenceRun {
			w.silenceSinceNs = now
			w.hasSilenceRun = true
		}
	} else {
		w.hasSilenceRun = false
	}

	if isGap {
		if !w.hasGapRun {
			w.gapSinceNs = now
			w.hasGapRun = true
		}
	} else {
		w.hasGapRun = false
	}

	if w.noPlaybackTimeoutNs > 0 && w.hasPlayable && now-w.lastPlayableNs > w.noPlaybackTimeoutNs {
		w.dead = true
	}
	if w.silenceTimeoutNs > 0 && w.hasSilenceRun && now-w.silenceSinceNs > w.silenceTimeoutNs {
		w.dead = true
	}
	if w.gapTimeoutNs > 0 && w.hasGapRun && now-w.gapSinceNs > w.gapTimeoutNs {
		w.dead = true
	}
}

// IsDead reports whether the watchdog has declared the session dead.
// Once true it stays true: a watchdog never resurrects a session.
func (w *Watchdog) IsDead() bool { return w.dead }

// NextDeadline returns the earliest time at which RegisterFrame could
// next flip IsDead, for the scheduler's refresh(now) sleep-duration
// calculation (spec 4.G).
func (w *Watchdog) NextDeadline() int64 {
	var deadline int64 = -1
	consider := func(since, timeout int64, active bool) {
		if timeout <= 0 || !active {
			return
		}
		d := since + timeout
		if deadline == -1 || d < deadline {
			deadline = d
		}
	}
	consider(w.lastPlayableNs, w.noPlaybackTimeoutNs, w.hasPlayable)
	consider(w.silenceSinceNs, w.silenceTimeoutNs, w.hasSilenceRun)
	consider(w.gapSinceNs, w.gapTimeoutNs, w.hasGapRun)
	return deadline
}

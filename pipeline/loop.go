package pipeline

import (
	"context"
	"sync"

	"github.com/roc-streaming/rocrecv/audio"
	"github.com/roc-streaming/rocrecv/status"
)

// Loop is the task-based facade over the receiver pipeline, per
// receiver_loop.h's ReceiverLoop. It exposes two surfaces —
// Read/Refresh/Reclock for the sink thread, and
// Schedule/ScheduleAndWait for any other goroutine that wants to create
// slots, add endpoints, or query state. Loop spawns no goroutine of its
// own: queued tasks run under mu, inside Read or Refresh, or inside
// ScheduleAndWait when no Read/Refresh holds mu. Every Task mutates
// Loop/Slot/SessionGroup state only from inside run(l), so those
// mutations never run concurrently with each other or with a Read or
// Refresh.
type Loop struct {
	source         *ReceiverSource
	sessionFactory SessionFactory
	slots          map[SlotHandle]*Slot

	mu sync.Mutex // held by Read/Refresh and while running queued tasks

	tasks chan taskEnvelope
	stop  chan struct{}
}

type taskEnvelope struct {
	task Task
	done chan status.Code
}

// NewLoop creates a Loop producing frames at spec, using factory to
// construct new sessions as slots observe inbound traffic.
func NewLoop(spec audio.SampleSpec, factory SessionFactory) *Loop {
	return &Loop{
		source:         NewReceiverSource(spec),
		sessionFactory: factory,
		slots:          make(map[SlotHandle]*Slot),
		tasks:          make(chan taskEnvelope, 64),
		stop:           make(chan struct{}),
	}
}

// Schedule enqueues task for asynchronous execution by the next Read,
// Refresh or ScheduleAndWait and returns immediately, mirroring
// IPipelineTaskScheduler::schedule_task_processing's "invoke as soon
// as possible" semantics for fire-and-forget tasks.
func (l *Loop) Schedule(task Task) {
	select {
	case l.tasks <- taskEnvelope{task: task}:
	case <-l.stop:
	}
}

// ScheduleAndWait enqueues task and blocks until it has been executed
// under the loop's mutex (or ctx is canceled), returning its
// result status. This is the Go substitute for roc's
// schedule_and_wait condition-variable wait, using a buffered
// completion channel per SPEC_FULL section 5.
func (l *Loop) ScheduleAndWait(ctx context.Context, task Task) status.Code {
	done := make(chan status.Code, 1)
	select {
	case l.tasks <- taskEnvelope{task: task, done: done}:
	case <-ctx.Done():
		return status.Terminated
	case <-l.stop:
		return status.Terminated
	}

	// Run the queue here unless a Read/Refresh holds the pipeline; in
	// that case the sink's current or next call runs the task.
	if l.mu.TryLock() {
		l.processTasks()
		l.mu.Unlock()
	}

	select {
	case code := <-done:
		return code
	case <-ctx.Done():
		return status.Terminated
	case <-l.stop:
		return status.Terminated
	}
}

// processTasks drains every task currently queued, without blocking.
// Must only be called with l.mu held (Read, Refresh or ScheduleAndWait).
func (l *Loop) processTasks() {
	for {
		select {
		case env := <-l.tasks:
			code := env.task.run(l)
			if env.done != nil {
				env.done <- code
			}
		default:
			return
		}
	}
}

// Read implements sndio's ISource surface: it first drains any
// pending tasks so slot/endpoint mutations are applied before the
// mix, then pulls duration samples-per-channel into frame. It is
// called from the sink thread and holds the loop's mutex throughout
// (no separate sndio thread is spawned).
func (l *Loop) Read(frame *audio.Frame, duration uint32) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.processTasks()
	return l.source.Read(frame, duration)
}

// Refresh drains pending tasks and refreshes every slot's sessions,
// returning the minimum deadline across all of them.
func (l *Loop) Refresh(now int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.processTasks()
	return l.source.Refresh(now)
}

// Reclock adjusts every session's clock to match the sink's playback
// position.
func (l *Loop) Reclock(playbackNs int64) {
	l.source.Reclock(playbackNs)
}

// NumSessions sums live sessions across all slots.
func (l *Loop) NumSessions() int { return l.source.NumSessions() }

// Close stops accepting new scheduled work. Already-queued tasks are
// left undrained; callers should ScheduleAndWait a final drain task
// first if they need a clean shutdown barrier.
func (l *Loop) Close() {
	close(l.stop)
}

package core

import (
	"sync/atomic"
	"time"

	"github.com/named-data/ndnd/std/types/lockfree"
	"github.com/named-data/ndnd/std/types/priority_queue"
)

// Loop is a cooperative, single-threaded event loop: exactly one
// goroutine ever executes posted jobs or fired timers, so table
// mutations performed from within a job never race - single-threaded
// ownership replaces locks. There are two loops
// in the daemon: the main loop (forwarder + tables) and the RIB loop
// (Rib + FibUpdater); they communicate only by Post-ing closures onto
// each other - a one-way send that enqueues a closure onto the
// target loop.
type Loop struct {
	jobs  *lockfree.YiQueue[func()]
	timer *timerWheel
	stop  chan struct{}
}

// NewLoop constructs a Loop. Call Run in its own goroutine to start
// draining it.
func NewLoop() *Loop {
	return &Loop{
		jobs:  lockfree.NewYiQueue[func()](),
		timer: newTimerWheel(),
		stop:  make(chan struct{}),
	}
}

// Post enqueues fn to run on this loop's goroutine. Safe to call from
// any goroutine, including another loop - this is the only permitted
// form of cross-loop communication.
func (l *Loop) Post(fn func()) {
	l.jobs.Push(fn)
}

// Run drains posted jobs and fires due timers until Stop is called. It
// must be invoked from the single goroutine that owns this loop.
func (l *Loop) Run() {
	for {
		for {
			fn, ok := l.jobs.Pop()
			if !ok {
				break
			}
			fn()
		}

		deadline, hasDeadline := l.timer.nextDeadline()
		if !hasDeadline {
			select {
			case <-l.jobs.Notify:
			case <-l.stop:
				return
			}
			continue
		}

		d := time.Until(deadline)
		if d <= 0 {
			l.timer.fireDue(time.Now())
			continue
		}

		t := time.NewTimer(d)
		select {
		case <-t.C:
			l.timer.fireDue(time.Now())
		case <-l.jobs.Notify:
			t.Stop()
		case <-l.stop:
			t.Stop()
			return
		}
	}
}

// Stop terminates Run.
func (l *Loop) Stop() {
	close(l.stop)
}

// Schedule arranges for fn to run on this loop after d, returning a
// cancellation handle. Every timer-bearing table entry owns such a
// handle: every scheduled event returns a cancellation handle stored
// on the owning entry, and replacing a timer must cancel
// the old handle first").
func (l *Loop) Schedule(d time.Duration, fn func()) EventId {
	return l.timer.schedule(time.Now().Add(d), func() { l.Post(fn) })
}

// ScheduleAt is like Schedule but takes an absolute deadline.
func (l *Loop) ScheduleAt(at time.Time, fn func()) EventId {
	return l.timer.schedule(at, func() { l.Post(fn) })
}

// scheduledJob is the value type stored in the timer wheel's priority
// queue. Cancellation is a flag on the job itself rather than on the
// heap position, since popping an arbitrary non-head element out of a
// binary heap is not supported by the underlying priority_queue.
type scheduledJob struct {
	fn        func()
	cancelled atomic.Bool
}

// EventId is a cancellation handle for a scheduled event. The zero
// value is valid and describes an event that can never be cancelled
// (because it was never scheduled); that is harmless since there is
// nothing to cancel.
type EventId struct {
	job *scheduledJob
}

// Cancel cancels the event if it has not already fired. Cancelling an
// already-fired or already-cancelled EventId is a safe no-op.
func (e EventId) Cancel() {
	if e.job == nil {
		return
	}
	e.job.cancelled.Store(true)
}

// timerWheel is a min-heap of pending timer jobs keyed by deadline
// (UnixNano), built on the "priority_queue" primitive. A scheduled
// job runs unless Cancel is called on its EventId first; dropping the
// EventId does not cancel it.
type timerWheel struct {
	pq priority_queue.Queue[*scheduledJob, int64]
}

func newTimerWheel() *timerWheel {
	return &timerWheel{pq: priority_queue.New[*scheduledJob, int64]()}
}

func (w *timerWheel) schedule(at time.Time, fn func()) EventId {
	job := &scheduledJob{fn: fn}
	w.pq.Push(job, at.UnixNano())
	return EventId{job: job}
}

// nextDeadline drops cancelled jobs off the head of the heap and
// returns the deadline of the next live one, if any.
func (w *timerWheel) nextDeadline() (time.Time, bool) {
	for w.pq.Len() > 0 {
		job := w.pq.Peek()
		if job.cancelled.Load() {
			w.pq.Pop()
			continue
		}
		return time.Unix(0, w.pq.PeekPriority()), true
	}
	return time.Time{}, false
}

// fireDue pops and runs every live job whose deadline has passed,
// silently dropping cancelled ones.
func (w *timerWheel) fireDue(now time.Time) {
	for w.pq.Len() > 0 && w.pq.PeekPriority() <= now.UnixNano() {
		job := w.pq.Pop()
		if !job.cancelled.Load() {
			job.fn()
		}
	}
}

package eventloop

import (
	"container/heap"
	"sync"
	"time"
)

// TimerHandle is a libuv-style timer handle: timer_init/timer_start/
// timer_active/close. Unlike ScheduleTimer (fire-and-forget), a TimerHandle
// can be stopped before it fires and closed, with the close callback
// guaranteed to run exactly once on the loop thread. FsPoll's PollContext
// embeds one per watched path; it is always used non-repeating, rearming
// explicitly via Start on every restart.
type TimerHandle struct {
	loop *Loop

	mu      sync.Mutex
	active  bool
	closing bool
	closed  bool
	cb      func()
}

// NewTimer initializes a timer handle bound to the loop (timer_init). The
// handle is inactive until Start is called.
func (l *Loop) NewTimer() *TimerHandle {
	return &TimerHandle{loop: l}
}

// Start arms the timer to fire cb once after timeout (timer_start). Starting
// an already-active timer first disarms the pending fire, matching the usual
// timer-handle contract. Returns ErrInvalidArgument if the handle is closing
// or already closed.
func (t *TimerHandle) Start(cb func(), timeout time.Duration) error {
	t.mu.Lock()
	if t.closing {
		t.mu.Unlock()
		return ErrInvalidArgument
	}
	t.active = true
	t.cb = cb
	t.mu.Unlock()

	when := t.loop.CurrentTickTime().Add(timeout)
	entry := timer{when: when, handle: t}
	return t.loop.SubmitInternal(Task{Runnable: func() {
		heap.Push(&t.loop.timers, entry)
	}})
}

// Active reports whether the timer is currently armed and waiting to fire
// (timer_active).
func (t *TimerHandle) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active && !t.closing
}

// Stop disarms the timer without closing the handle; it may be Start'ed
// again. A no-op if the timer isn't currently active.
func (t *TimerHandle) Stop() {
	t.mu.Lock()
	t.active = false
	t.cb = nil
	t.mu.Unlock()
}

// fire runs on the loop thread when this handle's heap entry comes due. A
// timer stopped or closed since Start is silently skipped instead of being
// removed from the heap (lazy deletion, same approach the ingress queues use
// for tombstoned slots).
func (t *TimerHandle) fire() {
	t.mu.Lock()
	if !t.active || t.closing {
		t.mu.Unlock()
		return
	}
	t.active = false
	cb := t.cb
	t.cb = nil
	t.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// Close asynchronously tears down the handle. closeCB runs exactly once on
// the loop thread, regardless of whether the timer was currently active, a
// pending fire suppressed, or the handle never started at all. Safe to call
// more than once; only the first call's closeCB runs.
func (t *TimerHandle) Close(closeCB func()) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.closing = true
	t.active = false
	t.cb = nil
	t.mu.Unlock()

	return t.loop.SubmitInternal(Task{Runnable: func() {
		if closeCB != nil {
			closeCB()
		}
	}})
}

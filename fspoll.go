package eventloop

import (
	"sync"
	"time"
)

// PollCallback is invoked when FsPoll detects a change or a stat error.
// status is 0 on a successful comparison or a negative error code on stat
// failure; prev/cur are the before/after snapshots (cur is the zero value
// on an error delivery).
type PollCallback func(h *FsPollHandle, status int, prev, cur StatSnapshot)

// FsPollHandle is a filesystem polling watcher: it periodically stats a
// path and invokes a callback when the stat result's metadata changes or
// when stat itself errors. It is a libuv-style handle (init/start/stop/
// close) layered on the loop's timer and asynchronous stat facility.
type FsPollHandle struct {
	loop *Loop

	mu      sync.Mutex
	active  bool
	closing bool
	ctx     *pollContext // head of the live-context chain; nil if none live
	closeCB func()
}

// pollContext is the internal per-start record (spec's PollContext). It is
// not exported: FsPollHandle is the only type callers need.
type pollContext struct {
	handle   *FsPollHandle
	path     string
	interval time.Duration

	// startTime anchors drift compensation: the next delay is computed as
	// interval - (elapsed mod interval) relative to this tick origin.
	startTime time.Time

	prevSnap StatSnapshot
	// busyPolling: 0 = no prior snapshot yet, 1 = steady state with a valid
	// prior snapshot, negative = sticky error code from the last failed stat.
	busyPolling int

	timer *TimerHandle
	cb    PollCallback

	// previous chains to the context this one's start superseded, while
	// that context's in-flight stat was still draining. Restart chaining:
	// see unlinkContext.
	previous *pollContext
}

// NewFsPoll initializes a new, idle watcher bound to the loop (init). Never
// fails.
func (l *Loop) NewFsPoll() *FsPollHandle {
	return &FsPollHandle{loop: l}
}

// Start begins polling path every interval (coerced up to at least 1ms),
// delivering results to cb (start). A no-op, returning nil, if the handle
// is already active. If a previous context's stat is still in flight (the
// handle was stopped and immediately restarted), the new context chains to
// it via previous rather than disturbing it; the in-flight stat's
// completion will observe it is no longer current and unwind itself.
func (h *FsPollHandle) Start(path string, interval time.Duration, cb PollCallback) error {
	h.mu.Lock()
	if h.closing {
		h.mu.Unlock()
		return ErrInvalidArgument
	}
	if h.active {
		h.mu.Unlock()
		return nil
	}
	if interval < time.Millisecond {
		interval = time.Millisecond
	}

	previous := h.ctx

	ctx := &pollContext{
		handle:    h,
		path:      path,
		interval:  interval,
		startTime: h.loop.CurrentTickTime(),
		cb:        cb,
		previous:  previous,
	}
	ctx.timer = h.loop.NewTimer()

	h.ctx = ctx
	h.active = true
	h.mu.Unlock()

	if err := ctx.dispatchStat(); err != nil {
		h.mu.Lock()
		if h.ctx == ctx {
			h.ctx = previous
		}
		h.active = false
		h.mu.Unlock()
		return err
	}

	return nil
}

// dispatchStat issues an asynchronous stat of the context's path, delivering
// to onStatComplete.
func (c *pollContext) dispatchStat() error {
	return c.handle.loop.statAsync(&statRequest{
		loop: c.handle.loop,
		path: c.path,
		cb:   c.onStatComplete,
	})
}

// isCurrent reports whether this context is still the handle's live,
// non-closing context — i.e. whether its stat/timer results should still
// drive notifications and rescheduling.
func (c *pollContext) isCurrent() bool {
	c.handle.mu.Lock()
	defer c.handle.mu.Unlock()
	return c.handle.ctx == c && c.handle.active && !c.handle.closing
}

// onStatComplete runs the polling decision algorithm after every stat
// completion, in order:
//  1. Supersession check — skip notification, arrange timer close.
//  2. Stat error — sticky dedup via busyPolling.
//  3. Stat success — compare against the prior snapshot, skipping the very
//     first sample (no prior snapshot to compare against).
//  4. (clean-up of the stat slot is implicit — there is no separate slot to
//     release in this port; see stat.go.)
//  5. Reschedule with drift compensation.
func (c *pollContext) onStatComplete(snap StatSnapshot, status int) {
	h := c.handle

	if !c.isCurrent() {
		c.timer.Close(func() { h.unlinkContext(c) })
		return
	}

	if status != 0 {
		if c.busyPolling != status {
			prev := c.prevSnap
			c.busyPolling = status
			LogFsPollChange(int64(h.loop.id), c.path, status)
			if c.cb != nil {
				c.cb(h, status, prev, StatSnapshot{})
			}
		}
	} else {
		if c.busyPolling != 0 {
			changed := c.busyPolling < 0 || c.prevSnap != snap
			if changed {
				LogFsPollChange(int64(h.loop.id), c.path, 0)
				if c.cb != nil {
					c.cb(h, 0, c.prevSnap, snap)
				}
			}
		}
		c.prevSnap = snap
		c.busyPolling = 1
	}

	now := h.loop.CurrentTickTime()
	elapsed := now.Sub(c.startTime)
	next := c.interval - (elapsed % c.interval)

	if err := c.timer.Start(c.onTimerFire, next); err != nil {
		panic("eventloop: fs-poll timer reschedule failed: " + err.Error())
	}
}

// onTimerFire runs when the drift-compensated timer fires: it re-anchors
// start_time to the current tick and issues the next stat. Stop() closes an
// active timer directly rather than letting it fire, so by construction
// onTimerFire only runs while the context is still current.
func (c *pollContext) onTimerFire() {
	c.startTime = c.handle.loop.CurrentTickTime()

	if err := c.dispatchStat(); err != nil {
		panic("eventloop: fs-poll stat dispatch failed: " + err.Error())
	}
}

// Stop deactivates the handle (stop). A no-op if already inactive. Never
// cancels an in-flight stat: if the context's timer is currently active,
// it is closed immediately (freeing the context once the close callback
// runs); otherwise a stat is in flight and its completion will observe the
// handle's inactive state and arrange the close itself.
func (h *FsPollHandle) Stop() {
	h.mu.Lock()
	if !h.active {
		h.mu.Unlock()
		return
	}
	h.active = false
	ctx := h.ctx
	h.mu.Unlock()

	if ctx == nil {
		return
	}
	if ctx.timer.Active() {
		ctx.timer.Close(func() { h.unlinkContext(ctx) })
	}
}

// unlinkContext splices ctx out of the handle's context chain by walking
// from the head and removing the node equal to itself, then triggers the
// deferred Close finalization if the chain is now empty. Called from a
// context's timer-close callback, on the loop thread.
func (h *FsPollHandle) unlinkContext(ctx *pollContext) {
	h.mu.Lock()
	if h.ctx == ctx {
		h.ctx = ctx.previous
	} else {
		for cur := h.ctx; cur != nil; cur = cur.previous {
			if cur.previous == ctx {
				cur.previous = ctx.previous
				break
			}
		}
	}
	empty := h.ctx == nil
	closing := h.closing
	cb := h.closeCB
	h.mu.Unlock()

	if empty && closing && cb != nil {
		cb()
	}
}

// GetPath copies the active context's watched path into buf as a
// NUL-terminated string (getpath). Requires the handle to be active;
// returns ErrInvalidArgument otherwise. If buf is too small, returns
// ErrNoBuffer and n is the required length including the terminator;
// on success n is the path length excluding the terminator.
func (h *FsPollHandle) GetPath(buf []byte) (n int, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.active || h.ctx == nil {
		return 0, ErrInvalidArgument
	}

	path := h.ctx.path
	needed := len(path) + 1
	if len(buf) < needed {
		return needed, ErrNoBuffer
	}
	copy(buf, path)
	buf[len(path)] = 0
	return len(path), nil
}

// Close finalizes the handle (close): stops it, then either runs onClosed
// immediately (on the loop thread, via SubmitInternal) if no context
// remains live, or defers onClosed to the last chained context's
// timer-close callback. onClosed runs exactly once.
func (h *FsPollHandle) Close(onClosed func()) {
	h.Stop()

	h.mu.Lock()
	h.closing = true
	h.closeCB = onClosed
	empty := h.ctx == nil
	h.mu.Unlock()

	if empty && onClosed != nil {
		_ = h.loop.SubmitInternal(Task{Runnable: onClosed})
	}
}

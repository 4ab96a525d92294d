package eventloop

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// errAsyncUnsupportedWindows is returned by ensureAsyncDispatcher on
// Windows. IOCP wakes via PostQueuedCompletionStatus, not readability of a
// descriptor, so the dispatcher's epoll/kqueue-style registration (a single
// readable fd driving every AsyncHandle) has no Windows analogue here; it
// would need an IOCP-specific dispatch path symmetrical to the loop's own
// submitGenericWakeup.
var errAsyncUnsupportedWindows = errors.New("eventloop: AsyncHandle is not yet wired for Windows/IOCP")

// Tri-state values for AsyncHandle.pending.
const (
	asyncQuiescent int32 = 0 // no notification outstanding
	asyncClaimed   int32 = 1 // producer has claimed the handle, about to write
	asyncWritten   int32 = 2 // producer finished writing; consumable
)

// spinIterations is the number of CPU-relax iterations the consumer performs
// before yielding the scheduler while waiting out a producer's mid-write
// critical section. A prime close to 1000 avoids falling into step with any
// periodic producer behavior.
const spinIterations = 997

// AsyncHandle is a cross-thread wakeup notifier: any goroutine may call Send
// to schedule cb for execution on the loop thread, with concurrent sends
// before the next drain coalescing into a single callback invocation.
type AsyncHandle struct {
	loop *Loop
	cb   func(h *AsyncHandle)

	pending atomic.Int32

	mu     sync.Mutex
	active bool

	sendStart atomic.Int64 // unixnano of first coalesced Send since last consume
}

// asyncDispatcher is the loop-owned singleton that backs every AsyncHandle:
// a wakeup descriptor registered as an I/O watcher, plus the list of
// registered handles. Grounded on the Loop's own wake-pipe machinery
// (wakePipe/wakePipeWrite, createWakeFd/closeWakeFd, drainWakeUpPipe),
// generalized into an independently lifecycled descriptor.
type asyncDispatcher struct {
	readFd  int
	writeFd int // == readFd when the platform provides a single event-counter fd

	mu      sync.Mutex
	handles []*AsyncHandle
}

// NewAsync registers a new AsyncHandle (init). Lazily creates the loop's
// AsyncDispatcher on first call. cb is invoked on the loop thread whenever a
// Send is consumed.
func (l *Loop) NewAsync(cb func(h *AsyncHandle)) (*AsyncHandle, error) {
	d, err := l.ensureAsyncDispatcher()
	if err != nil {
		return nil, err
	}

	h := &AsyncHandle{loop: l, cb: cb, active: true}

	d.mu.Lock()
	d.handles = append(d.handles, h)
	d.mu.Unlock()

	return h, nil
}

// ensureAsyncDispatcher returns the loop's AsyncDispatcher, creating it on
// first use. Idempotent with respect to dispatcher creation.
func (l *Loop) ensureAsyncDispatcher() (*asyncDispatcher, error) {
	l.asyncMu.Lock()
	defer l.asyncMu.Unlock()

	if l.async != nil {
		return l.async, nil
	}

	readFd, writeFd, err := createWakeFd(0, EFD_CLOEXEC|EFD_NONBLOCK)
	if err != nil {
		return nil, err
	}
	if readFd < 0 {
		return nil, errAsyncUnsupportedWindows
	}

	d := &asyncDispatcher{readFd: readFd, writeFd: writeFd}

	if err := l.RegisterFD(readFd, EventRead, func(IOEvents) {
		d.drain(l)
	}); err != nil {
		_ = closeWakeFd(readFd, writeFd)
		return nil, err
	}

	l.async = d
	return d, nil
}

// Send requests cb run on the loop thread. Safe to call from any goroutine,
// including the loop thread itself, at any point between NewAsync and
// Close. Never blocks. The wakeup write happens synchronously in the
// caller's goroutine; Send has no return value, so a non-recoverable write
// to the wakeup descriptor, or a violated pending-word expectation, panics
// in that goroutine.
func (h *AsyncHandle) Send() {
	// Step 1: relaxed read, coalescing fast path.
	if h.pending.Load() != asyncQuiescent {
		LogAsyncSend(int64(h.loop.id), true)
		return
	}

	// Step 2: claim the handle.
	if !h.pending.CompareAndSwap(asyncQuiescent, asyncClaimed) {
		LogAsyncSend(int64(h.loop.id), true)
		return
	}

	LogAsyncSend(int64(h.loop.id), false)

	h.sendStart.Store(time.Now().UnixNano())

	// Step 3: write to the dispatcher's writable descriptor.
	h.loop.asyncMu.Lock()
	d := h.loop.async
	h.loop.asyncMu.Unlock()
	if d != nil {
		d.signal()
	}

	// Step 4: mark the write complete.
	if !h.pending.CompareAndSwap(asyncClaimed, asyncWritten) {
		panic("eventloop: async handle pending word mutated during producer critical section")
	}
}

// signal writes one wakeup unit to the dispatcher's writable descriptor,
// retrying on interrupt. Mirrors the loop's own wake pipe write path
// (submitWakeup), generalized to the dispatcher's independent descriptor.
func (d *asyncDispatcher) signal() {
	if err := writeWakeByte(d.writeFd); err != nil {
		panic("eventloop: async dispatcher wakeup write failed: " + err.Error())
	}
}

// drain runs on the loop thread when the dispatcher's descriptor becomes
// readable. It empties the descriptor, then visits every registered handle
// exactly once, consuming and dispatching callbacks for any that are
// pending.
func (d *asyncDispatcher) drain(l *Loop) {
	if err := drainWakeFd(d.readFd); err != nil {
		panic("eventloop: async dispatcher drain failed: " + err.Error())
	}

	d.mu.Lock()
	visiting := d.handles
	d.handles = nil
	d.mu.Unlock()

	d.mu.Lock()
	d.handles = append(d.handles, visiting...)
	d.mu.Unlock()

	for _, h := range visiting {
		h.consume(l)
	}
}

// consume runs the spin-consume routine for a single handle (step 3 of the
// consumer protocol) and, if a notification was actually pending, invokes
// the callback.
func (h *AsyncHandle) consume(l *Loop) {
	if !h.spinConsume() {
		return
	}

	var started int64
	if s := h.sendStart.Load(); s != 0 {
		started = s
	}

	if h.cb != nil {
		h.cb(h)
	}

	if started != 0 {
		l.recordAsyncLatency(time.Since(time.Unix(0, started)))
	}
}

// spinConsume repeatedly CASes pending 2 -> 0. Returns false if the handle
// was not actually pending (observed 0, spurious from coalescing). Spins
// through a bounded number of CPU-relax iterations while a producer is
// mid-write (observed 1) before yielding the scheduler, then repeats.
func (h *AsyncHandle) spinConsume() bool {
	spins := 0
	for {
		switch h.pending.Load() {
		case asyncQuiescent:
			return false
		case asyncWritten:
			if h.pending.CompareAndSwap(asyncWritten, asyncQuiescent) {
				return true
			}
			// Lost race (e.g. freshly re-armed by another Send observing a
			// 0 this loop hasn't stored yet); retry.
		case asyncClaimed:
			spins++
			if spins >= spinIterations {
				spins = 0
				runtime.Gosched()
			}
			// Otherwise: bare relax iteration, re-check pending immediately.
		}
	}
}

// Close unlinks the handle from the dispatcher (close). Must be called from
// the loop thread. Spin-waits for any producer mid-critical-section (pending
// == 1) to finish before unlinking, guaranteeing no post-close write targets
// a handle the dispatcher no longer tracks.
func (h *AsyncHandle) Close() {
	h.mu.Lock()
	if !h.active {
		h.mu.Unlock()
		return
	}
	h.active = false
	h.mu.Unlock()

	spins := 0
	for h.pending.Load() == asyncClaimed {
		spins++
		if spins >= spinIterations {
			spins = 0
			runtime.Gosched()
		}
	}
	// Consume a final pending write so it doesn't fire after unlinking.
	h.pending.CompareAndSwap(asyncWritten, asyncQuiescent)

	h.loop.asyncMu.Lock()
	d := h.loop.async
	h.loop.asyncMu.Unlock()
	if d == nil {
		return
	}

	d.mu.Lock()
	for i, other := range d.handles {
		if other == h {
			d.handles = append(d.handles[:i], d.handles[i+1:]...)
			break
		}
	}
	d.mu.Unlock()
}

// teardown closes the dispatcher's descriptors and unregisters its I/O
// watcher. Called on loop shutdown or ResetAfterFork; the handle list is
// intentionally left attached to the (now orphaned) handles, which will
// observe the loop's terminated state on their next Send rather than
// write to a closed descriptor, matching the fork-survival rule for
// async_handles.
func (d *asyncDispatcher) teardown(l *Loop) {
	_ = l.UnregisterFD(d.readFd)
	_ = closeWakeFd(d.readFd, d.writeFd)
}

package eventloop

import (
	"errors"
	"syscall"
	"time"
)

// StatSnapshot is the set of file metadata fields FsPoll compares for
// equality between successive samples. Two snapshots are equal iff every
// field listed here is bit-equal; a changed nanosecond-resolution mtime is
// as significant as a changed size.
type StatSnapshot struct {
	CtimeSec  int64
	CtimeNsec int64
	MtimeSec  int64
	MtimeNsec int64
	BirthSec  int64
	BirthNsec int64
	Size      uint64
	Mode      uint32
	UID       uint32
	GID       uint32
	Ino       uint64
	Dev       uint64
	Flags     uint32
	Gen       uint32
}

// Equal reports whether two snapshots are bit-equal across all fields.
func (s StatSnapshot) Equal(o StatSnapshot) bool {
	return s == o
}

// statRequest is the loop's fs_stat collaborator (spec §6): at most one
// outstanding dispatch per request, delivering a status code and, on
// success, a populated StatSnapshot, back on the loop thread.
type statRequest struct {
	loop *Loop
	path string
	cb   func(snap StatSnapshot, status int)
}

// statAsync dispatches an asynchronous stat of path, invoking cb on the loop
// thread with the result: a goroutine does the blocking work, then hands
// the result back via SubmitInternal so resolution always happens on the
// loop goroutine.
func (l *Loop) statAsync(req *statRequest) error {
	l.statMu.Lock()
	if l.state.Load() == StateTerminated {
		l.statMu.Unlock()
		return ErrLoopTerminated
	}
	l.statWg.Add(1)
	l.statMu.Unlock()

	start := time.Now()

	go func() {
		defer l.statWg.Done()

		snap, err := statPath(req.path)
		status := 0
		if err != nil {
			status = statusCode(err)
		}

		deliver := Task{Runnable: func() {
			l.recordStatLatency(time.Since(start))
			req.cb(snap, status)
		}}
		if subErr := l.SubmitInternal(deliver); subErr != nil {
			// Loop is terminating/terminated: there is no loop goroutine left
			// to run the completion on. The owning PollContext is being torn
			// down by the same shutdown, so silently dropping here is safe —
			// spec doesn't require in-flight stats to complete past Close.
			_ = subErr
		}
	}()

	return nil
}

// statusCode maps a stat error to a libuv-style negative error code, the
// convention spec §7 uses for "status" delivered to the FsPoll callback.
// Positive syscall.Errno values are negated; anything else collapses to
// -EIO since the callback's contract only distinguishes success (0) from
// any negative code, never a specific unmapped error.
func statusCode(err error) int {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return -int(errno)
	}
	return -int(syscall.EIO)
}

package eventloop

import "errors"

// Standard loop lifecycle errors live in loop.go, next to the state machine
// they describe (ErrLoopAlreadyRunning, ErrLoopTerminated, ErrLoopNotRunning,
// ErrLoopOverloaded, ErrReentrantRun). The sentinels below round out the
// fs-poll/async-notifier surface.
var (
	// ErrOutOfMemory names the out-of-memory condition. No operation in this
	// package returns it, and no resource limit is configured.
	ErrOutOfMemory = errors.New("eventloop: out of memory")

	// ErrInvalidArgument is returned for malformed or out-of-contract calls,
	// e.g. starting a timer or poll handle that is already closing.
	ErrInvalidArgument = errors.New("eventloop: invalid argument")

	// ErrNoBuffer is returned by FsPollHandle.GetPath when the destination
	// buffer is too small to hold the watched path plus its terminator.
	ErrNoBuffer = errors.New("eventloop: no buffer available")
)

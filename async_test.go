//go:build linux || darwin

package eventloop

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestAsyncHandleSendInvokesCallback verifies a single Send results in
// exactly one callback invocation on the loop thread.
func TestAsyncHandleSendInvokesCallback(t *testing.T) {
	l := newRunningLoop(t)

	var calls atomic.Int32
	done := make(chan struct{})
	h, err := l.NewAsync(func(*AsyncHandle) {
		calls.Add(1)
		close(done)
	})
	require.NoError(t, err)

	h.Send()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback never invoked")
	}
	require.Equal(t, int32(1), calls.Load())
}

// TestAsyncHandleSendCoalesces verifies many concurrent Sends before the
// loop drains result in fewer callback invocations than sends — the
// defining coalescing property of the tri-state handshake.
func TestAsyncHandleSendCoalesces(t *testing.T) {
	l := newRunningLoop(t)

	var calls atomic.Int32
	h, err := l.NewAsync(func(*AsyncHandle) {
		calls.Add(1)
		time.Sleep(5 * time.Millisecond) // widen the coalescing window
	})
	require.NoError(t, err)

	const senders = 200
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			h.Send()
		}()
	}
	close(start)
	wg.Wait()

	time.Sleep(100 * time.Millisecond)

	require.Less(t, int(calls.Load()), senders)
	require.GreaterOrEqual(t, calls.Load(), int32(1))
}

// TestAsyncHandleAtLeastOnce verifies that a Send issued after the previous
// notification has been fully consumed always results in another callback —
// no notification is ever silently dropped.
func TestAsyncHandleAtLeastOnce(t *testing.T) {
	l := newRunningLoop(t)

	var calls atomic.Int32
	notify := make(chan struct{}, 1)
	h, err := l.NewAsync(func(*AsyncHandle) {
		calls.Add(1)
		select {
		case notify <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)

	const rounds = 20
	for i := 0; i < rounds; i++ {
		h.Send()
		select {
		case <-notify:
		case <-time.After(time.Second):
			t.Fatalf("round %d: callback never invoked", i)
		}
	}

	require.Equal(t, int32(rounds), calls.Load())
}

// TestAsyncHandleSendFromWithinOwnCallback verifies a handle may re-arm
// itself from inside its own callback without deadlocking.
func TestAsyncHandleSendFromWithinOwnCallback(t *testing.T) {
	l := newRunningLoop(t)

	var calls atomic.Int32
	done := make(chan struct{})
	var h *AsyncHandle
	var err error
	h, err = l.NewAsync(func(*AsyncHandle) {
		n := calls.Add(1)
		if n < 3 {
			h.Send()
			return
		}
		close(done)
	})
	require.NoError(t, err)

	h.Send()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("self re-arm chain never completed")
	}
	require.Equal(t, int32(3), calls.Load())
}

// TestAsyncHandleNoCallbackAfterClose verifies a Send issued after Close
// has returned never results in a callback running.
func TestAsyncHandleNoCallbackAfterClose(t *testing.T) {
	l := newRunningLoop(t)

	var calls atomic.Int32
	h, err := l.NewAsync(func(*AsyncHandle) {
		calls.Add(1)
	})
	require.NoError(t, err)

	done := make(chan struct{})
	require.NoError(t, l.SubmitInternal(Task{Runnable: func() {
		h.Close()
		close(done)
	}}))
	<-done

	h.Send()
	time.Sleep(50 * time.Millisecond)

	require.Equal(t, int32(0), calls.Load())
}

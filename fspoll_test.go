package eventloop

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newRunningLoop(t *testing.T) *Loop {
	t.Helper()

	l, err := New()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go func() { _ = l.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)

	return l
}

// TestFsPollFirstSampleIsSilent verifies the first successful stat never
// invokes the callback (there is nothing yet to compare it against).
func TestFsPollFirstSampleIsSilent(t *testing.T) {
	l := newRunningLoop(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "watched")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	var calls atomic.Int32
	h := l.NewFsPoll()
	require.NoError(t, h.Start(path, 10*time.Millisecond, func(h *FsPollHandle, status int, prev, cur StatSnapshot) {
		calls.Add(1)
	}))

	time.Sleep(80 * time.Millisecond)
	h.Stop()

	require.Equal(t, int32(0), calls.Load())
}

// TestFsPollDetectsModification verifies a later write that changes mtime/size
// triggers at least one notification, delivered with status 0.
func TestFsPollDetectsModification(t *testing.T) {
	l := newRunningLoop(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "watched")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	var calls atomic.Int32
	var lastStatus atomic.Int32
	h := l.NewFsPoll()
	require.NoError(t, h.Start(path, 10*time.Millisecond, func(h *FsPollHandle, status int, prev, cur StatSnapshot) {
		calls.Add(1)
		lastStatus.Store(int32(status))
	}))

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("v2-longer-payload"), 0o644))

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	h.Stop()

	require.Equal(t, int32(0), lastStatus.Load())
}

// TestFsPollStatErrorIsDeduplicated verifies a sticky stat error (missing
// path) notifies once on entry, not on every subsequent poll.
func TestFsPollStatErrorIsDeduplicated(t *testing.T) {
	l := newRunningLoop(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "missing")

	var calls atomic.Int32
	h := l.NewFsPoll()
	require.NoError(t, h.Start(path, 10*time.Millisecond, func(h *FsPollHandle, status int, prev, cur StatSnapshot) {
		calls.Add(1)
	}))

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	h.Stop()

	require.Equal(t, int32(1), calls.Load())
}

// TestFsPollStopDuringInFlightStat verifies Stop is safe to call while a
// stat dispatch is outstanding, and no callback fires afterward.
func TestFsPollStopDuringInFlightStat(t *testing.T) {
	l := newRunningLoop(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "watched")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	var calls atomic.Int32
	h := l.NewFsPoll()
	require.NoError(t, h.Start(path, time.Millisecond, func(h *FsPollHandle, status int, prev, cur StatSnapshot) {
		calls.Add(1)
	}))

	h.Stop()
	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))
	time.Sleep(50 * time.Millisecond)

	require.Equal(t, int32(0), calls.Load())
}

// TestFsPollRestartChainIntegrity verifies that stopping and immediately
// restarting a handle (so the old context's stat may still be in flight)
// leaves exactly the new context driving notifications, with no double
// delivery or lost updates.
func TestFsPollRestartChainIntegrity(t *testing.T) {
	l := newRunningLoop(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "watched")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	var callsOld, callsNew atomic.Int32
	h := l.NewFsPoll()
	require.NoError(t, h.Start(path, time.Millisecond, func(h *FsPollHandle, status int, prev, cur StatSnapshot) {
		callsOld.Add(1)
	}))

	// Immediately restart: Stop + Start back to back, racing the first
	// context's in-flight stat.
	h.Stop()
	require.NoError(t, h.Start(path, 10*time.Millisecond, func(h *FsPollHandle, status int, prev, cur StatSnapshot) {
		callsNew.Add(1)
	}))

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("v2-changed"), 0o644))

	require.Eventually(t, func() bool { return callsNew.Load() >= 1 }, time.Second, 5*time.Millisecond)
	h.Stop()

	require.Equal(t, int32(0), callsOld.Load())
}

// TestFsPollGetPath verifies GetPath's buffer contract: undersize returns
// ErrNoBuffer with the required length, adequate size returns the path
// length excluding the NUL terminator.
func TestFsPollGetPath(t *testing.T) {
	l := newRunningLoop(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "watched")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	h := l.NewFsPoll()

	_, err := h.GetPath(make([]byte, 4))
	require.ErrorIs(t, err, ErrInvalidArgument)

	require.NoError(t, h.Start(path, time.Hour, func(*FsPollHandle, int, StatSnapshot, StatSnapshot) {}))
	defer h.Stop()

	small := make([]byte, 1)
	n, err := h.GetPath(small)
	require.ErrorIs(t, err, ErrNoBuffer)
	require.Equal(t, len(path)+1, n)

	buf := make([]byte, len(path)+1)
	n, err = h.GetPath(buf)
	require.NoError(t, err)
	require.Equal(t, len(path), n)
	require.Equal(t, path, string(buf[:n]))
	require.Equal(t, byte(0), buf[n])
}

// TestFsPollCloseRunsOnce verifies Close's onClosed callback runs exactly
// once even with no live context.
func TestFsPollCloseRunsOnce(t *testing.T) {
	l := newRunningLoop(t)

	var closes atomic.Int32
	h := l.NewFsPoll()
	h.Close(func() { closes.Add(1) })

	require.Eventually(t, func() bool { return closes.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, int32(1), closes.Load())
}

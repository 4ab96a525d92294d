package eventloop

import (
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatSnapshotEqual(t *testing.T) {
	a := StatSnapshot{Size: 10, MtimeSec: 100, Ino: 5}
	b := a
	require.True(t, a.Equal(b))

	b.Size = 11
	require.False(t, a.Equal(b))
}

func TestStatusCodeMapsErrno(t *testing.T) {
	require.Equal(t, -int(syscall.ENOENT), statusCode(syscall.ENOENT))
}

func TestStatusCodeFallsBackToEIO(t *testing.T) {
	require.Equal(t, -int(syscall.EIO), statusCode(errors.New("not an errno")))
}

func TestStatAsyncDeliversOnLoopThread(t *testing.T) {
	l := newRunningLoop(t)

	dir := t.TempDir()
	path := dir // stat a directory, guaranteed to exist

	done := make(chan StatSnapshot, 1)
	require.NoError(t, l.statAsync(&statRequest{
		loop: l,
		path: path,
		cb: func(snap StatSnapshot, status int) {
			require.Equal(t, 0, status)
			require.True(t, l.isLoopThread())
			done <- snap
		},
	}))

	snap := <-done
	require.NotZero(t, snap.Mode)
}

func TestStatAsyncReturnsErrorStatus(t *testing.T) {
	l := newRunningLoop(t)

	done := make(chan int, 1)
	require.NoError(t, l.statAsync(&statRequest{
		loop: l,
		path: "/does/not/exist/at/all",
		cb: func(snap StatSnapshot, status int) {
			done <- status
		},
	}))

	status := <-done
	require.Less(t, status, 0)
}

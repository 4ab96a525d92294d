package eventloop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimerHandleStartFires(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l, err := New()
	require.NoError(t, err)

	go func() { _ = l.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)

	var fired atomic.Bool
	timer := l.NewTimer()
	require.NoError(t, timer.Start(func() { fired.Store(true) }, 20*time.Millisecond))

	require.Eventually(t, fired.Load, time.Second, 5*time.Millisecond)
}

func TestTimerHandleStopBeforeFire(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l, err := New()
	require.NoError(t, err)

	go func() { _ = l.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)

	var fired atomic.Bool
	timer := l.NewTimer()
	require.NoError(t, timer.Start(func() { fired.Store(true) }, 50*time.Millisecond))

	timer.Stop()
	require.False(t, timer.Active())

	time.Sleep(100 * time.Millisecond)
	require.False(t, fired.Load())
}

func TestTimerHandleCloseRunsCallbackOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l, err := New()
	require.NoError(t, err)

	go func() { _ = l.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)

	var closes atomic.Int32
	timer := l.NewTimer()
	require.NoError(t, timer.Start(func() {}, time.Hour))

	require.NoError(t, timer.Close(func() { closes.Add(1) }))
	require.NoError(t, timer.Close(func() { closes.Add(1) }))

	require.Eventually(t, func() bool { return closes.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, int32(1), closes.Load())
}

func TestTimerHandleActiveReflectsState(t *testing.T) {
	l, err := New()
	require.NoError(t, err)

	timer := l.NewTimer()
	require.False(t, timer.Active())

	require.NoError(t, timer.Start(func() {}, time.Hour))
	require.True(t, timer.Active())

	timer.Stop()
	require.False(t, timer.Active())
}

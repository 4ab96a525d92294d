package eventloop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewAppliesOptions(t *testing.T) {
	var logged atomic.Bool
	logger := &recordingLogger{onLog: func(LogEntry) { logged.Store(true) }}

	l, err := New(WithMetrics(true), WithLogger(logger), WithStrictMicrotaskOrdering(true))
	require.NoError(t, err)

	require.NotNil(t, l.metrics)
	require.Same(t, logger, l.log())
	require.True(t, l.StrictMicrotaskOrdering)
}

func TestNewWithoutMetricsOptionLeavesMetricsNil(t *testing.T) {
	l, err := New()
	require.NoError(t, err)

	require.Nil(t, l.metrics)
	require.Equal(t, Metrics{}, l.Metrics())
}

func TestMetricsRecordsStatLatency(t *testing.T) {
	l, err := New(WithMetrics(true))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = l.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)

	done := make(chan struct{})
	require.NoError(t, l.statAsync(&statRequest{
		loop: l,
		path: t.TempDir(),
		cb:   func(StatSnapshot, int) { close(done) },
	}))
	<-done
	time.Sleep(10 * time.Millisecond)

	m := l.Metrics()
	require.Greater(t, m.StatLatency.Sum, time.Duration(0))
}

// TestRunTimersSkipsStoppedHandle verifies runTimers lazily skips a heap
// entry whose TimerHandle was stopped between scheduling and its due time.
func TestRunTimersSkipsStoppedHandle(t *testing.T) {
	l := newRunningLoop(t)

	var fired atomic.Bool
	timer := l.NewTimer()
	require.NoError(t, timer.Start(func() { fired.Store(true) }, 5*time.Millisecond))
	timer.Stop()

	time.Sleep(50 * time.Millisecond)
	require.False(t, fired.Load())
}

type recordingLogger struct {
	onLog func(LogEntry)
}

func (r *recordingLogger) Log(entry LogEntry) {
	if r.onLog != nil {
		r.onLog(entry)
	}
}

func (r *recordingLogger) IsEnabled(LogLevel) bool { return true }

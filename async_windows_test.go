//go:build windows

package eventloop

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestAsyncHandleUnsupportedOnWindows documents the explicit, honest scope
// limit: AsyncHandle has no IOCP-backed dispatch path yet.
func TestAsyncHandleUnsupportedOnWindows(t *testing.T) {
	l, err := New()
	require.NoError(t, err)

	_, err = l.NewAsync(func(*AsyncHandle) {})
	require.ErrorIs(t, err, errAsyncUnsupportedWindows)
}

package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExtractStatusCode(t *testing.T) {
	cases := []struct {
		msg  string
		code int
		ok   bool
	}{
		{"SetAVTransportURI failed: http 500", 500, true},
		{"unexpected status 204 from renderer", 204, true},
		{"read tcp 10.0.0.2:49152: connection refused", 0, false},
		{"error 7016 from device", 0, false},
		{"", 0, false},
		{"codes 12 345 6789", 345, true},
	}
	for _, tc := range cases {
		code, ok := extractStatusCode(tc.msg)
		require.Equal(t, tc.ok, ok, "msg %q", tc.msg)
		require.Equal(t, tc.code, code, "msg %q", tc.msg)
	}
}

func TestIsUPnPSuccess(t *testing.T) {
	require.True(t, isUPnPSuccess(nil))
	require.True(t, isUPnPSuccess(errors.New("Play failed: http 204")))
	require.True(t, isUPnPSuccess(errors.New("status 299 whatever")))
	require.False(t, isUPnPSuccess(errors.New("Play failed: http 500")))
	require.False(t, isUPnPSuccess(errors.New("connection refused")))
}

func TestRetryUPnPTreats2xxErrorAsSuccess(t *testing.T) {
	attempts := 0
	err := retryUPnP(context.Background(), "Play", func(context.Context) error {
		attempts++
		return errors.New("renderer answered 206 with empty body")
	})
	require.NoError(t, err)
	require.Equal(t, 1, attempts)
}

func TestRetryUPnPRetriesUntilSuccess(t *testing.T) {
	attempts := 0
	err := retryUPnP(context.Background(), "Stop", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("Stop failed: http 500")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}

func TestRetryNBounded(t *testing.T) {
	boom := errors.New("Seek failed: http 718")
	attempts := 0
	err := retryN(context.Background(), "Seek", 2, func(context.Context) error {
		attempts++
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 3, attempts) // initial try plus two retries
}

func TestRetryUPnPStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := retryUPnP(ctx, "Pause", func(context.Context) error {
		return errors.New("Pause failed: http 500")
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

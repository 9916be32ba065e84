package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWaitUnlimitedReturnsImmediately(t *testing.T) {
	l := New(0)
	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Wait(context.Background(), "https://example.org/page"))
	}
	require.Less(t, time.Since(start), time.Second)
}

func TestWaitThrottlesSameHost(t *testing.T) {
	l := New(10) // 100ms between requests to one host

	require.NoError(t, l.Wait(context.Background(), "https://example.org/one"))
	start := time.Now()
	require.NoError(t, l.Wait(context.Background(), "https://example.org/two"))
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestWaitIsolatesHosts(t *testing.T) {
	l := New(1)

	require.NoError(t, l.Wait(context.Background(), "https://one.example.org/"))
	start := time.Now()
	require.NoError(t, l.Wait(context.Background(), "https://two.example.org/"))
	require.Less(t, time.Since(start), 500*time.Millisecond,
		"a second host should not wait behind the first host's bucket")
}

func TestWaitHonorsContext(t *testing.T) {
	l := New(0.001)
	require.NoError(t, l.Wait(context.Background(), "https://slow.example.org/"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.Wait(ctx, "https://slow.example.org/")
	require.Error(t, err)
}

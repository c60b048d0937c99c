package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/phishguard/phishguard/internal/moderation/ratelimit"
	"github.com/phishguard/phishguard/internal/setup/config"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTest(t *testing.T) *ratelimit.Limiter {
	t.Helper()

	// Start miniredis server
	mr, err := miniredis.Run()
	require.NoError(t, err)

	// Create Redis client
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	cfg := &config.RateLimits{
		MessagesPerMinute: 10,
		CommandsPerHour:   40,
	}

	limiter := ratelimit.NewLimiter(client, cfg, zap.NewNop())

	// Pin the clock so window boundaries never fall mid-test
	now := time.Date(2026, 8, 1, 12, 0, 30, 0, time.UTC)
	ratelimit.SetNow(limiter, func() time.Time { return now })

	return limiter
}

func TestAdmitWithinCeiling(t *testing.T) {
	t.Parallel()

	limiter := setupTest(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		admitted, err := limiter.Admit(ctx, 123, ratelimit.KindMessage)
		require.NoError(t, err)
		assert.True(t, admitted, "request %d should be admitted", i+1)
	}
}

func TestAdmitRejectsPastCeiling(t *testing.T) {
	t.Parallel()

	limiter := setupTest(t)
	ctx := context.Background()

	// Exactly the first ceiling admissions succeed
	for i := 0; i < 10; i++ {
		admitted, err := limiter.Admit(ctx, 123, ratelimit.KindMessage)
		require.NoError(t, err)
		require.True(t, admitted)
	}

	// Everything after is rejected within the same window
	for i := 0; i < 10; i++ {
		admitted, err := limiter.Admit(ctx, 123, ratelimit.KindMessage)
		require.NoError(t, err)
		assert.False(t, admitted)
	}
}

func TestAdmitWindowReset(t *testing.T) {
	t.Parallel()

	limiter := setupTest(t)
	ctx := context.Background()

	now := time.Date(2026, 8, 1, 12, 0, 30, 0, time.UTC)
	ratelimit.SetNow(limiter, func() time.Time { return now })

	for i := 0; i < 10; i++ {
		admitted, err := limiter.Admit(ctx, 123, ratelimit.KindMessage)
		require.NoError(t, err)
		require.True(t, admitted)
	}

	admitted, err := limiter.Admit(ctx, 123, ratelimit.KindMessage)
	require.NoError(t, err)
	require.False(t, admitted)

	// Crossing the minute boundary opens a fresh bucket
	now = now.Add(time.Minute)

	admitted, err = limiter.Admit(ctx, 123, ratelimit.KindMessage)
	require.NoError(t, err)
	assert.True(t, admitted)
}

func TestAdmitKindsAreIndependent(t *testing.T) {
	t.Parallel()

	limiter := setupTest(t)
	ctx := context.Background()

	// Exhaust the message window
	for i := 0; i < 10; i++ {
		_, err := limiter.Admit(ctx, 123, ratelimit.KindMessage)
		require.NoError(t, err)
	}

	admitted, err := limiter.Admit(ctx, 123, ratelimit.KindMessage)
	require.NoError(t, err)
	require.False(t, admitted)

	// Commands still have their own budget
	admitted, err = limiter.Admit(ctx, 123, ratelimit.KindCommand)
	require.NoError(t, err)
	assert.True(t, admitted)
}

func TestAdmitUsersDoNotContend(t *testing.T) {
	t.Parallel()

	limiter := setupTest(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := limiter.Admit(ctx, 123, ratelimit.KindMessage)
		require.NoError(t, err)
	}

	admitted, err := limiter.Admit(ctx, 123, ratelimit.KindMessage)
	require.NoError(t, err)
	require.False(t, admitted)

	// A different user is unaffected
	admitted, err = limiter.Admit(ctx, 456, ratelimit.KindMessage)
	require.NoError(t, err)
	assert.True(t, admitted)
}

func TestAdmitFailsClosed(t *testing.T) {
	t.Parallel()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	limiter := ratelimit.NewLimiter(client, &config.RateLimits{
		MessagesPerMinute: 10,
		CommandsPerHour:   40,
	}, zap.NewNop())

	// Kill the server; admission must deny with an error
	mr.Close()

	admitted, err := limiter.Admit(context.Background(), 123, ratelimit.KindMessage)
	require.Error(t, err)
	assert.False(t, admitted)
}

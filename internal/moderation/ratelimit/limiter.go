// Package ratelimit throttles per-user activity using Redis window buckets.
//
// Each user gets one counter per request kind per window. The counter key
// embeds the window start, so INCR on the current bucket is the only state
// change and is atomic on the Redis side; concurrent messages from the same
// user can never both slip past the ceiling on a stale read.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/phishguard/phishguard/internal/setup/config"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// Kind identifies which admission ceiling applies to a request.
type Kind string

const (
	// KindMessage covers inbound content messages. Window: one minute.
	KindMessage Kind = "message"
	// KindCommand covers bot command invocations. Window: one hour.
	KindCommand Kind = "command"
)

// Limiter enforces per-user admission ceilings backed by Redis.
type Limiter struct {
	client rueidis.Client
	cfg    *config.RateLimits
	logger *zap.Logger
	now    func() time.Time
}

// NewLimiter creates a rate limiter using the given Redis client.
func NewLimiter(client rueidis.Client, cfg *config.RateLimits, logger *zap.Logger) *Limiter {
	return &Limiter{
		client: client,
		cfg:    cfg,
		logger: logger.Named("ratelimit"),
		now:    time.Now,
	}
}

// Admit reports whether a request of the given kind from the user fits
// within its window ceiling. On Redis failure the request is denied and the
// error returned; admission fails closed rather than allowing unlimited
// throughput during an outage.
func (l *Limiter) Admit(ctx context.Context, userID uint64, kind Kind) (bool, error) {
	window, ceiling := l.policy(kind)
	windowStart := l.now().Truncate(window)
	key := fmt.Sprintf("ratelimit:%s:%d:%d", kind, userID, windowStart.Unix())

	count, err := l.client.Do(ctx, l.client.B().Incr().Key(key).Build()).AsInt64()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	// First hit in the bucket sets its lifetime. The bucket only needs to
	// outlive its window; stale buckets are never read again.
	if count == 1 {
		expire := l.client.B().Expire().Key(key).Seconds(int64(window/time.Second) + 60).Build()
		if err := l.client.Do(ctx, expire).Error(); err != nil {
			l.logger.Warn("Failed to set rate limit bucket expiry",
				zap.String("key", key), zap.Error(err))
		}
	}

	if count > int64(ceiling) {
		l.logger.Debug("Rate limit exceeded",
			zap.Uint64("userID", userID),
			zap.String("kind", string(kind)),
			zap.Int64("count", count),
			zap.Int("ceiling", ceiling))

		return false, nil
	}

	return true, nil
}

// policy returns the window length and ceiling for a request kind.
func (l *Limiter) policy(kind Kind) (time.Duration, int) {
	if kind == KindCommand {
		return time.Hour, l.cfg.CommandsPerHour
	}

	return time.Minute, l.cfg.MessagesPerMinute
}

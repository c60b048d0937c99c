package bot

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/phishguard/phishguard/internal/moderation"
	"github.com/phishguard/phishguard/internal/setup/config"
	"go.uber.org/zap"
)

const (
	defaultRequestTimeout = 5 * time.Second
	retryDelay            = 500 * time.Millisecond
	// One retry per outbound call. Transport consumers are best-effort, so
	// anything beyond a single retry just delays the pipeline.
	maxRetries = 1
)

// discordTransport implements moderation.Transport over the Discord REST
// API. Every call is bounded by the configured request timeout and retried
// at most once.
type discordTransport struct {
	rest           rest.Rest
	adminChannelID snowflake.ID
	timeout        time.Duration
	logger         *zap.Logger
}

// NewTransport creates a Discord-backed transport for the moderation
// pipeline.
func NewTransport(r rest.Rest, cfg *config.BotConfig, logger *zap.Logger) moderation.Transport {
	timeout := time.Duration(cfg.RequestTimeout) * time.Millisecond
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return &discordTransport{
		rest:           r,
		adminChannelID: snowflake.ID(cfg.Discord.AdminChannelID),
		timeout:        timeout,
		logger:         logger.Named("transport"),
	}
}

// Deliver posts a message to a channel.
func (t *discordTransport) Deliver(ctx context.Context, channelID uint64, text string) error {
	return t.withRetry(ctx, func(ctx context.Context) error {
		_, err := t.rest.CreateMessage(snowflake.ID(channelID),
			discord.NewMessageCreateBuilder().SetContent(text).Build(),
			rest.WithCtx(ctx))

		return err
	})
}

// Delete removes a message from a channel.
func (t *discordTransport) Delete(ctx context.Context, channelID, messageID uint64) error {
	return t.withRetry(ctx, func(ctx context.Context) error {
		return t.rest.DeleteMessage(snowflake.ID(channelID), snowflake.ID(messageID), rest.WithCtx(ctx))
	})
}

// Notify forwards text to the admin channel. Silently succeeds when no
// admin channel is configured.
func (t *discordTransport) Notify(ctx context.Context, text string) error {
	if t.adminChannelID == 0 {
		return nil
	}

	return t.Deliver(ctx, uint64(t.adminChannelID), text)
}

// withRetry runs op with the request timeout applied, retrying once after a
// short delay.
func (t *discordTransport) withRetry(ctx context.Context, op func(ctx context.Context) error) error {
	return backoff.Retry(func() error {
		opCtx, cancel := context.WithTimeout(ctx, t.timeout)
		defer cancel()

		if err := op(opCtx); err != nil {
			t.logger.Debug("Discord request failed", zap.Error(err))
			return err
		}

		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(retryDelay), maxRetries), ctx))
}

package moderation

import "context"

// Transport is the chat-platform capability consumed by the pipeline.
// All three operations are best-effort: a failure is logged by the caller
// and never fatal to message processing.
type Transport interface {
	// Deliver posts a message to a channel.
	Deliver(ctx context.Context, channelID uint64, text string) error
	// Delete removes a message from a channel.
	Delete(ctx context.Context, channelID, messageID uint64) error
	// Notify sends text to the configured admin destination. Implementations
	// without an admin destination silently succeed.
	Notify(ctx context.Context, text string) error
}

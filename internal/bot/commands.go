package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/phishguard/phishguard/internal/database/types"
	"github.com/phishguard/phishguard/internal/database/types/enum"
	"github.com/phishguard/phishguard/internal/moderation/ratelimit"
	"go.uber.org/zap"
)

// Slash command names registered with Discord.
const (
	PhoneCommandName    = "phone"
	SecurityCommandName = "security"
	StatsCommandName    = "stats"
	BlockCommandName    = "block"
	UnblockCommandName  = "unblock"
)

// statsWindow is the reporting period for the stats command.
const statsWindow = 24 * time.Hour

// securityAdvice is the static response to the security command.
const securityAdvice = "🛡️ **SECURITY RECOMMENDATIONS**\n\n" +
	"• Never share codes from SMS or authenticator apps\n" +
	"• Do not follow shortened links from strangers\n" +
	"• Banks never ask for your card PIN or CVC\n" +
	"• Verify unexpected requests over a separate channel\n" +
	"• Enable two-factor authentication everywhere\n" +
	"• Report suspicious messages to the server administrators"

// handleApplicationCommandInteraction processes slash commands in a
// goroutine so the gateway event loop is never blocked. Blocked users are
// ignored and every invocation passes through the command rate limiter
// before dispatch.
func (b *Bot) handleApplicationCommandInteraction(event *events.ApplicationCommandInteractionCreate) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("Panic in application command interaction handler", zap.Any("panic", r))
				b.respond(event, "Internal error. Please report this to an administrator.")
			}
		}()

		ctx := context.Background()
		userID := uint64(event.User().ID)

		blocked, err := b.guard.IsBlocked(ctx, userID)
		if err != nil {
			// Fail closed: deny the command rather than acting on unknown state
			b.logger.Error("Block check failed, denying command",
				zap.Uint64("userID", userID), zap.Error(err))
			b.respond(event, "⚠️ Service temporarily unavailable. Please try again later.")

			return
		}

		if blocked {
			b.respond(event, "🚫 Your access is temporarily restricted.")
			return
		}

		admitted, err := b.limiter.Admit(ctx, userID, ratelimit.KindCommand)
		if err != nil {
			b.logger.Error("Rate check failed, denying command",
				zap.Uint64("userID", userID), zap.Error(err))
			b.respond(event, "⚠️ Service temporarily unavailable. Please try again later.")

			return
		}

		if !admitted {
			b.respond(event, "⚠️ Too many requests. Please wait.")
			return
		}

		data := event.SlashCommandInteractionData()

		switch data.CommandName() {
		case PhoneCommandName:
			b.handlePhoneCommand(ctx, event)
		case SecurityCommandName:
			b.respond(event, securityAdvice)
		case StatsCommandName:
			b.handleStatsCommand(ctx, event)
		case BlockCommandName:
			b.handleBlockCommand(ctx, event)
		case UnblockCommandName:
			b.handleUnblockCommand(ctx, event)
		default:
			b.respond(event, "This command is not available.")
		}
	}()
}

// handlePhoneCommand classifies the submitted number and records the
// lookup in the audit log.
func (b *Bot) handlePhoneCommand(ctx context.Context, event *events.ApplicationCommandInteractionCreate) {
	number := event.SlashCommandInteractionData().String("number")
	report := b.analyzer.Analyze(number)

	b.db.Model().Event().Log(ctx, &types.SecurityEvent{
		UserID:      uint64(event.User().ID),
		Action:      enum.EventActionPhoneCheck,
		ThreatLevel: enum.ThreatLevelLow,
		Details:     number,
	})

	b.respond(event, b.analyzer.Format(report))
}

// handleStatsCommand reports moderation activity for the last day. Only
// the configured administrator may run it.
func (b *Bot) handleStatsCommand(ctx context.Context, event *events.ApplicationCommandInteractionCreate) {
	if !b.isAdmin(event) {
		b.respond(event, "🔒 This command is restricted to the administrator.")
		return
	}

	stats, err := b.db.Model().Event().GetStats(ctx, time.Now().Add(-statsWindow))
	if err != nil {
		b.logger.Error("Failed to get event stats", zap.Error(err))
		b.respond(event, "⚠️ Failed to load statistics.")

		return
	}

	blocked, err := b.db.Model().Block().CountActive(ctx)
	if err != nil {
		b.logger.Error("Failed to count blocked users", zap.Error(err))
		b.respond(event, "⚠️ Failed to load statistics.")

		return
	}

	b.respond(event, formatStats(stats, blocked))
}

// formatStats renders the stats report. TotalChecks covers every audit
// event in the window, not just message checks, so it is labeled as a
// total.
func formatStats(stats *types.EventStats, blocked int64) string {
	return fmt.Sprintf(
		"📊 **SECURITY STATISTICS (24H)**\n\n"+
			"🔍 Total checks: %d\n"+
			"🔴 High threats: %d\n"+
			"🟡 Medium threats: %d\n"+
			"🟢 Low threats: %d\n"+
			"🚫 Blocked users: %d",
		stats.TotalChecks, stats.HighThreats, stats.MediumThreat, stats.LowThreats, blocked)
}

// handleBlockCommand puts a user on the blocklist, indefinitely unless a
// duration is given, and records the action in the audit log.
func (b *Bot) handleBlockCommand(ctx context.Context, event *events.ApplicationCommandInteractionCreate) {
	if !b.isAdmin(event) {
		b.respond(event, "🔒 This command is restricted to the administrator.")
		return
	}

	data := event.SlashCommandInteractionData()
	targetID := uint64(data.Snowflake("user"))
	reason, _ := data.OptString("reason")

	record := &types.BlockedUser{
		UserID: targetID,
		Reason: reason,
	}

	if hours, ok := data.OptInt("hours"); ok && hours > 0 {
		until := time.Now().Add(time.Duration(hours) * time.Hour)
		record.BlockedUntil = &until
	}

	if err := b.db.Model().Block().BlockUser(ctx, record); err != nil {
		b.logger.Error("Failed to block user",
			zap.Uint64("targetID", targetID), zap.Error(err))
		b.respond(event, "⚠️ Failed to block user.")

		return
	}

	b.db.Model().Event().Log(ctx, &types.SecurityEvent{
		UserID:      targetID,
		Action:      enum.EventActionUserBlocked,
		ThreatLevel: enum.ThreatLevelMedium,
		Details:     reason,
	})

	b.respond(event, fmt.Sprintf("🚫 User %d has been blocked.", targetID))
}

// handleUnblockCommand removes a user from the blocklist.
func (b *Bot) handleUnblockCommand(ctx context.Context, event *events.ApplicationCommandInteractionCreate) {
	if !b.isAdmin(event) {
		b.respond(event, "🔒 This command is restricted to the administrator.")
		return
	}

	targetID := uint64(event.SlashCommandInteractionData().Snowflake("user"))

	removed, err := b.db.Model().Block().UnblockUser(ctx, targetID)
	if err != nil {
		b.logger.Error("Failed to unblock user",
			zap.Uint64("targetID", targetID), zap.Error(err))
		b.respond(event, "⚠️ Failed to unblock user.")

		return
	}

	if !removed {
		b.respond(event, fmt.Sprintf("User %d is not blocked.", targetID))
		return
	}

	b.db.Model().Event().Log(ctx, &types.SecurityEvent{
		UserID:      targetID,
		Action:      enum.EventActionUserUnblocked,
		ThreatLevel: enum.ThreatLevelLow,
	})

	b.respond(event, fmt.Sprintf("✅ User %d has been unblocked.", targetID))
}

// isAdmin reports whether the interaction came from the configured
// administrator. A zero admin ID matches nobody.
func (b *Bot) isAdmin(event *events.ApplicationCommandInteractionCreate) bool {
	return b.adminUserID != 0 && event.User().ID == b.adminUserID
}

// respond sends an ephemeral reply to a command interaction.
func (b *Bot) respond(event *events.ApplicationCommandInteractionCreate, content string) {
	if err := event.CreateMessage(discord.NewMessageCreateBuilder().
		SetContent(content).
		SetEphemeral(true).
		Build()); err != nil {
		b.logger.Error("Failed to respond to command", zap.Error(err))
	}
}

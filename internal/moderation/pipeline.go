// Package moderation contains the threat-detection and moderation-decision
// engine: the blocklist guard and rate limiter that gate analysis, the
// dispatcher that turns detection results into concrete moderation effects,
// and the audit trail of every outcome.
package moderation

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/phishguard/phishguard/internal/database/types"
	"github.com/phishguard/phishguard/internal/database/types/enum"
	"github.com/phishguard/phishguard/internal/moderation/detector"
	"github.com/phishguard/phishguard/internal/moderation/ratelimit"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

// displayedFindings caps how many findings appear in the admin alert.
const displayedFindings = 5

// excerptLimit bounds the offending-text excerpt shown in alerts.
const excerptLimit = 100

// Fixed user-visible notices.
const (
	restrictedNotice = "🚫 Your access is temporarily restricted."
	throttledNotice  = "⚠️ Too many requests. Please wait."
)

// safetyGuidance is the fixed advice block appended to every threat alert.
const safetyGuidance = "🛡️ RECOMMENDATIONS:\n" +
	"• Do NOT follow the links\n" +
	"• Do NOT share verification codes\n" +
	"• Verify the sender's identity\n" +
	"• The message will be removed"

// Admitter gates requests through the per-user rate limiter.
type Admitter interface {
	Admit(ctx context.Context, userID uint64, kind ratelimit.Kind) (bool, error)
}

// Auditor records security-relevant decisions in the append-only audit log.
type Auditor interface {
	Log(ctx context.Context, event *types.SecurityEvent)
}

// IncomingMessage carries the sender metadata and content of one inbound
// text message offered to the pipeline.
type IncomingMessage struct {
	MessageID   uint64
	ChannelID   uint64
	UserID      uint64
	Username    string
	DisplayName string
	Text        string
}

// Pipeline orchestrates the per-message moderation state machine:
// block check, rate check, threat analysis, then either the clean-message
// audit path or the threat-response path.
type Pipeline struct {
	guard      Guard
	limiter    Admitter
	detector   *detector.Detector
	transport  Transport
	auditor    Auditor
	auditClean bool
	logger     *zap.Logger
}

// NewPipeline creates a moderation pipeline from its collaborators.
func NewPipeline(
	guard Guard,
	limiter Admitter,
	det *detector.Detector,
	transport Transport,
	auditor Auditor,
	auditClean bool,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		guard:      guard,
		limiter:    limiter,
		detector:   det,
		transport:  transport,
		auditor:    auditor,
		auditClean: auditClean,
		logger:     logger.Named("pipeline"),
	}
}

// HandleMessage runs one inbound message through the moderation state
// machine. It never panics or returns an error to the event loop; every
// failure mode degrades to a logged outcome so the pipeline stays
// available for subsequent messages.
func (p *Pipeline) HandleMessage(ctx context.Context, msg *IncomingMessage) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Panic in moderation pipeline",
				zap.Any("panic", r),
				zap.Uint64("userID", msg.UserID),
				zap.Uint64("messageID", msg.MessageID))
			p.notifyAdmin(ctx, fmt.Sprintf("🚨 Moderation pipeline error for user %d: %v", msg.UserID, r))
		}
	}()

	if msg.Text == "" {
		return
	}

	// Block check runs before anything else; a blocked user's messages are
	// neither analyzed nor acted upon
	blocked, err := p.guard.IsBlocked(ctx, msg.UserID)
	if err != nil {
		// Fail closed: deny analysis rather than acting on unknown state
		p.logger.Error("Block check failed, denying analysis",
			zap.Uint64("userID", msg.UserID), zap.Error(err))
		return
	}

	if blocked {
		p.deliver(ctx, msg.ChannelID, restrictedNotice)
		return
	}

	admitted, err := p.limiter.Admit(ctx, msg.UserID, ratelimit.KindMessage)
	if err != nil {
		p.logger.Error("Rate check failed, denying analysis",
			zap.Uint64("userID", msg.UserID), zap.Error(err))
		return
	}

	if !admitted {
		p.deliver(ctx, msg.ChannelID, throttledNotice)
		return
	}

	result := p.detector.Detect(msg.Text)

	// A degraded result with no findings cannot be called clean; raise an
	// internal alert instead of silently passing the message
	if result.Degraded() && !result.Suspicious() {
		p.logger.Error("Detection passes failed",
			zap.Strings("passes", result.FailedPasses),
			zap.Uint64("userID", msg.UserID))
		p.notifyAdmin(ctx, fmt.Sprintf(
			"🚨 Detection degraded for message %d: failed passes %s",
			msg.MessageID, strings.Join(result.FailedPasses, ", ")))
		p.auditor.Log(ctx, &types.SecurityEvent{
			UserID:      msg.UserID,
			Action:      enum.EventActionInternalError,
			ThreatLevel: enum.ThreatLevelMedium,
			Details:     "failed passes: " + strings.Join(result.FailedPasses, ", "),
		})

		return
	}

	if !result.Suspicious() {
		if p.auditClean {
			p.auditor.Log(ctx, &types.SecurityEvent{
				UserID:      msg.UserID,
				Action:      enum.EventActionMessageChecked,
				ThreatLevel: enum.ThreatLevelLow,
			})
		}

		return
	}

	p.respondToThreats(ctx, msg, result)
}

// respondToThreats executes the threat-response path: admin alert, message
// deletion, public removal notice, and the high-severity audit event. The
// outbound side effects are individually best-effort and fan out
// concurrently; none of their failures aborts the others.
func (p *Pipeline) respondToThreats(ctx context.Context, msg *IncomingMessage, result *detector.Result) {
	p.logger.Info("Threats detected",
		zap.Uint64("userID", msg.UserID),
		zap.Uint64("messageID", msg.MessageID),
		zap.Int("findings", len(result.Findings)))

	alert := p.composeAlert(msg, result)

	var wg conc.WaitGroup

	wg.Go(func() {
		p.notifyAdmin(ctx, alert)
	})

	wg.Go(func() {
		// Deletion is best-effort: the message may already be gone or the
		// bot may lack permission
		if err := p.transport.Delete(ctx, msg.ChannelID, msg.MessageID); err != nil {
			p.logger.Error("Failed to delete message",
				zap.Uint64("messageID", msg.MessageID), zap.Error(err))
		}

		p.deliver(ctx, msg.ChannelID, fmt.Sprintf(
			"🛡️ PhishGuard removed a suspicious message from %s\nThreats found: %d",
			msg.DisplayName, len(result.Findings)))
	})

	wg.Wait()

	details, err := sonic.MarshalString(result.Findings)
	if err != nil {
		details = fmt.Sprintf("%v", result.Findings)
	}

	p.auditor.Log(ctx, &types.SecurityEvent{
		UserID:      msg.UserID,
		Action:      enum.EventActionThreatDetected,
		ThreatLevel: enum.ThreatLevelHigh,
		Details:     details,
	})
}

// composeAlert builds the structured admin alert: sender identity, the top
// findings, an excerpt of the offending text, and fixed safety guidance.
func (p *Pipeline) composeAlert(msg *IncomingMessage, result *detector.Result) string {
	var b strings.Builder

	b.WriteString("🚨 PHISHGUARD DETECTED THREATS:\n\n")

	for i, finding := range result.Top(displayedFindings) {
		if finding.Detail != "" {
			fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, finding.Category, finding.Detail)
		} else {
			fmt.Fprintf(&b, "%d. [%s]\n", i+1, finding.Category)
		}
	}

	fmt.Fprintf(&b, "\n👤 Sender: %s", msg.DisplayName)

	if msg.Username != "" {
		fmt.Fprintf(&b, " (@%s)", msg.Username)
	}

	fmt.Fprintf(&b, "\n🆔 ID: %d", msg.UserID)

	excerpt := []rune(msg.Text)
	if len(excerpt) > excerptLimit {
		excerpt = excerpt[:excerptLimit]
	}

	fmt.Fprintf(&b, "\n💬 Message: %s...\n\n", string(excerpt))
	b.WriteString(safetyGuidance)

	return b.String()
}

// deliver posts a notice to a channel, logging failures.
func (p *Pipeline) deliver(ctx context.Context, channelID uint64, text string) {
	if err := p.transport.Deliver(ctx, channelID, text); err != nil {
		p.logger.Error("Failed to deliver notice",
			zap.Uint64("channelID", channelID), zap.Error(err))
	}
}

// notifyAdmin forwards text to the admin destination, logging failures.
func (p *Pipeline) notifyAdmin(ctx context.Context, text string) {
	if err := p.transport.Notify(ctx, text); err != nil {
		p.logger.Error("Failed to notify admin", zap.Error(err))
	}
}

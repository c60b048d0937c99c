package types

import (
	"time"

	"github.com/phishguard/phishguard/internal/database/types/enum"
)

// SecurityEvent is an append-only audit record of a security-relevant
// decision. Events are never mutated or deleted by the pipeline.
type SecurityEvent struct {
	ID          int64            `bun:",pk,autoincrement"`
	UserID      uint64           `bun:",notnull"`   // User the decision concerned
	Action      enum.EventAction `bun:",notnull"`   // What was decided
	ThreatLevel enum.ThreatLevel `bun:",notnull"`   // Severity of the decision
	Details     string           `bun:",type:text"` // Supporting evidence, JSON or free text
	CreatedAt   time.Time        `bun:",notnull,default:current_timestamp"`
}

// EventStats summarizes audit activity over a reporting window. The
// blocklist size is not part of the window and comes from BlockModel.
type EventStats struct {
	TotalChecks  int64 // Events recorded in the window
	HighThreats  int64 // High-severity events in the window
	MediumThreat int64 // Medium-severity events in the window
	LowThreats   int64 // Low-severity events in the window
}

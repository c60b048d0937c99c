package enum

// EventAction represents the kind of security-relevant decision being recorded.
type EventAction int

const (
	// EventActionMessageChecked tracks a message that passed all detection passes.
	EventActionMessageChecked EventAction = iota
	// EventActionThreatDetected tracks a message that produced threat findings.
	EventActionThreatDetected
	// EventActionPhoneCheck tracks a phone analysis command invocation.
	EventActionPhoneCheck
	// EventActionUserBlocked tracks a user being added to the blocklist.
	EventActionUserBlocked
	// EventActionUserUnblocked tracks a user being removed from the blocklist.
	EventActionUserUnblocked
	// EventActionInternalError tracks a pipeline failure surfaced to the admin.
	EventActionInternalError
)

// String returns the audit log representation of the action.
func (a EventAction) String() string {
	switch a {
	case EventActionMessageChecked:
		return "message_checked"
	case EventActionThreatDetected:
		return "threat_detected"
	case EventActionPhoneCheck:
		return "phone_check"
	case EventActionUserBlocked:
		return "user_blocked"
	case EventActionUserUnblocked:
		return "user_unblocked"
	case EventActionInternalError:
		return "internal_error"
	default:
		return "unknown"
	}
}

// ThreatLevel represents the severity attached to a security event.
type ThreatLevel int

const (
	ThreatLevelLow ThreatLevel = iota
	ThreatLevelMedium
	ThreatLevelHigh
)

// String returns the audit log representation of the level.
func (l ThreatLevel) String() string {
	switch l {
	case ThreatLevelLow:
		return "low"
	case ThreatLevelMedium:
		return "medium"
	case ThreatLevelHigh:
		return "high"
	default:
		return "unknown"
	}
}

package domain

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

const (
	ProfileStatusPending  = "pending"
	ProfileStatusApproved = "approved"
	ProfileStatusRejected = "rejected"
)

const (
	PlanTypeNormal = "normal"
	PlanTypeCall   = "call"
)

const (
	PaymentStatusPending  = "pending"
	PaymentStatusVerified = "verified"
	PaymentStatusRejected = "rejected"
)

const (
	SubscriptionStatusActive  = "active"
	SubscriptionStatusExpired = "expired"
)

// Call session statuses. A session only ever moves forward:
// initiated/ringing -> in_progress -> one terminal status.
const (
	CallStatusInitiated  = "initiated"
	CallStatusRinging    = "ringing"
	CallStatusInProgress = "in_progress"
	CallStatusCompleted  = "completed"
	CallStatusBusy       = "busy"
	CallStatusNoAnswer   = "no_answer"
	CallStatusFailed     = "failed"
	CallStatusCanceled   = "canceled"
	CallStatusUnknown    = "unknown"
)

// TerminalCallStatuses are absorbing; unknown is not terminal and never
// triggers debits or call logs.
var TerminalCallStatuses = []string{
	CallStatusCompleted,
	CallStatusBusy,
	CallStatusNoAnswer,
	CallStatusFailed,
	CallStatusCanceled,
}

func IsTerminalCallStatus(s string) bool {
	for _, t := range TerminalCallStatuses {
		if s == t {
			return true
		}
	}
	return false
}

// NormalizeCallStatus maps a provider-reported status string onto our enum.
// "answered" means the bridge is up; anything unrecognized becomes unknown.
func NormalizeCallStatus(provider string) string {
	switch provider {
	case "answered", "in-progress", "in_progress":
		return CallStatusInProgress
	case "initiated":
		return CallStatusInitiated
	case "ringing":
		return CallStatusRinging
	case "completed":
		return CallStatusCompleted
	case "busy":
		return CallStatusBusy
	case "no-answer", "no_answer":
		return CallStatusNoAnswer
	case "failed":
		return CallStatusFailed
	case "canceled", "cancelled":
		return CallStatusCanceled
	default:
		return CallStatusUnknown
	}
}

const (
	CallTypeOutgoing = "outgoing"
	CallTypeIncoming = "incoming"
)

// Credit ledger actions (append-only audit trail).
const (
	LedgerActionCallInitiated  = "call_initiated"
	LedgerActionUsed           = "used"
	LedgerActionManualAdd      = "manual_add"
	LedgerActionManualRemove   = "manual_remove"
	LedgerActionManualSet      = "manual_set"
	LedgerActionAllocated      = "allocated"
	LedgerActionSettingsUpdate = "settings_update"
)

const (
	AdjustActionAdd    = "add"
	AdjustActionRemove = "remove"
	AdjustActionSet    = "set"
)

// Stable error codes surfaced to API clients.
const (
	CodeConfigError         = "CONFIG_ERROR"
	CodeNoCredits           = "NO_CREDITS"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeTargetNoCredits     = "TARGET_NO_CREDITS"
	CodeMissingPhone        = "MISSING_PHONE"
	CodeNotMatched          = "NOT_MATCHED"
	CodeBlocked             = "BLOCKED"
	CodeExotelError         = "EXOTEL_ERROR"
	CodeInsufficientCredits = "INSUFFICIENT_CREDITS"
	CodeInternalError       = "INTERNAL_ERROR"
)

// Webhook event types delivered by Exotel.
const (
	WebhookEventAnswered = "answered"
	WebhookEventTerminal = "terminal"
)

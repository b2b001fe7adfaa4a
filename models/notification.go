package models

// Notification event types dispatched by the core. Delivery is best-effort;
// no workflow decision ever depends on a push landing.
const (
	NotifyClaimSuccess     = "claim_success"
	NotifyIssueReported    = "issue_reported"
	NotifyCommissionPaid   = "commission_paid"
	NotifyFundContribution = "fund_contribution"
)

// PushPayload is the queued payload for an outbound push notification.
type PushPayload struct {
	Event       string            `json:"event"`
	RecipientID string            `json:"recipient_id"`
	Role        string            `json:"role"` // "collector", "customer" or "admin"
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data,omitempty"`
}

package models

// EarningsSummary is the read-side view of a collector's commission history.
// Derived entirely from CommissionRecords; never a write path.
type EarningsSummary struct {
	CollectorID       string             `json:"collector_id"`
	Commissions       []CommissionRecord `json:"commissions"`
	TotalPaidCents    int64              `json:"total_paid_cents"`
	TotalPendingCents int64              `json:"total_pending_cents"`
	PaidCount         int                `json:"paid_count"`
	PendingCount      int                `json:"pending_count"`
	Currency          string             `json:"currency,omitempty"`
}

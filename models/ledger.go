package models

import "time"

// Fixed revenue-sharing percentages. Persisted on every ledger record so
// reporting consumers never have to re-derive the policy in force at the time
// of the split.
const (
	CommissionPercent = 30
	FundPercent       = 10
	PlatformPercent   = 60
)

// Commission record statuses.
const (
	CommissionPending = "pending"
	CommissionPaid    = "paid"
)

// CommissionRecord is the collector's 30% share of a request's total payment.
// The collection_request_id carries a unique index, which is what enforces
// exactly-once commission per request.
type CommissionRecord struct {
	ID                  string     `bson:"id" json:"id"`
	CollectionRequestID string     `bson:"collection_request_id" json:"collection_request_id"`
	CollectorID         string     `bson:"collector_id" json:"collector_id"`
	AmountCents         int64      `bson:"amount_cents" json:"amount_cents"`
	Percentage          int        `bson:"percentage" json:"percentage"`
	Currency            string     `bson:"currency" json:"currency"`
	Status              string     `bson:"status" json:"status"`
	EarnedAt            time.Time  `bson:"earned_at" json:"earned_at"`
	PaidAt              *time.Time `bson:"paid_at,omitempty" json:"paid_at,omitempty"`
}

// SustainabilityFundEntry is the 10% share routed to environmental programs.
type SustainabilityFundEntry struct {
	ID                  string    `bson:"id" json:"id"`
	CollectionRequestID string    `bson:"collection_request_id" json:"collection_request_id"`
	AmountCents         int64     `bson:"amount_cents" json:"amount_cents"`
	Percentage          int       `bson:"percentage" json:"percentage"`
	Currency            string    `bson:"currency" json:"currency"`
	RecordedAt          time.Time `bson:"recorded_at" json:"recorded_at"`
}

// PlatformRevenueEntry is the 60% share retained by the operator. Any rounding
// residual from the other two shares lands here so the triple always sums to
// the request total.
type PlatformRevenueEntry struct {
	ID                  string    `bson:"id" json:"id"`
	CollectionRequestID string    `bson:"collection_request_id" json:"collection_request_id"`
	AmountCents         int64     `bson:"amount_cents" json:"amount_cents"`
	Percentage          int       `bson:"percentage" json:"percentage"`
	Currency            string    `bson:"currency" json:"currency"`
	RecordedAt          time.Time `bson:"recorded_at" json:"recorded_at"`
}

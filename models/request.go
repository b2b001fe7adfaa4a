package models

import "time"

// Request status vocabulary. Persisted verbatim; reporting consumers depend on
// these exact strings.
const (
	StatusPending       = "pending"
	StatusAssigned      = "assigned"
	StatusInProgress    = "in_progress"
	StatusCompleted     = "completed"
	StatusDelivered     = "delivered"
	StatusConfirmed     = "confirmed"
	StatusIssueReported = "issue_reported"
	StatusCancelled     = "cancelled"
)

// Priority levels for a collection request.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// ActiveStatuses are the statuses in which a request counts toward a
// collector's active-task set. A collector holding a request in any of these
// may not claim another.
var ActiveStatuses = []string{StatusAssigned, StatusInProgress, StatusCompleted, StatusDelivered}

// RequestItem is a single line item on a collection request. Prices are in the
// smallest currency unit.
type RequestItem struct {
	Category       string `bson:"category" json:"category"`
	Quantity       int    `bson:"quantity" json:"quantity"`
	UnitPriceCents int64  `bson:"unit_price_cents" json:"unit_price_cents"`
}

// IssueReport is the structured issue record carried alongside collector notes
// when a collector reports a blocking issue.
type IssueReport struct {
	Type        string    `bson:"type" json:"type"`
	Severity    string    `bson:"severity" json:"severity"`
	Description string    `bson:"description" json:"description"`
	ReportedBy  string    `bson:"reported_by" json:"reported_by"`
	ReportedAt  time.Time `bson:"reported_at" json:"reported_at"`
}

// CollectionRequest is the durable record of a pickup-and-recycle job and the
// single source of truth for its status. CollectorID and RecyclingCenterID are
// set once via conditional updates and never reassigned.
type CollectionRequest struct {
	ID                string        `bson:"id" json:"id"`
	CustomerID        string        `bson:"customer_id" json:"customer_id"`
	CollectorID       string        `bson:"collector_id,omitempty" json:"collector_id,omitempty"`
	RecyclingCenterID string        `bson:"recycling_center_id,omitempty" json:"recycling_center_id,omitempty"`
	Status            string        `bson:"status" json:"status"`
	Items             []RequestItem `bson:"items" json:"items"`
	TotalAmountCents  int64         `bson:"total_amount_cents" json:"total_amount_cents"`
	Currency          string        `bson:"currency" json:"currency"`
	Priority          string        `bson:"priority" json:"priority"`

	ScheduledDate         string `bson:"scheduled_date" json:"scheduled_date"` // "YYYY-MM-DD"
	ScheduledTime         string `bson:"scheduled_time" json:"scheduled_time"` // "HH:MM"
	OriginalScheduledDate string `bson:"original_scheduled_date,omitempty" json:"original_scheduled_date,omitempty"`
	OriginalScheduledTime string `bson:"original_scheduled_time,omitempty" json:"original_scheduled_time,omitempty"`
	RescheduleCount       int    `bson:"reschedule_count" json:"reschedule_count"`

	CollectorNotes string       `bson:"collector_notes,omitempty" json:"collector_notes,omitempty"`
	AdminNotes     string       `bson:"admin_notes,omitempty" json:"admin_notes,omitempty"`
	Issue          *IssueReport `bson:"issue,omitempty" json:"issue,omitempty"`
	EvidenceRefs   []string     `bson:"evidence_refs,omitempty" json:"evidence_refs,omitempty"` // opaque storage IDs

	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	AssignedAt  *time.Time `bson:"assigned_at,omitempty" json:"assigned_at,omitempty"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	DeliveredAt *time.Time `bson:"delivered_at,omitempty" json:"delivered_at,omitempty"`
	ConfirmedAt *time.Time `bson:"confirmed_at,omitempty" json:"confirmed_at,omitempty"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

// Categories returns the distinct item categories on the request.
func (r *CollectionRequest) Categories() []string {
	seen := make(map[string]bool, len(r.Items))
	var cats []string
	for _, it := range r.Items {
		if !seen[it.Category] {
			seen[it.Category] = true
			cats = append(cats, it.Category)
		}
	}
	return cats
}

// IsTerminal reports whether the request has reached a terminal status.
func (r *CollectionRequest) IsTerminal() bool {
	return r.Status == StatusConfirmed || r.Status == StatusCancelled
}

package collection

import (
	"context"

	auditRepo "ecocycle/database/repository/audit"
	centerRepo "ecocycle/database/repository/center"
	requestRepo "ecocycle/database/repository/request"
	"ecocycle/models"
	"ecocycle/services/ledger"
	"ecocycle/services/notification"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// SubmitRequestInput carries the externally validated details of a new
// collection request.
type SubmitRequestInput struct {
	CustomerID    string               `json:"customer_id"`
	Items         []models.RequestItem `json:"items"`
	Currency      string               `json:"currency"`
	Priority      string               `json:"priority"`
	ScheduledDate string               `json:"scheduled_date"`
	ScheduledTime string               `json:"scheduled_time"`
	AdminNotes    string               `json:"admin_notes"`
}

// EarningsInvalidator drops a collector's cached earnings summary after a
// settlement write. Satisfied by ledger.EarningsView.
type EarningsInvalidator interface {
	InvalidateEarnings(ctx context.Context, collectorID string)
}

// CollectionService is the coordination core: claim protocol, center
// assignment, the lifecycle state machine, and the read surface around them.
type CollectionService interface {
	SubmitRequest(ctx context.Context, input SubmitRequestInput) (*models.CollectionRequest, error)
	ListPending(ctx context.Context, filter requestRepo.PendingFilter) ([]models.CollectionRequest, error)
	ListByCollector(ctx context.Context, collectorID string, statuses []string) ([]models.CollectionRequest, error)
	GetRequest(ctx context.Context, requestID string) (*models.CollectionRequest, error)
	GetAuditTrail(ctx context.Context, requestID string) ([]models.AuditEntry, error)

	Claim(ctx context.Context, collectorID, requestID string) (*models.CollectionRequest, error)
	AssignCenter(ctx context.Context, collectorID, requestID, centerID string) error
	ListEligibleCenters(ctx context.Context, requestID string) ([]models.RecyclingCenter, error)

	Start(ctx context.Context, collectorID, requestID string) error
	CompleteWithEvidence(ctx context.Context, collectorID, requestID string, evidenceRefs []string, notes string) error
	ReportIssue(ctx context.Context, collectorID, requestID string, issue models.IssueReport) error
	ResolveIssue(ctx context.Context, adminID, requestID string, resume bool, notes string) error
	Deliver(ctx context.Context, collectorID, requestID string) error
	Confirm(ctx context.Context, centerID, requestID string) error
	Cancel(ctx context.Context, actor, requestID, reason string) error
	Reschedule(ctx context.Context, actor, requestID, date, timeOfDay string) (*models.CollectionRequest, error)
}

// DefaultCollectionService implements CollectionService. It holds no mutable
// state of its own; every cross-call invariant lives in the store and is read
// fresh on each operation.
type DefaultCollectionService struct {
	Repo     requestRepo.RequestRepository
	Centers  centerRepo.CenterRepository
	Ledger   ledger.RevenueLedger
	Audit    auditRepo.AuditRepository
	Earnings EarningsInvalidator
	Notifier notification.Dispatcher
	Cache    *redis.Client
	Logger   *zap.Logger
}

package ledgerRepo

import (
	"context"
	"errors"

	"ecocycle/models"
)

// Repository-level sentinels.
var (
	// ErrNotFound indicates no ledger record exists for the request.
	ErrNotFound = errors.New("ledger record not found")
	// ErrNoMatch indicates a conditional ledger update matched no document.
	ErrNoMatch = errors.New("conditional ledger update matched no document")
)

// RevenueSplit bundles the three records produced by one finalized request.
type RevenueSplit struct {
	Commission models.CommissionRecord
	Fund       models.SustainabilityFundEntry
	Revenue    models.PlatformRevenueEntry
}

// LedgerRepository persists the append-only revenue-split audit trail. The
// split insert is idempotent per collection_request_id: replaying it after a
// retry writes nothing new.
type LedgerRepository interface {
	// InsertSplit writes the commission/fund/revenue triple for a request.
	// Each record is inserted only if no record for its request exists yet,
	// so a partially applied earlier attempt is completed, never duplicated.
	InsertSplit(ctx context.Context, split RevenueSplit) error
	// GetCommissionByRequest returns the commission record for a request.
	GetCommissionByRequest(ctx context.Context, requestID string) (*models.CommissionRecord, error)
	// GetSplit returns all three records for a request.
	GetSplit(ctx context.Context, requestID string) (*RevenueSplit, error)
	// MarkCommissionPaid flips the request's commission from pending to paid.
	// Returns ErrNoMatch when the record is missing or already paid.
	MarkCommissionPaid(ctx context.Context, requestID string) error
	// ListCommissionsByCollector returns a collector's commission history,
	// newest first.
	ListCommissionsByCollector(ctx context.Context, collectorID string) ([]models.CommissionRecord, error)
}

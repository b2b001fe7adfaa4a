package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	ledgerRepo "ecocycle/database/repository/ledger"
	"ecocycle/models"
	"ecocycle/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInconsistency signals a sum mismatch or missing record detected during
// settlement. Fatal: the transition it was detected on must not proceed, and
// the condition requires manual reconciliation.
var ErrInconsistency = errors.New("revenue ledger inconsistency")

// RevenueLedger owns the authoritative 30/10/60 split. Finalize writes the
// split exactly once per request; Settle marks the commission paid. Both are
// safe to replay.
type RevenueLedger interface {
	Finalize(ctx context.Context, req *models.CollectionRequest) error
	Settle(ctx context.Context, req *models.CollectionRequest) error
}

// DefaultRevenueLedger implements RevenueLedger on top of the ledger
// repository, with bounded backoff around every storage call.
type DefaultRevenueLedger struct {
	Repo   ledgerRepo.LedgerRepository
	Logger *zap.Logger
}

// Finalize computes the split for the request's total and records the
// commission (pending), fund and platform entries. Guarded by the per-request
// uniqueness in the repository, a replayed call is a no-op.
func (l *DefaultRevenueLedger) Finalize(ctx context.Context, req *models.CollectionRequest) error {
	split := ComputeSplit(req.TotalAmountCents)
	now := time.Now().UTC()

	record := ledgerRepo.RevenueSplit{
		Commission: models.CommissionRecord{
			ID:                  uuid.New().String(),
			CollectionRequestID: req.ID,
			CollectorID:         req.CollectorID,
			AmountCents:         split.CommissionCents,
			Percentage:          models.CommissionPercent,
			Currency:            req.Currency,
			Status:              models.CommissionPending,
			EarnedAt:            now,
		},
		Fund: models.SustainabilityFundEntry{
			ID:                  uuid.New().String(),
			CollectionRequestID: req.ID,
			AmountCents:         split.FundCents,
			Percentage:          models.FundPercent,
			Currency:            req.Currency,
			RecordedAt:          now,
		},
		Revenue: models.PlatformRevenueEntry{
			ID:                  uuid.New().String(),
			CollectionRequestID: req.ID,
			AmountCents:         split.RevenueCents,
			Percentage:          models.PlatformPercent,
			Currency:            req.Currency,
			RecordedAt:          now,
		},
	}

	err := utils.WithRetry(ctx, "ledger.finalize", func() error {
		return l.Repo.InsertSplit(ctx, record)
	}, retryable)
	if err != nil {
		return fmt.Errorf("failed to record revenue split for request %s: %w", req.ID, err)
	}

	l.Logger.Info("revenue split recorded",
		zap.String("request_id", req.ID),
		zap.String("collector_id", req.CollectorID),
		zap.Int64("commission_cents", split.CommissionCents),
		zap.Int64("fund_cents", split.FundCents),
		zap.Int64("revenue_cents", split.RevenueCents),
	)
	return nil
}

// Settle marks the request's commission as paid. If the delivered-step write
// never landed, the split is recorded first; settlement never proceeds without
// a commission record. A sum mismatch against the request total is fatal.
func (l *DefaultRevenueLedger) Settle(ctx context.Context, req *models.CollectionRequest) error {
	if err := l.Finalize(ctx, req); err != nil {
		return err
	}

	split, err := l.Repo.GetSplit(ctx, req.ID)
	if err != nil {
		if errors.Is(err, ledgerRepo.ErrNotFound) {
			l.logInconsistency(req, "split records missing after finalize", nil)
			return ErrInconsistency
		}
		return fmt.Errorf("failed to load split for request %s: %w", req.ID, err)
	}

	sum := split.Commission.AmountCents + split.Fund.AmountCents + split.Revenue.AmountCents
	if sum != req.TotalAmountCents {
		l.logInconsistency(req, "split sum does not match request total", split)
		return ErrInconsistency
	}

	err = utils.WithRetry(ctx, "ledger.settle", func() error {
		return l.Repo.MarkCommissionPaid(ctx, req.ID)
	}, retryable)
	if err != nil {
		if errors.Is(err, ledgerRepo.ErrNoMatch) {
			// Not matched means no pending record. A concurrent settle having
			// already marked it paid is a replay and fine; anything else is
			// an inconsistency.
			current, getErr := l.Repo.GetCommissionByRequest(ctx, req.ID)
			if getErr == nil && current.Status == models.CommissionPaid {
				return nil
			}
			l.logInconsistency(req, "commission record neither pending nor paid", split)
			return ErrInconsistency
		}
		return fmt.Errorf("failed to mark commission paid for request %s: %w", req.ID, err)
	}
	return nil
}

func (l *DefaultRevenueLedger) logInconsistency(req *models.CollectionRequest, reason string, split *ledgerRepo.RevenueSplit) {
	fields := []zap.Field{
		zap.String("request_id", req.ID),
		zap.String("collector_id", req.CollectorID),
		zap.Int64("total_amount_cents", req.TotalAmountCents),
		zap.String("reason", reason),
	}
	if split != nil {
		fields = append(fields,
			zap.String("commission_id", split.Commission.ID),
			zap.Int64("commission_cents", split.Commission.AmountCents),
			zap.Int64("fund_cents", split.Fund.AmountCents),
			zap.Int64("revenue_cents", split.Revenue.AmountCents),
		)
	}
	l.Logger.Error("ledger inconsistency detected", fields...)
}

// retryable treats every repository failure except the conditional-update
// sentinels as transient.
func retryable(err error) bool {
	return !errors.Is(err, ledgerRepo.ErrNoMatch) && !errors.Is(err, ledgerRepo.ErrNotFound)
}

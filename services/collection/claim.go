package collection

import (
	"context"
	"errors"
	"fmt"

	requestRepo "ecocycle/database/repository/request"
	"ecocycle/models"
	"ecocycle/utils"

	"go.uber.org/zap"
)

// Claim exclusively assigns a pending request to the collector. The store
// resolves concurrent claims on the same request to exactly one winner; losers
// get ErrAlreadyClaimed and must re-poll the pending list. A collector holding
// any active request gets ErrCollectorBusy.
func (s *DefaultCollectionService) Claim(ctx context.Context, collectorID, requestID string) (*models.CollectionRequest, error) {
	claimed, err := s.claimOnce(ctx, collectorID, requestID)
	if err != nil {
		return nil, err
	}

	// Fail-closed re-validation: if another claim by the same collector
	// slipped in around the transaction, hand this one back and try once
	// more before reporting busy.
	active, err := s.Repo.CountActiveByCollector(ctx, collectorID)
	if err != nil {
		s.Logger.Warn("post-claim validation failed", zap.String("request_id", requestID), zap.Error(err))
	} else if active > 1 {
		if relErr := s.Repo.ReleaseClaim(ctx, requestID, collectorID); relErr != nil {
			s.Logger.Error("failed to release over-claimed request",
				zap.String("request_id", requestID),
				zap.String("collector_id", collectorID),
				zap.Error(relErr),
			)
		}
		claimed, err = s.claimOnce(ctx, collectorID, requestID)
		if err != nil {
			return nil, err
		}
		if active, err = s.Repo.CountActiveByCollector(ctx, collectorID); err == nil && active > 1 {
			if relErr := s.Repo.ReleaseClaim(ctx, requestID, collectorID); relErr != nil {
				s.Logger.Error("failed to release over-claimed request",
					zap.String("request_id", requestID),
					zap.String("collector_id", collectorID),
					zap.Error(relErr),
				)
			}
			return nil, ErrCollectorBusy
		}
	}

	s.invalidatePendingCache(ctx)
	s.recordAudit(ctx, requestID, collectorID, "claim", models.StatusPending, models.StatusAssigned)
	s.Notifier.Dispatch(ctx, models.PushPayload{
		Event:       models.NotifyClaimSuccess,
		RecipientID: collectorID,
		Role:        "collector",
		Title:       "Pickup claimed",
		Body:        fmt.Sprintf("Collection request %s is now yours.", requestID),
		Data:        map[string]string{"request_id": requestID},
	})
	return claimed, nil
}

func (s *DefaultCollectionService) claimOnce(ctx context.Context, collectorID, requestID string) (*models.CollectionRequest, error) {
	var claimed *models.CollectionRequest
	err := utils.WithRetry(ctx, "claim", func() error {
		var claimErr error
		claimed, claimErr = s.Repo.ClaimPending(ctx, requestID, collectorID)
		return claimErr
	}, retryableStore)
	if err == nil {
		return claimed, nil
	}

	switch {
	case errors.Is(err, requestRepo.ErrActiveTask):
		return nil, ErrCollectorBusy
	case errors.Is(err, requestRepo.ErrNoMatch):
		// The request exists but was not claimable; distinguish a stale
		// reference from a lost race.
		if _, getErr := s.Repo.GetByID(ctx, requestID); errors.Is(getErr, requestRepo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, ErrAlreadyClaimed
	case errors.Is(err, requestRepo.ErrNotFound):
		return nil, ErrNotFound
	default:
		return nil, &TransientError{Op: "claim", Err: err}
	}
}

func (s *DefaultCollectionService) invalidatePendingCache(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Del(ctx, utils.PendingCacheKey).Err(); err != nil {
		s.Logger.Debug("pending cache invalidation failed", zap.Error(err))
	}
}

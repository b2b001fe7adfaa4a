package collection

import (
	"context"
	"errors"

	centerRepo "ecocycle/database/repository/center"
	requestRepo "ecocycle/database/repository/request"
	"ecocycle/models"
	"ecocycle/utils"

	"go.uber.org/zap"
)

// AssignCenter binds a recycling center to a claimed request. The binding is
// set-once: once a center is bound it stays bound for the life of the request.
// When no active center accepts any of the request's categories the claim is
// released so a collector with access to a different center can take it.
func (s *DefaultCollectionService) AssignCenter(ctx context.Context, collectorID, requestID, centerID string) error {
	req, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.CollectorID != collectorID {
		return ErrNotOwner
	}
	if req.Status != models.StatusAssigned {
		return ErrInvalidTransition
	}
	if req.RecyclingCenterID != "" {
		return ErrAlreadyModified
	}

	center, err := s.Centers.GetByID(ctx, centerID)
	if err != nil {
		if errors.Is(err, centerRepo.ErrNotFound) {
			return ErrCenterUnavailable
		}
		return &TransientError{Op: "assignCenter", Err: err}
	}
	if !center.Active {
		return ErrCenterUnavailable
	}

	categories := req.Categories()
	if !center.AcceptsAny(categories) {
		eligible, listErr := s.Centers.ListAcceptingAny(ctx, categories)
		if listErr != nil {
			return &TransientError{Op: "assignCenter", Err: listErr}
		}
		if len(eligible) == 0 {
			return s.releaseForNoCenter(ctx, collectorID, requestID)
		}
		return ErrCenterNotEligible
	}

	err = utils.WithRetry(ctx, "assignCenter", func() error {
		return s.Repo.AssignCenter(ctx, requestID, centerID)
	}, retryableStore)
	if err != nil {
		switch {
		case errors.Is(err, requestRepo.ErrNoMatch):
			return ErrAlreadyModified
		default:
			return &TransientError{Op: "assignCenter", Err: err}
		}
	}

	s.recordAudit(ctx, requestID, collectorID, "assign_center:"+centerID, models.StatusAssigned, models.StatusAssigned)
	return nil
}

// releaseForNoCenter rolls the claim back and reports the terminal condition.
func (s *DefaultCollectionService) releaseForNoCenter(ctx context.Context, collectorID, requestID string) error {
	if err := s.Repo.ReleaseClaim(ctx, requestID, collectorID); err != nil {
		s.Logger.Error("failed to release claim after eligibility failure",
			zap.String("request_id", requestID),
			zap.String("collector_id", collectorID),
			zap.Error(err),
		)
		return &TransientError{Op: "releaseClaim", Err: err}
	}
	s.invalidatePendingCache(ctx)
	s.recordAudit(ctx, requestID, collectorID, "release:no_eligible_center", models.StatusAssigned, models.StatusPending)
	return ErrNoEligibleCenter
}

// ListEligibleCenters returns the active centers accepting at least one of the
// request's item categories.
func (s *DefaultCollectionService) ListEligibleCenters(ctx context.Context, requestID string) ([]models.RecyclingCenter, error) {
	req, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	centers, err := s.Centers.ListAcceptingAny(ctx, req.Categories())
	if err != nil {
		return nil, &TransientError{Op: "listEligibleCenters", Err: err}
	}
	return centers, nil
}

package collection

import (
	"context"
	"errors"
	"fmt"
	"time"

	requestRepo "ecocycle/database/repository/request"
	"ecocycle/models"
	"ecocycle/utils"

	"go.mongodb.org/mongo-driver/bson"
)

// allowedTransitions is the request state machine. Initial status is pending;
// confirmed and cancelled are terminal. Reschedule is not an edge: it mutates
// scheduling fields of any non-terminal request without changing status.
var allowedTransitions = map[string][]string{
	models.StatusPending:       {models.StatusAssigned, models.StatusCancelled},
	models.StatusAssigned:      {models.StatusInProgress, models.StatusIssueReported, models.StatusCancelled},
	models.StatusInProgress:    {models.StatusCompleted, models.StatusIssueReported, models.StatusCancelled},
	models.StatusCompleted:     {models.StatusDelivered},
	models.StatusDelivered:     {models.StatusConfirmed},
	models.StatusIssueReported: {models.StatusAssigned, models.StatusCancelled},
}

// CanTransition reports whether from -> to is an edge of the state machine.
func CanTransition(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// GetRequest retrieves a request by id.
func (s *DefaultCollectionService) GetRequest(ctx context.Context, requestID string) (*models.CollectionRequest, error) {
	req, err := s.Repo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, requestRepo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &TransientError{Op: "getRequest", Err: err}
	}
	return req, nil
}

// transition applies one CAS edge and records it. The conditional update is
// what serializes concurrent attempts: the loser's write matches nothing and
// comes back as ErrAlreadyModified after a re-check. Transient storage
// failures are retried with backoff before surfacing.
func (s *DefaultCollectionService) transition(ctx context.Context, requestID, actor, from, to string, set bson.M) error {
	if !CanTransition(from, to) {
		return ErrInvalidTransition
	}
	op := fmt.Sprintf("transition %s->%s", from, to)
	err := utils.WithRetry(ctx, op, func() error {
		return s.Repo.TransitionStatus(ctx, requestID, from, to, set)
	}, retryableStore)
	if err != nil {
		switch {
		case errors.Is(err, requestRepo.ErrNoMatch):
			if _, getErr := s.Repo.GetByID(ctx, requestID); errors.Is(getErr, requestRepo.ErrNotFound) {
				return ErrNotFound
			}
			return ErrAlreadyModified
		default:
			return &TransientError{Op: op, Err: err}
		}
	}
	s.recordAudit(ctx, requestID, actor, "transition", from, to)
	return nil
}

// fetchOwned loads a request and verifies the acting collector holds it.
func (s *DefaultCollectionService) fetchOwned(ctx context.Context, collectorID, requestID string) (*models.CollectionRequest, error) {
	req, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.CollectorID != collectorID {
		return nil, ErrNotOwner
	}
	return req, nil
}

// Start moves an assigned request into collection.
func (s *DefaultCollectionService) Start(ctx context.Context, collectorID, requestID string) error {
	req, err := s.fetchOwned(ctx, collectorID, requestID)
	if err != nil {
		return err
	}
	if req.Status != models.StatusAssigned {
		return ErrInvalidTransition
	}
	return s.transition(ctx, requestID, collectorID, models.StatusAssigned, models.StatusInProgress, nil)
}

// CompleteWithEvidence attaches evidence references and marks the collection
// finished. Evidence is mandatory; the references are opaque storage IDs.
func (s *DefaultCollectionService) CompleteWithEvidence(ctx context.Context, collectorID, requestID string, evidenceRefs []string, notes string) error {
	if len(evidenceRefs) == 0 {
		return ErrEvidenceRequired
	}
	req, err := s.fetchOwned(ctx, collectorID, requestID)
	if err != nil {
		return err
	}
	if req.Status != models.StatusInProgress {
		return ErrInvalidTransition
	}
	err = utils.WithRetry(ctx, "attachEvidence", func() error {
		return s.Repo.AttachEvidence(ctx, requestID, evidenceRefs, notes)
	}, retryableStore)
	if err != nil {
		if errors.Is(err, requestRepo.ErrNoMatch) {
			return ErrAlreadyModified
		}
		return &TransientError{Op: "attachEvidence", Err: err}
	}
	return s.transition(ctx, requestID, collectorID, models.StatusInProgress, models.StatusCompleted, bson.M{
		"completed_at": time.Now().UTC(),
	})
}

// ReportIssue records a blocking issue and parks the request for an admin
// decision.
func (s *DefaultCollectionService) ReportIssue(ctx context.Context, collectorID, requestID string, issue models.IssueReport) error {
	req, err := s.fetchOwned(ctx, collectorID, requestID)
	if err != nil {
		return err
	}
	if req.Status != models.StatusAssigned && req.Status != models.StatusInProgress {
		return ErrInvalidTransition
	}
	issue.ReportedBy = collectorID
	issue.ReportedAt = time.Now().UTC()
	if err := s.transition(ctx, requestID, collectorID, req.Status, models.StatusIssueReported, bson.M{
		"issue": issue,
	}); err != nil {
		return err
	}
	s.Notifier.Dispatch(ctx, models.PushPayload{
		Event:       models.NotifyIssueReported,
		RecipientID: "operations",
		Role:        "admin",
		Title:       "Issue reported on pickup",
		Body:        fmt.Sprintf("Collector reported a %s issue on request %s.", issue.Severity, requestID),
		Data:        map[string]string{"request_id": requestID, "type": issue.Type},
	})
	return nil
}

// ResolveIssue is the admin decision on a parked request: resume returns it to
// the collector as assigned, otherwise it is cancelled.
func (s *DefaultCollectionService) ResolveIssue(ctx context.Context, adminID, requestID string, resume bool, notes string) error {
	req, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.Status != models.StatusIssueReported {
		return ErrInvalidTransition
	}
	set := bson.M{}
	if notes != "" {
		set["admin_notes"] = notes
	}
	if resume {
		return s.transition(ctx, requestID, adminID, models.StatusIssueReported, models.StatusAssigned, set)
	}
	return s.transition(ctx, requestID, adminID, models.StatusIssueReported, models.StatusCancelled, set)
}

// Deliver hands the collected material to the assigned recycling center. The
// revenue split is recorded before the status moves; a persistent ledger
// failure keeps the request in completed rather than ever dropping a payment
// record.
func (s *DefaultCollectionService) Deliver(ctx context.Context, collectorID, requestID string) error {
	req, err := s.fetchOwned(ctx, collectorID, requestID)
	if err != nil {
		return err
	}
	if req.Status != models.StatusCompleted {
		return ErrInvalidTransition
	}
	if req.RecyclingCenterID == "" {
		return ErrCenterRequired
	}
	if len(req.EvidenceRefs) == 0 {
		return ErrEvidenceRequired
	}

	if err := s.Ledger.Finalize(ctx, req); err != nil {
		return &TransientError{Op: "ledger.finalize", Err: err}
	}

	if err := s.transition(ctx, requestID, collectorID, models.StatusCompleted, models.StatusDelivered, bson.M{
		"delivered_at": time.Now().UTC(),
	}); err != nil {
		return err
	}

	s.Notifier.Dispatch(ctx, models.PushPayload{
		Event:       models.NotifyFundContribution,
		RecipientID: req.CustomerID,
		Role:        "customer",
		Title:       "Sustainability contribution recorded",
		Body:        "Your pickup was delivered; 10% of the payment goes to environmental programs.",
		Data:        map[string]string{"request_id": requestID},
	})
	return nil
}

// Confirm finalizes the request on center receipt. The commission is settled
// before the status moves, so confirmation can never outrun a missing or
// unpaid commission record.
func (s *DefaultCollectionService) Confirm(ctx context.Context, centerID, requestID string) error {
	req, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.RecyclingCenterID != centerID {
		return ErrNotOwner
	}
	if req.Status != models.StatusDelivered {
		return ErrInvalidTransition
	}

	if err := s.Ledger.Settle(ctx, req); err != nil {
		return err
	}

	if err := s.transition(ctx, requestID, centerID, models.StatusDelivered, models.StatusConfirmed, bson.M{
		"confirmed_at": time.Now().UTC(),
	}); err != nil {
		return err
	}

	// The collector's cached earnings summary is stale the moment the
	// commission flips to paid.
	if s.Earnings != nil {
		s.Earnings.InvalidateEarnings(ctx, req.CollectorID)
	}

	s.Notifier.Dispatch(ctx, models.PushPayload{
		Event:       models.NotifyCommissionPaid,
		RecipientID: req.CollectorID,
		Role:        "collector",
		Title:       "Commission paid",
		Body:        fmt.Sprintf("Your 30%% commission for request %s has been paid.", requestID),
		Data:        map[string]string{"request_id": requestID},
	})
	return nil
}

// Cancel terminates a request that has not yet been completed. Cancelling an
// assigned or in-progress request frees the collector to claim again: the
// active-task view is derived from status, so the status change is the
// release.
func (s *DefaultCollectionService) Cancel(ctx context.Context, actor, requestID, reason string) error {
	req, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	switch req.Status {
	case models.StatusPending, models.StatusAssigned, models.StatusInProgress:
	default:
		return ErrInvalidTransition
	}
	set := bson.M{}
	if reason != "" {
		set["admin_notes"] = reason
	}
	if err := s.transition(ctx, requestID, actor, req.Status, models.StatusCancelled, set); err != nil {
		return err
	}
	s.invalidatePendingCache(ctx)
	return nil
}

// Reschedule moves the pickup date/time of a non-terminal request. The first
// reschedule captures the original schedule; later ones leave it untouched.
func (s *DefaultCollectionService) Reschedule(ctx context.Context, actor, requestID, date, timeOfDay string) (*models.CollectionRequest, error) {
	err := utils.WithRetry(ctx, "reschedule", func() error {
		return s.Repo.Reschedule(ctx, requestID, date, timeOfDay)
	}, retryableStore)
	if err != nil {
		switch {
		case errors.Is(err, requestRepo.ErrNoMatch):
			req, getErr := s.Repo.GetByID(ctx, requestID)
			if errors.Is(getErr, requestRepo.ErrNotFound) {
				return nil, ErrNotFound
			}
			if getErr == nil && req.IsTerminal() {
				return nil, ErrInvalidTransition
			}
			return nil, ErrAlreadyModified
		default:
			return nil, &TransientError{Op: "reschedule", Err: err}
		}
	}
	s.recordAudit(ctx, requestID, actor, fmt.Sprintf("reschedule:%s %s", date, timeOfDay), "", "")
	return s.GetRequest(ctx, requestID)
}

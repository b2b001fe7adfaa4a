package collection

import (
	"errors"
	"fmt"

	requestRepo "ecocycle/database/repository/request"
)

// Domain error taxonomy. Conflict and not-found errors surface immediately to
// the caller; transient errors are retried internally and only surfaced after
// the retry budget is exhausted.
var (
	// ErrAlreadyClaimed: another collector won the race for this request.
	// Not retried; the caller must re-poll the pending list.
	ErrAlreadyClaimed = errors.New("request was already claimed by another collector")
	// ErrCollectorBusy: the collector still holds an active request.
	ErrCollectorBusy = errors.New("collector must finish their current task first")
	// ErrNoEligibleCenter: no active center accepts any requested category.
	// Terminal for the claim attempt; the claim is released.
	ErrNoEligibleCenter = errors.New("no active recycling center accepts the requested categories")
	// ErrCenterNotEligible: the chosen center accepts none of the requested
	// categories, but another center would.
	ErrCenterNotEligible = errors.New("recycling center does not accept the requested categories")
	// ErrCenterUnavailable: the chosen center was deactivated concurrently.
	ErrCenterUnavailable = errors.New("recycling center is unavailable")
	// ErrNotFound: stale reference.
	ErrNotFound = errors.New("collection request not found")
	// ErrInvalidTransition: the attempted edge is not in the state machine.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrAlreadyModified: a concurrent transition won; re-fetch and retry
	// against fresh state.
	ErrAlreadyModified = errors.New("request was modified concurrently")
	// ErrEvidenceRequired: delivery needs evidence attached at completion.
	ErrEvidenceRequired = errors.New("evidence must be attached before completing collection")
	// ErrCenterRequired: delivery needs a recycling center bound first.
	ErrCenterRequired = errors.New("recycling center must be assigned before delivery")
	// ErrNotOwner: the acting collector does not hold this request.
	ErrNotOwner = errors.New("request is held by a different collector")
	// ErrValidation: the submitted request is structurally invalid.
	ErrValidation = errors.New("invalid collection request")
)

// TransientError wraps a storage failure that survived the retry budget.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient storage failure in %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// retryableStore reports whether a request-store failure is worth another
// attempt. The conditional-write sentinels are definitive answers, not
// failures, and must surface on the first attempt.
func retryableStore(err error) bool {
	return !errors.Is(err, requestRepo.ErrNoMatch) &&
		!errors.Is(err, requestRepo.ErrActiveTask) &&
		!errors.Is(err, requestRepo.ErrNotFound)
}

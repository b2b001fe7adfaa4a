package requestRepo

import (
	"context"
	"errors"

	"ecocycle/models"

	"go.mongodb.org/mongo-driver/bson"
)

// Repository-level sentinels. Services translate these into the domain error
// taxonomy after inspecting current state.
var (
	// ErrNotFound indicates the request id does not exist.
	ErrNotFound = errors.New("collection request not found")
	// ErrNoMatch indicates a conditional update matched no document: the
	// request exists but its state no longer satisfies the precondition.
	ErrNoMatch = errors.New("conditional update matched no document")
	// ErrActiveTask indicates the collector already holds an active request.
	ErrActiveTask = errors.New("collector already holds an active request")
)

// PendingFilter narrows the pending-request listing.
type PendingFilter struct {
	Category string
	Priority string
	Limit    int64
}

// RequestRepository defines data access for collection requests. Every
// cross-actor invariant (claim exclusivity, one-active-task, serialized
// transitions) is enforced here via atomic conditional writes, never by
// application-level locking.
type RequestRepository interface {
	// Create inserts a new request document.
	Create(ctx context.Context, req *models.CollectionRequest) error
	// GetByID retrieves a request by its unique ID.
	GetByID(ctx context.Context, id string) (*models.CollectionRequest, error)
	// ListPending returns pending requests matching the filter, oldest first.
	ListPending(ctx context.Context, filter PendingFilter) ([]models.CollectionRequest, error)
	// ListByCollector returns a collector's requests in the given statuses.
	ListByCollector(ctx context.Context, collectorID string, statuses []string) ([]models.CollectionRequest, error)
	// CountActiveByCollector counts the collector's requests in an active
	// status (assigned, in_progress, completed, delivered).
	CountActiveByCollector(ctx context.Context, collectorID string) (int64, error)
	// ClaimPending atomically assigns a pending, unclaimed request to the
	// collector. The one-active-task check and the conditional claim run in
	// the same transaction. Returns ErrActiveTask, ErrNoMatch or ErrNotFound.
	ClaimPending(ctx context.Context, requestID, collectorID string) (*models.CollectionRequest, error)
	// ReleaseClaim rolls an assigned request held by the collector back to
	// pending and clears the collector reference.
	ReleaseClaim(ctx context.Context, requestID, collectorID string) error
	// AssignCenter binds a recycling center to an assigned request whose
	// center is still unset. Set-once: a bound center is never overwritten.
	AssignCenter(ctx context.Context, requestID, centerID string) error
	// TransitionStatus performs a compare-and-swap from one status to
	// another, applying extra field updates in the same write.
	TransitionStatus(ctx context.Context, requestID, from, to string, set bson.M) error
	// Reschedule mutates the scheduling fields of a non-terminal request,
	// capturing the original date/time on the first reschedule only.
	Reschedule(ctx context.Context, requestID, date, timeOfDay string) error
	// AttachEvidence appends evidence references and collector notes to an
	// in-progress request.
	AttachEvidence(ctx context.Context, requestID string, refs []string, notes string) error
}

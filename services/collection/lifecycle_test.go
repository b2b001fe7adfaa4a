package collection

import (
	"context"
	"testing"

	"ecocycle/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// advanceTo drives a freshly created request through the lifecycle up to the
// given status using the public operations.
func advanceTo(t *testing.T, env *testEnv, requestID, collectorID, centerID, target string) {
	t.Helper()
	ctx := context.Background()

	_, err := env.svc.Claim(ctx, collectorID, requestID)
	require.NoError(t, err)
	if target == models.StatusAssigned {
		return
	}

	require.NoError(t, env.svc.AssignCenter(ctx, collectorID, requestID, centerID))
	require.NoError(t, env.svc.Start(ctx, collectorID, requestID))
	if target == models.StatusInProgress {
		return
	}

	require.NoError(t, env.svc.CompleteWithEvidence(ctx, collectorID, requestID, []string{"photo-1"}, "picked up"))
	if target == models.StatusCompleted {
		return
	}

	require.NoError(t, env.svc.Deliver(ctx, collectorID, requestID))
	if target == models.StatusDelivered {
		return
	}

	require.NoError(t, env.svc.Confirm(ctx, centerID, requestID))
}

func plasticCenter(id string) models.RecyclingCenter {
	return models.RecyclingCenter{
		ID:                 id,
		Name:               "Colombo North Recycling",
		AcceptedCategories: []string{"plastic", "glass"},
		Active:             true,
	}
}

func TestFullLifecycleHappyPath(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.centers.put(plasticCenter("center-1"))
	require.NoError(t, env.repo.Create(ctx, pendingRequest("req-1")))

	advanceTo(t, env, "req-1", "col-1", "center-1", models.StatusConfirmed)

	req, err := env.svc.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, req.Status)
	assert.Equal(t, "col-1", req.CollectorID)
	assert.Equal(t, "center-1", req.RecyclingCenterID)
	assert.Equal(t, []string{"photo-1"}, req.EvidenceRefs)
	assert.NotNil(t, req.CompletedAt)
	assert.NotNil(t, req.DeliveredAt)
	assert.NotNil(t, req.ConfirmedAt)

	// Split recorded at delivery, settled at confirmation.
	assert.Equal(t, 1, env.ledger.finalized["req-1"])
	assert.Equal(t, 1, env.ledger.settled["req-1"])
}

func TestStartRequiresAssignedStatus(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	require.NoError(t, env.repo.Create(ctx, pendingRequest("req-1")))

	err := env.svc.Start(ctx, "col-1", "req-1")
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = env.svc.Claim(ctx, "col-1", "req-1")
	require.NoError(t, err)

	// Only the holder may start.
	err = env.svc.Start(ctx, "col-2", "req-1")
	assert.ErrorIs(t, err, ErrNotOwner)

	require.NoError(t, env.svc.Start(ctx, "col-1", "req-1"))

	// Starting twice hits the state machine.
	err = env.svc.Start(ctx, "col-1", "req-1")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCompleteRequiresEvidence(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.centers.put(plasticCenter("center-1"))
	require.NoError(t, env.repo.Create(ctx, pendingRequest("req-1")))
	advanceTo(t, env, "req-1", "col-1", "center-1", models.StatusInProgress)

	err := env.svc.CompleteWithEvidence(ctx, "col-1", "req-1", nil, "")
	assert.ErrorIs(t, err, ErrEvidenceRequired)

	require.NoError(t, env.svc.CompleteWithEvidence(ctx, "col-1", "req-1", []string{"photo-1", "photo-2"}, "two bags"))

	req, err := env.svc.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, req.Status)
	assert.Len(t, req.EvidenceRefs, 2)
	assert.Equal(t, "two bags", req.CollectorNotes)
}

func TestDeliverRequiresCenterBinding(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	require.NoError(t, env.repo.Create(ctx, pendingRequest("req-1")))

	// Claim, start and complete without ever binding a center.
	_, err := env.svc.Claim(ctx, "col-1", "req-1")
	require.NoError(t, err)
	require.NoError(t, env.svc.Start(ctx, "col-1", "req-1"))
	require.NoError(t, env.svc.CompleteWithEvidence(ctx, "col-1", "req-1", []string{"photo-1"}, ""))

	err = env.svc.Deliver(ctx, "col-1", "req-1")
	assert.ErrorIs(t, err, ErrCenterRequired)
	assert.Zero(t, env.ledger.finalized["req-1"])
}

func TestDeliverBlockedByLedgerFailure(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.centers.put(plasticCenter("center-1"))
	require.NoError(t, env.repo.Create(ctx, pendingRequest("req-1")))
	advanceTo(t, env, "req-1", "col-1", "center-1", models.StatusCompleted)

	env.ledger.finalizeErr = errRepoDown
	err := env.svc.Deliver(ctx, "col-1", "req-1")
	require.Error(t, err)

	// A failed split write must never let the status advance.
	req, getErr := env.svc.GetRequest(ctx, "req-1")
	require.NoError(t, getErr)
	assert.Equal(t, models.StatusCompleted, req.Status)

	// Once the ledger recovers, delivery goes through.
	env.ledger.finalizeErr = nil
	require.NoError(t, env.svc.Deliver(ctx, "col-1", "req-1"))
}

func TestConfirmOnlyByAssignedCenter(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.centers.put(plasticCenter("center-1"))
	require.NoError(t, env.repo.Create(ctx, pendingRequest("req-1")))
	advanceTo(t, env, "req-1", "col-1", "center-1", models.StatusDelivered)

	err := env.svc.Confirm(ctx, "center-2", "req-1")
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Zero(t, env.ledger.settled["req-1"])

	require.NoError(t, env.svc.Confirm(ctx, "center-1", "req-1"))
	assert.Equal(t, 1, env.ledger.settled["req-1"])
}

func TestConfirmBlockedBySettlementFailure(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.centers.put(plasticCenter("center-1"))
	require.NoError(t, env.repo.Create(ctx, pendingRequest("req-1")))
	advanceTo(t, env, "req-1", "col-1", "center-1", models.StatusDelivered)

	env.ledger.settleErr = errRepoDown
	require.Error(t, env.svc.Confirm(ctx, "center-1", "req-1"))

	req, err := env.svc.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, req.Status)
}

func TestIssueReportAndResume(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.centers.put(plasticCenter("center-1"))
	require.NoError(t, env.repo.Create(ctx, pendingRequest("req-1")))
	advanceTo(t, env, "req-1", "col-1", "center-1", models.StatusInProgress)

	issue := models.IssueReport{Type: "access", Severity: "medium", Description: "gate locked"}
	require.NoError(t, env.svc.ReportIssue(ctx, "col-1", "req-1", issue))

	req, err := env.svc.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusIssueReported, req.Status)
	require.NotNil(t, req.Issue)
	assert.Equal(t, "col-1", req.Issue.ReportedBy)

	// Admin sends it back to the collector.
	require.NoError(t, env.svc.ResolveIssue(ctx, "admin-1", "req-1", true, "customer will unlock"))
	req, err = env.svc.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, req.Status)
	assert.Equal(t, "col-1", req.CollectorID)
}

func TestIssueEscalatedToCancellation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	require.NoError(t, env.repo.Create(ctx, pendingRequest("req-1")))
	_, err := env.svc.Claim(ctx, "col-1", "req-1")
	require.NoError(t, err)

	issue := models.IssueReport{Type: "hazard", Severity: "high", Description: "chemical waste"}
	require.NoError(t, env.svc.ReportIssue(ctx, "col-1", "req-1", issue))
	require.NoError(t, env.svc.ResolveIssue(ctx, "admin-1", "req-1", false, "unserviceable material"))

	req, err := env.svc.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, req.Status)
	assert.Equal(t, "unserviceable material", req.AdminNotes)
}

func TestCancelTerminalAndLateStatuses(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.centers.put(plasticCenter("center-1"))
	require.NoError(t, env.repo.Create(ctx, pendingRequest("req-1")))
	advanceTo(t, env, "req-1", "col-1", "center-1", models.StatusCompleted)

	// Completed work is past the point of no return.
	err := env.svc.Cancel(ctx, "admin-1", "req-1", "too late")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, env.repo.Create(ctx, pendingRequest("req-2")))
	require.NoError(t, env.svc.Cancel(ctx, "cust-1", "req-2", "changed plans"))
	err = env.svc.Cancel(ctx, "cust-1", "req-2", "again")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRescheduleCapturesOriginalOnce(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	require.NoError(t, env.repo.Create(ctx, pendingRequest("req-1")))

	req, err := env.svc.Reschedule(ctx, "cust-1", "req-1", "2026-09-03", "14:00")
	require.NoError(t, err)
	assert.Equal(t, "2026-09-03", req.ScheduledDate)
	assert.Equal(t, "14:00", req.ScheduledTime)
	assert.Equal(t, "2026-09-01", req.OriginalScheduledDate)
	assert.Equal(t, "09:00", req.OriginalScheduledTime)
	assert.Equal(t, 1, req.RescheduleCount)

	// Second reschedule keeps the first original.
	req, err = env.svc.Reschedule(ctx, "cust-1", "req-1", "2026-09-05", "10:30")
	require.NoError(t, err)
	assert.Equal(t, "2026-09-01", req.OriginalScheduledDate)
	assert.Equal(t, "09:00", req.OriginalScheduledTime)
	assert.Equal(t, 2, req.RescheduleCount)
}

func TestRescheduleRejectedOnTerminalRequest(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	require.NoError(t, env.repo.Create(ctx, pendingRequest("req-1")))
	require.NoError(t, env.svc.Cancel(ctx, "cust-1", "req-1", ""))

	_, err := env.svc.Reschedule(ctx, "cust-1", "req-1", "2026-09-03", "14:00")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransitionRetriesTransientStorageFailure(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	require.NoError(t, env.repo.Create(ctx, pendingRequest("req-1")))
	_, err := env.svc.Claim(ctx, "col-1", "req-1")
	require.NoError(t, err)

	// One failed conditional write must not surface; the retry lands it.
	env.repo.failTransitions = 1
	require.NoError(t, env.svc.Start(ctx, "col-1", "req-1"))

	req, err := env.svc.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, req.Status)
}

func TestConfirmInvalidatesEarningsCache(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.centers.put(plasticCenter("center-1"))
	require.NoError(t, env.repo.Create(ctx, pendingRequest("req-1")))
	advanceTo(t, env, "req-1", "col-1", "center-1", models.StatusDelivered)

	require.NoError(t, env.svc.Confirm(ctx, "center-1", "req-1"))
	assert.Contains(t, env.earnings.invalidated, "col-1")
}

func TestTransitionLoserGetsAlreadyModified(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	require.NoError(t, env.repo.Create(ctx, pendingRequest("req-1")))
	_, err := env.svc.Claim(ctx, "col-1", "req-1")
	require.NoError(t, err)

	// The request moves on underneath a stale actor.
	require.NoError(t, env.svc.Start(ctx, "col-1", "req-1"))

	err = env.svc.ResolveIssue(ctx, "admin-1", "req-1", true, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAuditTrailCoversLifecycle(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.centers.put(plasticCenter("center-1"))
	require.NoError(t, env.repo.Create(ctx, pendingRequest("req-1")))
	advanceTo(t, env, "req-1", "col-1", "center-1", models.StatusConfirmed)

	trail, err := env.svc.GetAuditTrail(ctx, "req-1")
	require.NoError(t, err)
	// claim, assign_center, start, complete, deliver, confirm.
	require.Len(t, trail, 6)
	assert.Equal(t, "claim", trail[0].Action)
	assert.Equal(t, models.StatusConfirmed, trail[len(trail)-1].ToStatus)
}

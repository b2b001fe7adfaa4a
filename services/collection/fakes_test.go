package collection

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	centerRepo "ecocycle/database/repository/center"
	requestRepo "ecocycle/database/repository/request"
	"ecocycle/models"
	"ecocycle/services/notification"
	"ecocycle/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Keep retry backoff out of test wall time.
func init() {
	utils.RetryBaseDelay = time.Millisecond
}

// memRequestRepo is an in-memory RequestRepository mirroring the conditional
// write semantics of the Mongo implementation: every mutation checks its
// precondition and the whole check-and-write runs under one lock.
type memRequestRepo struct {
	mu       sync.Mutex
	requests map[string]*models.CollectionRequest

	failTransitions int
	failClaims      int
	claimCalls      int
}

var errRepoDown = errors.New("repository unavailable")

func newMemRequestRepo() *memRequestRepo {
	return &memRequestRepo{requests: make(map[string]*models.CollectionRequest)}
}

func (m *memRequestRepo) Create(ctx context.Context, req *models.CollectionRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *req
	m.requests[req.ID] = &cp
	return nil
}

func (m *memRequestRepo) GetByID(ctx context.Context, id string) (*models.CollectionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, requestRepo.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (m *memRequestRepo) ListPending(ctx context.Context, filter requestRepo.PendingFilter) ([]models.CollectionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CollectionRequest
	for _, req := range m.requests {
		if req.Status != models.StatusPending {
			continue
		}
		if filter.Priority != "" && req.Priority != filter.Priority {
			continue
		}
		if filter.Category != "" {
			match := false
			for _, it := range req.Items {
				if it.Category == filter.Category {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, *req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memRequestRepo) ListByCollector(ctx context.Context, collectorID string, statuses []string) ([]models.CollectionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}
	var out []models.CollectionRequest
	for _, req := range m.requests {
		if req.CollectorID == collectorID && want[req.Status] {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (m *memRequestRepo) CountActiveByCollector(ctx context.Context, collectorID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countActiveLocked(collectorID), nil
}

func (m *memRequestRepo) countActiveLocked(collectorID string) int64 {
	var n int64
	for _, req := range m.requests {
		if req.CollectorID != collectorID {
			continue
		}
		for _, s := range models.ActiveStatuses {
			if req.Status == s {
				n++
				break
			}
		}
	}
	return n
}

func (m *memRequestRepo) ClaimPending(ctx context.Context, requestID, collectorID string) (*models.CollectionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.claimCalls++
	if m.failClaims > 0 {
		m.failClaims--
		return nil, errRepoDown
	}
	if m.countActiveLocked(collectorID) > 0 {
		return nil, requestRepo.ErrActiveTask
	}
	req, ok := m.requests[requestID]
	if !ok {
		return nil, requestRepo.ErrNoMatch
	}
	if req.Status != models.StatusPending || req.CollectorID != "" {
		return nil, requestRepo.ErrNoMatch
	}
	now := time.Now().UTC()
	req.Status = models.StatusAssigned
	req.CollectorID = collectorID
	req.AssignedAt = &now
	req.UpdatedAt = now
	cp := *req
	return &cp, nil
}

func (m *memRequestRepo) ReleaseClaim(ctx context.Context, requestID, collectorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[requestID]
	if !ok || req.Status != models.StatusAssigned || req.CollectorID != collectorID {
		return requestRepo.ErrNoMatch
	}
	req.Status = models.StatusPending
	req.CollectorID = ""
	req.AssignedAt = nil
	req.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memRequestRepo) AssignCenter(ctx context.Context, requestID, centerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[requestID]
	if !ok || req.Status != models.StatusAssigned || req.RecyclingCenterID != "" {
		return requestRepo.ErrNoMatch
	}
	req.RecyclingCenterID = centerID
	req.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memRequestRepo) TransitionStatus(ctx context.Context, requestID, from, to string, set bson.M) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTransitions > 0 {
		m.failTransitions--
		return errRepoDown
	}
	req, ok := m.requests[requestID]
	if !ok || req.Status != from {
		return requestRepo.ErrNoMatch
	}
	req.Status = to
	req.UpdatedAt = time.Now().UTC()
	for key, val := range set {
		switch key {
		case "completed_at":
			ts := val.(time.Time)
			req.CompletedAt = &ts
		case "delivered_at":
			ts := val.(time.Time)
			req.DeliveredAt = &ts
		case "confirmed_at":
			ts := val.(time.Time)
			req.ConfirmedAt = &ts
		case "admin_notes":
			req.AdminNotes = val.(string)
		case "issue":
			issue := val.(models.IssueReport)
			req.Issue = &issue
		}
	}
	return nil
}

func (m *memRequestRepo) Reschedule(ctx context.Context, requestID, date, timeOfDay string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[requestID]
	if !ok || req.IsTerminal() {
		return requestRepo.ErrNoMatch
	}
	if req.RescheduleCount == 0 {
		req.OriginalScheduledDate = req.ScheduledDate
		req.OriginalScheduledTime = req.ScheduledTime
	}
	req.ScheduledDate = date
	req.ScheduledTime = timeOfDay
	req.RescheduleCount++
	req.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memRequestRepo) AttachEvidence(ctx context.Context, requestID string, refs []string, notes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[requestID]
	if !ok || req.Status != models.StatusInProgress {
		return requestRepo.ErrNoMatch
	}
	req.EvidenceRefs = append(req.EvidenceRefs, refs...)
	if notes != "" {
		req.CollectorNotes = notes
	}
	req.UpdatedAt = time.Now().UTC()
	return nil
}

// memCenterRepo is an in-memory CenterRepository.
type memCenterRepo struct {
	mu      sync.Mutex
	centers map[string]*models.RecyclingCenter
}

func newMemCenterRepo() *memCenterRepo {
	return &memCenterRepo{centers: make(map[string]*models.RecyclingCenter)}
}

func (m *memCenterRepo) put(c models.RecyclingCenter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.centers[c.ID] = &c
}

func (m *memCenterRepo) GetByID(ctx context.Context, id string) (*models.RecyclingCenter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.centers[id]
	if !ok {
		return nil, centerRepo.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCenterRepo) ListActive(ctx context.Context) ([]models.RecyclingCenter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.RecyclingCenter
	for _, c := range m.centers {
		if c.Active {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memCenterRepo) ListAcceptingAny(ctx context.Context, categories []string) ([]models.RecyclingCenter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.RecyclingCenter
	for _, c := range m.centers {
		if c.Active && c.AcceptsAny(categories) {
			out = append(out, *c)
		}
	}
	return out, nil
}

// memAuditRepo is an in-memory AuditRepository.
type memAuditRepo struct {
	mu      sync.Mutex
	entries []models.AuditEntry
}

func (m *memAuditRepo) Insert(ctx context.Context, entry *models.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memAuditRepo) ListByRequest(ctx context.Context, requestID string) ([]models.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AuditEntry
	for _, e := range m.entries {
		if e.RequestID == requestID {
			out = append(out, e)
		}
	}
	return out, nil
}

// fakeLedger records Finalize/Settle calls and can fail on demand.
type fakeLedger struct {
	mu          sync.Mutex
	finalized   map[string]int
	settled     map[string]int
	finalizeErr error
	settleErr   error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{finalized: make(map[string]int), settled: make(map[string]int)}
}

func (f *fakeLedger) Finalize(ctx context.Context, req *models.CollectionRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.finalizeErr != nil {
		return f.finalizeErr
	}
	f.finalized[req.ID]++
	return nil
}

func (f *fakeLedger) Settle(ctx context.Context, req *models.CollectionRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.settleErr != nil {
		return f.settleErr
	}
	f.settled[req.ID]++
	return nil
}

// fakeEarnings records which collectors had their earnings cache dropped.
type fakeEarnings struct {
	mu          sync.Mutex
	invalidated []string
}

func (f *fakeEarnings) InvalidateEarnings(ctx context.Context, collectorID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, collectorID)
}

// testEnv bundles a service over fresh fakes.
type testEnv struct {
	svc      *DefaultCollectionService
	repo     *memRequestRepo
	centers  *memCenterRepo
	audit    *memAuditRepo
	ledger   *fakeLedger
	earnings *fakeEarnings
}

func newTestEnv() *testEnv {
	repo := newMemRequestRepo()
	centers := newMemCenterRepo()
	audit := &memAuditRepo{}
	ldg := newFakeLedger()
	earnings := &fakeEarnings{}
	return &testEnv{
		svc: &DefaultCollectionService{
			Repo:     repo,
			Centers:  centers,
			Ledger:   ldg,
			Audit:    audit,
			Earnings: earnings,
			Notifier: notification.NopDispatcher{},
			Logger:   zap.NewNop(),
		},
		repo:     repo,
		centers:  centers,
		audit:    audit,
		ledger:   ldg,
		earnings: earnings,
	}
}

func pendingRequest(id string) *models.CollectionRequest {
	now := time.Now().UTC()
	return &models.CollectionRequest{
		ID:         id,
		CustomerID: "cust-1",
		Status:     models.StatusPending,
		Items: []models.RequestItem{
			{Category: "plastic", Quantity: 4, UnitPriceCents: 2500},
		},
		TotalAmountCents: 10000,
		Currency:         "LKR",
		Priority:         models.PriorityMedium,
		ScheduledDate:    "2026-09-01",
		ScheduledTime:    "09:00",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

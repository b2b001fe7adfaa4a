package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	ledgerRepo "ecocycle/database/repository/ledger"
	"ecocycle/models"
	"ecocycle/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	// Keep backoff out of the test runtime.
	utils.RetryBaseDelay = time.Millisecond
}

// memLedgerRepo is an in-memory LedgerRepository with the same idempotency
// semantics as the Mongo implementation, plus failure injection.
type memLedgerRepo struct {
	mu          sync.Mutex
	commissions map[string]*models.CommissionRecord
	funds       map[string]*models.SustainabilityFundEntry
	revenues    map[string]*models.PlatformRevenueEntry

	failInsertTimes int
	failMarkTimes   int
}

func newMemLedgerRepo() *memLedgerRepo {
	return &memLedgerRepo{
		commissions: make(map[string]*models.CommissionRecord),
		funds:       make(map[string]*models.SustainabilityFundEntry),
		revenues:    make(map[string]*models.PlatformRevenueEntry),
	}
}

var errStorageDown = errors.New("storage down")

func (m *memLedgerRepo) InsertSplit(ctx context.Context, split ledgerRepo.RevenueSplit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInsertTimes > 0 {
		m.failInsertTimes--
		return errStorageDown
	}
	reqID := split.Commission.CollectionRequestID
	if _, ok := m.commissions[reqID]; !ok {
		c := split.Commission
		m.commissions[reqID] = &c
	}
	if _, ok := m.funds[reqID]; !ok {
		f := split.Fund
		m.funds[reqID] = &f
	}
	if _, ok := m.revenues[reqID]; !ok {
		r := split.Revenue
		m.revenues[reqID] = &r
	}
	return nil
}

func (m *memLedgerRepo) GetCommissionByRequest(ctx context.Context, requestID string) (*models.CommissionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.commissions[requestID]
	if !ok {
		return nil, ledgerRepo.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *memLedgerRepo) GetSplit(ctx context.Context, requestID string) (*ledgerRepo.RevenueSplit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.commissions[requestID]
	if !ok {
		return nil, ledgerRepo.ErrNotFound
	}
	f := m.funds[requestID]
	r := m.revenues[requestID]
	if f == nil || r == nil {
		return nil, ledgerRepo.ErrNotFound
	}
	return &ledgerRepo.RevenueSplit{Commission: *c, Fund: *f, Revenue: *r}, nil
}

func (m *memLedgerRepo) MarkCommissionPaid(ctx context.Context, requestID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failMarkTimes > 0 {
		m.failMarkTimes--
		return errStorageDown
	}
	rec, ok := m.commissions[requestID]
	if !ok || rec.Status != models.CommissionPending {
		return ledgerRepo.ErrNoMatch
	}
	now := time.Now().UTC()
	rec.Status = models.CommissionPaid
	rec.PaidAt = &now
	return nil
}

func (m *memLedgerRepo) ListCommissionsByCollector(ctx context.Context, collectorID string) ([]models.CommissionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CommissionRecord
	for _, rec := range m.commissions {
		if rec.CollectorID == collectorID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func testRequest(totalCents int64) *models.CollectionRequest {
	return &models.CollectionRequest{
		ID:               "req-1",
		CustomerID:       "cust-1",
		CollectorID:      "col-1",
		TotalAmountCents: totalCents,
		Currency:         "LKR",
		Status:           models.StatusCompleted,
	}
}

func TestFinalizeRecordsSplit(t *testing.T) {
	repo := newMemLedgerRepo()
	svc := &DefaultRevenueLedger{Repo: repo, Logger: zap.NewNop()}

	require.NoError(t, svc.Finalize(context.Background(), testRequest(10000)))

	split, err := repo.GetSplit(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3000), split.Commission.AmountCents)
	assert.Equal(t, models.CommissionPending, split.Commission.Status)
	assert.Equal(t, "col-1", split.Commission.CollectorID)
	assert.Equal(t, int64(1000), split.Fund.AmountCents)
	assert.Equal(t, int64(6000), split.Revenue.AmountCents)
}

func TestFinalizeIsIdempotent(t *testing.T) {
	repo := newMemLedgerRepo()
	svc := &DefaultRevenueLedger{Repo: repo, Logger: zap.NewNop()}
	req := testRequest(10000)

	require.NoError(t, svc.Finalize(context.Background(), req))
	first, err := repo.GetSplit(context.Background(), req.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Finalize(context.Background(), req))
	second, err := repo.GetSplit(context.Background(), req.ID)
	require.NoError(t, err)

	// Replay writes nothing new: same record IDs, same amounts.
	assert.Equal(t, first.Commission.ID, second.Commission.ID)
	assert.Equal(t, first.Fund.ID, second.Fund.ID)
	assert.Equal(t, first.Revenue.ID, second.Revenue.ID)
}

func TestFinalizeRetriesTransientFailures(t *testing.T) {
	repo := newMemLedgerRepo()
	repo.failInsertTimes = 2
	svc := &DefaultRevenueLedger{Repo: repo, Logger: zap.NewNop()}

	require.NoError(t, svc.Finalize(context.Background(), testRequest(10000)))
}

func TestFinalizeSurfacesPersistentFailure(t *testing.T) {
	repo := newMemLedgerRepo()
	repo.failInsertTimes = utils.RetryAttempts
	svc := &DefaultRevenueLedger{Repo: repo, Logger: zap.NewNop()}

	err := svc.Finalize(context.Background(), testRequest(10000))
	require.Error(t, err)
	assert.ErrorIs(t, err, errStorageDown)
}

func TestSettleMarksCommissionPaid(t *testing.T) {
	repo := newMemLedgerRepo()
	svc := &DefaultRevenueLedger{Repo: repo, Logger: zap.NewNop()}
	req := testRequest(10000)

	require.NoError(t, svc.Finalize(context.Background(), req))
	require.NoError(t, svc.Settle(context.Background(), req))

	rec, err := repo.GetCommissionByRequest(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CommissionPaid, rec.Status)
	require.NotNil(t, rec.PaidAt)
}

func TestSettleWithoutPriorFinalizeRecordsSplitFirst(t *testing.T) {
	repo := newMemLedgerRepo()
	svc := &DefaultRevenueLedger{Repo: repo, Logger: zap.NewNop()}
	req := testRequest(10000)

	require.NoError(t, svc.Settle(context.Background(), req))

	rec, err := repo.GetCommissionByRequest(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CommissionPaid, rec.Status)
}

func TestSettleReplayIsNoOp(t *testing.T) {
	repo := newMemLedgerRepo()
	svc := &DefaultRevenueLedger{Repo: repo, Logger: zap.NewNop()}
	req := testRequest(10000)

	require.NoError(t, svc.Settle(context.Background(), req))
	firstPaidAt, _ := repo.GetCommissionByRequest(context.Background(), req.ID)

	require.NoError(t, svc.Settle(context.Background(), req))
	secondPaidAt, _ := repo.GetCommissionByRequest(context.Background(), req.ID)

	assert.Equal(t, firstPaidAt.PaidAt, secondPaidAt.PaidAt)
}

func TestSettleDetectsSumMismatch(t *testing.T) {
	repo := newMemLedgerRepo()
	svc := &DefaultRevenueLedger{Repo: repo, Logger: zap.NewNop()}
	req := testRequest(10000)

	require.NoError(t, svc.Finalize(context.Background(), req))

	// Tamper with the stored split so the triple no longer sums to the total.
	repo.mu.Lock()
	repo.revenues[req.ID].AmountCents += 7
	repo.mu.Unlock()

	err := svc.Settle(context.Background(), req)
	assert.ErrorIs(t, err, ErrInconsistency)

	// The commission must remain pending; settlement never proceeds past a
	// detected inconsistency.
	rec, getErr := repo.GetCommissionByRequest(context.Background(), req.ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.CommissionPending, rec.Status)
}

func TestSettleRetriesTransientMarkFailures(t *testing.T) {
	repo := newMemLedgerRepo()
	svc := &DefaultRevenueLedger{Repo: repo, Logger: zap.NewNop()}
	req := testRequest(10000)

	require.NoError(t, svc.Finalize(context.Background(), req))
	repo.failMarkTimes = 2
	require.NoError(t, svc.Settle(context.Background(), req))

	rec, err := repo.GetCommissionByRequest(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CommissionPaid, rec.Status)
}

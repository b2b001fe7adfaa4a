package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	ledgerRepo "ecocycle/database/repository/ledger"
	"ecocycle/models"
	"ecocycle/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// EarningsView is the read-side aggregation of a collector's commission
// history. It reflects RevenueLedger state and is never a write path.
type EarningsView struct {
	Repo        ledgerRepo.LedgerRepository
	CacheClient *redis.Client
	Logger      *zap.Logger
}

// GetEarnings returns the collector's commission records plus derived totals.
// Summaries are cached briefly; the cache is purely an optimization and the
// TTL bounds its staleness.
func (v *EarningsView) GetEarnings(ctx context.Context, collectorID string) (*models.EarningsSummary, error) {
	cacheKey := utils.EarningsCachePfx + collectorID
	if v.CacheClient != nil {
		if data, err := v.CacheClient.Get(ctx, cacheKey).Result(); err == nil {
			var summary models.EarningsSummary
			if err := json.Unmarshal([]byte(data), &summary); err == nil {
				return &summary, nil
			}
		}
	}

	records, err := v.Repo.ListCommissionsByCollector(ctx, collectorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load earnings for collector %s: %w", collectorID, err)
	}

	summary := &models.EarningsSummary{
		CollectorID: collectorID,
		Commissions: records,
	}
	for _, rec := range records {
		if summary.Currency == "" {
			summary.Currency = rec.Currency
		}
		switch rec.Status {
		case models.CommissionPaid:
			summary.TotalPaidCents += rec.AmountCents
			summary.PaidCount++
		case models.CommissionPending:
			summary.TotalPendingCents += rec.AmountCents
			summary.PendingCount++
		}
	}

	if v.CacheClient != nil {
		if data, err := json.Marshal(summary); err == nil {
			if err := v.CacheClient.Set(ctx, cacheKey, data, utils.EarningsCacheTTL).Err(); err != nil {
				v.Logger.Debug("earnings cache write failed", zap.Error(err))
			}
		}
	}
	return summary, nil
}

// InvalidateEarnings drops a collector's cached summary after a ledger write.
func (v *EarningsView) InvalidateEarnings(ctx context.Context, collectorID string) {
	if v.CacheClient == nil {
		return
	}
	if err := v.CacheClient.Del(ctx, utils.EarningsCachePfx+collectorID).Err(); err != nil {
		v.Logger.Debug("earnings cache invalidation failed", zap.Error(err))
	}
}

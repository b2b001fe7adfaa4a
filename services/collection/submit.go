package collection

import (
	"context"
	"encoding/json"
	"time"

	"ecocycle/config"
	requestRepo "ecocycle/database/repository/request"
	"ecocycle/models"
	"ecocycle/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubmitRequest creates a new pending collection request. The total is the sum
// of the line items unless the caller priced the job as a whole.
func (s *DefaultCollectionService) SubmitRequest(ctx context.Context, input SubmitRequestInput) (*models.CollectionRequest, error) {
	if input.CustomerID == "" || len(input.Items) == 0 {
		return nil, ErrValidation
	}
	var total int64
	for _, it := range input.Items {
		if it.Category == "" || it.Quantity <= 0 || it.UnitPriceCents < 0 {
			return nil, ErrValidation
		}
		total += int64(it.Quantity) * it.UnitPriceCents
	}
	if total <= 0 {
		return nil, ErrValidation
	}

	currency := input.Currency
	if currency == "" {
		currency = s.defaultCurrency()
	}
	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	now := time.Now().UTC()
	req := &models.CollectionRequest{
		ID:               uuid.New().String(),
		CustomerID:       input.CustomerID,
		Status:           models.StatusPending,
		Items:            input.Items,
		TotalAmountCents: total,
		Currency:         currency,
		Priority:         priority,
		ScheduledDate:    input.ScheduledDate,
		ScheduledTime:    input.ScheduledTime,
		AdminNotes:       input.AdminNotes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.Repo.Create(ctx, req); err != nil {
		return nil, &TransientError{Op: "submitRequest", Err: err}
	}

	s.invalidatePendingCache(ctx)
	s.Logger.Info("collection request submitted",
		zap.String("request_id", req.ID),
		zap.String("customer_id", req.CustomerID),
		zap.Int64("total_amount_cents", req.TotalAmountCents),
	)
	return req, nil
}

// ListPending returns claimable requests. The unfiltered listing is served
// from a short-lived cache; filtered queries always hit the store.
func (s *DefaultCollectionService) ListPending(ctx context.Context, filter requestRepo.PendingFilter) ([]models.CollectionRequest, error) {
	cacheable := filter.Category == "" && filter.Priority == "" && s.Cache != nil
	if cacheable {
		if raw, err := s.Cache.Get(ctx, utils.PendingCacheKey).Result(); err == nil {
			var cached []models.CollectionRequest
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return cached, nil
			}
		}
	}

	requests, err := s.Repo.ListPending(ctx, filter)
	if err != nil {
		return nil, &TransientError{Op: "listPending", Err: err}
	}

	if cacheable {
		if raw, err := json.Marshal(requests); err == nil {
			if err := s.Cache.Set(ctx, utils.PendingCacheKey, raw, utils.PendingCacheTTL).Err(); err != nil {
				s.Logger.Debug("pending cache write failed", zap.Error(err))
			}
		}
	}
	return requests, nil
}

// ListByCollector returns the collector's own requests, restricted to the
// given statuses. With no filter it shows the active set.
func (s *DefaultCollectionService) ListByCollector(ctx context.Context, collectorID string, statuses []string) ([]models.CollectionRequest, error) {
	if len(statuses) == 0 {
		statuses = models.ActiveStatuses
	}
	requests, err := s.Repo.ListByCollector(ctx, collectorID, statuses)
	if err != nil {
		return nil, &TransientError{Op: "listByCollector", Err: err}
	}
	return requests, nil
}

func (s *DefaultCollectionService) defaultCurrency() string {
	if c := config.AppConfig.DefaultCurrency; c != "" {
		return c
	}
	return "LKR"
}

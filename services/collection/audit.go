package collection

import (
	"context"
	"time"

	"ecocycle/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// recordAudit appends a transition to the audit trail and mirrors it into the
// structured log. Best-effort: a failed audit write is logged and never fails
// the operation that produced it.
func (s *DefaultCollectionService) recordAudit(ctx context.Context, requestID, actor, action, from, to string) {
	entry := &models.AuditEntry{
		ID:         uuid.New().String(),
		RequestID:  requestID,
		Actor:      actor,
		Action:     action,
		FromStatus: from,
		ToStatus:   to,
		At:         time.Now().UTC(),
	}
	if err := s.Audit.Insert(ctx, entry); err != nil {
		s.Logger.Warn("audit write failed",
			zap.String("request_id", requestID),
			zap.String("action", action),
			zap.Error(err),
		)
	}
	s.Logger.Info("request transition",
		zap.String("request_id", requestID),
		zap.String("actor", actor),
		zap.String("action", action),
		zap.String("from", from),
		zap.String("to", to),
	)
}

// GetAuditTrail returns a request's transition history in event order.
func (s *DefaultCollectionService) GetAuditTrail(ctx context.Context, requestID string) ([]models.AuditEntry, error) {
	return s.Audit.ListByRequest(ctx, requestID)
}

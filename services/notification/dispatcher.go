package notification

import (
	"context"
	"encoding/json"

	"ecocycle/models"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TypePushNotify is the asynq task type for outbound pushes.
const TypePushNotify = "notify:push"

// AsynqDispatcher queues push notifications onto the asynq notification queue;
// the worker in cron delivers them via FCM.
type AsynqDispatcher struct {
	Client *asynq.Client
	Logger *zap.Logger
}

// NewAsynqDispatcher creates a Dispatcher backed by the given asynq client.
func NewAsynqDispatcher(client *asynq.Client, logger *zap.Logger) *AsynqDispatcher {
	return &AsynqDispatcher{Client: client, Logger: logger}
}

func (d *AsynqDispatcher) Dispatch(ctx context.Context, payload models.PushPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		d.Logger.Warn("notification payload marshal failed",
			zap.String("event", payload.Event),
			zap.Error(err),
		)
		return
	}
	task := asynq.NewTask(TypePushNotify, body)
	if _, err := d.Client.EnqueueContext(ctx, task); err != nil {
		d.Logger.Warn("notification enqueue failed",
			zap.String("event", payload.Event),
			zap.String("recipient", payload.RecipientID),
			zap.Error(err),
		)
	}
}

// NopDispatcher discards every notification. Used in tests and when the queue
// is not configured.
type NopDispatcher struct{}

func (NopDispatcher) Dispatch(context.Context, models.PushPayload) {}

package notification

import (
	"context"

	"ecocycle/models"
)

// Dispatcher sends push notifications for workflow events. Dispatch is
// fire-and-forget: failures are logged, never surfaced, and no workflow
// decision depends on delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, payload models.PushPayload)
}

package notification

import (
	"context"
	"encoding/json"

	"fundihub/models"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeNotifySend = "notify:send"

// Service sends push notifications to clients and providers. Calls are
// fire-and-forget: delivery failure must never fail the owning operation.
type Service interface {
	NotifyClient(ctx context.Context, clientID, title, body string, data map[string]string)
	NotifyProvider(ctx context.Context, providerID, title, body string, data map[string]string)
}

// AsynqNotifier queues notifications on Redis for the background worker.
type AsynqNotifier struct {
	client *asynq.Client
	logger *zap.Logger
}

// NewAsynqNotifier creates a notifier that enqueues through the given client.
func NewAsynqNotifier(client *asynq.Client, logger *zap.Logger) *AsynqNotifier {
	return &AsynqNotifier{client: client, logger: logger}
}

func (n *AsynqNotifier) NotifyClient(ctx context.Context, clientID, title, body string, data map[string]string) {
	n.enqueue(ctx, models.NotifyPayload{Target: "client", ID: clientID, Title: title, Body: body, Data: data})
}

func (n *AsynqNotifier) NotifyProvider(ctx context.Context, providerID, title, body string, data map[string]string) {
	n.enqueue(ctx, models.NotifyPayload{Target: "provider", ID: providerID, Title: title, Body: body, Data: data})
}

func (n *AsynqNotifier) enqueue(ctx context.Context, p models.NotifyPayload) {
	blob, err := json.Marshal(p)
	if err != nil {
		n.logger.Warn("notify: failed to marshal payload", zap.Error(err))
		return
	}
	if _, err := n.client.EnqueueContext(ctx, asynq.NewTask(TypeNotifySend, blob)); err != nil {
		n.logger.Warn("notify: failed to enqueue notification",
			zap.String("target", p.Target),
			zap.String("id", p.ID),
			zap.Error(err))
	}
}

// NoopNotifier discards all notifications. Used where no queue is configured.
type NoopNotifier struct{}

func (NoopNotifier) NotifyClient(context.Context, string, string, string, map[string]string)   {}
func (NoopNotifier) NotifyProvider(context.Context, string, string, string, map[string]string) {}

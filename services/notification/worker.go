package notification

import (
	"context"
	"encoding/json"

	"fundihub/config"
	"fundihub/database/repository"
	"fundihub/models"
	"fundihub/utils"

	"firebase.google.com/go/v4/messaging"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Worker consumes queued notifications and delivers FCM pushes.
type Worker struct {
	srv       *asynq.Server
	clients   repository.ClientRepository
	providers repository.ProviderRepository
	logger    *zap.Logger
}

// NewWorker builds the asynq consumer for the notify queue.
func NewWorker(clients repository.ClientRepository, providers repository.ProviderRepository, logger *zap.Logger) *Worker {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     config.AppConfig.RedisAddr,
			Password: config.AppConfig.RedisPassword,
			DB:       config.AppConfig.RedisNotifyQueue,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)
	return &Worker{srv: srv, clients: clients, providers: providers, logger: logger}
}

// Start runs the worker in the background.
func (w *Worker) Start() {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeNotifySend, w.handleNotify)

	go func() {
		if err := w.srv.Run(mux); err != nil {
			w.logger.Error("notify worker stopped", zap.Error(err))
		}
	}()
}

// Stop shuts the worker down gracefully.
func (w *Worker) Stop() {
	w.srv.Shutdown()
}

func (w *Worker) handleNotify(ctx context.Context, task *asynq.Task) error {
	var p models.NotifyPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		w.logger.Warn("notify: invalid payload", zap.Error(err))
		return err
	}

	// Push delivery is disabled when FCM was never configured.
	if utils.FCMClient == nil {
		return nil
	}

	token, err := w.resolveToken(p)
	if err != nil {
		w.logger.Warn("notify: cannot resolve device token",
			zap.String("target", p.Target),
			zap.String("id", p.ID),
			zap.Error(err))
		// Undeliverable, not retryable.
		return nil
	}
	if token == "" {
		return nil
	}

	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: p.Title,
			Body:  p.Body,
		},
		Data: p.Data,
	}
	if _, err := utils.FCMClient.Send(ctx, msg); err != nil {
		w.logger.Warn("notify: push delivery failed",
			zap.String("target", p.Target),
			zap.String("id", p.ID),
			zap.Error(err))
		return err
	}
	return nil
}

func (w *Worker) resolveToken(p models.NotifyPayload) (string, error) {
	switch p.Target {
	case "client":
		c, err := w.clients.GetByID(p.ID)
		if err != nil {
			return "", err
		}
		return c.FCMToken, nil
	case "provider":
		pr, err := w.providers.GetByID(p.ID)
		if err != nil {
			return "", err
		}
		return pr.FCMToken, nil
	}
	return "", nil
}

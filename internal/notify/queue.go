package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"strive-backend-go/internal/models"
)

// QueueNotifier enqueues notifications as JSON for a Consumer to deliver.
type QueueNotifier struct {
	mq    MessageQueue
	queue string
}

// NewQueueNotifier creates a QueueNotifier publishing to queue.
func NewQueueNotifier(mq MessageQueue, queue string) *QueueNotifier {
	return &QueueNotifier{mq: mq, queue: queue}
}

func (n *QueueNotifier) Notify(_ context.Context, notification models.Notification) error {
	body, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	if err := n.mq.Publish(n.queue, body); err != nil {
		return fmt.Errorf("failed to enqueue %s notification: %w", notification.Kind, err)
	}
	return nil
}

// Consumer drains the notification queue into a delivering Notifier.
type Consumer struct {
	mq     MessageQueue
	queue  string
	target Notifier
	logger *zap.Logger
}

// NewConsumer creates a Consumer.
func NewConsumer(mq MessageQueue, queue string, target Notifier, logger *zap.Logger) *Consumer {
	return &Consumer{mq: mq, queue: queue, target: target, logger: logger}
}

// Run blocks until ctx is done.
func (c *Consumer) Run(ctx context.Context) error {
	return c.mq.Consume(ctx, c.queue, func(body []byte) error {
		return c.Handle(ctx, body)
	})
}

// Handle decodes and delivers one queued notification.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
	var notification models.Notification
	if err := json.Unmarshal(body, &notification); err != nil {
		return fmt.Errorf("malformed notification: %w", err)
	}
	if err := c.target.Notify(ctx, notification); err != nil {
		c.logger.Warn("Failed to deliver queued notification", zap.String("kind", notification.Kind), zap.Error(err))
		return err
	}
	return nil
}

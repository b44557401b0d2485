package notify

import (
	"context"
	"errors"
	"fmt"

	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
	"go.uber.org/zap"

	"strive-backend-go/internal/db"
	"strive-backend-go/internal/models"
)

// maxPushBatch is the number of messages Expo accepts in one request.
const maxPushBatch = 100

// Publisher sends a batch of push messages and returns one ticket per
// message; *expo.PushClient satisfies it.
type Publisher interface {
	PublishMultiple(messages []expo.PushMessage) ([]expo.PushResponse, error)
}

// ExpoNotifier resolves recipients' Expo push tokens and publishes one
// message per device, batched by maxPushBatch.
type ExpoNotifier struct {
	users  db.UserRepository
	client Publisher
	logger *zap.Logger
}

// NewExpoNotifier creates an ExpoNotifier. A nil client uses the default
// Expo push endpoint.
func NewExpoNotifier(users db.UserRepository, client Publisher, logger *zap.Logger) *ExpoNotifier {
	if client == nil {
		client = expo.NewPushClient(nil)
	}
	return &ExpoNotifier{users: users, client: client, logger: logger}
}

// Notify publishes notification to every recipient with a valid token. A
// failed batch or a rejected ticket does not stop the remaining batches;
// all failures are returned together.
func (n *ExpoNotifier) Notify(ctx context.Context, notification models.Notification) error {
	recipients := recipientsExcept(notification.RecipientIDs, notification.SenderID)
	if len(recipients) == 0 {
		return nil
	}
	users, err := n.users.GetMany(ctx, recipients)
	if err != nil {
		return fmt.Errorf("failed to resolve notification recipients: %w", err)
	}

	data := map[string]string{"category": notification.Kind}
	for k, v := range notification.Data {
		data[k] = v
	}

	messages := make([]expo.PushMessage, 0, len(users))
	for _, u := range users {
		if u.ExpoPushToken == "" {
			continue
		}
		token, err := expo.NewExponentPushToken(u.ExpoPushToken)
		if err != nil {
			n.logger.Warn("Invalid expo token", zap.String("uid", u.UID))
			continue
		}
		messages = append(messages, expo.PushMessage{
			To:       []expo.ExponentPushToken{token},
			Title:    notification.Title,
			Body:     notification.Body,
			Sound:    "default",
			Priority: expo.DefaultPriority,
			Data:     data,
		})
	}
	if len(messages) == 0 {
		n.logger.Debug("No expo tokens for notification", zap.String("kind", notification.Kind))
		return nil
	}

	var errs []error
	delivered := 0
	for start := 0; start < len(messages); start += maxPushBatch {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		end := start + maxPushBatch
		if end > len(messages) {
			end = len(messages)
		}
		responses, err := n.client.PublishMultiple(messages[start:end])
		if err != nil {
			n.logger.Error("Expo batch failed", zap.String("kind", notification.Kind), zap.Int("size", end-start), zap.Error(err))
			errs = append(errs, fmt.Errorf("expo publish failed: %w", err))
			continue
		}
		for _, response := range responses {
			if err := response.ValidateResponse(); err != nil {
				errs = append(errs, fmt.Errorf("expo rejected %s notification: %w", notification.Kind, err))
				continue
			}
			delivered++
		}
	}
	n.logger.Debug("Push notification sent",
		zap.String("kind", notification.Kind),
		zap.Int("tokens", len(messages)),
		zap.Int("delivered", delivered))
	return errors.Join(errs...)
}

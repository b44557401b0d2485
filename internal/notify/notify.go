// Package notify delivers push notifications to users, either directly
// through Expo or through a RabbitMQ queue drained by a Consumer.
package notify

import (
	"context"

	"strive-backend-go/internal/models"
)

// Notifier delivers a notification.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// recipientsExcept returns ids without sender, deduplicated.
func recipientsExcept(ids []string, sender string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || id == sender || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

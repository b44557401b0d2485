package metrics

import (
	"context"

	"strive-backend-go/internal/core"
	"strive-backend-go/internal/models"
)

type activityRecorder struct {
	next core.ActivityService
	m    *Metrics
}

// InstrumentActivity counts successfully recorded activity entries.
func InstrumentActivity(next core.ActivityService, m *Metrics) core.ActivityService {
	return &activityRecorder{next: next, m: m}
}

func (a *activityRecorder) Record(ctx context.Context, entry models.ActivityLog) error {
	if err := a.next.Record(ctx, entry); err != nil {
		return err
	}
	a.m.RecordActivity(entry.Action)
	return nil
}

type notifierRecorder struct {
	next core.Notifier
	m    *Metrics
}

// InstrumentNotifier counts notification attempts by kind and outcome.
func InstrumentNotifier(next core.Notifier, m *Metrics) core.Notifier {
	return &notifierRecorder{next: next, m: m}
}

func (n *notifierRecorder) Notify(ctx context.Context, note models.Notification) error {
	err := n.next.Notify(ctx, note)
	n.m.RecordNotification(note.Kind, err)
	return err
}

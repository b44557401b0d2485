package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"strive-backend-go/internal/db"
	"strive-backend-go/internal/models"
)

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}

// ChallengeWatcher periodically checks whether the current challenge period
// has ended and announces it once per title.
type ChallengeWatcher struct {
	descriptions ChallengeDescriptionService
	userRepo     db.UserRepository
	notifier     Notifier
	now          func() time.Time
	logger       *zap.Logger
	cron         *cron.Cron

	mu        sync.Mutex
	announced map[string]bool
}

// NewChallengeWatcher creates a watcher; call Start to schedule it.
func NewChallengeWatcher(descriptions ChallengeDescriptionService, userRepo db.UserRepository, notifier Notifier, logger *zap.Logger) *ChallengeWatcher {
	cl := cronLogger{sugar: logger.Sugar()}
	return &ChallengeWatcher{
		descriptions: descriptions,
		userRepo:     userRepo,
		notifier:     notifier,
		now:          time.Now,
		logger:       logger,
		cron:         cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		announced:    make(map[string]bool),
	}
}

// Start schedules the check with a cron spec such as "@every 1m".
func (w *ChallengeWatcher) Start(schedule string) error {
	_, err := w.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := w.Check(ctx); err != nil {
			w.logger.Error("Challenge watcher check failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid challenge watch schedule %q: %w", schedule, err)
	}
	w.cron.Start()
	w.logger.Info("Challenge watcher started", zap.String("schedule", schedule))
	return nil
}

// Stop stops scheduling and waits for a running check, or for ctx.
func (w *ChallengeWatcher) Stop(ctx context.Context) {
	select {
	case <-w.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Check announces the end of the current period if it has ended and was not
// announced yet. It reports whether an announcement was sent.
func (w *ChallengeWatcher) Check(ctx context.Context) (bool, error) {
	desc, err := w.descriptions.GetChallengeDescription(ctx)
	if err != nil {
		if errors.Is(err, ErrChallengeDescriptionNotFound) {
			return false, nil
		}
		return false, err
	}
	if !ComputeCountdown(desc.EndDate, w.now()).Finished {
		return false, nil
	}

	w.mu.Lock()
	done := w.announced[desc.Title]
	w.mu.Unlock()
	if done {
		return false, nil
	}

	users, err := w.userRepo.List(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list users for announcement: %w", err)
	}
	var recipients []string
	for _, u := range users {
		if u.ExpoPushToken != "" {
			recipients = append(recipients, u.UID)
		}
	}

	w.mu.Lock()
	w.announced[desc.Title] = true
	w.mu.Unlock()

	w.logger.Info("Challenge period ended", zap.String("title", desc.Title), zap.Int("recipients", len(recipients)))
	sendNotification(ctx, w.notifier, w.logger, models.Notification{
		Kind:         models.NotificationChallengeEnded,
		RecipientIDs: recipients,
		Title:        "Challenge ended",
		Body:         fmt.Sprintf("%q is over. See what everyone posted!", desc.Title),
		Data:         map[string]string{"title": desc.Title},
	})
	return true, nil
}

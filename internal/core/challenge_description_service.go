package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"strive-backend-go/internal/db"
	"strive-backend-go/internal/models"
)

// challengeDescriptionService implements the ChallengeDescriptionService interface.
type challengeDescriptionService struct {
	repo   db.ChallengeDescriptionRepository
	logger *zap.Logger
}

// NewChallengeDescriptionService creates a new ChallengeDescriptionService.
func NewChallengeDescriptionService(repo db.ChallengeDescriptionRepository, logger *zap.Logger) ChallengeDescriptionService {
	return &challengeDescriptionService{repo: repo, logger: logger}
}

func (s *challengeDescriptionService) GetChallengeDescription(ctx context.Context) (*models.ChallengeDescription, error) {
	desc, err := s.repo.Current(ctx)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrChallengeDescriptionNotFound, err)
		}
		s.logger.Error("Error getting challenge description", zap.Error(err))
		return nil, fmt.Errorf("failed to get challenge description: %w", err)
	}
	return desc, nil
}

func (s *challengeDescriptionService) Countdown(ctx context.Context, now time.Time) (*models.Countdown, error) {
	desc, err := s.GetChallengeDescription(ctx)
	if err != nil {
		return nil, err
	}
	countdown := ComputeCountdown(desc.EndDate, now)
	return &countdown, nil
}

// ComputeCountdown splits the time from now until end into whole days,
// hours, minutes and seconds. A reached end yields a finished, zero countdown.
func ComputeCountdown(end, now time.Time) models.Countdown {
	remaining := end.Sub(now)
	if remaining <= 0 {
		return models.Countdown{Finished: true}
	}
	secs := int64(remaining / time.Second)
	return models.Countdown{
		Days:    secs / 86400,
		Hours:   (secs % 86400) / 3600,
		Minutes: (secs % 3600) / 60,
		Seconds: secs % 60,
	}
}

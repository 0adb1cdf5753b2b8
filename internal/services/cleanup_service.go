package services

import (
	"context"

	"github.com/cardpoint/onboarding-service/internal/repositories"
	"github.com/cardpoint/onboarding-service/internal/utils"
)

// CleanupService purges finished or abandoned sessions and stale OTP
// challenges.
type CleanupService interface {
	CleanupDaily(ctx context.Context) error
}

type cleanupService struct {
	sessions   repositories.SessionRepository
	challenges repositories.OTPChallengeRepository
}

// NewCleanupService accepts a nil challenge repository when the demo OTP
// provider is in use.
func NewCleanupService(
	sessions repositories.SessionRepository,
	challenges repositories.OTPChallengeRepository,
) CleanupService {
	return &cleanupService{sessions: sessions, challenges: challenges}
}

func (s *cleanupService) CleanupDaily(ctx context.Context) error {
	logger := utils.Logger

	n, err := s.sessions.CleanupExpired(ctx)
	if err != nil {
		logger.WithError(err).Error("Failed to cleanup onboarding sessions")
		return err
	}
	var m int64
	if s.challenges != nil {
		m, err = s.challenges.CleanupExpired(ctx)
		if err != nil {
			logger.WithError(err).Error("Failed to cleanup onboarding_otp_challenges")
			return err
		}
	}

	logger.WithField("sessions", n).WithField("otp_challenges", m).
		Info("Daily onboarding cleanup completed successfully.")
	return nil
}

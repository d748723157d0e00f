package service

import (
	"context"
	"github.com/yakoovad/hackathon-teams/internal/repository"
	"github.com/yakoovad/hackathon-teams/pkg/logger"
	"go.uber.org/zap"
)

type RegistrationService struct {
	registrations repository.RegistrationRepository
}

func NewRegistrationService() *RegistrationService {
	return &RegistrationService{}
}

// CheckRegistration reports whether userID is registered for hackathonID.
func (r *RegistrationService) CheckRegistration(ctx context.Context, userID, hackathonID string) (bool, *Error) {
	if userID == "" || hackathonID == "" {
		return false, NewValidationError("user and hackathon are required", nil)
	}

	registered, err := r.registrations.Exists(ctx, userID, hackathonID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to check registration",
			zap.String("user_id", userID),
			zap.String("hackathon_id", hackathonID),
			zap.Error(err))
		return false, NewError(ErrorCodeUnspecified, "failed to check registration")
	}
	return registered, nil
}

func (r *RegistrationService) WithRegistrationRepo(repo repository.RegistrationRepository) *RegistrationService {
	r.registrations = repo
	return r
}

package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/medprep/medmcq-backend/internal/model"
	"github.com/medprep/medmcq-backend/internal/repository"
)

// EntitlementService decides which modules a user may open. It always
// reads the subscription from the database; client-held flags are ignored.
type EntitlementService struct {
	userRepo   *repository.UserRepository
	moduleRepo *repository.ModuleRepository
	now        func() time.Time
}

// NewEntitlementService creates a new EntitlementService.
func NewEntitlementService(userRepo *repository.UserRepository, moduleRepo *repository.ModuleRepository) *EntitlementService {
	return &EntitlementService{userRepo: userRepo, moduleRepo: moduleRepo, now: time.Now}
}

// HasPremium reports whether the user currently holds a premium subscription.
func (s *EntitlementService) HasPremium(ctx context.Context, userID int) (bool, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrUserNotFound
		}
		return false, err
	}
	return u.HasPremium(s.now()), nil
}

// CheckModule returns the module if the user may open it. The "all"
// selector always passes and yields a nil module; premium content is
// filtered out of it instead.
func (s *EntitlementService) CheckModule(ctx context.Context, userID int, moduleID string) (*model.Module, error) {
	if moduleID == model.AllModules {
		return nil, nil
	}

	m, err := s.moduleRepo.GetByID(ctx, moduleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrModuleNotFound
		}
		return nil, err
	}
	if !m.IsPremium {
		return m, nil
	}

	premium, err := s.HasPremium(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !premium {
		return nil, ErrPremiumRequired
	}
	return m, nil
}

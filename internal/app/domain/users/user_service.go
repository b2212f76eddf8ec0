package users

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/littletrip/littletrip-api/internal/app/models"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	SetAdmin(ctx context.Context, actorID, targetID string, isAdmin bool) error
	Deactivate(ctx context.Context, actorID, targetID string) error
}

type ServiceImpl struct {
	logger *zap.Logger
	repo   Repository
}

func NewService(repo Repository, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{logger: logger, repo: repo}
}

func (s *ServiceImpl) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.repo.ListUsers(ctx)
}

func (s *ServiceImpl) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetUser(ctx, id)
}

// SetAdmin changes another account's admin flag. Admins cannot demote
// themselves, which keeps the system from losing its last admin by
// accident.
func (s *ServiceImpl) SetAdmin(ctx context.Context, actorID, targetID string, isAdmin bool) error {
	if actorID == targetID && !isAdmin {
		return fmt.Errorf("cannot revoke your own admin flag: %w", models.ErrForbidden)
	}
	if err := s.repo.SetAdmin(ctx, targetID, isAdmin); err != nil {
		return err
	}
	s.logger.Info("Admin flag changed",
		zap.String("actor", actorID),
		zap.String("target", targetID),
		zap.Bool("is_admin", isAdmin),
	)
	return nil
}

// Deactivate soft-deletes an account other than the actor's own.
func (s *ServiceImpl) Deactivate(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return fmt.Errorf("cannot deactivate your own account here: %w", models.ErrForbidden)
	}
	if err := s.repo.Deactivate(ctx, targetID); err != nil {
		return err
	}
	s.logger.Info("User deactivated", zap.String("actor", actorID), zap.String("target", targetID))
	return nil
}

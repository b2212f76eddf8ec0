package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/littletrip/littletrip-api/internal/app/models"
)

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepo) GetUser(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepo) SetAdmin(ctx context.Context, id string, isAdmin bool) error {
	args := m.Called(ctx, id, isAdmin)
	return args.Error(0)
}

func (m *MockUserRepo) Deactivate(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestUserService_SetAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("grants the flag to another account", func(t *testing.T) {
		repo := new(MockUserRepo)
		svc := NewService(repo, zap.NewNop())
		repo.On("SetAdmin", mock.Anything, "target", true).Return(nil).Once()

		require.NoError(t, svc.SetAdmin(ctx, "actor", "target", true))
		repo.AssertExpectations(t)
	})

	t.Run("refuses self-demotion", func(t *testing.T) {
		repo := new(MockUserRepo)
		svc := NewService(repo, zap.NewNop())

		err := svc.SetAdmin(ctx, "same", "same", false)
		assert.ErrorIs(t, err, models.ErrForbidden)
		repo.AssertNotCalled(t, "SetAdmin", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("allows re-granting your own flag", func(t *testing.T) {
		repo := new(MockUserRepo)
		svc := NewService(repo, zap.NewNop())
		repo.On("SetAdmin", mock.Anything, "same", true).Return(nil).Once()

		require.NoError(t, svc.SetAdmin(ctx, "same", "same", true))
	})
}

func TestUserService_Deactivate(t *testing.T) {
	ctx := context.Background()

	t.Run("refuses self-deactivation", func(t *testing.T) {
		repo := new(MockUserRepo)
		svc := NewService(repo, zap.NewNop())

		err := svc.Deactivate(ctx, "same", "same")
		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("propagates not found", func(t *testing.T) {
		repo := new(MockUserRepo)
		svc := NewService(repo, zap.NewNop())
		repo.On("Deactivate", mock.Anything, "ghost").Return(models.ErrNotFound).Once()

		assert.ErrorIs(t, svc.Deactivate(ctx, "actor", "ghost"), models.ErrNotFound)
	})
}

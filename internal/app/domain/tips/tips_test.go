package tips

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/littletrip/littletrip-api/internal/app/models"
)

type MockTipRepo struct {
	mock.Mock
}

func (m *MockTipRepo) GetTips(ctx context.Context) ([]models.Tip, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Tip), args.Error(1)
}

func (m *MockTipRepo) AddTip(ctx context.Context, tip *models.Tip) (string, error) {
	args := m.Called(ctx, tip)
	return args.String(0), args.Error(1)
}

func (m *MockTipRepo) DeleteTip(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestTipService_GetTips(t *testing.T) {
	ctx := context.Background()

	t.Run("serves stored tips", func(t *testing.T) {
		repo := new(MockTipRepo)
		svc := NewService(repo, zap.NewNop())
		stored := []models.Tip{{ID: "t1", Title: "Bring snacks"}}
		repo.On("GetTips", mock.Anything).Return(stored, nil).Once()

		assert.Equal(t, stored, svc.GetTips(ctx))
		repo.AssertExpectations(t)
	})

	t.Run("falls back to bundled tips on error", func(t *testing.T) {
		repo := new(MockTipRepo)
		svc := NewService(repo, zap.NewNop())
		repo.On("GetTips", mock.Anything).Return(nil, errors.New("db down")).Once()

		got := svc.GetTips(ctx)
		require.NotEmpty(t, got)
		assert.Equal(t, "Pack a spare outfit", got[0].Title)
	})

	t.Run("an emptied table stays empty", func(t *testing.T) {
		repo := new(MockTipRepo)
		svc := NewService(repo, zap.NewNop())
		repo.On("GetTips", mock.Anything).Return([]models.Tip{}, nil).Once()

		assert.Empty(t, svc.GetTips(ctx))
	})
}

func TestTipService_Writes(t *testing.T) {
	ctx := context.Background()
	repo := new(MockTipRepo)
	svc := NewService(repo, zap.NewNop())

	repo.On("AddTip", mock.Anything, mock.Anything).Return("t-9", nil).Once()
	repo.On("DeleteTip", mock.Anything, "ghost").Return(models.ErrNotFound).Once()

	id, ok := svc.AddTip(ctx, &models.Tip{Title: "Go early"})
	require.True(t, ok)
	assert.Equal(t, "t-9", id)

	assert.False(t, svc.DeleteTip(ctx, "ghost"))
	repo.AssertExpectations(t)
}

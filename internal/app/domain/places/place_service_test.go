package places

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/littletrip/littletrip-api/internal/app/models"
)

type MockPlaceRepo struct {
	mock.Mock
}

func (m *MockPlaceRepo) GetPlaces(ctx context.Context) ([]models.Place, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Place), args.Error(1)
}

func (m *MockPlaceRepo) GetPlaceByID(ctx context.Context, id string) (*models.Place, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Place), args.Error(1)
}

func (m *MockPlaceRepo) SearchPlaces(ctx context.Context, filter SearchFilter) ([]models.Place, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Place), args.Int(1), args.Error(2)
}

func (m *MockPlaceRepo) AddPlace(ctx context.Context, place *models.Place) (string, error) {
	args := m.Called(ctx, place)
	return args.String(0), args.Error(1)
}

func (m *MockPlaceRepo) UpdatePlace(ctx context.Context, id string, place *models.Place) error {
	args := m.Called(ctx, id, place)
	return args.Error(0)
}

func (m *MockPlaceRepo) DeletePlace(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func setupPlaceServiceTest() (*ServiceImpl, *MockPlaceRepo) {
	repo := new(MockPlaceRepo)
	svc := NewService(repo, cache.New(time.Minute, time.Minute), zap.NewNop())
	return svc, repo
}

func TestPlaceService_GetPlaces(t *testing.T) {
	ctx := context.Background()

	t.Run("serves database rows when available", func(t *testing.T) {
		svc, repo := setupPlaceServiceTest()
		stored := []models.Place{{ID: "abc", Name: "Kelsey Creek Farm"}}
		repo.On("GetPlaces", mock.Anything).Return(stored, nil).Once()

		got := svc.GetPlaces(ctx)
		assert.Equal(t, stored, got)
		repo.AssertExpectations(t)
	})

	t.Run("caches the catalog between calls", func(t *testing.T) {
		svc, repo := setupPlaceServiceTest()
		stored := []models.Place{{ID: "abc", Name: "Kelsey Creek Farm"}}
		repo.On("GetPlaces", mock.Anything).Return(stored, nil).Once()

		first := svc.GetPlaces(ctx)
		second := svc.GetPlaces(ctx)
		assert.Equal(t, first, second)
		repo.AssertNumberOfCalls(t, "GetPlaces", 1)
	})

	t.Run("falls back to the bundled snapshot on database error", func(t *testing.T) {
		svc, repo := setupPlaceServiceTest()
		repo.On("GetPlaces", mock.Anything).Return(nil, errors.New("connection refused")).Once()

		got := svc.GetPlaces(ctx)
		require.NotEmpty(t, got, "snapshot must keep the catalog alive")
		assert.Equal(t, "Bellevue Downtown Park", got[0].Name)
		repo.AssertExpectations(t)
	})

	t.Run("an emptied catalog stays empty", func(t *testing.T) {
		svc, repo := setupPlaceServiceTest()
		repo.On("GetPlaces", mock.Anything).Return([]models.Place{}, nil).Once()

		// The admin deleted the last place; the snapshot must not
		// resurrect it.
		got := svc.GetPlaces(ctx)
		assert.Empty(t, got)
		repo.AssertExpectations(t)
	})
}

func TestPlaceService_GetPlaceByID(t *testing.T) {
	ctx := context.Background()

	t.Run("database hit", func(t *testing.T) {
		svc, repo := setupPlaceServiceTest()
		want := &models.Place{ID: "abc", Name: "Zoo"}
		repo.On("GetPlaceByID", mock.Anything, "abc").Return(want, nil).Once()

		got, err := svc.GetPlaceByID(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("snapshot fallback matches numeric ids", func(t *testing.T) {
		svc, repo := setupPlaceServiceTest()
		repo.On("GetPlaceByID", mock.Anything, "2").Return(nil, models.ErrNotFound).Once()

		got, err := svc.GetPlaceByID(ctx, "2")
		require.NoError(t, err)
		assert.Equal(t, "KidsQuest Children's Museum", got.Name)
	})

	t.Run("miss everywhere returns the repository error", func(t *testing.T) {
		svc, repo := setupPlaceServiceTest()
		repo.On("GetPlaceByID", mock.Anything, "nope").Return(nil, models.ErrNotFound).Once()

		_, err := svc.GetPlaceByID(ctx, "nope")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestPlaceService_Writes(t *testing.T) {
	ctx := context.Background()

	t.Run("add reports the new id and invalidates the cache", func(t *testing.T) {
		svc, repo := setupPlaceServiceTest()
		stored := []models.Place{{ID: "abc", Name: "Old"}}
		repo.On("GetPlaces", mock.Anything).Return(stored, nil).Twice()
		repo.On("AddPlace", mock.Anything, mock.Anything).Return("new-id", nil).Once()

		svc.GetPlaces(ctx) // warm cache
		id, ok := svc.AddPlace(ctx, &models.Place{Name: "New"})
		require.True(t, ok)
		assert.Equal(t, "new-id", id)

		svc.GetPlaces(ctx) // cache was dropped, repo hit again
		repo.AssertNumberOfCalls(t, "GetPlaces", 2)
	})

	t.Run("add swallows the error and reports failure", func(t *testing.T) {
		svc, repo := setupPlaceServiceTest()
		repo.On("AddPlace", mock.Anything, mock.Anything).Return("", errors.New("db down")).Once()

		_, ok := svc.AddPlace(ctx, &models.Place{Name: "New"})
		assert.False(t, ok)
	})

	t.Run("update and delete report success as booleans", func(t *testing.T) {
		svc, repo := setupPlaceServiceTest()
		repo.On("UpdatePlace", mock.Anything, "abc", mock.Anything).Return(nil).Once()
		repo.On("DeletePlace", mock.Anything, "abc").Return(models.ErrNotFound).Once()

		assert.True(t, svc.UpdatePlace(ctx, "abc", &models.Place{Name: "N"}))
		assert.False(t, svc.DeletePlace(ctx, "abc"))
	})
}

func TestPlaceService_ImportPlaces(t *testing.T) {
	ctx := context.Background()
	svc, repo := setupPlaceServiceTest()

	repo.On("AddPlace", mock.Anything, mock.MatchedBy(func(p *models.Place) bool {
		return p.Name == "Good Place"
	})).Return("id-1", nil).Once()

	badRating := 9
	batch := []models.Place{
		{Name: "Good Place"},
		{Name: ""}, // fails validation
		{Name: "Bad Rating", Experience: models.Experience{Rating: &badRating}},
	}

	report := svc.ImportPlaces(ctx, batch)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 2, report.Failed)
	require.Len(t, report.Errors, 2)
	assert.Equal(t, 1, report.Errors[0].Index)
	assert.Equal(t, 2, report.Errors[1].Index)
	repo.AssertExpectations(t)
}

package places

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/littletrip/littletrip-api/internal/app/models"
)

var placeColumnNames = []string{
	"id", "name", "icon", "description", "address", "phone", "website", "pricing",
	"age_min", "age_max", "features", "parking_info", "duration_of_visit", "special_notes", "photos",
	"has_visited", "rating", "exp_likes", "exp_dislikes", "personal_notes", "last_visited_at",
	"created_at", "updated_at",
}

func fullPlaceRow(id, name string) []any {
	now := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	rating := 3
	ageMin, ageMax := 6, 96
	return []any{
		id, name, "🌳", "desc", "addr", "", "", models.PricingFree,
		&ageMin, &ageMax, []string{"Outdoor", "Free"}, "", "", "", []byte(`[]`),
		true, &rating, "likes", "", "", &now,
		now, now,
	}
}

func setupPlaceRepoTest(t *testing.T) (*RepositoryImpl, pgxmock.PgxPoolIface) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return NewRepository(mockPool, zap.NewNop()), mockPool
}

func TestPlaceRepository_GetPlaces(t *testing.T) {
	repo, mockPool := setupPlaceRepoTest(t)

	rows := pgxmock.NewRows(placeColumnNames).
		AddRow(fullPlaceRow("a1", "Downtown Park")...).
		AddRow(fullPlaceRow("a2", "Kelsey Creek Farm")...)
	mockPool.ExpectQuery(`SELECT (.+) FROM places ORDER BY created_at, id`).WillReturnRows(rows)

	places, err := repo.GetPlaces(context.Background())
	require.NoError(t, err)
	require.Len(t, places, 2)
	assert.Equal(t, "Downtown Park", places[0].Name)
	assert.Equal(t, &[2]int{6, 96}, places[0].AgeRange)
	require.NotNil(t, places[0].Experience.Rating)
	assert.Equal(t, 3, *places[0].Experience.Rating)
	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPlaceRepository_GetPlaceByID_NotFound(t *testing.T) {
	repo, mockPool := setupPlaceRepoTest(t)

	mockPool.ExpectQuery(`SELECT (.+) FROM places WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(placeColumnNames))

	_, err := repo.GetPlaceByID(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPlaceRepository_DeletePlace(t *testing.T) {
	repo, mockPool := setupPlaceRepoTest(t)

	mockPool.ExpectExec(`DELETE FROM places WHERE id = \$1`).
		WithArgs("a1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, repo.DeletePlace(context.Background(), "a1"))

	mockPool.ExpectExec(`DELETE FROM places WHERE id = \$1`).
		WithArgs("ghost").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	assert.ErrorIs(t, repo.DeletePlace(context.Background(), "ghost"), models.ErrNotFound)

	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPlaceRepository_UpdatePlace_NotFound(t *testing.T) {
	repo, mockPool := setupPlaceRepoTest(t)

	// id plus the twenty column values.
	updateArgs := []any{"ghost"}
	for range 20 {
		updateArgs = append(updateArgs, pgxmock.AnyArg())
	}
	mockPool.ExpectExec(`UPDATE places SET`).
		WithArgs(updateArgs...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdatePlace(context.Background(), "ghost", &models.Place{Name: "X"})
	assert.ErrorIs(t, err, models.ErrNotFound)
	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPlaceRepository_AddThenReadRoundTrip(t *testing.T) {
	repo, mockPool := setupPlaceRepoTest(t)

	visited := time.Date(2025, 7, 4, 10, 0, 0, 0, time.UTC)
	rating := 3
	pl := &models.Place{
		Name:            "Kelsey Creek Farm",
		Icon:            "🐐",
		Description:     "Farm animals up close",
		Address:         "410 130th Pl SE, Bellevue",
		Phone:           "425-452-7688",
		Website:         "https://example.org/kelsey",
		Pricing:         models.PricingFree,
		AgeRange:        &[2]int{12, 96},
		Features:        []string{"Outdoor", "Animals"},
		ParkingInfo:     "Free lot by the barn",
		DurationOfVisit: "2 hours",
		SpecialNotes:    "Closed Mondays",
		Photos:          []models.Photo{{URL: "https://example.org/goat.jpg", Caption: "Goats", IsCover: true}},
		Experience: models.Experience{
			HasVisited:    true,
			Rating:        &rating,
			Likes:         "Petting the goats",
			Dislikes:      "Mud everywhere",
			PersonalNotes: "Bring boots",
			LastVisited:   &visited,
		},
	}
	photosJSON, err := json.Marshal(pl.Photos)
	require.NoError(t, err)

	mockPool.ExpectQuery(`INSERT INTO places`).
		WithArgs(
			pl.Name, pl.Icon, pl.Description, pl.Address, pl.Phone, pl.Website, pl.Pricing,
			&pl.AgeRange[0], &pl.AgeRange[1], pl.Features, pl.ParkingInfo, pl.DurationOfVisit, pl.SpecialNotes, photosJSON,
			pl.Experience.HasVisited, pl.Experience.Rating, pl.Experience.Likes, pl.Experience.Dislikes,
			pl.Experience.PersonalNotes, pl.Experience.LastVisited,
		).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("new-id"))

	id, err := repo.AddPlace(context.Background(), pl)
	require.NoError(t, err)
	assert.Equal(t, "new-id", id)

	// Reading the row back through the same column order returns every field
	// the insert was given.
	now := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	mockPool.ExpectQuery(`SELECT (.+) FROM places WHERE id = \$1`).
		WithArgs("new-id").
		WillReturnRows(pgxmock.NewRows(placeColumnNames).AddRow(
			"new-id", pl.Name, pl.Icon, pl.Description, pl.Address, pl.Phone, pl.Website, pl.Pricing,
			&pl.AgeRange[0], &pl.AgeRange[1], pl.Features, pl.ParkingInfo, pl.DurationOfVisit, pl.SpecialNotes, photosJSON,
			pl.Experience.HasVisited, pl.Experience.Rating, pl.Experience.Likes, pl.Experience.Dislikes,
			pl.Experience.PersonalNotes, pl.Experience.LastVisited,
			now, now,
		))

	got, err := repo.GetPlaceByID(context.Background(), "new-id")
	require.NoError(t, err)

	want := *pl
	want.ID = "new-id"
	want.CreatedAt = now
	want.UpdatedAt = now
	assert.Equal(t, &want, got)

	require.NoError(t, mockPool.ExpectationsWereMet())
}

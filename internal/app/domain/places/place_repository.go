package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/littletrip/littletrip-api/internal/app/models"
)

var _ Repository = (*RepositoryImpl)(nil)

// SearchFilter narrows the admin catalog search. Zero values mean "no
// constraint".
type SearchFilter struct {
	SearchText string
	Features   []string
	Pricing    []models.Pricing
	Limit      int
	Offset     int
}

type Repository interface {
	GetPlaces(ctx context.Context) ([]models.Place, error)
	GetPlaceByID(ctx context.Context, id string) (*models.Place, error)
	SearchPlaces(ctx context.Context, filter SearchFilter) ([]models.Place, int, error)
	AddPlace(ctx context.Context, place *models.Place) (string, error)
	UpdatePlace(ctx context.Context, id string, place *models.Place) error
	DeletePlace(ctx context.Context, id string) error
}

// PgxPool is the slice of pgxpool.Pool the repository needs; pgxmock
// satisfies it in tests.
type PgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type RepositoryImpl struct {
	logger *zap.Logger
	pgpool PgxPool
}

func NewRepository(pgxpool PgxPool, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgxpool,
	}
}

const placeColumns = `id, name, icon, description, address, phone, website, pricing,
	age_min, age_max, features, parking_info, duration_of_visit, special_notes, photos,
	has_visited, rating, exp_likes, exp_dislikes, personal_notes, last_visited_at,
	created_at, updated_at`

func scanPlace(row pgx.Row) (*models.Place, error) {
	var (
		pl        models.Place
		ageMin    *int
		ageMax    *int
		photosRaw []byte
	)
	err := row.Scan(
		&pl.ID, &pl.Name, &pl.Icon, &pl.Description, &pl.Address, &pl.Phone, &pl.Website, &pl.Pricing,
		&ageMin, &ageMax, &pl.Features, &pl.ParkingInfo, &pl.DurationOfVisit, &pl.SpecialNotes, &photosRaw,
		&pl.Experience.HasVisited, &pl.Experience.Rating, &pl.Experience.Likes, &pl.Experience.Dislikes,
		&pl.Experience.PersonalNotes, &pl.Experience.LastVisited,
		&pl.CreatedAt, &pl.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if ageMin != nil && ageMax != nil {
		pl.AgeRange = &[2]int{*ageMin, *ageMax}
	}
	if len(photosRaw) > 0 {
		if err := json.Unmarshal(photosRaw, &pl.Photos); err != nil {
			return nil, fmt.Errorf("decoding photos for place %s: %w", pl.ID, err)
		}
	}
	return &pl, nil
}

// GetPlaces returns the whole catalog, oldest first.
func (r *RepositoryImpl) GetPlaces(ctx context.Context) ([]models.Place, error) {
	tracer := otel.Tracer("littletrip-api")
	ctx, span := tracer.Start(ctx, "PlaceRepository.GetPlaces", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
	))
	defer span.End()

	query := `SELECT ` + placeColumns + ` FROM places ORDER BY created_at, id`
	rows, err := r.pgpool.Query(ctx, query)
	if err != nil {
		r.logger.Error("Error querying places", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("database error fetching places: %w", err)
	}
	defer rows.Close()

	var places []models.Place
	for rows.Next() {
		pl, err := scanPlace(rows)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("scanning place row: %w", err)
		}
		places = append(places, *pl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating place rows: %w", err)
	}

	span.SetAttributes(attribute.Int("places.count", len(places)))
	span.SetStatus(codes.Ok, "places fetched")
	return places, nil
}

// GetPlaceByID fetches a single place, returning models.ErrNotFound on miss.
func (r *RepositoryImpl) GetPlaceByID(ctx context.Context, id string) (*models.Place, error) {
	query := `SELECT ` + placeColumns + ` FROM places WHERE id = $1`
	pl, err := scanPlace(r.pgpool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("place %s: %w", id, models.ErrNotFound)
		}
		r.logger.Error("Error fetching place by ID", zap.Error(err), zap.String("place_id", id))
		return nil, fmt.Errorf("database error fetching place: %w", err)
	}
	return pl, nil
}

// SearchPlaces runs the admin panel search with dynamic criteria.
func (r *RepositoryImpl) SearchPlaces(ctx context.Context, filter SearchFilter) ([]models.Place, int, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	base := psql.Select(placeColumns).From("places")
	countQ := psql.Select("COUNT(*)").From("places")

	if filter.SearchText != "" {
		cond := sq.Or{
			sq.ILike{"name": "%" + filter.SearchText + "%"},
			sq.ILike{"description": "%" + filter.SearchText + "%"},
			sq.ILike{"address": "%" + filter.SearchText + "%"},
		}
		base = base.Where(cond)
		countQ = countQ.Where(cond)
	}
	if len(filter.Features) > 0 {
		cond := sq.Expr("features @> ?", filter.Features)
		base = base.Where(cond)
		countQ = countQ.Where(cond)
	}
	if len(filter.Pricing) > 0 {
		tiers := make([]string, len(filter.Pricing))
		for i, p := range filter.Pricing {
			tiers[i] = string(p)
		}
		base = base.Where(sq.Eq{"pricing": tiers})
		countQ = countQ.Where(sq.Eq{"pricing": tiers})
	}

	base = base.OrderBy("name")
	if filter.Limit > 0 {
		base = base.Limit(uint64(filter.Limit)).Offset(uint64(filter.Offset))
	}

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building count query: %w", err)
	}
	var total int
	if err := r.pgpool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		r.logger.Error("Error counting search results", zap.Error(err))
		return nil, 0, fmt.Errorf("database error counting places: %w", err)
	}

	listSQL, listArgs, err := base.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building search query: %w", err)
	}
	rows, err := r.pgpool.Query(ctx, listSQL, listArgs...)
	if err != nil {
		r.logger.Error("Error searching places", zap.Error(err))
		return nil, 0, fmt.Errorf("database error searching places: %w", err)
	}
	defer rows.Close()

	var places []models.Place
	for rows.Next() {
		pl, err := scanPlace(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning place row: %w", err)
		}
		places = append(places, *pl)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating place rows: %w", err)
	}
	return places, total, nil
}

// AddPlace inserts a new place and returns its assigned id.
func (r *RepositoryImpl) AddPlace(ctx context.Context, place *models.Place) (string, error) {
	tracer := otel.Tracer("littletrip-api")
	ctx, span := tracer.Start(ctx, "PlaceRepository.AddPlace")
	defer span.End()

	photosJSON, err := json.Marshal(placePhotos(place))
	if err != nil {
		return "", fmt.Errorf("encoding photos: %w", err)
	}

	var ageMin, ageMax *int
	if place.AgeRange != nil {
		ageMin, ageMax = &place.AgeRange[0], &place.AgeRange[1]
	}

	var id string
	query := `INSERT INTO places
		(name, icon, description, address, phone, website, pricing,
		 age_min, age_max, features, parking_info, duration_of_visit, special_notes, photos,
		 has_visited, rating, exp_likes, exp_dislikes, personal_notes, last_visited_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
		RETURNING id`
	err = r.pgpool.QueryRow(ctx, query,
		place.Name, place.Icon, place.Description, place.Address, place.Phone, place.Website, place.Pricing,
		ageMin, ageMax, placeFeatures(place), place.ParkingInfo, place.DurationOfVisit, place.SpecialNotes, photosJSON,
		place.Experience.HasVisited, place.Experience.Rating, place.Experience.Likes, place.Experience.Dislikes,
		place.Experience.PersonalNotes, place.Experience.LastVisited,
	).Scan(&id)
	if err != nil {
		r.logger.Error("Error inserting place", zap.Error(err), zap.String("name", place.Name))
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return "", fmt.Errorf("database error inserting place: %w", err)
	}

	span.SetStatus(codes.Ok, "place inserted")
	return id, nil
}

// UpdatePlace overwrites a place document. A single update is one document
// merge; there is no cross-field transaction beyond the row write itself.
func (r *RepositoryImpl) UpdatePlace(ctx context.Context, id string, place *models.Place) error {
	photosJSON, err := json.Marshal(placePhotos(place))
	if err != nil {
		return fmt.Errorf("encoding photos: %w", err)
	}

	var ageMin, ageMax *int
	if place.AgeRange != nil {
		ageMin, ageMax = &place.AgeRange[0], &place.AgeRange[1]
	}

	query := `UPDATE places SET
		name=$2, icon=$3, description=$4, address=$5, phone=$6, website=$7, pricing=$8,
		age_min=$9, age_max=$10, features=$11, parking_info=$12, duration_of_visit=$13,
		special_notes=$14, photos=$15, has_visited=$16, rating=$17, exp_likes=$18,
		exp_dislikes=$19, personal_notes=$20, last_visited_at=$21, updated_at=now()
		WHERE id=$1`
	tag, err := r.pgpool.Exec(ctx, query, id,
		place.Name, place.Icon, place.Description, place.Address, place.Phone, place.Website, place.Pricing,
		ageMin, ageMax, placeFeatures(place), place.ParkingInfo, place.DurationOfVisit,
		place.SpecialNotes, photosJSON, place.Experience.HasVisited, place.Experience.Rating,
		place.Experience.Likes, place.Experience.Dislikes, place.Experience.PersonalNotes,
		place.Experience.LastVisited,
	)
	if err != nil {
		r.logger.Error("Error updating place", zap.Error(err), zap.String("place_id", id))
		return fmt.Errorf("database error updating place: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("place %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// DeletePlace removes a place row.
func (r *RepositoryImpl) DeletePlace(ctx context.Context, id string) error {
	tag, err := r.pgpool.Exec(ctx, `DELETE FROM places WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Error deleting place", zap.Error(err), zap.String("place_id", id))
		return fmt.Errorf("database error deleting place: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("place %s: %w", id, models.ErrNotFound)
	}
	return nil
}

func placeFeatures(place *models.Place) []string {
	if place.Features == nil {
		return []string{}
	}
	return place.Features
}

func placePhotos(place *models.Place) []models.Photo {
	if place.Photos == nil {
		return []models.Photo{}
	}
	return place.Photos
}

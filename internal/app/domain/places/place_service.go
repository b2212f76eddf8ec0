package places

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/littletrip/littletrip-api/internal/app/models"
	"github.com/littletrip/littletrip-api/internal/app/observability/metrics"
	"github.com/littletrip/littletrip-api/internal/pkg/snapshot"
)

var _ Service = (*ServiceImpl)(nil)

const (
	placesCacheKey = "catalog:places"
	cacheTTL       = 2 * time.Minute
)

// Service is the catalog gateway. Reads never fail: when the database is
// down the bundled snapshot serves instead, so the catalog always renders.
// Writes report success or failure without surfacing raw errors.
type Service interface {
	GetPlaces(ctx context.Context) []models.Place
	GetPlaceByID(ctx context.Context, id string) (*models.Place, error)
	SearchPlaces(ctx context.Context, filter SearchFilter) ([]models.Place, int, error)
	AddPlace(ctx context.Context, place *models.Place) (string, bool)
	UpdatePlace(ctx context.Context, id string, place *models.Place) bool
	DeletePlace(ctx context.Context, id string) bool
	ImportPlaces(ctx context.Context, places []models.Place) models.ImportReport
}

type ServiceImpl struct {
	logger *zap.Logger
	repo   Repository
	cache  *cache.Cache
}

func NewService(repo Repository, cache *cache.Cache, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		cache:  cache,
	}
}

// GetPlaces returns the full catalog. The lookup order is cache, database,
// embedded snapshot; only the snapshot path can serve stale data and it is
// counted when it does.
func (s *ServiceImpl) GetPlaces(ctx context.Context) []models.Place {
	tracer := otel.Tracer("littletrip-api")
	ctx, span := tracer.Start(ctx, "PlaceService.GetPlaces")
	defer span.End()

	if cached, ok := s.cache.Get(placesCacheKey); ok {
		if places, ok := cached.([]models.Place); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return places
		}
	}

	if m := metrics.Get(); m != nil {
		m.CatalogRequestsTotal.Add(ctx, 1)
	}

	places, err := s.repo.GetPlaces(ctx)
	if err != nil {
		s.logger.Warn("Falling back to bundled snapshot", zap.Error(err))
		return s.snapshotPlaces(ctx)
	}

	// An empty table is an answer, not a failure: once an admin empties the
	// catalog the snapshot must not resurrect deleted places.
	s.cache.Set(placesCacheKey, places, cacheTTL)
	return places
}

func (s *ServiceImpl) snapshotPlaces(ctx context.Context) []models.Place {
	if m := metrics.Get(); m != nil {
		m.SnapshotFallbacksTotal.Add(ctx, 1)
	}
	places, err := snapshot.Places()
	if err != nil {
		// The snapshot is compiled in; a parse failure here is a build defect.
		s.logger.Error("Embedded snapshot unreadable", zap.Error(err))
		return []models.Place{}
	}
	return places
}

// GetPlaceByID resolves one place, checking the database first and then the
// snapshot. Snapshot ids are numeric while database ids are not, so the
// fallback compares ids numerically when both sides parse as numbers.
func (s *ServiceImpl) GetPlaceByID(ctx context.Context, id string) (*models.Place, error) {
	pl, err := s.repo.GetPlaceByID(ctx, id)
	if err == nil {
		return pl, nil
	}

	snapPlaces, snapErr := snapshot.Places()
	if snapErr == nil {
		for i := range snapPlaces {
			if models.SamePlaceID(snapPlaces[i].ID, id) {
				return &snapPlaces[i], nil
			}
		}
	}
	return nil, err
}

// SearchPlaces is admin-only and talks straight to the database; no
// snapshot fallback, admins need the real picture.
func (s *ServiceImpl) SearchPlaces(ctx context.Context, filter SearchFilter) ([]models.Place, int, error) {
	return s.repo.SearchPlaces(ctx, filter)
}

// AddPlace stores a new place and reports the assigned id. A false return
// means the write did not happen; the catalog keeps serving either way.
func (s *ServiceImpl) AddPlace(ctx context.Context, place *models.Place) (string, bool) {
	id, err := s.repo.AddPlace(ctx, place)
	if err != nil {
		s.logger.Error("Error adding place", zap.String("name", place.Name), zap.Error(err))
		return "", false
	}
	s.cache.Delete(placesCacheKey)
	s.logger.Info("Place added", zap.String("place_id", id), zap.String("name", place.Name))
	return id, true
}

// UpdatePlace merges the given document over the stored one.
func (s *ServiceImpl) UpdatePlace(ctx context.Context, id string, place *models.Place) bool {
	if err := s.repo.UpdatePlace(ctx, id, place); err != nil {
		s.logger.Error("Error updating place", zap.String("place_id", id), zap.Error(err))
		return false
	}
	s.cache.Delete(placesCacheKey)
	return true
}

// DeletePlace removes a place from the catalog.
func (s *ServiceImpl) DeletePlace(ctx context.Context, id string) bool {
	if err := s.repo.DeletePlace(ctx, id); err != nil {
		s.logger.Error("Error deleting place", zap.String("place_id", id), zap.Error(err))
		return false
	}
	s.cache.Delete(placesCacheKey)
	return true
}

// ImportPlaces loads a batch of places, validating each record on its own.
// One bad record never blocks the rest of the batch.
func (s *ServiceImpl) ImportPlaces(ctx context.Context, batch []models.Place) models.ImportReport {
	report := models.ImportReport{Total: len(batch)}
	for i := range batch {
		pl := &batch[i]
		if err := pl.Validate(); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, models.ImportError{
				Index: i,
				Name:  pl.Name,
				Error: err.Error(),
			})
			continue
		}
		if _, ok := s.AddPlace(ctx, pl); !ok {
			report.Failed++
			report.Errors = append(report.Errors, models.ImportError{
				Index: i,
				Name:  pl.Name,
				Error: "could not store place",
			})
			continue
		}
		report.Imported++
	}
	s.logger.Info("Import finished",
		zap.Int("total", report.Total),
		zap.Int("imported", report.Imported),
		zap.Int("failed", report.Failed),
	)
	return report
}

package preferences

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/littletrip/littletrip-api/internal/app/models"
)

var _ Store = (*PostgresStore)(nil)

// Store is one authoritative preference backend. The signed-in backend lives
// in Postgres; the anonymous backend lives in process memory keyed by device.
type Store interface {
	Get(ctx context.Context, ownerID string) (models.PreferenceSet, error)
	Toggle(ctx context.Context, ownerID string, kind models.ActionKind, placeID string, add bool) error
}

type PgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore keeps one row per user with three text-array sets. The row
// appears lazily on the first toggle and is never deleted.
type PostgresStore struct {
	logger *zap.Logger
	pgpool PgxPool
}

func NewPostgresStore(pgxpool PgxPool, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{logger: logger, pgpool: pgxpool}
}

// Get loads the user's preference document. A user with no row yet gets the
// empty document, not an error.
func (s *PostgresStore) Get(ctx context.Context, ownerID string) (models.PreferenceSet, error) {
	var set models.PreferenceSet
	err := s.pgpool.QueryRow(ctx,
		`SELECT user_id, liked, hidden, pinned, created_at, updated_at
		 FROM user_preferences WHERE user_id = $1`, ownerID,
	).Scan(&set.UserID, &set.Liked, &set.Hidden, &set.Pinned, &set.CreatedAt, &set.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.EmptyPreferenceSet(ownerID), nil
		}
		return models.PreferenceSet{}, fmt.Errorf("database error fetching preferences: %w", err)
	}
	if set.Liked == nil {
		set.Liked = []string{}
	}
	if set.Hidden == nil {
		set.Hidden = []string{}
	}
	if set.Pinned == nil {
		set.Pinned = []string{}
	}
	return set, nil
}

// toggleQueries maps each action set to its add/remove statements. The
// column name cannot be a bind parameter, so the statements are fixed per
// kind. array_remove before array_append keeps the sets duplicate-free even
// if two adds race.
var toggleQueries = map[models.ActionKind][2]string{
	models.ActionLike: {
		`UPDATE user_preferences SET liked = array_append(array_remove(liked, $2), $2), updated_at = now() WHERE user_id = $1`,
		`UPDATE user_preferences SET liked = array_remove(liked, $2), updated_at = now() WHERE user_id = $1`,
	},
	models.ActionHide: {
		`UPDATE user_preferences SET hidden = array_append(array_remove(hidden, $2), $2), updated_at = now() WHERE user_id = $1`,
		`UPDATE user_preferences SET hidden = array_remove(hidden, $2), updated_at = now() WHERE user_id = $1`,
	},
	models.ActionPin: {
		`UPDATE user_preferences SET pinned = array_append(array_remove(pinned, $2), $2), updated_at = now() WHERE user_id = $1`,
		`UPDATE user_preferences SET pinned = array_remove(pinned, $2), updated_at = now() WHERE user_id = $1`,
	},
}

// Toggle writes one membership change. Each toggle is a single-document
// write; there is no cross-toggle transaction.
func (s *PostgresStore) Toggle(ctx context.Context, ownerID string, kind models.ActionKind, placeID string, add bool) error {
	tracer := otel.Tracer("littletrip-api")
	ctx, span := tracer.Start(ctx, "PreferenceStore.Toggle")
	defer span.End()
	span.SetAttributes(
		attribute.String("preference.kind", string(kind)),
		attribute.Bool("preference.add", add),
	)

	queries, ok := toggleQueries[kind]
	if !ok {
		return fmt.Errorf("unknown action kind %q: %w", kind, models.ErrBadRequest)
	}

	_, err := s.pgpool.Exec(ctx,
		`INSERT INTO user_preferences (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, ownerID)
	if err != nil {
		return fmt.Errorf("database error creating preference document: %w", err)
	}

	query := queries[1]
	if add {
		query = queries[0]
	}
	if _, err := s.pgpool.Exec(ctx, query, ownerID, placeID); err != nil {
		s.logger.Error("Preference toggle write failed",
			zap.String("user_id", ownerID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return fmt.Errorf("database error writing preference: %w", err)
	}
	return nil
}

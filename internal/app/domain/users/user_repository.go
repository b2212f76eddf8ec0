package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/littletrip/littletrip-api/internal/app/models"
)

var _ Repository = (*RepositoryImpl)(nil)

type PgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Repository interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	SetAdmin(ctx context.Context, id string, isAdmin bool) error
	Deactivate(ctx context.Context, id string) error
}

type RepositoryImpl struct {
	logger *zap.Logger
	pgpool PgxPool
}

func NewRepository(pgxpool PgxPool, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{logger: logger, pgpool: pgxpool}
}

const userColumns = `id, email, display_name, photo_url, is_admin, email_verified, created_at, last_sign_in_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.UID, &u.Email, &u.DisplayName, &u.PhotoURL, &u.IsAdmin, &u.EmailVerified, &u.CreatedAt, &u.LastSignIn)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns every active account, newest first.
func (r *RepositoryImpl) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.pgpool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE is_active = TRUE ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("database error listing users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}
	return users, nil
}

func (r *RepositoryImpl) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, err := scanUser(r.pgpool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND is_active = TRUE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}
	return u, nil
}

// SetAdmin grants or revokes the admin flag.
func (r *RepositoryImpl) SetAdmin(ctx context.Context, id string, isAdmin bool) error {
	tag, err := r.pgpool.Exec(ctx,
		`UPDATE users SET is_admin = $2, updated_at = now() WHERE id = $1 AND is_active = TRUE`,
		id, isAdmin)
	if err != nil {
		r.logger.Error("Error updating admin flag", zap.String("user_id", id), zap.Error(err))
		return fmt.Errorf("database error updating admin flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// Deactivate soft-deletes an account. The row stays so the preference
// document and refresh-token history keep their foreign keys.
func (r *RepositoryImpl) Deactivate(ctx context.Context, id string) error {
	tag, err := r.pgpool.Exec(ctx,
		`UPDATE users SET is_active = FALSE, updated_at = now() WHERE id = $1 AND is_active = TRUE`, id)
	if err != nil {
		return fmt.Errorf("database error deactivating user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}
	return nil
}

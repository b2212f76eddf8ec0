package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/littletrip/littletrip-api/internal/app/models"
)

var _ AuthRepo = (*PostgresAuthRepo)(nil)

type AuthRepo interface {
	// GetUserByEmail fetches user details needed for validation/token generation.
	GetUserByEmail(ctx context.Context, email string) (*models.UserAuth, error)
	// GetUserByID fetches user details by ID.
	GetUserByID(ctx context.Context, userID string) (*models.UserAuth, error)
	// GetUserRecord fetches the public user record.
	GetUserRecord(ctx context.Context, userID string) (*models.User, error)
	// Register stores a new user with a HASHED password. Returns new user ID.
	Register(ctx context.Context, username, email, hashedPassword string) (string, error)
	// TouchLastSignIn records a successful sign-in on the user record.
	TouchLastSignIn(ctx context.Context, userID string) error
	// PromoteFirstUser marks the user admin only while it is the sole account.
	PromoteFirstUser(ctx context.Context, userID string) error

	// --- Refresh token handling ---
	StoreRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	ValidateRefreshTokenAndGetUserID(ctx context.Context, refreshToken string) (string, error)
	InvalidateRefreshToken(ctx context.Context, refreshToken string) error
	InvalidateAllUserRefreshTokens(ctx context.Context, userID string) error
}

type PostgresAuthRepo struct {
	logger *zap.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresAuthRepo(pgxpool *pgxpool.Pool, logger *zap.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		pgpool: pgxpool,
	}
}

// GetUserByEmail implements auth.AuthRepo.
func (r *PostgresAuthRepo) GetUserByEmail(ctx context.Context, email string) (*models.UserAuth, error) {
	var user models.UserAuth
	query := `SELECT id, username, email, password_hash, is_admin FROM users WHERE email = $1 AND is_active = TRUE`
	err := r.pgpool.QueryRow(ctx, query, email).Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.IsAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user with email %s not found: %w", email, models.ErrNotFound)
		}
		r.logger.Error("Error fetching user by email", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}
	return &user, nil
}

// GetUserByID implements auth.AuthRepo.
func (r *PostgresAuthRepo) GetUserByID(ctx context.Context, userID string) (*models.UserAuth, error) {
	var user models.UserAuth
	query := `SELECT id, username, email, password_hash, is_admin FROM users WHERE id = $1 AND is_active = TRUE`
	err := r.pgpool.QueryRow(ctx, query, userID).Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.IsAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user with ID %s not found: %w", userID, models.ErrNotFound)
		}
		r.logger.Error("Error fetching user by ID", zap.Error(err), zap.String("userID", userID))
		return nil, fmt.Errorf("database error fetching user by ID: %w", err)
	}
	return &user, nil
}

// GetUserRecord implements auth.AuthRepo.
func (r *PostgresAuthRepo) GetUserRecord(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	query := `SELECT id, email, display_name, photo_url, is_admin, email_verified, created_at, last_sign_in_at
			  FROM users WHERE id = $1 AND is_active = TRUE`
	err := r.pgpool.QueryRow(ctx, query, userID).Scan(
		&u.UID, &u.Email, &u.DisplayName, &u.PhotoURL, &u.IsAdmin, &u.EmailVerified, &u.CreatedAt, &u.LastSignIn)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user record %s not found: %w", userID, models.ErrNotFound)
		}
		r.logger.Error("Error fetching user record", zap.Error(err), zap.String("userID", userID))
		return nil, fmt.Errorf("database error fetching user record: %w", err)
	}
	return &u, nil
}

// Register implements auth.AuthRepo. Expects a HASHED password. New users are
// always written with is_admin = FALSE; only PromoteFirstUser or an existing
// admin can flip the flag.
func (r *PostgresAuthRepo) Register(ctx context.Context, username, email, hashedPassword string) (string, error) {
	tracer := otel.Tracer("littletrip-api")
	ctx, span := tracer.Start(ctx, "PostgresAuthRepo.Register", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
	))
	defer span.End()

	var userID string
	query := `INSERT INTO users (username, email, password_hash, display_name, is_admin)
			  VALUES ($1, $2, $3, $1, FALSE)
			  RETURNING id`
	err := r.pgpool.QueryRow(ctx, query, username, email, hashedPassword).Scan(&userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			span.SetStatus(codes.Error, "duplicate email")
			return "", fmt.Errorf("email %s already registered: %w", email, models.ErrConflict)
		}
		r.logger.Error("Error registering user", zap.Error(err), zap.String("email", email))
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return "", fmt.Errorf("database error registering user: %w", err)
	}
	span.SetStatus(codes.Ok, "user registered")
	return userID, nil
}

// TouchLastSignIn implements auth.AuthRepo.
func (r *PostgresAuthRepo) TouchLastSignIn(ctx context.Context, userID string) error {
	_, err := r.pgpool.Exec(ctx, `UPDATE users SET last_sign_in_at = now() WHERE id = $1`, userID)
	if err != nil {
		r.logger.Warn("Failed to record last sign-in", zap.Error(err), zap.String("userID", userID))
		return fmt.Errorf("database error recording sign-in: %w", err)
	}
	return nil
}

// PromoteFirstUser promotes the given user to admin, but only while it is the
// only account in the system. This is the one-time setup bootstrap; any later
// promotion has to go through an existing admin.
func (r *PostgresAuthRepo) PromoteFirstUser(ctx context.Context, userID string) error {
	tag, err := r.pgpool.Exec(ctx,
		`UPDATE users SET is_admin = TRUE
		 WHERE id = $1 AND (SELECT COUNT(*) FROM users) = 1`, userID)
	if err != nil {
		r.logger.Error("Error promoting first user", zap.Error(err), zap.String("userID", userID))
		return fmt.Errorf("database error promoting first user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("other accounts already exist: %w", models.ErrSetupDone)
	}
	return nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// StoreRefreshToken implements auth.AuthRepo. Only a hash of the token is
// persisted.
func (r *PostgresAuthRepo) StoreRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	query := `INSERT INTO refresh_tokens (token_hash, user_id, expires_at) VALUES ($1, $2, $3)`
	_, err := r.pgpool.Exec(ctx, query, hashToken(token), userID, expiresAt)
	if err != nil {
		r.logger.Error("Error storing refresh token", zap.Error(err), zap.String("userID", userID))
		return fmt.Errorf("database error storing refresh token: %w", err)
	}
	return nil
}

// ValidateRefreshTokenAndGetUserID implements auth.AuthRepo.
func (r *PostgresAuthRepo) ValidateRefreshTokenAndGetUserID(ctx context.Context, refreshToken string) (string, error) {
	var userID string
	query := `SELECT user_id FROM refresh_tokens
			  WHERE token_hash = $1 AND revoked_at IS NULL AND expires_at > now()`
	err := r.pgpool.QueryRow(ctx, query, hashToken(refreshToken)).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("refresh token invalid or expired: %w", models.ErrUnauthenticated)
		}
		r.logger.Error("Error validating refresh token", zap.Error(err))
		return "", fmt.Errorf("database error validating refresh token: %w", err)
	}
	return userID, nil
}

// InvalidateRefreshToken implements auth.AuthRepo.
func (r *PostgresAuthRepo) InvalidateRefreshToken(ctx context.Context, refreshToken string) error {
	query := `UPDATE refresh_tokens SET revoked_at = now() WHERE token_hash = $1 AND revoked_at IS NULL`
	_, err := r.pgpool.Exec(ctx, query, hashToken(refreshToken))
	if err != nil {
		r.logger.Error("Error invalidating refresh token", zap.Error(err))
		return fmt.Errorf("database error invalidating refresh token: %w", err)
	}
	return nil
}

// InvalidateAllUserRefreshTokens implements auth.AuthRepo.
func (r *PostgresAuthRepo) InvalidateAllUserRefreshTokens(ctx context.Context, userID string) error {
	query := `UPDATE refresh_tokens SET revoked_at = now() WHERE user_id = $1 AND revoked_at IS NULL`
	_, err := r.pgpool.Exec(ctx, query, userID)
	if err != nil {
		r.logger.Error("Error invalidating user refresh tokens", zap.Error(err), zap.String("userID", userID))
		return fmt.Errorf("database error invalidating user refresh tokens: %w", err)
	}
	return nil
}

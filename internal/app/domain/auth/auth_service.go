package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/littletrip/littletrip-api/internal/app/models"
	"github.com/littletrip/littletrip-api/internal/pkg/config"
)

// Ensure implementation satisfies the interface
var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService defines the business logic contract.
type AuthService interface {
	Login(ctx context.Context, email, password string) (accessToken string, refreshToken string, err error)
	Logout(ctx context.Context, refreshToken string) error
	RefreshSession(ctx context.Context, refreshToken string) (accessToken string, newRefreshToken string, err error)
	Register(ctx context.Context, username, email, password string) (string, error)
	// SetupFirstAdmin registers an account and promotes it to admin; it only
	// succeeds while no other account exists.
	SetupFirstAdmin(ctx context.Context, username, email, password string) (string, error)
	GetUserRecord(ctx context.Context, userID string) (*models.User, error)
	InvalidateAllUserRefreshTokens(ctx context.Context, userID string) error
}

// AuthServiceImpl provides the implementation for AuthService.
type AuthServiceImpl struct {
	logger *zap.Logger
	repo   AuthRepo
	cfg    *config.Config
	jwt    *JWTService
}

// NewAuthService creates a new authentication service instance.
func NewAuthService(repo AuthRepo, cfg *config.Config, logger *zap.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{logger: logger, repo: repo, cfg: cfg, jwt: NewJWTService()}
}

// Login validates credentials, generates tokens, stores refresh token.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, string, error) {
	l := s.logger.With(zap.String("method", "Login"), zap.String("email", email))
	l.Debug("Attempting login")

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		l.Warn("GetUserByEmail failed")
		// Don't reveal if user exists or password is wrong
		return "", "", fmt.Errorf("invalid credentials: %w", models.ErrUnauthenticated)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	if err != nil {
		l.Warn("Password comparison failed", zap.String("userID", user.ID))
		return "", "", fmt.Errorf("invalid credentials: %w", models.ErrUnauthenticated)
	}

	accessToken, refreshToken, err := s.generateTokens(user)
	if err != nil {
		l.Error("Failed to generate tokens", zap.String("userID", user.ID), zap.Error(err))
		return "", "", fmt.Errorf("app error generating tokens: %w", err)
	}

	refreshExpiresAt := time.Now().Add(s.cfg.JWT.RefreshTTL)
	err = s.repo.StoreRefreshToken(ctx, user.ID, refreshToken, refreshExpiresAt)
	if err != nil {
		l.Error("Failed to store refresh token", zap.String("userID", user.ID), zap.Error(err))
		return "", "", fmt.Errorf("app error storing session: %w", err)
	}

	if err := s.repo.TouchLastSignIn(ctx, user.ID); err != nil {
		l.Warn("Failed to record sign-in time", zap.Error(err))
	}

	l.Info("Login successful")
	return accessToken, refreshToken, nil
}

// Register hashes the password and stores the new user.
func (s *AuthServiceImpl) Register(ctx context.Context, username, email, password string) (string, error) {
	l := s.logger.With(zap.String("method", "Register"), zap.String("email", email))
	l.Debug("Attempting registration")

	tracer := otel.Tracer("littletrip-api")
	ctx, span := tracer.Start(ctx, "AuthService.Register", trace.WithAttributes(
		attribute.String("email", email),
	))
	defer span.End()

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		l.Error("Failed to hash password", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Password hashing failed")
		return "", fmt.Errorf("could not process password")
	}

	userID, err := s.repo.Register(ctx, username, email, string(hashedPasswordBytes))
	if err != nil {
		l.Error("Repository registration failed", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository registration failed")
		return "", fmt.Errorf("registration failed: %w", err)
	}

	l.Info("Registration successful", zap.String("userID", userID))
	span.SetStatus(codes.Ok, "User registered")
	return userID, nil
}

// SetupFirstAdmin implements the one-time bootstrap: register, then promote
// while the account is the only one. Registration is rolled back logically by
// the promotion guard refusing once any other account exists.
func (s *AuthServiceImpl) SetupFirstAdmin(ctx context.Context, username, email, password string) (string, error) {
	l := s.logger.With(zap.String("method", "SetupFirstAdmin"), zap.String("email", email))

	userID, err := s.Register(ctx, username, email, password)
	if err != nil {
		return "", err
	}

	if err := s.repo.PromoteFirstUser(ctx, userID); err != nil {
		l.Warn("Setup promotion refused", zap.String("userID", userID), zap.Error(err))
		return "", err
	}

	l.Info("First admin bootstrapped", zap.String("userID", userID))
	return userID, nil
}

// RefreshSession validates refresh token, generates new tokens, rotates refresh token.
func (s *AuthServiceImpl) RefreshSession(ctx context.Context, refreshToken string) (string, string, error) {
	l := s.logger.With(zap.String("method", "RefreshSession"))
	l.Debug("Attempting token refresh")

	userID, err := s.repo.ValidateRefreshTokenAndGetUserID(ctx, refreshToken)
	if err != nil {
		l.Warn("Refresh token validation failed", zap.Error(err))
		return "", "", fmt.Errorf("invalid or expired refresh token: %w", err)
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		l.Error("Failed to get user after refresh token validation", zap.String("userID", userID), zap.Error(err))
		if rerr := s.repo.InvalidateRefreshToken(ctx, refreshToken); rerr != nil {
			l.Warn("Failed to invalidate suspicious refresh token", zap.Error(rerr))
		}
		return "", "", fmt.Errorf("app error retrieving user during refresh: %w", models.ErrUnauthenticated)
	}

	newAccessToken, newRefreshToken, err := s.generateTokens(user)
	if err != nil {
		l.Error("Failed to generate new tokens", zap.String("userID", user.ID), zap.Error(err))
		return "", "", fmt.Errorf("app error generating tokens: %w", err)
	}

	refreshExpiresAt := time.Now().Add(s.cfg.JWT.RefreshTTL)
	err = s.repo.StoreRefreshToken(ctx, user.ID, newRefreshToken, refreshExpiresAt)
	if err != nil {
		l.Error("Failed to store new refresh token", zap.String("userID", user.ID), zap.Error(err))
		return "", "", fmt.Errorf("app error storing new session: %w", err)
	}

	// Rotation: the old token is single-use.
	err = s.repo.InvalidateRefreshToken(ctx, refreshToken)
	if err != nil {
		l.Warn("Failed to invalidate old refresh token during rotation", zap.String("userID", user.ID), zap.Error(err))
		return "", "", fmt.Errorf("failed to invalidate old refresh token: %w", err)
	}

	l.Info("Token refresh successful", zap.String("userID", user.ID))
	return newAccessToken, newRefreshToken, nil
}

// Logout invalidates the provided refresh token.
func (s *AuthServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	l := s.logger.With(zap.String("method", "Logout"))
	if refreshToken == "" {
		return nil
	}
	if err := s.repo.InvalidateRefreshToken(ctx, refreshToken); err != nil {
		l.Warn("Failed to invalidate refresh token on logout", zap.Error(err))
		return err
	}
	l.Info("Logout successful")
	return nil
}

// GetUserRecord returns the public user record for the session.
func (s *AuthServiceImpl) GetUserRecord(ctx context.Context, userID string) (*models.User, error) {
	return s.repo.GetUserRecord(ctx, userID)
}

// InvalidateAllUserRefreshTokens revokes every session of a user.
func (s *AuthServiceImpl) InvalidateAllUserRefreshTokens(ctx context.Context, userID string) error {
	return s.repo.InvalidateAllUserRefreshTokens(ctx, userID)
}

func (s *AuthServiceImpl) generateTokens(user *models.UserAuth) (string, string, error) {
	cfg := JWTConfig{
		SecretKey:       s.cfg.JWT.SecretKey,
		TokenExpiration: s.cfg.JWT.AccessTTL,
		Logger:          s.logger,
	}
	accessToken, err := s.jwt.GenerateToken(cfg, user.ID, user.Email, user.Username, user.IsAdmin)
	if err != nil {
		return "", "", err
	}

	refreshBytes := make([]byte, 32)
	if _, err := rand.Read(refreshBytes); err != nil {
		return "", "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return accessToken, hex.EncodeToString(refreshBytes), nil
}

// FriendlyAuthMessage maps auth failures to the short strings shown inline on
// the sign-in form.
func FriendlyAuthMessage(err error) string {
	switch {
	case errors.Is(err, models.ErrUnauthenticated):
		return "Incorrect email or password."
	case errors.Is(err, models.ErrConflict):
		return "An account with this email already exists."
	case errors.Is(err, models.ErrSetupDone):
		return "Setup has already been completed."
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrBadRequest):
		return "Please check the form and try again."
	default:
		return "Something went wrong. Please try again."
	}
}

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/littletrip/littletrip-api/internal/app/models"
	"github.com/littletrip/littletrip-api/internal/pkg/config"
)

type MockAuthRepo struct {
	mock.Mock
}

func (m *MockAuthRepo) GetUserByEmail(ctx context.Context, email string) (*models.UserAuth, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserAuth), args.Error(1)
}

func (m *MockAuthRepo) GetUserByID(ctx context.Context, userID string) (*models.UserAuth, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserAuth), args.Error(1)
}

func (m *MockAuthRepo) GetUserRecord(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthRepo) Register(ctx context.Context, username, email, hashedPassword string) (string, error) {
	args := m.Called(ctx, username, email, hashedPassword)
	return args.String(0), args.Error(1)
}

func (m *MockAuthRepo) TouchLastSignIn(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockAuthRepo) PromoteFirstUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockAuthRepo) StoreRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, token, expiresAt)
	return args.Error(0)
}

func (m *MockAuthRepo) ValidateRefreshTokenAndGetUserID(ctx context.Context, refreshToken string) (string, error) {
	args := m.Called(ctx, refreshToken)
	return args.String(0), args.Error(1)
}

func (m *MockAuthRepo) InvalidateRefreshToken(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *MockAuthRepo) InvalidateAllUserRefreshTokens(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			SecretKey:  "unit-test-secret-key-thirty-two-bytes!!",
			AccessTTL:  time.Hour,
			RefreshTTL: 24 * time.Hour,
		},
	}
}

func setupAuthServiceTest() (*AuthServiceImpl, *MockAuthRepo) {
	repo := new(MockAuthRepo)
	return NewAuthService(repo, testConfig(), zap.NewNop()), repo
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		svc, repo := setupAuthServiceTest()
		user := &models.UserAuth{
			ID: "u1", Username: "yunsol", Email: "mom@example.com",
			Password: hashed(t, "correct horse"), IsAdmin: true,
		}
		repo.On("GetUserByEmail", mock.Anything, "mom@example.com").Return(user, nil).Once()
		repo.On("StoreRefreshToken", mock.Anything, "u1", mock.Anything, mock.Anything).Return(nil).Once()
		repo.On("TouchLastSignIn", mock.Anything, "u1").Return(nil).Once()

		access, refresh, err := svc.Login(ctx, "mom@example.com", "correct horse")
		require.NoError(t, err)
		assert.NotEmpty(t, access)
		assert.NotEmpty(t, refresh)
		repo.AssertExpectations(t)

		// The admin flag survives the round trip into the access token,
		// so a re-signin keeps admin rights.
		claims, err := NewJWTService().ValidateToken(JWTConfig{
			SecretKey: testConfig().JWT.SecretKey,
		}, access)
		require.NoError(t, err)
		assert.True(t, claims.IsAdmin)
		assert.Equal(t, "u1", claims.UserID)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, repo := setupAuthServiceTest()
		user := &models.UserAuth{ID: "u1", Email: "mom@example.com", Password: hashed(t, "right")}
		repo.On("GetUserByEmail", mock.Anything, "mom@example.com").Return(user, nil).Once()

		_, _, err := svc.Login(ctx, "mom@example.com", "wrong")
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
		repo.AssertNotCalled(t, "StoreRefreshToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown email maps to the same error as a bad password", func(t *testing.T) {
		svc, repo := setupAuthServiceTest()
		repo.On("GetUserByEmail", mock.Anything, "ghost@example.com").Return(nil, models.ErrNotFound).Once()

		_, _, err := svc.Login(ctx, "ghost@example.com", "whatever")
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
	})
}

func TestAuthService_SetupFirstAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("first account is promoted", func(t *testing.T) {
		svc, repo := setupAuthServiceTest()
		repo.On("Register", mock.Anything, "yunsol", "mom@example.com", mock.Anything).Return("u1", nil).Once()
		repo.On("PromoteFirstUser", mock.Anything, "u1").Return(nil).Once()

		userID, err := svc.SetupFirstAdmin(ctx, "yunsol", "mom@example.com", "correct horse")
		require.NoError(t, err)
		assert.Equal(t, "u1", userID)
		repo.AssertExpectations(t)
	})

	t.Run("refused once another account exists", func(t *testing.T) {
		svc, repo := setupAuthServiceTest()
		repo.On("Register", mock.Anything, "late", "late@example.com", mock.Anything).Return("u2", nil).Once()
		repo.On("PromoteFirstUser", mock.Anything, "u2").Return(models.ErrSetupDone).Once()

		_, err := svc.SetupFirstAdmin(ctx, "late", "late@example.com", "password123")
		assert.ErrorIs(t, err, models.ErrSetupDone)
	})
}

func TestAuthService_Register_HashesPassword(t *testing.T) {
	svc, repo := setupAuthServiceTest()
	repo.On("Register", mock.Anything, "yunsol", "mom@example.com", mock.MatchedBy(func(h string) bool {
		return h != "plaintext" && bcrypt.CompareHashAndPassword([]byte(h), []byte("plaintext")) == nil
	})).Return("u1", nil).Once()

	_, err := svc.Register(context.Background(), "yunsol", "mom@example.com", "plaintext")
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestAuthService_RefreshSession_RotatesToken(t *testing.T) {
	ctx := context.Background()
	svc, repo := setupAuthServiceTest()
	user := &models.UserAuth{ID: "u1", Email: "mom@example.com", Password: "unused"}

	repo.On("ValidateRefreshTokenAndGetUserID", mock.Anything, "old-token").Return("u1", nil).Once()
	repo.On("GetUserByID", mock.Anything, "u1").Return(user, nil).Once()
	repo.On("StoreRefreshToken", mock.Anything, "u1", mock.Anything, mock.Anything).Return(nil).Once()
	repo.On("InvalidateRefreshToken", mock.Anything, "old-token").Return(nil).Once()

	access, refresh, err := svc.RefreshSession(ctx, "old-token")
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.NotEqual(t, "old-token", refresh)
	repo.AssertExpectations(t)
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	svc, repo := setupAuthServiceTest()

	// An empty token is a no-op, not an error.
	require.NoError(t, svc.Logout(ctx, ""))
	repo.AssertNotCalled(t, "InvalidateRefreshToken", mock.Anything, mock.Anything)

	repo.On("InvalidateRefreshToken", mock.Anything, "tok").Return(nil).Once()
	require.NoError(t, svc.Logout(ctx, "tok"))
	repo.AssertExpectations(t)
}

func TestFriendlyAuthMessage(t *testing.T) {
	assert.Equal(t, "Incorrect email or password.", FriendlyAuthMessage(models.ErrUnauthenticated))
	assert.Equal(t, "An account with this email already exists.", FriendlyAuthMessage(models.ErrConflict))
	assert.Equal(t, "Setup has already been completed.", FriendlyAuthMessage(models.ErrSetupDone))
	assert.Equal(t, "Something went wrong. Please try again.", FriendlyAuthMessage(assert.AnError))
}

package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/littletrip/littletrip-api/internal/app/models"
	"github.com/littletrip/littletrip-api/internal/app/observability/metrics"
)

type AuthHandlers struct {
	service AuthService
	logger  *zap.Logger
}

func NewAuthHandlers(service AuthService, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{service: service, logger: logger}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Register creates a new non-admin account.
func (h *AuthHandlers) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorMessage("Please check the form and try again."))
		return
	}
	if req.Username == "" {
		req.Username = displayNameFromEmail(req.Email)
	}

	if m := metrics.Get(); m != nil {
		m.AuthRequestsTotal.Add(c.Request.Context(), 1)
	}

	userID, err := h.service.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.logger.Warn("Registration failed", zap.String("email", req.Email), zap.Error(err))
		c.JSON(http.StatusConflict, models.ErrorMessage(FriendlyAuthMessage(err)))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"uid": userID})
}

// Setup is the one-time bootstrap path: the very first account created here
// becomes the admin. Once any other account exists the endpoint refuses.
func (h *AuthHandlers) Setup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorMessage("Please check the form and try again."))
		return
	}
	if req.Username == "" {
		req.Username = displayNameFromEmail(req.Email)
	}

	userID, err := h.service.SetupFirstAdmin(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.logger.Warn("Setup failed", zap.String("email", req.Email), zap.Error(err))
		c.JSON(http.StatusConflict, models.ErrorMessage(FriendlyAuthMessage(err)))
		return
	}

	h.logger.Info("Setup completed", zap.String("userID", userID))
	c.JSON(http.StatusCreated, gin.H{"uid": userID, "isAdmin": true})
}

// Login exchanges credentials for an access/refresh token pair.
func (h *AuthHandlers) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorMessage("Please check the form and try again."))
		return
	}

	if m := metrics.Get(); m != nil {
		m.AuthRequestsTotal.Add(c.Request.Context(), 1)
	}

	access, refresh, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorMessage(FriendlyAuthMessage(err)))
		return
	}

	c.JSON(http.StatusOK, tokenResponse{AccessToken: access, RefreshToken: refresh})
}

// Refresh rotates a refresh token into a fresh token pair.
func (h *AuthHandlers) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorMessage("Please check the form and try again."))
		return
	}

	access, refresh, err := h.service.RefreshSession(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorMessage(FriendlyAuthMessage(err)))
		return
	}

	c.JSON(http.StatusOK, tokenResponse{AccessToken: access, RefreshToken: refresh})
}

// Logout revokes the presented refresh token.
func (h *AuthHandlers) Logout(c *gin.Context) {
	var req refreshRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.service.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		h.logger.Warn("Logout failed", zap.Error(err))
	}
	c.JSON(http.StatusOK, models.SuccessMessage("Signed out."))
}

// Me returns the public user record of the current session, including the
// admin flag the UI mirrors.
func (h *AuthHandlers) Me(c *gin.Context) {
	userID := c.GetString(ContextUserIDKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, models.ErrorMessage("Not signed in."))
		return
	}

	user, err := h.service.GetUserRecord(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load user record", zap.String("userID", userID), zap.Error(err))
		c.JSON(http.StatusNotFound, models.ErrorMessage("Account not found."))
		return
	}

	c.JSON(http.StatusOK, user)
}

func displayNameFromEmail(email string) string {
	for i := range len(email) {
		if email[i] == '@' {
			return email[:i]
		}
	}
	return email
}

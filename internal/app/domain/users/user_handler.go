package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/littletrip/littletrip-api/internal/app/middleware"
	"github.com/littletrip/littletrip-api/internal/app/models"
)

type Handlers struct {
	service Service
	logger  *zap.Logger
}

func NewHandlers(service Service, logger *zap.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

// ListUsers returns every active account, newest first (admin only).
func (h *Handlers) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorMessage("Could not load the user list."))
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "total": len(users)})
}

// GetUser returns one account (admin only).
func (h *Handlers) GetUser(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorMessage("User not found."))
		return
	}
	c.JSON(http.StatusOK, user)
}

type setAdminRequest struct {
	IsAdmin *bool `json:"isAdmin" binding:"required"`
}

// SetAdmin grants or revokes another account's admin flag (admin only).
func (h *Handlers) SetAdmin(c *gin.Context) {
	var req setAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorMessage("Body must carry an isAdmin boolean."))
		return
	}

	actorID := middleware.GetUserIDFromContext(c)
	err := h.service.SetAdmin(c.Request.Context(), actorID, c.Param("id"), *req.IsAdmin)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, models.SuccessMessage("Admin flag updated."))
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, models.ErrorMessage("You cannot change your own admin flag."))
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorMessage("User not found."))
	default:
		h.logger.Error("Failed to set admin flag", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorMessage("Could not update the admin flag."))
	}
}

// Deactivate soft-deletes an account (admin only).
func (h *Handlers) Deactivate(c *gin.Context) {
	actorID := middleware.GetUserIDFromContext(c)
	err := h.service.Deactivate(c.Request.Context(), actorID, c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, models.SuccessMessage("Account deactivated."))
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, models.ErrorMessage("You cannot deactivate your own account."))
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorMessage("User not found."))
	default:
		h.logger.Error("Failed to deactivate user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorMessage("Could not deactivate the account."))
	}
}

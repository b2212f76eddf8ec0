package preferences

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

func identity(c *gin.Context) (string, string) {
	return middleware.GetUserIDFromContext(c), middleware.GetDeviceIDFromContext(c)
}

// GetPreferences returns the caller's three preference sets. Anonymous
// callers are keyed by their device header; callers with neither identity
// get the empty document.
func (h *Handlers) GetPreferences(c *gin.Context) {
	userID, deviceID := identity(c)
	set, err := h.service.GetFor(c.Request.Context(), userID, deviceID)
	if err != nil {
		h.logger.Error("Failed to load preferences", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorMessage("Preferences are unavailable right now."))
		return
	}
	c.JSON(http.StatusOK, set)
}

type toggleRequest struct {
	PlaceID string `json:"placeId" binding:"required"`
	Action  string `json:"action" binding:"required"`
}

// Toggle flips a place in or out of one preference set. The response always
// carries the reconciled document; persisted=false tells the client the
// backend write failed and the state shown is what the backend still holds.
func (h *Handlers) Toggle(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorMessage("A toggle needs a placeId and an action."))
		return
	}
	kind, err := models.ParseActionKind(req.Action)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorMessage("Action must be one of like, hide, pin."))
		return
	}

	userID, deviceID := identity(c)
	result, err := h.service.Toggle(c.Request.Context(), userID, deviceID, kind, req.PlaceID)
	if err != nil {
		if errors.Is(err, models.ErrUnauthenticated) {
			c.JSON(http.StatusBadRequest, models.ErrorMessage("Send a device id header or sign in first."))
			return
		}
		h.logger.Error("Toggle failed", zap.String("place_id", req.PlaceID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorMessage("Could not update your preferences."))
		return
	}
	c.JSON(http.StatusOK, result)
}

// Stats returns the per-set counts for the profile page.
func (h *Handlers) Stats(c *gin.Context) {
	userID, deviceID := identity(c)
	stats, err := h.service.StatsFor(c.Request.Context(), userID, deviceID)
	if err != nil {
		h.logger.Error("Failed to load preference stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorMessage("Stats are unavailable right now."))
		return
	}
	c.JSON(http.StatusOK, stats)
}

package places

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/littletrip/littletrip-api/internal/app/middleware"
	"github.com/littletrip/littletrip-api/internal/app/models"
)

// PreferenceSource resolves the preference sets the list endpoint filters
// against. Implemented by the preferences coordinator.
type PreferenceSource interface {
	GetFor(ctx context.Context, userID, deviceID string) (models.PreferenceSet, error)
}

type Handlers struct {
	service Service
	prefs   PreferenceSource
	logger  *zap.Logger
}

func NewHandlers(service Service, prefs PreferenceSource, logger *zap.Logger) *Handlers {
	return &Handlers{service: service, prefs: prefs, logger: logger}
}

// ListPlaces serves the catalog with the filter and sort parameters applied
// server-side. Filtering is pure and never fails; an unknown sort key leaves
// the catalog in its stored order.
func (h *Handlers) ListPlaces(c *gin.Context) {
	filters := parseFilterState(c)
	sortBy := models.SortOption(c.Query("sort"))

	var (
		all     []models.Place
		prefSet *models.PreferenceSet
	)
	g, gctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		all = h.service.GetPlaces(gctx)
		return nil
	})
	if filters.LikedOnly || filters.PinnedOnly || filters.HideHidden {
		// With no identity at all, liked/pinned filters match nothing and
		// hideHidden hides nothing.
		userID := middleware.GetUserIDFromContext(c)
		deviceID := middleware.GetDeviceIDFromContext(c)
		g.Go(func() error {
			set := models.EmptyPreferenceSet(userID)
			got, err := h.prefs.GetFor(gctx, userID, deviceID)
			if err != nil {
				h.logger.Warn("Preference lookup failed, filtering without them", zap.Error(err))
			} else {
				set = got
			}
			prefSet = &set
			return nil
		})
	}
	_ = g.Wait()

	visible := FilterAndSort(all, prefSet, filters, sortBy)
	c.JSON(http.StatusOK, gin.H{
		"places": visible,
		"total":  len(all),
		"shown":  len(visible),
	})
}

// GetPlace serves a single place by id.
func (h *Handlers) GetPlace(c *gin.Context) {
	id := c.Param("id")
	pl, err := h.service.GetPlaceByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorMessage("We couldn't find that place."))
		return
	}
	c.JSON(http.StatusOK, pl)
}

// SearchPlaces is the admin catalog search with free text and paging.
func (h *Handlers) SearchPlaces(c *gin.Context) {
	filter := SearchFilter{
		SearchText: c.Query("q"),
		Features:   splitParam(c.Query("features")),
		Limit:      intParam(c, "limit", 50),
		Offset:     intParam(c, "offset", 0),
	}
	for _, tier := range splitParam(c.Query("pricing")) {
		filter.Pricing = append(filter.Pricing, models.Pricing(tier))
	}

	results, total, err := h.service.SearchPlaces(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Admin search failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorMessage("Search is unavailable right now."))
		return
	}
	c.JSON(http.StatusOK, gin.H{"places": results, "total": total})
}

// CreatePlace adds a place to the catalog (admin only).
func (h *Handlers) CreatePlace(c *gin.Context) {
	var pl models.Place
	if err := c.ShouldBindJSON(&pl); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorMessage("That place data doesn't look right."))
		return
	}
	if err := pl.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorMessage(err.Error()))
		return
	}

	id, ok := h.service.AddPlace(c.Request.Context(), &pl)
	if !ok {
		c.JSON(http.StatusInternalServerError, models.ErrorMessage("Could not save the place."))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// UpdatePlace overwrites a place document (admin only).
func (h *Handlers) UpdatePlace(c *gin.Context) {
	id := c.Param("id")

	var pl models.Place
	if err := c.ShouldBindJSON(&pl); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorMessage("That place data doesn't look right."))
		return
	}
	if err := pl.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorMessage(err.Error()))
		return
	}

	if ok := h.service.UpdatePlace(c.Request.Context(), id, &pl); !ok {
		c.JSON(http.StatusInternalServerError, models.ErrorMessage("Could not update the place."))
		return
	}
	c.JSON(http.StatusOK, models.SuccessMessage("Place updated."))
}

// DeletePlace removes a place (admin only).
func (h *Handlers) DeletePlace(c *gin.Context) {
	id := c.Param("id")
	if ok := h.service.DeletePlace(c.Request.Context(), id); !ok {
		c.JSON(http.StatusInternalServerError, models.ErrorMessage("Could not delete the place."))
		return
	}
	c.JSON(http.StatusOK, models.SuccessMessage("Place deleted."))
}

type importRequest struct {
	Places []models.Place `json:"places" binding:"required"`
}

// ImportPlaces bulk-loads places from a JSON body (admin only). Each record
// validates independently; the response reports per-record failures.
func (h *Handlers) ImportPlaces(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorMessage("Import payload must be a JSON object with a places array."))
		return
	}

	report := h.service.ImportPlaces(c.Request.Context(), req.Places)
	status := http.StatusOK
	if report.Imported == 0 && report.Failed > 0 {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, report)
}

func parseFilterState(c *gin.Context) models.FilterState {
	f := models.FilterState{
		Features:    splitParam(c.Query("features")),
		VisitedOnly: boolParam(c, "visitedOnly"),
		YunsolPick:  boolParam(c, "yunsolPick"),
		LikedOnly:   boolParam(c, "likedOnly"),
		PinnedOnly:  boolParam(c, "pinnedOnly"),
		HideHidden:  boolParam(c, "hideHidden"),
	}
	for _, tier := range splitParam(c.Query("pricing")) {
		f.Pricing = append(f.Pricing, models.Pricing(tier))
	}
	if lo, hi, ok := rangeParams(c, "ageMin", "ageMax", models.MinAgeMonths, models.MaxAgeMonths); ok {
		f.AgeRange = &[2]int{lo, hi}
	}
	if lo, hi, ok := rangeParams(c, "ratingMin", "ratingMax", 0, 3); ok {
		f.RatingRange = &[2]int{lo, hi}
	}
	return f
}

// rangeParams reads a [min,max] pair, substituting the bound defaults when
// only one side is present. Returns ok=false when neither side is set.
func rangeParams(c *gin.Context, minKey, maxKey string, defLo, defHi int) (int, int, bool) {
	minRaw, maxRaw := c.Query(minKey), c.Query(maxKey)
	if minRaw == "" && maxRaw == "" {
		return 0, 0, false
	}
	lo, hi := defLo, defHi
	if v, err := strconv.Atoi(minRaw); err == nil {
		lo = v
	}
	if v, err := strconv.Atoi(maxRaw); err == nil {
		hi = v
	}
	return lo, hi, true
}

func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func boolParam(c *gin.Context, key string) bool {
	v, _ := strconv.ParseBool(c.Query(key))
	return v
}

func intParam(c *gin.Context, key string, def int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil {
		return v
	}
	return def
}

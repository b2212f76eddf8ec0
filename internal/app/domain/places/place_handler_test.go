package places

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/littletrip/littletrip-api/internal/app/middleware"
	"github.com/littletrip/littletrip-api/internal/app/models"
)

type fakeCatalogService struct {
	Service
	places []models.Place
}

func (f *fakeCatalogService) GetPlaces(context.Context) []models.Place { return f.places }

func (f *fakeCatalogService) GetPlaceByID(_ context.Context, id string) (*models.Place, error) {
	for i := range f.places {
		if models.SamePlaceID(f.places[i].ID, id) {
			return &f.places[i], nil
		}
	}
	return nil, models.ErrNotFound
}

type fakePrefSource struct {
	set models.PreferenceSet
}

func (f *fakePrefSource) GetFor(context.Context, string, string) (models.PreferenceSet, error) {
	return f.set, nil
}

func newTestRouter(svc Service, prefs PreferenceSource) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandlers(svc, prefs, zap.NewNop())
	r := gin.New()
	r.GET("/places", h.ListPlaces)
	r.GET("/places/:id", h.GetPlace)
	return r
}

type listResponse struct {
	Places []models.Place `json:"places"`
	Total  int            `json:"total"`
	Shown  int            `json:"shown"`
}

func doList(t *testing.T, r *gin.Engine, query string) listResponse {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/places"+query, nil)
	req.Header.Set(middleware.DeviceIDHeader, "test-device")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestListPlacesEndpoint(t *testing.T) {
	svc := &fakeCatalogService{places: testCatalog()}
	prefs := &fakePrefSource{set: models.PreferenceSet{Hidden: []string{"2"}}}
	r := newTestRouter(svc, prefs)

	t.Run("no filters returns everything", func(t *testing.T) {
		resp := doList(t, r, "")
		assert.Equal(t, 4, resp.Total)
		assert.Equal(t, 4, resp.Shown)
	})

	t.Run("feature and pricing params", func(t *testing.T) {
		resp := doList(t, r, "?features=Indoor,Water&pricing=$$$")
		require.Len(t, resp.Places, 1)
		assert.Equal(t, "1", resp.Places[0].ID)
	})

	t.Run("age range params", func(t *testing.T) {
		resp := doList(t, r, "?ageMin=0&ageMax=4")
		assert.Equal(t, []string{"2", "4"}, ids(resp.Places))
	})

	t.Run("hideHidden consults the preference source", func(t *testing.T) {
		resp := doList(t, r, "?hideHidden=true")
		assert.Equal(t, []string{"1", "3", "4"}, ids(resp.Places))
		assert.Equal(t, 4, resp.Total, "total still counts the whole catalog")
	})

	t.Run("sort param", func(t *testing.T) {
		resp := doList(t, r, "?sort=rating-desc")
		assert.Equal(t, "3", resp.Places[0].ID)
	})
}

func TestGetPlaceEndpoint(t *testing.T) {
	svc := &fakeCatalogService{places: testCatalog()}
	r := newTestRouter(svc, &fakePrefSource{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/places/3", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "Children's Museum"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/places/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

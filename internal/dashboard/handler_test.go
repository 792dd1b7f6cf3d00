package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malikovshahriyor929/sahifa-x/internal/backend"
	"github.com/malikovshahriyor929/sahifa-x/internal/session"
)

const catalogPayload = `{
	"data": [
		{"id": "b1", "title": "Birinchi", "author": "Aziz", "rating": 4.9, "category": "Drama", "timestamp": "2024-01-01", "readCount": "1 200"},
		{"id": "b2", "title": "Ikkinchi", "author": "Aziz", "rating": 3.1, "category": "Drama", "timestamp": "2024-03-01", "readCount": "300"},
		{"id": "b3", "title": "Uchinchi", "author": "Lola", "rating": 4.2, "category": "Triller", "timestamp": "2024-02-01"}
	]
}`

func dashboardEnv(t *testing.T, upstream http.Handler) *gin.Engine {
	t.Helper()
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	client := backend.New(backend.Options{
		Host:        srv.URL,
		APILocale:   "en",
		AuthPrefix:  "/auth",
		BooksPrefix: "/book",
	}, nil)

	h := NewHandler(client, nil)

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		c.Set(session.CtxAccessTokenKey, "acc")
		c.Set(session.CtxClaimsKey, &session.Claims{UserID: "u1", Name: "Aziz"})
	})
	h.RegisterRoutes(engine.Group("/uz"))
	return engine
}

func getView(t *testing.T, engine *gin.Engine) (View, int) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/uz/dashboard", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	var view View
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	}
	return view, rec.Code
}

func TestDashboardDerivesSections(t *testing.T) {
	engine := dashboardEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/book/get-books"):
			_, _ = w.Write([]byte(catalogPayload))
		case strings.HasSuffix(r.URL.Path, "/lookup"):
			assert.Equal(t, "Bearer acc", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"data": {"category": [{"label": "Drama", "value": "drama"}]}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	view, code := getView(t, engine)
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, "Xush kelibsiz, Aziz!", view.Greeting)

	require.Len(t, view.Trending, 3)
	assert.Equal(t, "b1", view.Trending[0].ID, "highest rating first")

	require.Len(t, view.NewArrivals, 3)
	assert.Equal(t, "b2", view.NewArrivals[0].ID, "newest timestamp first")

	require.NotEmpty(t, view.TopAuthors)
	assert.Equal(t, "Aziz", view.TopAuthors[0].Name)
	assert.Equal(t, 2, view.TopAuthors[0].BooksCount)

	assert.Equal(t, []string{"Drama", "Triller"}, view.TopGenres)
	require.Len(t, view.Categories, 1)
	assert.Equal(t, "drama", view.Categories[0].Value)
}

func TestDashboardSurvivesLookupFailure(t *testing.T) {
	engine := dashboardEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/book/get-books") {
			_, _ = w.Write([]byte(catalogPayload))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))

	view, code := getView(t, engine)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, view.Categories)
	assert.NotEmpty(t, view.Trending)
}

func TestDashboardCatalogFailureIsBadGateway(t *testing.T) {
	engine := dashboardEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, code := getView(t, engine)
	assert.Equal(t, http.StatusBadGateway, code)
}

func TestDashboardEmptyCatalogFallsBackToPlaceholders(t *testing.T) {
	engine := dashboardEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/book/get-books") {
			_, _ = w.Write([]byte(`{"data": []}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	view, code := getView(t, engine)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, view.TopGenres, 7)
	require.Len(t, view.Trending, 4)
	assert.Equal(t, "Soyalar O'yini: Qasos va Sevgi", view.Trending[0].Title)
	require.Len(t, view.NewArrivals, 4)
	require.Len(t, view.TopAuthors, 3)
	assert.Equal(t, "Mystic_Author", view.TopAuthors[0].Name)
}

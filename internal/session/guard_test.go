package session

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malikovshahriyor929/sahifa-x/internal/backend"
	"github.com/malikovshahriyor929/sahifa-x/pkg/locales"
)

// fakeBackend scripts the refresh and probe endpoints and counts hits.
type fakeBackend struct {
	refreshCalls int
	probeCalls   int

	refreshPair map[string]string // nil means refresh fails
	liveTokens  map[string]bool   // tokens the probe accepts
}

func (f *fakeBackend) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/auth/refresh-token"):
			f.refreshCalls++
			if f.refreshPair == nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(f.refreshPair)
		case strings.HasSuffix(r.URL.Path, "/book/my-books"):
			f.probeCalls++
			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if f.liveTokens[token] {
				_, _ = w.Write([]byte(`{"data":[]}`))
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
		default:
			t.Errorf("unexpected backend path %s", r.URL.Path)
		}
	})
}

func guardEnv(t *testing.T, fake *fakeBackend) (*gin.Engine, TokenService) {
	t.Helper()
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	client := backend.New(backend.Options{
		Host:        srv.URL,
		APILocale:   "en",
		AuthPrefix:  "/auth",
		BooksPrefix: "/book",
	}, nil)

	ts := testTokenService()
	guard := NewGuard(ts, client, false, nil)

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(guard.Middleware())
	ok := func(c *gin.Context) { c.String(http.StatusOK, "page") }
	for _, l := range locales.Supported {
		grp := engine.Group("/" + l)
		grp.GET("/", ok)
		grp.GET("/dashboard", ok)
		grp.GET("/login", ok)
		grp.GET("/register", ok)
		grp.POST("/auth/login", ok)
		grp.POST("/auth/logout", ok)
	}
	engine.GET("/static/app.css", ok)
	return engine, ts
}

func performGet(engine *gin.Engine, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func sessionCookieFor(t *testing.T, ts TokenService, claims *Claims) *http.Cookie {
	t.Helper()
	signed, err := ts.Sign(claims)
	require.NoError(t, err)
	return &http.Cookie{Name: SessionCookie, Value: signed}
}

func clearedCookieNames(rec *httptest.ResponseRecorder) []string {
	var names []string
	for _, raw := range rec.Header().Values("Set-Cookie") {
		cookie := strings.SplitN(raw, "=", 2)
		if strings.Contains(raw, "Max-Age=0") || strings.Contains(raw, "Max-Age=-1") {
			names = append(names, cookie[0])
		}
	}
	return names
}

func TestGuardRootRedirectsToDefaultLocale(t *testing.T) {
	engine, _ := guardEnv(t, &fakeBackend{})

	rec := performGet(engine, "/")
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/uz", rec.Header().Get("Location"))
}

func TestGuardLegacyPathsRedirect(t *testing.T) {
	engine, _ := guardEnv(t, &fakeBackend{})

	rec := performGet(engine, "/login?next=1")
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/uz/login?next=1", rec.Header().Get("Location"))

	rec = performGet(engine, "/register")
	assert.Equal(t, "/uz/register", rec.Header().Get("Location"))
}

func TestGuardNonLocalePathsPassThrough(t *testing.T) {
	fake := &fakeBackend{}
	engine, _ := guardEnv(t, fake)

	rec := performGet(engine, "/static/app.css")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, fake.refreshCalls)
	assert.Zero(t, fake.probeCalls)
}

func TestGuardProtectedPageWithoutSessionRedirects(t *testing.T) {
	fake := &fakeBackend{}
	engine, _ := guardEnv(t, fake)

	rec := performGet(engine, "/uz/dashboard?tab=2")
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t,
		"/uz/login?callbackUrl="+url.QueryEscape("/uz/dashboard?tab=2"),
		rec.Header().Get("Location"))
	assert.ElementsMatch(t,
		[]string{RefreshTokenCookie, SessionCookie, secureSessionName},
		clearedCookieNames(rec))
	assert.Zero(t, fake.refreshCalls, "nothing to refresh with")
}

func TestGuardValidTokenSkipsRefresh(t *testing.T) {
	access := accessTokenWithExp(t, time.Now().Add(time.Hour))
	fake := &fakeBackend{liveTokens: map[string]bool{access: true}}
	engine, ts := guardEnv(t, fake)

	cookie := sessionCookieFor(t, ts, &Claims{UserID: "u1", AccessToken: access})
	rec := performGet(engine, "/uz/dashboard", cookie)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, fake.refreshCalls, "valid tokens never hit the refresh endpoint")
	assert.Equal(t, 1, fake.probeCalls)
}

func TestGuardExpiredTokenRefreshesOnceAndContinues(t *testing.T) {
	expired := accessTokenWithExp(t, time.Now().Add(-time.Minute))
	fresh := accessTokenWithExp(t, time.Now().Add(time.Hour))
	fake := &fakeBackend{
		refreshPair: map[string]string{"accessToken": fresh, "refreshToken": "rotated-rt"},
		liveTokens:  map[string]bool{fresh: true},
	}
	engine, ts := guardEnv(t, fake)

	cookie := sessionCookieFor(t, ts, &Claims{UserID: "u1", AccessToken: expired, RefreshToken: "old-rt"})
	rec := performGet(engine, "/uz/dashboard", cookie)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, fake.refreshCalls)

	var rotated bool
	for _, raw := range rec.Header().Values("Set-Cookie") {
		if strings.HasPrefix(raw, RefreshTokenCookie+"=rotated-rt") {
			rotated = true
		}
	}
	assert.True(t, rotated, "rotated refresh token must be set on the response")
}

func TestGuardExpiredTokenWithoutRefreshRedirects(t *testing.T) {
	expired := accessTokenWithExp(t, time.Now().Add(-time.Minute))
	fake := &fakeBackend{}
	engine, ts := guardEnv(t, fake)

	cookie := sessionCookieFor(t, ts, &Claims{UserID: "u1", AccessToken: expired})
	rec := performGet(engine, "/uz/dashboard", cookie)

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "/uz/login?callbackUrl=")
	assert.ElementsMatch(t,
		[]string{RefreshTokenCookie, SessionCookie, secureSessionName},
		clearedCookieNames(rec))
	assert.Zero(t, fake.refreshCalls)
}

func TestGuardProbeUnauthorizedTriggersRefreshRetry(t *testing.T) {
	stale := accessTokenWithExp(t, time.Now().Add(time.Hour))
	fresh := accessTokenWithExp(t, time.Now().Add(2*time.Hour))
	fake := &fakeBackend{
		refreshPair: map[string]string{"accessToken": fresh},
		liveTokens:  map[string]bool{fresh: true}, // stale looks fine but the backend revoked it
	}
	engine, ts := guardEnv(t, fake)

	cookie := sessionCookieFor(t, ts, &Claims{UserID: "u1", AccessToken: stale, RefreshToken: "rt"})
	rec := performGet(engine, "/uz/dashboard", cookie)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, fake.refreshCalls)
	assert.Equal(t, 2, fake.probeCalls, "probe, refresh, probe again")
}

func TestGuardDeadSessionRedirectsAfterRetry(t *testing.T) {
	stale := accessTokenWithExp(t, time.Now().Add(time.Hour))
	fake := &fakeBackend{} // refresh fails, probe rejects everything
	engine, ts := guardEnv(t, fake)

	cookie := sessionCookieFor(t, ts, &Claims{UserID: "u1", AccessToken: stale, RefreshToken: "rt"})
	rec := performGet(engine, "/uz/dashboard", cookie)

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "/uz/login?callbackUrl=")
	assert.Equal(t, 2, fake.refreshCalls, "one failed pass over both candidate endpoints")
}

func TestGuardErrorMarkerInvalidatesSession(t *testing.T) {
	access := accessTokenWithExp(t, time.Now().Add(time.Hour))
	fake := &fakeBackend{}
	engine, ts := guardEnv(t, fake)

	cookie := sessionCookieFor(t, ts, &Claims{
		UserID:      "u1",
		AccessToken: access,
		Error:       RefreshErrorMarker,
	})
	rec := performGet(engine, "/uz/dashboard", cookie)

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
}

func TestGuardAuthPageWithLiveSessionRedirectsHome(t *testing.T) {
	access := accessTokenWithExp(t, time.Now().Add(time.Hour))
	fake := &fakeBackend{liveTokens: map[string]bool{access: true}}
	engine, ts := guardEnv(t, fake)

	cookie := sessionCookieFor(t, ts, &Claims{UserID: "u1", AccessToken: access})
	rec := performGet(engine, "/uz/login", cookie)

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/uz/", rec.Header().Get("Location"))
	assert.Zero(t, fake.probeCalls, "auth pages skip the live probe")
}

func TestGuardAuthPageWithoutSessionServes(t *testing.T) {
	fake := &fakeBackend{}
	engine, _ := guardEnv(t, fake)

	rec := performGet(engine, "/uz/login")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, fake.refreshCalls)
}

func TestGuardAuthPageRefreshesCookieOnlySession(t *testing.T) {
	fresh := accessTokenWithExp(t, time.Now().Add(time.Hour))
	fake := &fakeBackend{refreshPair: map[string]string{"accessToken": fresh}}
	engine, _ := guardEnv(t, fake)

	rec := performGet(engine, "/uz/login", &http.Cookie{Name: RefreshTokenCookie, Value: "rt"})

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/uz/", rec.Header().Get("Location"))
	assert.Equal(t, 1, fake.refreshCalls)
}

func TestGuardAuthAPIIsNeverGated(t *testing.T) {
	fake := &fakeBackend{}
	engine, _ := guardEnv(t, fake)

	// no cookies at all: the login endpoint must still be reachable
	req := httptest.NewRequest(http.MethodPost, "/uz/auth/login", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, fake.refreshCalls)
	assert.Zero(t, fake.probeCalls)

	req = httptest.NewRequest(http.MethodPost, "/uz/auth/logout", nil)
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuardRefreshWithoutRotationResignsSession(t *testing.T) {
	expired := accessTokenWithExp(t, time.Now().Add(-time.Minute))
	fresh := accessTokenWithExp(t, time.Now().Add(time.Hour))
	// refresh answers with a new access token only
	fake := &fakeBackend{
		refreshPair: map[string]string{"accessToken": fresh},
		liveTokens:  map[string]bool{fresh: true},
	}
	engine, ts := guardEnv(t, fake)

	cookie := sessionCookieFor(t, ts, &Claims{UserID: "u1", AccessToken: expired, RefreshToken: "rt"})
	rec := performGet(engine, "/uz/dashboard", cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var sessionValue string
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == SessionCookie {
			sessionValue = ck.Value
		}
	}
	require.NotEmpty(t, sessionValue, "refresh must persist the new access token")

	claims, err := ts.Parse(sessionValue)
	require.NoError(t, err)
	assert.Equal(t, fresh, claims.AccessToken)
	assert.Equal(t, "rt", claims.RefreshToken)
}

func TestGuardUnsupportedLocaleIsNotGuarded(t *testing.T) {
	fake := &fakeBackend{}
	engine, _ := guardEnv(t, fake)

	rec := performGet(engine, "/de/dashboard")
	assert.Equal(t, http.StatusNotFound, rec.Code, "not a locale: falls through to routing")
	assert.Zero(t, fake.refreshCalls)
	assert.Zero(t, fake.probeCalls)
}

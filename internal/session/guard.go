package session

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/malikovshahriyor929/sahifa-x/internal/backend"
	"github.com/malikovshahriyor929/sahifa-x/pkg/locales"
)

const (
	CtxClaimsKey      = "session_claims"
	CtxAccessTokenKey = "session_access_token"
)

// legacyPaths are unprefixed paths kept alive for old links; they redirect
// to the default-locale equivalent.
var legacyPaths = map[string]bool{
	"/login":    true,
	"/register": true,
}

// Guard gates locale-scoped pages. Per request it passes through (non-locale
// path), redirects (root, legacy, invalid session), or continues with a
// validated and possibly refreshed session.
type Guard struct {
	Tokens  TokenService
	Backend *backend.Client
	Secure  bool
	Log     *log.Logger
}

func NewGuard(tokens TokenService, client *backend.Client, secure bool, logger *log.Logger) *Guard {
	if logger == nil {
		logger = log.Default()
	}
	return &Guard{Tokens: tokens, Backend: client, Secure: secure, Log: logger.WithPrefix("guard")}
}

func (g *Guard) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		rawQuery := c.Request.URL.RawQuery

		if path == "/" {
			c.Redirect(http.StatusTemporaryRedirect, "/"+locales.Default)
			c.Abort()
			return
		}
		if legacyPaths[path] {
			target := "/" + locales.Default + path
			if rawQuery != "" {
				target += "?" + rawQuery
			}
			c.Redirect(http.StatusTemporaryRedirect, target)
			c.Abort()
			return
		}

		locale, ok := locales.FromPath(path)
		if !ok {
			// not a locale-scoped page: assets, APIs, health
			c.Next()
			return
		}

		if strings.HasPrefix(path, "/"+locale+"/auth/") {
			// the auth API manages the session itself
			c.Next()
			return
		}

		var claims *Claims
		if raw, err := c.Cookie(SessionCookie); err == nil && raw != "" {
			// an unparsable session cookie counts as no session
			claims, _ = g.Tokens.Parse(raw)
		}

		refreshToken, _ := c.Cookie(RefreshTokenCookie)
		if refreshToken == "" && claims != nil {
			refreshToken = claims.RefreshToken
		}
		var accessToken string
		if claims != nil {
			accessToken = claims.AccessToken
		}

		now := time.Now()
		isAuthPage := path == "/"+locale+"/login" || path == "/"+locale+"/register"

		hasError := claims.HasAuthError()
		expired := claims.Expired(now) || AccessTokenExpired(accessToken, now)
		loggedIn := accessToken != "" && !hasError && !expired
		shouldClearCookies := hasError || expired

		var rotatedRefresh string
		var refreshed bool
		tryRefresh := func() bool {
			if refreshToken == "" {
				return false
			}
			pair, err := g.Backend.Refresh(c.Request.Context(), refreshToken)
			if err != nil || pair.AccessToken == "" {
				g.Log.Debug("silent refresh failed", "path", path, "err", err)
				return false
			}
			accessToken = pair.AccessToken
			refreshed = true
			if pair.RefreshToken != "" {
				refreshToken = pair.RefreshToken
				rotatedRefresh = pair.RefreshToken
			}
			if claims != nil {
				claims.AccessToken = pair.AccessToken
				claims.RefreshToken = refreshToken
				claims.Error = ""
			}
			return true
		}

		// session cookie updates only happen on the way out; any refresh
		// re-signs the session so the next request skips the refresh cycle
		finish := func() {
			if rotatedRefresh != "" {
				setRefreshCookie(c, rotatedRefresh, g.Secure)
			}
			if refreshed && claims != nil {
				if signed, err := g.Tokens.Sign(claims); err == nil {
					setSessionCookie(c, signed, int(g.Tokens.Duration.Seconds()), g.Secure)
				}
			}
		}

		if !isAuthPage {
			if !loggedIn {
				loggedIn = tryRefresh()
				if !loggedIn {
					shouldClearCookies = true
				}
			}

			if loggedIn && accessToken != "" {
				unauthorized := g.Backend.Unauthorized(c.Request.Context(), accessToken)
				if unauthorized && tryRefresh() {
					unauthorized = g.Backend.Unauthorized(c.Request.Context(), accessToken)
				}
				if unauthorized {
					loggedIn = false
					shouldClearCookies = true
				}
			}

			if !loggedIn {
				g.redirectToLogin(c, locale, path, rawQuery)
				return
			}

			finish()
			c.Set(CtxAccessTokenKey, accessToken)
			if claims != nil {
				c.Set(CtxClaimsKey, claims)
			}
			c.Next()
			return
		}

		// login/register: a live session has no business here
		if !loggedIn && refreshToken != "" {
			loggedIn = tryRefresh()
			if !loggedIn {
				shouldClearCookies = true
			}
		}

		if loggedIn {
			finish()
			c.Redirect(http.StatusTemporaryRedirect, "/"+locale+"/")
			c.Abort()
			return
		}

		if shouldClearCookies {
			clearSessionCookies(c)
		}
		c.Next()
	}
}

func (g *Guard) redirectToLogin(c *gin.Context, locale, path, rawQuery string) {
	callback := path
	if rawQuery != "" {
		callback += "?" + rawQuery
	}
	target := "/" + locale + "/login?callbackUrl=" + url.QueryEscape(callback)

	clearSessionCookies(c)
	c.Redirect(http.StatusTemporaryRedirect, target)
	c.Abort()
}

// MustGetClaims returns the validated session claims set by the guard, or
// nil when the route is outside the guarded tree.
func MustGetClaims(c *gin.Context) *Claims {
	v, ok := c.Get(CtxClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}

// AccessToken returns the validated (possibly refreshed) backend access
// token for the current request.
func AccessToken(c *gin.Context) string {
	v, ok := c.Get(CtxAccessTokenKey)
	if !ok {
		return ""
	}
	token, _ := v.(string)
	return token
}

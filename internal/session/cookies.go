package session

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// RefreshTokenCookie is readable by the client so the browser tier can
	// refresh proactively; everything else stays HTTP-only.
	RefreshTokenCookie = "refreshToken"
	SessionCookie      = "session-token"
	secureSessionName  = "__Secure-session-token"
)

// sessionCookieNames is everything cleared together on logout or when a
// session is declared dead.
var sessionCookieNames = []string{
	RefreshTokenCookie,
	SessionCookie,
	secureSessionName,
}

func setSessionCookie(c *gin.Context, value string, maxAge int, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, value, maxAge, "/", "", secure, true)
}

func setRefreshCookie(c *gin.Context, value string, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(RefreshTokenCookie, value, 0, "/", "", secure, false)
}

func clearSessionCookies(c *gin.Context) {
	for _, name := range sessionCookieNames {
		c.SetCookie(name, "", -1, "/", "", false, false)
	}
}

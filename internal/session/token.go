// Package session owns the gateway's cookies and the per-request guard that
// decides whether a browser session is still valid against the backend.
package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RefreshErrorMarker is stored in the session claims when a background
// refresh failed; any session carrying it is treated as dead.
const RefreshErrorMarker = "RefreshAccessTokenError"

// Claims is the gateway's own session token payload. It wraps the backend
// credentials so one cookie round-trips the whole session.
type Claims struct {
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	// Error carries a refresh-failure marker or backend error string.
	Error string `json:"error,omitempty"`
	jwt.RegisteredClaims
}

type TokenService struct {
	Secret   []byte
	Issuer   string
	Duration time.Duration
}

func (ts TokenService) Sign(claims *Claims) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    ts.Issuer,
		Subject:   claims.UserID,
		ExpiresAt: jwt.NewNumericDate(now.Add(ts.Duration)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(ts.Secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return s, nil
}

func (ts TokenService) Parse(tokenString string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		// enforce HS256
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ts.Secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse session token: %w", err)
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, fmt.Errorf("invalid session claims")
	}
	return claims, nil
}

// HasAuthError reports whether the claims carry a refresh-failure marker or
// a backend error that means the session is unauthorized.
func (c *Claims) HasAuthError() bool {
	if c == nil {
		return false
	}
	err := strings.TrimSpace(c.Error)
	if err == "" {
		return false
	}
	lower := strings.ToLower(err)
	return err == RefreshErrorMarker ||
		strings.Contains(lower, "401") ||
		strings.Contains(lower, "unauthorized")
}

// Expired checks the session's own expiry claim. Absent expiry counts as
// not expired; the access-token decode and the backend probe still apply.
func (c *Claims) Expired(now time.Time) bool {
	if c == nil || c.ExpiresAt == nil {
		return false
	}
	return !now.Before(c.ExpiresAt.Time)
}

// AccessTokenExpired reads the exp claim of a raw backend access token
// without verifying its signature. This is an untrusted read used only to
// decide whether a refresh is worth attempting; authorization is always
// re-confirmed against the backend. Malformed tokens classify as not
// expired for the same reason.
func AccessTokenExpired(accessToken string, now time.Time) bool {
	if accessToken == "" {
		return false
	}

	var claims jwt.MapClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(accessToken, &claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}

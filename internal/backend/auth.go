package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/malikovshahriyor929/sahifa-x/internal/normalize"
)

var (
	ErrLoginFailed   = fmt.Errorf("login failed on every candidate endpoint")
	ErrRefreshFailed = fmt.Errorf("refresh failed on every candidate endpoint")
)

// loginAttempt is one endpoint × payload-shape candidate. Backends in the
// wild disagree on both, so login walks an explicit ordered list and stops
// at the first success.
type loginAttempt struct {
	endpoint string
	body     map[string]string
}

// LoginEndpoints lists candidate login URLs in preference order: the
// backend-locale-scoped path first, then unscoped, then the /api variant.
func (c *Client) LoginEndpoints() []string {
	if c.host == "" {
		return nil
	}

	var endpoints []string
	seen := map[string]bool{}
	add := func(e string) {
		if !seen[e] {
			seen[e] = true
			endpoints = append(endpoints, e)
		}
	}

	if c.apiLocale != "" {
		add(c.host + "/" + c.apiLocale + c.authPrefix + "/login")
	}
	add(c.host + c.authPrefix + "/login")
	add(c.host + "/api" + c.authPrefix + "/login")
	return endpoints
}

// loginPayloads lists the identifier field-name variants backends accept.
func loginPayloads(identity, password string) []map[string]string {
	return []map[string]string{
		{"email": identity, "password": password},
		{"login": identity, "password": password},
		{"identifier": identity, "password": password},
		{"username": identity, "password": password},
		{"emailOrPhone": identity, "password": password},
		{"email": identity, "login": identity, "identifier": identity, "password": password},
	}
}

// retryableLoginStatus reports whether a status means "wrong shape for this
// backend, try the next candidate" rather than a hard failure.
func retryableLoginStatus(status int) bool {
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized,
		http.StatusNotFound, http.StatusUnprocessableEntity:
		return true
	}
	return false
}

// Login authenticates against the backend, walking the candidate
// endpoint/payload grid first-success-wins. Transport failures advance to
// the next candidate; unexpected HTTP statuses abort.
func (c *Client) Login(ctx context.Context, identity, password string) (*normalize.LoginResult, error) {
	endpoints := c.LoginEndpoints()
	if len(endpoints) == 0 {
		return nil, ErrNotConfigured
	}

	for _, endpoint := range endpoints {
		for _, body := range loginPayloads(identity, password) {
			attempt := loginAttempt{endpoint: endpoint, body: body}

			payload, status, err := c.do(ctx, http.MethodPost, attempt.endpoint, attempt.body, "")
			if err != nil {
				c.log.Debug("login attempt unreachable", "endpoint", attempt.endpoint, "err", err)
				continue
			}
			if !statusOK(status) {
				if retryableLoginStatus(status) {
					continue
				}
				return nil, fmt.Errorf("login rejected with status %d", status)
			}

			result := normalize.Login(payload, identity)
			if result == nil {
				continue
			}
			return result, nil
		}
	}

	return nil, ErrLoginFailed
}

// RefreshEndpoints lists candidate refresh URLs: unscoped first, then the
// backend-locale-scoped variant.
func (c *Client) RefreshEndpoints() []string {
	if c.host == "" {
		return nil
	}

	endpoints := []string{c.host + c.authPrefix + "/refresh-token"}
	if c.apiLocale != "" {
		scoped := c.host + "/" + c.apiLocale + c.authPrefix + "/refresh-token"
		if scoped != endpoints[0] {
			endpoints = append(endpoints, scoped)
		}
	}
	return endpoints
}

// Refresh exchanges a refresh token for a fresh pair. A candidate only
// counts as success when it yields a non-empty access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (normalize.TokenPair, error) {
	for _, endpoint := range c.RefreshEndpoints() {
		payload, status, err := c.do(ctx, http.MethodPost, endpoint,
			map[string]string{"refreshToken": refreshToken}, "")
		if err != nil {
			c.log.Debug("refresh attempt unreachable", "endpoint", endpoint, "err", err)
			continue
		}
		if !statusOK(status) {
			continue
		}

		pair := normalize.Tokens(payload)
		if pair.AccessToken == "" {
			continue
		}
		return pair, nil
	}
	return normalize.TokenPair{}, ErrRefreshFailed
}

// Unauthorized probes a representative authenticated endpoint and reports
// whether the backend considers the token dead. Only an explicit 401 counts:
// an unreachable endpoint cannot confirm anything and must not force logout.
func (c *Client) Unauthorized(ctx context.Context, accessToken string) bool {
	if c.host == "" {
		return false
	}
	_, status, err := c.get(ctx, c.booksPath("/my-books"), accessToken)
	if err != nil {
		return false
	}
	return status == http.StatusUnauthorized
}

// Register proxies a registration request.
func (c *Client) Register(ctx context.Context, name, email, password string) ([]byte, error) {
	payload, status, err := c.do(ctx, http.MethodPost, c.authPath("/register"),
		map[string]string{"name": name, "email": email, "password": password}, "")
	if err != nil {
		return nil, err
	}
	if !statusOK(status) {
		return payload, fmt.Errorf("register rejected with status %d", status)
	}
	return payload, nil
}

// ForgotPassword asks the backend to start a reset flow for the address.
func (c *Client) ForgotPassword(ctx context.Context, email string) ([]byte, error) {
	payload, status, err := c.do(ctx, http.MethodPost, c.authPath("/forgot-password"),
		map[string]string{"email": email}, "")
	if err != nil {
		return nil, err
	}
	if !statusOK(status) {
		return payload, fmt.Errorf("forgot-password rejected with status %d", status)
	}
	return payload, nil
}

// ResetPassword completes a reset flow using the emailed user id and token.
func (c *Client) ResetPassword(ctx context.Context, userID, token, password string) ([]byte, error) {
	endpoint := c.authPath("/reset-password/" + url.PathEscape(userID) + "/" + url.PathEscape(token))
	payload, status, err := c.do(ctx, http.MethodPost, endpoint,
		map[string]string{"password": password}, "")
	if err != nil {
		return nil, err
	}
	if !statusOK(status) {
		return payload, fmt.Errorf("reset-password rejected with status %d", status)
	}
	return payload, nil
}

package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := New(Options{
		Host:        srv.URL,
		APILocale:   "en",
		AuthPrefix:  "/auth",
		BooksPrefix: "/book",
	}, nil)
	return client, srv
}

func TestLoginWalksPayloadCandidates(t *testing.T) {
	var attempts int
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		body, _ := io.ReadAll(r.Body)
		var req map[string]string
		require.NoError(t, json.Unmarshal(body, &req))

		// only the "login" field-name variant on the unscoped endpoint works
		if r.URL.Path == "/auth/login" && req["login"] != "" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"accessToken":  "acc",
				"refreshToken": "ref",
				"user":         map[string]any{"id": "u1", "name": "Aziz", "email": "aziz@example.com"},
			})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))

	result, err := client.Login(context.Background(), "aziz@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "acc", result.AccessToken)
	assert.Equal(t, "u1", result.User.ID)
	// six shapes against /en/auth/login, then two more until "login" matches
	assert.Equal(t, 8, attempts)
}

func TestLoginAbortsOnUnexpectedStatus(t *testing.T) {
	var attempts int
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.Login(context.Background(), "a@b.c", "pw")
	require.Error(t, err)
	assert.Equal(t, 1, attempts, "a 502 is not a shape mismatch; stop immediately")
}

func TestLoginAllCandidatesRejected(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.Login(context.Background(), "a@b.c", "pw")
	assert.ErrorIs(t, err, ErrLoginFailed)
}

func TestRefreshFallsBackToScopedEndpoint(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/refresh-token":
			w.WriteHeader(http.StatusNotFound)
		case "/en/auth/refresh-token":
			_ = json.NewEncoder(w).Encode(map[string]string{
				"accessToken":  "fresh",
				"refreshToken": "rotated",
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	pair, err := client.Refresh(context.Background(), "old-refresh")
	require.NoError(t, err)
	assert.Equal(t, "fresh", pair.AccessToken)
	assert.Equal(t, "rotated", pair.RefreshToken)
}

func TestRefreshRequiresAccessToken(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"refreshToken": "only-refresh"})
	}))

	_, err := client.Refresh(context.Background(), "rt")
	assert.ErrorIs(t, err, ErrRefreshFailed)
}

func TestUnauthorizedProbe(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/en/book/my-books", r.URL.Path)
		if r.Header.Get("Authorization") == "Bearer live" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))

	assert.False(t, client.Unauthorized(context.Background(), "live"))
	assert.True(t, client.Unauthorized(context.Background(), "dead"))
}

func TestUnauthorizedProbeTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // unreachable on purpose

	client := New(Options{Host: srv.URL, AuthPrefix: "/auth", BooksPrefix: "/book"}, nil)
	assert.False(t, client.Unauthorized(context.Background(), "any"),
		"an unreachable probe cannot confirm an invalid session")
}

func TestNotConfigured(t *testing.T) {
	client := New(Options{}, nil)

	_, err := client.Login(context.Background(), "a@b.c", "pw")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = client.Refresh(context.Background(), "rt")
	assert.ErrorIs(t, err, ErrRefreshFailed)

	assert.False(t, client.Unauthorized(context.Background(), "tok"))
}

package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthServer struct {
	refreshCalls atomic.Int64
	refreshFails bool

	validAccess string
}

func newFakeServer(t *testing.T) (*fakeAuthServer, *httptest.Server) {
	t.Helper()

	f := &fakeAuthServer{validAccess: "access-1"}
	mux := http.NewServeMux()

	mux.HandleFunc(
		"/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(
				w, http.StatusOK, map[string]any{
					"success":      true,
					"accessToken":  f.validAccess,
					"refreshToken": "refresh-1",
					"expiresIn":    int64(604800000),
				},
			)
		},
	)

	mux.HandleFunc(
		"/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
			f.refreshCalls.Add(1)
			if f.refreshFails {
				writeJSON(
					w, http.StatusUnauthorized,
					map[string]any{"success": false, "message": "token revoked"},
				)
				return
			}

			f.validAccess = "access-2"
			writeJSON(
				w, http.StatusOK, map[string]any{
					"success":      true,
					"accessToken":  "access-2",
					"refreshToken": "refresh-2",
					"expiresIn":    int64(604800000),
				},
			)
		},
	)

	mux.HandleFunc(
		"/api/protected", func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+f.validAccess {
				writeJSON(
					w, http.StatusUnauthorized,
					map[string]any{"success": false, "message": "invalid token"},
				)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
		},
	)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return f, ts
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func TestClient_SilentRefreshAndRetry(t *testing.T) {
	ctx := context.Background()
	f, ts := newFakeServer(t)

	c, err := New(ts.URL)
	require.NoError(t, err)
	require.NoError(t, c.Login(ctx, "jdoe", "password123!"))
	assert.Equal(t, "access-1", c.AccessToken())

	// Expire the session server-side: the stored access token no longer
	// matches, so the first attempt 401s and the agent refreshes once.
	f.validAccess = "access-1-stale"

	resp, err := c.Do(ctx, http.MethodGet, "/api/protected", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(1), f.refreshCalls.Load())
	assert.Equal(t, "access-2", c.AccessToken())
}

func TestClient_RefreshFailureReturnsOriginal401(t *testing.T) {
	ctx := context.Background()
	f, ts := newFakeServer(t)

	c, err := New(ts.URL)
	require.NoError(t, err)
	require.NoError(t, c.Login(ctx, "jdoe", "password123!"))

	f.validAccess = "rotated-away"
	f.refreshFails = true

	resp, err := c.Do(ctx, http.MethodGet, "/api/protected", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	// Exactly one refresh attempt, then the original 401 untouched.
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int64(1), f.refreshCalls.Load())

	// Stored tokens survive a failed refresh.
	assert.Equal(t, "access-1", c.AccessToken())
}

func TestClient_RefreshEndpointNeverRetried(t *testing.T) {
	ctx := context.Background()
	f, ts := newFakeServer(t)

	c, err := New(ts.URL)
	require.NoError(t, err)
	require.NoError(t, c.Login(ctx, "jdoe", "password123!"))

	f.refreshFails = true

	resp, err := c.Do(ctx, http.MethodPost, "/api/auth/refresh", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	// One direct call, no recursive silent refresh on top of it.
	assert.Equal(t, int64(1), f.refreshCalls.Load())
}

func TestClient_NoSecondRetry(t *testing.T) {
	ctx := context.Background()

	var protectedCalls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc(
		"/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(
				w, http.StatusOK, map[string]any{
					"success":      true,
					"accessToken":  "still-wrong",
					"refreshToken": "refresh-2",
					"expiresIn":    int64(604800000),
				},
			)
		},
	)
	mux.HandleFunc(
		"/api/protected", func(w http.ResponseWriter, r *http.Request) {
			protectedCalls.Add(1)
			writeJSON(
				w, http.StatusUnauthorized,
				map[string]any{"success": false, "message": "invalid token"},
			)
		},
	)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	c, err := New(ts.URL)
	require.NoError(t, err)

	resp, err := c.Do(ctx, http.MethodGet, "/api/protected", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	// Refresh "succeeded" but the retry still 401s: the agent must give up
	// after exactly one retry.
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int64(2), protectedCalls.Load())
}

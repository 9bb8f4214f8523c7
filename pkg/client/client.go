// Package client is the session-aware API client used by quotegrid frontends
// and tooling. It mirrors the browser agent's behavior: it attaches the
// current access token to every request, silently refreshes the session once
// on a 401 and retries the original request exactly once.
package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

const (
	loginPath   = "/api/auth/login"
	refreshPath = "/api/auth/refresh"
	logoutPath  = "/api/auth/logout"
)

type session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

type Client struct {
	baseURL string
	http    *http.Client

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
	}, nil
}

// AccessToken returns the currently stored access token, if any.
func (c *Client) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

// Login authenticates and stores the returned token pair.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body, err := json.Marshal(
		map[string]string{"username": username, "password": password},
	)
	if err != nil {
		return err
	}

	resp, err := c.send(ctx, http.MethodPost, loginPath, body, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	s := &session{}
	if err = json.NewDecoder(resp.Body).Decode(s); err != nil {
		return err
	}

	c.storeSession(s)
	return nil
}

// Logout revokes the session server-side and drops the stored tokens.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	refresh := c.refreshToken
	c.accessToken = ""
	c.refreshToken = ""
	c.expiresAt = time.Time{}
	c.mu.Unlock()

	body, err := json.Marshal(map[string]string{"refreshToken": refresh})
	if err != nil {
		return err
	}

	resp, err := c.send(ctx, http.MethodPost, logoutPath, body, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return nil
}

// Do performs an authenticated request. On a 401 it attempts a single silent
// refresh and, if that succeeds, replays the request once with the new
// access token. Any other outcome returns the original response untouched.
// Requests against the refresh endpoint itself are never retried.
func (c *Client) Do(
	ctx context.Context,
	method, path string,
	body []byte,
) (*http.Response, error) {
	resp, err := c.send(ctx, method, path, body, c.AccessToken())
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || path == refreshPath {
		return resp, nil
	}

	token, ok := c.RefreshAccessToken(ctx)
	if !ok {
		return resp, nil
	}

	retried, err := c.send(ctx, method, path, body, token)
	if err != nil {
		// The refresh worked but the retry transport failed; the original
		// 401 is still the truthful answer.
		return resp, nil
	}

	resp.Body.Close()
	return retried, nil
}

// RefreshAccessToken rotates the session. The refresh-token cookie travels
// via the jar; the stored refresh token rides in the body as a fallback for
// cookie-blocked environments. On any failure the stored tokens are left
// untouched and ok is false.
func (c *Client) RefreshAccessToken(ctx context.Context) (string, bool) {
	c.mu.RLock()
	refresh := c.refreshToken
	c.mu.RUnlock()

	body, err := json.Marshal(map[string]string{"refreshToken": refresh})
	if err != nil {
		return "", false
	}

	resp, err := c.send(ctx, http.MethodPost, refreshPath, body, "")
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false
	}

	s := &session{}
	if err = json.NewDecoder(resp.Body).Decode(s); err != nil {
		return "", false
	}

	c.storeSession(s)
	return s.AccessToken, true
}

func (c *Client) storeSession(s *session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.accessToken = s.AccessToken
	c.refreshToken = s.RefreshToken
	c.expiresAt = time.Now().Add(time.Duration(s.ExpiresIn) * time.Millisecond)
}

func (c *Client) send(
	ctx context.Context,
	method, path string,
	body []byte,
	token string,
) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	req.Header.Set("Pragma", "no-cache")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.http.Do(req)
}

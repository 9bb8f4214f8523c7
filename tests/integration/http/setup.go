package http

import (
	"context"
	"database/sql"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/quotegrid/quotegrid/internal/auth"
	"github.com/quotegrid/quotegrid/internal/config"
	"github.com/quotegrid/quotegrid/internal/ctrl"
	hdl "github.com/quotegrid/quotegrid/internal/hdl/http"
	md "github.com/quotegrid/quotegrid/internal/models"
	"github.com/quotegrid/quotegrid/internal/repo/mem"
	"github.com/stretchr/testify/require"
)

// testCache is a process-local stand-in for the redis cache so integration
// tests run without external services.
type testCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newTestCache() *testCache {
	return &testCache{data: map[string][]byte{}}
}

func (c *testCache) GetToStruct(_ context.Context, key string, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	val, ok := c.data[key]
	if !ok {
		return ctrl.ErrNotFound
	}
	return json.Unmarshal(val, dest)
}

func (c *testCache) Set(_ context.Context, _ time.Duration, key string, val any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if bytes, ok := val.([]byte); ok {
		c.data[key] = bytes
	}
}

func (c *testCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

func (c *testCache) InvalidateKeysByPattern(_ context.Context, pattern string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.data {
		if strings.HasPrefix(key, prefix) {
			delete(c.data, key)
		}
	}
}

func (c *testCache) Close() error { return nil }

type testEmail struct{}

func (testEmail) SendPasswordChanged(string) error { return nil }

type testEnv struct {
	srv  *httptest.Server
	au   auth.Core
	repo *mem.Repository
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	conf := config.Config{}
	conf.Auth.Secret = "integration-test-secret"
	conf.Auth.Issuer = "quotegrid-test"

	au := auth.New(conf)
	repo := mem.New()
	svc := ctrl.New(au, repo, newTestCache(), testEmail{})
	h := hdl.New(au, svc, "dev")

	ts := httptest.NewServer(h.Router)
	t.Cleanup(ts.Close)

	return &testEnv{srv: ts, au: au, repo: repo}
}

// seedUser creates a user directly in the store, bypassing the admin-only
// endpoint, and returns it with the plaintext password kept on the side.
func (e *testEnv) seedUser(
	t *testing.T,
	username string,
	role md.Role,
	companyID *int64,
) (*md.User, string) {
	t.Helper()

	const plaintext = "correct horse battery staple"

	hashed, err := e.au.Hash(plaintext)
	require.NoError(t, err)

	user := &md.User{
		Username:  username,
		Email:     username + "@example.com",
		Password:  sql.NullString{String: hashed, Valid: true},
		Role:      role,
		CompanyID: companyID,
		IsActive:  true,
	}

	id, err := e.repo.CreateUser(context.Background(), user)
	require.NoError(t, err)
	user.ID = id

	return user, plaintext
}

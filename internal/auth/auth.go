package auth

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/quotegrid/quotegrid/internal/auth/jwt"
	"github.com/quotegrid/quotegrid/internal/auth/password"
	"github.com/quotegrid/quotegrid/internal/config"
)

const refreshValueLen = 32

// Core exposes everything handlers and controllers need from the auth layer:
// signed access tokens, opaque refresh values and credential hashing.
type Core interface {
	jwt.Port
	Hash(pswd string) (string, error)
	Verify(pswd, stored string) bool
	NewRefreshValue() (string, error)
}

type core struct {
	*jwt.Core
}

func New(conf config.Config) Core {
	return &core{jwt.New(conf)}
}

func (c *core) Hash(pswd string) (string, error) {
	return password.Hash(pswd)
}

func (c *core) Verify(pswd, stored string) bool {
	return password.Verify(pswd, stored)
}

// NewRefreshValue generates an opaque, unguessable refresh-token value. It is
// deliberately not a JWT: nothing about the session is decodable from it.
func (c *core) NewRefreshValue() (string, error) {
	buf := make([]byte, refreshValueLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	return hex.EncodeToString(buf), nil
}

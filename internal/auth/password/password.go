package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/scrypt"
)

// scrypt parameters. With keyLen=64 and saltLen=16 the two hex segments of a
// stored credential have distinct lengths (128 vs 32 chars), which is what
// the legacy-layout detection in Verify relies on.
const (
	scryptN = 16384
	scryptR = 8
	scryptP = 1
	keyLen  = 64
	saltLen = 16
)

const sep = "."

var ErrHashFailed = errors.New("failed to hash password")

// Hash derives a credential string from a plaintext password. The stored
// layout is hex(key) + "." + hex(salt) with a fresh random salt.
func Hash(pswd string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", ErrHashFailed
	}

	key, err := scrypt.Key([]byte(pswd), salt, scryptN, scryptR, scryptP, keyLen)
	if err != nil {
		return "", ErrHashFailed
	}

	return hex.EncodeToString(key) + sep + hex.EncodeToString(salt), nil
}

// Verify reports whether pswd matches the stored credential. It accepts the
// current "key.salt" layout, the historical inverted "salt.key" layout
// (disambiguated by segment length: the longer segment is the derived key),
// and falls back to bcrypt for credentials migrated from the oldest scheme.
// Malformed stored strings verify as false, never as an error.
func Verify(pswd, stored string) bool {
	if stored == "" {
		return false
	}

	if verifyScrypt(pswd, stored) {
		return true
	}

	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(pswd)) == nil
}

func verifyScrypt(pswd, stored string) bool {
	parts := strings.Split(stored, sep)
	if len(parts) != 2 {
		return false
	}

	keyHex, saltHex := parts[0], parts[1]
	if len(saltHex) > len(keyHex) {
		keyHex, saltHex = saltHex, keyHex
	}

	want, err := hex.DecodeString(keyHex)
	if err != nil {
		return false
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}

	got, err := scrypt.Key([]byte(pswd), salt, scryptN, scryptR, scryptP, len(want))
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(got, want) == 1
}

package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Iterations is the PBKDF2 work factor used for every new hash.
	Iterations = 600000
	saltLength = 16
	keyLength  = 32
)

// HashPassword derives a PBKDF2-SHA256 digest with a fresh random salt.
// The result has the form "<base64 salt>:<base64 key>".
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, Iterations, keyLength, sha256.New)
	return base64.StdEncoding.EncodeToString(salt) + ":" + base64.StdEncoding.EncodeToString(key), nil
}

// VerifyPassword re-derives the digest using the salt embedded in storedHash
// and compares it in constant time. Malformed stored values verify as false.
func VerifyPassword(password, storedHash string) bool {
	parts := strings.Split(storedHash, ":")
	if len(parts) != 2 {
		return false
	}

	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}
	key, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil || len(key) == 0 {
		return false
	}

	test := pbkdf2.Key([]byte(password), salt, Iterations, len(key), sha256.New)
	return subtle.ConstantTimeCompare(test, key) == 1
}

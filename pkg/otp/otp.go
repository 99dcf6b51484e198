package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math/big"
)

// Length is the number of digits in every code.
const Length = 6

var codeSpace = big.NewInt(1000000)

// NewCode returns a uniformly random, zero-padded 6-digit code.
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", Length, n.Int64()), nil
}

// Hash returns the base64-encoded SHA-256 digest stored in place of the code.
func Hash(code string) string {
	sum := sha256.Sum256([]byte(code))
	return base64.StdEncoding.EncodeToString(sum[:])
}

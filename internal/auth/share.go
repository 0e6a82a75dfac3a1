package auth

import (
	"crypto/rand"
	"encoding/base64"
)

// shareTokenBytes yields 128 bits of entropy, 22 URL-safe characters.
const shareTokenBytes = 16

// NewShareToken generates an opaque URL-safe share token.
func NewShareToken() (string, error) {
	buf := make([]byte, shareTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// sessionKeyBytes is the entropy of a session key before hex encoding.
const sessionKeyBytes = 32

// NewSessionKey returns a fresh random session key.
func NewSessionKey() (string, error) {
	buf := make([]byte, sessionKeyBytes)
	if _, errRead := rand.Read(buf); errRead != nil {
		return "", fmt.Errorf("generate session key: %w", errRead)
	}
	return hex.EncodeToString(buf), nil
}

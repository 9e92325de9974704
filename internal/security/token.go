// Package security issues and validates the console's own session tokens.
// Backend credentials are never verified here; the remote API authorizes
// every proxied request with its bearer token independently.
package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims are the JWT claims carried by a console session token.
type SessionClaims struct {
	SessionKey string `json:"sk"` // Opaque key of the persisted session record.
	AdminID    string `json:"aid"`
	jwt.RegisteredClaims
}

// ErrInvalidToken indicates a token that failed parsing or validation.
var ErrInvalidToken = errors.New("invalid session token")

// MakeSessionToken signs a session token for the given session key.
func MakeSessionToken(secret, sessionKey, adminID string, expiry time.Duration) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", errors.New("security: empty jwt secret")
	}
	if strings.TrimSpace(sessionKey) == "" {
		return "", errors.New("security: empty session key")
	}
	if expiry <= 0 {
		return "", fmt.Errorf("security: invalid expiry: %s", expiry)
	}

	now := time.Now().UTC()
	claims := SessionClaims{
		SessionKey: sessionKey,
		AdminID:    adminID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "finsim-admin-console",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, errSign := token.SignedString([]byte(secret))
	if errSign != nil {
		return "", fmt.Errorf("security: sign token: %w", errSign)
	}
	return signed, nil
}

// ParseSessionToken validates a session token and returns its claims.
func ParseSessionToken(secret, raw string) (*SessionClaims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidToken
	}

	claims := &SessionClaims{}
	parsed, errParse := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if errParse != nil {
		return nil, ErrInvalidToken
	}
	if !parsed.Valid || strings.TrimSpace(claims.SessionKey) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

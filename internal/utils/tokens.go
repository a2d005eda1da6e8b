package utils

import (
	"crypto/rand"
	"encoding/base64"
	"io"
)

// GenerateSecureToken creates a cryptographically secure random token.
func GenerateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := io.ReadFull(rand.Reader, bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

// SessionSecret returns configured, or a random secret when it is empty. A
// random secret invalidates existing cookies on every restart.
func SessionSecret(configured string) (string, bool, error) {
	if configured != "" {
		return configured, false, nil
	}
	token, err := GenerateSecureToken(32)
	return token, true, err
}

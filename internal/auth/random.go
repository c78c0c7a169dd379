package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// TokenBytes is the amount of entropy in every generated credential
const TokenBytes = 32

// RandomToken returns TokenBytes random bytes, standard base64 encoded
func RandomToken() (string, error) {
	b, err := randomBytes(TokenBytes)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// RandomURLToken returns TokenBytes random bytes encoded for use in cookies and URLs
func RandomURLToken() (string, error) {
	b, err := randomBytes(TokenBytes)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return b, nil
}

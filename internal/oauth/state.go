// Package oauth implements browser logins through external OAuth providers
package oauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultStateTTL bounds the time between the redirect to a provider and its callback
const DefaultStateTTL = 10 * time.Minute

// ErrInvalidState is returned for states that were not issued by this server,
// expired or belong to another provider
var ErrInvalidState = errors.New("invalid oauth state")

// StateSigner issues and checks the signed state parameter of the authorization flow
type StateSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewStateSigner creates a new state signer
func NewStateSigner(secret string, ttl time.Duration) *StateSigner {
	return &StateSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Sign creates a state bound to provider
func (s *StateSigner) Sign(provider string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"provider": provider,
		"nonce":    uuid.NewString(),
		"iat":      now.Unix(),
		"exp":      now.Add(s.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign state: %w", err)
	}
	return signed, nil
}

// Verify checks that state was signed by Sign for provider and has not expired
func (s *StateSigner) Verify(state, provider string) error {
	token, err := jwt.Parse(state, func(token *jwt.Token) (any, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return ErrInvalidState
	}

	if p, _ := claims["provider"].(string); p != provider {
		return fmt.Errorf("%w: issued for another provider", ErrInvalidState)
	}

	return nil
}

package flash

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type signedClaims struct {
	Message
	jwt.RegisteredClaims
}

// SignedStore keeps the message inside the token itself, an HS256 JWT.
// Token ids already taken are remembered until the token expires, so a
// replayed cookie yields nothing.
type SignedStore struct {
	secret []byte
	now    func() time.Time

	mu       sync.Mutex
	consumed map[string]time.Time
}

func NewSignedStore(secret []byte) *SignedStore {
	return &SignedStore{
		secret:   secret,
		now:      time.Now,
		consumed: make(map[string]time.Time),
	}
}

// RandomSecret returns a fresh signing key for stores that need not survive
// a restart.
func RandomSecret() ([]byte, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate flash secret: %w", err)
	}
	return b, nil
}

func (s *SignedStore) Put(_ context.Context, msg Message, ttl time.Duration) (string, error) {
	now := s.now()
	claims := signedClaims{
		Message: msg,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign flash message: %w", err)
	}
	return token, nil
}

func (s *SignedStore) Take(_ context.Context, token string) (Message, bool, error) {
	var claims signedClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Message{}, false, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, exp := range s.consumed {
		if !exp.After(now) {
			delete(s.consumed, id)
		}
	}

	if _, taken := s.consumed[claims.ID]; taken {
		return Message{}, false, nil
	}
	s.consumed[claims.ID] = claims.ExpiresAt.Time

	return claims.Message, true, nil
}

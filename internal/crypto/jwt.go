package crypto

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sumanskitchen/kitchen-go/internal/model"
)

const tokenIssuer = "kitchen"

var (
	ErrInvalidToken         = errors.New("invalid or expired token")
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
	ErrInvalidLifetime      = errors.New("token lifetime must be positive")
	ErrEmptySecret          = errors.New("signing secret must not be empty")
)

// TokenService issues and verifies signed session tokens whose subject is a user ID.
// It holds no mutable state and is safe for concurrent use.
type TokenService struct {
	secret   []byte
	method   jwt.SigningMethod
	lifetime time.Duration
}

// NewTokenService creates a TokenService. Only HMAC algorithms (HS256, HS384, HS512) are accepted.
func NewTokenService(secret []byte, algorithm string, lifetime time.Duration) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}
	if lifetime <= 0 {
		return nil, ErrInvalidLifetime
	}
	return &TokenService{secret: secret, method: method, lifetime: lifetime}, nil
}

// Lifetime returns the configured token validity window.
func (s *TokenService) Lifetime() time.Duration {
	return s.lifetime
}

// Issue creates a token for userID that expires lifetime after now.
func (s *TokenService) Issue(userID model.ID, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
	}

	token := jwt.NewWithClaims(s.method, claims)
	return token.SignedString(s.secret)
}

// Verify checks signature, algorithm and expiry at now and returns the subject.
// Every failure, including a panic inside the JWT library, is reported as ErrInvalidToken.
func (s *TokenService) Verify(tokenString string, now time.Time) (id model.ID, err error) {
	defer func() {
		if recover() != nil {
			id, err = "", ErrInvalidToken
		}
	}()

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	userID, err := model.ParseID(claims.Subject)
	if err != nil {
		return "", ErrInvalidToken
	}

	return userID, nil
}

package services

import (
	"errors"
	"fmt"
	"time"

	"elibrary/internal/models"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

// TokenClaims are the claims carried by an access token.
type TokenClaims struct {
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	jwt.StandardClaims
}

// UserID returns the subject of the token.
func (c *TokenClaims) UserID() string {
	return c.Subject
}

// TokenService mints and validates HS256 bearer tokens.
type TokenService struct {
	key      []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// NewTokenService creates a TokenService signing with key.
func NewTokenService(key, issuer, audience string, ttl time.Duration) *TokenService {
	return &TokenService{
		key:      []byte(key),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		now:      time.Now,
	}
}

// WithClock replaces the clock used for issuance.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// Issue returns a signed token for the user and its expiry time.
func (s *TokenService) Issue(userID, username string, role models.Role) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := TokenClaims{
		Username: username,
		Role:     role,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.New().String(),
			Subject:   userID,
			Issuer:    s.issuer,
			Audience:  s.audience,
			IssuedAt:  now.Unix(),
			NotBefore: now.Unix(),
			ExpiresAt: expiresAt.Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, expiresAt, nil
}

// Validate checks signature, expiry, issuer and audience and returns the
// claims. No clock skew is tolerated.
func (s *TokenService) Validate(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	switch {
	case claims.ExpiresAt == 0:
		return nil, errors.New("invalid token: missing expiry")
	case !claims.VerifyIssuer(s.issuer, true):
		return nil, errors.New("invalid token: issuer mismatch")
	case !claims.VerifyAudience(s.audience, true):
		return nil, errors.New("invalid token: audience mismatch")
	case claims.Subject == "" || !claims.Role.Valid():
		return nil, errors.New("invalid token: missing identity claims")
	}
	return claims, nil
}

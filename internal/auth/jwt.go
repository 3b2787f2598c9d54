// Package auth issues and checks session tokens and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/zeebo/blake3"
)

// MinSecretLen is the shortest auth.secret accepted.
const MinSecretLen = 16

const keyContext = "restaurant-platform 2024 session signing key"

var ErrShortSecret = fmt.Errorf("auth: secret must be at least %d bytes", MinSecretLen)

// Claims identify a logged-in user.
type Claims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"name"`
	jwt.RegisteredClaims
}

// Sessions signs and validates HS256 session tokens. The signing key is
// derived from the configured secret, never the secret itself.
type Sessions struct {
	key    []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewSessions(secret string, ttl time.Duration, secureCookie bool) (*Sessions, error) {
	if len(secret) < MinSecretLen {
		return nil, ErrShortSecret
	}
	key := make([]byte, 32)
	blake3.DeriveKey(keyContext, []byte(secret), key)
	return &Sessions{key: key, ttl: ttl, secure: secureCookie, now: time.Now}, nil
}

// TTL is the lifetime given to new tokens.
func (s *Sessions) TTL() time.Duration { return s.ttl }

// Issue returns a signed token for the user.
func (s *Sessions) Issue(userID int64, username string) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

// Validate parses tokenStr, pinning the signing method to HS256.
func (s *Sessions) Validate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v (only HS256 allowed)", t.Header["alg"])
		}
		return s.key, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.UserID > 0 {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

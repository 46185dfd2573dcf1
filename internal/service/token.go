package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"snapfeed/internal/model"
)

// TokenService issues and verifies signed auth tokens. Verification
// failures all surface as model.ErrInvalidToken so callers cannot tell a
// tampered token from an expired one.
type TokenService struct {
	secret []byte
	maxAge time.Duration
}

// NewTokenService creates a TokenService. maxAgeSeconds is the token
// lifetime in seconds.
func NewTokenService(secret string, maxAgeSeconds int) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		maxAge: time.Duration(maxAgeSeconds) * time.Second,
	}
}

// Issue creates a signed token for the given user.
func (s *TokenService) Issue(userID int64, username string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":  userID,
		"username": username,
		"iat":      now.Unix(),
		"exp":      now.Add(s.maxAge).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify validates a token and returns the user id it was issued for.
func (s *TokenService) Verify(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, model.ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, model.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, model.ErrInvalidToken
	}

	// JSON numbers decode as float64.
	userID, ok := claims["user_id"].(float64)
	if !ok || userID <= 0 {
		return 0, model.ErrInvalidToken
	}

	return int64(userID), nil
}

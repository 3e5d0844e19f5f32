package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var tokenSigningMethod = jwt.SigningMethodHS256

type optionTokenClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// MintOptionToken issues the short-lived token the storefront presents
// when toggling shipping options for a session.
func MintOptionToken(secret, sessionID string, now time.Time, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("session secret is required")
	}
	if strings.TrimSpace(sessionID) == "" {
		return "", fmt.Errorf("session id is required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive")
	}

	claims := optionTokenClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(tokenSigningMethod, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing option token: %w", err)
	}
	return signed, nil
}

// ValidateOptionToken checks the signature and expiry and returns the
// session the token was minted for.
func ValidateOptionToken(secret, tokenString string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("session secret is required")
	}

	claims := &optionTokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != tokenSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{tokenSigningMethod.Alg()}),
	)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(claims.SessionID) == "" {
		return "", fmt.Errorf("option token missing session id")
	}
	return claims.SessionID, nil
}

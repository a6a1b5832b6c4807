package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateToken signs a JWT carrying username and role.
// ttl controls how long it stays valid: short for REST logins, long for
// the reconnect tokens stored on each user.
func GenerateToken(secret, username, role string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"username": username,
		"role":     role,
		"exp":      time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken verifies the signature and returns username + role.
func ParseToken(secret, encodedToken string) (username, role string, err error) {
	token, err := jwt.Parse(encodedToken, func(token *jwt.Token) (interface{}, error) {
		// Only HMAC, anything else is rejected.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", errors.New("invalid claims")
	}

	username, _ = claims["username"].(string)
	role, _ = claims["role"].(string)
	if username == "" || role == "" {
		return "", "", errors.New("incomplete claims")
	}
	return username, role, nil
}

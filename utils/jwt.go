package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"hireflow/config"
	"hireflow/models"

	"github.com/golang-jwt/jwt"
)

const devSecret = "HIREFLOW_DEV_SECRET"

func secretKey() []byte {
	if config.AppConfig.JWTSecret != "" {
		return []byte(config.AppConfig.JWTSecret)
	}
	return []byte(devSecret)
}

// GenerateToken creates a signed JWT for the principal. The token expires
// after the specified duration.
func GenerateToken(p models.Principal, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  p.ID,
		"role": string(p.Role),
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(duration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey())
}

// HashToken computes a SHA-256 hash of the token string.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ValidateToken parses and validates a token string and returns the token if valid.
func ValidateToken(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Ensure that the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secretKey(), nil
	})
}

// PrincipalFromToken extracts the caller identity from a valid token.
func PrincipalFromToken(tokenString string) (models.Principal, error) {
	token, err := ValidateToken(tokenString)
	if err != nil {
		return models.Principal{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return models.Principal{}, errors.New("invalid token")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return models.Principal{}, errors.New("token does not contain a valid 'sub' claim")
	}
	role, _ := claims["role"].(string)
	switch models.Role(role) {
	case models.RoleEmployer, models.RoleFreelancer, models.RoleAdmin:
	default:
		return models.Principal{}, errors.New("token does not contain a valid 'role' claim")
	}

	return models.Principal{ID: sub, Role: models.Role(role)}, nil
}

// TokenExpiry returns the exp claim of a valid token.
func TokenExpiry(tokenString string) (time.Time, error) {
	token, err := ValidateToken(tokenString)
	if err != nil {
		return time.Time{}, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return time.Time{}, errors.New("invalid token claims")
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return time.Time{}, errors.New("token does not contain an 'exp' claim")
	}
	return time.Unix(int64(exp), 0), nil
}

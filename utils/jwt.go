package utils

import (
	"errors"

	"mindsprout/config"

	"github.com/golang-jwt/jwt"
)

// ActorClaims carries the identity the surrounding auth system issued for a
// request. Token issuance itself is handled outside this service.
type ActorClaims struct {
	ID   string
	Role string // "parent", "therapist" or "operator"
}

// ValidateToken parses and validates a token string and returns the token if valid.
func ValidateToken(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Ensure that the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})
}

// ExtractActorFromToken extracts the subject and role claims from a valid JWT
// token string.
func ExtractActorFromToken(tokenString string) (*ActorClaims, error) {
	token, err := ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, errors.New("token missing subject")
	}
	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return nil, errors.New("token missing role")
	}
	return &ActorClaims{ID: sub, Role: role}, nil
}

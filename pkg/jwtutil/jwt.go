package jwtutil

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var secret = []byte("rentalservicesecretkey")

// SetSigningKey overrides the signing key from configuration.
// Must be called before any token is issued or validated.
func SetSigningKey(key string) {
	if key != "" {
		secret = []byte(key)
	}
}

// OwnerClaims represents the JWT claims for owner authentication
type OwnerClaims struct {
	OwnerID string `json:"owner_id"`
	Email   string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateToken issues a signed token for an owner
func GenerateToken(ownerID, email string, ttl time.Duration) (string, error) {
	claims := OwnerClaims{
		OwnerID: ownerID,
		Email:   email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken validates and parses the JWT token
func ValidateToken(tokenString string) (*OwnerClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &OwnerClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*OwnerClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}

package middleware

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/zaqqye/toolcrib/internal/models"
)

const tokenIssuer = "toolcrib"

// NewAccessToken signs a short-lived HS256 access token for user.
func NewAccessToken(user models.User, secret string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		UserID:   user.UserID,
		Role:     user.Role,
		Workshop: user.Workshop,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

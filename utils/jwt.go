package utils

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

type CustomClaims struct {
	Role      string `json:"role"`
	IsRefresh bool   `json:"isRefresh"`
	jwt.RegisteredClaims
}

var (
	ErrMissingKid   = errors.New("kid not found in token header")
	ErrRefreshToken = errors.New("refresh tokens cannot be used for API access")
	ErrMissingSub   = errors.New("token has no subject")
)

// ParseJWT verifies an RS256 token against the key named by its kid header.
func ParseJWT(store *PublicKeyStore, tokenString string) (*CustomClaims, error) {
	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, ErrMissingKid
		}
		return store.GetKey(kid)
	}, jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.IsRefresh {
		return nil, ErrRefreshToken
	}
	if claims.Subject == "" {
		return nil, ErrMissingSub
	}
	return claims, nil
}

// DescribeJWTError trims jwt/v5's wrapped errors to a short reason.
func DescribeJWTError(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "token is expired"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "token is malformed"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "token signature is invalid"
	case errors.Is(err, ErrMissingKid):
		return ErrMissingKid.Error()
	default:
		return fmt.Sprint(err)
	}
}

package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo holds claims read from a JWT-shaped bearer token.
type TokenInfo struct {
	Subject   string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// InspectToken reads registered claims from token without verifying its
// signature. It returns false for opaque tokens.
//
// The result is informational only (logs, health details); providers never
// use it to decide whether a token is still valid.
func InspectToken(token string) (TokenInfo, bool) {
	if strings.Count(token, ".") != 2 {
		return TokenInfo{}, false
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return TokenInfo{}, false
	}

	info := TokenInfo{
		Subject: claims.Subject,
		Issuer:  claims.Issuer,
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, true
}

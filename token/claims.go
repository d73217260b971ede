package token

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Claims is the identity carried by a backend access token.
type Claims struct {
	Subject   string
	Email     string
	Name      string
	Role      string
	ExpiresAt time.Time // zero when the token carries no exp
}

// Expired reports whether the token expiry has passed at now. Tokens without exp never expire.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// ParseClaims decodes the payload of a JWT access token without verifying its signature.
// The client never holds the signing key; the server remains the authority on validity.
func ParseClaims(raw string) (Claims, error) {
	claims := jwtlib.MapClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(raw, claims); err != nil {
		return Claims{}, fmt.Errorf("parse access token: %w", err)
	}

	c := Claims{
		Email: stringClaim(claims, "email"),
		Name:  stringClaim(claims, "name"),
		Role:  stringClaim(claims, "role"),
	}
	if sub, err := claims.GetSubject(); err == nil {
		c.Subject = sub
	}
	if c.Subject == "" {
		// some backends put the user id under "id" or "userId"
		c.Subject = stringClaim(claims, "id")
		if c.Subject == "" {
			c.Subject = stringClaim(claims, "userId")
		}
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

func stringClaim(claims jwtlib.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

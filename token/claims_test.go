package token_test

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-bizadmin-client/token"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	raw, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("some-other-secret"))
	require.NoError(t, err)
	return raw
}

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	raw := signed(t, jwtlib.MapClaims{
		"sub":   "user-42",
		"email": "jane@example.com",
		"name":  "Jane Doe",
		"role":  "admin",
		"exp":   exp.Unix(),
	})

	c, err := token.ParseClaims(raw)
	require.NoError(t, err)
	require.Equal(t, "user-42", c.Subject)
	require.Equal(t, "jane@example.com", c.Email)
	require.Equal(t, "Jane Doe", c.Name)
	require.Equal(t, "admin", c.Role)
	require.True(t, c.ExpiresAt.Equal(exp))
	require.False(t, c.Expired(time.Now()))
	require.True(t, c.Expired(exp.Add(time.Second)))
}

func TestParseClaims_IDFallback(t *testing.T) {
	c, err := token.ParseClaims(signed(t, jwtlib.MapClaims{"id": "abc"}))
	require.NoError(t, err)
	require.Equal(t, "abc", c.Subject)
	require.True(t, c.ExpiresAt.IsZero())
	require.False(t, c.Expired(time.Now()))
}

func TestParseClaims_Opaque(t *testing.T) {
	_, err := token.ParseClaims("8f14e45fceea167a5a36dedd4bea2543")
	require.Error(t, err)
}

package jwt

import (
	"context"
	"testing"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAccessToken_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret-key-for-jwt", "1h")

	token, expiresAt, err := svc.GenerateAccessToken("user-1", "company-1", "admin")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Positive(t, expiresAt)

	decoded, err := jwtauth.VerifyToken(svc.JWTAuth(), token)
	require.NoError(t, err)

	companyID, ok := decoded.Get("company_id")
	require.True(t, ok)
	assert.Equal(t, "company-1", companyID)

	userID, ok := decoded.Get("user_id")
	require.True(t, ok)
	assert.Equal(t, "user-1", userID)
}

func TestGenerateAccessToken_InvalidDuration(t *testing.T) {
	svc := NewJWTService("secret", "not-a-duration")

	_, _, err := svc.GenerateAccessToken("user-1", "company-1", "admin")
	assert.Error(t, err)
}

func TestContextWithClaims(t *testing.T) {
	ctx, err := ContextWithClaims(context.Background(), "company-1", "user-1")
	require.NoError(t, err)

	_, claims, err := jwtauth.FromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "company-1", claims["company_id"])
	assert.Equal(t, "user-1", claims["user_id"])
}
